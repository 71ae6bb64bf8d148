package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	priceHeader = "Timestamp\tListingId\tListingName\tPMSName\tReason\tStartDate\tEndDate\tPrice\tCurrency\tPriceType\tMinimumStay\tMinimumPrice\tMaximumPrice\tUpdatedAt\tCheckIn\tCheckOut"
	errorHeader = "Timestamp\tListingId\tListingName\tPMSName\tStartDate\tEndDate\tOldPrice\tNewPrice\tCurrency\tErrorDetails"
)

// Audit writes the append-only tab-separated price-update and error
// logs. One pair of files per process start, timestamped, so the
// archive worker can ship finished files without racing the writer.
type Audit struct {
	mu        sync.Mutex
	priceFile *os.File
	errorFile *os.File
	dir       string
}

type PriceRecord struct {
	ListingID   string
	ListingName string
	PMS         string
	Reason      string
	StartDate   string
	EndDate     string
	Price       float64
	Currency    string
	PriceType   string
	MinStay     int
	MinPrice    *float64
	MaxPrice    *float64
	CheckIn     string
	CheckOut    string
}

type ErrorRecord struct {
	ListingID   string
	ListingName string
	PMS         string
	StartDate   string
	EndDate     string
	OldPrice    float64
	NewPrice    float64
	Currency    string
	Detail      string
}

func OpenAudit(dir string) (*Audit, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	priceFile, err := openWithHeader(filepath.Join(dir, "pricing_updates_"+stamp+".log"), priceHeader)
	if err != nil {
		return nil, err
	}
	errorFile, err := openWithHeader(filepath.Join(dir, "errors_"+stamp+".log"), errorHeader)
	if err != nil {
		priceFile.Close()
		return nil, err
	}

	return &Audit{priceFile: priceFile, errorFile: errorFile, dir: dir}, nil
}

func (a *Audit) Dir() string {
	return a.dir
}

// ActiveFiles names the files this process is still writing, so the
// archive worker leaves them alone.
func (a *Audit) ActiveFiles() []string {
	return []string{a.priceFile.Name(), a.errorFile.Name()}
}

func (a *Audit) PriceUpdate(rec PriceRecord) {
	now := time.Now().Format("2006-01-02 15:04:05")
	row := strings.Join([]string{
		now,
		rec.ListingID,
		rec.ListingName,
		rec.PMS,
		rec.Reason,
		rec.StartDate,
		rec.EndDate,
		fmt.Sprintf("$%.2f", rec.Price),
		rec.Currency,
		rec.PriceType,
		fmt.Sprintf("%d", rec.MinStay),
		formatBound(rec.MinPrice),
		formatBound(rec.MaxPrice),
		now,
		rec.CheckIn,
		rec.CheckOut,
	}, "\t")
	a.write(a.priceFile, row)
}

func (a *Audit) Error(rec ErrorRecord) {
	now := time.Now().Format("2006-01-02 15:04:05")
	row := strings.Join([]string{
		now,
		rec.ListingID,
		rec.ListingName,
		rec.PMS,
		rec.StartDate,
		rec.EndDate,
		fmt.Sprintf("$%.2f", rec.OldPrice),
		fmt.Sprintf("$%.2f", rec.NewPrice),
		rec.Currency,
		rec.Detail,
	}, "\t")
	a.write(a.errorFile, row)
}

func (a *Audit) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.priceFile.Close()
	if err2 := a.errorFile.Close(); err == nil {
		err = err2
	}
	return err
}

func (a *Audit) write(f *os.File, row string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(f, row)
}

func openWithHeader(path, header string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		fmt.Fprintln(f, header)
	}
	return f, nil
}

func formatBound(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}
