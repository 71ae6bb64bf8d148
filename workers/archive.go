package workers

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Uploader abstracts the archive destination so the worker runs with a
// NoOp target until S3 credentials are configured.
type Uploader interface {
	UploadLog(ctx context.Context, name string, data io.Reader) error
}

// NoOpUploader does nothing; used when no archive bucket is configured.
type NoOpUploader struct{}

func NewNoOpUploader() *NoOpUploader {
	return &NoOpUploader{}
}

func (n *NoOpUploader) UploadLog(ctx context.Context, name string, data io.Reader) error {
	return nil
}

// ArchiveWorker periodically ships finished audit logs from the audit
// directory to the uploader. The file pair belonging to the current
// process is skipped; only logs from earlier runs are safe to move.
type ArchiveWorker struct {
	uploader  Uploader
	dir       string
	activeSet map[string]bool
	triggerCh chan struct{}
}

func NewArchiveWorker(uploader Uploader, dir string, activeFiles []string) *ArchiveWorker {
	active := make(map[string]bool, len(activeFiles))
	for _, f := range activeFiles {
		active[filepath.Base(f)] = true
	}
	return &ArchiveWorker{
		uploader:  uploader,
		dir:       dir,
		activeSet: active,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate archive pass.
func (w *ArchiveWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *ArchiveWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Archive worker stopping")
			return
		case <-ticker.C:
			w.archivePass(ctx)
		case <-w.triggerCh:
			w.archivePass(ctx)
		}
	}
}

func (w *ArchiveWorker) archivePass(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Archive worker: read dir: %v", err)
		}
		return
	}

	var shipped int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") || w.activeSet[name] {
			continue
		}
		if err := w.shipFile(ctx, name); err != nil {
			log.Printf("Archive worker: %s: %v", name, err)
			continue
		}
		shipped++
	}

	if shipped > 0 {
		log.Printf("Archive worker: shipped %d audit logs", shipped)
	}
}

func (w *ArchiveWorker) shipFile(ctx context.Context, name string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.uploader.UploadLog(ctx, name, f); err != nil {
		return err
	}
	return os.Remove(path)
}
