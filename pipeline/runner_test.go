package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pl_adjuster/config"
	"pl_adjuster/models"
	"pl_adjuster/pricelabs"
	"pl_adjuster/pricing"
)

type updateCall struct {
	listingID string
	req       pricelabs.UpdateRequest
}

type fakeAPI struct {
	listings     []models.Listing
	overrides    map[string][]models.Override
	failGet      map[string]error
	failUpdate   map[string]error
	listingsErr  error
	updates      []updateCall
	overrideGets []string
}

func (f *fakeAPI) GetListings(ctx context.Context) ([]models.Listing, error) {
	if f.listingsErr != nil {
		return nil, f.listingsErr
	}
	return f.listings, nil
}

func (f *fakeAPI) GetOverrides(ctx context.Context, listingID, pms string) ([]models.Override, error) {
	f.overrideGets = append(f.overrideGets, listingID)
	if err := f.failGet[listingID]; err != nil {
		return nil, err
	}
	return f.overrides[listingID], nil
}

func (f *fakeAPI) UpdateOverrides(ctx context.Context, listingID string, req pricelabs.UpdateRequest) error {
	if err := f.failUpdate[listingID]; err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{listingID: listingID, req: req})
	return nil
}

var _ pricelabs.API = (*fakeAPI)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Percent:    5,
		BatchSize:  20,
		BatchDelay: 2 * time.Second,
		Profiles:   make(map[string]*config.PMSProfile),
	}
}

// newTestRunner pins the clock to 2026-09-01 and counts sleeps instead
// of taking them.
func newTestRunner(api *fakeAPI) (*Runner, *int) {
	r := NewRunner(api, testConfig())
	r.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	sleeps := 0
	r.sleep = func(ctx context.Context, d time.Duration) { sleeps++ }
	return r, &sleeps
}

func override(date, price string) models.Override {
	return models.Override{Date: date, Price: price, PriceType: models.PriceTypeFixed}
}

type fakeStore struct {
	created  int
	outcomes []models.Outcome
	finished *models.AdjustRun
	logs     []string
}

func (s *fakeStore) CreateRun(ctx context.Context, run *models.AdjustRun) (int64, error) {
	s.created++
	return 42, nil
}

func (s *fakeStore) AddOutcome(ctx context.Context, runID int64, o models.Outcome) error {
	if runID != 42 {
		return fmt.Errorf("unexpected run id %d", runID)
	}
	s.outcomes = append(s.outcomes, o)
	return nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run *models.AdjustRun) error {
	s.finished = run
	return nil
}

func (s *fakeStore) AddLog(ctx context.Context, runID *int64, level models.LogLevel, source, message string) error {
	if runID == nil || *runID != 42 {
		return fmt.Errorf("log not attached to run: %v", runID)
	}
	s.logs = append(s.logs, string(level)+": "+message)
	return nil
}

func TestRun_RecordsHistory(t *testing.T) {
	api := &fakeAPI{
		overrides: map[string][]models.Override{
			"101": {override("2026-09-10", "100"), override("2026-09-11", "120")},
			"102": {},
		},
		failGet: map[string]error{"102": errors.New("boom")},
	}
	listings := []models.Listing{
		{ID: "101", Name: "Good", PMS: "guesty", PushEnabled: true},
		{ID: "102", Name: "Bad", PMS: "guesty", PushEnabled: true},
	}

	r, _ := newTestRunner(api)
	store := &fakeStore{}
	r.AddStore(store)

	report := r.Run(context.Background(), listings, Options{Increase: true, Source: "cli"})

	if store.created != 1 {
		t.Fatalf("expected 1 run record, got %d", store.created)
	}
	if len(store.outcomes) != 2 {
		t.Fatalf("expected 2 stored outcomes, got %d", len(store.outcomes))
	}
	if store.finished == nil {
		t.Fatalf("run was never finished")
	}
	if store.finished.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed status, got %s", store.finished.Status)
	}
	if store.finished.Succeeded != 1 || store.finished.Failed != 1 {
		t.Fatalf("unexpected run counts: %+v", store.finished)
	}
	if store.finished.PricesChanged != 2 {
		t.Fatalf("expected 2 prices changed, got %d", store.finished.PricesChanged)
	}
	if store.finished.RunUUID != report.RunID {
		t.Fatalf("run uuid mismatch: %s vs %s", store.finished.RunUUID, report.RunID)
	}

	// Start line, one error line for the failed listing, complete line.
	if len(store.logs) != 3 {
		t.Fatalf("expected 3 run log rows, got %d: %v", len(store.logs), store.logs)
	}
	if !strings.HasPrefix(store.logs[0], "info: Run started") {
		t.Fatalf("unexpected start log: %s", store.logs[0])
	}
	if !strings.Contains(store.logs[1], "error: Bad (102)") {
		t.Fatalf("unexpected error log: %s", store.logs[1])
	}
	if !strings.HasPrefix(store.logs[2], "info: Run complete: 1 succeeded, 1 failed, 2 prices changed") {
		t.Fatalf("unexpected completion log: %s", store.logs[2])
	}
}

func TestRun_BatchDelays(t *testing.T) {
	api := &fakeAPI{overrides: map[string][]models.Override{}}
	var listings []models.Listing
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("L%02d", i)
		listings = append(listings, models.Listing{ID: models.FlexID(id), Name: id, PMS: "guesty", PushEnabled: true})
		api.overrides[id] = []models.Override{override("2026-09-10", "100")}
	}

	r, sleeps := newTestRunner(api)
	report := r.Run(context.Background(), listings, Options{Increase: true})

	if report.Total != 25 || report.Succeeded != 25 || report.Failed != 0 {
		t.Fatalf("unexpected counts: total=%d succeeded=%d failed=%d",
			report.Total, report.Succeeded, report.Failed)
	}
	// 25 listings at batch size 20 means two batches and one pause
	// between them, none after the last.
	if *sleeps != 1 {
		t.Fatalf("expected 1 inter-batch delay, got %d", *sleeps)
	}
	if len(api.updates) != 25 {
		t.Fatalf("expected 25 updates, got %d", len(api.updates))
	}
}

func TestRun_NoDelayForSingleBatch(t *testing.T) {
	api := &fakeAPI{overrides: map[string][]models.Override{
		"101": {override("2026-09-10", "100")},
	}}
	listings := []models.Listing{{ID: "101", Name: "Solo", PMS: "guesty", PushEnabled: true}}

	r, sleeps := newTestRunner(api)
	r.Run(context.Background(), listings, Options{Increase: true})
	if *sleeps != 0 {
		t.Fatalf("expected no delays for a single batch, got %d", *sleeps)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	api := &fakeAPI{
		overrides: map[string][]models.Override{
			"101": {override("2026-09-10", "100")},
			"102": {override("2026-09-10", "100")},
			"103": {override("2026-09-10", "100")},
		},
		failUpdate: map[string]error{"102": errors.New("boom")},
	}
	listings := []models.Listing{
		{ID: "101", Name: "First", PMS: "guesty", PushEnabled: true},
		{ID: "102", Name: "Second", PMS: "guesty", PushEnabled: true},
		{ID: "103", Name: "Third", PMS: "guesty", PushEnabled: true},
	}

	r, _ := newTestRunner(api)
	report := r.Run(context.Background(), listings, Options{Increase: true})

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("expected 2 succeeded / 1 failed, got %d / %d", report.Succeeded, report.Failed)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Outcomes))
	}
	// Outcomes keep input order even around a failure.
	for i, want := range []string{"101", "102", "103"} {
		if report.Outcomes[i].ListingID != want {
			t.Fatalf("outcome %d: expected listing %s, got %s", i, want, report.Outcomes[i].ListingID)
		}
	}
	bad := report.Outcomes[1]
	if bad.Status != models.OutcomeError {
		t.Fatalf("expected error status for listing 102, got %s", bad.Status)
	}
	if bad.Reason == "" {
		t.Fatalf("expected a failure reason for listing 102")
	}
	if len(api.updates) != 2 {
		t.Fatalf("expected 2 successful updates, got %d", len(api.updates))
	}
}

func TestRun_OverrideFetchFailure(t *testing.T) {
	api := &fakeAPI{
		overrides: map[string][]models.Override{},
		failGet:   map[string]error{"101": errors.New("timeout")},
	}
	listings := []models.Listing{{ID: "101", Name: "Broken", PMS: "guesty", PushEnabled: true}}

	r, _ := newTestRunner(api)
	report := r.Run(context.Background(), listings, Options{Increase: true})

	if report.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", report.Failed)
	}
	if report.Outcomes[0].Reason != "failed to fetch overrides: timeout" {
		t.Fatalf("unexpected reason: %q", report.Outcomes[0].Reason)
	}
	if len(api.updates) != 0 {
		t.Fatalf("no updates should be attempted after a fetch failure")
	}
}

func TestAdjustAll_ListingFetchFailureIsFatal(t *testing.T) {
	api := &fakeAPI{listingsErr: errors.New("connection refused")}

	r, _ := newTestRunner(api)
	_, err := r.AdjustAll(context.Background(), nil, "", Options{Increase: true})
	if err == nil {
		t.Fatalf("expected a fatal error when the listing fetch fails")
	}
}

func TestAdjustAll_UnknownIDsAreFatal(t *testing.T) {
	api := &fakeAPI{listings: []models.Listing{
		{ID: "101", Name: "Beach House", PMS: "guesty", PushEnabled: true},
	}}

	r, _ := newTestRunner(api)
	_, err := r.AdjustAll(context.Background(), []string{"999"}, "", Options{Increase: true})
	if !errors.Is(err, pricing.ErrNoListings) {
		t.Fatalf("expected ErrNoListings, got %v", err)
	}
}

func TestAdjustAll_FiltersHiddenAndDisabled(t *testing.T) {
	api := &fakeAPI{
		listings: []models.Listing{
			{ID: "101", Name: "Active", PMS: "guesty", PushEnabled: true},
			{ID: "102", Name: "Hidden", PMS: "guesty", Hidden: true, PushEnabled: true},
			{ID: "103", Name: "Disabled", PMS: "guesty"},
		},
		overrides: map[string][]models.Override{
			"101": {override("2026-09-10", "100")},
		},
	}

	r, _ := newTestRunner(api)
	report, err := r.AdjustAll(context.Background(), nil, "", Options{Increase: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("expected 1 listing in the run, got %d", report.Total)
	}
	if len(api.overrideGets) != 1 || api.overrideGets[0] != "101" {
		t.Fatalf("hidden or disabled listing was touched: %v", api.overrideGets)
	}
}

func TestRun_DefaultsFromConfig(t *testing.T) {
	api := &fakeAPI{overrides: map[string][]models.Override{
		"101": {override("2026-09-10", "100")},
	}}
	listings := []models.Listing{{ID: "101", Name: "Solo", PMS: "guesty", PushEnabled: true}}

	r, _ := newTestRunner(api)
	r.Run(context.Background(), listings, Options{Increase: true})

	if len(api.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(api.updates))
	}
	// Percent was left zero, so the config default of 5% applies.
	if got := api.updates[0].req.Overrides[0].Price; got != "105" {
		t.Fatalf("expected config percent to apply, got price %s", got)
	}
}
