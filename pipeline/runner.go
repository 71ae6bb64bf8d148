package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pl_adjuster/config"
	"pl_adjuster/logging"
	"pl_adjuster/models"
	"pl_adjuster/pricelabs"
	"pl_adjuster/pricing"
)

// Options describe one adjustment run.
type Options struct {
	Increase  bool
	Percent   float64
	DryRun    bool
	BatchSize int
	Delay     time.Duration
	Source    string
}

func (o Options) Direction() string {
	if o.Increase {
		return "increase"
	}
	return "decrease"
}

// RunStore records runs and their outcomes. SQLite always, Postgres
// when configured; both writes are best effort.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.AdjustRun) (int64, error)
	AddOutcome(ctx context.Context, runID int64, o models.Outcome) error
	FinishRun(ctx context.Context, run *models.AdjustRun) error
	AddLog(ctx context.Context, runID *int64, level models.LogLevel, source, message string) error
}

// Runner drives batches of per-listing adjustments against the
// PriceLabs API.
type Runner struct {
	api    pricelabs.API
	cfg    *config.Config
	audit  *logging.Audit
	stores []RunStore

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewRunner(api pricelabs.API, cfg *config.Config) *Runner {
	return &Runner{
		api:   api,
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// SetAudit attaches the tab-separated audit sink. Optional; the
// pipeline does not depend on it for correctness.
func (r *Runner) SetAudit(a *logging.Audit) {
	r.audit = a
}

// AddStore registers a run store for history rows.
func (r *Runner) AddStore(s RunStore) {
	r.stores = append(r.stores, s)
}

// AdjustAll fetches the full listing set, applies the selection filters
// and runs the batches. The returned error is fatal to the whole run
// (listing fetch failed, or an explicit id selection matched nothing);
// per-listing failures live inside the Report.
func (r *Runner) AdjustAll(ctx context.Context, ids []string, pms string, opts Options) (models.Report, error) {
	listings, err := r.api.GetListings(ctx)
	if err != nil {
		if r.audit != nil {
			r.audit.Error(logging.ErrorRecord{
				ListingID: "N/A", ListingName: "N/A", PMS: "N/A",
				StartDate: "N/A", EndDate: "N/A", Currency: "USD",
				Detail: "Failed to retrieve listings: " + err.Error(),
			})
		}
		return models.Report{}, err
	}

	selected, err := pricing.SelectListings(listings, ids, pms)
	if err != nil {
		if r.audit != nil {
			r.audit.Error(logging.ErrorRecord{
				ListingID: "N/A", ListingName: "N/A", PMS: "N/A",
				StartDate: "N/A", EndDate: "N/A", Currency: "USD",
				Detail: err.Error(),
			})
		}
		return models.Report{}, err
	}

	return r.Run(ctx, selected, opts), nil
}

// Run processes the given listings in consecutive batches, sequentially
// within a batch, with a fixed pause between batches. One listing's
// failure never aborts the rest; outcomes come back in input order.
func (r *Runner) Run(ctx context.Context, listings []models.Listing, opts Options) models.Report {
	if opts.Percent <= 0 {
		opts.Percent = r.cfg.Percent
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = r.cfg.BatchSize
	}
	if opts.Delay <= 0 {
		opts.Delay = r.cfg.BatchDelay
	}

	report := models.Report{
		RunID:     uuid.NewString(),
		Direction: opts.Direction(),
		DryRun:    opts.DryRun,
		Total:     len(listings),
	}

	run := &models.AdjustRun{
		RunUUID:          report.RunID,
		Source:           opts.Source,
		Direction:        opts.Direction(),
		Percent:          opts.Percent,
		DryRun:           opts.DryRun,
		StartedAt:        r.now(),
		Status:           models.RunStatusRunning,
		ListingsSelected: len(listings),
	}
	runIDs := r.createRuns(ctx, run)
	r.logRun(ctx, runIDs, models.LogLevelInfo, opts.Source,
		fmt.Sprintf("Run started: %s %.1f%% across %d listings (dry run: %t)",
			opts.Direction(), opts.Percent, len(listings), opts.DryRun))

	total := len(listings)
	batches := (total + opts.BatchSize - 1) / opts.BatchSize
	for i := 0; i < total; i += opts.BatchSize {
		end := i + opts.BatchSize
		if end > total {
			end = total
		}
		log.Printf("Processing batch %d of %d (%d listings)", i/opts.BatchSize+1, batches, end-i)

		for _, listing := range listings[i:end] {
			outcome := r.AdjustListing(ctx, listing, opts)
			report.Outcomes = append(report.Outcomes, outcome)

			if outcome.Status == models.OutcomeSuccess {
				report.Succeeded++
				run.Succeeded++
				run.PricesChanged += outcome.Changes
			} else {
				report.Failed++
				run.Failed++
				r.logRun(ctx, runIDs, models.LogLevelError, opts.Source,
					fmt.Sprintf("%s (%s): %s", outcome.ListingName, outcome.ListingID, outcome.Reason))
			}
			run.Skipped += outcome.Skipped
			r.storeOutcome(ctx, runIDs, outcome)
		}

		if end < total {
			r.sleep(ctx, opts.Delay)
		}
	}

	now := r.now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	r.finishRuns(ctx, runIDs, run)
	r.logRun(ctx, runIDs, models.LogLevelInfo, opts.Source,
		fmt.Sprintf("Run complete: %d succeeded, %d failed, %d prices changed",
			run.Succeeded, run.Failed, run.PricesChanged))

	return report
}

func (r *Runner) createRuns(ctx context.Context, run *models.AdjustRun) []storedRun {
	var stored []storedRun
	for _, s := range r.stores {
		id, err := s.CreateRun(ctx, run)
		if err != nil {
			log.Printf("Warning: failed to create run record: %v", err)
			continue
		}
		stored = append(stored, storedRun{store: s, id: id})
	}
	return stored
}

func (r *Runner) storeOutcome(ctx context.Context, runs []storedRun, o models.Outcome) {
	for _, sr := range runs {
		if err := sr.store.AddOutcome(ctx, sr.id, o); err != nil {
			log.Printf("Warning: failed to store outcome for %s: %v", o.ListingID, err)
		}
	}
}

func (r *Runner) logRun(ctx context.Context, runs []storedRun, level models.LogLevel, source, message string) {
	for _, sr := range runs {
		id := sr.id
		if err := sr.store.AddLog(ctx, &id, level, source, message); err != nil {
			log.Printf("Warning: failed to store run log: %v", err)
		}
	}
}

func (r *Runner) finishRuns(ctx context.Context, runs []storedRun, run *models.AdjustRun) {
	for _, sr := range runs {
		finished := *run
		finished.ID = sr.id
		if err := sr.store.FinishRun(ctx, &finished); err != nil {
			log.Printf("Warning: failed to finish run record: %v", err)
		}
	}
}

type storedRun struct {
	store RunStore
	id    int64
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
