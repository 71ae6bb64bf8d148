package scheduler

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"pl_adjuster/config"
	"pl_adjuster/models"
	"pl_adjuster/pipeline"
	"pl_adjuster/pricelabs"
)

type stubAPI struct{}

func (stubAPI) GetListings(ctx context.Context) ([]models.Listing, error) {
	return nil, nil
}

func (stubAPI) GetOverrides(ctx context.Context, listingID, pms string) ([]models.Override, error) {
	return nil, nil
}

func (stubAPI) UpdateOverrides(ctx context.Context, listingID string, req pricelabs.UpdateRequest) error {
	return nil
}

var _ pricelabs.API = stubAPI{}

func newTestScheduler() *Scheduler {
	cfg := &config.Config{Profiles: make(map[string]*config.PMSProfile)}
	runner := pipeline.NewRunner(stubAPI{}, cfg)
	return New(cfg, runner, nil)
}

// Pause and resume arrive on the command-poll goroutine while the
// cron/ticker goroutine checks the flag before each run. Run with -race.
func TestPauseResumeConcurrentWithScheduledRuns(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	s := newTestScheduler()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := s.handleCommand(ctx, &models.Command{Command: models.CmdPause}); err != nil {
				t.Errorf("pause: %v", err)
				return
			}
			if err := s.handleCommand(ctx, &models.Command{Command: models.CmdResume}); err != nil {
				t.Errorf("resume: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.scheduledRun(ctx)
		}
	}()
	wg.Wait()

	if s.paused.Load() {
		t.Fatalf("expected scheduler resumed after the final command")
	}
}

func TestPauseSkipsScheduledRunsAndCommands(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	s := newTestScheduler()
	ctx := context.Background()

	if err := s.handleCommand(ctx, &models.Command{Command: models.CmdPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !s.paused.Load() {
		t.Fatalf("expected paused after pause command")
	}

	// Adjustment commands are ignored while paused.
	if err := s.handleCommand(ctx, &models.Command{Command: models.CmdAdjustAll}); err != nil {
		t.Fatalf("adjust while paused should be a no-op, got %v", err)
	}

	if err := s.handleCommand(ctx, &models.Command{Command: models.CmdResume}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.paused.Load() {
		t.Fatalf("expected unpaused after resume command")
	}
}

func TestHandleCommand_Unknown(t *testing.T) {
	s := newTestScheduler()
	if err := s.handleCommand(context.Background(), &models.Command{Command: "reboot"}); err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}
