package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"pl_adjuster/config"
	"pl_adjuster/models"
	"pl_adjuster/pipeline"
	"pl_adjuster/storage"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler runs adjustments on a cron or fixed interval and polls the
// command queue so the TUI and web surfaces can start runs through the
// daemon.
type Scheduler struct {
	cfg    *config.Config
	runner *pipeline.Runner
	store  *storage.SQLiteStore
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	// paused is read by the cron/ticker goroutine and written by the
	// command-poll goroutine.
	paused atomic.Bool

	archiveWorker Triggerable
}

func New(cfg *config.Config, runner *pipeline.Runner, store *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		store:  store,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetWorkers registers background workers for manual triggering
func (s *Scheduler) SetWorkers(archive Triggerable) {
	s.archiveWorker = archive
}

func (s *Scheduler) Start(ctx context.Context) error {
	go s.pollCommands(ctx)

	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.scheduledRun(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.scheduledRun(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only respond to commands")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) scheduledRun(ctx context.Context) {
	if s.paused.Load() {
		log.Println("Scheduler is paused, skipping run")
		return
	}

	opts := pipeline.Options{
		Increase: s.cfg.Scheduler.Direction != "decrease",
		DryRun:   s.cfg.Scheduler.DryRun,
		Source:   models.RunSourceCron,
	}
	report, err := s.runner.AdjustAll(ctx, nil, "", opts)
	if err != nil {
		log.Printf("Scheduled run error: %v", err)
		return
	}
	log.Printf("Scheduled run complete: %d listings, %d succeeded, %d failed",
		report.Total, report.Succeeded, report.Failed)
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cmds, err := s.store.GetPendingCommands(ctx)
			if err != nil {
				log.Printf("Error getting commands: %v", err)
				continue
			}

			for _, cmd := range cmds {
				log.Printf("Processing command: %s", cmd.Command)
				if err := s.handleCommand(ctx, &cmd); err != nil {
					log.Printf("Command error: %v", err)
				}
				if err := s.store.MarkCommandProcessed(ctx, cmd.ID); err != nil {
					log.Printf("Error marking command processed: %v", err)
				}
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) handleCommand(ctx context.Context, cmd *models.Command) error {
	params, err := s.store.ParseCommandParams(cmd)
	if err != nil {
		return fmt.Errorf("parse params: %w", err)
	}

	switch cmd.Command {
	case models.CmdAdjustAll, models.CmdAdjustListings:
		if s.paused.Load() {
			log.Println("Scheduler paused, ignoring adjustment command")
			return nil
		}
		opts := pipeline.Options{
			Increase: params.Direction != "decrease",
			DryRun:   params.DryRun,
			Source:   models.RunSourceTUI,
		}
		report, err := s.runner.AdjustAll(ctx, params.IDs, params.PMS, opts)
		if err != nil {
			return err
		}
		log.Printf("Command run complete: %d succeeded, %d failed", report.Succeeded, report.Failed)
		if s.archiveWorker != nil {
			s.archiveWorker.Trigger()
		}
		return nil
	case models.CmdPause:
		s.paused.Store(true)
		log.Println("Scheduler paused")
		return nil
	case models.CmdResume:
		s.paused.Store(false)
		log.Println("Scheduler resumed")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd.Command)
	}
}
