package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pl_adjuster/config"
	"pl_adjuster/httputil"
	"pl_adjuster/logging"
	"pl_adjuster/models"
	"pl_adjuster/pipeline"
	"pl_adjuster/pricelabs"
	"pl_adjuster/pricing"
	"pl_adjuster/scheduler"
	"pl_adjuster/storage"
	"pl_adjuster/web"
	"pl_adjuster/workers"
)

var (
	listMode = flag.Bool("list", false, "List active listings and exit")
	update   = flag.Bool("update", false, "Run a price adjustment and exit")
	serve    = flag.Bool("serve", false, "Start the web server")
	increase = flag.Bool("increase", false, "Increase prices by the configured percentage")
	decrease = flag.Bool("decrease", false, "Decrease prices by the configured percentage")
	all      = flag.Bool("all", false, "Update all active listings")
	ids      = flag.String("ids", "", "Comma-separated listing ids to update")
	pms      = flag.String("pms", "", "Restrict to a single PMS (e.g. cloudbeds, hostaway)")
	dryRun   = flag.Bool("dry-run", false, "Preview changes without writing")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("adjuster.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	clients := httputil.NewClients()
	api := pricelabs.NewClient(cfg.BaseURL, cfg.APIKey, clients.API)

	ctx := context.Background()

	if *listMode {
		if err := printListings(ctx, api, *pms); err != nil {
			log.Fatalf("List failed: %v", err)
		}
		return
	}

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()

	audit, err := logging.OpenAudit(cfg.AuditDir)
	if err != nil {
		log.Fatalf("Failed to open audit logs: %v", err)
	}
	defer audit.Close()

	runner := pipeline.NewRunner(api, cfg)
	runner.SetAudit(audit)
	runner.AddStore(sqliteStore)

	if cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Postgres run store unavailable: %v", err)
		} else {
			defer pgStore.Close()
			runner.AddStore(pgStore)
			log.Println("Postgres run store connected")
		}
	}

	if *update {
		if err := runOnce(ctx, runner, cfg); err != nil {
			log.Fatalf("Update failed: %v", err)
		}
		return
	}

	if *serve {
		server := web.NewServer(cfg, api, runner, sqliteStore)
		log.Printf("Web server listening on %s", cfg.Web.Addr)
		if err := server.HTTPServer().ListenAndServe(); err != nil {
			log.Fatalf("Web server failed: %v", err)
		}
		return
	}

	runDaemon(ctx, cfg, runner, sqliteStore, audit)
}

func runOnce(ctx context.Context, runner *pipeline.Runner, cfg *config.Config) error {
	if *increase == *decrease {
		return fmt.Errorf("specify exactly one of -increase or -decrease")
	}
	idList := splitIDs(*ids)
	if (len(idList) > 0) == *all {
		return fmt.Errorf("specify exactly one of -ids or -all")
	}

	opts := pipeline.Options{
		Increase: *increase,
		DryRun:   *dryRun,
		Source:   models.RunSourceCLI,
	}
	report, err := runner.AdjustAll(ctx, idList, *pms, opts)
	if err != nil {
		return err
	}

	printReport(report, cfg.Percent)
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, store *storage.SQLiteStore, audit *logging.Audit) {
	log.Println("Starting pl_adjuster daemon...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var uploader workers.Uploader
	if cfg.Archive.Bucket != "" {
		s3Uploader, err := storage.NewArchiveUploader(ctx, cfg.Archive)
		if err != nil {
			log.Printf("Warning: archive uploader unavailable: %v", err)
			uploader = workers.NewNoOpUploader()
		} else {
			uploader = s3Uploader
			log.Printf("Audit archive bucket: %s", cfg.Archive.Bucket)
		}
	} else {
		uploader = workers.NewNoOpUploader()
	}

	archiveWorker := workers.NewArchiveWorker(uploader, cfg.AuditDir, audit.ActiveFiles())
	go archiveWorker.Run(ctx, cfg.Archive.Interval)
	log.Println("Archive worker started")

	sched := scheduler.New(cfg, runner, store)
	sched.SetWorkers(archiveWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	cancel()
	log.Println("Goodbye!")
}

func printListings(ctx context.Context, api pricelabs.API, pms string) error {
	listings, err := api.GetListings(ctx)
	if err != nil {
		return err
	}
	active, err := pricing.SelectListings(listings, nil, pms)
	if err != nil {
		return err
	}

	for _, l := range active {
		fmt.Printf("ID: %s\n", l.ID)
		fmt.Printf("Name: %s\n", l.Name)
		fmt.Printf("PMS: %s\n", l.PMS)
		if l.BasePrice != nil {
			fmt.Printf("Base Price: $%.2f\n", *l.BasePrice)
		} else {
			fmt.Println("Base Price: N/A")
		}
		if l.LastDatePushed != "" {
			fmt.Printf("Last Updated: %s\n", l.LastDatePushed)
		} else {
			fmt.Println("Last Updated: Never")
		}
		fmt.Println(strings.Repeat("-", 50))
	}
	fmt.Printf("%d active listings\n", len(active))
	return nil
}

func printReport(report models.Report, percent float64) {
	direction := "increased"
	if report.Direction == "decrease" {
		direction = "decreased"
	}
	if report.DryRun {
		fmt.Printf("Dry run: no changes written (adjustment %.0f%%)\n", percent)
	}
	for _, o := range report.Outcomes {
		switch {
		case o.Status == models.OutcomeError:
			fmt.Printf("ERROR  %s (%s): %s\n", o.ListingName, o.ListingID, o.Reason)
		case report.DryRun:
			fmt.Printf("PLAN   %s (%s): %d changes, %d skipped\n", o.ListingName, o.ListingID, o.Changes, o.Skipped)
			for _, pc := range o.Preview {
				fmt.Printf("         %s: %.2f -> %d %s\n", pc.Date, pc.OldPrice, pc.NewPrice, pc.Currency)
			}
		default:
			fmt.Printf("OK     %s (%s): %d prices %s, %d skipped\n", o.ListingName, o.ListingID, o.Changes, direction, o.Skipped)
		}
	}
	fmt.Printf("Total: %d, Succeeded: %d, Failed: %d\n", report.Total, report.Succeeded, report.Failed)
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
