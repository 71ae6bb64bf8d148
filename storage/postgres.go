package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pl_adjuster/models"
)

// PostgresStore mirrors the SQLite run history into a shared database
// so deployments with several operators see one run log. All writes are
// best effort from the pipeline's point of view.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS adjust_runs (
		id BIGSERIAL PRIMARY KEY,
		run_uuid TEXT NOT NULL,
		source TEXT,
		direction TEXT,
		percent DOUBLE PRECISION,
		dry_run BOOLEAN DEFAULT FALSE,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		listings_selected INTEGER,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		prices_changed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_outcomes (
		id BIGSERIAL PRIMARY KEY,
		run_id BIGINT NOT NULL REFERENCES adjust_runs(id),
		listing_id TEXT NOT NULL,
		listing_name TEXT,
		pms TEXT,
		status TEXT,
		changes INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		reason TEXT,
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id BIGINT,
		timestamp TIMESTAMPTZ DEFAULT now(),
		level TEXT,
		message TEXT,
		source TEXT
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.AdjustRun) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO adjust_runs (run_uuid, source, direction, percent, dry_run, started_at, status, listings_selected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.RunUUID, run.Source, run.Direction, run.Percent, run.DryRun, run.StartedAt, run.Status, run.ListingsSelected,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.AdjustRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE adjust_runs
		SET finished_at = $1, status = $2, succeeded = $3, failed = $4, prices_changed = $5, skipped = $6
		WHERE id = $7`,
		run.FinishedAt, run.Status, run.Succeeded, run.Failed, run.PricesChanged, run.Skipped, run.ID)
	return err
}

func (s *PostgresStore) AddOutcome(ctx context.Context, runID int64, o models.Outcome) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_outcomes (run_id, listing_id, listing_name, pms, status, changes, skipped, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		runID, o.ListingID, o.ListingName, o.PMS, o.Status, o.Changes, o.Skipped, o.Reason)
	return err
}

func (s *PostgresStore) AddLog(ctx context.Context, runID *int64, level models.LogLevel, source, message string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_logs (run_id, level, message, source) VALUES ($1, $2, $3, $4)`,
		runID, level, message, source)
	return err
}
