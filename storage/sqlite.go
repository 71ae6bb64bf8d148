package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"pl_adjuster/models"
)

// SQLiteStore is the local operational database: run history, per-run
// outcomes, run logs, and the command queue the TUI writes into.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS adjust_runs (
		id INTEGER PRIMARY KEY,
		run_uuid TEXT NOT NULL,
		source TEXT,
		direction TEXT,
		percent REAL,
		dry_run BOOLEAN DEFAULT FALSE,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_selected INTEGER,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		prices_changed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_outcomes (
		id INTEGER PRIMARY KEY,
		run_id INTEGER NOT NULL,
		listing_id TEXT NOT NULL,
		listing_name TEXT,
		pms TEXT,
		status TEXT,
		changes INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		reason TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES adjust_runs(id)
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		level TEXT,
		message TEXT,
		source TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON run_outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON run_logs(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.AdjustRun) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO adjust_runs (run_uuid, source, direction, percent, dry_run, started_at, status, listings_selected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunUUID, run.Source, run.Direction, run.Percent, run.DryRun, run.StartedAt, run.Status, run.ListingsSelected)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.AdjustRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE adjust_runs
		SET finished_at = ?, status = ?, succeeded = ?, failed = ?, prices_changed = ?, skipped = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.Succeeded, run.Failed, run.PricesChanged, run.Skipped, run.ID)
	return err
}

func (s *SQLiteStore) AddOutcome(ctx context.Context, runID int64, o models.Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_outcomes (run_id, listing_id, listing_name, pms, status, changes, skipped, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, o.ListingID, o.ListingName, o.PMS, o.Status, o.Changes, o.Skipped, o.Reason)
	return err
}

func (s *SQLiteStore) AddLog(ctx context.Context, runID *int64, level models.LogLevel, source, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_logs (run_id, level, message, source) VALUES (?, ?, ?, ?)`,
		runID, level, message, source)
	return err
}

func (s *SQLiteStore) GetRecentRuns(ctx context.Context, limit int) ([]models.AdjustRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_uuid, source, direction, percent, dry_run, started_at, finished_at, status,
			listings_selected, succeeded, failed, prices_changed, skipped
		FROM adjust_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AdjustRun
	for rows.Next() {
		var r models.AdjustRun
		if err := rows.Scan(&r.ID, &r.RunUUID, &r.Source, &r.Direction, &r.Percent, &r.DryRun,
			&r.StartedAt, &r.FinishedAt, &r.Status,
			&r.ListingsSelected, &r.Succeeded, &r.Failed, &r.PricesChanged, &r.Skipped); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetOutcomesForRun(ctx context.Context, runID int64) ([]models.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT listing_id, listing_name, pms, status, changes, skipped, reason
		FROM run_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o models.Outcome
		var reason sql.NullString
		if err := rows.Scan(&o.ListingID, &o.ListingName, &o.PMS, &o.Status, &o.Changes, &o.Skipped, &reason); err != nil {
			return nil, err
		}
		o.Reason = reason.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *SQLiteStore) GetRecentLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, timestamp, level, message, source
		FROM run_logs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var l models.RunLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.Source); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) EnqueueCommand(ctx context.Context, cmd models.CommandType, params models.CommandParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO commands (command, params) VALUES (?, ?)`, cmd, string(data))
	return err
}

func (s *SQLiteStore) GetPendingCommands(ctx context.Context) ([]models.Command, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, params, created_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE commands SET processed_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	params := &models.CommandParams{}
	if len(cmd.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(cmd.Params, params); err != nil {
		return nil, err
	}
	return params, nil
}
