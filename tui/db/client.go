package db

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// Client reads the adjuster's operational SQLite database and writes
// commands for the daemon to pick up.
type Client struct {
	db *sql.DB
}

type AdjustRun struct {
	ID               int64
	RunUUID          string
	Source           string
	Direction        string
	Percent          float64
	DryRun           bool
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string
	ListingsSelected int
	Succeeded        int
	Failed           int
	PricesChanged    int
	Skipped          int
}

type Outcome struct {
	ListingID   string
	ListingName string
	PMS         string
	Status      string
	Changes     int
	Skipped     int
	Reason      *string
}

type RunLog struct {
	ID        int64
	RunID     *int64
	Timestamp time.Time
	Level     string
	Message   string
	Source    *string
}

type Totals struct {
	Runs          int
	Succeeded     int
	Failed        int
	PricesChanged int
	LastRunAt     *time.Time
}

func New(sqlitePath string) (*Client, error) {
	sqlite, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, err
	}
	return &Client{db: sqlite}, nil
}

func (c *Client) Close() {
	c.db.Close()
}

func (c *Client) GetTotals() (Totals, error) {
	var t Totals
	row := c.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(succeeded), 0), COALESCE(SUM(failed), 0),
			COALESCE(SUM(prices_changed), 0), MAX(started_at)
		FROM adjust_runs`)
	var lastRun sql.NullTime
	if err := row.Scan(&t.Runs, &t.Succeeded, &t.Failed, &t.PricesChanged, &lastRun); err != nil {
		return t, err
	}
	if lastRun.Valid {
		t.LastRunAt = &lastRun.Time
	}
	return t, nil
}

func (c *Client) GetRecentRuns(limit int) ([]AdjustRun, error) {
	rows, err := c.db.Query(`
		SELECT id, run_uuid, source, direction, percent, dry_run, started_at, finished_at, status,
			listings_selected, succeeded, failed, prices_changed, skipped
		FROM adjust_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AdjustRun
	for rows.Next() {
		var r AdjustRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.RunUUID, &r.Source, &r.Direction, &r.Percent, &r.DryRun,
			&r.StartedAt, &finished, &r.Status,
			&r.ListingsSelected, &r.Succeeded, &r.Failed, &r.PricesChanged, &r.Skipped); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (c *Client) GetOutcomes(runID int64) ([]Outcome, error) {
	rows, err := c.db.Query(`
		SELECT listing_id, listing_name, pms, status, changes, skipped, reason
		FROM run_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ListingID, &o.ListingName, &o.PMS, &o.Status, &o.Changes, &o.Skipped, &o.Reason); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (c *Client) GetRecentLogs(limit int, level *string) ([]RunLog, error) {
	query := `
		SELECT id, run_id, timestamp, level, message, source
		FROM run_logs`
	args := []any{}
	if level != nil {
		query += ` WHERE level = ?`
		args = append(args, *level)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var l RunLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.Source); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type commandParams struct {
	IDs       []string `json:"ids,omitempty"`
	PMS       string   `json:"pms,omitempty"`
	Direction string   `json:"direction,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

func (c *Client) enqueue(command string, params commandParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`INSERT INTO commands (command, params) VALUES (?, ?)`, command, string(data))
	return err
}

// AdjustNow queues a full adjustment run for the daemon.
func (c *Client) AdjustNow(direction string, dryRun bool) error {
	return c.enqueue("adjust_all", commandParams{Direction: direction, DryRun: dryRun})
}

func (c *Client) Pause() error {
	return c.enqueue("pause", commandParams{})
}

func (c *Client) Resume() error {
	return c.enqueue("resume", commandParams{})
}
