package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// AdjustRun is one recorded invocation of the adjustment pipeline.
type AdjustRun struct {
	ID               int64      `json:"id" db:"id"`
	RunUUID          string     `json:"run_uuid" db:"run_uuid"`
	Source           string     `json:"source" db:"source"`
	Direction        string     `json:"direction" db:"direction"`
	Percent          float64    `json:"percent" db:"percent"`
	DryRun           bool       `json:"dry_run" db:"dry_run"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at" db:"finished_at"`
	Status           RunStatus  `json:"status" db:"status"`
	ListingsSelected int        `json:"listings_selected" db:"listings_selected"`
	Succeeded        int        `json:"succeeded" db:"succeeded"`
	Failed           int        `json:"failed" db:"failed"`
	PricesChanged    int        `json:"prices_changed" db:"prices_changed"`
	Skipped          int        `json:"skipped" db:"skipped"`
}

const (
	RunSourceCLI  = "cli"
	RunSourceWeb  = "web"
	RunSourceCron = "cron"
	RunSourceTUI  = "tui"
)
