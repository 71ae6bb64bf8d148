package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdAdjustAll      CommandType = "adjust_all"
	CmdAdjustListings CommandType = "adjust_listings"
	CmdPause          CommandType = "pause"
	CmdResume         CommandType = "resume"
)

// Command is a queued instruction written by the TUI or web surface
// and picked up by the daemon's poll loop.
type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	IDs       []string `json:"ids,omitempty"`
	PMS       string   `json:"pms,omitempty"`
	Direction string   `json:"direction,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}
