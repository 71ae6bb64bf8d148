package models

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// PriceChange is one planned change in a dry-run preview.
type PriceChange struct {
	Date     string  `json:"date"`
	OldPrice float64 `json:"old_price"`
	NewPrice int64   `json:"new_price"`
	Currency string  `json:"currency"`
}

// Outcome is the result of one listing's adjustment attempt.
type Outcome struct {
	ListingID   string        `json:"id"`
	ListingName string        `json:"name"`
	PMS         string        `json:"pms,omitempty"`
	Status      OutcomeStatus `json:"status"`
	Changes     int           `json:"changes"`
	Skipped     int           `json:"skipped"`
	Reason      string        `json:"message,omitempty"`
	Preview     []PriceChange `json:"price_changes,omitempty"`
}

// Report aggregates a full run for whichever surface drove it.
type Report struct {
	RunID     string    `json:"run_id"`
	Direction string    `json:"direction"`
	DryRun    bool      `json:"dry_run"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"results"`
}
