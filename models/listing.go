package models

import (
	"bytes"
	"encoding/json"
)

// PriceLabs sends listing ids as either strings or numbers depending on
// the PMS behind the listing. FlexID normalizes both to a string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

type Listing struct {
	ID             FlexID   `json:"id"`
	Name           string   `json:"name"`
	PMS            string   `json:"pms"`
	Currency       string   `json:"currency"`
	Hidden         bool     `json:"isHidden"`
	PushEnabled    bool     `json:"push_enabled"`
	BasePrice      *float64 `json:"base"`
	MinPrice       *float64 `json:"min_price"`
	MaxPrice       *float64 `json:"max_price"`
	MinStay        *int     `json:"min_stay"`
	Group          string   `json:"group,omitempty"`
	LastDatePushed string   `json:"last_date_pushed,omitempty"`
}

const (
	PriceTypeFixed   = "fixed"
	PriceTypePercent = "percent"
)

// Override is one date's price entry for a listing. Dates are calendar
// days in YYYY-MM-DD; prices travel as strings on the wire.
type Override struct {
	Date      string `json:"date"`
	Price     string `json:"price"`
	PriceType string `json:"price_type"`
	Currency  string `json:"currency,omitempty"`
	MinStay   *int   `json:"min_stay,omitempty"`
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
}

const DateLayout = "2006-01-02"
