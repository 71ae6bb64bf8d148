package pricing

import (
	"strconv"
	"time"

	"pl_adjuster/models"
)

// MaxDaysAhead mirrors the PriceLabs write constraint: overrides may be
// pushed at most one year out.
const MaxDaysAhead = 365

// EligibleOverrides keeps only the overrides this tool is allowed to
// touch: fixed-type, strictly positive price, and dated strictly after
// today but no more than a year ahead. Everything else is dropped
// without comment; the caller only sees the surviving set.
func EligibleOverrides(overrides []models.Override, today time.Time) []models.Override {
	day := midnight(today)
	limit := day.AddDate(0, 0, MaxDaysAhead)

	var eligible []models.Override
	for _, o := range overrides {
		if o.PriceType != models.PriceTypeFixed {
			continue
		}
		price, err := strconv.ParseFloat(o.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		d, err := time.ParseInLocation(models.DateLayout, o.Date, time.UTC)
		if err != nil {
			continue
		}
		if !d.After(day) || d.After(limit) {
			continue
		}
		eligible = append(eligible, o)
	}
	return eligible
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
