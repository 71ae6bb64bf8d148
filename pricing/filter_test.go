package pricing

import (
	"testing"
	"time"

	"pl_adjuster/models"
)

func fixedOverride(date, price string) models.Override {
	return models.Override{Date: date, Price: price, PriceType: models.PriceTypeFixed}
}

func TestEligibleOverrides_DropsPercentType(t *testing.T) {
	today := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	overrides := []models.Override{
		fixedOverride("2026-03-05", "120"),
		{Date: "2026-03-06", Price: "10", PriceType: models.PriceTypePercent},
		fixedOverride("2026-03-07", "90"),
	}

	eligible := EligibleOverrides(overrides, today)
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible overrides, got %d", len(eligible))
	}
	for _, o := range eligible {
		if o.PriceType != models.PriceTypeFixed {
			t.Fatalf("percent override survived the filter: %+v", o)
		}
	}
}

func TestEligibleOverrides_DateWindow(t *testing.T) {
	today := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	overrides := []models.Override{
		fixedOverride("2026-02-28", "100"), // past
		fixedOverride("2026-03-01", "100"), // today, excluded
		fixedOverride("2026-03-02", "100"), // tomorrow, first eligible day
		fixedOverride("2027-03-01", "100"), // exactly 365 days out, included
		fixedOverride("2027-03-02", "100"), // 366 days out, excluded
	}

	eligible := EligibleOverrides(overrides, today)
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible overrides, got %d", len(eligible))
	}
	if eligible[0].Date != "2026-03-02" {
		t.Fatalf("expected 2026-03-02 first, got %s", eligible[0].Date)
	}
	if eligible[1].Date != "2027-03-01" {
		t.Fatalf("expected 2027-03-01 second, got %s", eligible[1].Date)
	}
}

func TestEligibleOverrides_BadPriceOrDate(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	overrides := []models.Override{
		fixedOverride("2026-03-05", "abc"),
		fixedOverride("2026-03-06", "0"),
		fixedOverride("2026-03-07", "-50"),
		fixedOverride("not-a-date", "100"),
		fixedOverride("2026-03-08", "150.50"),
	}

	eligible := EligibleOverrides(overrides, today)
	if len(eligible) != 1 {
		t.Fatalf("expected 1 eligible override, got %d", len(eligible))
	}
	if eligible[0].Price != "150.50" {
		t.Fatalf("wrong override survived: %+v", eligible[0])
	}
}

func TestEligibleOverrides_Idempotent(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	overrides := []models.Override{
		fixedOverride("2026-03-05", "120"),
		{Date: "2026-03-06", Price: "10", PriceType: models.PriceTypePercent},
	}

	once := EligibleOverrides(overrides, today)
	twice := EligibleOverrides(once, today)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed the result: %d vs %d", len(once), len(twice))
	}
}

func TestEligibleOverrides_Empty(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := EligibleOverrides(nil, today); len(got) != 0 {
		t.Fatalf("expected no overrides, got %d", len(got))
	}
}
