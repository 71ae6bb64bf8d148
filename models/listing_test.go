package models

import (
	"encoding/json"
	"testing"
)

func TestFlexID_StringAndNumber(t *testing.T) {
	var l Listing
	if err := json.Unmarshal([]byte(`{"id":"abc-123"}`), &l); err != nil {
		t.Fatalf("string id failed: %v", err)
	}
	if l.ID != "abc-123" {
		t.Fatalf("expected abc-123, got %s", l.ID)
	}

	if err := json.Unmarshal([]byte(`{"id":98765}`), &l); err != nil {
		t.Fatalf("numeric id failed: %v", err)
	}
	if l.ID != "98765" {
		t.Fatalf("expected 98765, got %s", l.ID)
	}
}

func TestFlexID_LargeNumberKeepsDigits(t *testing.T) {
	var l Listing
	if err := json.Unmarshal([]byte(`{"id":123456789012345678}`), &l); err != nil {
		t.Fatalf("large numeric id failed: %v", err)
	}
	if l.ID != "123456789012345678" {
		t.Fatalf("large id lost precision: %s", l.ID)
	}
}

func TestOverride_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(Override{Date: "2026-09-10", Price: "105", PriceType: PriceTypeFixed})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"date":"2026-09-10","price":"105","price_type":"fixed"}` {
		t.Fatalf("unexpected wire shape: %s", data)
	}
}
