package pricelabs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pl_adjuster/models"
)

func TestGetListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/listings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Fatalf("missing api key header, got %q", r.Header.Get("X-API-Key"))
		}
		io.WriteString(w, `{"listings":[
			{"id":"101","name":"Beach House","pms":"guesty","isHidden":false,"push_enabled":true},
			{"id":202,"name":"City Flat","pms":"hostaway","isHidden":true,"push_enabled":false}
		]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", srv.Client())
	listings, err := client.GetListings(context.Background())
	if err != nil {
		t.Fatalf("GetListings failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].ID != "101" {
		t.Fatalf("expected id 101, got %s", listings[0].ID)
	}
	if listings[1].ID != "202" {
		t.Fatalf("expected numeric id normalized to 202, got %s", listings[1].ID)
	}
	if !listings[0].PushEnabled || listings[1].PushEnabled {
		t.Fatalf("push_enabled flags not decoded: %+v", listings)
	}
}

func TestGetOverrides_PMSQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listings/101/overrides" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("pms") != "guesty" {
			t.Fatalf("expected pms query, got %q", r.URL.RawQuery)
		}
		io.WriteString(w, `{"overrides":[{"date":"2026-09-10","price":"150","price_type":"fixed"}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", srv.Client())
	overrides, err := client.GetOverrides(context.Background(), "101", "guesty")
	if err != nil {
		t.Fatalf("GetOverrides failed: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("expected 1 override, got %d", len(overrides))
	}
	if overrides[0].Price != "150" || overrides[0].PriceType != "fixed" {
		t.Fatalf("unexpected override %+v", overrides[0])
	}
}

func TestUpdateOverrides_Body(t *testing.T) {
	var captured UpdateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", srv.Client())
	minStay := 2
	err := client.UpdateOverrides(context.Background(), "101", UpdateRequest{
		UpdateChildren: true,
		PMS:            "guesty",
		Overrides: []models.Override{
			{Date: "2026-09-10", Price: "158", PriceType: "fixed", Currency: "USD", MinStay: &minStay},
		},
	})
	if err != nil {
		t.Fatalf("UpdateOverrides failed: %v", err)
	}
	if !captured.UpdateChildren {
		t.Fatalf("update_children not sent")
	}
	if captured.PMS != "guesty" {
		t.Fatalf("pms not sent, got %q", captured.PMS)
	}
	if len(captured.Overrides) != 1 || captured.Overrides[0].Price != "158" {
		t.Fatalf("unexpected overrides payload: %+v", captured.Overrides)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		prefix string
	}{
		{http.StatusBadRequest, "invalid request parameters"},
		{http.StatusUnauthorized, "authentication failed"},
		{http.StatusNotFound, "listing not found"},
		{http.StatusTooManyRequests, "rate limit exceeded"},
		{http.StatusInternalServerError, "API error: 500"},
	}

	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			io.WriteString(w, `{"message":"nope"}`)
		}))

		client := NewClient(srv.URL, "test-key", srv.Client())
		_, err := client.GetListings(context.Background())
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", c.status)
		}
		if !strings.Contains(err.Error(), c.prefix) {
			t.Fatalf("status %d: expected %q in error, got %q", c.status, c.prefix, err.Error())
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected APIError, got %T", c.status, err)
		}
		if apiErr.Status != c.status {
			t.Fatalf("expected status %d, got %d", c.status, apiErr.Status)
		}
		if apiErr.Message != "nope" {
			t.Fatalf("body message not captured, got %q", apiErr.Message)
		}
	}
}

func TestDefaultBaseURL(t *testing.T) {
	client := NewClient("", "key", nil)
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", client.baseURL)
	}
}
