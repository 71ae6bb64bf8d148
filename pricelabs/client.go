package pricelabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pl_adjuster/models"
)

const DefaultBaseURL = "https://api.pricelabs.co/v1"

// API is the slice of the PriceLabs surface the pipeline needs. The
// concrete Client implements it; tests substitute fakes.
type API interface {
	GetListings(ctx context.Context) ([]models.Listing, error)
	GetOverrides(ctx context.Context, listingID, pms string) ([]models.Override, error)
	UpdateOverrides(ctx context.Context, listingID string, req UpdateRequest) error
}

// UpdateRequest is the POST body for an override write. PriceLabs
// replaces the listing's override set wholesale.
type UpdateRequest struct {
	UpdateChildren bool              `json:"update_children"`
	Overrides      []models.Override `json:"overrides"`
	PMS            string            `json:"pms,omitempty"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

func (c *Client) GetListings(ctx context.Context) ([]models.Listing, error) {
	var body struct {
		Listings []models.Listing `json:"listings"`
	}
	if err := c.do(ctx, "GET", "/listings", nil, &body); err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	return body.Listings, nil
}

func (c *Client) GetOverrides(ctx context.Context, listingID, pms string) ([]models.Override, error) {
	path := "/listings/" + url.PathEscape(listingID) + "/overrides"
	if pms != "" {
		path += "?pms=" + url.QueryEscape(pms)
	}
	var body struct {
		Overrides []models.Override `json:"overrides"`
	}
	if err := c.do(ctx, "GET", path, nil, &body); err != nil {
		return nil, fmt.Errorf("fetch overrides for listing %s: %w", listingID, err)
	}
	return body.Overrides, nil
}

func (c *Client) UpdateOverrides(ctx context.Context, listingID string, req UpdateRequest) error {
	path := "/listings/" + url.PathEscape(listingID) + "/overrides"
	if err := c.do(ctx, "POST", path, req, nil); err != nil {
		return fmt.Errorf("update overrides for listing %s: %w", listingID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

var _ API = (*Client)(nil)
