package pricelabs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError carries the HTTP status of a failed PriceLabs call plus
// whatever message the API put in the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API error: %d", e.Status)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	switch e.Status {
	case http.StatusBadRequest:
		return "invalid request parameters: " + msg
	case http.StatusUnauthorized:
		return "authentication failed: " + msg
	case http.StatusNotFound:
		return "listing not found: " + msg
	case http.StatusTooManyRequests:
		return "rate limit exceeded: " + msg
	default:
		return msg
	}
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		} else if body.Error != "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
