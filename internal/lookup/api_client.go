package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SearchResponse is the /api/search wire format: items on success, a
// non-empty error on failure, and an empty items slice when nothing was
// found.
type SearchResponse struct {
	Items []Record `json:"items"`
	Error string   `json:"error,omitempty"`
}

// APIClient speaks the service's own /api/search contract. The CLI uses it
// to run validations through an already-deployed server instead of holding
// its own upstream credentials.
type APIClient struct {
	searchURL string
	httpc     *http.Client
}

// NewAPIClient builds a client for a /api/search endpoint, e.g.
// "http://localhost:8080/api/search".
func NewAPIClient(searchURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		searchURL: searchURL,
		httpc:     &http.Client{Timeout: timeout},
	}
}

// Lookup queries one ISBN. A successful response with zero items returns
// (nil, nil); only the first item of a non-empty response is used.
func (c *APIClient) Lookup(ctx context.Context, isbn string) (*Record, error) {
	u := c.searchURL + "?isbn=" + url.QueryEscape(isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 응답 오류: %d", resp.StatusCode)
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if payload.Error != "" {
		return nil, fmt.Errorf("%s", payload.Error)
	}
	if len(payload.Items) == 0 {
		return nil, nil
	}

	record := payload.Items[0]
	return &record, nil
}
