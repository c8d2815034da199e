package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"veriscope/pkg/usage"
)

const serperEndpoint = "https://google.serper.dev/search"

// SerperProvider searches via the Serper.dev API (paid tier, highest
// quality, 2500 calls per month on the free plan).
type SerperProvider struct {
	apiKey   string
	tracker  *usage.Tracker
	client   *http.Client
	endpoint string
}

// NewSerperProvider creates a Serper adapter.
func NewSerperProvider(apiKey string, tracker *usage.Tracker, timeout time.Duration) *SerperProvider {
	return &SerperProvider{
		apiKey:   apiKey,
		tracker:  tracker,
		client:   &http.Client{Timeout: timeout},
		endpoint: serperEndpoint,
	}
}

func (p *SerperProvider) Name() string { return "serper" }

// IsAvailable consumes a monthly quota slot when the key is configured.
func (p *SerperProvider) IsAvailable() bool {
	if p.apiKey == "" {
		return false
	}
	return p.tracker.CheckAndUpdate(p.Name())
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

// Search issues one POST to the Serper API and extracts the organic
// results. Missing optional fields become empty strings.
func (p *SerperProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	num := opts.MaxResults
	if num <= 0 {
		num = 10
	}

	payload, err := json.Marshal(serperRequest{Query: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
			Source:  p.Name(),
		})
	}
	return results, nil
}
