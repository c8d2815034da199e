package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"veriscope/pkg/usage"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider searches via the Brave Search API free tier (roughly
// 2000 calls per month, budgeted here as 66 per day).
type BraveProvider struct {
	apiKey   string
	tracker  *usage.Tracker
	client   *http.Client
	endpoint string
}

// NewBraveProvider creates a Brave adapter.
func NewBraveProvider(apiKey string, tracker *usage.Tracker, timeout time.Duration) *BraveProvider {
	return &BraveProvider{
		apiKey:   apiKey,
		tracker:  tracker,
		client:   &http.Client{Timeout: timeout},
		endpoint: braveEndpoint,
	}
}

func (p *BraveProvider) Name() string { return "brave" }

// IsAvailable consumes a daily quota slot when the key is configured.
func (p *BraveProvider) IsAvailable() bool {
	if p.apiKey == "" {
		return false
	}
	return p.tracker.CheckAndUpdate(p.Name())
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues one GET to the Brave API and extracts the web results.
func (p *BraveProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.MaxResults
	if count <= 0 {
		count = 10
	}

	endpoint := fmt.Sprintf("%s?q=%s&count=%d", p.endpoint, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

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

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, item := range parsed.Web.Results {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Description,
			Link:    item.URL,
			Source:  p.Name(),
		})
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
