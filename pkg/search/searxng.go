package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"veriscope/pkg/logger"
	"veriscope/pkg/usage"
)

// searxngMaxAttempts bounds the per-call instance retries.
const searxngMaxAttempts = 3

// SearXNGProvider queries public SearXNG instances (free, open source,
// aggregates several engines). On a transport error or non-200 it
// rotates round-robin to the next instance in the pool, up to
// searxngMaxAttempts attempts per call.
type SearXNGProvider struct {
	log       *logger.Logger
	tracker   *usage.Tracker
	client    *http.Client
	instances []string
	current   int
}

// NewSearXNGProvider creates a SearXNG adapter over the given instance
// pool. The pool must be non-empty.
func NewSearXNGProvider(log *logger.Logger, tracker *usage.Tracker, instances []string, timeout time.Duration) *SearXNGProvider {
	return &SearXNGProvider{
		log:       log,
		tracker:   tracker,
		client:    &http.Client{Timeout: timeout},
		instances: instances,
	}
}

func (p *SearXNGProvider) Name() string { return "searxng" }

// IsAvailable consumes a daily quota slot; public instances have their
// own rate limits, so use is budgeted even without an API key.
func (p *SearXNGProvider) IsAvailable() bool {
	return p.tracker.CheckAndUpdate(p.Name())
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search tries up to searxngMaxAttempts instances before giving up
// with an empty result list.
func (p *SearXNGProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	max := opts.MaxResults
	if max <= 0 || max > 10 {
		max = 10
	}

	var lastErr error
	for attempt := 0; attempt < searxngMaxAttempts; attempt++ {
		results, err := p.searchInstance(ctx, p.instance(), query, max)
		if err == nil {
			return results, nil
		}
		lastErr = err
		p.rotate()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("all attempts failed: %w", lastErr)
}

func (p *SearXNGProvider) searchInstance(ctx context.Context, instance, query string, max int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("language", "en")
	params.Set("engines", "google,bing,duckduckgo")

	endpoint := fmt.Sprintf("%s/search?%s", instance, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("SearXNG instance failed",
			zap.String("instance", instance),
			zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warn("SearXNG instance returned non-200",
			zap.String("instance", instance),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, max)
	for _, item := range parsed.Results {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Content,
			Link:    item.URL,
			Source:  p.Name(),
		})
		if len(results) >= max {
			break
		}
	}
	return results, nil
}

// instance returns the current pool member.
func (p *SearXNGProvider) instance() string {
	return p.instances[p.current%len(p.instances)]
}

// rotate advances to the next instance in the pool.
func (p *SearXNGProvider) rotate() {
	p.current = (p.current + 1) % len(p.instances)
	p.log.Info("Rotated to next SearXNG instance",
		zap.String("instance", p.instance()))
}
