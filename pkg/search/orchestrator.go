package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"veriscope/pkg/logger"
	"veriscope/pkg/usage"
)

// Config assembles the provider chain. Zero values fall back to the
// canonical pool, a 10 s per-attempt timeout and 10 results.
type Config struct {
	SerperAPIKey     string
	BraveAPIKey      string
	SearXNGInstances []string
	Timeout          time.Duration
	MaxResults       int
}

// defaultInstances is the canonical public SearXNG pool.
var defaultInstances = []string{
	"https://searx.be",
	"https://searx.work",
	"https://search.bus-hit.me",
	"https://search.sapti.me",
	"https://searx.tiekoetter.com",
}

// Orchestrator tries providers strictly in priority order, never in
// parallel: that keeps quota consumption deterministic and avoids
// spending paid-tier calls when a free provider would have answered.
type Orchestrator struct {
	log        *logger.Logger
	tracker    *usage.Tracker
	providers  []Provider
	maxResults int
}

// NewOrchestrator builds the fallback chain:
//  1. serper          (only with an API key; best quality, 2500/month)
//  2. searxng         (always; free public instances, rotated)
//  3. brave           (only with an API key; free tier, 66/day)
//  4. google_scraper  (always; last resort, top 5 organic entries)
//
// With no API keys configured the chain still works via searxng and
// the scraper, so zero configuration is required to search.
func NewOrchestrator(log *logger.Logger, tracker *usage.Tracker, cfg Config) *Orchestrator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	instances := cfg.SearXNGInstances
	if len(instances) == 0 {
		instances = defaultInstances
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	var providers []Provider
	if cfg.SerperAPIKey != "" {
		providers = append(providers, NewSerperProvider(cfg.SerperAPIKey, tracker, timeout))
	}
	providers = append(providers, NewSearXNGProvider(log, tracker, instances, timeout))
	if cfg.BraveAPIKey != "" {
		providers = append(providers, NewBraveProvider(cfg.BraveAPIKey, tracker, timeout))
	}
	providers = append(providers, NewGoogleScraperProvider(timeout))

	log.Info("Search orchestrator initialized",
		zap.Int("providers", len(providers)),
		zap.Bool("serper", cfg.SerperAPIKey != ""),
		zap.Bool("brave", cfg.BraveAPIKey != ""))

	return &Orchestrator{
		log:        log,
		tracker:    tracker,
		providers:  providers,
		maxResults: maxResults,
	}
}

// Search runs the fallback chain for a query. It never returns an
// error: provider failures are contained and converted to fall-through,
// and total exhaustion yields an Outcome with empty Results and an
// empty ProviderUsed.
func (o *Orchestrator) Search(ctx context.Context, query string) Outcome {
	outcome := Outcome{
		ID:      uuid.NewString(),
		Query:   query,
		Results: []Result{},
	}

	for _, provider := range o.providers {
		if !provider.IsAvailable() {
			o.log.Debug("Provider not available, trying next",
				zap.String("provider", provider.Name()))
			continue
		}

		o.log.Info("Trying search provider",
			zap.String("provider", provider.Name()),
			zap.String("query", query))

		results, err := provider.Search(ctx, query, Options{MaxResults: o.maxResults})
		if err != nil {
			o.log.Warn("Provider search failed",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			continue
		}
		if len(results) == 0 {
			o.log.Warn("Provider returned no results",
				zap.String("provider", provider.Name()))
			continue
		}

		o.log.Info("Search succeeded",
			zap.String("provider", provider.Name()),
			zap.Int("results", len(results)))
		outcome.ProviderUsed = provider.Name()
		outcome.Results = results
		break
	}

	outcome.Usage = o.tracker.Status()
	outcome.Timestamp = time.Now()
	return outcome
}

// Run executes a search and formats it as a text block for inclusion
// in an agent prompt context: up to 5 numbered title/snippet/URL
// triples, or a "no results" message.
func (o *Orchestrator) Run(ctx context.Context, query string) string {
	return FormatOutcome(o.Search(ctx, query))
}

// Providers returns the provider names in priority order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// FormatOutcome renders an outcome as the numbered text block consumed
// by the verification pipeline.
func FormatOutcome(outcome Outcome) string {
	if len(outcome.Results) == 0 {
		return fmt.Sprintf("No results found for '%s'", outcome.Query)
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Search results for '%s' (via %s):\n\n", outcome.Query, outcome.ProviderUsed))
	for i, r := range outcome.Results {
		if i >= 5 {
			break
		}
		out.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Title))
		if r.Snippet != "" {
			out.WriteString(fmt.Sprintf("   %s\n", r.Snippet))
		}
		out.WriteString(fmt.Sprintf("   URL: %s\n\n", r.Link))
	}
	return out.String()
}
