// Package search implements a web-search fallback chain: an ordered
// list of provider adapters tried in priority order until one yields
// results, gated by persistent per-provider quota tracking.
package search

import (
	"context"
	"time"

	"veriscope/pkg/usage"
)

// Result is one ranked search hit. Ordering within a provider's
// results is the order the backend returned them; results are never
// re-ranked across providers.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Source  string `json:"source"`
}

// Outcome is the structured result of one Search invocation. It is
// always returned, never thrown: total exhaustion is an Outcome with
// empty Results and an empty ProviderUsed.
type Outcome struct {
	ID           string                          `json:"id"`
	Query        string                          `json:"query"`
	ProviderUsed string                          `json:"provider_used,omitempty"`
	Results      []Result                        `json:"results"`
	Usage        map[string]usage.ProviderStatus `json:"usage"`
	Timestamp    time.Time                       `json:"timestamp"`
}

// Options tunes a single search call.
type Options struct {
	// MaxResults caps how many results a provider should return.
	// Zero means the orchestrator default.
	MaxResults int
}

// Provider is one external search backend plus the logic to call it
// and parse its response. IsAvailable consumes a quota slot for
// quota-bound providers; Search errors are contained by the
// orchestrator and treated as "no results".
type Provider interface {
	Name() string
	IsAvailable() bool
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
