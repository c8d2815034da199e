package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veriscope/pkg/usage"
)

func TestSerperSearch(t *testing.T) {
	var gotKey, gotMethod string
	var gotBody serperRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic": []map[string]string{
				{"title": "Tesla - Wikipedia", "snippet": "Tesla, Inc. is...", "link": "https://en.wikipedia.org/wiki/Tesla"},
				{"title": "No snippet entry", "link": "https://example.com"},
			},
		})
	}))
	defer srv.Close()

	tracker := testTracker(t, map[string]usage.Quota{
		"serper": {Limit: 2500, Period: usage.PeriodMonthly},
	})
	p := NewSerperProvider("secret", tracker, 5*time.Second)
	p.endpoint = srv.URL

	results, err := p.Search(context.Background(), "Tesla employees", Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotKey != "secret" {
		t.Errorf("expected API key header, got %q", gotKey)
	}
	if gotBody.Query != "Tesla employees" || gotBody.Num != 10 {
		t.Errorf("unexpected request body: %+v", gotBody)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Tesla - Wikipedia" || results[0].Source != "serper" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	// Missing optional fields become empty strings.
	if results[1].Snippet != "" {
		t.Errorf("expected empty snippet, got %q", results[1].Snippet)
	}
}

func TestSerperSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	tracker := testTracker(t, map[string]usage.Quota{})
	p := NewSerperProvider("secret", tracker, 5*time.Second)
	p.endpoint = srv.URL

	if _, err := p.Search(context.Background(), "q", Options{}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestSerperIsAvailable(t *testing.T) {
	tracker := testTracker(t, map[string]usage.Quota{
		"serper": {Limit: 2500, Period: usage.PeriodMonthly},
	})

	// No API key: never available, no quota consumed.
	p := NewSerperProvider("", tracker, time.Second)
	if p.IsAvailable() {
		t.Fatal("provider without key should be unavailable")
	}
	if got := tracker.Status()["serper"].Used; got != 0 {
		t.Fatalf("no quota should be consumed without a key, used=%d", got)
	}

	// With a key, the availability check itself spends a quota slot.
	p = NewSerperProvider("secret", tracker, time.Second)
	if !p.IsAvailable() {
		t.Fatal("provider with key and fresh quota should be available")
	}
	if got := tracker.Status()["serper"].Used; got != 1 {
		t.Fatalf("expected quota count 1 after availability check, got %d", got)
	}
}

// End-to-end scenario: primary provider configured with fresh quota.
func TestSearch_PrimaryProviderScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic": []map[string]string{
				{"title": "Tesla headcount", "snippet": "around 140,000", "link": "https://example.com/tesla"},
			},
		})
	}))
	defer srv.Close()

	tracker := testTracker(t, map[string]usage.Quota{
		"serper": {Limit: 2500, Period: usage.PeriodMonthly},
	})
	serper := NewSerperProvider("secret", tracker, 5*time.Second)
	serper.endpoint = srv.URL

	orch := &Orchestrator{
		log:        testLogger(t),
		tracker:    tracker,
		providers:  []Provider{serper, NewGoogleScraperProvider(time.Second)},
		maxResults: 10,
	}

	outcome := orch.Search(context.Background(), "Tesla employees")

	if outcome.ProviderUsed != "serper" {
		t.Fatalf("expected serper, got %q", outcome.ProviderUsed)
	}
	if outcome.Usage["serper"].Used != 1 {
		t.Fatalf("expected quota to go from 0 to 1, got %d", outcome.Usage["serper"].Used)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Source != "serper" {
		t.Fatalf("unexpected results: %+v", outcome.Results)
	}
}
