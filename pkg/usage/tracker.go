// Package usage tracks per-provider search quota consumption.
// Counters survive process restarts through a pluggable store and
// reset lazily when the accounting period (day or month) rolls over.
package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"veriscope/pkg/logger"
)

// Period is the calendar bucket a quota is measured against.
type Period string

const (
	// PeriodMonthly resets the counter every calendar month.
	PeriodMonthly Period = "monthly"
	// PeriodDaily resets the counter every calendar day.
	PeriodDaily Period = "daily"
	// PeriodNone means the provider is not quota-tracked.
	PeriodNone Period = "none"
)

// Quota is a provider's call budget within one period.
type Quota struct {
	Limit  int
	Period Period
}

// Tracked reports whether the quota actually constrains anything.
func (q Quota) Tracked() bool {
	return q.Limit > 0 && q.Period != PeriodNone && q.Period != ""
}

// Record is the persisted usage state for one provider.
type Record struct {
	Count     int    `json:"count"`
	PeriodKey string `json:"period_key"`
}

// ProviderStatus is a read-only usage snapshot for one provider.
type ProviderStatus struct {
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Period    string `json:"period"`
}

// Tracker gates access to rate-limited providers. It is safe for
// concurrent use within one process; cross-process access to the same
// store is best-effort (no file locking).
type Tracker struct {
	log     *logger.Logger
	store   Store
	quotas  map[string]Quota
	records map[string]Record
	mu      sync.Mutex
	now     func() time.Time
}

// NewTracker creates a tracker for the given quota table, loading any
// persisted counters from the store. A store read failure is non-fatal:
// the tracker starts from a zeroed state.
func NewTracker(log *logger.Logger, store Store, quotas map[string]Quota) *Tracker {
	t := &Tracker{
		log:     log,
		store:   store,
		quotas:  quotas,
		records: make(map[string]Record),
		now:     time.Now,
	}

	records, err := store.Load(context.Background())
	if err != nil {
		log.Warn("Failed to load usage records, starting from zero", zap.Error(err))
		return t
	}
	for name, rec := range records {
		if _, known := quotas[name]; known {
			t.records[name] = rec
		}
	}
	return t
}

// CheckAndUpdate reports whether the named provider may be used right
// now and, if so, consumes one quota slot and persists the counters.
// The slot is spent on the attempt, before any network call is made,
// so concurrent callers cannot collectively exceed the budget by more
// than their race window.
func (t *Tracker) CheckAndUpdate(name string) bool {
	quota, known := t.quotas[name]
	if !known {
		t.log.Error("Usage check for unregistered provider", zap.String("provider", name))
		return false
	}
	if !quota.Tracked() {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := t.periodKey(quota.Period)
	rec := t.records[name]
	if rec.PeriodKey != key {
		rec = Record{Count: 0, PeriodKey: key}
	}

	if rec.Count >= quota.Limit {
		t.records[name] = rec
		t.log.Warn("Provider quota exhausted",
			zap.String("provider", name),
			zap.Int("limit", quota.Limit),
			zap.String("period", key))
		return false
	}

	rec.Count++
	t.records[name] = rec

	if err := t.store.Save(context.Background(), t.snapshotLocked()); err != nil {
		// The decision stands; only durability across restarts suffers.
		t.log.Warn("Failed to persist usage records", zap.Error(err))
	}
	return true
}

// Status returns a usage snapshot for every tracked provider. It is a
// pure read: no period rollover is applied, so the reported period key
// may be stale until the next CheckAndUpdate call.
func (t *Tracker) Status() map[string]ProviderStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := make(map[string]ProviderStatus, len(t.quotas))
	for name, quota := range t.quotas {
		if !quota.Tracked() {
			continue
		}
		rec := t.records[name]
		remaining := quota.Limit - rec.Count
		if remaining < 0 {
			remaining = 0
		}
		status[name] = ProviderStatus{
			Used:      rec.Count,
			Remaining: remaining,
			Period:    rec.PeriodKey,
		}
	}
	return status
}

// periodKey computes the current calendar bucket for a period type.
func (t *Tracker) periodKey(p Period) string {
	now := t.now()
	if p == PeriodMonthly {
		return now.Format("2006-01")
	}
	return now.Format("2006-01-02")
}

// snapshotLocked copies the record map for persistence. Callers must
// hold t.mu.
func (t *Tracker) snapshotLocked() map[string]Record {
	out := make(map[string]Record, len(t.records))
	for name, rec := range t.records {
		out[name] = rec
	}
	return out
}
