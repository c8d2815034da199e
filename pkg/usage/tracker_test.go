package usage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"veriscope/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: logger.LevelError})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

func testStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(testLogger(t), filepath.Join(t.TempDir(), "usage.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCheckAndUpdate_QuotaExhaustion(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"brave": {Limit: 3, Period: PeriodDaily},
	})

	for i := 0; i < 3; i++ {
		if !tracker.CheckAndUpdate("brave") {
			t.Fatalf("check %d should succeed", i+1)
		}
	}
	if tracker.CheckAndUpdate("brave") {
		t.Fatal("check beyond quota should fail")
	}

	// A denied check must not mutate the count.
	status := tracker.Status()["brave"]
	if status.Used != 3 || status.Remaining != 0 {
		t.Fatalf("expected used=3 remaining=0, got %+v", status)
	}
}

func TestCheckAndUpdate_DailyRollover(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"searxng": {Limit: 2, Period: PeriodDaily},
	})

	day1 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracker.now = fixedClock(day1)

	tracker.CheckAndUpdate("searxng")
	tracker.CheckAndUpdate("searxng")
	if tracker.CheckAndUpdate("searxng") {
		t.Fatal("quota should be exhausted on day 1")
	}

	// Crossing the day boundary resets the count regardless of prior exhaustion.
	tracker.now = fixedClock(day1.AddDate(0, 0, 1))
	if !tracker.CheckAndUpdate("searxng") {
		t.Fatal("check should succeed after day rollover")
	}

	status := tracker.Status()["searxng"]
	if status.Used != 1 {
		t.Fatalf("expected used=1 after rollover, got %d", status.Used)
	}
	if status.Period != "2026-03-15" {
		t.Fatalf("expected period 2026-03-15, got %s", status.Period)
	}
}

func TestCheckAndUpdate_MonthlyRollover(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"serper": {Limit: 1, Period: PeriodMonthly},
	})

	tracker.now = fixedClock(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC))
	if !tracker.CheckAndUpdate("serper") {
		t.Fatal("first check should succeed")
	}
	if tracker.CheckAndUpdate("serper") {
		t.Fatal("second check in same month should fail")
	}

	tracker.now = fixedClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if !tracker.CheckAndUpdate("serper") {
		t.Fatal("check should succeed in new month")
	}
	if got := tracker.Status()["serper"].Period; got != "2026-02" {
		t.Fatalf("expected period 2026-02, got %s", got)
	}
}

func TestStatus_ReportsUsedAndRemaining(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"serper": {Limit: 2500, Period: PeriodMonthly},
	})

	for i := 0; i < 7; i++ {
		tracker.CheckAndUpdate("serper")
	}

	status := tracker.Status()["serper"]
	if status.Used != 7 {
		t.Errorf("expected used=7, got %d", status.Used)
	}
	if status.Remaining != 2493 {
		t.Errorf("expected remaining=2493, got %d", status.Remaining)
	}
}

func TestStatus_DoesNotApplyRollover(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"brave": {Limit: 66, Period: PeriodDaily},
	})

	tracker.now = fixedClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	tracker.CheckAndUpdate("brave")

	// Status is a pure read: the stale period key stays until the next check.
	tracker.now = fixedClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	if got := tracker.Status()["brave"].Period; got != "2026-03-14" {
		t.Fatalf("expected stale period 2026-03-14, got %s", got)
	}
}

func TestCheckAndUpdate_UnknownProvider(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{})
	if tracker.CheckAndUpdate("bogus") {
		t.Fatal("unknown provider should be denied")
	}
}

func TestCheckAndUpdate_Untracked(t *testing.T) {
	tracker := NewTracker(testLogger(t), testStore(t), map[string]Quota{
		"google_scraper": {Period: PeriodNone},
	})

	for i := 0; i < 200; i++ {
		if !tracker.CheckAndUpdate("google_scraper") {
			t.Fatal("untracked provider should always be available")
		}
	}
	if _, ok := tracker.Status()["google_scraper"]; ok {
		t.Fatal("untracked provider should not appear in status")
	}
}

func TestRestartRoundTrip(t *testing.T) {
	log := testLogger(t)
	path := filepath.Join(t.TempDir(), "usage.json")
	quotas := map[string]Quota{
		"brave": {Limit: 5, Period: PeriodDaily},
	}

	store, err := NewFileStore(log, path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	tracker := NewTracker(log, store, quotas)
	tracker.CheckAndUpdate("brave")
	tracker.CheckAndUpdate("brave")
	tracker.CheckAndUpdate("brave")

	// Simulate a restart: fresh store and tracker over the same file.
	store2, err := NewFileStore(log, path)
	if err != nil {
		t.Fatalf("Failed to recreate store: %v", err)
	}
	tracker2 := NewTracker(log, store2, quotas)

	if got := tracker2.Status()["brave"].Used; got != 3 {
		t.Fatalf("expected used=3 after restart, got %d", got)
	}

	tracker2.CheckAndUpdate("brave")
	tracker2.CheckAndUpdate("brave")
	if tracker2.CheckAndUpdate("brave") {
		t.Fatal("quota enforcement should continue across restart")
	}
}

// failingStore simulates unreadable/unwritable durable storage.
type failingStore struct{}

func (failingStore) Load(ctx context.Context) (map[string]Record, error) {
	return nil, errors.New("disk on fire")
}
func (failingStore) Save(ctx context.Context, records map[string]Record) error {
	return errors.New("disk still on fire")
}
func (failingStore) Close() error { return nil }

func TestStorageFailureIsNonFatal(t *testing.T) {
	tracker := NewTracker(testLogger(t), failingStore{}, map[string]Quota{
		"brave": {Limit: 2, Period: PeriodDaily},
	})

	// Load failure degrades to a zeroed in-memory state; checks still run
	// and the write failure does not undo the decision.
	if !tracker.CheckAndUpdate("brave") {
		t.Fatal("check should succeed despite storage failure")
	}
	if !tracker.CheckAndUpdate("brave") {
		t.Fatal("second check should succeed")
	}
	if tracker.CheckAndUpdate("brave") {
		t.Fatal("in-memory quota enforcement should still apply")
	}
}
