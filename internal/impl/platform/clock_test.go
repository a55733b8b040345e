package impl_platform_test

import (
	"testing"
	"time"

	impl_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/platform"
	"github.com/google/uuid"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	clock := impl_platform.NewManualClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, clock.Now())
	}

	got := clock.Advance(15 * time.Second)
	if !got.Equal(start.Add(15 * time.Second)) {
		t.Fatalf("expected advance to return %v, got %v", start.Add(15*time.Second), got)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Fatalf("expected %v after Set, got %v", later, clock.Now())
	}
}

func TestSystemClock_ReturnsUTC(t *testing.T) {
	now := impl_platform.SystemClock{}.Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", now.Location())
	}
}

func TestUUIDGenerator_ReturnsDistinctIDs(t *testing.T) {
	gen := impl_platform.UUIDGenerator{}
	a, b := gen.NewUUID(), gen.NewUUID()
	if a == uuid.Nil || b == uuid.Nil {
		t.Fatal("expected non-nil uuids")
	}
	if a == b {
		t.Fatalf("expected distinct uuids, got %s twice", a)
	}
}
