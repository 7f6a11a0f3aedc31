package store

import (
	"context"
	"errors"
	"testing"
)

func TestCountUnits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.CountUnits(ctx)
	if err != nil {
		t.Fatalf("CountUnits() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountUnits() on empty store = %d, want 0", n)
	}

	for _, src := range []string{"1", "2", "2"} {
		if _, _, err := s.WriteUnit(ctx, compileRecord(t, src, "run")); err != nil {
			t.Fatalf("WriteUnit(%q) failed: %v", src, err)
		}
	}
	n, err = s.CountUnits(ctx)
	if err != nil {
		t.Fatalf("CountUnits() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountUnits() = %d, want 2 (duplicate source records once)", n)
	}
}

func TestReplayUnits_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	srcs := []string{"3", "1 + 2", "y = 4"}
	for _, src := range srcs {
		if _, _, err := s.WriteUnit(ctx, compileRecord(t, src, "run")); err != nil {
			t.Fatalf("WriteUnit(%q) failed: %v", src, err)
		}
	}

	var seen []string
	err := s.ReplayUnits(ctx, func(r Record) error {
		seen = append(seen, r.Source)
		// The store stays usable from inside the callback.
		if _, err := s.ReadUnit(ctx, r.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ReplayUnits() failed: %v", err)
	}

	if len(seen) != len(srcs) {
		t.Fatalf("replayed %d units, want %d", len(seen), len(srcs))
	}
	for i := range srcs {
		if seen[i] != srcs[i] {
			t.Errorf("seen[%d] = %q, want %q (oldest first)", i, seen[i], srcs[i])
		}
	}
}

func TestReplayUnits_StopsOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, src := range []string{"1", "2", "3"} {
		if _, _, err := s.WriteUnit(ctx, compileRecord(t, src, "run")); err != nil {
			t.Fatalf("WriteUnit() failed: %v", err)
		}
	}

	stop := errors.New("stop")
	calls := 0
	err := s.ReplayUnits(ctx, func(Record) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("ReplayUnits() = %v, want stop", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestReplayUnits_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	if _, _, err := s.WriteUnit(context.Background(), compileRecord(t, "1", "run")); err != nil {
		t.Fatalf("WriteUnit() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ReplayUnits(ctx, func(Record) error {
		t.Error("callback must not run after cancellation")
		return nil
	})
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
