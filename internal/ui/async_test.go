package ui

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var calls atomic.Int32

	for i := 0; i < 5; i++ {
		d.trigger(func() { calls.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := newDebouncer(time.Hour)
	var calls atomic.Int32

	d.trigger(func() { calls.Add(1) })
	d.flush()

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls after flush = %d, want 1", got)
	}

	// A second flush with nothing pending is a no-op.
	d.flush()
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls after second flush = %d, want 1", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var calls atomic.Int32

	d.trigger(func() { calls.Add(1) })
	d.stop()

	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("calls after stop = %d, want 0", got)
	}
}

func TestSequenceDiscardsStaleResponses(t *testing.T) {
	var s sequence

	first := s.next()
	second := s.next()

	if s.current(first) {
		t.Fatal("first request should be stale once a second started")
	}
	if !s.current(second) {
		t.Fatal("latest request should be current")
	}
}
