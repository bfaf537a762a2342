package ui

import (
	"sync"
	"time"
)

// searchDelay is how long typing must pause before a search fires.
const searchDelay = 400 * time.Millisecond

// sequence numbers in-flight list requests so a slow response for an
// old query can never overwrite the results of a newer one. next is
// called before dispatching a request, current when its response lands;
// stale responses are dropped.
type sequence struct {
	n uint64
}

func (s *sequence) next() uint64 {
	s.n++
	return s.n
}

func (s *sequence) current(n uint64) bool {
	return n == s.n
}

// debouncer coalesces rapid triggers into one call after a quiet
// period. flush runs a pending call immediately (Enter, blur).
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// flush runs the pending call now instead of waiting out the delay.
func (d *debouncer) flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// stop drops any pending call.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
}
