package ui

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mintcrm/console/internal/crm"
)

func TestSessionExpiredDetects401(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unauthorized", &crm.APIError{StatusCode: 401, Message: "token expired"}, true},
		{"wrapped unauthorized", fmt.Errorf("load cases: %w", &crm.APIError{StatusCode: 401, Message: "token expired"}), true},
		{"not found", &crm.APIError{StatusCode: 404, Message: "not found"}, false},
		{"server error", &crm.APIError{StatusCode: 500, Message: "server error"}, false},
		{"plain error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sessionExpired(tt.err); got != tt.want {
				t.Fatalf("sessionExpired(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDismountStopsPendingSearch(t *testing.T) {
	p := &page{debounce: newDebouncer(10 * time.Millisecond)}
	var calls atomic.Int32

	p.debounce.trigger(func() { calls.Add(1) })
	p.OnDismount()

	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("search fired %d times after dismount, want 0", got)
	}
}
