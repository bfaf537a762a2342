package ui

import (
	"testing"

	"github.com/mintcrm/console/internal/crm"
)

func TestVisibleTasksHidesCancelled(t *testing.T) {
	tasks := []crm.Task{
		{ID: 1, Status: crm.TaskPending},
		{ID: 2, Status: crm.TaskCancelled},
		{ID: 3, Status: crm.TaskCompleted},
	}

	got := visibleTasks(tasks, "")
	if len(got) != 2 {
		t.Fatalf("visible tasks = %d, want 2", len(got))
	}
	for _, task := range got {
		if task.Status == crm.TaskCancelled {
			t.Fatalf("cancelled task %d leaked into the default view", task.ID)
		}
	}
}

func TestVisibleTasksShowsCancelledWhenFiltered(t *testing.T) {
	tasks := []crm.Task{
		{ID: 1, Status: crm.TaskCancelled},
		{ID: 2, Status: crm.TaskCancelled},
	}

	got := visibleTasks(tasks, crm.TaskCancelled)
	if len(got) != 2 {
		t.Fatalf("visible tasks = %d, want 2 when filtering for cancelled", len(got))
	}
}

func TestToggledStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{crm.TaskPending, crm.TaskCompleted},
		{crm.TaskInProgress, crm.TaskCompleted},
		{crm.TaskCompleted, crm.TaskPending},
	}
	for _, tt := range tests {
		if got := toggledStatus(tt.in); got != tt.want {
			t.Errorf("toggledStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationLabel(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{30, "30m"},
		{60, "1h"},
		{90, "90m"},
		{120, "2h"},
	}
	for _, tt := range tests {
		if got := durationLabel(tt.minutes); got != tt.want {
			t.Errorf("durationLabel(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a long message body", 6); got != "a long..." {
		t.Errorf("truncate long = %q", got)
	}
}
