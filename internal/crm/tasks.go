package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Task statuses. There is no delete endpoint for tasks: "deleting" one is
// a PATCH to cancelled, and the default views filter cancelled out.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskCancelled  = "cancelled"
)

type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority,omitempty"`
	AssignedTo  *UserRef `json:"assigned_to,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type TaskListOptions struct {
	Status     string
	AssignedTo int
	Search     string
	Ordering   string
}

type CreateTaskData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	AssignedTo  int    `json:"assigned_to,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type UpdateTaskData struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	AssignedTo  *int    `json:"assigned_to,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type TasksService struct {
	c *Client
}

func (s *TasksService) List(ctx context.Context, opts TaskListOptions) (*ListResult[Task], error) {
	q := url.Values{}
	setIf(q, "status", opts.Status)
	setIfInt(q, "assigned_to", opts.AssignedTo)
	setIf(q, "search", opts.Search)
	setIf(q, "ordering", opts.Ordering)

	var out ListResult[Task]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/tasks/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TasksService) Create(ctx context.Context, data CreateTaskData) (*Task, error) {
	var out Task
	if err := s.c.do(ctx, http.MethodPost, "/tasks/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TasksService) Update(ctx context.Context, id int, data UpdateTaskData) (*Task, error) {
	var out Task
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel is the task "delete": a soft status transition, because the
// backend has no hard-delete endpoint for tasks.
func (s *TasksService) Cancel(ctx context.Context, id int) (*Task, error) {
	status := TaskCancelled
	return s.Update(ctx, id, UpdateTaskData{Status: &status})
}
