package devapi

import (
	"database/sql"
	"net/http"
	"strconv"
)

type task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority,omitempty"`
	AssignedTo  *userRef `json:"assigned_to,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

const taskCols = `id, title, description, status, priority, assigned_to, due_date, created_at, updated_at`

func (s *Server) scanTask(row interface{ Scan(...any) error }) (task, error) {
	var t task
	var assignedTo sql.NullInt64
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &assignedTo,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if assignedTo.Valid {
		if u, err := s.userByID(int(assignedTo.Int64)); err == nil {
			r := u.ref()
			t.AssignedTo = &r
		}
	}
	return t, nil
}

func (s *Server) taskByID(id int64) (task, error) {
	return s.scanTask(s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY id DESC`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("status"); v != "" && t.Status != v {
			continue
		}
		if v := q.Get("assigned_to"); v != "" {
			id, _ := strconv.Atoi(v)
			if t.AssignedTo == nil || t.AssignedTo.ID != id {
				continue
			}
		}
		if !matches(q.Get("search"), t.Title, t.Description) {
			continue
		}
		out = append(out, t)
	}
	writeList(w, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		AssignedTo  int    `json:"assigned_to"`
		DueDate     string `json:"due_date"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"title": in.Title}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if in.Status == "" {
		in.Status = "pending"
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, status, priority, assigned_to, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, in.Status, in.Priority, nullableID(in.AssignedTo), in.DueDate, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid task payload")
		return
	}
	id, _ := res.LastInsertId()
	t, err := s.taskByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// handlePatchTask is the only way tasks change, including the soft
// delete (status to cancelled). There is no DELETE route.
func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		AssignedTo  *int    `json:"assigned_to"`
		DueDate     *string `json:"due_date"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := s.taskByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	assignedID := any(nil)
	if t.AssignedTo != nil {
		assignedID = t.AssignedTo.ID
	}
	if in.AssignedTo != nil {
		assignedID = nullableID(*in.AssignedTo)
	}
	_, err = s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assigned_to = ?,
		 due_date = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority, assignedID, t.DueDate, now(), id)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid task payload")
		return
	}
	t, err = s.taskByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
