package devapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type userRef struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (u *authUser) ref() userRef {
	return userRef{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

type supportCase struct {
	ID            int              `json:"id"`
	CaseNumber    string           `json:"case_number"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Priority      string           `json:"priority"`
	Status        string           `json:"status"`
	Source        string           `json:"source"`
	Customer      string           `json:"customer"`
	Company       string           `json:"company,omitempty"`
	AssignedTo    *userRef         `json:"assigned_to,omitempty"`
	CreatedBy     userRef          `json:"created_by"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
	ResolvedAt    string           `json:"resolved_at,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	SLAHours      int              `json:"sla_hours"`
	Tags          []string         `json:"tags"`
	Responses     []caseResponse   `json:"responses"`
	Attachments   []caseAttachment `json:"attachments"`
	IsOverdue     bool             `json:"is_overdue"`
	PriorityScore int              `json:"priority_score"`
	SLABreach     bool             `json:"sla_breach"`
	ResponseCount int              `json:"response_count"`
}

type caseResponse struct {
	ID           int              `json:"id"`
	Case         int              `json:"case"`
	Author       userRef          `json:"author"`
	ResponseType string           `json:"response_type"`
	Content      string           `json:"content"`
	IsInternal   bool             `json:"is_internal"`
	EmailSent    bool             `json:"email_sent"`
	CreatedAt    string           `json:"created_at"`
	Attachments  []caseAttachment `json:"attachments"`
}

type caseAttachment struct {
	ID         int     `json:"id"`
	File       string  `json:"file"`
	Filename   string  `json:"filename"`
	FileSize   int64   `json:"file_size"`
	MimeType   string  `json:"mime_type"`
	UploadedBy userRef `json:"uploaded_by"`
	UploadedAt string  `json:"uploaded_at"`
}

type caseNotifications struct {
	EmailSent bool `json:"email_sent"`
	SMSSent   bool `json:"sms_sent"`
}

type caseActionResult struct {
	supportCase
	Notifications caseNotifications `json:"notifications"`
}

var priorityScores = map[string]int{"low": 1, "medium": 2, "high": 3, "urgent": 4}

const caseCols = `cs.id, cs.case_number, cs.title, cs.description, cs.category, cs.priority,
	cs.status, cs.source, ct.first_name || ' ' || ct.last_name, co.name,
	cs.assigned_to, cs.created_by, cs.due_date, cs.sla_hours, cs.tags, cs.resolved_at,
	cs.created_at, cs.updated_at`

const caseFrom = ` FROM cases cs
	JOIN contacts ct ON ct.id = cs.customer_id
	LEFT JOIN companies co ON co.id = cs.company_id `

func (s *Server) scanCase(row interface{ Scan(...any) error }) (supportCase, error) {
	var c supportCase
	var company sql.NullString
	var assignedTo sql.NullInt64
	var createdBy int
	var tags string
	err := row.Scan(&c.ID, &c.CaseNumber, &c.Title, &c.Description, &c.Category, &c.Priority,
		&c.Status, &c.Source, &c.Customer, &company, &assignedTo, &createdBy,
		&c.DueDate, &c.SLAHours, &tags, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.Company = company.String
	if assignedTo.Valid {
		if u, err := s.userByID(int(assignedTo.Int64)); err == nil {
			r := u.ref()
			c.AssignedTo = &r
		}
	}
	if u, err := s.userByID(createdBy); err == nil {
		c.CreatedBy = u.ref()
	}
	c.Tags = []string{}
	if tags != "" {
		c.Tags = strings.Split(tags, ",")
	}
	c.PriorityScore = priorityScores[c.Priority]
	open := c.Status != "resolved" && c.Status != "closed"
	if due, err := time.Parse(time.RFC3339, c.DueDate); err == nil {
		c.IsOverdue = open && time.Now().After(due)
	}
	if created, err := time.Parse(time.RFC3339, c.CreatedAt); err == nil {
		c.SLABreach = open && time.Since(created) > time.Duration(c.SLAHours)*time.Hour
	}
	return c, nil
}

// loadCaseDetail fills in the owned collections a detail response carries.
func (s *Server) loadCaseDetail(c *supportCase) error {
	responses, err := s.caseResponses(c.ID)
	if err != nil {
		return err
	}
	c.Responses = responses
	c.ResponseCount = len(responses)

	c.Attachments = []caseAttachment{}
	rows, err := s.db.Query(
		`SELECT id, filename, file_size, uploaded_by, created_at FROM case_attachments WHERE case_id = ? ORDER BY id`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a caseAttachment
		var by sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Filename, &a.FileSize, &by, &a.UploadedAt); err != nil {
			return err
		}
		a.File = "/media/case-attachments/" + a.Filename
		a.MimeType = "application/octet-stream"
		if by.Valid {
			if u, err := s.userByID(int(by.Int64)); err == nil {
				a.UploadedBy = u.ref()
			}
		}
		c.Attachments = append(c.Attachments, a)
	}
	return rows.Err()
}

func (s *Server) caseByID(id int64) (supportCase, error) {
	c, err := s.scanCase(s.db.QueryRow(`SELECT `+caseCols+caseFrom+`WHERE cs.id = ?`, id))
	if err != nil {
		return c, err
	}
	return c, s.loadCaseDetail(&c)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + caseCols + caseFrom + `ORDER BY cs.id DESC`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []supportCase
	for rows.Next() {
		c, err := s.scanCase(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("status"); v != "" && c.Status != v {
			continue
		}
		if v := q.Get("priority"); v != "" && c.Priority != v {
			continue
		}
		if v := q.Get("category"); v != "" && c.Category != v {
			continue
		}
		if v := q.Get("assigned_to"); v != "" {
			id, _ := strconv.Atoi(v)
			if c.AssignedTo == nil || c.AssignedTo.ID != id {
				continue
			}
		}
		if !matches(q.Get("search"), c.CaseNumber, c.Title, c.Description, c.Customer) {
			continue
		}
		if err := s.loadCaseDetail(&c); err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, c)
	}
	writeList(w, out)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.caseByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) nextCaseNumber() (string, error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM cases`).Scan(&maxID); err != nil {
		return "", err
	}
	return fmt.Sprintf("CASE-%04d", maxID.Int64+1), nil
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Priority    string   `json:"priority"`
		Source      string   `json:"source"`
		Customer    int      `json:"customer"`
		Company     int      `json:"company"`
		AssignedTo  int      `json:"assigned_to"`
		DueDate     string   `json:"due_date"`
		SLAHours    int      `json:"sla_hours"`
		Tags        []string `json:"tags"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	fe := requireFields(map[string]string{"title": in.Title})
	if in.Customer == 0 {
		fe["customer"] = []string{"This field is required."}
	}
	if len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if in.Category == "" {
		in.Category = "general"
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if in.Source == "" {
		in.Source = "web"
	}
	if in.SLAHours == 0 {
		in.SLAHours = 24
	}

	number, err := s.nextCaseNumber()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO cases (case_number, title, description, category, priority, source, customer_id,
		 company_id, assigned_to, created_by, due_date, sla_hours, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		number, in.Title, in.Description, in.Category, in.Priority, in.Source, in.Customer,
		nullableID(in.Company), nullableID(in.AssignedTo), currentUser(r).ID,
		in.DueDate, in.SLAHours, strings.Join(in.Tags, ","), ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid case payload")
		return
	}
	id, _ := res.LastInsertId()
	c, err := s.caseByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handlePutCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Priority    string   `json:"priority"`
		Status      string   `json:"status"`
		Source      string   `json:"source"`
		AssignedTo  int      `json:"assigned_to"`
		DueDate     string   `json:"due_date"`
		SLAHours    int      `json:"sla_hours"`
		Tags        []string `json:"tags"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"title": in.Title}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if in.Status == "" {
		in.Status = "open"
	}
	resolvedAt := ""
	if in.Status == "resolved" || in.Status == "closed" {
		resolvedAt = now()
	}
	res, err := s.db.Exec(
		`UPDATE cases SET title = ?, description = ?, category = ?, priority = ?, status = ?,
		 source = ?, assigned_to = ?, due_date = ?, sla_hours = ?, tags = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ?`,
		in.Title, in.Description, in.Category, in.Priority, in.Status, in.Source,
		nullableID(in.AssignedTo), in.DueDate, in.SLAHours, strings.Join(in.Tags, ","),
		resolvedAt, now(), id)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid case payload")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.caseByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// caseAction runs one of the POST sub-resources and responds with the
// updated case plus which notifications went out.
func (s *Server) caseAction(w http.ResponseWriter, r *http.Request, update func(id int64, body map[string]any) error) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	body := map[string]any{}
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &body) {
			return
		}
	}
	if _, err := s.caseByID(id); err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := update(id, body); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.caseByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, caseActionResult{
		supportCase:   c,
		Notifications: caseNotifications{EmailSent: true, SMSSent: false},
	})
}

func bodyInt(body map[string]any, key string) (int64, bool) {
	f, ok := body[key].(float64)
	return int64(f), ok
}

func bodyString(body map[string]any, key string) (string, bool) {
	v, ok := body[key].(string)
	return v, ok
}

func (s *Server) handleAssignCase(w http.ResponseWriter, r *http.Request) {
	s.caseAction(w, r, func(id int64, body map[string]any) error {
		assignee, ok := bodyInt(body, "assigned_to")
		if !ok {
			return fmt.Errorf("assigned_to is required")
		}
		if _, err := s.userByID(int(assignee)); err != nil {
			return fmt.Errorf("no such user")
		}
		_, err := s.db.Exec(`UPDATE cases SET assigned_to = ?, updated_at = ? WHERE id = ?`, assignee, now(), id)
		return err
	})
}

func (s *Server) handleCasePriority(w http.ResponseWriter, r *http.Request) {
	s.caseAction(w, r, func(id int64, body map[string]any) error {
		priority, ok := bodyString(body, "priority")
		if !ok || priorityScores[priority] == 0 {
			return fmt.Errorf("invalid priority")
		}
		_, err := s.db.Exec(`UPDATE cases SET priority = ?, updated_at = ? WHERE id = ?`, priority, now(), id)
		return err
	})
}

func (s *Server) handleCaseStatus(w http.ResponseWriter, r *http.Request) {
	s.caseAction(w, r, func(id int64, body map[string]any) error {
		status, ok := bodyString(body, "status")
		if !ok {
			return fmt.Errorf("status is required")
		}
		resolvedAt := ""
		if status == "resolved" || status == "closed" {
			resolvedAt = now()
		}
		_, err := s.db.Exec(`UPDATE cases SET status = ?, resolved_at = ?, updated_at = ? WHERE id = ?`,
			status, resolvedAt, now(), id)
		return err
	})
}

func (s *Server) handleEscalateCase(w http.ResponseWriter, r *http.Request) {
	s.caseAction(w, r, func(id int64, _ map[string]any) error {
		// Escalation raises the priority one step, capped at urgent.
		_, err := s.db.Exec(
			`UPDATE cases SET priority = CASE priority
				WHEN 'low' THEN 'medium'
				WHEN 'medium' THEN 'high'
				ELSE 'urgent' END,
			 updated_at = ? WHERE id = ?`, now(), id)
		return err
	})
}

func (s *Server) caseResponses(caseID int) ([]caseResponse, error) {
	rows, err := s.db.Query(
		`SELECT id, case_id, author_id, response_type, content, is_internal, created_at
		 FROM case_responses WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []caseResponse{}
	for rows.Next() {
		var cr caseResponse
		var authorID, internal int
		if err := rows.Scan(&cr.ID, &cr.Case, &authorID, &cr.ResponseType, &cr.Content, &internal, &cr.CreatedAt); err != nil {
			return nil, err
		}
		cr.IsInternal = internal != 0
		cr.Attachments = []caseAttachment{}
		if u, err := s.userByID(authorID); err == nil {
			cr.Author = u.ref()
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// handleListCaseResponses returns a bare array, not a paginated
// envelope: response threads belong to one case and are never paged.
func (s *Server) handleListCaseResponses(w http.ResponseWriter, r *http.Request) {
	caseID, err := strconv.Atoi(r.URL.Query().Get("case"))
	if err != nil || caseID <= 0 {
		writeFieldErrors(w, map[string][]string{"case": {"This field is required."}})
		return
	}
	responses, err := s.caseResponses(caseID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleCreateCaseResponse(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Case         int    `json:"case"`
		ResponseType string `json:"response_type"`
		Content      string `json:"content"`
		IsInternal   bool   `json:"is_internal"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	fe := requireFields(map[string]string{"content": in.Content})
	if in.Case == 0 {
		fe["case"] = []string{"This field is required."}
	}
	if len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if in.ResponseType == "" {
		in.ResponseType = "note"
	}
	user := currentUser(r)
	res, err := s.db.Exec(
		`INSERT INTO case_responses (case_id, author_id, response_type, content, is_internal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Case, user.ID, in.ResponseType, in.Content, boolInt(in.IsInternal), now())
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid response payload")
		return
	}
	id, _ := res.LastInsertId()

	cr := caseResponse{
		ID:           int(id),
		Case:         in.Case,
		Author:       user.ref(),
		ResponseType: in.ResponseType,
		Content:      in.Content,
		IsInternal:   in.IsInternal,
		EmailSent:    in.ResponseType == "email",
		CreatedAt:    now(),
		Attachments:  []caseAttachment{},
	}
	writeJSON(w, http.StatusCreated, cr)
}

func (s *Server) handleCreateCaseAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	caseID, err := strconv.Atoi(r.FormValue("case"))
	if err != nil || caseID <= 0 {
		writeFieldErrors(w, map[string][]string{"case": {"This field is required."}})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFieldErrors(w, map[string][]string{"file": {"This field is required."}})
		return
	}
	file.Close()

	user := currentUser(r)
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO case_attachments (case_id, filename, file_size, uploaded_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		caseID, header.Filename, header.Size, user.ID, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid attachment payload")
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, caseAttachment{
		ID:         int(id),
		File:       "/media/case-attachments/" + header.Filename,
		Filename:   header.Filename,
		FileSize:   header.Size,
		MimeType:   header.Header.Get("Content-Type"),
		UploadedBy: user.ref(),
		UploadedAt: ts,
	})
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}
