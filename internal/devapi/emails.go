package devapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type email struct {
	ID           int               `json:"id"`
	EmailType    string            `json:"email_type"`
	Status       string            `json:"status"`
	Subject      string            `json:"subject"`
	FromEmail    string            `json:"from_email"`
	ToEmail      string            `json:"to_email"`
	CCEmails     string            `json:"cc_emails"`
	BCCEmails    string            `json:"bcc_emails"`
	HTMLContent  string            `json:"html_content"`
	TextContent  string            `json:"text_content"`
	Case         string            `json:"case,omitempty"`
	User         *userRef          `json:"user,omitempty"`
	MessageID    string            `json:"message_id"`
	ThreadID     string            `json:"thread_id"`
	SentAt       string            `json:"sent_at,omitempty"`
	DeliveredAt  string            `json:"delivered_at,omitempty"`
	ErrorMessage string            `json:"error_message"`
	RetryCount   int               `json:"retry_count"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Attachments  []emailAttachment `json:"attachments"`
	Logs         []emailLog        `json:"logs"`
	IsSent       bool              `json:"is_sent"`
	IsFailed     bool              `json:"is_failed"`
	CanRetry     bool              `json:"can_retry"`
}

type emailAttachment struct {
	ID          int    `json:"id"`
	File        string `json:"file"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	CreatedAt   string `json:"created_at"`
}

type emailLog struct {
	ID        int    `json:"id"`
	Email     int    `json:"email"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

const emailCols = `e.id, e.email_type, e.status, e.subject, e.from_email, e.to_email,
	e.cc_emails, e.bcc_emails, e.html_content, e.text_content, cs.case_number, e.user_id,
	e.message_id, e.thread_id, e.sent_at, e.delivered_at, e.error_message, e.retry_count,
	e.created_at, e.updated_at`

const emailFrom = ` FROM emails e LEFT JOIN cases cs ON cs.id = e.case_id `

func (s *Server) scanEmail(row interface{ Scan(...any) error }) (email, error) {
	var e email
	var caseNumber sql.NullString
	var userID sql.NullInt64
	err := row.Scan(&e.ID, &e.EmailType, &e.Status, &e.Subject, &e.FromEmail, &e.ToEmail,
		&e.CCEmails, &e.BCCEmails, &e.HTMLContent, &e.TextContent, &caseNumber, &userID,
		&e.MessageID, &e.ThreadID, &e.SentAt, &e.DeliveredAt, &e.ErrorMessage, &e.RetryCount,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Case = caseNumber.String
	if userID.Valid {
		if u, err := s.userByID(int(userID.Int64)); err == nil {
			r := u.ref()
			e.User = &r
		}
	}
	e.IsSent = e.Status == "sent" || e.Status == "delivered"
	e.IsFailed = e.Status == "failed" || e.Status == "bounced"
	e.CanRetry = e.IsFailed && e.RetryCount < 3
	return e, nil
}

func (s *Server) loadEmailDetail(e *email) error {
	e.Attachments = []emailAttachment{}
	rows, err := s.db.Query(
		`SELECT id, filename, file_size, content_type, created_at FROM email_attachments WHERE email_id = ? ORDER BY id`, e.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a emailAttachment
		if err := rows.Scan(&a.ID, &a.Filename, &a.FileSize, &a.ContentType, &a.CreatedAt); err != nil {
			return err
		}
		a.File = "/media/email-attachments/" + a.Filename
		e.Attachments = append(e.Attachments, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	e.Logs = []emailLog{}
	logRows, err := s.db.Query(`SELECT id, email_id, event, timestamp FROM email_logs WHERE email_id = ? ORDER BY id`, e.ID)
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		var l emailLog
		if err := logRows.Scan(&l.ID, &l.Email, &l.Event, &l.Timestamp); err != nil {
			return err
		}
		e.Logs = append(e.Logs, l)
	}
	return logRows.Err()
}

func (s *Server) emailByID(id int64) (email, error) {
	e, err := s.scanEmail(s.db.QueryRow(`SELECT `+emailCols+emailFrom+`WHERE e.id = ?`, id))
	if err != nil {
		return e, err
	}
	return e, s.loadEmailDetail(&e)
}

func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + emailCols + emailFrom + `ORDER BY e.id DESC`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []email
	for rows.Next() {
		e, err := s.scanEmail(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("email_type"); v != "" && e.EmailType != v {
			continue
		}
		if v := q.Get("status"); v != "" && e.Status != v {
			continue
		}
		if !matches(q.Get("search"), e.Subject, e.FromEmail, e.ToEmail, e.TextContent) {
			continue
		}
		if err := s.loadEmailDetail(&e); err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, e)
	}
	writeList(w, out)
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	e, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type emailInput struct {
	Subject     string `json:"subject"`
	ToEmail     string `json:"to_email"`
	FromEmail   string `json:"from_email"`
	CCEmails    string `json:"cc_emails"`
	BCCEmails   string `json:"bcc_emails"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content"`
	CaseID      int    `json:"case_id"`
}

// handleCreateEmail stores a draft; nothing is transmitted until
// send_email is called.
func (s *Server) handleCreateEmail(w http.ResponseWriter, r *http.Request) {
	var in emailInput
	if !decodeBody(w, r, &in) {
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO emails (email_type, status, subject, from_email, to_email, cc_emails, bcc_emails,
		 html_content, text_content, case_id, user_id, created_at, updated_at)
		 VALUES ('outbound', 'draft', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Subject, in.FromEmail, in.ToEmail, in.CCEmails, in.BCCEmails,
		in.HTMLContent, in.TextContent, nullableID(in.CaseID), currentUser(r).ID, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid email payload")
		return
	}
	id, _ := res.LastInsertId()
	e, err := s.emailByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// handlePutEmail rewrites a draft in full.
func (s *Server) handlePutEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in emailInput
	if !decodeBody(w, r, &in) {
		return
	}
	res, err := s.db.Exec(
		`UPDATE emails SET subject = ?, from_email = ?, to_email = ?, cc_emails = ?, bcc_emails = ?,
		 html_content = ?, text_content = ?, case_id = ?, updated_at = ? WHERE id = ?`,
		in.Subject, in.FromEmail, in.ToEmail, in.CCEmails, in.BCCEmails,
		in.HTMLContent, in.TextContent, nullableID(in.CaseID), now(), id)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid email payload")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	e, err := s.emailByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handlePatchEmail flips individual flags; only the supplied keys change.
func (s *Server) handlePatchEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	fields := map[string]any{}
	if !decodeBody(w, r, &fields) {
		return
	}
	cols := map[string]string{
		"subject":      "subject",
		"to_email":     "to_email",
		"cc_emails":    "cc_emails",
		"bcc_emails":   "bcc_emails",
		"html_content": "html_content",
		"text_content": "text_content",
		"starred":      "starred",
		"archived":     "archived",
	}
	for key, val := range fields {
		col, ok := cols[key]
		if !ok {
			continue
		}
		if b, isBool := val.(bool); isBool {
			val = boolInt(b)
		}
		if _, err := s.db.Exec(`UPDATE emails SET `+col+` = ?, updated_at = ? WHERE id = ?`, val, now(), id); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid email payload")
			return
		}
	}
	e, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM emails WHERE id = ?`, id)
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

// sendEmail inserts a sent outbound record and its log entry. The dev
// backend transmits nothing; every send succeeds immediately.
func (s *Server) sendEmail(userID int, in emailInput) (email, error) {
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO emails (email_type, status, subject, from_email, to_email, cc_emails, bcc_emails,
		 html_content, text_content, case_id, user_id, message_id, sent_at, created_at, updated_at)
		 VALUES ('outbound', 'sent', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Subject, in.FromEmail, in.ToEmail, in.CCEmails, in.BCCEmails,
		in.HTMLContent, in.TextContent, nullableID(in.CaseID), userID,
		"<"+uuid.NewString()+"@mint.local>", ts, ts, ts)
	if err != nil {
		return email{}, err
	}
	id, _ := res.LastInsertId()
	if _, err := s.db.Exec(`INSERT INTO email_logs (email_id, event, timestamp) VALUES (?, 'sent', ?)`, id, ts); err != nil {
		return email{}, err
	}
	return s.emailByID(id)
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var in emailInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"subject": in.Subject, "to_email": in.ToEmail}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	e, err := s.sendEmail(currentUser(r).ID, in)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Email sent successfully", "email": e})
}

func (s *Server) handleReplyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Subject     string `json:"subject"`
		Content     string `json:"content"`
		HTMLContent string `json:"html_content"`
		CCEmails    string `json:"cc_emails"`
		BCCEmails   string `json:"bcc_emails"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	orig, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	subject := in.Subject
	if subject == "" {
		subject = "Re: " + orig.Subject
	}
	e, err := s.sendEmail(currentUser(r).ID, emailInput{
		Subject:     subject,
		ToEmail:     orig.FromEmail,
		FromEmail:   orig.ToEmail,
		CCEmails:    in.CCEmails,
		BCCEmails:   in.BCCEmails,
		HTMLContent: in.HTMLContent,
		TextContent: in.Content,
	})
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Reply sent successfully", "email": e})
}

func (s *Server) handleForwardEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		ToEmail   string `json:"to_email"`
		Subject   string `json:"subject"`
		Message   string `json:"message"`
		CCEmails  string `json:"cc_emails"`
		BCCEmails string `json:"bcc_emails"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"to_email": in.ToEmail}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	orig, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	subject := in.Subject
	if subject == "" {
		subject = "Fwd: " + orig.Subject
	}
	body := orig.TextContent
	if in.Message != "" {
		body = in.Message + "\n\n---------- Forwarded message ----------\n" + body
	}
	e, err := s.sendEmail(currentUser(r).ID, emailInput{
		Subject:     subject,
		ToEmail:     in.ToEmail,
		FromEmail:   orig.ToEmail,
		CCEmails:    in.CCEmails,
		BCCEmails:   in.BCCEmails,
		TextContent: body,
	})
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Email forwarded successfully", "email": e})
}

// handleEmailCreateCase opens a support case from an inbound email,
// creating a contact for the sender when none exists.
func (s *Server) handleEmailCreateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	orig, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}

	var contactID int64
	err = s.db.QueryRow(`SELECT id FROM contacts WHERE email = ?`, orig.FromEmail).Scan(&contactID)
	if err == sql.ErrNoRows {
		res, insErr := s.db.Exec(
			`INSERT INTO contacts (first_name, last_name, email, is_prospect, created_at, updated_at)
			 VALUES (?, '', ?, 1, ?, ?)`,
			orig.FromEmail, orig.FromEmail, now(), now())
		if insErr != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		contactID, _ = res.LastInsertId()
	} else if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}

	title := in.Title
	if title == "" {
		title = orig.Subject
	}
	description := in.Description
	if description == "" {
		description = orig.TextContent
	}
	category := in.Category
	if category == "" {
		category = "general"
	}
	priority := in.Priority
	if priority == "" {
		priority = "medium"
	}

	number, err := s.nextCaseNumber()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO cases (case_number, title, description, category, priority, source, customer_id,
		 created_by, sla_hours, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'email', ?, ?, 24, ?, ?)`,
		number, title, description, category, priority, contactID, currentUser(r).ID, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	caseID, _ := res.LastInsertId()
	if _, err := s.db.Exec(`UPDATE emails SET case_id = ?, updated_at = ? WHERE id = ?`, caseID, ts, id); err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	c, err := s.caseByID(caseID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Case created from email", "case": c})
}

func (s *Server) handleRetryEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	e, err := s.emailByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if !e.CanRetry {
		writeDetail(w, http.StatusBadRequest, "Email cannot be retried")
		return
	}
	ts := now()
	_, err = s.db.Exec(
		`UPDATE emails SET status = 'sent', error_message = '', retry_count = retry_count + 1,
		 sent_at = ?, updated_at = ? WHERE id = ?`, ts, ts, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email queued for retry"})
}

func (s *Server) handleSyncEmails(w http.ResponseWriter, r *http.Request) {
	// Nothing to pull from; report an empty sync.
	writeJSON(w, http.StatusOK, map[string]any{"message": "Sync complete", "new_emails": 0})
}

func (s *Server) handleEmailStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		TotalEmails     int `json:"total_emails"`
		SentEmails      int `json:"sent_emails"`
		DeliveredEmails int `json:"delivered_emails"`
		FailedEmails    int `json:"failed_emails"`
		BouncedEmails   int `json:"bounced_emails"`
	}{}
	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COUNT(CASE WHEN status = 'sent' THEN 1 END),
			COUNT(CASE WHEN status = 'delivered' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END),
			COUNT(CASE WHEN status = 'bounced' THEN 1 END)
		 FROM emails`).
		Scan(&stats.TotalEmails, &stats.SentEmails, &stats.DeliveredEmails, &stats.FailedEmails, &stats.BouncedEmails)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListEmailAttachments(w http.ResponseWriter, r *http.Request) {
	emailID, err := strconv.Atoi(r.URL.Query().Get("email"))
	if err != nil || emailID <= 0 {
		writeFieldErrors(w, map[string][]string{"email": {"This field is required."}})
		return
	}
	rows, err := s.db.Query(
		`SELECT id, filename, file_size, content_type, created_at FROM email_attachments WHERE email_id = ? ORDER BY id`, emailID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []emailAttachment
	for rows.Next() {
		var a emailAttachment
		if err := rows.Scan(&a.ID, &a.Filename, &a.FileSize, &a.ContentType, &a.CreatedAt); err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		a.File = "/media/email-attachments/" + a.Filename
		out = append(out, a)
	}
	writeList(w, out)
}

func (s *Server) handleCreateEmailAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	emailID, err := strconv.Atoi(r.FormValue("email"))
	if err != nil || emailID <= 0 {
		writeFieldErrors(w, map[string][]string{"email": {"This field is required."}})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFieldErrors(w, map[string][]string{"file": {"This field is required."}})
		return
	}
	file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO email_attachments (email_id, filename, file_size, content_type, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		emailID, header.Filename, header.Size, contentType, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid attachment payload")
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, emailAttachment{
		ID:          int(id),
		File:        "/media/email-attachments/" + header.Filename,
		Filename:    header.Filename,
		ContentType: contentType,
		FileSize:    header.Size,
		CreatedAt:   ts,
	})
}

func (s *Server) handleDeleteEmailAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM email_attachments WHERE id = ?`, id)
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
