package devapi

import (
	"database/sql"
	"net/http"

	"github.com/google/uuid"
)

type smsMessage struct {
	ID           int      `json:"id"`
	SMSType      string   `json:"sms_type"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	FromNumber   string   `json:"from_number"`
	ToNumber     string   `json:"to_number"`
	Case         string   `json:"case,omitempty"`
	User         *userRef `json:"user,omitempty"`
	MessageID    string   `json:"message_id"`
	SentAt       string   `json:"sent_at,omitempty"`
	DeliveredAt  string   `json:"delivered_at,omitempty"`
	ErrorMessage string   `json:"error_message"`
	RetryCount   int      `json:"retry_count"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	Logs         []smsLog `json:"logs"`
	IsSent       bool     `json:"is_sent"`
	IsFailed     bool     `json:"is_failed"`
	CanRetry     bool     `json:"can_retry"`
}

type smsLog struct {
	ID        int    `json:"id"`
	SMS       int    `json:"sms"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

const smsCols = `m.id, m.sms_type, m.status, m.message, m.from_number, m.to_number,
	cs.case_number, m.user_id, m.message_id, m.sent_at, m.delivered_at, m.error_message,
	m.retry_count, m.created_at, m.updated_at`

const smsFrom = ` FROM sms m LEFT JOIN cases cs ON cs.id = m.case_id `

func (s *Server) scanSMS(row interface{ Scan(...any) error }) (smsMessage, error) {
	var m smsMessage
	var caseNumber sql.NullString
	var userID sql.NullInt64
	err := row.Scan(&m.ID, &m.SMSType, &m.Status, &m.Message, &m.FromNumber, &m.ToNumber,
		&caseNumber, &userID, &m.MessageID, &m.SentAt, &m.DeliveredAt, &m.ErrorMessage,
		&m.RetryCount, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.Case = caseNumber.String
	if userID.Valid {
		if u, err := s.userByID(int(userID.Int64)); err == nil {
			r := u.ref()
			m.User = &r
		}
	}
	m.IsSent = m.Status == "sent" || m.Status == "delivered"
	m.IsFailed = m.Status == "failed" || m.Status == "undelivered"
	m.CanRetry = m.IsFailed && m.RetryCount < 3
	return m, nil
}

func (s *Server) loadSMSLogs(m *smsMessage) error {
	m.Logs = []smsLog{}
	rows, err := s.db.Query(`SELECT id, sms_id, event, timestamp FROM sms_logs WHERE sms_id = ? ORDER BY id`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l smsLog
		if err := rows.Scan(&l.ID, &l.SMS, &l.Event, &l.Timestamp); err != nil {
			return err
		}
		m.Logs = append(m.Logs, l)
	}
	return rows.Err()
}

func (s *Server) smsByID(id int64) (smsMessage, error) {
	m, err := s.scanSMS(s.db.QueryRow(`SELECT `+smsCols+smsFrom+`WHERE m.id = ?`, id))
	if err != nil {
		return m, err
	}
	return m, s.loadSMSLogs(&m)
}

func (s *Server) handleListSMS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + smsCols + smsFrom + `ORDER BY m.id DESC`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []smsMessage
	for rows.Next() {
		m, err := s.scanSMS(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("sms_type"); v != "" && m.SMSType != v {
			continue
		}
		if v := q.Get("status"); v != "" && m.Status != v {
			continue
		}
		if !matches(q.Get("search"), m.Message, m.FromNumber, m.ToNumber) {
			continue
		}
		if err := s.loadSMSLogs(&m); err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, m)
	}
	writeList(w, out)
}

func (s *Server) handleGetSMS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	m, err := s.smsByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type smsInput struct {
	Message    string `json:"message"`
	ToNumber   string `json:"to_number"`
	FromNumber string `json:"from_number"`
	CaseID     int    `json:"case_id"`
}

func (s *Server) handleCreateSMS(w http.ResponseWriter, r *http.Request) {
	var in smsInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"message": in.Message, "to_number": in.ToNumber}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO sms (sms_type, status, message, from_number, to_number, case_id, user_id, created_at, updated_at)
		 VALUES ('outbound', 'draft', ?, ?, ?, ?, ?, ?, ?)`,
		in.Message, in.FromNumber, in.ToNumber, nullableID(in.CaseID), currentUser(r).ID, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid sms payload")
		return
	}
	id, _ := res.LastInsertId()
	m, err := s.smsByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handlePatchSMS(w http.ResponseWriter, r *http.Request) {
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
		"message":     "message",
		"to_number":   "to_number",
		"from_number": "from_number",
	}
	for key, val := range fields {
		col, ok := cols[key]
		if !ok {
			continue
		}
		if _, err := s.db.Exec(`UPDATE sms SET `+col+` = ?, updated_at = ? WHERE id = ?`, val, now(), id); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid sms payload")
			return
		}
	}
	m, err := s.smsByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteSMS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM sms WHERE id = ?`, id)
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

func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	var in smsInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"message": in.Message, "to_number": in.ToNumber}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO sms (sms_type, status, message, from_number, to_number, case_id, user_id, message_id, sent_at, created_at, updated_at)
		 VALUES ('outbound', 'sent', ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Message, in.FromNumber, in.ToNumber, nullableID(in.CaseID), currentUser(r).ID,
		uuid.NewString(), ts, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid sms payload")
		return
	}
	id, _ := res.LastInsertId()
	if _, err := s.db.Exec(`INSERT INTO sms_logs (sms_id, event, timestamp) VALUES (?, 'sent', ?)`, id, ts); err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	m, err := s.smsByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "SMS sent successfully", "sms": m})
}

func (s *Server) handleRetrySMS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	m, err := s.smsByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if !m.CanRetry {
		writeDetail(w, http.StatusBadRequest, "SMS cannot be retried")
		return
	}
	ts := now()
	_, err = s.db.Exec(
		`UPDATE sms SET status = 'sent', error_message = '', retry_count = retry_count + 1,
		 sent_at = ?, updated_at = ? WHERE id = ?`, ts, ts, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "SMS queued for retry"})
}

func (s *Server) handleSMSStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		TotalSMS       int `json:"total_sms"`
		SentSMS        int `json:"sent_sms"`
		DeliveredSMS   int `json:"delivered_sms"`
		FailedSMS      int `json:"failed_sms"`
		UndeliveredSMS int `json:"undelivered_sms"`
	}{}
	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COUNT(CASE WHEN status = 'sent' THEN 1 END),
			COUNT(CASE WHEN status = 'delivered' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END),
			COUNT(CASE WHEN status = 'undelivered' THEN 1 END)
		 FROM sms`).
		Scan(&stats.TotalSMS, &stats.SentSMS, &stats.DeliveredSMS, &stats.FailedSMS, &stats.UndeliveredSMS)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
