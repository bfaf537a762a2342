package devapi

import (
	"database/sql"
	"net/http"
)

type emailConfig struct {
	ID           int       `json:"id"`
	User         *authUser `json:"user,omitempty"`
	Provider     string    `json:"provider"`
	EmailAddress string    `json:"email_address"`
	DisplayName  string    `json:"display_name"`
	SMTPHost     string    `json:"smtp_host"`
	SMTPPort     int       `json:"smtp_port"`
	SMTPUsername string    `json:"smtp_username"`
	UseTLS       bool      `json:"use_tls"`
	UseSSL       bool      `json:"use_ssl"`
	IMAPHost     string    `json:"imap_host"`
	IMAPPort     int       `json:"imap_port"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    string    `json:"created_at"`
}

type smsConfig struct {
	ID         int       `json:"id"`
	User       *authUser `json:"user,omitempty"`
	Provider   string    `json:"provider"`
	AccountSID string    `json:"account_sid"`
	FromNumber string    `json:"from_number"`
	WebhookURL string    `json:"webhook_url"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  string    `json:"created_at"`
}

type providerPreset struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var emailProviders = []providerPreset{
	{Value: "smtp", Label: "Generic SMTP"},
	{Value: "gmail", Label: "Gmail"},
	{Value: "outlook", Label: "Outlook / Office 365"},
	{Value: "sendgrid", Label: "SendGrid"},
}

var smsProviders = []providerPreset{
	{Value: "twilio", Label: "Twilio"},
	{Value: "vonage", Label: "Vonage"},
	{Value: "messagebird", Label: "MessageBird"},
}

func (s *Server) registerConfigRoutes(api *http.ServeMux) {
	api.HandleFunc("GET /email-configs/", s.handleListEmailConfigs)
	api.HandleFunc("POST /email-configs/", s.handleCreateEmailConfig)
	api.HandleFunc("GET /email-configs/providers/", s.handleEmailProviders)
	api.HandleFunc("GET /email-configs/{id}/", s.handleGetEmailConfig)
	api.HandleFunc("PATCH /email-configs/{id}/", s.handlePatchEmailConfig)
	api.HandleFunc("DELETE /email-configs/{id}/", s.handleDeleteEmailConfig)
	api.HandleFunc("POST /email-configs/{id}/test_connection/", s.handleTestEmailConfig)
	api.HandleFunc("POST /email-configs/{id}/verify/", s.handleVerifyEmailConfig)

	api.HandleFunc("GET /sms-configs/", s.handleListSMSConfigs)
	api.HandleFunc("POST /sms-configs/", s.handleCreateSMSConfig)
	api.HandleFunc("GET /sms-configs/providers/", s.handleSMSProviders)
	api.HandleFunc("GET /sms-configs/{id}/", s.handleGetSMSConfig)
	api.HandleFunc("PATCH /sms-configs/{id}/", s.handlePatchSMSConfig)
	api.HandleFunc("DELETE /sms-configs/{id}/", s.handleDeleteSMSConfig)
	api.HandleFunc("POST /sms-configs/{id}/test_connection/", s.handleTestSMSConfig)
	api.HandleFunc("POST /sms-configs/{id}/verify/", s.handleVerifySMSConfig)
}

const emailConfigCols = `id, user_id, provider, email_address, display_name, smtp_host, smtp_port,
	smtp_username, use_tls, use_ssl, imap_host, imap_port, is_active, is_verified, created_at`

func (s *Server) scanEmailConfig(row interface{ Scan(...any) error }) (emailConfig, error) {
	var c emailConfig
	var userID, tls, ssl, active, verified int
	err := row.Scan(&c.ID, &userID, &c.Provider, &c.EmailAddress, &c.DisplayName, &c.SMTPHost,
		&c.SMTPPort, &c.SMTPUsername, &tls, &ssl, &c.IMAPHost, &c.IMAPPort, &active, &verified, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.UseTLS = tls != 0
	c.UseSSL = ssl != 0
	c.IsActive = active != 0
	c.IsVerified = verified != 0
	if u, err := s.userByID(userID); err == nil {
		c.User = u
	}
	return c, nil
}

// Configs are scoped to their owner; users only ever see their own.
func (s *Server) handleListEmailConfigs(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`SELECT `+emailConfigCols+` FROM email_configs WHERE user_id = ? ORDER BY id`,
		currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []emailConfig
	for rows.Next() {
		c, err := s.scanEmailConfig(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, c)
	}
	writeList(w, out)
}

func (s *Server) emailConfigByID(id int64, userID int) (emailConfig, error) {
	return s.scanEmailConfig(s.db.QueryRow(
		`SELECT `+emailConfigCols+` FROM email_configs WHERE id = ? AND user_id = ?`, id, userID))
}

func (s *Server) handleGetEmailConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.emailConfigByID(id, currentUser(r).ID)
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

type emailConfigInput struct {
	Provider     string `json:"provider"`
	EmailAddress string `json:"email_address"`
	DisplayName  string `json:"display_name"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	UseTLS       bool   `json:"use_tls"`
	UseSSL       bool   `json:"use_ssl"`
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
}

func (s *Server) handleCreateEmailConfig(w http.ResponseWriter, r *http.Request) {
	var in emailConfigInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"email_address": in.EmailAddress}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if in.Provider == "" {
		in.Provider = "smtp"
	}
	if in.SMTPPort == 0 {
		in.SMTPPort = 587
	}
	if in.IMAPPort == 0 {
		in.IMAPPort = 993
	}
	res, err := s.db.Exec(
		`INSERT INTO email_configs (user_id, provider, email_address, display_name, smtp_host, smtp_port,
		 smtp_username, smtp_password, use_tls, use_ssl, imap_host, imap_port, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		currentUser(r).ID, in.Provider, in.EmailAddress, in.DisplayName, in.SMTPHost, in.SMTPPort,
		in.SMTPUsername, in.SMTPPassword, boolInt(in.UseTLS), boolInt(in.UseSSL),
		in.IMAPHost, in.IMAPPort, now())
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid config payload")
		return
	}
	id, _ := res.LastInsertId()
	c, err := s.emailConfigByID(id, currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handlePatchEmailConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	fields := map[string]any{}
	if !decodeBody(w, r, &fields) {
		return
	}
	userID := currentUser(r).ID
	if _, err := s.emailConfigByID(id, userID); err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	cols := map[string]string{
		"provider":      "provider",
		"email_address": "email_address",
		"display_name":  "display_name",
		"smtp_host":     "smtp_host",
		"smtp_port":     "smtp_port",
		"smtp_username": "smtp_username",
		"smtp_password": "smtp_password",
		"use_tls":       "use_tls",
		"use_ssl":       "use_ssl",
		"imap_host":     "imap_host",
		"imap_port":     "imap_port",
		"is_active":     "is_active",
	}
	for key, val := range fields {
		col, ok := cols[key]
		if !ok {
			continue
		}
		if b, isBool := val.(bool); isBool {
			val = boolInt(b)
		}
		if _, err := s.db.Exec(`UPDATE email_configs SET `+col+` = ? WHERE id = ?`, val, id); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid config payload")
			return
		}
	}
	c, err := s.emailConfigByID(id, userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteEmailConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM email_configs WHERE id = ? AND user_id = ?`, id, currentUser(r).ID)
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

// handleTestEmailConfig always reports success per channel: there is no
// real SMTP or IMAP server behind the dev backend.
func (s *Server) handleTestEmailConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		TestType string `json:"test_type"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if _, err := s.emailConfigByID(id, currentUser(r).ID); err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	results := map[string]map[string]string{}
	if in.TestType == "smtp" || in.TestType == "both" || in.TestType == "" {
		results["smtp"] = map[string]string{"status": "success", "message": "SMTP connection successful"}
	}
	if in.TestType == "imap" || in.TestType == "both" {
		results["imap"] = map[string]string{"status": "success", "message": "IMAP connection successful"}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Connection test complete", "results": results})
}

func (s *Server) handleVerifyEmailConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`UPDATE email_configs SET is_verified = 1 WHERE id = ? AND user_id = ?`,
		id, currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Configuration verified"})
}

func (s *Server) handleEmailProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emailProviders)
}

func (s *Server) handleSMSProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, smsProviders)
}

const smsConfigCols = `id, user_id, provider, account_sid, from_number, webhook_url, is_active, is_verified, created_at`

func (s *Server) scanSMSConfig(row interface{ Scan(...any) error }) (smsConfig, error) {
	var c smsConfig
	var userID, active, verified int
	err := row.Scan(&c.ID, &userID, &c.Provider, &c.AccountSID, &c.FromNumber, &c.WebhookURL,
		&active, &verified, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.IsActive = active != 0
	c.IsVerified = verified != 0
	if u, err := s.userByID(userID); err == nil {
		c.User = u
	}
	return c, nil
}

func (s *Server) smsConfigByID(id int64, userID int) (smsConfig, error) {
	return s.scanSMSConfig(s.db.QueryRow(
		`SELECT `+smsConfigCols+` FROM sms_configs WHERE id = ? AND user_id = ?`, id, userID))
}

func (s *Server) handleListSMSConfigs(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`SELECT `+smsConfigCols+` FROM sms_configs WHERE user_id = ? ORDER BY id`,
		currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []smsConfig
	for rows.Next() {
		c, err := s.scanSMSConfig(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, c)
	}
	writeList(w, out)
}

func (s *Server) handleGetSMSConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.smsConfigByID(id, currentUser(r).ID)
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

func (s *Server) handleCreateSMSConfig(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Provider   string `json:"provider"`
		AccountSID string `json:"account_sid"`
		AuthToken  string `json:"auth_token"`
		FromNumber string `json:"from_number"`
		WebhookURL string `json:"webhook_url"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Provider == "" {
		in.Provider = "twilio"
	}
	res, err := s.db.Exec(
		`INSERT INTO sms_configs (user_id, provider, account_sid, auth_token, from_number, webhook_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		currentUser(r).ID, in.Provider, in.AccountSID, in.AuthToken, in.FromNumber, in.WebhookURL, now())
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid config payload")
		return
	}
	id, _ := res.LastInsertId()
	c, err := s.smsConfigByID(id, currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handlePatchSMSConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	fields := map[string]any{}
	if !decodeBody(w, r, &fields) {
		return
	}
	userID := currentUser(r).ID
	if _, err := s.smsConfigByID(id, userID); err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	cols := map[string]string{
		"provider":    "provider",
		"account_sid": "account_sid",
		"auth_token":  "auth_token",
		"from_number": "from_number",
		"webhook_url": "webhook_url",
		"is_active":   "is_active",
	}
	for key, val := range fields {
		col, ok := cols[key]
		if !ok {
			continue
		}
		if b, isBool := val.(bool); isBool {
			val = boolInt(b)
		}
		if _, err := s.db.Exec(`UPDATE sms_configs SET `+col+` = ? WHERE id = ?`, val, id); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid config payload")
			return
		}
	}
	c, err := s.smsConfigByID(id, userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteSMSConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM sms_configs WHERE id = ? AND user_id = ?`, id, currentUser(r).ID)
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

func (s *Server) handleTestSMSConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		TestNumber string `json:"test_number"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if _, err := s.smsConfigByID(id, currentUser(r).ID); err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Connection test complete",
		"results": map[string]map[string]string{
			"sms": {"status": "success", "message": "Test message sent to " + in.TestNumber},
		},
	})
}

func (s *Server) handleVerifySMSConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`UPDATE sms_configs SET is_verified = 1 WHERE id = ? AND user_id = ?`,
		id, currentUser(r).ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Configuration verified"})
}
