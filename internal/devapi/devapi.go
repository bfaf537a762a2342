// Package devapi is a development stand-in for the Mint CRM backend. It
// speaks the same REST dialect (paths, verbs, DRF-style error bodies) so
// the console can be developed and tested without the production API.
package devapi

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Server serves the emulated CRM API.
type Server struct {
	db        *sql.DB
	jwtSecret []byte
}

func New(db *sql.DB, jwtSecret string) *Server {
	return &Server{db: db, jwtSecret: []byte(jwtSecret)}
}

// Handler returns the API routes. Everything except the token and signup
// endpoints requires a bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token/", s.handleToken)
	mux.HandleFunc("POST /token/refresh/", s.handleTokenRefresh)
	mux.HandleFunc("POST /users/signup/", s.handleSignup)

	api := http.NewServeMux()
	api.HandleFunc("GET /users/", s.handleListUsers)
	api.HandleFunc("GET /users/me/", s.handleMe)
	api.HandleFunc("PATCH /users/{id}/", s.handleUpdateUser)
	api.HandleFunc("DELETE /users/{id}/", s.handleDeleteUser)

	api.HandleFunc("GET /companies/", s.handleListCompanies)
	api.HandleFunc("POST /companies/", s.handleCreateCompany)
	api.HandleFunc("GET /companies/{id}/", s.handleGetCompany)
	api.HandleFunc("PATCH /companies/{id}/", s.handlePatchCompany)
	api.HandleFunc("DELETE /companies/{id}/", s.handleDeleteCompany)

	api.HandleFunc("GET /contacts/", s.handleListContacts)
	api.HandleFunc("POST /contacts/", s.handleCreateContact)
	api.HandleFunc("GET /contacts/{id}/", s.handleGetContact)
	api.HandleFunc("PUT /contacts/{id}/", s.handlePutContact)
	api.HandleFunc("DELETE /contacts/{id}/", s.handleDeleteContact)

	api.HandleFunc("GET /cases/", s.handleListCases)
	api.HandleFunc("POST /cases/", s.handleCreateCase)
	api.HandleFunc("GET /cases/{id}/", s.handleGetCase)
	api.HandleFunc("PUT /cases/{id}/", s.handlePutCase)
	api.HandleFunc("DELETE /cases/{id}/", s.handleDeleteCase)
	api.HandleFunc("POST /cases/{id}/assign/", s.handleAssignCase)
	api.HandleFunc("POST /cases/{id}/update_priority/", s.handleCasePriority)
	api.HandleFunc("POST /cases/{id}/update_status/", s.handleCaseStatus)
	api.HandleFunc("POST /cases/{id}/escalate/", s.handleEscalateCase)
	api.HandleFunc("GET /case-responses/", s.handleListCaseResponses)
	api.HandleFunc("POST /case-responses/", s.handleCreateCaseResponse)
	api.HandleFunc("POST /case-attachments/", s.handleCreateCaseAttachment)

	api.HandleFunc("GET /emails/", s.handleListEmails)
	api.HandleFunc("POST /emails/", s.handleCreateEmail)
	api.HandleFunc("GET /emails/{id}/", s.handleGetEmail)
	api.HandleFunc("PUT /emails/{id}/", s.handlePutEmail)
	api.HandleFunc("PATCH /emails/{id}/", s.handlePatchEmail)
	api.HandleFunc("DELETE /emails/{id}/", s.handleDeleteEmail)
	api.HandleFunc("POST /emails/send_email/{$}", s.handleSendEmail)
	api.HandleFunc("POST /emails/{id}/reply/", s.handleReplyEmail)
	api.HandleFunc("POST /emails/{id}/forward/", s.handleForwardEmail)
	api.HandleFunc("POST /emails/{id}/create_case/", s.handleEmailCreateCase)
	api.HandleFunc("POST /emails/{id}/retry/", s.handleRetryEmail)
	api.HandleFunc("POST /emails/sync/{$}", s.handleSyncEmails)
	api.HandleFunc("GET /emails/stats/", s.handleEmailStats)
	api.HandleFunc("GET /email-attachments/", s.handleListEmailAttachments)
	api.HandleFunc("POST /email-attachments/", s.handleCreateEmailAttachment)
	api.HandleFunc("DELETE /email-attachments/{id}/", s.handleDeleteEmailAttachment)

	api.HandleFunc("GET /sms/", s.handleListSMS)
	api.HandleFunc("POST /sms/", s.handleCreateSMS)
	api.HandleFunc("GET /sms/{id}/", s.handleGetSMS)
	api.HandleFunc("PATCH /sms/{id}/", s.handlePatchSMS)
	api.HandleFunc("DELETE /sms/{id}/", s.handleDeleteSMS)
	api.HandleFunc("POST /sms/send_sms/{$}", s.handleSendSMS)
	api.HandleFunc("POST /sms/{id}/retry/", s.handleRetrySMS)
	api.HandleFunc("GET /sms/stats/", s.handleSMSStats)

	api.HandleFunc("GET /meetings/", s.handleListMeetings)
	api.HandleFunc("POST /meetings/", s.handleCreateMeeting)
	api.HandleFunc("GET /meetings/{id}/", s.handleGetMeeting)
	api.HandleFunc("PUT /meetings/{id}/", s.handlePutMeeting)
	api.HandleFunc("DELETE /meetings/{id}/", s.handleDeleteMeeting)
	api.HandleFunc("GET /meetings/today/", s.handleMeetingsToday)
	api.HandleFunc("GET /meetings/upcoming/", s.handleMeetingsUpcoming)
	api.HandleFunc("GET /meetings/past/", s.handleMeetingsPast)
	api.HandleFunc("POST /meetings/{id}/join/", s.meetingAction("join"))
	api.HandleFunc("POST /meetings/{id}/leave/", s.meetingAction("leave"))
	api.HandleFunc("POST /meetings/{id}/complete/", s.meetingAction("complete"))
	api.HandleFunc("POST /meetings/{id}/cancel/", s.meetingAction("cancel"))

	api.HandleFunc("GET /tasks/", s.handleListTasks)
	api.HandleFunc("POST /tasks/", s.handleCreateTask)
	api.HandleFunc("PATCH /tasks/{id}/", s.handlePatchTask)

	api.HandleFunc("GET /documents/", s.handleListDocuments)
	api.HandleFunc("POST /documents/", s.handleCreateDocument)
	api.HandleFunc("PATCH /documents/{id}/", s.handlePatchDocument)
	api.HandleFunc("DELETE /documents/{id}/", s.handleDeleteDocument)
	api.HandleFunc("GET /folders/", s.handleListFolders)
	api.HandleFunc("POST /folders/", s.handleCreateFolder)
	api.HandleFunc("PATCH /folders/{id}/", s.handlePatchFolder)
	api.HandleFunc("DELETE /folders/{id}/", s.handleDeleteFolder)

	s.registerConfigRoutes(api)

	mux.Handle("/", s.requireAuth(api))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// writeDetail writes a DRF-style {"detail": ...} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeFieldErrors writes a DRF-style field -> messages validation body.
func writeFieldErrors(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusBadRequest, errs)
}

type listEnvelope[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// writeList wraps results in the paginated envelope the real backend
// uses for every list endpoint.
func writeList[T any](w http.ResponseWriter, results []T) {
	if results == nil {
		results = []T{}
	}
	writeJSON(w, http.StatusOK, listEnvelope[T]{Count: len(results), Results: results})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return false
	}
	return true
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// matches reports whether any of the fields contains the search term,
// case-insensitively. An empty term matches everything.
func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// requireFields returns DRF-style errors for any blank required field.
func requireFields(pairs map[string]string) map[string][]string {
	errs := map[string][]string{}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(pairs[k]) == "" {
			errs[k] = []string{"This field is required."}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
