package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Email life cycle: draft → queued/sent is one way. A draft that gets
// sent is deleted and replaced by a fresh sent record (see SendDraft).
type Email struct {
	ID           int               `json:"id"`
	EmailType    string            `json:"email_type"` // inbound, outbound, system
	Status       string            `json:"status"`     // draft, queued, sent, delivered, failed, bounced
	Subject      string            `json:"subject"`
	FromEmail    string            `json:"from_email"`
	ToEmail      string            `json:"to_email"`
	CCEmails     string            `json:"cc_emails"`
	BCCEmails    string            `json:"bcc_emails"`
	HTMLContent  string            `json:"html_content"`
	TextContent  string            `json:"text_content"`
	Case         string            `json:"case,omitempty"`
	User         *UserRef          `json:"user,omitempty"`
	MessageID    string            `json:"message_id"`
	ThreadID     string            `json:"thread_id"`
	SentAt       string            `json:"sent_at,omitempty"`
	DeliveredAt  string            `json:"delivered_at,omitempty"`
	ErrorMessage string            `json:"error_message"`
	RetryCount   int               `json:"retry_count"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Attachments  []EmailAttachment `json:"attachments"`
	Logs         []EmailLog        `json:"logs"`
	IsSent       bool              `json:"is_sent"`
	IsFailed     bool              `json:"is_failed"`
	CanRetry     bool              `json:"can_retry"`
}

type EmailAttachment struct {
	ID          int    `json:"id"`
	File        string `json:"file"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	CreatedAt   string `json:"created_at"`
}

type EmailLog struct {
	ID        int    `json:"id"`
	Email     int    `json:"email"`
	Event     string `json:"event"` // sent, delivered, opened, clicked, bounced
	Timestamp string `json:"timestamp"`
}

type EmailListOptions struct {
	EmailType string
	Status    string
	Search    string
	Ordering  string
	Page      int
	PageSize  int
}

// EmailData creates a draft (POST) or rewrites one (PUT).
type EmailData struct {
	Subject     string `json:"subject"`
	ToEmail     string `json:"to_email"`
	FromEmail   string `json:"from_email,omitempty"`
	CCEmails    string `json:"cc_emails,omitempty"`
	BCCEmails   string `json:"bcc_emails,omitempty"`
	HTMLContent string `json:"html_content,omitempty"`
	TextContent string `json:"text_content,omitempty"`
	CaseID      int    `json:"case_id,omitempty"`
}

// SendResult wraps action responses that carry a server message next to
// the affected email.
type SendResult struct {
	Message string `json:"message"`
	Email   Email  `json:"email"`
}

type EmailStats struct {
	TotalEmails     int `json:"total_emails"`
	SentEmails      int `json:"sent_emails"`
	DeliveredEmails int `json:"delivered_emails"`
	FailedEmails    int `json:"failed_emails"`
	BouncedEmails   int `json:"bounced_emails"`
}

type EmailsService struct {
	c *Client
}

func (s *EmailsService) List(ctx context.Context, opts EmailListOptions) (*ListResult[Email], error) {
	q := url.Values{}
	setIf(q, "email_type", opts.EmailType)
	setIf(q, "status", opts.Status)
	setIf(q, "search", opts.Search)
	setIf(q, "ordering", opts.Ordering)
	setIfInt(q, "page", opts.Page)
	setIfInt(q, "page_size", opts.PageSize)

	var out ListResult[Email]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/emails/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EmailsService) Get(ctx context.Context, id int) (*Email, error) {
	var out Email
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/emails/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create persists a draft without transmitting anything.
func (s *EmailsService) Create(ctx context.Context, data EmailData) (*Email, error) {
	var out Email
	if err := s.c.do(ctx, http.MethodPost, "/emails/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update rewrites a draft in full (PUT).
func (s *EmailsService) Update(ctx context.Context, id int, data EmailData) (*Email, error) {
	var out Email
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/emails/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch flips individual flags (read, starred, archived) on an email.
func (s *EmailsService) Patch(ctx context.Context, id int, fields map[string]any) (*Email, error) {
	var out Email
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/emails/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EmailsService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/emails/%d/", id), nil, nil)
}

// Send transmits a new email immediately; this is distinct from creating
// a draft.
func (s *EmailsService) Send(ctx context.Context, data EmailData) (*SendResult, error) {
	var out SendResult
	if err := s.c.do(ctx, http.MethodPost, "/emails/send_email/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendDraft sends an existing draft: the draft record is deleted first
// and the send produces a new outbound email. The draft id never comes
// back in draft listings afterwards.
func (s *EmailsService) SendDraft(ctx context.Context, draftID int, data EmailData) (*SendResult, error) {
	if err := s.Delete(ctx, draftID); err != nil {
		return nil, err
	}
	return s.Send(ctx, data)
}

type ReplyData struct {
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	HTMLContent string `json:"html_content,omitempty"`
	CCEmails    string `json:"cc_emails,omitempty"`
	BCCEmails   string `json:"bcc_emails,omitempty"`
}

func (s *EmailsService) Reply(ctx context.Context, id int, data ReplyData) (*SendResult, error) {
	var out SendResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/emails/%d/reply/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ForwardData struct {
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Message   string `json:"message,omitempty"`
	CCEmails  string `json:"cc_emails,omitempty"`
	BCCEmails string `json:"bcc_emails,omitempty"`
}

func (s *EmailsService) Forward(ctx context.Context, id int, data ForwardData) (*SendResult, error) {
	var out SendResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/emails/%d/forward/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCase opens a support case from an inbound email.
func (s *EmailsService) CreateCase(ctx context.Context, id int, data CreateCaseData) (*Case, error) {
	var out struct {
		Message string `json:"message"`
		Case    Case   `json:"case"`
	}
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/emails/%d/create_case/", id), data, &out); err != nil {
		return nil, err
	}
	return &out.Case, nil
}

func (s *EmailsService) Retry(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodPost, fmt.Sprintf("/emails/%d/retry/", id), nil, nil)
}

// Sync pulls new mail for the authenticated user's configured mailbox.
func (s *EmailsService) Sync(ctx context.Context) error {
	return s.c.do(ctx, http.MethodPost, "/emails/sync/", nil, nil)
}

func (s *EmailsService) Stats(ctx context.Context, days int) (*EmailStats, error) {
	q := url.Values{}
	setIfInt(q, "days", days)
	var out EmailStats
	if err := s.c.do(ctx, http.MethodGet, queryPath("/emails/stats/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAttachment attaches a file to a draft.
func (s *EmailsService) UploadAttachment(ctx context.Context, emailID int, filename string, data []byte) (*EmailAttachment, error) {
	form := &MultipartForm{
		Fields: map[string]string{"email": fmt.Sprintf("%d", emailID)},
		Files:  []MultipartFile{{Field: "file", Name: filename, Data: data}},
	}
	var out EmailAttachment
	if err := s.c.doMultipart(ctx, http.MethodPost, "/email-attachments/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EmailsService) Attachments(ctx context.Context, emailID int) (*ListResult[EmailAttachment], error) {
	var out ListResult[EmailAttachment]
	path := fmt.Sprintf("/email-attachments/?email=%d", emailID)
	if err := s.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EmailsService) DeleteAttachment(ctx context.Context, attachmentID int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/email-attachments/%d/", attachmentID), nil, nil)
}
