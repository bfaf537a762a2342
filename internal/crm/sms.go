package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SMS mirrors Email with a smaller field set.
type SMS struct {
	ID           int      `json:"id"`
	SMSType      string   `json:"sms_type"` // inbound, outbound, system
	Status       string   `json:"status"`   // draft, queued, sent, delivered, failed, undelivered
	Message      string   `json:"message"`
	FromNumber   string   `json:"from_number"`
	ToNumber     string   `json:"to_number"`
	Case         string   `json:"case,omitempty"`
	User         *UserRef `json:"user,omitempty"`
	MessageID    string   `json:"message_id"`
	SentAt       string   `json:"sent_at,omitempty"`
	DeliveredAt  string   `json:"delivered_at,omitempty"`
	ErrorMessage string   `json:"error_message"`
	RetryCount   int      `json:"retry_count"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	Logs         []SMSLog `json:"logs"`
	IsSent       bool     `json:"is_sent"`
	IsFailed     bool     `json:"is_failed"`
	CanRetry     bool     `json:"can_retry"`
}

type SMSLog struct {
	ID        int    `json:"id"`
	SMS       int    `json:"sms"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

type SMSListOptions struct {
	SMSType  string
	Status   string
	Search   string
	Ordering string
	Page     int
	PageSize int
}

type SMSData struct {
	Message    string `json:"message"`
	ToNumber   string `json:"to_number"`
	FromNumber string `json:"from_number,omitempty"`
	CaseID     int    `json:"case_id,omitempty"`
	ContactID  int    `json:"contact_id,omitempty"`
}

type SMSSendResult struct {
	Message string `json:"message"`
	SMS     SMS    `json:"sms"`
}

type SMSStats struct {
	TotalSMS       int `json:"total_sms"`
	SentSMS        int `json:"sent_sms"`
	DeliveredSMS   int `json:"delivered_sms"`
	FailedSMS      int `json:"failed_sms"`
	UndeliveredSMS int `json:"undelivered_sms"`
}

type SMSService struct {
	c *Client
}

func (s *SMSService) List(ctx context.Context, opts SMSListOptions) (*ListResult[SMS], error) {
	q := url.Values{}
	setIf(q, "sms_type", opts.SMSType)
	setIf(q, "status", opts.Status)
	setIf(q, "search", opts.Search)
	setIf(q, "ordering", opts.Ordering)
	setIfInt(q, "page", opts.Page)
	setIfInt(q, "page_size", opts.PageSize)

	var out ListResult[SMS]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/sms/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SMSService) Get(ctx context.Context, id int) (*SMS, error) {
	var out SMS
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/sms/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create persists a draft.
func (s *SMSService) Create(ctx context.Context, data SMSData) (*SMS, error) {
	var out SMS
	if err := s.c.do(ctx, http.MethodPost, "/sms/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SMSService) Patch(ctx context.Context, id int, fields map[string]any) (*SMS, error) {
	var out SMS
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/sms/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SMSService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/sms/%d/", id), nil, nil)
}

// Send transmits immediately, bypassing the draft state.
func (s *SMSService) Send(ctx context.Context, data SMSData) (*SMSSendResult, error) {
	var out SMSSendResult
	if err := s.c.do(ctx, http.MethodPost, "/sms/send_sms/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SMSService) Retry(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodPost, fmt.Sprintf("/sms/%d/retry/", id), nil, nil)
}

func (s *SMSService) Stats(ctx context.Context, days int) (*SMSStats, error) {
	q := url.Values{}
	setIfInt(q, "days", days)
	var out SMSStats
	if err := s.c.do(ctx, http.MethodGet, queryPath("/sms/stats/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
