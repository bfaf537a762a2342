package crm

import (
	"context"
	"fmt"
	"net/http"
)

// EmailConfig is a user's outbound/inbound mailbox configuration.
type EmailConfig struct {
	ID           int    `json:"id"`
	User         *User  `json:"user,omitempty"`
	Provider     string `json:"provider"`
	EmailAddress string `json:"email_address"`
	DisplayName  string `json:"display_name"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	UseTLS       bool   `json:"use_tls"`
	UseSSL       bool   `json:"use_ssl"`
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
	IsActive     bool   `json:"is_active"`
	IsVerified   bool   `json:"is_verified"`
	LastSync     string `json:"last_sync,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type EmailConfigData struct {
	Provider     string `json:"provider"`
	EmailAddress string `json:"email_address"`
	DisplayName  string `json:"display_name,omitempty"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	UseTLS       bool   `json:"use_tls"`
	UseSSL       bool   `json:"use_ssl"`
	IMAPHost     string `json:"imap_host,omitempty"`
	IMAPPort     int    `json:"imap_port,omitempty"`
}

// SMSConfig is a user's SMS gateway configuration.
type SMSConfig struct {
	ID         int    `json:"id"`
	User       *User  `json:"user,omitempty"`
	Provider   string `json:"provider"`
	AccountSID string `json:"account_sid"`
	FromNumber string `json:"from_number"`
	WebhookURL string `json:"webhook_url"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

type SMSConfigData struct {
	Provider   string `json:"provider"`
	AccountSID string `json:"account_sid,omitempty"`
	AuthToken  string `json:"auth_token,omitempty"`
	FromNumber string `json:"from_number,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// Provider describes a known provider preset offered by the backend.
type Provider struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TestResult reports a connection test per channel (smtp, imap, sms).
type TestResult struct {
	Message string                      `json:"message"`
	Results map[string]TestChannelState `json:"results,omitempty"`
}

type TestChannelState struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConfigsService covers /email-configs/ and /sms-configs/.
type ConfigsService struct {
	c *Client
}

func (s *ConfigsService) ListEmail(ctx context.Context) (*ListResult[EmailConfig], error) {
	var out ListResult[EmailConfig]
	if err := s.c.do(ctx, http.MethodGet, "/email-configs/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) GetEmail(ctx context.Context, id int) (*EmailConfig, error) {
	var out EmailConfig
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/email-configs/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) CreateEmail(ctx context.Context, data EmailConfigData) (*EmailConfig, error) {
	var out EmailConfig
	if err := s.c.do(ctx, http.MethodPost, "/email-configs/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) UpdateEmail(ctx context.Context, id int, fields map[string]any) (*EmailConfig, error) {
	var out EmailConfig
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/email-configs/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) DeleteEmail(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/email-configs/%d/", id), nil, nil)
}

// TestEmail runs a connection test; testType is smtp, imap or both.
func (s *ConfigsService) TestEmail(ctx context.Context, id int, testType string) (*TestResult, error) {
	body := map[string]string{"test_type": testType}
	var out TestResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/email-configs/%d/test_connection/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) VerifyEmail(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodPost, fmt.Sprintf("/email-configs/%d/verify/", id), nil, nil)
}

func (s *ConfigsService) EmailProviders(ctx context.Context) ([]Provider, error) {
	var out []Provider
	if err := s.c.do(ctx, http.MethodGet, "/email-configs/providers/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ConfigsService) ListSMS(ctx context.Context) (*ListResult[SMSConfig], error) {
	var out ListResult[SMSConfig]
	if err := s.c.do(ctx, http.MethodGet, "/sms-configs/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) GetSMS(ctx context.Context, id int) (*SMSConfig, error) {
	var out SMSConfig
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/sms-configs/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) CreateSMS(ctx context.Context, data SMSConfigData) (*SMSConfig, error) {
	var out SMSConfig
	if err := s.c.do(ctx, http.MethodPost, "/sms-configs/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) UpdateSMS(ctx context.Context, id int, fields map[string]any) (*SMSConfig, error) {
	var out SMSConfig
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/sms-configs/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) DeleteSMS(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/sms-configs/%d/", id), nil, nil)
}

func (s *ConfigsService) TestSMS(ctx context.Context, id int, testNumber string) (*TestResult, error) {
	body := map[string]string{"test_number": testNumber}
	var out TestResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/sms-configs/%d/test_connection/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ConfigsService) VerifySMS(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodPost, fmt.Sprintf("/sms-configs/%d/verify/", id), nil, nil)
}

func (s *ConfigsService) SMSProviders(ctx context.Context) ([]Provider, error) {
	var out []Provider
	if err := s.c.do(ctx, http.MethodGet, "/sms-configs/providers/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
