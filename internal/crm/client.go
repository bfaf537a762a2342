package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL points at a local development backend. Deployments
// override it through the host server's environment (CONSOLE_API_URL).
const DefaultBaseURL = "http://localhost:8000/api"

// Client is the typed CRM API client. One service per backend resource;
// every method builds a path, delegates to the request wrapper and decodes
// the response. The token store is injected, never ambient.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	Auth      *AuthService
	Users     *UsersService
	Companies *CompaniesService
	Contacts  *ContactsService
	Cases     *CasesService
	Emails    *EmailsService
	SMS       *SMSService
	Meetings  *MeetingsService
	Tasks     *TasksService
	Documents *DocumentsService
	Configs   *ConfigsService
}

// New creates a client for the backend at baseURL. A nil tokens store
// falls back to an in-memory one.
func New(baseURL string, tokens TokenStore) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tokens == nil {
		tokens = &MemTokenStore{}
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UsersService{c: c}
	c.Companies = &CompaniesService{c: c}
	c.Contacts = &ContactsService{c: c}
	c.Cases = &CasesService{c: c}
	c.Emails = &EmailsService{c: c}
	c.SMS = &SMSService{c: c}
	c.Meetings = &MeetingsService{c: c}
	c.Tasks = &TasksService{c: c}
	c.Documents = &DocumentsService{c: c}
	c.Configs = &ConfigsService{c: c}
	return c
}

// Tokens exposes the injected store; the session layer persists and
// clears credentials through it.
func (c *Client) Tokens() TokenStore { return c.tokens }

// do performs one JSON API call. body, when non-nil, is marshaled as the
// JSON request body; out, when non-nil, receives the decoded response.
// Each call is fire-and-wait-once: no retry, no implicit timeout beyond
// ctx.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

// doMultipart performs an upload. The multipart writer supplies the
// content type with its boundary; no JSON header is set.
func (c *Client) doMultipart(ctx context.Context, method, path string, form *MultipartForm, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range form.Fields {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, raw)
	}

	// Non-JSON and empty success bodies are not surfaced to callers; the
	// typed result keeps its zero value.
	if out == nil || len(raw) == 0 {
		return nil
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// MultipartForm is the body of an upload request.
type MultipartForm struct {
	Fields map[string]string
	Files  []MultipartFile
}

// MultipartFile is one file part of a MultipartForm.
type MultipartFile struct {
	Field string
	Name  string
	Data  []byte
}

// queryPath appends encoded values to path when any are set.
func queryPath(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// setIf adds a string param only when it has a value. Unset filters never
// reach the query string.
func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// setIfInt adds a numeric param only when non-zero. Server ids start at 1,
// so zero always means "not set".
func setIfInt(q url.Values, key string, value int) {
	if value != 0 {
		q.Set(key, fmt.Sprintf("%d", value))
	}
}

// setIfBool adds a boolean param only when explicitly set; false is a
// meaningful filter value, so the field is a pointer.
func setIfBool(q url.Values, key string, value *bool) {
	if value != nil {
		q.Set(key, fmt.Sprintf("%t", *value))
	}
}

// Bool gives a *bool literal for filter options.
func Bool(v bool) *bool { return &v }
