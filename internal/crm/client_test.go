package crm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, &MemTokenStore{}), srv
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "401 overrides body",
			status: http.StatusUnauthorized,
			body:   `{"detail":"token expired"}`,
			want:   "Authentication required. Please log in again.",
		},
		{
			name:   "403",
			status: http.StatusForbidden,
			body:   `{}`,
			want:   "You don't have permission to perform this action.",
		},
		{
			name:   "404",
			status: http.StatusNotFound,
			body:   `{"detail":"Not found."}`,
			want:   "The requested resource was not found.",
		},
		{
			name:   "422",
			status: http.StatusUnprocessableEntity,
			body:   `{"title":["This field is required."]}`,
			want:   "Invalid data provided. Please check your input.",
		},
		{
			name:   "500",
			status: http.StatusInternalServerError,
			body:   "",
			want:   "Server error. Please try again later.",
		},
		{
			name:   "503",
			status: http.StatusServiceUnavailable,
			body:   "",
			want:   "Service temporarily unavailable. Please try again later.",
		},
		{
			name:   "detail field",
			status: http.StatusBadRequest,
			body:   `{"detail":"case is already closed"}`,
			want:   "case is already closed",
		},
		{
			name:   "message field",
			status: http.StatusBadRequest,
			body:   `{"message":"cannot reassign"}`,
			want:   "cannot reassign",
		},
		{
			name:   "field errors flattened",
			status: http.StatusBadRequest,
			body:   `{"email":["Enter a valid email address.","This field is required."],"name":["This field is required."]}`,
			want:   "email: Enter a valid email address., This field is required.; name: This field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := c.Companies.Get(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Message != tt.want {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.want)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestUnauthorizedMessageOnEveryEndpoint(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	calls := []func() error{
		func() error { _, err := c.Cases.List(ctx, CaseListOptions{}); return err },
		func() error { _, err := c.Contacts.Get(ctx, 7); return err },
		func() error { _, err := c.Tasks.List(ctx, TaskListOptions{}); return err },
		func() error { _, err := c.Meetings.Today(ctx); return err },
		func() error { err := c.Emails.Sync(ctx); return err },
	}
	for i, call := range calls {
		err := call()
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("call %d: expected *APIError, got %v", i, err)
		}
		if got, want := apiErr.Message, "Authentication required. Please log in again."; got != want {
			t.Errorf("call %d: message = %q, want %q", i, got, want)
		}
	}
}

func TestNetworkErrorIsDistinguished(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, &MemTokenStore{})
	_, err := c.Users.Me(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestBearerTokenAttachment(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, _ = c.Users.Me(context.Background())
	if gotAuth != "" {
		t.Errorf("no token stored but Authorization = %q", gotAuth)
	}

	c.Tokens().SetAccessToken("tok-123")
	_, _ = c.Users.Me(context.Background())
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestJSONContentTypeOnJSONBodies(t *testing.T) {
	var gotCT string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	_, err := c.Companies.Create(context.Background(), CompanyData{})
	if err != nil {
		t.Fatal(err)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotCT)
	}
}

func TestMultipartOmitsJSONContentType(t *testing.T) {
	var gotCT string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"report"}`))
	}))
	defer srv.Close()

	_, err := c.Documents.Upload(context.Background(), "report", "report.pdf", []byte("%PDF"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(gotCT, "application/json") {
		t.Errorf("multipart request carried JSON content type: %q", gotCT)
	}
	if !strings.HasPrefix(gotCT, "multipart/form-data; boundary=") {
		t.Errorf("Content-Type = %q, want multipart/form-data with boundary", gotCT)
	}
}

func TestEmptyAndNonJSONSuccessBodies(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty body", "application/json", ""},
		{"non-JSON body", "text/plain", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			company, err := c.Companies.Get(context.Background(), 3)
			if err != nil {
				t.Fatal(err)
			}
			if company.ID != 0 {
				t.Errorf("expected zero value result, got %+v", company)
			}
		})
	}
}

func TestListQueryOmitsUnsetFilters(t *testing.T) {
	var gotQuery string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer srv.Close()

	ctx := context.Background()

	_, err := c.Contacts.List(ctx, ContactListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "" {
		t.Errorf("empty options produced query %q", gotQuery)
	}

	_, err = c.Contacts.List(ctx, ContactListOptions{Search: "smith", IsCustomer: Bool(false)})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotQuery, "is_customer=false") {
		t.Errorf("explicit false filter missing from query %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "search=smith") {
		t.Errorf("search filter missing from query %q", gotQuery)
	}
	if strings.Contains(gotQuery, "company=") {
		t.Errorf("unset company filter leaked into query %q", gotQuery)
	}

	_, err = c.Cases.List(ctx, CaseListOptions{Status: "open", AssignedTo: 4})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "assigned_to=4&status=open" {
		t.Errorf("query = %q, want assigned_to=4&status=open", gotQuery)
	}
}

func TestFixedVerbsPerResource(t *testing.T) {
	type call struct {
		invoke     func(c *Client) error
		method     string
		pathPrefix string
	}
	ctx := context.Background()
	calls := []call{
		{func(c *Client) error {
			_, err := c.Companies.Update(ctx, 5, CompanyData{})
			return err
		}, http.MethodPatch, "/companies/5/"},
		{func(c *Client) error {
			_, err := c.Contacts.Update(ctx, 5, ContactData{})
			return err
		}, http.MethodPut, "/contacts/5/"},
		{func(c *Client) error {
			_, err := c.Cases.Update(ctx, 5, UpdateCaseData{})
			return err
		}, http.MethodPut, "/cases/5/"},
		{func(c *Client) error {
			_, err := c.Meetings.Update(ctx, 5, MeetingData{})
			return err
		}, http.MethodPut, "/meetings/5/"},
		{func(c *Client) error {
			_, err := c.Tasks.Update(ctx, 5, UpdateTaskData{})
			return err
		}, http.MethodPatch, "/tasks/5/"},
		{func(c *Client) error {
			_, err := c.Cases.Assign(ctx, 5, 2, "")
			return err
		}, http.MethodPost, "/cases/5/assign/"},
		{func(c *Client) error {
			_, err := c.Cases.UpdateStatus(ctx, 5, "resolved", "")
			return err
		}, http.MethodPost, "/cases/5/update_status/"},
	}

	for _, tt := range calls {
		var gotMethod, gotPath string
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		if err := tt.invoke(c); err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.pathPrefix, err)
		}
		srv.Close()
		if gotMethod != tt.method {
			t.Errorf("%s: method = %s, want %s", tt.pathPrefix, gotMethod, tt.method)
		}
		if gotPath != tt.pathPrefix {
			t.Errorf("path = %s, want %s", gotPath, tt.pathPrefix)
		}
	}
}
