package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

// draftBackend keeps drafts in memory so the delete-then-send flow can be
// observed end to end.
type draftBackend struct {
	drafts map[int]Email
	nextID int
	sent   []Email
}

func newDraftBackend() *draftBackend {
	return &draftBackend{drafts: map[int]Email{}, nextID: 1}
}

func (b *draftBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/emails/":
		var data EmailData
		_ = json.NewDecoder(r.Body).Decode(&data)
		e := Email{ID: b.nextID, Status: "draft", EmailType: "outbound", Subject: data.Subject, ToEmail: data.ToEmail}
		b.drafts[e.ID] = e
		b.nextID++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(e)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/emails/"):
		id, _ := strconv.Atoi(strings.Trim(strings.TrimPrefix(r.URL.Path, "/emails/"), "/"))
		if _, ok := b.drafts[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		delete(b.drafts, id)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && r.URL.Path == "/emails/send_email/":
		var data EmailData
		_ = json.NewDecoder(r.Body).Decode(&data)
		e := Email{ID: b.nextID, Status: "sent", EmailType: "outbound", Subject: data.Subject, ToEmail: data.ToEmail, IsSent: true}
		b.sent = append(b.sent, e)
		b.nextID++
		_ = json.NewEncoder(w).Encode(SendResult{Message: "Email sent", Email: e})

	case r.Method == http.MethodGet && r.URL.Path == "/emails/":
		if r.URL.Query().Get("status") == "draft" {
			results := make([]Email, 0, len(b.drafts))
			for _, e := range b.drafts {
				results = append(results, e)
			}
			_ = json.NewEncoder(w).Encode(ListResult[Email]{Count: len(results), Results: results})
			return
		}
		w.WriteHeader(http.StatusBadRequest)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestSendDraftDeletesDraftThenSends(t *testing.T) {
	backend := newDraftBackend()
	c, srv := newTestClient(backend)
	defer srv.Close()
	ctx := context.Background()

	draft, err := c.Emails.Create(ctx, EmailData{Subject: "Quarterly review", ToEmail: "client@corp.test"})
	if err != nil {
		t.Fatal(err)
	}
	if draft.Status != "draft" {
		t.Fatalf("status = %q, want draft", draft.Status)
	}

	res, err := c.Emails.SendDraft(ctx, draft.ID, EmailData{Subject: "Quarterly review", ToEmail: "client@corp.test"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Email.ID == draft.ID {
		t.Error("sent email reused the draft id")
	}
	if res.Email.Status != "sent" {
		t.Errorf("sent status = %q", res.Email.Status)
	}

	drafts, err := c.Emails.List(ctx, EmailListOptions{Status: "draft"})
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range drafts.Results {
		if d.ID == draft.ID {
			t.Errorf("draft id %d reappeared in draft listing", draft.ID)
		}
	}
}

func TestSendDraftAbortsWhenDeleteFails(t *testing.T) {
	backend := newDraftBackend()
	c, srv := newTestClient(backend)
	defer srv.Close()

	_, err := c.Emails.SendDraft(context.Background(), 99, EmailData{Subject: "x", ToEmail: "y@z.test"})
	if err == nil {
		t.Fatal("expected error when the draft does not exist")
	}
	if len(backend.sent) != 0 {
		t.Errorf("send went through despite failed delete: %v", backend.sent)
	}
}

func TestEmailPatchUsesGivenFieldsOnly(t *testing.T) {
	var gotBody map[string]any
	var gotMethod string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Email{ID: 4})
	}))
	defer srv.Close()

	_, err := c.Emails.Patch(context.Background(), 4, map[string]any{"starred": true})
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if len(gotBody) != 1 || gotBody["starred"] != true {
		t.Errorf("body = %v, want only starred", gotBody)
	}
}

func TestCaseActionCarriesNotifications(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases/9/escalate/" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":9,"priority":"urgent","notifications":{"email_sent":true,"sms_sent":false}}`)
	}))
	defer srv.Close()

	res, err := c.Cases.Escalate(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if res.Priority != "urgent" {
		t.Errorf("priority = %q", res.Priority)
	}
	if res.Notifications == nil || !res.Notifications.EmailSent {
		t.Errorf("notifications = %+v", res.Notifications)
	}
}
