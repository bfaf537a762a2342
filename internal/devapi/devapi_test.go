package devapi

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mintcrm/console/internal/crm"
)

// newTestClient runs the dev backend on a throwaway database and
// returns a client logged in as the seeded admin.
func newTestClient(t *testing.T) *crm.Client {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Seed(db); err != nil {
		t.Fatalf("seed database: %v", err)
	}

	srv := httptest.NewServer(New(db, "test-secret").Handler())
	t.Cleanup(srv.Close)

	client := crm.New(srv.URL, &crm.MemTokenStore{})
	pair, err := client.Auth.ObtainToken(context.Background(), "admin@mint.local", "admin123")
	if err != nil {
		t.Fatalf("obtain token: %v", err)
	}
	client.Tokens().SetAccessToken(pair.Access)
	client.Tokens().SetRefreshToken(pair.Refresh)
	return client
}

func TestLoginRejectsBadPassword(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := Seed(db); err != nil {
		t.Fatalf("seed database: %v", err)
	}
	srv := httptest.NewServer(New(db, "test-secret").Handler())
	defer srv.Close()

	client := crm.New(srv.URL, &crm.MemTokenStore{})
	if _, err := client.Auth.ObtainToken(context.Background(), "admin@mint.local", "wrong"); err == nil {
		t.Fatal("expected error for bad password")
	}
}

func TestSessionLoginAndMe(t *testing.T) {
	client := newTestClient(t)

	me, err := client.Users.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "admin@mint.local" {
		t.Fatalf("me.Email = %q", me.Email)
	}
	if me.Role != "admin" {
		t.Fatalf("me.Role = %q", me.Role)
	}
}

func TestTokenRefresh(t *testing.T) {
	client := newTestClient(t)

	access, err := client.Auth.RefreshToken(context.Background(), client.Tokens().RefreshToken())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatal("refresh returned empty access token")
	}

	if _, err := client.Auth.RefreshToken(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected error for garbage refresh token")
	}
}

func TestCompanyPatchMergesPartially(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	name := "Globex"
	industry := "Manufacturing"
	created, err := client.Companies.Create(ctx, crm.CompanyData{Name: &name, Industry: &industry})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	city := "Rotterdam"
	updated, err := client.Companies.Update(ctx, created.ID, crm.CompanyData{City: &city})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}

	if updated.City != "Rotterdam" {
		t.Errorf("City = %q, want Rotterdam", updated.City)
	}
	if updated.Name != "Globex" {
		t.Errorf("Name = %q; patch must not clear untouched fields", updated.Name)
	}
	if updated.Industry != "Manufacturing" {
		t.Errorf("Industry = %q; patch must not clear untouched fields", updated.Industry)
	}
}

func TestContactPutReplacesFully(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Contacts.Create(ctx, crm.ContactData{
		FirstName: "Nora",
		LastName:  "Brand",
		Email:     "nora@example.com",
		JobTitle:  "Buyer",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// PUT omitting job_title clears it.
	updated, err := client.Contacts.Update(ctx, created.ID, crm.ContactData{
		FirstName: "Nora",
		LastName:  "Brand-Visser",
		Email:     "nora@example.com",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if updated.LastName != "Brand-Visser" {
		t.Errorf("LastName = %q", updated.LastName)
	}
	if updated.JobTitle != "" {
		t.Errorf("JobTitle = %q, want cleared by full replace", updated.JobTitle)
	}
}

func TestContactRequiresName(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Contacts.Create(context.Background(), crm.ContactData{Email: "x@example.com"})
	if err == nil {
		t.Fatal("expected validation error for missing names")
	}
}

func TestCaseActionsReturnNotifications(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Cases.Create(ctx, crm.CreateCaseData{
		Title:    "Printer on fire",
		Customer: 1,
		Priority: "low",
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	if created.CaseNumber == "" {
		t.Fatal("case number not assigned")
	}

	res, err := client.Cases.UpdateStatus(ctx, created.ID, "in_progress", "ack")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if res.Status != "in_progress" {
		t.Errorf("Status = %q", res.Status)
	}
	if res.Notifications == nil || !res.Notifications.EmailSent {
		t.Error("status action should report an email notification")
	}
}

func TestEscalateBumpsPriorityOneStep(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Cases.Create(ctx, crm.CreateCaseData{
		Title:    "Slow dashboard",
		Customer: 1,
		Priority: "medium",
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}

	res, err := client.Cases.Escalate(ctx, created.ID)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if res.Priority != "high" {
		t.Errorf("Priority after escalate = %q, want high", res.Priority)
	}

	// Escalating twice more caps at urgent.
	if _, err := client.Cases.Escalate(ctx, created.ID); err != nil {
		t.Fatalf("escalate: %v", err)
	}
	res, err = client.Cases.Escalate(ctx, created.ID)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if res.Priority != "urgent" {
		t.Errorf("Priority = %q, want urgent cap", res.Priority)
	}
}

func TestCaseResponseThread(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Cases.Create(ctx, crm.CreateCaseData{
		Title:    "Question about invoice",
		Customer: 1,
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}

	resp, err := client.Cases.CreateResponse(ctx, crm.CreateCaseResponseData{
		Case:         created.ID,
		ResponseType: "email",
		Content:      "We are looking into it.",
	})
	if err != nil {
		t.Fatalf("create response: %v", err)
	}
	if !resp.EmailSent {
		t.Error("email responses should be marked sent")
	}

	thread, err := client.Cases.Responses(ctx, created.ID)
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("thread length = %d, want 1", len(thread))
	}

	detail, err := client.Cases.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if detail.ResponseCount != 1 {
		t.Errorf("ResponseCount = %d, want 1", detail.ResponseCount)
	}
}

func TestTaskCancelIsSoftDelete(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Tasks.Create(ctx, crm.CreateTaskData{Title: "Call Eva"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.Status != crm.TaskPending {
		t.Fatalf("Status = %q, want pending default", created.Status)
	}

	cancelled, err := client.Tasks.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != crm.TaskCancelled {
		t.Errorf("Status = %q, want cancelled", cancelled.Status)
	}

	// The row survives; filtering by status still finds it.
	list, err := client.Tasks.List(ctx, crm.TaskListOptions{Status: crm.TaskCancelled})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, task := range list.Results {
		if task.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("cancelled task should remain retrievable")
	}
}

func TestEmailDraftSendLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	draft, err := client.Emails.Create(ctx, crm.EmailData{
		Subject: "Quarterly update",
		ToEmail: "eva@acme.example",
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.Status != "draft" {
		t.Fatalf("Status = %q, want draft", draft.Status)
	}

	res, err := client.Emails.SendDraft(ctx, draft.ID, crm.EmailData{
		Subject:     "Quarterly update",
		ToEmail:     "eva@acme.example",
		TextContent: "Numbers attached.",
	})
	if err != nil {
		t.Fatalf("send draft: %v", err)
	}
	if res.Email.Status != "sent" {
		t.Errorf("sent email status = %q", res.Email.Status)
	}
	if res.Email.MessageID == "" {
		t.Error("sent email should carry a message id")
	}

	// The draft record is gone.
	if _, err := client.Emails.Get(ctx, draft.ID); err == nil {
		t.Error("draft should be deleted by the send")
	}

	drafts, err := client.Emails.List(ctx, crm.EmailListOptions{Status: "draft"})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	for _, e := range drafts.Results {
		if e.ID == draft.ID {
			t.Error("consumed draft still listed")
		}
	}
}

func TestEmailRetryGate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	draft, err := client.Emails.Create(ctx, crm.EmailData{
		Subject: "Bounce me",
		ToEmail: "gone@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A draft is not failed, so retry must refuse.
	if err := client.Emails.Retry(ctx, draft.ID); err == nil {
		t.Fatal("retry of a non-failed email should error")
	}
}

func TestEmailStats(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Emails.Send(ctx, crm.EmailData{
		Subject: "Ping",
		ToEmail: "eva@acme.example",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	stats, err := client.Emails.Stats(ctx, 30)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEmails < 1 || stats.SentEmails < 1 {
		t.Errorf("stats = %+v, want at least one sent", stats)
	}
}

func TestSMSSendAndStats(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	res, err := client.SMS.Send(ctx, crm.SMSData{
		Message:  "Your case was updated",
		ToNumber: "+31612345678",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.SMS.Status != "sent" {
		t.Errorf("Status = %q", res.SMS.Status)
	}

	stats, err := client.SMS.Stats(ctx, 30)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.SentSMS < 1 {
		t.Errorf("SentSMS = %d, want >= 1", stats.SentSMS)
	}
}

func TestMeetingBucketsAndActions(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.Meetings.Create(ctx, crm.MeetingData{
		Title:       "Roadmap review",
		MeetingType: "internal",
		StartTime:   "2031-01-15T10:00:00Z",
		EndTime:     "2031-01-15T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	if created.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60", created.DurationMinutes)
	}
	if !created.IsUpcoming {
		t.Error("future meeting should be upcoming")
	}

	upcoming, err := client.Meetings.Upcoming(ctx)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	found := false
	for _, m := range upcoming {
		if m.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("meeting missing from upcoming bucket")
	}

	joined, err := client.Meetings.Join(ctx, created.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined.Attendees) != 1 {
		t.Fatalf("attendees = %d, want 1", len(joined.Attendees))
	}

	cancelled, err := client.Meetings.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("Status = %q", cancelled.Status)
	}

	// Cancelled meetings drop out of the upcoming bucket.
	upcoming, err = client.Meetings.Upcoming(ctx)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	for _, m := range upcoming {
		if m.ID == created.ID {
			t.Error("cancelled meeting still listed as upcoming")
		}
	}
}

func TestUserRoleChangeNeedsAdmin(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	agent, err := client.Users.Signup(ctx, crm.SignupData{
		FirstName:       "Tim",
		LastName:        "Berg",
		Email:           "tim@mint.local",
		Password:        "s3cret123",
		PasswordConfirm: "s3cret123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if agent.Role != "agent" {
		t.Fatalf("default role = %q, want agent", agent.Role)
	}

	// Admin may promote.
	role := "manager"
	promoted, err := client.Users.Update(ctx, agent.ID, crm.UpdateUserData{Role: &role})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != "manager" {
		t.Errorf("Role = %q", promoted.Role)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := Seed(db); err != nil {
		t.Fatalf("seed database: %v", err)
	}
	srv := httptest.NewServer(New(db, "test-secret").Handler())
	defer srv.Close()

	client := crm.New(srv.URL, &crm.MemTokenStore{})
	if _, err := client.Companies.List(context.Background(), crm.CompanyListOptions{}); err == nil {
		t.Fatal("expected authentication error without a token")
	}
}

func TestConfigLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	cfg, err := client.Configs.CreateEmail(ctx, crm.EmailConfigData{
		Provider:     "smtp",
		EmailAddress: "support@mint.local",
		SMTPHost:     "smtp.mint.local",
		SMTPPort:     587,
		SMTPUsername: "support",
		SMTPPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if cfg.IsVerified {
		t.Error("new config should start unverified")
	}

	res, err := client.Configs.TestEmail(ctx, cfg.ID, "both")
	if err != nil {
		t.Fatalf("test config: %v", err)
	}
	if res.Message == "" {
		t.Error("test result missing message")
	}

	if err := client.Configs.VerifyEmail(ctx, cfg.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	got, err := client.Configs.GetEmail(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsVerified {
		t.Error("config should be verified")
	}

	providers, err := client.Configs.EmailProviders(ctx)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(providers) == 0 {
		t.Error("no provider presets returned")
	}
}
