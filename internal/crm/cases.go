package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Case is a support case. The derived flags (IsOverdue, SLABreach,
// PriorityScore) are computed server-side; this client never recomputes
// them.
type Case struct {
	ID            int              `json:"id"`
	CaseNumber    string           `json:"case_number"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Priority      string           `json:"priority"`
	Status        string           `json:"status"`
	Source        string           `json:"source"`
	Customer      string           `json:"customer"`
	Company       string           `json:"company,omitempty"`
	AssignedTo    *UserRef         `json:"assigned_to,omitempty"`
	CreatedBy     UserRef          `json:"created_by"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
	ResolvedAt    string           `json:"resolved_at,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	SLAHours      int              `json:"sla_hours"`
	Tags          []string         `json:"tags"`
	Responses     []CaseResponse   `json:"responses"`
	Attachments   []CaseAttachment `json:"attachments"`
	IsOverdue     bool             `json:"is_overdue"`
	PriorityScore int              `json:"priority_score"`
	SLABreach     bool             `json:"sla_breach"`
	ResponseCount int              `json:"response_count"`
}

// CaseResponse is one entry of a case's owned response thread, appended
// through /case-responses/.
type CaseResponse struct {
	ID           int              `json:"id"`
	Case         int              `json:"case"`
	Author       UserRef          `json:"author"`
	ResponseType string           `json:"response_type"`
	Content      string           `json:"content"`
	IsInternal   bool             `json:"is_internal"`
	EmailSent    bool             `json:"email_sent"`
	CreatedAt    string           `json:"created_at"`
	Attachments  []CaseAttachment `json:"attachments"`
}

type CaseAttachment struct {
	ID         int     `json:"id"`
	File       string  `json:"file"`
	Filename   string  `json:"filename"`
	FileSize   int64   `json:"file_size"`
	MimeType   string  `json:"mime_type"`
	UploadedBy UserRef `json:"uploaded_by"`
	UploadedAt string  `json:"uploaded_at"`
}

// Notifications reports the side effects a case action triggered.
type Notifications struct {
	EmailSent bool `json:"email_sent"`
	SMSSent   bool `json:"sms_sent"`
}

// CaseActionResult is a case action response: the updated case plus the
// notifications the server dispatched for it.
type CaseActionResult struct {
	Case
	Notifications *Notifications `json:"notifications,omitempty"`
}

type CaseListOptions struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo int
	Search     string
	Ordering   string
}

type CreateCaseData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Source      string   `json:"source,omitempty"`
	Customer    int      `json:"customer"`
	Company     int      `json:"company,omitempty"`
	AssignedTo  int      `json:"assigned_to,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	SLAHours    int      `json:"sla_hours,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateCaseData is the PUT payload; like contacts, case updates replace
// the resource.
type UpdateCaseData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Source      string   `json:"source,omitempty"`
	AssignedTo  int      `json:"assigned_to,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	SLAHours    int      `json:"sla_hours,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CasesService struct {
	c *Client
}

func (s *CasesService) List(ctx context.Context, opts CaseListOptions) (*ListResult[Case], error) {
	q := url.Values{}
	setIf(q, "status", opts.Status)
	setIf(q, "priority", opts.Priority)
	setIf(q, "category", opts.Category)
	setIfInt(q, "assigned_to", opts.AssignedTo)
	setIf(q, "search", opts.Search)
	setIf(q, "ordering", opts.Ordering)

	var out ListResult[Case]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/cases/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) Get(ctx context.Context, id int) (*Case, error) {
	var out Case
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/cases/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) Create(ctx context.Context, data CreateCaseData) (*Case, error) {
	var out Case
	if err := s.c.do(ctx, http.MethodPost, "/cases/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) Update(ctx context.Context, id int, data UpdateCaseData) (*Case, error) {
	var out Case
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/cases/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/cases/%d/", id), nil, nil)
}

// Case actions are dedicated POST sub-resources rather than PATCHes
// because each one has server-side side effects (notifications) returned
// with the updated case.

func (s *CasesService) Assign(ctx context.Context, id, assignedTo int, reason string) (*CaseActionResult, error) {
	body := map[string]any{"assigned_to": assignedTo}
	if reason != "" {
		body["reason"] = reason
	}
	var out CaseActionResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/cases/%d/assign/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) UpdatePriority(ctx context.Context, id int, priority, reason string) (*CaseActionResult, error) {
	body := map[string]any{"priority": priority}
	if reason != "" {
		body["reason"] = reason
	}
	var out CaseActionResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/cases/%d/update_priority/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) UpdateStatus(ctx context.Context, id int, status, note string) (*CaseActionResult, error) {
	body := map[string]any{"status": status}
	if note != "" {
		body["note"] = note
	}
	var out CaseActionResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/cases/%d/update_status/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CasesService) Escalate(ctx context.Context, id int) (*CaseActionResult, error) {
	var out CaseActionResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/cases/%d/escalate/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Responses lists the response thread of one case.
func (s *CasesService) Responses(ctx context.Context, caseID int) ([]CaseResponse, error) {
	var out []CaseResponse
	path := fmt.Sprintf("/case-responses/?case=%d", caseID)
	if err := s.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type CreateCaseResponseData struct {
	Case         int    `json:"case"`
	ResponseType string `json:"response_type"`
	Content      string `json:"content"`
	IsInternal   bool   `json:"is_internal"`
	EmailSubject string `json:"email_subject,omitempty"`
	EmailTo      string `json:"email_to,omitempty"`
	EmailCC      string `json:"email_cc,omitempty"`
}

func (s *CasesService) CreateResponse(ctx context.Context, data CreateCaseResponseData) (*CaseResponse, error) {
	var out CaseResponse
	if err := s.c.do(ctx, http.MethodPost, "/case-responses/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAttachment appends a file to a case's attachment collection.
func (s *CasesService) UploadAttachment(ctx context.Context, caseID int, filename string, data []byte) (*CaseAttachment, error) {
	form := &MultipartForm{
		Fields: map[string]string{"case": fmt.Sprintf("%d", caseID)},
		Files:  []MultipartFile{{Field: "file", Name: filename, Data: data}},
	}
	var out CaseAttachment
	if err := s.c.doMultipart(ctx, http.MethodPost, "/case-attachments/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
