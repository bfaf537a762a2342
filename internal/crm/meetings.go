package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type Meeting struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	MeetingType     string   `json:"meeting_type"`
	Status          string   `json:"status"` // scheduled, confirmed, in_progress, completed, cancelled
	Priority        string   `json:"priority"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	Timezone        string   `json:"timezone"`
	AllDay          bool     `json:"all_day"`
	Location        string   `json:"location"`
	LocationType    string   `json:"location_type"`
	MeetingURL      string   `json:"meeting_url"`
	Organizer       UserRef  `json:"organizer"`
	Attendees       []User   `json:"attendees"`
	IsRecurring     bool     `json:"is_recurring"`
	RecurrenceRule  string   `json:"recurrence_rule,omitempty"`
	ParentMeeting   int      `json:"parent_meeting,omitempty"`
	ReminderMinutes int      `json:"reminder_minutes"`
	Agenda          string   `json:"agenda"`
	Notes           string   `json:"notes"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	DurationMinutes int      `json:"duration_minutes"`
	IsPast          bool     `json:"is_past"`
	IsOngoing       bool     `json:"is_ongoing"`
	IsUpcoming      bool     `json:"is_upcoming"`
	IsToday         bool     `json:"is_today"`
}

type MeetingListOptions struct {
	Search      string
	StartDate   string
	EndDate     string
	MeetingType string
	Status      string
	Priority    string
	Organizer   int
	Attendee    int
}

// MeetingData is the full representation for POST and PUT; meeting
// updates replace the resource.
type MeetingData struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	MeetingType     string `json:"meeting_type"`
	Priority        string `json:"priority,omitempty"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Timezone        string `json:"timezone,omitempty"`
	AllDay          bool   `json:"all_day"`
	Location        string `json:"location,omitempty"`
	LocationType    string `json:"location_type,omitempty"`
	MeetingURL      string `json:"meeting_url,omitempty"`
	Attendees       []int  `json:"attendees,omitempty"`
	IsRecurring     bool   `json:"is_recurring"`
	RecurrenceRule  string `json:"recurrence_rule,omitempty"`
	ReminderMinutes int    `json:"reminder_minutes,omitempty"`
	Agenda          string `json:"agenda,omitempty"`
}

type MeetingsService struct {
	c *Client
}

func (s *MeetingsService) List(ctx context.Context, opts MeetingListOptions) (*ListResult[Meeting], error) {
	q := url.Values{}
	setIf(q, "search", opts.Search)
	setIf(q, "start_date", opts.StartDate)
	setIf(q, "end_date", opts.EndDate)
	setIf(q, "meeting_type", opts.MeetingType)
	setIf(q, "status", opts.Status)
	setIf(q, "priority", opts.Priority)
	setIfInt(q, "organizer", opts.Organizer)
	setIfInt(q, "attendee", opts.Attendee)

	var out ListResult[Meeting]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/meetings/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MeetingsService) Get(ctx context.Context, id int) (*Meeting, error) {
	var out Meeting
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/meetings/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MeetingsService) Create(ctx context.Context, data MeetingData) (*Meeting, error) {
	var out Meeting
	if err := s.c.do(ctx, http.MethodPost, "/meetings/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update is a PUT full replace.
func (s *MeetingsService) Update(ctx context.Context, id int, data MeetingData) (*Meeting, error) {
	var out Meeting
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/meetings/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MeetingsService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/meetings/%d/", id), nil, nil)
}

func (s *MeetingsService) Today(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := s.c.do(ctx, http.MethodGet, "/meetings/today/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MeetingsService) Upcoming(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := s.c.do(ctx, http.MethodGet, "/meetings/upcoming/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MeetingsService) Past(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := s.c.do(ctx, http.MethodGet, "/meetings/past/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MeetingsService) Join(ctx context.Context, id int) (*Meeting, error) {
	return s.action(ctx, id, "join")
}

func (s *MeetingsService) Leave(ctx context.Context, id int) (*Meeting, error) {
	return s.action(ctx, id, "leave")
}

func (s *MeetingsService) Complete(ctx context.Context, id int) (*Meeting, error) {
	return s.action(ctx, id, "complete")
}

func (s *MeetingsService) Cancel(ctx context.Context, id int) (*Meeting, error) {
	return s.action(ctx, id, "cancel")
}

func (s *MeetingsService) action(ctx context.Context, id int, name string) (*Meeting, error) {
	var out Meeting
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/meetings/%d/%s/", id, name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
