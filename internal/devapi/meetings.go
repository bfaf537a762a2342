package devapi

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"
)

type meeting struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	MeetingType     string     `json:"meeting_type"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	Timezone        string     `json:"timezone"`
	AllDay          bool       `json:"all_day"`
	Location        string     `json:"location"`
	LocationType    string     `json:"location_type"`
	MeetingURL      string     `json:"meeting_url"`
	Organizer       userRef    `json:"organizer"`
	Attendees       []authUser `json:"attendees"`
	IsRecurring     bool       `json:"is_recurring"`
	RecurrenceRule  string     `json:"recurrence_rule,omitempty"`
	ParentMeeting   int        `json:"parent_meeting,omitempty"`
	ReminderMinutes int        `json:"reminder_minutes"`
	Agenda          string     `json:"agenda"`
	Notes           string     `json:"notes"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	DurationMinutes int        `json:"duration_minutes"`
	IsPast          bool       `json:"is_past"`
	IsOngoing       bool       `json:"is_ongoing"`
	IsUpcoming      bool       `json:"is_upcoming"`
	IsToday         bool       `json:"is_today"`
}

const meetingCols = `id, title, description, meeting_type, status, priority, start_time, end_time,
	timezone, all_day, location, location_type, meeting_url, organizer_id, is_recurring,
	recurrence_rule, parent_meeting, reminder_minutes, agenda, notes, created_at, updated_at`

func (s *Server) scanMeeting(row interface{ Scan(...any) error }) (meeting, error) {
	var m meeting
	var organizerID, allDay, recurring int
	var parent sql.NullInt64
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.MeetingType, &m.Status, &m.Priority,
		&m.StartTime, &m.EndTime, &m.Timezone, &allDay, &m.Location, &m.LocationType,
		&m.MeetingURL, &organizerID, &recurring, &m.RecurrenceRule, &parent,
		&m.ReminderMinutes, &m.Agenda, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.AllDay = allDay != 0
	m.IsRecurring = recurring != 0
	m.ParentMeeting = int(parent.Int64)
	if u, err := s.userByID(organizerID); err == nil {
		m.Organizer = u.ref()
	}

	start, startErr := time.Parse(time.RFC3339, m.StartTime)
	end, endErr := time.Parse(time.RFC3339, m.EndTime)
	if startErr == nil && endErr == nil {
		nowT := time.Now()
		m.DurationMinutes = int(end.Sub(start).Minutes())
		m.IsPast = end.Before(nowT)
		m.IsOngoing = !start.After(nowT) && !end.Before(nowT)
		m.IsUpcoming = start.After(nowT)
		y1, mo1, d1 := start.UTC().Date()
		y2, mo2, d2 := nowT.UTC().Date()
		m.IsToday = y1 == y2 && mo1 == mo2 && d1 == d2
	}
	return m, nil
}

func (s *Server) loadAttendees(m *meeting) error {
	m.Attendees = []authUser{}
	rows, err := s.db.Query(`SELECT user_id FROM meeting_attendees WHERE meeting_id = ? ORDER BY user_id`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if u, err := s.userByID(id); err == nil {
			m.Attendees = append(m.Attendees, *u)
		}
	}
	return rows.Err()
}

func (s *Server) meetingByID(id int64) (meeting, error) {
	m, err := s.scanMeeting(s.db.QueryRow(`SELECT `+meetingCols+` FROM meetings WHERE id = ?`, id))
	if err != nil {
		return m, err
	}
	return m, s.loadAttendees(&m)
}

func (s *Server) listMeetings(filter func(meeting) bool) ([]meeting, error) {
	rows, err := s.db.Query(`SELECT ` + meetingCols + ` FROM meetings ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []meeting
	for rows.Next() {
		m, err := s.scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		if err := s.loadAttendees(&m); err != nil {
			return nil, err
		}
		if filter != nil && !filter(m) {
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.listMeetings(func(m meeting) bool {
		if v := q.Get("meeting_type"); v != "" && m.MeetingType != v {
			return false
		}
		if v := q.Get("status"); v != "" && m.Status != v {
			return false
		}
		if v := q.Get("priority"); v != "" && m.Priority != v {
			return false
		}
		if v := q.Get("organizer"); v != "" {
			id, _ := strconv.Atoi(v)
			if m.Organizer.ID != id {
				return false
			}
		}
		if v := q.Get("attendee"); v != "" {
			id, _ := strconv.Atoi(v)
			found := false
			for _, a := range m.Attendees {
				if a.ID == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		// Date bounds compare lexically; both sides are RFC 3339.
		if v := q.Get("start_date"); v != "" && m.StartTime < v {
			return false
		}
		if v := q.Get("end_date"); v != "" && m.StartTime > v {
			return false
		}
		return matches(q.Get("search"), m.Title, m.Description, m.Location)
	})
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeList(w, out)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	m, err := s.meetingByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type meetingInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	MeetingType     string `json:"meeting_type"`
	Priority        string `json:"priority"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Timezone        string `json:"timezone"`
	AllDay          bool   `json:"all_day"`
	Location        string `json:"location"`
	LocationType    string `json:"location_type"`
	MeetingURL      string `json:"meeting_url"`
	Attendees       []int  `json:"attendees"`
	IsRecurring     bool   `json:"is_recurring"`
	RecurrenceRule  string `json:"recurrence_rule"`
	ReminderMinutes int    `json:"reminder_minutes"`
	Agenda          string `json:"agenda"`
}

func (in *meetingInput) defaults() map[string][]string {
	fe := requireFields(map[string]string{
		"title":      in.Title,
		"start_time": in.StartTime,
		"end_time":   in.EndTime,
	})
	if len(fe) > 0 {
		return fe
	}
	if in.MeetingType == "" {
		in.MeetingType = "internal"
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if in.Timezone == "" {
		in.Timezone = "UTC"
	}
	if in.LocationType == "" {
		in.LocationType = "virtual"
	}
	if in.ReminderMinutes == 0 {
		in.ReminderMinutes = 15
	}
	return nil
}

func (s *Server) replaceAttendees(meetingID int64, attendees []int) error {
	if _, err := s.db.Exec(`DELETE FROM meeting_attendees WHERE meeting_id = ?`, meetingID); err != nil {
		return err
	}
	for _, id := range attendees {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO meeting_attendees (meeting_id, user_id) VALUES (?, ?)`, meetingID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var in meetingInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := in.defaults(); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO meetings (title, description, meeting_type, status, priority, start_time, end_time,
		 timezone, all_day, location, location_type, meeting_url, organizer_id, is_recurring,
		 recurrence_rule, reminder_minutes, agenda, created_at, updated_at)
		 VALUES (?, ?, ?, 'scheduled', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, in.MeetingType, in.Priority, in.StartTime, in.EndTime,
		in.Timezone, boolInt(in.AllDay), in.Location, in.LocationType, in.MeetingURL,
		currentUser(r).ID, boolInt(in.IsRecurring), in.RecurrenceRule, in.ReminderMinutes,
		in.Agenda, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid meeting payload")
		return
	}
	id, _ := res.LastInsertId()
	if err := s.replaceAttendees(id, in.Attendees); err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	m, err := s.meetingByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handlePutMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in meetingInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := in.defaults(); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	res, err := s.db.Exec(
		`UPDATE meetings SET title = ?, description = ?, meeting_type = ?, priority = ?, start_time = ?,
		 end_time = ?, timezone = ?, all_day = ?, location = ?, location_type = ?, meeting_url = ?,
		 is_recurring = ?, recurrence_rule = ?, reminder_minutes = ?, agenda = ?, updated_at = ?
		 WHERE id = ?`,
		in.Title, in.Description, in.MeetingType, in.Priority, in.StartTime, in.EndTime,
		in.Timezone, boolInt(in.AllDay), in.Location, in.LocationType, in.MeetingURL,
		boolInt(in.IsRecurring), in.RecurrenceRule, in.ReminderMinutes, in.Agenda, now(), id)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid meeting payload")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := s.replaceAttendees(id, in.Attendees); err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	m, err := s.meetingByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// The today/upcoming/past shortcuts return bare arrays, not envelopes.

func (s *Server) handleMeetingsToday(w http.ResponseWriter, r *http.Request) {
	out, err := s.listMeetings(func(m meeting) bool { return m.IsToday })
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeBareList(w, out)
}

func (s *Server) handleMeetingsUpcoming(w http.ResponseWriter, r *http.Request) {
	out, err := s.listMeetings(func(m meeting) bool { return m.IsUpcoming && m.Status != "cancelled" })
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeBareList(w, out)
}

func (s *Server) handleMeetingsPast(w http.ResponseWriter, r *http.Request) {
	out, err := s.listMeetings(func(m meeting) bool { return m.IsPast })
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeBareList(w, out)
}

func writeBareList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

// meetingAction builds the handler for one of the POST sub-resources.
func (s *Server) meetingAction(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		if _, err := s.meetingByID(id); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		user := currentUser(r)
		var err error
		switch name {
		case "join":
			_, err = s.db.Exec(
				`INSERT OR IGNORE INTO meeting_attendees (meeting_id, user_id, joined) VALUES (?, ?, 1)`,
				id, user.ID)
			if err == nil {
				_, err = s.db.Exec(
					`UPDATE meeting_attendees SET joined = 1 WHERE meeting_id = ? AND user_id = ?`, id, user.ID)
			}
		case "leave":
			_, err = s.db.Exec(
				`UPDATE meeting_attendees SET joined = 0 WHERE meeting_id = ? AND user_id = ?`, id, user.ID)
		case "complete":
			_, err = s.db.Exec(`UPDATE meetings SET status = 'completed', updated_at = ? WHERE id = ?`, now(), id)
		case "cancel":
			_, err = s.db.Exec(`UPDATE meetings SET status = 'cancelled', updated_at = ? WHERE id = ?`, now(), id)
		}
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		m, err := s.meetingByID(id)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}
