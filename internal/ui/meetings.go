package ui

import (
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// meetingTabs are the calendar views. "all" is the filterable list; the
// other three are the server's own today/upcoming/past buckets.
var meetingTabs = []string{"today", "upcoming", "past", "all"}

// MeetingsPage shows the calendar buckets and lets attendees join,
// leave, complete and cancel meetings.
type MeetingsPage struct {
	page

	tab      string
	meetings []crm.Meeting
	search   string

	selected *crm.Meeting

	formOpen bool
	editing  *crm.Meeting
	form     crm.MeetingData
}

func (p *MeetingsPage) OnMount(ctx app.Context) {
	p.tab = "today"
	p.mount(ctx, p.load)
}

func (p *MeetingsPage) load(ctx app.Context) {
	n := p.seq.next()
	tab := p.tab
	search := p.search
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		var (
			meetings []crm.Meeting
			err      error
		)
		switch tab {
		case "today":
			meetings, err = client.Meetings.Today(reqCtx)
		case "upcoming":
			meetings, err = client.Meetings.Upcoming(reqCtx)
		case "past":
			meetings, err = client.Meetings.Past(reqCtx)
		default:
			var res *crm.ListResult[crm.Meeting]
			res, err = client.Meetings.List(reqCtx, crm.MeetingListOptions{Search: search})
			if err == nil {
				meetings = res.Results
			}
		}
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.meetings = meetings
		})
	})
}

func (p *MeetingsPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *MeetingsPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *MeetingsPage) action(ctx app.Context, do func(*crm.Client) (*crm.Meeting, error), msg string) {
	client := p.backend.Client
	ctx.Async(func() {
		updated, err := do(client)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.selected = updated
			p.showSuccess(msg)
			p.load(ctx)
		})
	})
}

func (p *MeetingsPage) join(ctx app.Context, id int) {
	reqCtx := p.ctx
	p.action(ctx, func(c *crm.Client) (*crm.Meeting, error) {
		return c.Meetings.Join(reqCtx, id)
	}, "Joined meeting")
}

func (p *MeetingsPage) leave(ctx app.Context, id int) {
	reqCtx := p.ctx
	p.action(ctx, func(c *crm.Client) (*crm.Meeting, error) {
		return c.Meetings.Leave(reqCtx, id)
	}, "Left meeting")
}

func (p *MeetingsPage) complete(ctx app.Context, id int) {
	reqCtx := p.ctx
	p.action(ctx, func(c *crm.Client) (*crm.Meeting, error) {
		return c.Meetings.Complete(reqCtx, id)
	}, "Meeting completed")
}

func (p *MeetingsPage) cancel(ctx app.Context, id int) {
	reqCtx := p.ctx
	p.action(ctx, func(c *crm.Client) (*crm.Meeting, error) {
		return c.Meetings.Cancel(reqCtx, id)
	}, "Meeting cancelled")
}

func (p *MeetingsPage) startEdit(m *crm.Meeting) {
	p.editing = m
	p.formOpen = true
	if m == nil {
		p.form = crm.MeetingData{
			MeetingType:     "internal",
			Priority:        "medium",
			Timezone:        "UTC",
			LocationType:    "virtual",
			ReminderMinutes: 15,
		}
		return
	}
	attendees := make([]int, 0, len(m.Attendees))
	for _, a := range m.Attendees {
		attendees = append(attendees, a.ID)
	}
	p.form = crm.MeetingData{
		Title:           m.Title,
		Description:     m.Description,
		MeetingType:     m.MeetingType,
		Priority:        m.Priority,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		Timezone:        m.Timezone,
		AllDay:          m.AllDay,
		Location:        m.Location,
		LocationType:    m.LocationType,
		MeetingURL:      m.MeetingURL,
		Attendees:       attendees,
		IsRecurring:     m.IsRecurring,
		RecurrenceRule:  m.RecurrenceRule,
		ReminderMinutes: m.ReminderMinutes,
		Agenda:          m.Agenda,
	}
}

func (p *MeetingsPage) closeForm() {
	p.editing = nil
	p.formOpen = false
	p.form = crm.MeetingData{}
}

func (p *MeetingsPage) save(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.form
	editing := p.editing
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		var err error
		if editing != nil {
			_, err = client.Meetings.Update(reqCtx, editing.ID, data)
		} else {
			_, err = client.Meetings.Create(reqCtx, data)
		}
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Meeting saved")
			p.closeForm()
			p.load(ctx)
		})
	})
}

func (p *MeetingsPage) remove(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Meetings.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			if p.selected != nil && p.selected.ID == id {
				p.selected = nil
			}
			p.showSuccess("Meeting deleted")
			p.load(ctx)
		})
	})
}

func (p *MeetingsPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/meetings",
			app.H2().Text("Meetings"),
			app.Div().Class("tabs").Body(
				app.Range(meetingTabs).Slice(func(i int) app.UI {
					tab := meetingTabs[i]
					cls := "tab"
					if tab == p.tab {
						cls += " active"
					}
					return app.Button().Class(cls).Text(tab).
						OnClick(func(ctx app.Context, e app.Event) {
							p.tab = tab
							p.load(ctx)
						})
				}),
			),
			app.Div().Class("toolbar").Body(
				app.If(p.tab == "all", func() app.UI {
					return app.Input().Class("search").Type("search").
						Placeholder("Search meetings...").
						Value(p.search).
						OnInput(p.onSearch).
						OnKeyDown(p.onSearchKey)
				}),
				app.Button().Class("btn-primary").Text("New meeting").
					OnClick(func(ctx app.Context, e app.Event) {
						p.startEdit(nil)
					}),
			),
			app.Div().Class("split").Body(
				p.renderList(),
				app.If(p.selected != nil, p.renderDetail),
			),
			app.If(p.formOpen, p.renderForm),
		)
	})
}

func (p *MeetingsPage) renderList() app.UI {
	return app.Table().Class("data-table").Body(
		app.THead().Body(app.Tr().Body(
			app.Th().Text("Title"),
			app.Th().Text("Start"),
			app.Th().Text("Duration"),
			app.Th().Text("Status"),
			app.Th().Text("Organizer"),
		)),
		app.TBody().Body(
			app.Range(p.meetings).Slice(func(i int) app.UI {
				m := p.meetings[i]
				cls := "meeting-row"
				if m.IsOngoing {
					cls += " ongoing"
				}
				return app.Tr().Class(cls).
					OnClick(func(ctx app.Context, e app.Event) {
						full := p.meetings[i]
						p.selected = &full
					}).
					Body(
						app.Td().Text(m.Title),
						app.Td().Text(m.StartTime),
						app.Td().Text(durationLabel(m.DurationMinutes)),
						app.Td().Text(m.Status),
						app.Td().Text(m.Organizer.FirstName+" "+m.Organizer.LastName),
					)
			}),
		),
	)
}

func durationLabel(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		return strconv.Itoa(minutes/60) + "h"
	}
	return strconv.Itoa(minutes) + "m"
}

func (p *MeetingsPage) renderDetail() app.UI {
	m := p.selected
	return app.Div().Class("meeting-detail").Body(
		app.H3().Text(m.Title),
		app.P().Text(m.Description),
		app.Div().Class("meeting-meta").Body(
			app.Span().Text(m.StartTime+" to "+m.EndTime+" ("+m.Timezone+")"),
			app.Span().Text("Type: "+m.MeetingType),
			app.Span().Text("Status: "+m.Status),
			app.If(m.Location != "", func() app.UI {
				return app.Span().Text("Location: " + m.Location)
			}),
			app.If(m.MeetingURL != "", func() app.UI {
				return app.A().Href(m.MeetingURL).Text("Join link")
			}),
		),
		app.H4().Text("Attendees"),
		app.Ul().Body(
			app.Range(m.Attendees).Slice(func(i int) app.UI {
				a := m.Attendees[i]
				return app.Li().Text(a.FirstName + " " + a.LastName)
			}),
		),
		app.If(m.Agenda != "", func() app.UI {
			return app.Div().Body(
				app.H4().Text("Agenda"),
				app.P().Text(m.Agenda),
			)
		}),
		app.Div().Class("meeting-actions").Body(
			app.Button().Class("btn-small").Text("Join").
				OnClick(func(ctx app.Context, e app.Event) { p.join(ctx, m.ID) }),
			app.Button().Class("btn-small").Text("Leave").
				OnClick(func(ctx app.Context, e app.Event) { p.leave(ctx, m.ID) }),
			app.If(m.Status != "completed" && m.Status != "cancelled", func() app.UI {
				return app.Div().Body(
					app.Button().Class("btn-small").Text("Complete").
						OnClick(func(ctx app.Context, e app.Event) { p.complete(ctx, m.ID) }),
					app.Button().Class("btn-small btn-danger").Text("Cancel meeting").
						OnClick(func(ctx app.Context, e app.Event) { p.cancel(ctx, m.ID) }),
				)
			}),
			app.Button().Class("btn-small").Text("Edit").
				OnClick(func(ctx app.Context, e app.Event) { p.startEdit(p.selected) }),
			app.Button().Class("btn-small btn-danger").Text("Delete").
				OnClick(func(ctx app.Context, e app.Event) { p.remove(ctx, m.ID) }),
			app.Button().Class("btn-small").Text("Close").
				OnClick(func(ctx app.Context, e app.Event) { p.selected = nil }),
		),
	)
}

func (p *MeetingsPage) renderForm() app.UI {
	title := "New meeting"
	if p.editing != nil {
		title = "Edit " + p.editing.Title
	}
	return app.Form().Class("edit-form").OnSubmit(p.save).Body(
		app.H3().Text(title),
		textField("Title", p.form.Title, func(v string) { p.form.Title = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Description"),
			app.Textarea().Text(p.form.Description).
				OnInput(func(ctx app.Context, e app.Event) {
					p.form.Description = ctx.JSSrc().Get("value").String()
				}),
		),
		textField("Start (RFC 3339)", p.form.StartTime, func(v string) { p.form.StartTime = v }),
		textField("End (RFC 3339)", p.form.EndTime, func(v string) { p.form.EndTime = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Type"),
			optionSelect([]string{"internal", "client", "sales", "support", "training"},
				p.form.MeetingType,
				func(ctx app.Context, v string) { p.form.MeetingType = v }),
		),
		app.Div().Class("field").Body(
			app.Label().Text("Location type"),
			optionSelect([]string{"virtual", "in_person", "phone"},
				p.form.LocationType,
				func(ctx app.Context, v string) { p.form.LocationType = v }),
		),
		textField("Location", p.form.Location, func(v string) { p.form.Location = v }),
		textField("Meeting URL", p.form.MeetingURL, func(v string) { p.form.MeetingURL = v }),
		textField("Agenda", p.form.Agenda, func(v string) { p.form.Agenda = v }),
		app.Label().Class("checkbox").Body(
			app.Input().Type("checkbox").Checked(p.form.AllDay).
				OnChange(func(ctx app.Context, e app.Event) {
					p.form.AllDay = ctx.JSSrc().Get("checked").Bool()
				}),
			app.Span().Text("All day"),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Save"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) { p.closeForm() }),
	)
}
