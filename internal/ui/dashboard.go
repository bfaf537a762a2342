package ui

import (
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// DashboardPage shows today's meetings, open cases and message volume
// at a glance.
type DashboardPage struct {
	page

	openCases  int
	urgent     int
	meetings   []crm.Meeting
	emailStats *crm.EmailStats
	smsStats   *crm.SMSStats
	loaded     bool
}

func (d *DashboardPage) OnMount(ctx app.Context) {
	d.mount(ctx, d.load)
}

func (d *DashboardPage) load(ctx app.Context) {
	n := d.seq.next()
	reqCtx := d.ctx
	client := d.backend.Client
	ctx.Async(func() {
		open, err := client.Cases.List(reqCtx, crm.CaseListOptions{Status: "open"})
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { d.showError(ctx, err) })
			return
		}
		urgent, err := client.Cases.List(reqCtx, crm.CaseListOptions{Status: "open", Priority: "urgent"})
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { d.showError(ctx, err) })
			return
		}
		meetings, err := client.Meetings.Today(reqCtx)
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { d.showError(ctx, err) })
			return
		}
		emailStats, err := client.Emails.Stats(reqCtx, 30)
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { d.showError(ctx, err) })
			return
		}
		smsStats, err := client.SMS.Stats(reqCtx, 30)
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) { d.showError(ctx, err) })
			return
		}

		ctx.Dispatch(func(ctx app.Context) {
			if !d.seq.current(n) {
				return
			}
			d.openCases = open.Count
			d.urgent = urgent.Count
			d.meetings = meetings
			d.emailStats = emailStats
			d.smsStats = smsStats
			d.loaded = true
		})
	})
}

func (d *DashboardPage) Render() app.UI {
	return d.guard(func() app.UI {
		return d.shell("/",
			app.H2().Text("Dashboard"),
			app.Div().Class("stat-grid").Body(
				statCard("Open cases", fmt.Sprintf("%d", d.openCases)),
				statCard("Urgent", fmt.Sprintf("%d", d.urgent)),
				statCard("Meetings today", fmt.Sprintf("%d", len(d.meetings))),
				statCard("Emails sent (30d)", emailSent(d.emailStats)),
				statCard("SMS sent (30d)", smsSent(d.smsStats)),
			),
			app.H3().Text("Today's meetings"),
			app.If(d.loaded && len(d.meetings) == 0, func() app.UI {
				return app.P().Class("empty").Text("Nothing scheduled today.")
			}),
			app.Ul().Class("meeting-list").Body(
				app.Range(d.meetings).Slice(func(i int) app.UI {
					m := d.meetings[i]
					return app.Li().Body(
						app.Strong().Text(m.Title),
						app.Span().Class("meeting-time").Text(m.StartTime),
						app.Span().Class("badge").Text(m.Status),
					)
				}),
			),
		)
	})
}

func statCard(label, value string) app.UI {
	return app.Div().Class("stat-card").Body(
		app.Span().Class("stat-value").Text(value),
		app.Span().Class("stat-label").Text(label),
	)
}

func emailSent(s *crm.EmailStats) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%d", s.SentEmails)
}

func smsSent(s *crm.SMSStats) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%d", s.SentSMS)
}
