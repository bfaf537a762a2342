package ui

import (
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// SMSPage mirrors the email workspace for text messages, minus the
// thread actions that only email has.
type SMSPage struct {
	page

	messages []crm.SMS
	count    int
	smsType  string
	status   string
	search   string

	selected *crm.SMS

	composeOpen bool
	compose     crm.SMSData
}

func (p *SMSPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *SMSPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	opts := crm.SMSListOptions{
		SMSType:  p.smsType,
		Status:   p.status,
		Search:   p.search,
		Ordering: "-created_at",
	}
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.SMS.List(reqCtx, opts)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.messages = res.Results
			p.count = res.Count
		})
	})
}

func (p *SMSPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *SMSPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *SMSPage) open(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		detail, err := client.SMS.Get(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.selected = detail
		})
	})
}

func (p *SMSPage) send(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.compose
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.SMS.Send(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
			p.composeOpen = false
			p.compose = crm.SMSData{}
			p.load(ctx)
		})
	})
}

func (p *SMSPage) saveDraft(ctx app.Context) {
	data := p.compose
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.SMS.Create(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Draft saved")
			p.composeOpen = false
			p.compose = crm.SMSData{}
			p.load(ctx)
		})
	})
}

func (p *SMSPage) retry(ctx app.Context) {
	id := p.selected.ID
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.SMS.Retry(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Retry queued")
			p.open(ctx, id)
			p.load(ctx)
		})
	})
}

func (p *SMSPage) remove(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.SMS.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			if p.selected != nil && p.selected.ID == id {
				p.selected = nil
			}
			p.showSuccess("SMS deleted")
			p.load(ctx)
		})
	})
}

func (p *SMSPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/sms",
			app.H2().Text("SMS"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search messages...").
					Value(p.search).
					OnInput(p.onSearch).
					OnKeyDown(p.onSearchKey),
				filterSelect("All types", []string{"inbound", "outbound", "system"}, p.smsType,
					func(ctx app.Context, v string) {
						p.smsType = v
						p.load(ctx)
					}),
				filterSelect("All statuses",
					[]string{"draft", "queued", "sent", "delivered", "failed", "undelivered"},
					p.status,
					func(ctx app.Context, v string) {
						p.status = v
						p.load(ctx)
					}),
				app.Button().Class("btn-primary").Text("New message").
					OnClick(func(ctx app.Context, e app.Event) {
						p.composeOpen = true
						p.compose = crm.SMSData{}
					}),
			),
			app.Div().Class("split").Body(
				p.renderList(),
				app.If(p.selected != nil, p.renderDetail),
			),
			app.If(p.composeOpen, p.renderCompose),
		)
	})
}

func (p *SMSPage) renderList() app.UI {
	return app.Table().Class("data-table").Body(
		app.THead().Body(app.Tr().Body(
			app.Th().Text("Message"),
			app.Th().Text("From"),
			app.Th().Text("To"),
			app.Th().Text("Status"),
			app.Th(),
		)),
		app.TBody().Body(
			app.Range(p.messages).Slice(func(i int) app.UI {
				sms := p.messages[i]
				return app.Tr().Class("sms-row").
					OnClick(func(ctx app.Context, e app.Event) {
						p.open(ctx, sms.ID)
					}).
					Body(
						app.Td().Text(truncate(sms.Message, 60)),
						app.Td().Text(sms.FromNumber),
						app.Td().Text(sms.ToNumber),
						app.Td().Body(
							app.Span().Class("badge badge-"+sms.Status).Text(sms.Status),
						),
						app.Td().Body(
							app.Button().Class("btn-small btn-danger").Text("Delete").
								OnClick(func(ctx app.Context, e app.Event) {
									p.remove(ctx, sms.ID)
								}),
						),
					)
			}),
		),
	)
}

func (p *SMSPage) renderDetail() app.UI {
	sms := p.selected
	return app.Div().Class("sms-detail").Body(
		app.H3().Text("Message to "+sms.ToNumber),
		app.P().Text(sms.Message),
		app.Div().Class("sms-meta").Body(
			app.Span().Text("From: "+sms.FromNumber),
			app.Span().Text("Status: "+sms.Status),
			app.If(sms.Case != "", func() app.UI {
				return app.Span().Text("Case: " + sms.Case)
			}),
			app.If(sms.ErrorMessage != "", func() app.UI {
				return app.Span().Class("error-text").Text(sms.ErrorMessage)
			}),
		),
		app.Div().Class("sms-actions").Body(
			app.If(sms.CanRetry, func() app.UI {
				return app.Button().Class("btn-small").
					Text("Retry ("+strconv.Itoa(sms.RetryCount)+"/3)").
					OnClick(func(ctx app.Context, e app.Event) { p.retry(ctx) })
			}),
			app.Button().Class("btn-small").Text("Close").
				OnClick(func(ctx app.Context, e app.Event) { p.selected = nil }),
		),
	)
}

func (p *SMSPage) renderCompose() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.send).Body(
		app.H3().Text("New SMS"),
		textField("To number", p.compose.ToNumber, func(v string) { p.compose.ToNumber = v }),
		textField("From number", p.compose.FromNumber, func(v string) { p.compose.FromNumber = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Message"),
			app.Textarea().Text(p.compose.Message).
				OnInput(func(ctx app.Context, e app.Event) {
					p.compose.Message = ctx.JSSrc().Get("value").String()
				}),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Send"),
		app.Button().Type("button").Class("btn-small").Text("Save draft").
			OnClick(func(ctx app.Context, e app.Event) { p.saveDraft(ctx) }),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.composeOpen = false
				p.compose = crm.SMSData{}
			}),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
