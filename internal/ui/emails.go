package ui

import (
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

var emailStatuses = []string{"draft", "queued", "sent", "delivered", "failed", "bounced"}

// EmailsPage is the mail workspace: inbox and drafts, a compose form,
// and the reply/forward/retry actions on an open message.
type EmailsPage struct {
	page

	emails    []crm.Email
	count     int
	emailType string
	status    string
	search    string

	selected *crm.Email

	// composeDraft is the draft being edited, nil when composing fresh.
	composeOpen  bool
	composeDraft *crm.Email
	compose      crm.EmailData

	replyOpen bool
	reply     crm.ReplyData

	forwardOpen bool
	forward     crm.ForwardData
}

func (p *EmailsPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *EmailsPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	opts := crm.EmailListOptions{
		EmailType: p.emailType,
		Status:    p.status,
		Search:    p.search,
		Ordering:  "-created_at",
	}
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Emails.List(reqCtx, opts)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.emails = res.Results
			p.count = res.Count
		})
	})
}

func (p *EmailsPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *EmailsPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *EmailsPage) open(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		detail, err := client.Emails.Get(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.selected = detail
			p.replyOpen = false
			p.forwardOpen = false
		})
	})
}

func (p *EmailsPage) startCompose(draft *crm.Email) {
	p.composeOpen = true
	p.composeDraft = draft
	if draft == nil {
		p.compose = crm.EmailData{}
		return
	}
	p.compose = crm.EmailData{
		Subject:     draft.Subject,
		ToEmail:     draft.ToEmail,
		FromEmail:   draft.FromEmail,
		CCEmails:    draft.CCEmails,
		BCCEmails:   draft.BCCEmails,
		HTMLContent: draft.HTMLContent,
		TextContent: draft.TextContent,
	}
}

func (p *EmailsPage) closeCompose() {
	p.composeOpen = false
	p.composeDraft = nil
	p.compose = crm.EmailData{}
}

func (p *EmailsPage) saveDraft(ctx app.Context) {
	data := p.compose
	draft := p.composeDraft
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		var err error
		if draft != nil {
			_, err = client.Emails.Update(reqCtx, draft.ID, data)
		} else {
			_, err = client.Emails.Create(reqCtx, data)
		}
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Draft saved")
			p.closeCompose()
			p.load(ctx)
		})
	})
}

// send transmits the composed message. An existing draft is consumed by
// the send: it disappears from the draft folder and a fresh outbound
// email takes its place.
func (p *EmailsPage) send(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.compose
	draft := p.composeDraft
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		var (
			res *crm.SendResult
			err error
		)
		if draft != nil {
			res, err = client.Emails.SendDraft(reqCtx, draft.ID, data)
		} else {
			res, err = client.Emails.Send(reqCtx, data)
		}
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
			p.closeCompose()
			p.load(ctx)
		})
	})
}

func (p *EmailsPage) sendReply(ctx app.Context, e app.Event) {
	e.PreventDefault()
	id := p.selected.ID
	data := p.reply
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Emails.Reply(reqCtx, id, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
			p.replyOpen = false
			p.reply = crm.ReplyData{}
			p.load(ctx)
		})
	})
}

func (p *EmailsPage) sendForward(ctx app.Context, e app.Event) {
	e.PreventDefault()
	id := p.selected.ID
	data := p.forward
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Emails.Forward(reqCtx, id, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
			p.forwardOpen = false
			p.forward = crm.ForwardData{}
			p.load(ctx)
		})
	})
}

func (p *EmailsPage) retry(ctx app.Context) {
	id := p.selected.ID
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Emails.Retry(reqCtx, id)
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

func (p *EmailsPage) openCase(ctx app.Context) {
	email := p.selected
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		created, err := client.Emails.CreateCase(reqCtx, email.ID, crm.CreateCaseData{
			Title:    email.Subject,
			Priority: "medium",
			Category: "general",
		})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Case " + created.CaseNumber + " created from email")
		})
	})
}

func (p *EmailsPage) sync(ctx app.Context) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Emails.Sync(reqCtx)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Mailbox synced")
			p.load(ctx)
		})
	})
}

func (p *EmailsPage) remove(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Emails.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			if p.selected != nil && p.selected.ID == id {
				p.selected = nil
			}
			p.showSuccess("Email deleted")
			p.load(ctx)
		})
	})
}

func (p *EmailsPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/emails",
			app.H2().Text("Emails"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search emails...").
					Value(p.search).
					OnInput(p.onSearch).
					OnKeyDown(p.onSearchKey),
				filterSelect("All types", []string{"inbound", "outbound", "system"}, p.emailType,
					func(ctx app.Context, v string) {
						p.emailType = v
						p.load(ctx)
					}),
				filterSelect("All statuses", emailStatuses, p.status,
					func(ctx app.Context, v string) {
						p.status = v
						p.load(ctx)
					}),
				app.Button().Class("btn-small").Text("Sync").
					OnClick(func(ctx app.Context, e app.Event) { p.sync(ctx) }),
				app.Button().Class("btn-primary").Text("Compose").
					OnClick(func(ctx app.Context, e app.Event) { p.startCompose(nil) }),
			),
			app.Div().Class("split").Body(
				p.renderList(),
				app.If(p.selected != nil, p.renderDetail),
			),
			app.If(p.composeOpen, p.renderCompose),
		)
	})
}

func (p *EmailsPage) renderList() app.UI {
	return app.Table().Class("data-table").Body(
		app.THead().Body(app.Tr().Body(
			app.Th().Text("Subject"),
			app.Th().Text("From"),
			app.Th().Text("To"),
			app.Th().Text("Status"),
			app.Th(),
		)),
		app.TBody().Body(
			app.Range(p.emails).Slice(func(i int) app.UI {
				email := p.emails[i]
				return app.Tr().Class("email-row").
					OnClick(func(ctx app.Context, e app.Event) {
						if email.Status == "draft" {
							full := p.emails[i]
							p.startCompose(&full)
							return
						}
						p.open(ctx, email.ID)
					}).
					Body(
						app.Td().Text(email.Subject),
						app.Td().Text(email.FromEmail),
						app.Td().Text(email.ToEmail),
						app.Td().Body(
							app.Span().Class("badge badge-"+email.Status).Text(email.Status),
						),
						app.Td().Body(
							app.Button().Class("btn-small btn-danger").Text("Delete").
								OnClick(func(ctx app.Context, e app.Event) {
									p.remove(ctx, email.ID)
								}),
						),
					)
			}),
		),
	)
}

func (p *EmailsPage) renderDetail() app.UI {
	email := p.selected
	return app.Div().Class("email-detail").Body(
		app.H3().Text(email.Subject),
		app.Div().Class("email-meta").Body(
			app.Span().Text("From: "+email.FromEmail),
			app.Span().Text("To: "+email.ToEmail),
			app.Span().Text(email.Status),
			app.If(email.Case != "", func() app.UI {
				return app.Span().Text("Case: " + email.Case)
			}),
		),
		app.P().Text(emailBody(email)),
		app.Div().Class("email-actions").Body(
			app.Button().Class("btn-small").Text("Reply").
				OnClick(func(ctx app.Context, e app.Event) {
					p.replyOpen = true
					p.forwardOpen = false
					p.reply = crm.ReplyData{Subject: "Re: " + email.Subject}
				}),
			app.Button().Class("btn-small").Text("Forward").
				OnClick(func(ctx app.Context, e app.Event) {
					p.forwardOpen = true
					p.replyOpen = false
					p.forward = crm.ForwardData{Subject: "Fwd: " + email.Subject}
				}),
			app.If(email.EmailType == "inbound", func() app.UI {
				return app.Button().Class("btn-small").Text("Create case").
					OnClick(func(ctx app.Context, e app.Event) { p.openCase(ctx) })
			}),
			app.If(email.Status == "failed" && email.RetryCount < 3, func() app.UI {
				return app.Button().Class("btn-small").Text("Retry ("+strconv.Itoa(email.RetryCount)+"/3)").
					OnClick(func(ctx app.Context, e app.Event) { p.retry(ctx) })
			}),
			app.Button().Class("btn-small").Text("Close").
				OnClick(func(ctx app.Context, e app.Event) { p.selected = nil }),
		),
		app.If(p.replyOpen, p.renderReply),
		app.If(p.forwardOpen, p.renderForward),
	)
}

func (p *EmailsPage) renderReply() app.UI {
	return app.Form().Class("reply-form").OnSubmit(p.sendReply).Body(
		textField("Subject", p.reply.Subject, func(v string) { p.reply.Subject = v }),
		app.Textarea().Placeholder("Reply...").
			Text(p.reply.Content).
			OnInput(func(ctx app.Context, e app.Event) {
				p.reply.Content = ctx.JSSrc().Get("value").String()
			}),
		app.Button().Type("submit").Class("btn-primary").Text("Send reply"),
	)
}

func (p *EmailsPage) renderForward() app.UI {
	return app.Form().Class("reply-form").OnSubmit(p.sendForward).Body(
		textField("To", p.forward.ToEmail, func(v string) { p.forward.ToEmail = v }),
		textField("Subject", p.forward.Subject, func(v string) { p.forward.Subject = v }),
		app.Textarea().Placeholder("Add a message...").
			Text(p.forward.Message).
			OnInput(func(ctx app.Context, e app.Event) {
				p.forward.Message = ctx.JSSrc().Get("value").String()
			}),
		app.Button().Type("submit").Class("btn-primary").Text("Forward"),
	)
}

func (p *EmailsPage) renderCompose() app.UI {
	title := "New email"
	if p.composeDraft != nil {
		title = "Edit draft"
	}
	return app.Form().Class("edit-form").OnSubmit(p.send).Body(
		app.H3().Text(title),
		textField("To", p.compose.ToEmail, func(v string) { p.compose.ToEmail = v }),
		textField("CC", p.compose.CCEmails, func(v string) { p.compose.CCEmails = v }),
		textField("Subject", p.compose.Subject, func(v string) { p.compose.Subject = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Message"),
			app.Textarea().Text(p.compose.TextContent).
				OnInput(func(ctx app.Context, e app.Event) {
					p.compose.TextContent = ctx.JSSrc().Get("value").String()
				}),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Send"),
		app.Button().Type("button").Class("btn-small").Text("Save draft").
			OnClick(func(ctx app.Context, e app.Event) { p.saveDraft(ctx) }),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) { p.closeCompose() }),
	)
}

func emailBody(e *crm.Email) string {
	if e.TextContent != "" {
		return e.TextContent
	}
	return e.HTMLContent
}
