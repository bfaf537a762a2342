package ui

import (
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// SettingsPage manages the signed-in user's email and SMS channel
// configurations, including the connection tests and verification.
type SettingsPage struct {
	page

	emailConfigs   []crm.EmailConfig
	smsConfigs     []crm.SMSConfig
	emailProviders []crm.Provider
	smsProviders   []crm.Provider

	emailFormOpen bool
	emailForm     crm.EmailConfigData

	smsFormOpen bool
	smsForm     crm.SMSConfigData

	testNumber string
}

func (p *SettingsPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *SettingsPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		emails, eerr := client.Configs.ListEmail(reqCtx)
		sms, serr := client.Configs.ListSMS(reqCtx)
		eproviders, _ := client.Configs.EmailProviders(reqCtx)
		sproviders, _ := client.Configs.SMSProviders(reqCtx)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if eerr != nil {
				p.showError(ctx, eerr)
				return
			}
			if serr != nil {
				p.showError(ctx, serr)
				return
			}
			p.emailConfigs = emails.Results
			p.smsConfigs = sms.Results
			p.emailProviders = eproviders
			p.smsProviders = sproviders
		})
	})
}

func (p *SettingsPage) saveEmail(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.emailForm
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Configs.CreateEmail(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Email configuration saved")
			p.emailFormOpen = false
			p.emailForm = crm.EmailConfigData{}
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) saveSMS(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.smsForm
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Configs.CreateSMS(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("SMS configuration saved")
			p.smsFormOpen = false
			p.smsForm = crm.SMSConfigData{}
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) testEmail(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Configs.TestEmail(reqCtx, id, "both")
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
		})
	})
}

func (p *SettingsPage) verifyEmail(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Configs.VerifyEmail(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Email configuration verified")
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) testSMS(ctx app.Context, id int) {
	number := p.testNumber
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Configs.TestSMS(reqCtx, id, number)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess(res.Message)
		})
	})
}

func (p *SettingsPage) verifySMS(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Configs.VerifySMS(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("SMS configuration verified")
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) deleteEmail(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Configs.DeleteEmail(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Email configuration deleted")
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) deleteSMS(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Configs.DeleteSMS(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("SMS configuration deleted")
			p.load(ctx)
		})
	})
}

func (p *SettingsPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/settings",
			app.H2().Text("Settings"),

			app.H3().Text("Email accounts"),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Address"),
					app.Th().Text("Provider"),
					app.Th().Text("SMTP"),
					app.Th().Text("Verified"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(p.emailConfigs).Slice(func(i int) app.UI {
						cfg := p.emailConfigs[i]
						return app.Tr().Body(
							app.Td().Text(cfg.EmailAddress),
							app.Td().Text(cfg.Provider),
							app.Td().Text(cfg.SMTPHost+":"+strconv.Itoa(cfg.SMTPPort)),
							app.Td().Text(yesNo(cfg.IsVerified)),
							app.Td().Body(
								app.Button().Class("btn-small").Text("Test").
									OnClick(func(ctx app.Context, e app.Event) {
										p.testEmail(ctx, cfg.ID)
									}),
								app.If(!cfg.IsVerified, func() app.UI {
									return app.Button().Class("btn-small").Text("Verify").
										OnClick(func(ctx app.Context, e app.Event) {
											p.verifyEmail(ctx, cfg.ID)
										})
								}),
								app.Button().Class("btn-small btn-danger").Text("Delete").
									OnClick(func(ctx app.Context, e app.Event) {
										p.deleteEmail(ctx, cfg.ID)
									}),
							),
						)
					}),
				),
			),
			app.Button().Class("btn-primary").Text("Add email account").
				OnClick(func(ctx app.Context, e app.Event) {
					p.emailFormOpen = true
					p.emailForm = crm.EmailConfigData{
						Provider: "smtp",
						SMTPPort: 587,
						IMAPPort: 993,
						UseTLS:   true,
					}
				}),
			app.If(p.emailFormOpen, p.renderEmailForm),

			app.H3().Text("SMS gateways"),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Provider"),
					app.Th().Text("From number"),
					app.Th().Text("Verified"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(p.smsConfigs).Slice(func(i int) app.UI {
						cfg := p.smsConfigs[i]
						return app.Tr().Body(
							app.Td().Text(cfg.Provider),
							app.Td().Text(cfg.FromNumber),
							app.Td().Text(yesNo(cfg.IsVerified)),
							app.Td().Body(
								app.Input().Type("text").Placeholder("Test number").
									Value(p.testNumber).
									OnInput(func(ctx app.Context, e app.Event) {
										p.testNumber = ctx.JSSrc().Get("value").String()
									}),
								app.Button().Class("btn-small").Text("Test").
									OnClick(func(ctx app.Context, e app.Event) {
										p.testSMS(ctx, cfg.ID)
									}),
								app.If(!cfg.IsVerified, func() app.UI {
									return app.Button().Class("btn-small").Text("Verify").
										OnClick(func(ctx app.Context, e app.Event) {
											p.verifySMS(ctx, cfg.ID)
										})
								}),
								app.Button().Class("btn-small btn-danger").Text("Delete").
									OnClick(func(ctx app.Context, e app.Event) {
										p.deleteSMS(ctx, cfg.ID)
									}),
							),
						)
					}),
				),
			),
			app.Button().Class("btn-primary").Text("Add SMS gateway").
				OnClick(func(ctx app.Context, e app.Event) {
					p.smsFormOpen = true
					p.smsForm = crm.SMSConfigData{Provider: "twilio"}
				}),
			app.If(p.smsFormOpen, p.renderSMSForm),
		)
	})
}

func (p *SettingsPage) renderEmailForm() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.saveEmail).Body(
		app.H3().Text("New email account"),
		app.Div().Class("field").Body(
			app.Label().Text("Provider"),
			providerSelect(p.emailProviders, p.emailForm.Provider,
				func(ctx app.Context, v string) { p.emailForm.Provider = v }),
		),
		textField("Email address", p.emailForm.EmailAddress, func(v string) { p.emailForm.EmailAddress = v }),
		textField("Display name", p.emailForm.DisplayName, func(v string) { p.emailForm.DisplayName = v }),
		textField("SMTP host", p.emailForm.SMTPHost, func(v string) { p.emailForm.SMTPHost = v }),
		numberField("SMTP port", p.emailForm.SMTPPort, func(v int) { p.emailForm.SMTPPort = v }),
		textField("SMTP username", p.emailForm.SMTPUsername, func(v string) { p.emailForm.SMTPUsername = v }),
		passwordField("SMTP password", p.emailForm.SMTPPassword, func(v string) { p.emailForm.SMTPPassword = v }),
		textField("IMAP host", p.emailForm.IMAPHost, func(v string) { p.emailForm.IMAPHost = v }),
		numberField("IMAP port", p.emailForm.IMAPPort, func(v int) { p.emailForm.IMAPPort = v }),
		app.Label().Class("checkbox").Body(
			app.Input().Type("checkbox").Checked(p.emailForm.UseTLS).
				OnChange(func(ctx app.Context, e app.Event) {
					p.emailForm.UseTLS = ctx.JSSrc().Get("checked").Bool()
				}),
			app.Span().Text("Use TLS"),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Save"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.emailFormOpen = false
				p.emailForm = crm.EmailConfigData{}
			}),
	)
}

func (p *SettingsPage) renderSMSForm() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.saveSMS).Body(
		app.H3().Text("New SMS gateway"),
		app.Div().Class("field").Body(
			app.Label().Text("Provider"),
			providerSelect(p.smsProviders, p.smsForm.Provider,
				func(ctx app.Context, v string) { p.smsForm.Provider = v }),
		),
		textField("Account SID", p.smsForm.AccountSID, func(v string) { p.smsForm.AccountSID = v }),
		passwordField("Auth token", p.smsForm.AuthToken, func(v string) { p.smsForm.AuthToken = v }),
		textField("From number", p.smsForm.FromNumber, func(v string) { p.smsForm.FromNumber = v }),
		textField("Webhook URL", p.smsForm.WebhookURL, func(v string) { p.smsForm.WebhookURL = v }),
		app.Button().Type("submit").Class("btn-primary").Text("Save"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.smsFormOpen = false
				p.smsForm = crm.SMSConfigData{}
			}),
	)
}

func providerSelect(providers []crm.Provider, value string, set func(app.Context, string)) app.UI {
	return app.Select().
		OnChange(func(ctx app.Context, e app.Event) {
			set(ctx, ctx.JSSrc().Get("value").String())
		}).
		Body(
			app.Range(providers).Slice(func(i int) app.UI {
				pr := providers[i]
				return app.Option().Value(pr.Value).Text(pr.Label).
					Selected(pr.Value == value)
			}),
		)
}

func numberField(label string, value int, set func(int)) app.UI {
	return app.Div().Class("field").Body(
		app.Label().Text(label),
		app.Input().Type("number").Value(strconv.Itoa(value)).
			OnInput(func(ctx app.Context, e app.Event) {
				n, _ := strconv.Atoi(ctx.JSSrc().Get("value").String())
				set(n)
			}),
	)
}
