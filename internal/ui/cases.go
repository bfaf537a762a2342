package ui

import (
	"strconv"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

var (
	caseStatuses   = []string{"open", "in_progress", "pending", "resolved", "closed"}
	casePriorities = []string{"low", "medium", "high", "urgent"}
	caseCategories = []string{"general", "technical", "billing", "complaint", "feature_request"}
)

// CasesPage is the support case workspace: a filterable queue on the
// left and, once a case is opened, its thread and actions.
type CasesPage struct {
	page

	cases    []crm.Case
	count    int
	status   string
	priority string
	search   string

	users    []crm.User
	contacts []crm.Contact

	selected *crm.Case
	reply    crm.CreateCaseResponseData

	formOpen bool
	form     crm.CreateCaseData
}

func (c *CasesPage) OnMount(ctx app.Context) {
	c.mount(ctx, c.load)
}

func (c *CasesPage) load(ctx app.Context) {
	n := c.seq.next()
	reqCtx := c.ctx
	opts := crm.CaseListOptions{
		Status:   c.status,
		Priority: c.priority,
		Search:   c.search,
		Ordering: "-created_at",
	}
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Cases.List(reqCtx, opts)
		users, uerr := client.Users.List(reqCtx, crm.UserListOptions{})
		contacts, cerr := client.Contacts.List(reqCtx, crm.ContactListOptions{})
		ctx.Dispatch(func(ctx app.Context) {
			if !c.seq.current(n) {
				return
			}
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.cases = res.Results
			c.count = res.Count
			if uerr == nil {
				c.users = users.Results
			}
			if cerr == nil {
				c.contacts = contacts.Results
			}
		})
	})
}

func (c *CasesPage) onSearch(ctx app.Context, e app.Event) {
	c.search = ctx.JSSrc().Get("value").String()
	c.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { c.load(ctx) })
	})
}

func (c *CasesPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		c.debounce.flush()
	}
}

func (c *CasesPage) open(ctx app.Context, id int) {
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		detail, err := client.Cases.Get(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.selected = detail
			c.reply = crm.CreateCaseResponseData{Case: detail.ID, ResponseType: "note"}
		})
	})
}

// applyAction refreshes the open case after a POST action and surfaces
// the notifications the server reports.
func (c *CasesPage) applyAction(ctx app.Context, res *crm.CaseActionResult, err error) {
	if err != nil {
		c.showError(ctx, err)
		return
	}
	updated := res.Case
	c.selected = &updated
	msg := "Case updated"
	if res.Notifications != nil && res.Notifications.EmailSent {
		msg += " (email notification sent)"
	}
	c.showSuccess(msg)
}

func (c *CasesPage) assign(ctx app.Context, userID int) {
	caseID := c.selected.ID
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Cases.Assign(reqCtx, caseID, userID, "")
		ctx.Dispatch(func(ctx app.Context) {
			c.applyAction(ctx, res, err)
			c.load(ctx)
		})
	})
}

func (c *CasesPage) setPriority(ctx app.Context, priority string) {
	caseID := c.selected.ID
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Cases.UpdatePriority(reqCtx, caseID, priority, "")
		ctx.Dispatch(func(ctx app.Context) {
			c.applyAction(ctx, res, err)
			c.load(ctx)
		})
	})
}

func (c *CasesPage) setStatus(ctx app.Context, status string) {
	caseID := c.selected.ID
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Cases.UpdateStatus(reqCtx, caseID, status, "")
		ctx.Dispatch(func(ctx app.Context) {
			c.applyAction(ctx, res, err)
			c.load(ctx)
		})
	})
}

func (c *CasesPage) escalate(ctx app.Context) {
	caseID := c.selected.ID
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Cases.Escalate(reqCtx, caseID)
		ctx.Dispatch(func(ctx app.Context) {
			c.applyAction(ctx, res, err)
			c.load(ctx)
		})
	})
}

func (c *CasesPage) sendReply(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if strings.TrimSpace(c.reply.Content) == "" {
		return
	}
	data := c.reply
	caseID := c.selected.ID
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		_, err := client.Cases.CreateResponse(reqCtx, data)
		detail, derr := client.Cases.Get(reqCtx, caseID)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			if derr == nil {
				c.selected = detail
			}
			c.reply = crm.CreateCaseResponseData{Case: caseID, ResponseType: "note"}
			c.showSuccess("Response added")
		})
	})
}

func (c *CasesPage) create(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if strings.TrimSpace(c.form.Title) == "" ||
		strings.TrimSpace(c.form.Description) == "" ||
		c.form.Customer == 0 {
		c.showError(ctx, errText("Title, description and customer are required"))
		return
	}
	data := c.form
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		created, err := client.Cases.Create(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.showSuccess("Case " + created.CaseNumber + " created")
			c.formOpen = false
			c.form = crm.CreateCaseData{}
			c.load(ctx)
		})
	})
}

func (c *CasesPage) Render() app.UI {
	return c.guard(func() app.UI {
		return c.shell("/cases",
			app.H2().Text("Cases"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search cases...").
					Value(c.search).
					OnInput(c.onSearch).
					OnKeyDown(c.onSearchKey),
				filterSelect("All statuses", caseStatuses, c.status,
					func(ctx app.Context, v string) {
						c.status = v
						c.load(ctx)
					}),
				filterSelect("All priorities", casePriorities, c.priority,
					func(ctx app.Context, v string) {
						c.priority = v
						c.load(ctx)
					}),
				app.Button().Class("btn-primary").Text("New case").
					OnClick(func(ctx app.Context, e app.Event) {
						c.formOpen = true
						c.form = crm.CreateCaseData{Category: "general", Priority: "medium"}
					}),
			),
			app.Div().Class("split").Body(
				c.renderQueue(),
				app.If(c.selected != nil, c.renderDetail),
			),
			app.If(c.formOpen, c.renderCreateForm),
		)
	})
}

func (c *CasesPage) renderQueue() app.UI {
	return app.Table().Class("data-table").Body(
		app.THead().Body(app.Tr().Body(
			app.Th().Text("Case"),
			app.Th().Text("Title"),
			app.Th().Text("Priority"),
			app.Th().Text("Status"),
			app.Th().Text("Assigned"),
		)),
		app.TBody().Body(
			app.Range(c.cases).Slice(func(i int) app.UI {
				sc := c.cases[i]
				cls := "case-row"
				if sc.IsOverdue || sc.SLABreach {
					cls += " overdue"
				}
				return app.Tr().Class(cls).
					OnClick(func(ctx app.Context, e app.Event) {
						c.open(ctx, sc.ID)
					}).
					Body(
						app.Td().Text(sc.CaseNumber),
						app.Td().Text(sc.Title),
						app.Td().Body(priorityBadge(sc.Priority)),
						app.Td().Text(sc.Status),
						app.Td().Text(userName(sc.AssignedTo)),
					)
			}),
		),
	)
}

func (c *CasesPage) renderDetail() app.UI {
	sc := c.selected
	return app.Div().Class("case-detail").Body(
		app.H3().Text(sc.CaseNumber+" "+sc.Title),
		app.P().Text(sc.Description),
		app.Div().Class("case-meta").Body(
			app.Span().Text("Customer: "+sc.Customer),
			app.Span().Text("Category: "+sc.Category),
			app.If(sc.IsOverdue, func() app.UI {
				return app.Span().Class("badge badge-danger").Text("Overdue")
			}),
			app.If(sc.SLABreach, func() app.UI {
				return app.Span().Class("badge badge-danger").Text("SLA breach")
			}),
		),
		app.Div().Class("case-actions").Body(
			app.Label().Text("Status"),
			optionSelect(caseStatuses, sc.Status, func(ctx app.Context, v string) {
				c.setStatus(ctx, v)
			}),
			app.Label().Text("Priority"),
			optionSelect(casePriorities, sc.Priority, func(ctx app.Context, v string) {
				c.setPriority(ctx, v)
			}),
			app.Label().Text("Assign to"),
			app.Select().
				OnChange(func(ctx app.Context, e app.Event) {
					id, _ := strconv.Atoi(ctx.JSSrc().Get("value").String())
					if id > 0 {
						c.assign(ctx, id)
					}
				}).
				Body(
					app.Option().Value("0").Text("Unassigned").
						Selected(sc.AssignedTo == nil),
					app.Range(c.users).Slice(func(i int) app.UI {
						u := c.users[i]
						return app.Option().
							Value(strconv.Itoa(u.ID)).
							Text(u.FirstName + " " + u.LastName).
							Selected(sc.AssignedTo != nil && sc.AssignedTo.ID == u.ID)
					}),
				),
			app.Button().Class("btn-small").Text("Escalate").
				OnClick(func(ctx app.Context, e app.Event) { c.escalate(ctx) }),
			app.Button().Class("btn-small").Text("Close").
				OnClick(func(ctx app.Context, e app.Event) { c.selected = nil }),
		),
		app.H4().Text("Responses ("+strconv.Itoa(sc.ResponseCount)+")"),
		app.Div().Class("thread").Body(
			app.Range(sc.Responses).Slice(func(i int) app.UI {
				r := sc.Responses[i]
				cls := "response"
				if r.IsInternal {
					cls += " internal"
				}
				return app.Div().Class(cls).Body(
					app.Div().Class("response-head").Body(
						app.Strong().Text(r.Author.FirstName+" "+r.Author.LastName),
						app.Span().Text(r.ResponseType),
						app.Span().Text(r.CreatedAt),
					),
					app.P().Text(r.Content),
				)
			}),
		),
		app.Form().Class("reply-form").OnSubmit(c.sendReply).Body(
			app.Textarea().Placeholder("Write a response...").
				Text(c.reply.Content).
				OnInput(func(ctx app.Context, e app.Event) {
					c.reply.Content = ctx.JSSrc().Get("value").String()
				}),
			optionSelect([]string{"note", "email", "status_change"}, c.reply.ResponseType,
				func(ctx app.Context, v string) { c.reply.ResponseType = v }),
			app.Label().Class("checkbox").Body(
				app.Input().Type("checkbox").Checked(c.reply.IsInternal).
					OnChange(func(ctx app.Context, e app.Event) {
						c.reply.IsInternal = ctx.JSSrc().Get("checked").Bool()
					}),
				app.Span().Text("Internal note"),
			),
			app.Button().Type("submit").Class("btn-primary").Text("Add response"),
		),
	)
}

func (c *CasesPage) renderCreateForm() app.UI {
	return app.Form().Class("edit-form").OnSubmit(c.create).Body(
		app.H3().Text("New case"),
		textField("Title", c.form.Title, func(v string) { c.form.Title = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Description"),
			app.Textarea().Text(c.form.Description).
				OnInput(func(ctx app.Context, e app.Event) {
					c.form.Description = ctx.JSSrc().Get("value").String()
				}),
		),
		app.Div().Class("field").Body(
			app.Label().Text("Customer"),
			app.Select().
				OnChange(func(ctx app.Context, e app.Event) {
					c.form.Customer, _ = strconv.Atoi(ctx.JSSrc().Get("value").String())
				}).
				Body(
					app.Option().Value("0").Text("Select a contact"),
					app.Range(c.contacts).Slice(func(i int) app.UI {
						ct := c.contacts[i]
						return app.Option().
							Value(strconv.Itoa(ct.ID)).
							Text(ct.FirstName + " " + ct.LastName).
							Selected(ct.ID == c.form.Customer)
					}),
				),
		),
		app.Div().Class("field").Body(
			app.Label().Text("Category"),
			optionSelect(caseCategories, c.form.Category,
				func(ctx app.Context, v string) { c.form.Category = v }),
		),
		app.Div().Class("field").Body(
			app.Label().Text("Priority"),
			optionSelect(casePriorities, c.form.Priority,
				func(ctx app.Context, v string) { c.form.Priority = v }),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Create"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				c.formOpen = false
				c.form = crm.CreateCaseData{}
			}),
	)
}

func priorityBadge(priority string) app.UI {
	return app.Span().Class("badge badge-" + priority).Text(priority)
}

func userName(ref *crm.UserRef) string {
	if ref == nil {
		return ""
	}
	return ref.FirstName + " " + ref.LastName
}

// filterSelect is a toolbar dropdown whose empty value means "no filter".
func filterSelect(blank string, options []string, value string, set func(app.Context, string)) app.UI {
	return app.Select().
		OnChange(func(ctx app.Context, e app.Event) {
			set(ctx, ctx.JSSrc().Get("value").String())
		}).
		Body(
			app.Option().Value("").Text(blank).Selected(value == ""),
			app.Range(options).Slice(func(i int) app.UI {
				return app.Option().Value(options[i]).Text(options[i]).
					Selected(options[i] == value)
			}),
		)
}

func optionSelect(options []string, value string, set func(app.Context, string)) app.UI {
	return app.Select().
		OnChange(func(ctx app.Context, e app.Event) {
			set(ctx, ctx.JSSrc().Get("value").String())
		}).
		Body(
			app.Range(options).Slice(func(i int) app.UI {
				return app.Option().Value(options[i]).Text(options[i]).
					Selected(options[i] == value)
			}),
		)
}
