package ui

import (
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// ContactsPage lists and edits contacts. Contact saves are full
// replaces, so the edit form carries every field the server stores.
type ContactsPage struct {
	page

	contacts  []crm.Contact
	count     int
	search    string
	customers bool

	companies []crm.Company

	editing  *crm.Contact
	formOpen bool
	form     crm.ContactData
}

func (c *ContactsPage) OnMount(ctx app.Context) {
	c.mount(ctx, c.load)
}

func (c *ContactsPage) load(ctx app.Context) {
	n := c.seq.next()
	reqCtx := c.ctx
	opts := crm.ContactListOptions{Search: c.search}
	if c.customers {
		opts.IsCustomer = crm.Bool(true)
	}
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Contacts.List(reqCtx, opts)
		companies, cerr := client.Companies.List(reqCtx, crm.CompanyListOptions{})
		ctx.Dispatch(func(ctx app.Context) {
			if !c.seq.current(n) {
				return
			}
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.contacts = res.Results
			c.count = res.Count
			if cerr == nil {
				c.companies = companies.Results
			}
		})
	})
}

func (c *ContactsPage) onSearch(ctx app.Context, e app.Event) {
	c.search = ctx.JSSrc().Get("value").String()
	c.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { c.load(ctx) })
	})
}

func (c *ContactsPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		c.debounce.flush()
	}
}

func (c *ContactsPage) startEdit(contact *crm.Contact) {
	c.editing = contact
	c.formOpen = true
	if contact == nil {
		c.form = crm.ContactData{}
		return
	}
	c.form = crm.ContactData{
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		Email:      contact.Email,
		Phone:      contact.Phone,
		Mobile:     contact.Mobile,
		JobTitle:   contact.JobTitle,
		Department: contact.Department,
		Address:    contact.Address,
		City:       contact.City,
		Country:    contact.Country,
		Notes:      contact.Notes,
		IsCustomer: contact.IsCustomer,
		IsProspect: contact.IsProspect,
	}
	if contact.Company != nil {
		c.form.Company = contact.Company.ID
	}
}

func (c *ContactsPage) closeForm() {
	c.editing = nil
	c.formOpen = false
	c.form = crm.ContactData{}
}

func (c *ContactsPage) save(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := c.form
	editing := c.editing
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		var err error
		if editing != nil {
			_, err = client.Contacts.Update(reqCtx, editing.ID, data)
		} else {
			_, err = client.Contacts.Create(reqCtx, data)
		}
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.showSuccess("Contact saved")
			c.closeForm()
			c.load(ctx)
		})
	})
}

func (c *ContactsPage) remove(ctx app.Context, id int) {
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		err := client.Contacts.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.showSuccess("Contact deleted")
			c.load(ctx)
		})
	})
}

func (c *ContactsPage) Render() app.UI {
	return c.guard(func() app.UI {
		return c.shell("/contacts",
			app.H2().Text("Contacts"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search contacts...").
					Value(c.search).
					OnInput(c.onSearch).
					OnKeyDown(c.onSearchKey),
				app.Label().Class("checkbox").Body(
					app.Input().Type("checkbox").Checked(c.customers).
						OnChange(func(ctx app.Context, e app.Event) {
							c.customers = ctx.JSSrc().Get("checked").Bool()
							c.load(ctx)
						}),
					app.Span().Text("Customers only"),
				),
				app.Button().Class("btn-primary").Text("New contact").
					OnClick(func(ctx app.Context, e app.Event) {
						c.startEdit(nil)
					}),
			),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Name"),
					app.Th().Text("Email"),
					app.Th().Text("Company"),
					app.Th().Text("Job title"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(c.contacts).Slice(func(i int) app.UI {
						contact := c.contacts[i]
						return app.Tr().Body(
							app.Td().Text(contact.FirstName+" "+contact.LastName),
							app.Td().Text(contact.Email),
							app.Td().Text(companyName(contact.Company)),
							app.Td().Text(contact.JobTitle),
							app.Td().Body(
								app.Button().Class("btn-small").Text("Edit").
									OnClick(func(ctx app.Context, e app.Event) {
										c.startEdit(&c.contacts[i])
									}),
								app.Button().Class("btn-small btn-danger").Text("Delete").
									OnClick(func(ctx app.Context, e app.Event) {
										c.remove(ctx, contact.ID)
									}),
							),
						)
					}),
				),
			),
			app.If(c.formOpen, c.renderForm),
		)
	})
}

func (c *ContactsPage) renderForm() app.UI {
	title := "New contact"
	if c.editing != nil {
		title = "Edit " + c.editing.FirstName + " " + c.editing.LastName
	}
	return app.Form().Class("edit-form").OnSubmit(c.save).Body(
		app.H3().Text(title),
		textField("First name", c.form.FirstName, func(v string) { c.form.FirstName = v }),
		textField("Last name", c.form.LastName, func(v string) { c.form.LastName = v }),
		textField("Email", c.form.Email, func(v string) { c.form.Email = v }),
		textField("Phone", c.form.Phone, func(v string) { c.form.Phone = v }),
		textField("Mobile", c.form.Mobile, func(v string) { c.form.Mobile = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Company"),
			app.Select().
				OnChange(func(ctx app.Context, e app.Event) {
					c.form.Company, _ = strconv.Atoi(ctx.JSSrc().Get("value").String())
				}).
				Body(
					app.Option().Value("0").Text("No company"),
					app.Range(c.companies).Slice(func(i int) app.UI {
						company := c.companies[i]
						return app.Option().
							Value(strconv.Itoa(company.ID)).
							Text(company.Name).
							Selected(company.ID == c.form.Company)
					}),
				),
		),
		textField("Job title", c.form.JobTitle, func(v string) { c.form.JobTitle = v }),
		textField("Department", c.form.Department, func(v string) { c.form.Department = v }),
		textField("City", c.form.City, func(v string) { c.form.City = v }),
		textField("Country", c.form.Country, func(v string) { c.form.Country = v }),
		textField("Notes", c.form.Notes, func(v string) { c.form.Notes = v }),
		app.Label().Class("checkbox").Body(
			app.Input().Type("checkbox").Checked(c.form.IsCustomer).
				OnChange(func(ctx app.Context, e app.Event) {
					c.form.IsCustomer = ctx.JSSrc().Get("checked").Bool()
				}),
			app.Span().Text("Customer"),
		),
		app.Label().Class("checkbox").Body(
			app.Input().Type("checkbox").Checked(c.form.IsProspect).
				OnChange(func(ctx app.Context, e app.Event) {
					c.form.IsProspect = ctx.JSSrc().Get("checked").Bool()
				}),
			app.Span().Text("Prospect"),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Save"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) { c.closeForm() }),
	)
}

func companyName(ref *crm.CompanyRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}
