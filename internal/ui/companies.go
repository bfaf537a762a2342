package ui

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// CompaniesPage lists and edits companies. Search is debounced; every
// list request carries a sequence number so stale responses never land.
type CompaniesPage struct {
	page

	companies []crm.Company
	count     int
	search    string
	industry  string
	customers bool

	editing  *crm.Company
	formOpen bool
	form     companyForm
}

type companyForm struct {
	Name       string
	Industry   string
	Website    string
	Phone      string
	City       string
	Country    string
	IsCustomer bool
}

func (c *CompaniesPage) OnMount(ctx app.Context) {
	c.mount(ctx, c.load)
}

func (c *CompaniesPage) load(ctx app.Context) {
	n := c.seq.next()
	reqCtx := c.ctx
	opts := crm.CompanyListOptions{Search: c.search, Industry: c.industry}
	if c.customers {
		opts.IsCustomer = crm.Bool(true)
	}
	client := c.backend.Client
	ctx.Async(func() {
		res, err := client.Companies.List(reqCtx, opts)
		ctx.Dispatch(func(ctx app.Context) {
			if !c.seq.current(n) {
				return
			}
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.companies = res.Results
			c.count = res.Count
		})
	})
}

func (c *CompaniesPage) onSearch(ctx app.Context, e app.Event) {
	c.search = ctx.JSSrc().Get("value").String()
	c.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { c.load(ctx) })
	})
}

func (c *CompaniesPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		c.debounce.flush()
	}
}

func (c *CompaniesPage) startEdit(company *crm.Company) {
	c.editing = company
	c.formOpen = true
	if company != nil {
		c.form = companyForm{
			Name:       company.Name,
			Industry:   company.Industry,
			Website:    company.Website,
			Phone:      company.Phone,
			City:       company.City,
			Country:    company.Country,
			IsCustomer: company.IsCustomer,
		}
	} else {
		c.form = companyForm{}
	}
}

// companyPayload snapshots the form into a request body. The form is
// taken by value so edits made while the request is in flight cannot
// shift the payload.
func companyPayload(form companyForm) crm.CompanyData {
	return crm.CompanyData{
		Name:       &form.Name,
		Industry:   &form.Industry,
		Website:    &form.Website,
		Phone:      &form.Phone,
		City:       &form.City,
		Country:    &form.Country,
		IsCustomer: &form.IsCustomer,
	}
}

func (c *CompaniesPage) save(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := companyPayload(c.form)
	editing := c.editing
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		var err error
		if editing != nil {
			_, err = client.Companies.Update(reqCtx, editing.ID, data)
		} else {
			_, err = client.Companies.Create(reqCtx, data)
		}
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.showSuccess("Company saved")
			c.editing = nil
			c.formOpen = false
			c.form = companyForm{}
			c.load(ctx)
		})
	})
}

func (c *CompaniesPage) remove(ctx app.Context, id int) {
	reqCtx := c.ctx
	client := c.backend.Client
	ctx.Async(func() {
		err := client.Companies.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				c.showError(ctx, err)
				return
			}
			c.showSuccess("Company deleted")
			c.load(ctx)
		})
	})
}

func (c *CompaniesPage) Render() app.UI {
	return c.guard(func() app.UI {
		return c.shell("/companies",
			app.H2().Text("Companies"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search companies...").
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
				app.Button().Class("btn-primary").Text("New company").
					OnClick(func(ctx app.Context, e app.Event) {
						c.startEdit(nil)
					}),
			),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Name"),
					app.Th().Text("Industry"),
					app.Th().Text("City"),
					app.Th().Text("Customer"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(c.companies).Slice(func(i int) app.UI {
						company := c.companies[i]
						return app.Tr().Body(
							app.Td().Text(company.Name),
							app.Td().Text(company.Industry),
							app.Td().Text(company.City),
							app.Td().Text(yesNo(company.IsCustomer)),
							app.Td().Body(
								app.Button().Class("btn-small").Text("Edit").
									OnClick(func(ctx app.Context, e app.Event) {
										c.startEdit(&c.companies[i])
									}),
								app.Button().Class("btn-small btn-danger").Text("Delete").
									OnClick(func(ctx app.Context, e app.Event) {
										c.remove(ctx, company.ID)
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

func (c *CompaniesPage) renderForm() app.UI {
	title := "New company"
	if c.editing != nil {
		title = "Edit " + c.editing.Name
	}
	return app.Form().Class("edit-form").OnSubmit(c.save).Body(
		app.H3().Text(title),
		textField("Name", c.form.Name, func(v string) { c.form.Name = v }),
		textField("Industry", c.form.Industry, func(v string) { c.form.Industry = v }),
		textField("Website", c.form.Website, func(v string) { c.form.Website = v }),
		textField("Phone", c.form.Phone, func(v string) { c.form.Phone = v }),
		textField("City", c.form.City, func(v string) { c.form.City = v }),
		textField("Country", c.form.Country, func(v string) { c.form.Country = v }),
		app.Label().Class("checkbox").Body(
			app.Input().Type("checkbox").Checked(c.form.IsCustomer).
				OnChange(func(ctx app.Context, e app.Event) {
					c.form.IsCustomer = ctx.JSSrc().Get("checked").Bool()
				}),
			app.Span().Text("Customer"),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Save"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				c.editing = nil
				c.formOpen = false
				c.form = companyForm{}
			}),
	)
}

func textField(label, value string, set func(string)) app.UI {
	return app.Div().Class("field").Body(
		app.Label().Text(label),
		app.Input().Type("text").Value(value).
			OnInput(func(ctx app.Context, e app.Event) {
				set(ctx.JSSrc().Get("value").String())
			}),
	)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
