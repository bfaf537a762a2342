package ui

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

var userRoles = []string{"admin", "manager", "agent"}

// UsersPage is the team directory. Role changes and account removal are
// only offered to admins; the server enforces the same rule.
type UsersPage struct {
	page

	users    []crm.User
	role     string
	search   string

	signupOpen bool
	signup     crm.SignupData
}

func (p *UsersPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *UsersPage) isAdmin() bool {
	u := p.backend.Session.User()
	return u != nil && u.Role == "admin"
}

func (p *UsersPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	opts := crm.UserListOptions{Search: p.search, Role: p.role}
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Users.List(reqCtx, opts)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.users = res.Results
		})
	})
}

func (p *UsersPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *UsersPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *UsersPage) setRole(ctx app.Context, id int, role string) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Users.Update(reqCtx, id, crm.UpdateUserData{Role: &role})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Role updated")
			p.load(ctx)
		})
	})
}

func (p *UsersPage) setActive(ctx app.Context, id int, active bool) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Users.Update(reqCtx, id, crm.UpdateUserData{IsActive: &active})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("User updated")
			p.load(ctx)
		})
	})
}

func (p *UsersPage) remove(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Users.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("User deleted")
			p.load(ctx)
		})
	})
}

func (p *UsersPage) create(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.signup.Password != p.signup.PasswordConfirm {
		p.showError(ctx, errText("Passwords do not match"))
		return
	}
	data := p.signup
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Users.Signup(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("User created")
			p.signupOpen = false
			p.signup = crm.SignupData{}
			p.load(ctx)
		})
	})
}

func (p *UsersPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/users",
			app.H2().Text("Team"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search users...").
					Value(p.search).
					OnInput(p.onSearch).
					OnKeyDown(p.onSearchKey),
				filterSelect("All roles", userRoles, p.role,
					func(ctx app.Context, v string) {
						p.role = v
						p.load(ctx)
					}),
				app.If(p.isAdmin(), func() app.UI {
					return app.Button().Class("btn-primary").Text("New user").
						OnClick(func(ctx app.Context, e app.Event) {
							p.signupOpen = true
							p.signup = crm.SignupData{Role: "agent"}
						})
				}),
			),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Name"),
					app.Th().Text("Email"),
					app.Th().Text("Role"),
					app.Th().Text("Active"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(p.users).Slice(func(i int) app.UI {
						u := p.users[i]
						return app.Tr().Body(
							app.Td().Text(u.FirstName+" "+u.LastName),
							app.Td().Text(u.Email),
							app.Td().Body(p.renderRole(u)),
							app.Td().Body(
								app.Input().Type("checkbox").Checked(u.IsActive).
									Disabled(!p.isAdmin()).
									OnChange(func(ctx app.Context, e app.Event) {
										p.setActive(ctx, u.ID, ctx.JSSrc().Get("checked").Bool())
									}),
							),
							app.Td().Body(
								app.If(p.isAdmin(), func() app.UI {
									return app.Button().Class("btn-small btn-danger").Text("Delete").
										OnClick(func(ctx app.Context, e app.Event) {
											p.remove(ctx, u.ID)
										})
								}),
							),
						)
					}),
				),
			),
			app.If(p.signupOpen, p.renderSignup),
		)
	})
}

func (p *UsersPage) renderRole(u crm.User) app.UI {
	if !p.isAdmin() {
		return app.Span().Text(u.Role)
	}
	return optionSelect(userRoles, u.Role, func(ctx app.Context, v string) {
		p.setRole(ctx, u.ID, v)
	})
}

func (p *UsersPage) renderSignup() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.create).Body(
		app.H3().Text("New user"),
		textField("First name", p.signup.FirstName, func(v string) { p.signup.FirstName = v }),
		textField("Last name", p.signup.LastName, func(v string) { p.signup.LastName = v }),
		textField("Email", p.signup.Email, func(v string) { p.signup.Email = v }),
		passwordField("Password", p.signup.Password, func(v string) { p.signup.Password = v }),
		passwordField("Confirm password", p.signup.PasswordConfirm, func(v string) { p.signup.PasswordConfirm = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Role"),
			optionSelect(userRoles, p.signup.Role,
				func(ctx app.Context, v string) { p.signup.Role = v }),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Create"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.signupOpen = false
				p.signup = crm.SignupData{}
			}),
	)
}

func passwordField(label, value string, set func(string)) app.UI {
	return app.Div().Class("field").Body(
		app.Label().Text(label),
		app.Input().Type("password").Value(value).
			OnInput(func(ctx app.Context, e app.Event) {
				set(ctx.JSSrc().Get("value").String())
			}),
	)
}

// errText wraps a plain message as an error for the notice banner.
type errText string

func (e errText) Error() string { return string(e) }
