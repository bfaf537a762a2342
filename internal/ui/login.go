package ui

import (
	"context"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// LoginPage is the only unauthenticated screen. It does not embed page;
// the session gate would loop a redirect back to itself.
type LoginPage struct {
	app.Compo

	backend *Backend

	email    string
	password string
	errMsg   string
	busy     bool
}

func (l *LoginPage) OnMount(ctx app.Context) {
	sess := l.backend.Session
	if sess.State() == crm.StateLoading {
		ctx.Async(func() {
			sess.Init(context.Background())
			ctx.Dispatch(func(ctx app.Context) {
				if sess.IsAuthenticated() {
					ctx.Navigate("/")
				}
			})
		})
		return
	}
	if sess.IsAuthenticated() {
		ctx.Navigate("/")
	}
}

func (l *LoginPage) submit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if l.busy || l.email == "" || l.password == "" {
		return
	}
	l.busy = true
	l.errMsg = ""

	email, password := l.email, l.password
	sess := l.backend.Session
	ctx.Async(func() {
		err := sess.Login(context.Background(), email, password)
		ctx.Dispatch(func(ctx app.Context) {
			l.busy = false
			if err != nil {
				l.errMsg = err.Error()
				return
			}
			ctx.Navigate("/")
		})
	})
}

func (l *LoginPage) Render() app.UI {
	return app.Div().Class("login-screen").Body(
		app.Form().Class("login-card").OnSubmit(l.submit).Body(
			app.H1().Text("Mint CRM"),
			app.P().Class("login-subtitle").Text("Sign in to your workspace"),
			app.If(l.errMsg != "", func() app.UI {
				return app.Div().Class("notice notice-error").Text(l.errMsg)
			}),
			app.Label().For("email").Text("Email"),
			app.Input().ID("email").Type("email").Value(l.email).
				Placeholder("you@company.com").
				OnInput(func(ctx app.Context, e app.Event) {
					l.email = ctx.JSSrc().Get("value").String()
				}),
			app.Label().For("password").Text("Password"),
			app.Input().ID("password").Type("password").Value(l.password).
				OnInput(func(ctx app.Context, e app.Event) {
					l.password = ctx.JSSrc().Get("value").String()
				}),
			app.Button().Type("submit").Class("btn-primary").
				Disabled(l.busy).
				Text(loginLabel(l.busy)),
		),
	)
}

func loginLabel(busy bool) string {
	if busy {
		return "Signing in..."
	}
	return "Sign in"
}
