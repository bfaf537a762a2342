// Package ui holds the browser client: one go-app component per screen,
// all talking to the CRM API through a shared session.
package ui

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// Backend bundles the API client and session every screen depends on.
// It is injected at route registration; components never reach for
// globals.
type Backend struct {
	Client  *crm.Client
	Session *crm.Session
}

func NewBackend(apiURL string) *Backend {
	client := crm.New(apiURL, &crm.LocalTokenStore{})
	return &Backend{Client: client, Session: crm.NewSession(client)}
}

// RegisterRoutes maps every screen. Call before app.RunWhenOnBrowser.
func RegisterRoutes(b *Backend) {
	app.Route("/", func() app.Composer { return &DashboardPage{page: page{backend: b}} })
	app.Route("/login", func() app.Composer { return &LoginPage{backend: b} })
	app.Route("/companies", func() app.Composer { return &CompaniesPage{page: page{backend: b}} })
	app.Route("/contacts", func() app.Composer { return &ContactsPage{page: page{backend: b}} })
	app.Route("/cases", func() app.Composer { return &CasesPage{page: page{backend: b}} })
	app.Route("/emails", func() app.Composer { return &EmailsPage{page: page{backend: b}} })
	app.Route("/sms", func() app.Composer { return &SMSPage{page: page{backend: b}} })
	app.Route("/meetings", func() app.Composer { return &MeetingsPage{page: page{backend: b}} })
	app.Route("/tasks", func() app.Composer { return &TasksPage{page: page{backend: b}} })
	app.Route("/documents", func() app.Composer { return &DocumentsPage{page: page{backend: b}} })
	app.Route("/users", func() app.Composer { return &UsersPage{page: page{backend: b}} })
	app.Route("/settings", func() app.Composer { return &SettingsPage{page: page{backend: b}} })
}

var navItems = []struct {
	Label string
	Path  string
}{
	{"Dashboard", "/"},
	{"Companies", "/companies"},
	{"Contacts", "/contacts"},
	{"Cases", "/cases"},
	{"Emails", "/emails"},
	{"SMS", "/sms"},
	{"Meetings", "/meetings"},
	{"Tasks", "/tasks"},
	{"Documents", "/documents"},
	{"Users", "/users"},
	{"Settings", "/settings"},
}

// shell is the common chrome: top nav, user menu, notice banner.
func (p *page) shell(active string, content ...app.UI) app.UI {
	user := p.backend.Session.User()
	name := ""
	if user != nil {
		name = user.FirstName + " " + user.LastName
	}

	return app.Div().Class("app").Body(
		app.Header().Class("topbar").Body(
			app.Span().Class("brand").Text("Mint CRM"),
			app.Nav().Body(
				app.Range(navItems).Slice(func(i int) app.UI {
					item := navItems[i]
					cls := "nav-link"
					if item.Path == active {
						cls += " active"
					}
					return app.A().Class(cls).Href(item.Path).Text(item.Label)
				}),
			),
			app.Div().Class("user-menu").Body(
				app.Span().Class("user-name").Text(name),
				app.Button().Class("btn-link").Text("Log out").OnClick(p.onLogout),
			),
		),
		app.If(p.notice != "", func() app.UI {
			return app.Div().Class("notice notice-"+p.noticeKind).Body(
				app.Span().Text(p.notice),
				app.Button().Class("notice-close").Text("×").OnClick(func(ctx app.Context, e app.Event) {
					p.clearNotice()
				}),
			)
		}),
		app.Main().Class("content").Body(content...),
	)
}

func (p *page) onLogout(ctx app.Context, e app.Event) {
	p.backend.Session.Logout()
	ctx.Navigate("/login")
}
