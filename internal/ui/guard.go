package ui

import (
	"context"
	"errors"
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// page is the shared base for authenticated screens: the session gate,
// a request context cancelled on dismount, and a stale-response guard.
type page struct {
	app.Compo

	backend  *Backend
	ctx      context.Context
	cancel   context.CancelFunc
	seq      sequence
	debounce *debouncer

	notice     string
	noticeKind string
}

// mount resolves the session, then runs load once authenticated.
// Unauthenticated visitors are sent to the login screen.
func (p *page) mount(ctx app.Context, load func(app.Context)) {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.debounce = newDebouncer(searchDelay)

	sess := p.backend.Session
	if sess.State() == crm.StateLoading {
		reqCtx := p.ctx
		ctx.Async(func() {
			sess.Init(reqCtx)
			ctx.Dispatch(func(ctx app.Context) {
				p.afterAuth(ctx, load)
			})
		})
		return
	}
	p.afterAuth(ctx, load)
}

func (p *page) afterAuth(ctx app.Context, load func(app.Context)) {
	if !p.backend.Session.IsAuthenticated() {
		ctx.Navigate("/login")
		return
	}
	if load != nil {
		load(ctx)
	}
}

func (p *page) OnDismount() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.debounce != nil {
		p.debounce.stop()
	}
}

// sessionExpired reports whether err is the backend rejecting our
// credentials. The client already tried a token refresh before this
// error surfaced, so the only recovery is a fresh login.
func sessionExpired(err error) bool {
	var apiErr *crm.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// showError surfaces err as a notice banner. An expired session is the
// exception: stale credentials are dropped and the visitor is sent back
// to the login screen instead of being left on a dead screen.
func (p *page) showError(ctx app.Context, err error) {
	if sessionExpired(err) {
		p.backend.Session.Logout()
		ctx.Navigate("/login")
		return
	}
	p.notice = err.Error()
	p.noticeKind = "error"
}

func (p *page) showSuccess(msg string) {
	p.notice = msg
	p.noticeKind = "success"
}

func (p *page) clearNotice() {
	p.notice = ""
	p.noticeKind = ""
}

// guard wraps a screen body: a spinner while the session resolves, the
// body once authenticated. The login redirect is already in flight in
// the unauthenticated case.
func (p *page) guard(body func() app.UI) app.UI {
	if !p.backend.Session.IsAuthenticated() {
		return app.Div().Class("loading-screen").Body(
			app.Div().Class("spinner"),
			app.P().Text("Loading..."),
		)
	}
	return body()
}
