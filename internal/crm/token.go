package crm

import "github.com/maxence-charriere/go-app/v10/pkg/app"

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// TokenStore persists the access and refresh tokens between page loads.
// The client and session take it as a dependency so tests can swap in an
// in-memory store.
type TokenStore interface {
	AccessToken() string
	SetAccessToken(token string)
	RemoveAccessToken()
	RefreshToken() string
	SetRefreshToken(token string)
	RemoveRefreshToken()
}

// LocalTokenStore keeps tokens in browser localStorage. All methods are
// no-ops during server-side prerendering, where there is no storage to
// touch.
type LocalTokenStore struct{}

func (LocalTokenStore) AccessToken() string          { return localGet(accessTokenKey) }
func (LocalTokenStore) SetAccessToken(token string)  { localSet(accessTokenKey, token) }
func (LocalTokenStore) RemoveAccessToken()           { localRemove(accessTokenKey) }
func (LocalTokenStore) RefreshToken() string         { return localGet(refreshTokenKey) }
func (LocalTokenStore) SetRefreshToken(token string) { localSet(refreshTokenKey, token) }
func (LocalTokenStore) RemoveRefreshToken()          { localRemove(refreshTokenKey) }

func localGet(key string) string {
	if app.IsServer {
		return ""
	}
	v := app.Window().Get("localStorage").Call("getItem", key)
	if !v.Truthy() {
		return ""
	}
	return v.String()
}

func localSet(key, value string) {
	if app.IsServer {
		return
	}
	app.Window().Get("localStorage").Call("setItem", key, value)
}

func localRemove(key string) {
	if app.IsServer {
		return
	}
	app.Window().Get("localStorage").Call("removeItem", key)
}

// MemTokenStore is an in-memory TokenStore for tests.
type MemTokenStore struct {
	access  string
	refresh string
}

func (s *MemTokenStore) AccessToken() string          { return s.access }
func (s *MemTokenStore) SetAccessToken(token string)  { s.access = token }
func (s *MemTokenStore) RemoveAccessToken()           { s.access = "" }
func (s *MemTokenStore) RefreshToken() string         { return s.refresh }
func (s *MemTokenStore) SetRefreshToken(token string) { s.refresh = token }
func (s *MemTokenStore) RemoveRefreshToken()          { s.refresh = "" }
