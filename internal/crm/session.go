package crm

import (
	"context"
	"errors"
	"fmt"
)

// SessionState is the auth lifecycle state.
type SessionState int

const (
	// StateLoading is the initial state while a persisted token is being
	// validated against the backend.
	StateLoading SessionState = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session owns the authentication lifecycle: token persistence, the
// current user, and the loading/authenticated/unauthenticated state.
// It is passed explicitly to the UI; there is no package-level instance.
//
// All mutation happens on the UI event loop, so no locking is needed.
type Session struct {
	client *Client
	state  SessionState
	user   *User

	// OnChange, when set, runs after every state transition so the UI
	// can re-render.
	OnChange func()
}

func NewSession(client *Client) *Session {
	return &Session{client: client, state: StateLoading}
}

func (s *Session) State() SessionState { return s.state }
func (s *Session) User() *User         { return s.user }
func (s *Session) IsAuthenticated() bool {
	return s.state == StateAuthenticated
}

func (s *Session) setState(state SessionState, user *User) {
	s.state = state
	s.user = user
	if s.OnChange != nil {
		s.OnChange()
	}
}

// Init resolves the initial session: with a persisted access token it
// validates it by fetching the current user; any failure clears both
// tokens. Without a token it resolves to unauthenticated immediately.
func (s *Session) Init(ctx context.Context) {
	tokens := s.client.Tokens()
	if tokens.AccessToken() == "" {
		s.setState(StateUnauthenticated, nil)
		return
	}

	user, err := s.client.Users.Me(ctx)
	if err != nil {
		s.clearTokens()
		s.setState(StateUnauthenticated, nil)
		return
	}
	s.setState(StateAuthenticated, user)
}

// Login obtains tokens, persists them and fetches the current user. A
// deactivated account never yields an authenticated session, even with
// valid credentials: tokens are cleared and ErrAccountInactive returned.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.setState(StateLoading, nil)

	pair, err := s.client.Auth.ObtainToken(ctx, email, password)
	if err != nil {
		s.setState(StateUnauthenticated, nil)
		return loginError(err)
	}

	tokens := s.client.Tokens()
	tokens.SetAccessToken(pair.Access)
	tokens.SetRefreshToken(pair.Refresh)

	user, err := s.client.Users.Me(ctx)
	if err != nil {
		s.clearTokens()
		s.setState(StateUnauthenticated, nil)
		return loginError(err)
	}
	if !user.IsActive {
		s.clearTokens()
		s.setState(StateUnauthenticated, nil)
		return ErrAccountInactive
	}

	s.setState(StateAuthenticated, user)
	return nil
}

// Logout clears both tokens and resets the state. The client side is
// authoritative for session termination; no server call is needed, and a
// failing one would be ignored anyway.
func (s *Session) Logout() {
	s.clearTokens()
	s.setState(StateUnauthenticated, nil)
}

// Refresh trades the stored refresh token for a new access token. Called
// on demand only.
func (s *Session) Refresh(ctx context.Context) error {
	tokens := s.client.Tokens()
	refresh := tokens.RefreshToken()
	if refresh == "" {
		return errors.New("no refresh token available")
	}
	access, err := s.client.Auth.RefreshToken(ctx, refresh)
	if err != nil {
		return err
	}
	tokens.SetAccessToken(access)
	return nil
}

func (s *Session) clearTokens() {
	tokens := s.client.Tokens()
	tokens.RemoveAccessToken()
	tokens.RemoveRefreshToken()
}

// loginError maps a failed login to the message shown on the login form.
func loginError(err error) error {
	if errors.Is(err, ErrNetwork) {
		return errors.New("unable to connect to server, please check your connection")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401:
			return errors.New("invalid email or password, please try again")
		case apiErr.StatusCode >= 500:
			return errors.New("server error, please try again later")
		}
	}
	return fmt.Errorf("login failed: %w", err)
}
