package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

// authBackend fakes the token and current-user endpoints.
type authBackend struct {
	password string
	user     User
}

func (b *authBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/token/" && r.Method == http.MethodPost:
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != b.user.Email || creds.Password != b.password {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(TokenPair{Access: "acc-1", Refresh: "ref-1"})
	case r.URL.Path == "/users/me/" && r.Method == http.MethodGet:
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.user)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func activeUser() User {
	return User{ID: 1, Email: "rep@mint.test", FirstName: "Dana", Role: "agent", IsActive: true}
}

func TestLoginSuccess(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "hunter2", user: activeUser()})
	defer srv.Close()
	sess := NewSession(c)

	if err := sess.Login(context.Background(), "rep@mint.test", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if sess.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", sess.State())
	}
	if sess.User() == nil || sess.User().Email != "rep@mint.test" {
		t.Errorf("user = %+v", sess.User())
	}
	if c.Tokens().AccessToken() != "acc-1" || c.Tokens().RefreshToken() != "ref-1" {
		t.Error("tokens were not persisted")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "hunter2", user: activeUser()})
	defer srv.Close()
	sess := NewSession(c)

	err := sess.Login(context.Background(), "rep@mint.test", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid email or password") {
		t.Errorf("err = %v", err)
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", sess.State())
	}
}

func TestLoginInactiveAccountNeverAuthenticates(t *testing.T) {
	user := activeUser()
	user.IsActive = false
	c, srv := newTestClient(&authBackend{password: "hunter2", user: user})
	defer srv.Close()
	sess := NewSession(c)

	err := sess.Login(context.Background(), "rep@mint.test", "hunter2")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("err = %v, want ErrAccountInactive", err)
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", sess.State())
	}
	if sess.User() != nil {
		t.Errorf("user = %+v, want nil", sess.User())
	}
	if c.Tokens().AccessToken() != "" || c.Tokens().RefreshToken() != "" {
		t.Error("tokens must be cleared after inactive-account login")
	}
}

func TestInitWithoutToken(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "x", user: activeUser()})
	defer srv.Close()
	sess := NewSession(c)

	if sess.State() != StateLoading {
		t.Fatalf("initial state = %v, want loading", sess.State())
	}
	sess.Init(context.Background())
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", sess.State())
	}
}

func TestInitWithValidToken(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "x", user: activeUser()})
	defer srv.Close()
	c.Tokens().SetAccessToken("acc-stored")
	sess := NewSession(c)

	sess.Init(context.Background())
	if sess.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", sess.State())
	}
}

func TestInitWithRejectedTokenClearsBoth(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
	}))
	defer srv.Close()
	c.Tokens().SetAccessToken("expired")
	c.Tokens().SetRefreshToken("expired-too")
	sess := NewSession(c)

	sess.Init(context.Background())
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", sess.State())
	}
	if c.Tokens().AccessToken() != "" || c.Tokens().RefreshToken() != "" {
		t.Error("stale tokens were not cleared")
	}
}

func TestLogoutClearsTokens(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "hunter2", user: activeUser()})
	defer srv.Close()
	sess := NewSession(c)
	if err := sess.Login(context.Background(), "rep@mint.test", "hunter2"); err != nil {
		t.Fatal(err)
	}

	sess.Logout()
	if sess.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", sess.State())
	}
	if c.Tokens().AccessToken() != "" || c.Tokens().RefreshToken() != "" {
		t.Error("tokens survived logout")
	}
}

func TestLoginNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", &MemTokenStore{})
	sess := NewSession(c)

	err := sess.Login(context.Background(), "rep@mint.test", "hunter2")
	if err == nil || !strings.Contains(err.Error(), "unable to connect") {
		t.Errorf("err = %v, want connectivity message", err)
	}
}

func TestOnChangeFires(t *testing.T) {
	c, srv := newTestClient(&authBackend{password: "hunter2", user: activeUser()})
	defer srv.Close()
	sess := NewSession(c)

	var transitions []SessionState
	sess.OnChange = func() { transitions = append(transitions, sess.State()) }

	if err := sess.Login(context.Background(), "rep@mint.test", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if len(transitions) == 0 || transitions[len(transitions)-1] != StateAuthenticated {
		t.Errorf("transitions = %v", transitions)
	}
}
