package crm

import (
	"context"
	"net/http"
)

// ListResult is the paginated envelope every list endpoint returns.
type ListResult[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// AuthService covers the token endpoints. Persisting tokens is the
// session's job, not this service's.
type AuthService struct {
	c *Client
}

// TokenPair is the response of POST /token/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (s *AuthService) ObtainToken(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := s.c.do(ctx, http.MethodPost, "/token/", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// RefreshToken trades the refresh token for a new access token. It is
// invoked on demand only; nothing schedules it.
func (s *AuthService) RefreshToken(ctx context.Context, refresh string) (string, error) {
	body := map[string]string{"refresh": refresh}
	var out struct {
		Access string `json:"access"`
	}
	if err := s.c.do(ctx, http.MethodPost, "/token/refresh/", body, &out); err != nil {
		return "", err
	}
	return out.Access, nil
}
