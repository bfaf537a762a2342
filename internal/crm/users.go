package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// User is a CRM operator account. Role drives UI permission checks; only
// admins may change another user's role.
type User struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	DateJoined string `json:"date_joined,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
}

// UserRef is the denormalized user shape embedded in other entities.
type UserRef struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SignupData is the payload of POST /users/signup/.
type SignupData struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Company         string `json:"company,omitempty"`
	Role            string `json:"role,omitempty"`
}

// UserListOptions filters GET /users/.
type UserListOptions struct {
	Search   string
	Role     string
	Ordering string
	Page     int
}

type UsersService struct {
	c *Client
}

func (s *UsersService) List(ctx context.Context, opts UserListOptions) (*ListResult[User], error) {
	q := url.Values{}
	setIf(q, "search", opts.Search)
	setIf(q, "role", opts.Role)
	setIf(q, "ordering", opts.Ordering)
	setIfInt(q, "page", opts.Page)

	var out ListResult[User]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/users/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account behind the current access token.
func (s *UsersService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.c.do(ctx, http.MethodGet, "/users/me/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Signup(ctx context.Context, data SignupData) (*User, error) {
	var u User
	if err := s.c.do(ctx, http.MethodPost, "/users/signup/", data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserData is a partial update; only set fields are transmitted.
type UpdateUserData struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Role       *string `json:"role,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (s *UsersService) Update(ctx context.Context, id int, data UpdateUserData) (*User, error) {
	var u User
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/", id), data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d/", id), nil, nil)
}
