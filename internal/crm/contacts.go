package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type Contact struct {
	ID         int         `json:"id"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Mobile     string      `json:"mobile,omitempty"`
	Company    *CompanyRef `json:"company,omitempty"`
	JobTitle   string      `json:"job_title"`
	Department string      `json:"department"`
	Address    string      `json:"address,omitempty"`
	City       string      `json:"city,omitempty"`
	Country    string      `json:"country,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	IsCustomer bool        `json:"is_customer"`
	IsProspect bool        `json:"is_prospect"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

type ContactListOptions struct {
	Search     string
	IsCustomer *bool
	Company    int
}

// ContactData is the full contact representation for POST and PUT.
// Contact updates are PUT, so the caller resupplies every field.
type ContactData struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Mobile     string `json:"mobile,omitempty"`
	Company    int    `json:"company,omitempty"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Notes      string `json:"notes,omitempty"`
	IsCustomer bool   `json:"is_customer"`
	IsProspect bool   `json:"is_prospect"`
}

type ContactsService struct {
	c *Client
}

func (s *ContactsService) List(ctx context.Context, opts ContactListOptions) (*ListResult[Contact], error) {
	q := url.Values{}
	setIf(q, "search", opts.Search)
	setIfBool(q, "is_customer", opts.IsCustomer)
	setIfInt(q, "company", opts.Company)

	var out ListResult[Contact]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/contacts/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ContactsService) Get(ctx context.Context, id int) (*Contact, error) {
	var out Contact
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/contacts/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ContactsService) Create(ctx context.Context, data ContactData) (*Contact, error) {
	var out Contact
	if err := s.c.do(ctx, http.MethodPost, "/contacts/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update is a PUT full replace; fields left at their zero value are
// cleared or server-defaulted, not preserved.
func (s *ContactsService) Update(ctx context.Context, id int, data ContactData) (*Contact, error) {
	var out Contact
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/contacts/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ContactsService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/contacts/%d/", id), nil, nil)
}
