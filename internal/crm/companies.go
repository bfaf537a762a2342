package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type Company struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Industry   string `json:"industry"`
	Website    string `json:"website"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	IsCustomer bool   `json:"is_customer"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// CompanyRef is the weak back-reference embedded in contacts.
type CompanyRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CompanyListOptions filters GET /companies/. IsCustomer is a pointer so
// an explicit false still serializes while unset stays out of the query.
type CompanyListOptions struct {
	Search     string
	Industry   string
	IsCustomer *bool
}

// CompanyData creates a company; the same shape patches one, with unset
// fields left untouched server-side.
type CompanyData struct {
	Name       *string `json:"name,omitempty"`
	Industry   *string `json:"industry,omitempty"`
	Website    *string `json:"website,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Country    *string `json:"country,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	IsCustomer *bool   `json:"is_customer,omitempty"`
}

type CompaniesService struct {
	c *Client
}

func (s *CompaniesService) List(ctx context.Context, opts CompanyListOptions) (*ListResult[Company], error) {
	q := url.Values{}
	setIf(q, "search", opts.Search)
	setIf(q, "industry", opts.Industry)
	setIfBool(q, "is_customer", opts.IsCustomer)

	var out ListResult[Company]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/companies/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CompaniesService) Get(ctx context.Context, id int) (*Company, error) {
	var out Company
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/companies/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CompaniesService) Create(ctx context.Context, data CompanyData) (*Company, error) {
	var out Company
	if err := s.c.do(ctx, http.MethodPost, "/companies/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update is a PATCH: a partial representation, untouched fields keep
// their server values.
func (s *CompaniesService) Update(ctx context.Context, id int, data CompanyData) (*Company, error) {
	var out Company
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/companies/%d/", id), data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CompaniesService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/companies/%d/", id), nil, nil)
}
