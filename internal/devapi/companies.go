package devapi

import (
	"database/sql"
	"net/http"
)

type company struct {
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

func scanCompany(row interface{ Scan(...any) error }) (company, error) {
	var c company
	var cust int
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Website, &c.Phone, &c.Address,
		&c.City, &c.State, &c.Country, &c.PostalCode, &cust, &c.CreatedAt, &c.UpdatedAt)
	c.IsCustomer = cust != 0
	return c, err
}

const companyCols = `id, name, industry, website, phone, address, city, state, country, postal_code, is_customer, created_at, updated_at`

func (s *Server) companyByID(id int64) (company, error) {
	return scanCompany(s.db.QueryRow(`SELECT `+companyCols+` FROM companies WHERE id = ?`, id))
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + companyCols + ` FROM companies ORDER BY name`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if ind := q.Get("industry"); ind != "" && c.Industry != ind {
			continue
		}
		if v := q.Get("is_customer"); v != "" && (v == "true") != c.IsCustomer {
			continue
		}
		if !matches(q.Get("search"), c.Name, c.Industry, c.City) {
			continue
		}
		out = append(out, c)
	}
	writeList(w, out)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.companyByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type companyInput struct {
	Name       *string `json:"name"`
	Industry   *string `json:"industry"`
	Website    *string `json:"website"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Country    *string `json:"country"`
	PostalCode *string `json:"postal_code"`
	IsCustomer *bool   `json:"is_customer"`
}

func (in companyInput) apply(c *company) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Industry != nil {
		c.Industry = *in.Industry
	}
	if in.Website != nil {
		c.Website = *in.Website
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.City != nil {
		c.City = *in.City
	}
	if in.State != nil {
		c.State = *in.State
	}
	if in.Country != nil {
		c.Country = *in.Country
	}
	if in.PostalCode != nil {
		c.PostalCode = *in.PostalCode
	}
	if in.IsCustomer != nil {
		c.IsCustomer = *in.IsCustomer
	}
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in companyInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == nil || *in.Name == "" {
		writeFieldErrors(w, map[string][]string{"name": {"This field is required."}})
		return
	}
	var c company
	in.apply(&c)
	c.CreatedAt, c.UpdatedAt = now(), now()

	res, err := s.db.Exec(
		`INSERT INTO companies (name, industry, website, phone, address, city, state, country, postal_code, is_customer, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Industry, c.Website, c.Phone, c.Address, c.City, c.State, c.Country,
		c.PostalCode, boolInt(c.IsCustomer), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	id, _ := res.LastInsertId()
	c.ID = int(id)
	writeJSON(w, http.StatusCreated, c)
}

// handlePatchCompany applies a partial update: fields absent from the
// body keep their stored values.
func (s *Server) handlePatchCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in companyInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.companyByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	in.apply(&c)
	c.UpdatedAt = now()

	_, err = s.db.Exec(
		`UPDATE companies SET name = ?, industry = ?, website = ?, phone = ?, address = ?, city = ?,
		 state = ?, country = ?, postal_code = ?, is_customer = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Industry, c.Website, c.Phone, c.Address, c.City, c.State, c.Country,
		c.PostalCode, boolInt(c.IsCustomer), c.UpdatedAt, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
