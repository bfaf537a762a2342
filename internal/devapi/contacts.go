package devapi

import (
	"database/sql"
	"net/http"
	"strconv"
)

type companyRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type contact struct {
	ID         int         `json:"id"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Mobile     string      `json:"mobile,omitempty"`
	Company    *companyRef `json:"company,omitempty"`
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

const contactCols = `c.id, c.first_name, c.last_name, c.email, c.phone, c.mobile,
	c.company_id, co.name, c.job_title, c.department, c.address, c.city, c.country,
	c.notes, c.is_customer, c.is_prospect, c.is_active, c.created_at, c.updated_at`

const contactFrom = ` FROM contacts c LEFT JOIN companies co ON co.id = c.company_id `

func scanContact(row interface{ Scan(...any) error }) (contact, error) {
	var c contact
	var companyID sql.NullInt64
	var companyName sql.NullString
	var cust, pros, active int
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Mobile,
		&companyID, &companyName, &c.JobTitle, &c.Department, &c.Address, &c.City,
		&c.Country, &c.Notes, &cust, &pros, &active, &c.CreatedAt, &c.UpdatedAt)
	if companyID.Valid {
		c.Company = &companyRef{ID: int(companyID.Int64), Name: companyName.String}
	}
	c.IsCustomer = cust != 0
	c.IsProspect = pros != 0
	c.IsActive = active != 0
	return c, err
}

func (s *Server) contactByID(id int64) (contact, error) {
	return scanContact(s.db.QueryRow(`SELECT `+contactCols+contactFrom+`WHERE c.id = ?`, id))
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + contactCols + contactFrom + `ORDER BY c.last_name, c.first_name`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("is_customer"); v != "" && (v == "true") != c.IsCustomer {
			continue
		}
		if v := q.Get("company"); v != "" {
			id, _ := strconv.Atoi(v)
			if c.Company == nil || c.Company.ID != id {
				continue
			}
		}
		if !matches(q.Get("search"), c.FirstName, c.LastName, c.Email, c.Phone) {
			continue
		}
		out = append(out, c)
	}
	writeList(w, out)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.contactByID(id)
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

// contactInput is the full representation used by both POST and PUT.
type contactInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Mobile     string `json:"mobile"`
	Company    int    `json:"company"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Notes      string `json:"notes"`
	IsCustomer bool   `json:"is_customer"`
	IsProspect bool   `json:"is_prospect"`
}

func (in contactInput) companyID() any {
	if in.Company == 0 {
		return nil
	}
	return in.Company
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"first_name": in.FirstName, "last_name": in.LastName}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO contacts (first_name, last_name, email, phone, mobile, company_id, job_title,
		 department, address, city, country, notes, is_customer, is_prospect, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		in.FirstName, in.LastName, in.Email, in.Phone, in.Mobile, in.companyID(), in.JobTitle,
		in.Department, in.Address, in.City, in.Country, in.Notes,
		boolInt(in.IsCustomer), boolInt(in.IsProspect), ts, ts)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	id, _ := res.LastInsertId()
	c, err := s.contactByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handlePutContact replaces the whole record: omitted fields reset to
// their zero values rather than keeping what was stored.
func (s *Server) handlePutContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in contactInput
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"first_name": in.FirstName, "last_name": in.LastName}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	res, err := s.db.Exec(
		`UPDATE contacts SET first_name = ?, last_name = ?, email = ?, phone = ?, mobile = ?,
		 company_id = ?, job_title = ?, department = ?, address = ?, city = ?, country = ?,
		 notes = ?, is_customer = ?, is_prospect = ?, updated_at = ? WHERE id = ?`,
		in.FirstName, in.LastName, in.Email, in.Phone, in.Mobile, in.companyID(), in.JobTitle,
		in.Department, in.Address, in.City, in.Country, in.Notes,
		boolInt(in.IsCustomer), boolInt(in.IsProspect), now(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	c, err := s.contactByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
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
