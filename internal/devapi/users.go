package devapi

import (
	"database/sql"
	"net/http"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(
		`SELECT id, email, first_name, last_name, role, is_active, phone, department, date_joined
		 FROM users ORDER BY id`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var users []authUser
	for rows.Next() {
		var u authUser
		var active int
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &active,
			&u.Phone, &u.Department, &u.DateJoined); err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		u.IsActive = active != 0
		if role := q.Get("role"); role != "" && u.Role != role {
			continue
		}
		if !matches(q.Get("search"), u.Email, u.FirstName, u.LastName) {
			continue
		}
		users = append(users, u)
	}
	writeList(w, users)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var req struct {
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		Role       *string `json:"role"`
		IsActive   *bool   `json:"is_active"`
		Phone      *string `json:"phone"`
		Department *string `json:"department"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.userByID(int(id))
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}

	// Role changes are an admin-only operation.
	if req.Role != nil && currentUser(r).Role != "admin" {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Department != nil {
		u.Department = *req.Department
	}

	_, err = s.db.Exec(
		`UPDATE users SET first_name = ?, last_name = ?, role = ?, is_active = ?, phone = ?, department = ?
		 WHERE id = ?`,
		u.FirstName, u.LastName, u.Role, boolInt(u.IsActive), u.Phone, u.Department, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if currentUser(r).Role != "admin" {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
