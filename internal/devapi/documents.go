package devapi

import (
	"database/sql"
	"net/http"
	"strconv"
)

type document struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	File       string   `json:"file"`
	FileSize   int64    `json:"file_size"`
	MimeType   string   `json:"mime_type"`
	Folder     *int     `json:"folder"`
	UploadedBy *userRef `json:"uploaded_by,omitempty"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

type folder struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Parent    *int   `json:"parent"`
	CreatedAt string `json:"created_at"`
}

const documentCols = `id, title, filename, file_size, mime_type, folder_id, uploaded_by, created_at, updated_at`

func (s *Server) scanDocument(row interface{ Scan(...any) error }) (document, error) {
	var d document
	var filename string
	var folderID, uploadedBy sql.NullInt64
	err := row.Scan(&d.ID, &d.Title, &filename, &d.FileSize, &d.MimeType, &folderID,
		&uploadedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return d, err
	}
	d.File = "/media/documents/" + filename
	if folderID.Valid {
		f := int(folderID.Int64)
		d.Folder = &f
	}
	if uploadedBy.Valid {
		if u, err := s.userByID(int(uploadedBy.Int64)); err == nil {
			r := u.ref()
			d.UploadedBy = &r
		}
	}
	return d, nil
}

func (s *Server) documentByID(id int64) (document, error) {
	return s.scanDocument(s.db.QueryRow(`SELECT `+documentCols+` FROM documents WHERE id = ?`, id))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT ` + documentCols + ` FROM documents ORDER BY title`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []document
	for rows.Next() {
		d, err := s.scanDocument(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("folder"); v != "" {
			id, _ := strconv.Atoi(v)
			if d.Folder == nil || *d.Folder != id {
				continue
			}
		}
		if !matches(q.Get("search"), d.Title) {
			continue
		}
		out = append(out, d)
	}
	writeList(w, out)
}

// handleCreateDocument accepts a multipart upload. The dev backend keeps
// metadata only; file bytes are discarded.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	title := r.FormValue("title")
	if fe := requireFields(map[string]string{"title": title}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFieldErrors(w, map[string][]string{"file": {"This field is required."}})
		return
	}
	file.Close()

	var folderID any
	if v := r.FormValue("folder"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			writeFieldErrors(w, map[string][]string{"folder": {"A valid integer is required."}})
			return
		}
		folderID = id
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO documents (title, filename, file_size, mime_type, folder_id, uploaded_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		title, header.Filename, header.Size, mimeType, folderID, currentUser(r).ID, ts, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid document payload")
		return
	}
	id, _ := res.LastInsertId()
	d, err := s.documentByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handlePatchDocument renames or moves a document.
func (s *Server) handlePatchDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Title  *string `json:"title"`
		Folder *int    `json:"folder"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	d, err := s.documentByID(id)
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if in.Title != nil {
		d.Title = *in.Title
	}
	folderID := any(nil)
	if d.Folder != nil {
		folderID = *d.Folder
	}
	if in.Folder != nil {
		folderID = nullableID(*in.Folder)
	}
	_, err = s.db.Exec(`UPDATE documents SET title = ?, folder_id = ?, updated_at = ? WHERE id = ?`,
		d.Title, folderID, now(), id)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid document payload")
		return
	}
	d, err = s.documentByID(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
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

func scanFolder(row interface{ Scan(...any) error }) (folder, error) {
	var f folder
	var parent sql.NullInt64
	err := row.Scan(&f.ID, &f.Name, &parent, &f.CreatedAt)
	if parent.Valid {
		p := int(parent.Int64)
		f.Parent = &p
	}
	return f, err
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.Query(`SELECT id, name, parent_id, created_at FROM folders ORDER BY name`)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var out []folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "database error")
			return
		}
		if v := q.Get("parent"); v != "" {
			id, _ := strconv.Atoi(v)
			if f.Parent == nil || *f.Parent != id {
				continue
			}
		}
		if !matches(q.Get("search"), f.Name) {
			continue
		}
		out = append(out, f)
	}
	writeList(w, out)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name   string `json:"name"`
		Parent *int   `json:"parent"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if fe := requireFields(map[string]string{"name": in.Name}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	var parent any
	if in.Parent != nil {
		parent = *in.Parent
	}
	ts := now()
	res, err := s.db.Exec(`INSERT INTO folders (name, parent_id, created_at) VALUES (?, ?, ?)`,
		in.Name, parent, ts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid folder payload")
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, folder{ID: int(id), Name: in.Name, Parent: in.Parent, CreatedAt: ts})
}

func (s *Server) handlePatchFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var in struct {
		Name   *string `json:"name"`
		Parent *int    `json:"parent"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	f, err := scanFolder(s.db.QueryRow(`SELECT id, name, parent_id, created_at FROM folders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Parent != nil {
		f.Parent = in.Parent
	}
	parent := any(nil)
	if f.Parent != nil {
		parent = *f.Parent
	}
	if _, err := s.db.Exec(`UPDATE folders SET name = ?, parent_id = ? WHERE id = ?`, f.Name, parent, id); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid folder payload")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	res, err := s.db.Exec(`DELETE FROM folders WHERE id = ?`, id)
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
