package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Document is an uploaded file; Folder is a node of the single-parent
// folder tree documents hang off.
type Document struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	File       string   `json:"file"`
	FileSize   int64    `json:"file_size"`
	MimeType   string   `json:"mime_type"`
	Folder     *int     `json:"folder"`
	UploadedBy *UserRef `json:"uploaded_by,omitempty"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

type Folder struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Parent    *int   `json:"parent"`
	CreatedAt string `json:"created_at"`
}

type DocumentListOptions struct {
	Search string
	Folder int
}

type FolderListOptions struct {
	Parent int
	Search string
}

type DocumentsService struct {
	c *Client
}

func (s *DocumentsService) List(ctx context.Context, opts DocumentListOptions) (*ListResult[Document], error) {
	q := url.Values{}
	setIf(q, "search", opts.Search)
	setIfInt(q, "folder", opts.Folder)

	var out ListResult[Document]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/documents/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload creates a document from file bytes; folder 0 targets the root.
func (s *DocumentsService) Upload(ctx context.Context, title, filename string, data []byte, folder int) (*Document, error) {
	fields := map[string]string{"title": title}
	if folder != 0 {
		fields["folder"] = fmt.Sprintf("%d", folder)
	}
	form := &MultipartForm{
		Fields: fields,
		Files:  []MultipartFile{{Field: "file", Name: filename, Data: data}},
	}
	var out Document
	if err := s.c.doMultipart(ctx, http.MethodPost, "/documents/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch renames or moves a document.
func (s *DocumentsService) Patch(ctx context.Context, id int, fields map[string]any) (*Document, error) {
	var out Document
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/documents/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DocumentsService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/documents/%d/", id), nil, nil)
}

func (s *DocumentsService) Folders(ctx context.Context, opts FolderListOptions) (*ListResult[Folder], error) {
	q := url.Values{}
	setIfInt(q, "parent", opts.Parent)
	setIf(q, "search", opts.Search)

	var out ListResult[Folder]
	if err := s.c.do(ctx, http.MethodGet, queryPath("/folders/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFolder adds a child of parent; nil parent creates a root folder.
func (s *DocumentsService) CreateFolder(ctx context.Context, name string, parent *int) (*Folder, error) {
	body := map[string]any{"name": name}
	if parent != nil {
		body["parent"] = *parent
	}
	var out Folder
	if err := s.c.do(ctx, http.MethodPost, "/folders/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DocumentsService) PatchFolder(ctx context.Context, id int, fields map[string]any) (*Folder, error) {
	var out Folder
	if err := s.c.do(ctx, http.MethodPatch, fmt.Sprintf("/folders/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DocumentsService) DeleteFolder(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/folders/%d/", id), nil, nil)
}
