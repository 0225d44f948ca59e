package handler

import (
	"net/http"

	"github.com/osama1998H/frappe/internal/domain"
)

// CreatePageRequest is the body of POST /api/pages.
type CreatePageRequest struct {
	Name             string   `json:"name"`
	PageName         string   `json:"page_name"`
	Title            string   `json:"title"`
	Module           string   `json:"module"`
	Standard         string   `json:"standard"`
	SystemPage       bool     `json:"system_page"`
	RestrictToDomain string   `json:"restrict_to_domain"`
	Roles            []string `json:"roles"`
}

// SetRolesRequest is the body of PUT /api/pages/{name}/roles.
type SetRolesRequest struct {
	Roles []string `json:"roles"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PageListResponse is the body of GET /api/pages.
type PageListResponse struct {
	Data       []domain.Page `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// CreatePage handles POST /api/pages.
func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var body CreatePageRequest
	if !decodeBody(w, r, &body) {
		return
	}

	created, err := s.pages.Create(r.Context(), auth, requestToPage(body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListPages handles GET /api/pages.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if !queryParam(w, r, "page", false, &page) || !queryParam(w, r, "limit", false, &limit) {
		return
	}
	params := domain.NewPaginationParams(page, limit)

	pages, total, err := s.pages.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	writeJSON(w, http.StatusOK, PageListResponse{
		Data: pages,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetPage handles GET /api/pages/{name}.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	var name string
	if !pathParam(w, r, "name", &name) {
		return
	}
	page, err := s.pages.Get(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DeletePage handles DELETE /api/pages/{name}.
func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var name string
	if !pathParam(w, r, "name", &name) {
		return
	}
	if err := s.pages.Delete(r.Context(), auth, name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPageRoles handles PUT /api/pages/{name}/roles.
func (s *Server) SetPageRoles(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var name string
	if !pathParam(w, r, "name", &name) {
		return
	}
	var body SetRolesRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.pages.SetCustomRoles(r.Context(), auth, name, body.Roles); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPageAssets handles GET /api/pages/{name}/assets.
func (s *Server) GetPageAssets(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var name string
	if !pathParam(w, r, "name", &name) {
		return
	}
	bundle, err := s.pages.Assets(r.Context(), auth, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bundle.Dynamic {
		w.Header().Set("Cache-Control", "no-store")
	}
	writeJSON(w, http.StatusOK, bundle)
}

// GetDocTypeFields handles GET /api/doctypes/{doctype}/fields.
func (s *Server) GetDocTypeFields(w http.ResponseWriter, r *http.Request) {
	var doctype string
	if !pathParam(w, r, "doctype", &doctype) {
		return
	}
	fields, err := s.meta.Fields(r.Context(), doctype)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fields == nil {
		fields = []domain.FieldInfo{}
	}
	writeJSON(w, http.StatusOK, fields)
}

// --- mapping helpers --------------------------------------------------------

func requestToPage(body CreatePageRequest) domain.Page {
	return domain.Page{
		Name:             body.Name,
		PageName:         body.PageName,
		Title:            body.Title,
		Module:           body.Module,
		Standard:         body.Standard,
		SystemPage:       body.SystemPage,
		RestrictToDomain: body.RestrictToDomain,
		Roles:            body.Roles,
	}
}
