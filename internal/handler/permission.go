package handler

import (
	"net/http"

	"github.com/osama1998H/frappe/internal/domain"
)

// AddPermissionRequest is the body of POST /api/permission-manager/permissions.
type AddPermissionRequest struct {
	Parent    string `json:"parent"`
	Role      string `json:"role"`
	Permlevel int    `json:"permlevel"`
}

// UpdatePermissionRequest is the body of PUT /api/permission-manager/permissions.
type UpdatePermissionRequest struct {
	Doctype   string `json:"doctype"`
	Role      string `json:"role"`
	Permlevel int    `json:"permlevel"`
	Ptype     string `json:"ptype"`
	Value     bool   `json:"value"`
}

// UpdatePermissionResponse tells the client whether to reload the rule list.
type UpdatePermissionResponse struct {
	Refresh bool `json:"refresh"`
}

// ResetPermissionsRequest is the body of POST /api/permission-manager/reset.
type ResetPermissionsRequest struct {
	Doctype string `json:"doctype"`
}

// GetRolesAndDoctypes handles GET /api/permission-manager/roles-and-doctypes.
func (s *Server) GetRolesAndDoctypes(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	out, err := s.perms.RolesAndDoctypes(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPermissions handles GET /api/permission-manager/permissions.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetPermissions(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var doctype, role, format *string
	if !queryParam(w, r, "doctype", false, &doctype) ||
		!queryParam(w, r, "role", false, &role) ||
		!queryParam(w, r, "format", false, &format) {
		return
	}

	perms, err := s.perms.GetPermissions(r.Context(), auth, deref(doctype), deref(role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deref(format) == "csv" {
		writePermissionsCSV(w, perms)
		return
	}
	if perms == nil {
		perms = []domain.PermissionView{}
	}
	writeJSON(w, http.StatusOK, perms)
}

// AddPermission handles POST /api/permission-manager/permissions.
func (s *Server) AddPermission(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var body AddPermissionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.perms.Add(r.Context(), auth, body.Parent, body.Role, body.Permlevel); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePermission handles PUT /api/permission-manager/permissions.
func (s *Server) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var body UpdatePermissionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	refresh, err := s.perms.Update(r.Context(), auth, body.Doctype, body.Role, body.Permlevel, body.Ptype, body.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdatePermissionResponse{Refresh: refresh})
}

// RemovePermission handles DELETE /api/permission-manager/permissions.
func (s *Server) RemovePermission(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var (
		doctype, role string
		permlevel     int
	)
	if !queryParam(w, r, "doctype", true, &doctype) ||
		!queryParam(w, r, "role", true, &role) ||
		!queryParam(w, r, "permlevel", true, &permlevel) {
		return
	}
	if err := s.perms.Remove(r.Context(), auth, doctype, role, permlevel); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPermissions handles POST /api/permission-manager/reset.
func (s *Server) ResetPermissions(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var body ResetPermissionsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.perms.Reset(r.Context(), auth, body.Doctype); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUsersWithRole handles GET /api/permission-manager/roles/{role}/users.
func (s *Server) GetUsersWithRole(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var role string
	if !pathParam(w, r, "role", &role) {
		return
	}
	users, err := s.perms.UsersWithRole(r.Context(), auth, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, users)
}

// GetStandardPermissions handles
// GET /api/permission-manager/doctypes/{doctype}/standard-permissions.
func (s *Server) GetStandardPermissions(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var doctype string
	if !pathParam(w, r, "doctype", &doctype) {
		return
	}
	perms, err := s.perms.StandardPermissions(r.Context(), auth, doctype)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if perms == nil {
		perms = []domain.DocPerm{}
	}
	writeJSON(w, http.StatusOK, perms)
}
