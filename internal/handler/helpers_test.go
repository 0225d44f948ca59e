package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/handler"
	"github.com/osama1998H/frappe/internal/middleware"
	"github.com/osama1998H/frappe/internal/service"
)

// mockPageServicer is a test double for handler.PageServicer.
// Set only the method fields your test needs.
type mockPageServicer struct {
	create         func(ctx context.Context, auth domain.AuthContext, p domain.Page) (domain.Page, error)
	get            func(ctx context.Context, name string) (domain.Page, error)
	list           func(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error)
	delete         func(ctx context.Context, auth domain.AuthContext, name string) error
	setCustomRoles func(ctx context.Context, auth domain.AuthContext, name string, roles []string) error
	assets         func(ctx context.Context, auth domain.AuthContext, name string) (domain.PageAssets, error)
}

func (m *mockPageServicer) Create(ctx context.Context, auth domain.AuthContext, p domain.Page) (domain.Page, error) {
	return m.create(ctx, auth, p)
}
func (m *mockPageServicer) Get(ctx context.Context, name string) (domain.Page, error) {
	return m.get(ctx, name)
}
func (m *mockPageServicer) List(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error) {
	return m.list(ctx, p)
}
func (m *mockPageServicer) Delete(ctx context.Context, auth domain.AuthContext, name string) error {
	return m.delete(ctx, auth, name)
}
func (m *mockPageServicer) SetCustomRoles(ctx context.Context, auth domain.AuthContext, name string, roles []string) error {
	return m.setCustomRoles(ctx, auth, name, roles)
}
func (m *mockPageServicer) Assets(ctx context.Context, auth domain.AuthContext, name string) (domain.PageAssets, error) {
	return m.assets(ctx, auth, name)
}

// compile-time check: mockPageServicer must satisfy handler.PageServicer.
var _ handler.PageServicer = (*mockPageServicer)(nil)

// mockPermissionServicer is a test double for handler.PermissionServicer.
type mockPermissionServicer struct {
	rolesAndDoctypes    func(ctx context.Context, auth domain.AuthContext) (service.RolesAndDoctypes, error)
	getPermissions      func(ctx context.Context, auth domain.AuthContext, doctype, role string) ([]domain.PermissionView, error)
	add                 func(ctx context.Context, auth domain.AuthContext, parent, role string, permlevel int) error
	update              func(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int, ptype string, value bool) (bool, error)
	remove              func(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int) error
	reset               func(ctx context.Context, auth domain.AuthContext, doctype string) error
	usersWithRole       func(ctx context.Context, auth domain.AuthContext, role string) ([]string, error)
	standardPermissions func(ctx context.Context, auth domain.AuthContext, doctype string) ([]domain.DocPerm, error)
}

func (m *mockPermissionServicer) RolesAndDoctypes(ctx context.Context, auth domain.AuthContext) (service.RolesAndDoctypes, error) {
	return m.rolesAndDoctypes(ctx, auth)
}
func (m *mockPermissionServicer) GetPermissions(ctx context.Context, auth domain.AuthContext, doctype, role string) ([]domain.PermissionView, error) {
	return m.getPermissions(ctx, auth, doctype, role)
}
func (m *mockPermissionServicer) Add(ctx context.Context, auth domain.AuthContext, parent, role string, permlevel int) error {
	return m.add(ctx, auth, parent, role, permlevel)
}
func (m *mockPermissionServicer) Update(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int, ptype string, value bool) (bool, error) {
	return m.update(ctx, auth, doctype, role, permlevel, ptype, value)
}
func (m *mockPermissionServicer) Remove(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int) error {
	return m.remove(ctx, auth, doctype, role, permlevel)
}
func (m *mockPermissionServicer) Reset(ctx context.Context, auth domain.AuthContext, doctype string) error {
	return m.reset(ctx, auth, doctype)
}
func (m *mockPermissionServicer) UsersWithRole(ctx context.Context, auth domain.AuthContext, role string) ([]string, error) {
	return m.usersWithRole(ctx, auth, role)
}
func (m *mockPermissionServicer) StandardPermissions(ctx context.Context, auth domain.AuthContext, doctype string) ([]domain.DocPerm, error) {
	return m.standardPermissions(ctx, auth, doctype)
}

var _ handler.PermissionServicer = (*mockPermissionServicer)(nil)

type mockMetaServicer struct {
	fields func(ctx context.Context, doctype string) ([]domain.FieldInfo, error)
}

func (m *mockMetaServicer) Fields(ctx context.Context, doctype string) ([]domain.FieldInfo, error) {
	return m.fields(ctx, doctype)
}

var _ handler.MetaServicer = (*mockMetaServicer)(nil)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ---- helpers ---------------------------------------------------------------

var adminAuth = domain.AuthContext{User: domain.UserAdministrator, Lang: "en"}

// fixedAuth stands in for the authenticator and stores auth on every request.
func fixedAuth(auth domain.AuthContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithAuth(r.Context(), auth)))
		})
	}
}

// newHTTPHandler wires a Server with the given mocks into a chi router.
// This mirrors how main.go wires it in production, minus the real authenticator.
func newHTTPHandler(srv *handler.Server) http.Handler {
	r := chi.NewRouter()
	srv.Routes(r, fixedAuth(adminAuth))
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}
