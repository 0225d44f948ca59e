// Package handler implements the HTTP handlers for the desk API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, page.go, permission.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/service"
)

// PageServicer defines the page operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type PageServicer interface {
	Create(ctx context.Context, auth domain.AuthContext, page domain.Page) (domain.Page, error)
	Get(ctx context.Context, name string) (domain.Page, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error)
	Delete(ctx context.Context, auth domain.AuthContext, name string) error
	SetCustomRoles(ctx context.Context, auth domain.AuthContext, name string, roles []string) error
	Assets(ctx context.Context, auth domain.AuthContext, name string) (domain.PageAssets, error)
}

// PermissionServicer defines the permission manager operations.
type PermissionServicer interface {
	RolesAndDoctypes(ctx context.Context, auth domain.AuthContext) (service.RolesAndDoctypes, error)
	GetPermissions(ctx context.Context, auth domain.AuthContext, doctype, role string) ([]domain.PermissionView, error)
	Add(ctx context.Context, auth domain.AuthContext, parent, role string, permlevel int) error
	Update(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int, ptype string, value bool) (bool, error)
	Remove(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int) error
	Reset(ctx context.Context, auth domain.AuthContext, doctype string) error
	UsersWithRole(ctx context.Context, auth domain.AuthContext, role string) ([]string, error)
	StandardPermissions(ctx context.Context, auth domain.AuthContext, doctype string) ([]domain.DocPerm, error)
}

// MetaServicer serves doctype field metadata.
type MetaServicer interface {
	Fields(ctx context.Context, doctype string) ([]domain.FieldInfo, error)
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of every endpoint.
type Server struct {
	pages   PageServicer
	perms   PermissionServicer
	meta    MetaServicer
	db      Pinger
	openAPI []byte
}

// NewServer constructs the Server with all its dependencies.
// Any of them may be nil in tests that only exercise other endpoints.
func NewServer(pages PageServicer, perms PermissionServicer, meta MetaServicer, db Pinger, openAPI []byte) *Server {
	return &Server{pages: pages, perms: perms, meta: meta, db: db, openAPI: openAPI}
}

// Routes registers every endpoint on r. Routes under /api run behind auth,
// which must store a domain.AuthContext via middleware.WithAuth.
func (s *Server) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Get("/pages", s.ListPages)
		r.Post("/pages", s.CreatePage)
		r.Get("/pages/{name}", s.GetPage)
		r.Delete("/pages/{name}", s.DeletePage)
		r.Put("/pages/{name}/roles", s.SetPageRoles)
		r.Get("/pages/{name}/assets", s.GetPageAssets)

		r.Get("/doctypes/{doctype}/fields", s.GetDocTypeFields)

		r.Route("/permission-manager", func(r chi.Router) {
			r.Get("/roles-and-doctypes", s.GetRolesAndDoctypes)
			r.Get("/permissions", s.GetPermissions)
			r.Post("/permissions", s.AddPermission)
			r.Put("/permissions", s.UpdatePermission)
			r.Delete("/permissions", s.RemovePermission)
			r.Post("/reset", s.ResetPermissions)
			r.Get("/roles/{role}/users", s.GetUsersWithRole)
			r.Get("/doctypes/{doctype}/standard-permissions", s.GetStandardPermissions)
		})
	})
}
