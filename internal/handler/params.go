package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/middleware"
)

// pathParam binds the named chi URL parameter into dest, unescaping it.
// On failure it writes a 422 and returns false.
func pathParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "invalid format for parameter "+name+": "+err.Error())
		return false
	}
	return true
}

// queryParam binds the form-style query parameter name into dest.
// Optional parameters must be bound into a pointer, which stays nil when
// the parameter is absent.
func queryParam(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		requestError(w, "invalid format for parameter "+name+": "+err.Error())
		return false
	}
	return true
}

// authOf returns the caller stored by the authenticator. Routes are only
// mounted behind it, so a missing value is a wiring bug and reported as 401.
func authOf(w http.ResponseWriter, r *http.Request) (domain.AuthContext, bool) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthorized)
		return domain.AuthContext{}, false
	}
	return auth, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
