package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/locale"
)

// UserLookup resolves an API key to the enabled user that owns it.
// repo.UserRepo satisfies it.
type UserLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (domain.User, error)
}

type authKey struct{}

// NewAuthenticator returns a middleware that resolves the
// "Authorization: token <api_key>" header to a domain.AuthContext and stores
// it in the request context. The UI language is negotiated from
// Accept-Language. Requests without a valid key get 401.
func NewAuthenticator(users UserLookup, langs *locale.Matcher, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := apiKey(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing or malformed Authorization header")
				return
			}
			u, err := users.GetByAPIKey(r.Context(), key)
			if errors.Is(err, domain.ErrNotFound) {
				unauthorized(w, "invalid API key")
				return
			}
			if err != nil {
				log.ErrorContext(r.Context(), "api key lookup failed", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(errorBody("internal_error", "an unexpected error occurred"))
				return
			}

			auth := domain.AuthContext{
				User:  u.Name,
				Roles: u.Roles,
				Lang:  langs.Match(r.Header.Get("Accept-Language")),
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), auth)))
		})
	}
}

// WithAuth returns a copy of ctx carrying auth.
func WithAuth(ctx context.Context, auth domain.AuthContext) context.Context {
	return context.WithValue(ctx, authKey{}, auth)
}

// AuthFromContext returns the caller stored by NewAuthenticator.
func AuthFromContext(ctx context.Context) (domain.AuthContext, bool) {
	auth, ok := ctx.Value(authKey{}).(domain.AuthContext)
	return auth, ok
}

func apiKey(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "token") {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Token")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorBody("unauthorized", msg))
}

func errorBody(code, msg string) map[string]any {
	return map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	}
}
