// Package middleware provides reusable HTTP middleware for the desk API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight result.
const corsMaxAge = 600

// NewCORSHandler returns a middleware that lets the desk UI, served from one
// of allowedOrigins, call the API. Each origin must be a full origin (scheme
// and host, no trailing slash).
//
// Clients send the API key in Authorization and their language in
// Accept-Language. Content-Disposition is exposed so the permission CSV
// export keeps its file name, and X-Request-Id so the UI can quote it in
// error reports.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Accept-Language"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
