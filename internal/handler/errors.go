package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/osama1998H/frappe/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errorMapping pairs a domain sentinel with its HTTP status and error code.
// Order matters: the first sentinel err matches wins.
var errorMapping = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
}

// writeError maps err to a status code and JSON body. Errors that carry no
// domain sentinel are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.sentinel) {
			writeJSON(w, m.status, ErrorResponse{Error: ErrorDetail{
				Code:    m.code,
				Title:   domain.TitleOf(err),
				Message: unwrapMessage(err, m.sentinel),
			}})
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "internal_error",
		Message: "an unexpected error occurred",
	}})
}

// requestError reports a request rejected before reaching the service layer
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
		Code:    "validation_error",
		Message: message,
	}})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.PageService.Create: validation error: page name is required" → "page name is required"
// Joined errors keep one line per problem.
func unwrapMessage(err, sentinel error) string {
	marker := sentinel.Error() + ": "
	lines := strings.Split(err.Error(), "\n")
	for i, line := range lines {
		if _, rest, ok := strings.Cut(line, marker); ok {
			lines[i] = rest
		}
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a JSON request body into v. A body over the size limit
// surfaces as *http.MaxBytesError and is reported as 413.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
				Code:    "payload_too_large",
				Message: "request body too large",
			}})
			return false
		}
		requestError(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
