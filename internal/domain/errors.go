package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database or the module tree.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty title, removing the last permission rule).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo functions when an insert violates a unique
// constraint, and by the naming retry once its attempt budget is spent.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller lacks the role an operation requires.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("not permitted")

// ErrUnauthorized is returned by the authenticator when no valid credentials
// accompany a request. Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// TitledError attaches a short user-visible title to an error, e.g.
// "Cannot Remove". The wrapped error keeps its sentinel for errors.Is.
type TitledError struct {
	Title string
	Err   error
}

func (e *TitledError) Error() string { return e.Err.Error() }

func (e *TitledError) Unwrap() error { return e.Err }

// WithTitle wraps err with a user-visible title. A nil err stays nil.
func WithTitle(title string, err error) error {
	if err == nil {
		return nil
	}
	return &TitledError{Title: title, Err: err}
}

// TitleOf returns the outermost title attached to err, or "" if none.
func TitleOf(err error) string {
	var te *TitledError
	if errors.As(err, &te) {
		return te.Title
	}
	return ""
}
