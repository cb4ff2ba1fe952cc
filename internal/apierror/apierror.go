// Package apierror provides standardized error response structures for the
// API, plus the service-level error taxonomy. All errors returned to clients
// go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import "errors"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

// ─── Service error taxonomy ──────────────────────────────────────────────────
// Services return these so handlers can map to the right status code without
// string matching. Closing discrepancies are NOT errors — audit_pending is a
// designed outcome, never surfaced through this taxonomy.

// Validation marks bad user input; the operation was not attempted.
type Validation struct{ Msg string }

func (e *Validation) Error() string { return e.Msg }

// Invalid builds a Validation error.
func Invalid(msg string) error { return &Validation{Msg: msg} }

// Precondition marks a domain precondition failure (no open session, session
// already open, terminal session). Surfaced as a blocking prompt, never
// retried automatically.
type Precondition struct{ Msg string }

func (e *Precondition) Error() string { return e.Msg }

// Blocked builds a Precondition error.
func Blocked(msg string) error { return &Precondition{Msg: msg} }

// NotFound marks a missing entity.
type NotFound struct{ Msg string }

func (e *NotFound) Error() string { return e.Msg }

// Missing builds a NotFound error.
func Missing(msg string) error { return &NotFound{Msg: msg} }

// IsValidation reports whether err is (or wraps) a Validation error.
func IsValidation(err error) bool {
	var v *Validation
	return errors.As(err, &v)
}

// IsPrecondition reports whether err is (or wraps) a Precondition error.
func IsPrecondition(err error) bool {
	var p *Precondition
	return errors.As(err, &p)
}

// IsNotFound reports whether err is (or wraps) a NotFound error.
func IsNotFound(err error) bool {
	var n *NotFound
	return errors.As(err, &n)
}
