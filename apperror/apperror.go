// Package apperror defines the closed set of application errors used across
// the whole request pipeline. Handlers never hand raw database or library
// errors to the client; they translate failures into one of these variants and
// forward them to the terminal renderer, which maps the variant to an HTTP
// status and a human-readable message. Anything that reaches the renderer
// without being an *AppError is treated as the designated default variant
// (500 / "Something Went Wrong").
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType enumerates the error variants. The set is deliberately closed:
// every failure the application can surface fits one of these categories.
type ErrorType int

const (
	// UnknownError is the zero value, for errors that were never classified.
	UnknownError ErrorType = iota
	// ValidationError represents malformed or missing user input.
	ValidationError
	// AuthError represents an authentication failure (not logged in,
	// bad credentials).
	AuthError
	// ForbiddenError represents an authorization failure (logged in, but not
	// allowed — e.g. mutating a listing you don't own).
	ForbiddenError
	// NotFoundError represents a missing resource (unknown listing id,
	// unmatched route).
	NotFoundError
	// ConflictError represents a uniqueness conflict, e.g. a taken username.
	ConflictError
	// DatabaseError represents a failure talking to the database.
	DatabaseError
	// ConfigError represents an invalid or incomplete configuration.
	ConfigError
	// InternalError is the generic catch-all for server-side failures.
	InternalError
)

// DefaultMessage is what the client sees when an error carries no message of
// its own. The wording is part of the application's user-facing contract.
const DefaultMessage = "Something Went Wrong"

// AppError carries an error variant plus the message shown to the client.
// Err holds the underlying cause for logs only; it is never rendered.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error satisfies the standard error interface. The underlying cause is
// included here because Error() output goes to logs, not to clients.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the variant to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case DatabaseError, ConfigError, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to render to a client. It falls back to
// DefaultMessage so a carelessly-constructed error still renders something
// sensible rather than an empty page.
func (e *AppError) PublicMessage() string {
	if e.Message == "" {
		return DefaultMessage
	}
	return e.Message
}

// New creates an AppError of an arbitrary variant. The typed constructors
// below are preferred; New exists for the rare dynamically-chosen case.
func New(errType ErrorType, message string, underlying error) *AppError {
	return &AppError{Type: errType, Message: message, Err: underlying}
}

// NewValidationError creates a ValidationError (400).
func NewValidationError(message string, underlying error) *AppError {
	return New(ValidationError, message, underlying)
}

// NewAuthError creates an AuthError (401).
func NewAuthError(message string, underlying error) *AppError {
	return New(AuthError, message, underlying)
}

// NewForbiddenError creates a ForbiddenError (403).
func NewForbiddenError(message string, underlying error) *AppError {
	return New(ForbiddenError, message, underlying)
}

// NewNotFoundError creates a NotFoundError (404).
func NewNotFoundError(message string, underlying error) *AppError {
	return New(NotFoundError, message, underlying)
}

// NewConflictError creates a ConflictError (409).
func NewConflictError(message string, underlying error) *AppError {
	return New(ConflictError, message, underlying)
}

// NewDatabaseError creates a DatabaseError (500).
func NewDatabaseError(message string, underlying error) *AppError {
	return New(DatabaseError, message, underlying)
}

// NewConfigError creates a ConfigError (500).
func NewConfigError(message string, underlying error) *AppError {
	return New(ConfigError, message, underlying)
}

// NewInternalError creates an InternalError (500).
func NewInternalError(message string, underlying error) *AppError {
	return New(InternalError, message, underlying)
}

// ErrorResponse is the JSON error payload for the API surface. Only the
// public message crosses the wire.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts the error to its API payload.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.PublicMessage()}
}

// From coerces any error into an *AppError. Errors that are already part of
// the closed set (anywhere in their wrap chain) pass through; everything else
// becomes the default 500 variant with the default message, so stray errors
// can never leak internal detail to a client.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(InternalError, DefaultMessage, err)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsAuthError reports whether err is, or wraps, an AuthError.
func IsAuthError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AuthError
}

// IsForbidden reports whether err is, or wraps, a ForbiddenError.
func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ForbiddenError
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}
