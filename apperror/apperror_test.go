package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		typ  ErrorType
		want int
	}{
		{"validation", ValidationError, http.StatusBadRequest},
		{"auth", AuthError, http.StatusUnauthorized},
		{"forbidden", ForbiddenError, http.StatusForbidden},
		{"not found", NotFoundError, http.StatusNotFound},
		{"conflict", ConflictError, http.StatusConflict},
		{"database", DatabaseError, http.StatusInternalServerError},
		{"config", ConfigError, http.StatusInternalServerError},
		{"internal", InternalError, http.StatusInternalServerError},
		{"unknown", UnknownError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(tc.typ, "msg", nil)
			if got := e.StatusCode(); got != tc.want {
				t.Errorf("StatusCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFromPassesThroughAppErrors(t *testing.T) {
	orig := NewNotFoundError("listing not found", nil)
	got := From(orig)
	if got != orig {
		t.Fatalf("From() should return the original *AppError unchanged")
	}

	// Wrapped AppErrors are recognized through the chain as well.
	wrapped := fmt.Errorf("handler: %w", orig)
	got = From(wrapped)
	if got.Type != NotFoundError {
		t.Errorf("From(wrapped) type = %v, want NotFoundError", got.Type)
	}
}

func TestFromDefaultsUnclassifiedErrors(t *testing.T) {
	cause := errors.New("pq: connection refused on 10.0.0.3")
	got := From(cause)
	if got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got.StatusCode())
	}
	if got.PublicMessage() != DefaultMessage {
		t.Errorf("public message = %q, want %q", got.PublicMessage(), DefaultMessage)
	}
	// The driver detail must never appear in the client-facing payload.
	if resp := got.ToResponse(); resp.Error != DefaultMessage {
		t.Errorf("response leaked internal detail: %q", resp.Error)
	}
}

func TestPublicMessageFallsBack(t *testing.T) {
	e := New(InternalError, "", errors.New("boom"))
	if e.PublicMessage() != DefaultMessage {
		t.Errorf("empty message should render as %q, got %q", DefaultMessage, e.PublicMessage())
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := errors.New("no rows")
	e := NewDatabaseError("failed to load listing", cause)
	if !errors.Is(e, cause) {
		t.Errorf("errors.Is should see the wrapped cause")
	}
}

func TestTypePredicates(t *testing.T) {
	if !IsNotFound(NewNotFoundError("x", nil)) {
		t.Error("IsNotFound failed on NotFoundError")
	}
	if !IsForbidden(fmt.Errorf("wrap: %w", NewForbiddenError("x", nil))) {
		t.Error("IsForbidden failed on wrapped ForbiddenError")
	}
	if IsAuthError(NewForbiddenError("x", nil)) {
		t.Error("IsAuthError matched a ForbiddenError")
	}
	if !IsValidationError(NewValidationError("x", nil)) {
		t.Error("IsValidationError failed on ValidationError")
	}
	if !IsConflict(NewConflictError("x", nil)) {
		t.Error("IsConflict failed on ConflictError")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound matched a plain error")
	}
}
