package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input"), 400},
		{Conflict("owner cannot be removed"), 400},
		{Unauthorized("missing token"), 401},
		{Forbidden("viewers cannot edit"), 403},
		{NotFound("project"), 404},
		{Internal(errors.New("boom")), 500},
	}
	for _, tc := range tests {
		if got := tc.err.StatusCode(); got != tc.want {
			t.Errorf("StatusCode() for %q = %d, want %d", tc.err.Message, got, tc.want)
		}
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := NotFound("task").Message; got != "task not found" {
		t.Errorf("NotFound message = %q", got)
	}
}

func TestFromUnwrapsThroughWrapping(t *testing.T) {
	inner := Forbidden("no")
	wrapped := fmt.Errorf("authorize: %w", inner)

	got := From(wrapped)
	if got == nil {
		t.Fatal("From should find the wrapped *Error")
	}
	if got.Kind != KindForbidden {
		t.Errorf("kind = %v, want KindForbidden", got.Kind)
	}

	if From(errors.New("plain")) != nil {
		t.Error("From on a plain error should return nil")
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	if err.Message != "internal server error" {
		t.Errorf("client-facing message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should still be reachable via errors.Is")
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation("invalid task",
		FieldError{Field: "name", Message: "cannot be empty"},
		FieldError{Field: "priority", Message: "unknown value"},
	)
	if len(err.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(err.Fields))
	}
	if err.Fields[0].Field != "name" {
		t.Errorf("first field = %q", err.Fields[0].Field)
	}
}
