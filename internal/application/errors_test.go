package application

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/venue-operations/internal/lock"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("collects field errors", func(t *testing.T) {
		t.Parallel()

		var vErr ValidationError
		if vErr.HasErrors() {
			t.Fatal("expected no errors before any were added")
		}
		vErr.add("title", "title is required")
		vErr.add("status", "status must be one of pending, confirmed, cancelled")

		if !vErr.HasErrors() {
			t.Fatal("expected recorded errors")
		}
		if vErr.FieldErrors["title"] != "title is required" {
			t.Fatalf("unexpected title error: %q", vErr.FieldErrors["title"])
		}
	})

	t.Run("nil receiver is safe", func(t *testing.T) {
		t.Parallel()

		var vErr *ValidationError
		if vErr.HasErrors() {
			t.Fatal("expected nil receiver to report no errors")
		}
		if vErr.Error() != "" {
			t.Fatalf("expected empty message, got %q", vErr.Error())
		}
	})
}

func TestLockedError(t *testing.T) {
	t.Parallel()

	t.Run("message names the remaining days", func(t *testing.T) {
		t.Parallel()

		err := &LockedError{DaysRemaining: 5, WindowDays: 10}
		if !strings.Contains(err.Error(), "5 days remaining") {
			t.Fatalf("unexpected message: %q", err.Error())
		}
	})

	t.Run("unwraps the credential failure", func(t *testing.T) {
		t.Parallel()

		err := &LockedError{
			DaysRemaining: 3,
			FieldsTouched: []lock.ProtectedField{lock.FieldMenu},
			Override:      &OverrideError{Kind: OverrideTokenMismatch},
		}

		var overrideErr *OverrideError
		if !errors.As(err, &overrideErr) {
			t.Fatal("expected errors.As to reach the override error")
		}
		if overrideErr.Kind != OverrideTokenMismatch {
			t.Fatalf("unexpected kind: %q", overrideErr.Kind)
		}
	})

	t.Run("no credential failure unwraps to nil", func(t *testing.T) {
		t.Parallel()

		err := &LockedError{DaysRemaining: 2}
		if err.Unwrap() != nil {
			t.Fatalf("expected nil, got %v", err.Unwrap())
		}
	})
}

func TestOverrideErrorMessages(t *testing.T) {
	t.Parallel()

	cases := map[OverrideErrorKind]string{
		OverrideMissingToken:   "override token missing",
		OverrideTokenMismatch:  "override token invalid",
		OverrideReasonTooShort: "override reason required (minimum 10 characters)",
	}
	for kind, want := range cases {
		err := &OverrideError{Kind: kind}
		if err.Error() != want {
			t.Fatalf("kind %q: expected %q, got %q", kind, want, err.Error())
		}
	}
}
