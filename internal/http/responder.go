package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/venue-operations/internal/application"
	"github.com/example/venue-operations/internal/lock"
)

var (
	errBadRequestBody   = errors.New("invalid request body")
	errInvalidEventID   = errors.New("invalid event id")
	errInvalidClientID  = errors.New("invalid client id")
	errInvalidVersionNo = errors.New("invalid version number")
)

// overrideHeaders lists the credential headers a locked write expects.
var overrideHeaders = []string{
	headerOverrideToken,
	headerOverrideReason,
	headerOverrideAuthor,
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var lockErr *application.LockedError
	if errors.As(err, &lockErr) {
		r.writeLocked(ctx, w, lockErr)
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "a resource with the same identity already exists",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the request contains invalid values",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "internal error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

// writeLocked renders the 423 contract for guarded writes. The body carries
// everything the client needs to retry with credentials.
func (r responder) writeLocked(ctx context.Context, w http.ResponseWriter, lockErr *application.LockedError) {
	payload := lockedResponse{
		Message:                  lockErr.Error(),
		DaysRemaining:            lockErr.DaysRemaining,
		ProtectedFieldsTouched:   lock.FieldNames(lockErr.FieldsTouched),
		OverrideRequired:         true,
		ExpectedCredentialFields: overrideHeaders,
	}
	if lockErr.Override != nil {
		payload.OverrideError = string(lockErr.Override.Kind)
	}

	r.loggerFor(ctx).WarnContext(ctx, "locked write rejected",
		"days_remaining", lockErr.DaysRemaining,
		"fields", payload.ProtectedFieldsTouched,
		"override_error", payload.OverrideError,
	)

	r.writeJSON(ctx, w, http.StatusLocked, payload)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type lockedResponse struct {
	Message                  string   `json:"message"`
	DaysRemaining            int      `json:"days_remaining"`
	ProtectedFieldsTouched   []string `json:"protected_fields_touched"`
	OverrideRequired         bool     `json:"override_required"`
	ExpectedCredentialFields []string `json:"expected_credential_fields"`
	OverrideError            string   `json:"override_error,omitempty"`
}
