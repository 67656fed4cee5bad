package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/venue-operations/internal/lock"
	"github.com/example/venue-operations/internal/persistence"
)

// OverrideLogRepository captures the persistence interactions needed by the
// audit service. Append and list only: the trail is immutable.
type OverrideLogRepository interface {
	AppendOverride(ctx context.Context, entry OverrideLogEntry) (OverrideLogEntry, error)
	ListOverrides(ctx context.Context, eventID string) ([]OverrideLogEntry, error)
}

// AuditService records granted lock overrides. A failed append surfaces to
// the caller: the write guard treats audit-plus-update as one unit of work.
type AuditService struct {
	log         OverrideLogRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditService wires dependencies for the audit trail.
func NewAuditService(log OverrideLogRepository, idGenerator func() string, now func() time.Time) *AuditService {
	return NewAuditServiceWithLogger(log, idGenerator, now, nil)
}

// NewAuditServiceWithLogger is NewAuditService with an explicit logger.
func NewAuditServiceWithLogger(log OverrideLogRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuditService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuditService{
		log:         log,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// RecordOverride appends one immutable entry for a granted override.
func (s *AuditService) RecordOverride(ctx context.Context, eventID string, fields []lock.ProtectedField, grant GrantedOverride) (OverrideLogEntry, error) {
	if s == nil || s.log == nil {
		return OverrideLogEntry{}, fmt.Errorf("audit repository not configured")
	}

	entry := OverrideLogEntry{
		ID:             s.idGenerator(),
		EventID:        eventID,
		FieldsModified: lock.FieldNames(fields),
		Reason:         grant.Reason,
		Author:         grant.Author,
		CreatedAt:      s.now(),
	}

	stored, err := s.log.AppendOverride(ctx, entry)
	if err != nil {
		serviceLogger(ctx, s.logger, "audit", "record_override", "event_id", eventID).
			ErrorContext(ctx, "failed to append override entry", "error", err)
		return OverrideLogEntry{}, fmt.Errorf("failed to record override: %w", err)
	}

	serviceLogger(ctx, s.logger, "audit", "record_override", "event_id", eventID).
		InfoContext(ctx, "override recorded", "entry_id", stored.ID, "fields", stored.FieldsModified, "author", stored.Author)

	return stored, nil
}

// ListOverrides returns the audit entries for an event, newest first.
func (s *AuditService) ListOverrides(ctx context.Context, eventID string) ([]OverrideLogEntry, error) {
	if s == nil || s.log == nil {
		return nil, fmt.Errorf("audit repository not configured")
	}

	entries, err := s.log.ListOverrides(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}
