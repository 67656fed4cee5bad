package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/venue-operations/internal/lock"
)

// EventRepository captures the persistence interactions needed by the event
// service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ClientDirectory answers whether referenced client ids exist.
type ClientDirectory interface {
	MissingClientIDs(ctx context.Context, ids []string) ([]string, error)
}

// OverrideRecorder appends audit entries for granted overrides.
type OverrideRecorder interface {
	RecordOverride(ctx context.Context, eventID string, fields []lock.ProtectedField, grant GrantedOverride) (OverrideLogEntry, error)
}

// GuardConfig carries the write guard's operating parameters.
type GuardConfig struct {
	// WindowDays is the lock window size. Zero selects the default.
	WindowDays int
	// SecretHash is the encoded argon2id hash of the override token.
	SecretHash string
}

// EventService owns the event lifecycle and enforces the lock window on
// writes. Protected-section edits inside the window go through credential
// validation and audit before they reach storage.
type EventService struct {
	events      EventRepository
	clients     ClientDirectory
	audit       OverrideRecorder
	guard       GuardConfig
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events EventRepository, clients ClientDirectory, audit OverrideRecorder, guard GuardConfig, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, clients, audit, guard, idGenerator, now, nil)
}

// NewEventServiceWithLogger is NewEventService with an explicit logger.
func NewEventServiceWithLogger(events EventRepository, clients ClientDirectory, audit OverrideRecorder, guard GuardConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		clients:     clients,
		audit:       audit,
		guard:       guard,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateEvent validates and stores a new event. Creation is never subject to
// the lock window; there is no prior confirmed state to protect.
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}

	input = normalizeEventInput(input)
	if err := s.validateEventInput(ctx, input); err != nil {
		return Event{}, err
	}

	timestamp := s.now()
	event := Event{
		ID:             s.idGenerator(),
		Title:          input.Title,
		Type:           input.Type,
		Status:         input.Status,
		ConfirmedDate:  input.ConfirmedDate,
		ProposedDates:  input.ProposedDates,
		TimeSlot:       input.TimeSlot,
		PartySize:      input.PartySize,
		Note:           input.Note,
		Menu:           input.Menu,
		StructuredMenu: input.StructuredMenu,
		Layout:         input.Layout,
		ClientIDs:      input.ClientIDs,
		CreatedAt:      timestamp,
		UpdatedAt:      timestamp,
	}

	created, err := s.events.CreateEvent(ctx, event)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "event", "create", "event_id", created.ID).
		InfoContext(ctx, "event created", "title", created.Title, "status", created.Status)

	return created, nil
}

// UpdateEvent applies a partial update, enforcing the lock window. The guard
// evaluates the event's stored confirmed date, not the incoming one: moving
// a locked event's date is itself a change the lock must not prevent, but
// touching a protected section requires a valid override, whose grant is
// audited before the write lands. A failed audit append aborts the update.
func (s *EventService) UpdateEvent(ctx context.Context, id string, update EventUpdate, cred OverrideCredential) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	if id == "" {
		return Event{}, ErrNotFound
	}

	existing, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	if err := s.validateEventUpdate(ctx, update); err != nil {
		return Event{}, err
	}

	touched := lock.TouchedProtected(update.Fields)
	if len(touched) > 0 {
		state := lock.Evaluate(existing.ConfirmedDate, s.now(), s.guard.WindowDays)
		if state.Locked {
			grant, overrideErr := ValidateOverride(cred, s.guard.SecretHash)
			if overrideErr != nil {
				serviceLogger(ctx, s.logger, "event", "update", "event_id", id).
					WarnContext(ctx, "locked write rejected", "days_remaining", state.DaysRemaining, "fields", lock.FieldNames(touched), "override_error", string(overrideErr.Kind))
				return Event{}, &LockedError{
					DaysRemaining: state.DaysRemaining,
					WindowDays:    state.WindowDays,
					FieldsTouched: touched,
					Override:      overrideErr,
				}
			}

			if s.audit == nil {
				return Event{}, fmt.Errorf("override granted but audit recorder not configured")
			}
			if _, err := s.audit.RecordOverride(ctx, id, touched, grant); err != nil {
				return Event{}, err
			}
		}
	}

	applied := applyEventUpdate(existing, update)
	applied.UpdatedAt = s.now()

	updated, err := s.events.UpdateEvent(ctx, applied)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "event", "update", "event_id", id).
		InfoContext(ctx, "event updated", "fields", update.Fields)

	return updated, nil
}

// GetEvent returns one event by id.
func (s *EventService) GetEvent(ctx context.Context, id string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	if id == "" {
		return Event{}, ErrNotFound
	}

	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	return s.events.ListEvents(ctx)
}

// DeleteEvent removes an event. Audit entries and snapshots are kept; they
// record history, not current state.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}
	if id == "" {
		return ErrNotFound
	}

	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "event", "delete", "event_id", id).
		InfoContext(ctx, "event deleted")

	return nil
}

// LockState reports the current lock evaluation for an event.
func (s *EventService) LockState(ctx context.Context, id string) (lock.State, error) {
	if s == nil || s.events == nil {
		return lock.State{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return lock.State{}, mapRepoError(err)
	}

	return lock.Evaluate(event.ConfirmedDate, s.now(), s.guard.WindowDays), nil
}

func normalizeEventInput(input EventInput) EventInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Type = strings.TrimSpace(input.Type)
	if input.Status == "" {
		input.Status = StatusPending
	}
	return input
}

func (s *EventService) validateEventInput(ctx context.Context, input EventInput) error {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Type == "" {
		vErr.add("type", "type is required")
	}
	if !validEventStatus(input.Status) {
		vErr.add("status", "unknown status")
	}
	if input.PartySize != nil && *input.PartySize < 1 {
		vErr.add("party_size", "party size must be at least 1")
	}
	if !validTimeSlot(input.TimeSlot) {
		vErr.add("time_slot", "time slot must be lunch or dinner")
	}

	if err := s.checkClientIDs(ctx, input.ClientIDs, vErr); err != nil {
		return err
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func (s *EventService) validateEventUpdate(ctx context.Context, update EventUpdate) error {
	vErr := &ValidationError{}

	if update.Has("title") {
		if update.Title == nil || strings.TrimSpace(*update.Title) == "" {
			vErr.add("title", "title cannot be cleared")
		}
	}
	if update.Has("type") {
		if update.Type == nil || strings.TrimSpace(*update.Type) == "" {
			vErr.add("type", "type cannot be cleared")
		}
	}
	if update.Has("status") {
		if update.Status == nil || !validEventStatus(*update.Status) {
			vErr.add("status", "unknown status")
		}
	}
	if update.Has("party_size") && update.PartySize != nil && *update.PartySize < 1 {
		vErr.add("party_size", "party size must be at least 1")
	}
	if update.Has("time_slot") && update.TimeSlot != nil && !validTimeSlot(*update.TimeSlot) {
		vErr.add("time_slot", "time slot must be lunch or dinner")
	}
	if update.Has("client_ids") {
		if err := s.checkClientIDs(ctx, update.ClientIDs, vErr); err != nil {
			return err
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func (s *EventService) checkClientIDs(ctx context.Context, ids []string, vErr *ValidationError) error {
	if s.clients == nil || len(ids) == 0 {
		return nil
	}

	missing, err := s.clients.MissingClientIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check client references: %w", err)
	}
	if len(missing) > 0 {
		vErr.add("client_ids", fmt.Sprintf("unknown clients: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func validTimeSlot(slot string) bool {
	if slot == "" {
		return true
	}
	for _, known := range TimeSlots {
		if known == slot {
			return true
		}
	}
	return false
}

func validEventStatus(status string) bool {
	for _, known := range EventStatuses {
		if known == status {
			return true
		}
	}
	return false
}

// applyEventUpdate merges a partial update into the stored event. Only keys
// present in the payload change; a present key with a nil value clears the
// field.
func applyEventUpdate(event Event, update EventUpdate) Event {
	if update.Has("title") && update.Title != nil {
		event.Title = strings.TrimSpace(*update.Title)
	}
	if update.Has("type") && update.Type != nil {
		event.Type = strings.TrimSpace(*update.Type)
	}
	if update.Has("status") && update.Status != nil {
		event.Status = *update.Status
	}
	if update.Has("confirmed_date") {
		event.ConfirmedDate = update.ConfirmedDate
	}
	if update.Has("proposed_dates") {
		event.ProposedDates = update.ProposedDates
	}
	if update.Has("time_slot") {
		if update.TimeSlot != nil {
			event.TimeSlot = *update.TimeSlot
		} else {
			event.TimeSlot = ""
		}
	}
	if update.Has("party_size") {
		event.PartySize = update.PartySize
	}
	if update.Has("note") {
		if update.Note != nil {
			event.Note = *update.Note
		} else {
			event.Note = ""
		}
	}
	if update.Has("menu") {
		if update.Menu != nil {
			event.Menu = *update.Menu
		} else {
			event.Menu = MenuSelection{}
		}
	}
	if update.Has("structured_menu") {
		if update.StructuredMenu != nil {
			event.StructuredMenu = *update.StructuredMenu
		} else {
			event.StructuredMenu = MenuStructure{}
		}
	}
	if update.Has("layout") {
		event.Layout = update.Layout
	}
	if update.Has("client_ids") {
		event.ClientIDs = update.ClientIDs
	}
	return event
}
