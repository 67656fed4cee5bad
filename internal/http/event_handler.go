package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/venue-operations/internal/application"
	"github.com/example/venue-operations/internal/lock"
)

// Credential headers for guarded writes.
const (
	headerOverrideToken  = "X-Override-Token"
	headerOverrideReason = "X-Override-Reason"
	headerOverrideAuthor = "X-Override-Author"
)

type eventService interface {
	CreateEvent(ctx context.Context, input application.EventInput) (application.Event, error)
	UpdateEvent(ctx context.Context, id string, update application.EventUpdate, cred application.OverrideCredential) (application.Event, error)
	GetEvent(ctx context.Context, id string) (application.Event, error)
	ListEvents(ctx context.Context) ([]application.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	LockState(ctx context.Context, id string) (lock.State, error)
}

type auditService interface {
	ListOverrides(ctx context.Context, eventID string) ([]application.OverrideLogEntry, error)
}

type EventHandler struct {
	service    eventService
	audit      auditService
	windowDays int
	now        func() time.Time
	responder  responder
	logger     *slog.Logger
}

func NewEventHandler(service eventService, audit auditService, windowDays int, now func() time.Time, logger *slog.Logger) *EventHandler {
	if now == nil {
		now = time.Now
	}
	return &EventHandler{
		service:    service,
		audit:      audit,
		windowDays: windowDays,
		now:        now,
		responder:  newResponder(logger),
		logger:     defaultLogger(logger),
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.toDTO(event))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, h.toDTO(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: dtos})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toDTO(event))
}

// Update applies a partial update. Only the keys present in the request body
// are touched; the override credential travels in headers so that the body
// stays a plain event payload.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	update, err := parseEventUpdate(body)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	cred := application.OverrideCredential{
		Token:  strings.TrimSpace(r.Header.Get(headerOverrideToken)),
		Reason: r.Header.Get(headerOverrideReason),
		Author: r.Header.Get(headerOverrideAuthor),
	}

	event, err := h.service.UpdateEvent(r.Context(), eventID, update, cred)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "event", "update", "event_id", eventID).
		InfoContext(r.Context(), "event updated", "fields", update.Fields)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// LockInfo reports the event's current lock evaluation: whether protected
// sections are guarded right now, and what a guarded write would need.
func (h *EventHandler) LockInfo(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	state, err := h.service.LockState(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := lockStateDTO{
		Locked:          state.Locked,
		WindowDays:      state.WindowDays,
		ProtectedFields: lock.FieldNames(lock.ProtectedFields),
	}
	if state.HasDeadline {
		days := state.DaysRemaining
		dto.DaysRemaining = &days
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dto)
}

// ListOverrides exposes the audit trail for one event, newest first.
func (h *EventHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.audit == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	entries, err := h.audit.ListOverrides(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]overrideLogDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, overrideLogDTO{
			ID:             entry.ID,
			EventID:        entry.EventID,
			FieldsModified: entry.FieldsModified,
			Reason:         entry.Reason,
			Author:         entry.Author,
			CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOverridesResponse{Overrides: dtos})
}

func (h *EventHandler) toDTO(event application.Event) eventDTO {
	state := lock.Evaluate(event.ConfirmedDate, h.now(), h.windowDays)

	dto := eventDTO{
		ID:             event.ID,
		Title:          event.Title,
		Type:           event.Type,
		Status:         event.Status,
		ProposedDates:  event.ProposedDates,
		TimeSlot:       event.TimeSlot,
		PartySize:      event.PartySize,
		Note:           event.Note,
		Menu:           event.Menu,
		StructuredMenu: event.StructuredMenu,
		Layout:         event.Layout,
		ClientIDs:      event.ClientIDs,
		Locked:         state.Locked,
		CreatedAt:      event.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      event.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if event.ConfirmedDate != nil {
		formatted := event.ConfirmedDate.UTC().Format(time.RFC3339)
		dto.ConfirmedDate = &formatted
	}
	if state.HasDeadline {
		days := state.DaysRemaining
		dto.DaysRemaining = &days
	}

	return dto
}

type eventRequest struct {
	Title          string                     `json:"title"`
	Type           string                     `json:"type"`
	Status         string                     `json:"status"`
	ConfirmedDate  *string                    `json:"confirmed_date"`
	ProposedDates  []string                   `json:"proposed_dates"`
	TimeSlot       string                     `json:"time_slot"`
	PartySize      *int                       `json:"party_size"`
	Note           string                     `json:"note"`
	Menu           application.MenuSelection  `json:"menu"`
	StructuredMenu application.MenuStructure  `json:"structured_menu"`
	Layout         *application.SeatingLayout `json:"layout"`
	ClientIDs      []string                   `json:"client_ids"`
}

func (r eventRequest) toInput() (application.EventInput, error) {
	confirmed, err := parseDate(r.ConfirmedDate)
	if err != nil {
		return application.EventInput{}, err
	}

	return application.EventInput{
		Title:          r.Title,
		Type:           r.Type,
		Status:         r.Status,
		ConfirmedDate:  confirmed,
		ProposedDates:  append([]string(nil), r.ProposedDates...),
		TimeSlot:       strings.TrimSpace(r.TimeSlot),
		PartySize:      r.PartySize,
		Note:           r.Note,
		Menu:           r.Menu,
		StructuredMenu: r.StructuredMenu,
		Layout:         r.Layout,
		ClientIDs:      append([]string(nil), r.ClientIDs...),
	}, nil
}

type eventUpdateRequest struct {
	Title          *string                    `json:"title"`
	Type           *string                    `json:"type"`
	Status         *string                    `json:"status"`
	ConfirmedDate  *string                    `json:"confirmed_date"`
	ProposedDates  []string                   `json:"proposed_dates"`
	TimeSlot       *string                    `json:"time_slot"`
	PartySize      *int                       `json:"party_size"`
	Note           *string                    `json:"note"`
	Menu           *application.MenuSelection `json:"menu"`
	StructuredMenu *application.MenuStructure `json:"structured_menu"`
	Layout         *application.SeatingLayout `json:"layout"`
	ClientIDs      []string                   `json:"client_ids"`
}

// updatableFields are the payload keys the update endpoint understands.
// Unknown keys are ignored rather than rejected.
var updatableFields = []string{
	"title", "type", "status", "confirmed_date", "proposed_dates",
	"time_slot", "party_size", "note", "menu", "structured_menu",
	"layout", "client_ids",
}

// parseEventUpdate decodes a partial update while remembering which keys the
// payload actually carried. Key presence drives both the protected-field
// detection and the clear-versus-keep decision for nullable fields.
func parseEventUpdate(body []byte) (application.EventUpdate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return application.EventUpdate{}, errBadRequestBody
	}

	var req eventUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return application.EventUpdate{}, errBadRequestBody
	}

	update := application.EventUpdate{
		Title:          req.Title,
		Type:           req.Type,
		Status:         req.Status,
		ProposedDates:  req.ProposedDates,
		TimeSlot:       req.TimeSlot,
		PartySize:      req.PartySize,
		Note:           req.Note,
		Menu:           req.Menu,
		StructuredMenu: req.StructuredMenu,
		Layout:         req.Layout,
		ClientIDs:      req.ClientIDs,
	}

	for _, field := range updatableFields {
		if _, ok := raw[field]; ok {
			update.Fields = append(update.Fields, field)
		}
	}

	if _, ok := raw["confirmed_date"]; ok {
		confirmed, err := parseDate(req.ConfirmedDate)
		if err != nil {
			return application.EventUpdate{}, err
		}
		update.ConfirmedDate = confirmed
	}

	return update, nil
}

// parseDate accepts RFC 3339 timestamps or plain calendar dates.
func parseDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	text := strings.TrimSpace(*value)
	if text == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, text); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", text)
}

type eventDTO struct {
	ID             string                     `json:"id"`
	Title          string                     `json:"title"`
	Type           string                     `json:"type"`
	Status         string                     `json:"status"`
	ConfirmedDate  *string                    `json:"confirmed_date"`
	ProposedDates  []string                   `json:"proposed_dates"`
	TimeSlot       string                     `json:"time_slot,omitempty"`
	PartySize      *int                       `json:"party_size,omitempty"`
	Note           string                     `json:"note"`
	Menu           application.MenuSelection  `json:"menu"`
	StructuredMenu application.MenuStructure  `json:"structured_menu"`
	Layout         *application.SeatingLayout `json:"layout,omitempty"`
	ClientIDs      []string                   `json:"client_ids"`
	Locked         bool                       `json:"locked"`
	DaysRemaining  *int                       `json:"days_remaining,omitempty"`
	CreatedAt      string                     `json:"created_at"`
	UpdatedAt      string                     `json:"updated_at"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type lockStateDTO struct {
	Locked          bool     `json:"locked"`
	DaysRemaining   *int     `json:"days_remaining,omitempty"`
	WindowDays      int      `json:"window_days"`
	ProtectedFields []string `json:"protected_fields"`
}

type overrideLogDTO struct {
	ID             string   `json:"id"`
	EventID        string   `json:"event_id"`
	FieldsModified []string `json:"fields_modified"`
	Reason         string   `json:"reason"`
	Author         string   `json:"author"`
	CreatedAt      string   `json:"created_at"`
}

type listOverridesResponse struct {
	Overrides []overrideLogDTO `json:"overrides"`
}
