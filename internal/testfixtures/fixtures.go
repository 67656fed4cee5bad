// Package testfixtures provides deterministic clocks, identifier generators
// and record builders shared by the persistence and application tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/venue-operations/internal/persistence"
)

var (
	clientCounter   uint64
	eventCounter    uint64
	overrideCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Client fixtures ----------------------------

// ClientOption configures the generated client record.
type ClientOption func(*persistence.Client)

// WithClientEmail overrides the generated email address.
func WithClientEmail(email string) ClientOption {
	return func(c *persistence.Client) {
		c.Email = email
	}
}

// NewClientFixture returns a deterministic client record with optional
// overrides.
func NewClientFixture(opts ...ClientOption) persistence.Client {
	idx := atomic.AddUint64(&clientCounter, 1)
	id := fmt.Sprintf("client-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	phone := fmt.Sprintf("+39 055 %06d", idx)
	client := persistence.Client{
		ID:        id,
		FirstName: fmt.Sprintf("First%03d", idx),
		LastName:  fmt.Sprintf("Last%03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Phone:     &phone,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&client)
	}
	return client
}

// ----------------------------- Event fixtures ----------------------------

// EventOption configures the generated event record.
type EventOption func(*persistence.Event)

// WithConfirmedDate sets the event's confirmed date.
func WithConfirmedDate(date time.Time) EventOption {
	return func(e *persistence.Event) {
		e.ConfirmedDate = &date
	}
}

// WithClientIDs links the event to the given clients.
func WithClientIDs(ids ...string) EventOption {
	return func(e *persistence.Event) {
		e.ClientIDs = ids
	}
}

// WithEventStatus overrides the generated status.
func WithEventStatus(status string) EventOption {
	return func(e *persistence.Event) {
		e.Status = status
	}
}

// NewEventFixture returns a deterministic event record with optional
// overrides. The protected sections default to empty JSON objects, matching
// the storage defaults.
func NewEventFixture(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	id := fmt.Sprintf("event-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	slot := "dinner"
	size := int(40 + idx)
	event := persistence.Event{
		ID:             id,
		Title:          fmt.Sprintf("Event %03d", idx),
		Type:           "wedding",
		Status:         "pending",
		ProposedDates:  []string{"2026-06-01", "2026-06-15"},
		TimeSlot:       &slot,
		PartySize:      &size,
		Note:           "",
		Menu:           []byte(`{}`),
		StructuredMenu: []byte(`{}`),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// --------------------------- Override fixtures ---------------------------

// NewOverrideFixture returns a deterministic audit entry for the given event.
func NewOverrideFixture(eventID string) persistence.OverrideLogEntry {
	idx := atomic.AddUint64(&overrideCounter, 1)
	author := "Admin"
	return persistence.OverrideLogEntry{
		ID:             fmt.Sprintf("override-%03d", idx),
		EventID:        eventID,
		FieldsModified: []string{"menu"},
		Reason:         fmt.Sprintf("client requested change %03d", idx),
		Author:         &author,
		CreatedAt:      referenceTime.Add(time.Duration(idx) * time.Second),
	}
}
