package application

import "time"

// Event statuses mirror the venue workflow: an enquiry starts pending, gets
// confirmed once a date is fixed, and may be cancelled at any point.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// EventStatuses lists the accepted status values.
var EventStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled}

// Time slots the venue operates. An event may also leave the slot unset.
const (
	TimeSlotLunch  = "lunch"
	TimeSlotDinner = "dinner"
)

// TimeSlots lists the accepted time slot values.
var TimeSlots = []string{TimeSlotLunch, TimeSlotDinner}

// DocumentType classifies which printable document a snapshot was frozen for.
type DocumentType string

const (
	DocumentClientPackage DocumentType = "client-package"
	DocumentStaffSheet    DocumentType = "staff-sheet"
)

// DocumentTypes lists the accepted document types.
var DocumentTypes = []DocumentType{DocumentClientPackage, DocumentStaffSheet}

// Watermark labels the contractual weight of a snapshot.
type Watermark string

const (
	WatermarkDraft    Watermark = "DRAFT"
	WatermarkContract Watermark = "CONTRACT"
	WatermarkFinal    Watermark = "FINAL"
)

// Watermarks lists the accepted watermark values.
var Watermarks = []Watermark{WatermarkDraft, WatermarkContract, WatermarkFinal}

// MenuCourse is one course of the agreed menu with its chosen dishes.
type MenuCourse struct {
	Name   string   `json:"name"`
	Dishes []string `json:"dishes"`
}

// MenuSelection is the agreed menu: an optional base menu reference plus the
// chosen courses. One of the protected sections.
type MenuSelection struct {
	BaseMenu string       `json:"base_menu,omitempty"`
	Courses  []MenuCourse `json:"courses,omitempty"`
}

// MenuSection is one printable section of the structured menu.
type MenuSection struct {
	Title   string   `json:"title"`
	Entries []string `json:"entries"`
}

// MenuStructure is the printable structured menu. One of the protected
// sections.
type MenuStructure struct {
	Sections []MenuSection `json:"sections,omitempty"`
}

// SeatingTable is one table in the seating layout.
type SeatingTable struct {
	Name   string   `json:"name"`
	Seats  int      `json:"seats"`
	Guests []string `json:"guests,omitempty"`
}

// SeatingStation is a buffet or service station placed in the hall.
type SeatingStation struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// SeatingLayout is the hall arrangement: tables, stations and an optional
// floor-plan image reference. One of the protected sections.
type SeatingLayout struct {
	Tables       []SeatingTable   `json:"tables,omitempty"`
	Stations     []SeatingStation `json:"stations,omitempty"`
	FloorPlanRef string           `json:"floor_plan_ref,omitempty"`
}

// Event is the application view of a venue event.
type Event struct {
	ID             string
	Title          string
	Type           string
	Status         string
	ConfirmedDate  *time.Time
	ProposedDates  []string
	TimeSlot       string
	PartySize      *int
	Note           string
	Menu           MenuSelection
	StructuredMenu MenuStructure
	Layout         *SeatingLayout
	ClientIDs      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventInput carries the fields accepted when creating an event.
type EventInput struct {
	Title          string
	Type           string
	Status         string
	ConfirmedDate  *time.Time
	ProposedDates  []string
	TimeSlot       string
	PartySize      *int
	Note           string
	Menu           MenuSelection
	StructuredMenu MenuStructure
	Layout         *SeatingLayout
	ClientIDs      []string
}

// EventUpdate carries a partial event update. Fields lists the payload keys
// that were actually present in the request; a pointer that is nil while its
// key is listed clears the value. The write guard inspects Fields to decide
// which protected sections the request touches.
type EventUpdate struct {
	Fields         []string
	Title          *string
	Type           *string
	Status         *string
	ConfirmedDate  *time.Time
	ProposedDates  []string
	TimeSlot       *string
	PartySize      *int
	Note           *string
	Menu           *MenuSelection
	StructuredMenu *MenuStructure
	Layout         *SeatingLayout
	ClientIDs      []string
}

// Has reports whether the named payload key was present in the request.
func (u EventUpdate) Has(field string) bool {
	for _, name := range u.Fields {
		if name == field {
			return true
		}
	}
	return false
}

// Client is the application view of a venue client.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientInput carries the fields accepted when creating a client.
type ClientInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// OverrideCredential is the per-request capability presented to bypass the
// lock window. It is validated on every request and never persisted.
type OverrideCredential struct {
	Token  string
	Reason string
	Author string
}

// GrantedOverride is the outcome of a successful credential validation.
type GrantedOverride struct {
	Reason string
	Author string
}

// OverrideLogEntry is one immutable audit record of a granted override.
type OverrideLogEntry struct {
	ID             string
	EventID        string
	FieldsModified []string
	Reason         string
	Author         string
	CreatedAt      time.Time
}

// ClientSnapshot is the client contact data embedded in a snapshot payload.
type ClientSnapshot struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// SnapshotPayload is the canonical serialization schema for a version
// snapshot. Field order is fixed by this declaration; the content hash is
// computed over the marshalled bytes, so the schema must stay stable.
type SnapshotPayload struct {
	Title          string           `json:"title"`
	Type           string           `json:"type"`
	Status         string           `json:"status"`
	ConfirmedDate  *string          `json:"confirmed_date"`
	ProposedDates  []string         `json:"proposed_dates"`
	TimeSlot       string           `json:"time_slot"`
	PartySize      *int             `json:"party_size"`
	Note           string           `json:"note"`
	Clients        []ClientSnapshot `json:"clients"`
	Menu           MenuSelection    `json:"menu"`
	StructuredMenu MenuStructure    `json:"structured_menu"`
	Layout         *SeatingLayout   `json:"layout"`
}

// VersionSnapshot is the application view of a stored snapshot. Payload is
// opaque to callers; document renderers receive it together with the
// version number and watermark.
type VersionSnapshot struct {
	ID            string
	EventID       string
	VersionNumber int
	DocumentType  DocumentType
	Watermark     Watermark
	Payload       []byte
	ContentHash   string
	Author        string
	Comment       string
	CreatedAt     time.Time
}

// SnapshotMetadata is a snapshot without its payload, for listings.
type SnapshotMetadata struct {
	ID            string
	EventID       string
	VersionNumber int
	DocumentType  DocumentType
	Watermark     Watermark
	ContentHash   string
	Author        string
	Comment       string
	CreatedAt     time.Time
}
