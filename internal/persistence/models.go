package persistence

import "time"

// Event represents a venue event record. The Menu, StructuredMenu and
// Layout columns hold the serialized protected sections; persistence treats
// them as opaque JSON and leaves their schema to the application layer.
type Event struct {
	ID             string
	Title          string
	Type           string
	Status         string
	ConfirmedDate  *time.Time
	ProposedDates  []string
	TimeSlot       *string
	PartySize      *int
	Note           string
	Menu           []byte
	StructuredMenu []byte
	Layout         []byte
	ClientIDs      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Client represents a venue client referenced by events.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OverrideLogEntry is the immutable record of one granted lock override.
// Entries are only ever appended; there is no update or delete path.
type OverrideLogEntry struct {
	ID             string
	EventID        string
	FieldsModified []string
	Reason         string
	Author         *string
	CreatedAt      time.Time
}

// VersionSnapshot is an immutable, hashed freeze of an event's printable
// state. VersionNumber is strictly increasing per event with no gaps.
type VersionSnapshot struct {
	ID            string
	EventID       string
	VersionNumber int
	DocumentType  string
	Watermark     string
	Payload       []byte
	ContentHash   string
	Author        *string
	Comment       string
	CreatedAt     time.Time
}

// SnapshotMetadata mirrors VersionSnapshot without the payload, for cheap
// listings.
type SnapshotMetadata struct {
	ID            string
	EventID       string
	VersionNumber int
	DocumentType  string
	Watermark     string
	ContentHash   string
	Author        *string
	Comment       string
	CreatedAt     time.Time
}
