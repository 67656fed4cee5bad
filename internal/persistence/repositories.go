package persistence

import "context"

// EventRepository exposes CRUD operations for events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ClientRepository exposes operations for venue clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	GetClientByEmail(ctx context.Context, email string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// SnapshotSourceRepository reads the state a snapshot freezes. The event
// row, its client links and the client contact rows are read inside one
// transaction: a writer committing between the reads would otherwise let a
// snapshot mix two states.
type SnapshotSourceRepository interface {
	GetEventWithClients(ctx context.Context, id string) (Event, []Client, error)
}

// OverrideLogRepository stores the append-only override audit trail.
// Deliberately no update or delete methods: entries are immutable.
type OverrideLogRepository interface {
	AppendOverride(ctx context.Context, entry OverrideLogEntry) error
	// ListOverrides returns entries for an event, newest first.
	ListOverrides(ctx context.Context, eventID string) ([]OverrideLogEntry, error)
}

// SnapshotRepository stores immutable event version snapshots. The
// (event_id, version_number) pair is unique; CreateSnapshot returns
// ErrDuplicate when a concurrent writer claimed the same version number,
// and callers are expected to recount and retry.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot VersionSnapshot) error
	CountSnapshots(ctx context.Context, eventID string) (int, error)
	// ListSnapshots returns metadata only, version number descending.
	ListSnapshots(ctx context.Context, eventID string) ([]SnapshotMetadata, error)
	GetSnapshot(ctx context.Context, eventID string, versionNumber int) (VersionSnapshot, error)
}
