// Package sqlite implements the persistence repositories on top of a SQLite
// database accessed through modernc.org/sqlite.
package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the repository implementations around one connection pool.
// It satisfies every repository interface in the persistence package.
type Storage struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// Open returns a Storage backed by the database at the given DSN.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Pool exposes the connection pool for callers that need transactions.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// schema is the complete DDL for the venue database. The override_log and
// event_versions tables intentionally carry no foreign key to events: the
// audit trail and version history outlive event deletion.
const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL,
	confirmed_date  TEXT,
	proposed_dates  TEXT NOT NULL DEFAULT '[]',
	time_slot       TEXT,
	party_size      INTEGER,
	note            TEXT NOT NULL DEFAULT '',
	menu            TEXT NOT NULL DEFAULT '{}',
	structured_menu TEXT NOT NULL DEFAULT '{}',
	layout          TEXT,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_clients (
	event_id  TEXT NOT NULL REFERENCES events(id),
	client_id TEXT NOT NULL REFERENCES clients(id),
	PRIMARY KEY (event_id, client_id)
);

CREATE TABLE IF NOT EXISTS override_log (
	id              TEXT PRIMARY KEY,
	event_id        TEXT NOT NULL,
	fields_modified TEXT NOT NULL,
	reason          TEXT NOT NULL,
	author          TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_override_log_event
	ON override_log (event_id, created_at DESC);

CREATE TABLE IF NOT EXISTS event_versions (
	id             TEXT PRIMARY KEY,
	event_id       TEXT NOT NULL,
	version_number INTEGER NOT NULL CHECK (version_number >= 1),
	document_type  TEXT NOT NULL,
	watermark      TEXT NOT NULL,
	payload        TEXT NOT NULL,
	content_hash   TEXT NOT NULL,
	author         TEXT,
	comment        TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	UNIQUE (event_id, version_number)
);
`

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.pool.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
