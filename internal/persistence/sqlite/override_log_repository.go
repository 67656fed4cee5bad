package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/venue-operations/internal/persistence"
)

// AppendOverride inserts one audit entry. There is deliberately no update
// or delete statement for override_log anywhere in this package.
func (s *Storage) AppendOverride(ctx context.Context, entry persistence.OverrideLogEntry) error {
	if entry.ID == "" || entry.EventID == "" {
		return persistence.ErrConstraintViolation
	}

	fields, err := encodeStringList(entry.FieldsModified)
	if err != nil {
		return err
	}

	_, err = s.helper.Exec(ctx, `
		INSERT INTO override_log (id, event_id, fields_modified, reason, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.EventID,
		fields,
		entry.Reason,
		nullString(entry.Author),
		formatTime(entry.CreatedAt),
	)
	return s.mapper.MapError(err)
}

// ListOverrides returns the audit entries for an event, newest first.
func (s *Storage) ListOverrides(ctx context.Context, eventID string) ([]persistence.OverrideLogEntry, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT id, event_id, fields_modified, reason, author, created_at
		FROM override_log
		WHERE event_id = ?
		ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.OverrideLogEntry
	for rows.Next() {
		var entry persistence.OverrideLogEntry
		var fields, createdAt string
		var author sql.NullString

		if err := rows.Scan(&entry.ID, &entry.EventID, &fields, &entry.Reason, &author, &createdAt); err != nil {
			return nil, s.mapper.MapError(err)
		}

		if entry.FieldsModified, err = decodeStringList(fields, "fields_modified"); err != nil {
			return nil, err
		}
		entry.Author = stringPtr(author)
		if entry.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return entries, nil
}
