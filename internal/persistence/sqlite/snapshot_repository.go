package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/venue-operations/internal/persistence"
)

// CreateSnapshot inserts one version snapshot. The UNIQUE constraint on
// (event_id, version_number) is the concurrency guard: when two writers
// race for the same version number the loser receives ErrDuplicate and is
// expected to recount and retry.
func (s *Storage) CreateSnapshot(ctx context.Context, snapshot persistence.VersionSnapshot) error {
	if snapshot.ID == "" || snapshot.EventID == "" || snapshot.VersionNumber < 1 {
		return persistence.ErrConstraintViolation
	}

	_, err := s.helper.Exec(ctx, `
		INSERT INTO event_versions (id, event_id, version_number, document_type,
			watermark, payload, content_hash, author, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.EventID,
		snapshot.VersionNumber,
		snapshot.DocumentType,
		snapshot.Watermark,
		string(snapshot.Payload),
		snapshot.ContentHash,
		nullString(snapshot.Author),
		snapshot.Comment,
		formatTime(snapshot.CreatedAt),
	)
	return s.mapper.MapError(err)
}

// CountSnapshots returns the number of snapshots stored for an event.
func (s *Storage) CountSnapshots(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.helper.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_versions WHERE event_id = ?", eventID).Scan(&count)
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return count, nil
}

// ListSnapshots returns snapshot metadata for an event, version number
// descending. The payload column is excluded: layouts can embed floor-plan
// images and listings must stay cheap.
func (s *Storage) ListSnapshots(ctx context.Context, eventID string) ([]persistence.SnapshotMetadata, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT id, event_id, version_number, document_type, watermark,
			content_hash, author, comment, created_at
		FROM event_versions
		WHERE event_id = ?
		ORDER BY version_number DESC`, eventID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var snapshots []persistence.SnapshotMetadata
	for rows.Next() {
		var meta persistence.SnapshotMetadata
		var author sql.NullString
		var createdAt string

		if err := rows.Scan(
			&meta.ID,
			&meta.EventID,
			&meta.VersionNumber,
			&meta.DocumentType,
			&meta.Watermark,
			&meta.ContentHash,
			&author,
			&meta.Comment,
			&createdAt,
		); err != nil {
			return nil, s.mapper.MapError(err)
		}

		meta.Author = stringPtr(author)
		if meta.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return snapshots, nil
}

// GetSnapshot retrieves one full snapshot by event and version number.
func (s *Storage) GetSnapshot(ctx context.Context, eventID string, versionNumber int) (persistence.VersionSnapshot, error) {
	row := s.helper.QueryRow(ctx, `
		SELECT id, event_id, version_number, document_type, watermark, payload,
			content_hash, author, comment, created_at
		FROM event_versions
		WHERE event_id = ? AND version_number = ?`, eventID, versionNumber)

	var snapshot persistence.VersionSnapshot
	var author sql.NullString
	var payload, createdAt string

	err := row.Scan(
		&snapshot.ID,
		&snapshot.EventID,
		&snapshot.VersionNumber,
		&snapshot.DocumentType,
		&snapshot.Watermark,
		&payload,
		&snapshot.ContentHash,
		&author,
		&snapshot.Comment,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.VersionSnapshot{}, persistence.ErrNotFound
		}
		return persistence.VersionSnapshot{}, s.mapper.MapError(err)
	}

	snapshot.Payload = []byte(payload)
	snapshot.Author = stringPtr(author)
	if snapshot.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.VersionSnapshot{}, err
	}
	return snapshot, nil
}
