package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/example/venue-operations/internal/persistence"
)

// CreateEvent inserts a new event together with its client associations.
func (s *Storage) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	proposed, err := encodeStringList(event.ProposedDates)
	if err != nil {
		return err
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := s.helper.ExecTx(tx, `
			INSERT INTO events (id, title, type, status, confirmed_date, proposed_dates,
				time_slot, party_size, note, menu, structured_menu, layout, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.Title,
			event.Type,
			event.Status,
			nullTime(event.ConfirmedDate),
			proposed,
			nullString(event.TimeSlot),
			nullInt(event.PartySize),
			event.Note,
			string(defaultBlob(event.Menu)),
			string(defaultBlob(event.StructuredMenu)),
			nullBlob(event.Layout),
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		if err != nil {
			return s.mapper.MapError(err)
		}

		return s.replaceEventClients(tx, event.ID, event.ClientIDs, false)
	})
}

// UpdateEvent rewrites an existing event and its client associations.
// CreatedAt is preserved from the stored row.
func (s *Storage) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}

	proposed, err := encodeStringList(event.ProposedDates)
	if err != nil {
		return err
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := s.helper.ExecTx(tx, `
			UPDATE events
			SET title = ?, type = ?, status = ?, confirmed_date = ?, proposed_dates = ?,
				time_slot = ?, party_size = ?, note = ?, menu = ?, structured_menu = ?,
				layout = ?, updated_at = ?
			WHERE id = ?`,
			event.Title,
			event.Type,
			event.Status,
			nullTime(event.ConfirmedDate),
			proposed,
			nullString(event.TimeSlot),
			nullInt(event.PartySize),
			event.Note,
			string(defaultBlob(event.Menu)),
			string(defaultBlob(event.StructuredMenu)),
			nullBlob(event.Layout),
			formatTime(event.UpdatedAt),
			event.ID,
		)
		if err != nil {
			return s.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		return s.replaceEventClients(tx, event.ID, event.ClientIDs, true)
	})
}

// GetEvent retrieves an event by ID, including its client associations.
func (s *Storage) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	row := s.helper.QueryRow(ctx, `
		SELECT id, title, type, status, confirmed_date, proposed_dates, time_slot,
			party_size, note, menu, structured_menu, layout, created_at, updated_at
		FROM events
		WHERE id = ?`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, s.mapper.MapError(err)
	}

	clients, err := s.loadEventClients(ctx, id)
	if err != nil {
		return persistence.Event{}, err
	}
	event.ClientIDs = clients

	return event, nil
}

// GetEventWithClients reads an event together with its client contact rows
// inside one transaction. Snapshot creation freezes the result, so both
// reads must observe the same committed state.
func (s *Storage) GetEventWithClients(ctx context.Context, id string) (persistence.Event, []persistence.Client, error) {
	if id == "" {
		return persistence.Event{}, nil, persistence.ErrNotFound
	}

	var event persistence.Event
	var clients []persistence.Client

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := s.helper.QueryRowTx(tx, `
			SELECT id, title, type, status, confirmed_date, proposed_dates, time_slot,
				party_size, note, menu, structured_menu, layout, created_at, updated_at
			FROM events
			WHERE id = ?`, id)

		var err error
		event, err = scanEvent(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return s.mapper.MapError(err)
		}

		rows, err := tx.Query(`
			SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.created_at, c.updated_at
			FROM event_clients ec
			JOIN clients c ON c.id = ec.client_id
			WHERE ec.event_id = ?
			ORDER BY c.id ASC`, id)
		if err != nil {
			return s.mapper.MapError(err)
		}
		defer rows.Close()

		for rows.Next() {
			client, err := scanClient(rows)
			if err != nil {
				return s.mapper.MapError(err)
			}
			clients = append(clients, client)
			event.ClientIDs = append(event.ClientIDs, client.ID)
		}
		return s.mapper.MapError(rows.Err())
	})
	if err != nil {
		return persistence.Event{}, nil, err
	}

	return event, clients, nil
}

// ListEvents returns all events ordered by confirmed date ascending, with
// undated events last.
func (s *Storage) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT id, title, type, status, confirmed_date, proposed_dates, time_slot,
			party_size, note, menu, structured_menu, layout, created_at, updated_at
		FROM events
		ORDER BY confirmed_date IS NULL, confirmed_date ASC, id ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}

	for i := range events {
		clients, err := s.loadEventClients(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].ClientIDs = clients
	}

	return events, nil
}

// DeleteEvent removes an event and its client associations. Override log
// entries and version snapshots are left untouched: they are the permanent
// dispute-resolution record.
func (s *Storage) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := s.helper.ExecTx(tx, "DELETE FROM event_clients WHERE event_id = ?", id); err != nil {
			return s.mapper.MapError(err)
		}

		result, err := s.helper.ExecTx(tx, "DELETE FROM events WHERE id = ?", id)
		if err != nil {
			return s.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func (s *Storage) replaceEventClients(tx *sql.Tx, eventID string, clientIDs []string, clearExisting bool) error {
	if clearExisting {
		if _, err := s.helper.ExecTx(tx, "DELETE FROM event_clients WHERE event_id = ?", eventID); err != nil {
			return s.mapper.MapError(err)
		}
	}

	for _, clientID := range uniqueSorted(clientIDs) {
		if _, err := s.helper.ExecTx(tx,
			"INSERT INTO event_clients (event_id, client_id) VALUES (?, ?)",
			eventID, clientID); err != nil {
			return s.mapper.MapError(err)
		}
	}
	return nil
}

func (s *Storage) loadEventClients(ctx context.Context, eventID string) ([]string, error) {
	rows, err := s.helper.Query(ctx,
		"SELECT client_id FROM event_clients WHERE event_id = ? ORDER BY client_id ASC", eventID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var clients []string
	for rows.Next() {
		var clientID string
		if err := rows.Scan(&clientID); err != nil {
			return nil, s.mapper.MapError(err)
		}
		clients = append(clients, clientID)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return clients, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var confirmed, timeSlot, layout sql.NullString
	var partySize sql.NullInt64
	var proposed, menu, structuredMenu, createdAt, updatedAt string

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Type,
		&event.Status,
		&confirmed,
		&proposed,
		&timeSlot,
		&partySize,
		&event.Note,
		&menu,
		&structuredMenu,
		&layout,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	if event.ConfirmedDate, err = timePtr(confirmed, "confirmed_date"); err != nil {
		return persistence.Event{}, err
	}
	if event.ProposedDates, err = decodeStringList(proposed, "proposed_dates"); err != nil {
		return persistence.Event{}, err
	}
	event.TimeSlot = stringPtr(timeSlot)
	event.PartySize = intPtr(partySize)
	event.Menu = []byte(menu)
	event.StructuredMenu = []byte(structuredMenu)
	event.Layout = blob(layout)

	if event.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Event{}, err
	}

	return event, nil
}

func defaultBlob(value []byte) []byte {
	if len(value) == 0 {
		return []byte("{}")
	}
	return value
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}
