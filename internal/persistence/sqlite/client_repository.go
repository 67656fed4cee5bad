package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/venue-operations/internal/persistence"
)

// CreateClient inserts a new client record.
func (s *Storage) CreateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := s.helper.Exec(ctx, `
		INSERT INTO clients (id, first_name, last_name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.FirstName,
		client.LastName,
		strings.ToLower(strings.TrimSpace(client.Email)),
		nullString(client.Phone),
		formatTime(client.CreatedAt),
		formatTime(client.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// GetClient retrieves a client by ID.
func (s *Storage) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	if id == "" {
		return persistence.Client{}, persistence.ErrNotFound
	}
	return s.getClientWhere(ctx, "id = ?", id)
}

// GetClientByEmail retrieves a client by email address.
func (s *Storage) GetClientByEmail(ctx context.Context, email string) (persistence.Client, error) {
	return s.getClientWhere(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// ListClients returns all clients ordered by last name, first name.
func (s *Storage) ListClients(ctx context.Context) ([]persistence.Client, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM clients
		ORDER BY last_name ASC, first_name ASC, id ASC`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var clients []persistence.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return clients, nil
}

func (s *Storage) getClientWhere(ctx context.Context, where string, arg any) (persistence.Client, error) {
	row := s.helper.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM clients
		WHERE `+where, arg)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Client{}, persistence.ErrNotFound
		}
		return persistence.Client{}, s.mapper.MapError(err)
	}
	return client, nil
}

func scanClient(row rowScanner) (persistence.Client, error) {
	var client persistence.Client
	var phone sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&client.ID,
		&client.FirstName,
		&client.LastName,
		&client.Email,
		&phone,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Client{}, err
	}

	client.Phone = stringPtr(phone)
	if client.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Client{}, err
	}
	if client.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Client{}, err
	}
	return client, nil
}
