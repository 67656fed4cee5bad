package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/venue-operations/internal/persistence"
)

// ClientRepository captures the persistence interactions needed by the
// client service.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	GetClientByEmail(ctx context.Context, email string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// ClientService owns the client directory.
type ClientService struct {
	clients     ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClientService wires dependencies for client operations.
func NewClientService(clients ClientRepository, idGenerator func() string, now func() time.Time) *ClientService {
	return NewClientServiceWithLogger(clients, idGenerator, now, nil)
}

// NewClientServiceWithLogger is NewClientService with an explicit logger.
func NewClientServiceWithLogger(clients ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{
		clients:     clients,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateClient validates and stores a new client. Emails are unique after
// lowercasing and trimming.
func (s *ClientService) CreateClient(ctx context.Context, input ClientInput) (Client, error) {
	if s == nil || s.clients == nil {
		return Client{}, fmt.Errorf("client repository not configured")
	}

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if err := validateClientInput(input); err != nil {
		return Client{}, err
	}

	if _, err := s.clients.GetClientByEmail(ctx, input.Email); err == nil {
		return Client{}, ErrAlreadyExists
	} else if !errors.Is(err, persistence.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return Client{}, err
	}

	timestamp := s.now()
	client := Client{
		ID:        s.idGenerator(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}

	created, err := s.clients.CreateClient(ctx, client)
	if err != nil {
		return Client{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "client", "create", "client_id", created.ID).
		InfoContext(ctx, "client created", "email", created.Email)

	return created, nil
}

// GetClient returns one client by id.
func (s *ClientService) GetClient(ctx context.Context, id string) (Client, error) {
	if s == nil || s.clients == nil {
		return Client{}, fmt.Errorf("client repository not configured")
	}
	if id == "" {
		return Client{}, ErrNotFound
	}

	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return Client{}, mapRepoError(err)
	}
	return client, nil
}

// ListClients returns all clients.
func (s *ClientService) ListClients(ctx context.Context) ([]Client, error) {
	if s == nil || s.clients == nil {
		return nil, fmt.Errorf("client repository not configured")
	}
	return s.clients.ListClients(ctx)
}

// MissingClientIDs reports which of the given ids do not resolve to a
// stored client. It satisfies the event service's ClientDirectory.
func (s *ClientService) MissingClientIDs(ctx context.Context, ids []string) ([]string, error) {
	if s == nil || s.clients == nil {
		return nil, fmt.Errorf("client repository not configured")
	}

	var missing []string
	for _, id := range ids {
		_, err := s.clients.GetClient(ctx, id)
		if err == nil {
			continue
		}
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		return nil, err
	}
	return missing, nil
}

func validateClientInput(input ClientInput) error {
	vErr := &ValidationError{}

	if input.FirstName == "" {
		vErr.add("first_name", "first name is required")
	}
	if input.LastName == "" {
		vErr.add("last_name", "last name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(input.Email, "@") {
		vErr.add("email", "email is invalid")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
