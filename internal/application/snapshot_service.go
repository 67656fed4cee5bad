package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/venue-operations/internal/persistence"
)

// ContentHashLength is the published length of a snapshot fingerprint: a
// hex SHA-256 digest truncated to this many characters. Operators compare
// these by eye, so the length is a contract, not an implementation detail.
const ContentHashLength = 16

// maxVersionAttempts bounds the recount-and-retry loop when concurrent
// writers race for the same version number.
const maxVersionAttempts = 5

// SnapshotEventSource provides the state a snapshot freezes: the event and
// its client contacts from one consistent point-in-time read. A torn read
// would let the content hash fingerprint a state that never existed, so
// implementations must read both inside one storage transaction.
type SnapshotEventSource interface {
	GetEventWithClients(ctx context.Context, id string) (Event, []Client, error)
}

// SnapshotRepository captures the persistence interactions needed by the
// snapshot store. CreateSnapshot returns ErrVersionConflict (or the
// persistence duplicate sentinel) when the version number was taken.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot VersionSnapshot) error
	CountSnapshots(ctx context.Context, eventID string) (int, error)
	ListSnapshots(ctx context.Context, eventID string) ([]SnapshotMetadata, error)
	GetSnapshot(ctx context.Context, eventID string, versionNumber int) (VersionSnapshot, error)
}

// CreateSnapshotParams carries a snapshot creation request.
type CreateSnapshotParams struct {
	EventID      string
	DocumentType DocumentType
	Watermark    Watermark
	Comment      string
	Author       string
}

// SnapshotService builds, hashes and stores immutable event versions.
type SnapshotService struct {
	events      SnapshotEventSource
	snapshots   SnapshotRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSnapshotService wires dependencies for snapshot operations.
func NewSnapshotService(events SnapshotEventSource, snapshots SnapshotRepository, idGenerator func() string, now func() time.Time) *SnapshotService {
	return NewSnapshotServiceWithLogger(events, snapshots, idGenerator, now, nil)
}

// NewSnapshotServiceWithLogger is NewSnapshotService with an explicit logger.
func NewSnapshotServiceWithLogger(events SnapshotEventSource, snapshots SnapshotRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SnapshotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SnapshotService{
		events:      events,
		snapshots:   snapshots,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateSnapshot freezes the event's current state as the next version.
// Version numbers per event are assigned count+1 under a storage
// uniqueness constraint; on a conflict the whole read-count-insert cycle
// is retried, so callers never observe the race.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, params CreateSnapshotParams) (VersionSnapshot, error) {
	if s == nil || s.snapshots == nil || s.events == nil {
		return VersionSnapshot{}, fmt.Errorf("snapshot service not configured")
	}

	if err := validateSnapshotParams(params); err != nil {
		return VersionSnapshot{}, err
	}

	event, clients, err := s.events.GetEventWithClients(ctx, params.EventID)
	if err != nil {
		return VersionSnapshot{}, mapRepoError(err)
	}

	payload, err := BuildCanonicalPayload(event, clients)
	if err != nil {
		return VersionSnapshot{}, fmt.Errorf("failed to build snapshot payload: %w", err)
	}

	comment := params.Comment
	if comment == "" {
		comment = fmt.Sprintf("Version %s - %s", params.DocumentType, params.Watermark)
	}

	var lastErr error
	for attempt := 0; attempt < maxVersionAttempts; attempt++ {
		count, err := s.snapshots.CountSnapshots(ctx, params.EventID)
		if err != nil {
			return VersionSnapshot{}, err
		}

		snapshot := VersionSnapshot{
			ID:            s.idGenerator(),
			EventID:       params.EventID,
			VersionNumber: count + 1,
			DocumentType:  params.DocumentType,
			Watermark:     params.Watermark,
			Payload:       payload,
			ContentHash:   ComputeContentHash(payload),
			Author:        params.Author,
			Comment:       comment,
			CreatedAt:     s.now(),
		}

		err = s.snapshots.CreateSnapshot(ctx, snapshot)
		if err == nil {
			serviceLogger(ctx, s.logger, "snapshot", "create", "event_id", params.EventID).
				InfoContext(ctx, "snapshot created", "version", snapshot.VersionNumber, "hash", snapshot.ContentHash, "watermark", snapshot.Watermark)
			return snapshot, nil
		}

		if errors.Is(err, ErrVersionConflict) || errors.Is(err, persistence.ErrDuplicate) {
			lastErr = err
			continue
		}

		return VersionSnapshot{}, err
	}

	return VersionSnapshot{}, fmt.Errorf("failed to assign snapshot version after %d attempts: %w", maxVersionAttempts, lastErr)
}

// ListSnapshots returns snapshot metadata for an event, newest version first.
func (s *SnapshotService) ListSnapshots(ctx context.Context, eventID string) ([]SnapshotMetadata, error) {
	if s == nil || s.snapshots == nil {
		return nil, fmt.Errorf("snapshot service not configured")
	}
	if eventID == "" {
		vErr := &ValidationError{}
		vErr.add("event_id", "event id is required")
		return nil, vErr
	}

	snapshots, err := s.snapshots.ListSnapshots(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return snapshots, nil
}

// GetSnapshot returns one full snapshot by event and version number.
func (s *SnapshotService) GetSnapshot(ctx context.Context, eventID string, versionNumber int) (VersionSnapshot, error) {
	if s == nil || s.snapshots == nil {
		return VersionSnapshot{}, fmt.Errorf("snapshot service not configured")
	}
	if eventID == "" || versionNumber < 1 {
		return VersionSnapshot{}, ErrNotFound
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx, eventID, versionNumber)
	if err != nil {
		return VersionSnapshot{}, mapRepoError(err)
	}
	return snapshot, nil
}

// BuildCanonicalPayload serializes the event's printable state with a fixed
// field order so that identical states always produce identical bytes.
func BuildCanonicalPayload(event Event, clients []Client) ([]byte, error) {
	var confirmed *string
	if event.ConfirmedDate != nil {
		formatted := event.ConfirmedDate.UTC().Format(time.RFC3339)
		confirmed = &formatted
	}

	clientSnapshots := make([]ClientSnapshot, 0, len(clients))
	for _, client := range clients {
		clientSnapshots = append(clientSnapshots, ClientSnapshot{
			ID:        client.ID,
			FirstName: client.FirstName,
			LastName:  client.LastName,
			Email:     client.Email,
			Phone:     client.Phone,
		})
	}

	payload := SnapshotPayload{
		Title:          event.Title,
		Type:           event.Type,
		Status:         event.Status,
		ConfirmedDate:  confirmed,
		ProposedDates:  event.ProposedDates,
		TimeSlot:       event.TimeSlot,
		PartySize:      event.PartySize,
		Note:           event.Note,
		Clients:        clientSnapshots,
		Menu:           event.Menu,
		StructuredMenu: event.StructuredMenu,
		Layout:         event.Layout,
	}

	return json.Marshal(payload)
}

// ComputeContentHash returns the published fingerprint of a payload: hex
// SHA-256 truncated to ContentHashLength characters.
func ComputeContentHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:ContentHashLength]
}

func validateSnapshotParams(params CreateSnapshotParams) error {
	vErr := &ValidationError{}

	if params.EventID == "" {
		vErr.add("event_id", "event id is required")
	}

	if params.DocumentType == "" {
		vErr.add("document_type", "document type is required")
	} else if !validDocumentType(params.DocumentType) {
		vErr.add("document_type", "unknown document type")
	}

	if params.Watermark == "" {
		vErr.add("watermark", "watermark is required")
	} else if !validWatermark(params.Watermark) {
		vErr.add("watermark", "unknown watermark")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validDocumentType(value DocumentType) bool {
	for _, dt := range DocumentTypes {
		if dt == value {
			return true
		}
	}
	return false
}

func validWatermark(value Watermark) bool {
	for _, wm := range Watermarks {
		if wm == value {
			return true
		}
	}
	return false
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
