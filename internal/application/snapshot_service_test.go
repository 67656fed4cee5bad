package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/venue-operations/internal/persistence"
)

type snapshotSourceStub struct {
	event   Event
	clients []Client
	err     error
}

func (s *snapshotSourceStub) GetEventWithClients(ctx context.Context, id string) (Event, []Client, error) {
	if s.err != nil {
		return Event{}, nil, s.err
	}
	if s.event.ID != id {
		return Event{}, nil, persistence.ErrNotFound
	}
	return s.event, s.clients, nil
}

type snapshotRepoStub struct {
	stored []VersionSnapshot

	// conflicts makes the first N inserts fail with a duplicate error, as a
	// concurrent writer would cause.
	conflicts int

	createErr error
	countErr  error

	metadata []SnapshotMetadata
	listErr  error
}

func (s *snapshotRepoStub) CreateSnapshot(ctx context.Context, snapshot VersionSnapshot) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.conflicts > 0 {
		s.conflicts--
		s.stored = append(s.stored, VersionSnapshot{EventID: snapshot.EventID, VersionNumber: snapshot.VersionNumber})
		return persistence.ErrDuplicate
	}
	for _, existing := range s.stored {
		if existing.EventID == snapshot.EventID && existing.VersionNumber == snapshot.VersionNumber {
			return persistence.ErrDuplicate
		}
	}
	s.stored = append(s.stored, snapshot)
	return nil
}

func (s *snapshotRepoStub) CountSnapshots(ctx context.Context, eventID string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	count := 0
	for _, existing := range s.stored {
		if existing.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (s *snapshotRepoStub) ListSnapshots(ctx context.Context, eventID string) ([]SnapshotMetadata, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.metadata, nil
}

func (s *snapshotRepoStub) GetSnapshot(ctx context.Context, eventID string, versionNumber int) (VersionSnapshot, error) {
	for _, existing := range s.stored {
		if existing.EventID == eventID && existing.VersionNumber == versionNumber {
			return existing, nil
		}
	}
	return VersionSnapshot{}, persistence.ErrNotFound
}

func snapshotTestEvent() Event {
	confirmed := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
	size := 80
	return Event{
		ID:            "event-1",
		Title:         "Rossi Wedding",
		Type:          "wedding",
		Status:        StatusConfirmed,
		ConfirmedDate: &confirmed,
		TimeSlot:      "dinner",
		PartySize:     &size,
		Note:          "allergy list pending",
		Menu: MenuSelection{
			BaseMenu: "classic",
			Courses:  []MenuCourse{{Name: "Primi", Dishes: []string{"risotto"}}},
		},
		ClientIDs: []string{"client-1"},
	}
}

func newSnapshotTestService(repo *snapshotRepoStub) *SnapshotService {
	source := &snapshotSourceStub{
		event: snapshotTestEvent(),
		clients: []Client{
			{ID: "client-1", FirstName: "Maria", LastName: "Rossi", Email: "maria@example.com"},
		},
	}
	now := fixedNow(time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC))
	return NewSnapshotService(source, repo, sequentialIDs("snap"), now)
}

func TestSnapshotService_CreateSnapshot(t *testing.T) {
	t.Run("assigns version 1 for the first snapshot", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)

		snapshot, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentClientPackage,
			Watermark:    WatermarkDraft,
		})
		if err != nil {
			t.Fatalf("CreateSnapshot failed: %v", err)
		}
		if snapshot.VersionNumber != 1 {
			t.Fatalf("expected version 1, got %d", snapshot.VersionNumber)
		}
		if len(snapshot.ContentHash) != ContentHashLength {
			t.Fatalf("expected %d-character hash, got %q", ContentHashLength, snapshot.ContentHash)
		}
		if snapshot.Comment != "Version client-package - DRAFT" {
			t.Fatalf("unexpected default comment: %q", snapshot.Comment)
		}
	})

	t.Run("versions are sequential", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)
		params := CreateSnapshotParams{EventID: "event-1", DocumentType: DocumentStaffSheet, Watermark: WatermarkContract}

		for want := 1; want <= 3; want++ {
			snapshot, err := svc.CreateSnapshot(context.Background(), params)
			if err != nil {
				t.Fatalf("CreateSnapshot %d failed: %v", want, err)
			}
			if snapshot.VersionNumber != want {
				t.Fatalf("expected version %d, got %d", want, snapshot.VersionNumber)
			}
		}
	})

	t.Run("payload embeds the client contacts from the same read", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)

		snapshot, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentClientPackage,
			Watermark:    WatermarkDraft,
		})
		if err != nil {
			t.Fatalf("CreateSnapshot failed: %v", err)
		}
		payload := string(snapshot.Payload)
		if !strings.Contains(payload, `"first_name":"Maria"`) || !strings.Contains(payload, `"last_name":"Rossi"`) {
			t.Fatalf("expected client contacts in the payload, got %s", payload)
		}
	})

	t.Run("identical state yields identical hashes", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)
		params := CreateSnapshotParams{EventID: "event-1", DocumentType: DocumentClientPackage, Watermark: WatermarkDraft}

		first, err := svc.CreateSnapshot(context.Background(), params)
		if err != nil {
			t.Fatalf("CreateSnapshot failed: %v", err)
		}
		second, err := svc.CreateSnapshot(context.Background(), params)
		if err != nil {
			t.Fatalf("CreateSnapshot failed: %v", err)
		}
		if first.ContentHash != second.ContentHash {
			t.Fatalf("hashes differ for identical state: %s vs %s", first.ContentHash, second.ContentHash)
		}
	})

	t.Run("changed state changes the hash", func(t *testing.T) {
		event := snapshotTestEvent()
		base, err := BuildCanonicalPayload(event, nil)
		if err != nil {
			t.Fatalf("BuildCanonicalPayload failed: %v", err)
		}

		event.Note = "allergy list confirmed"
		changed, err := BuildCanonicalPayload(event, nil)
		if err != nil {
			t.Fatalf("BuildCanonicalPayload failed: %v", err)
		}

		if ComputeContentHash(base) == ComputeContentHash(changed) {
			t.Fatal("hash should change when the note changes")
		}
	})

	t.Run("retries on version conflicts", func(t *testing.T) {
		repo := &snapshotRepoStub{conflicts: 2}
		svc := newSnapshotTestService(repo)

		snapshot, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentClientPackage,
			Watermark:    WatermarkFinal,
		})
		if err != nil {
			t.Fatalf("CreateSnapshot failed after conflicts: %v", err)
		}
		if snapshot.VersionNumber != 3 {
			t.Fatalf("expected version 3 after two conflicting inserts, got %d", snapshot.VersionNumber)
		}
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		repo := &snapshotRepoStub{createErr: persistence.ErrDuplicate}
		svc := newSnapshotTestService(repo)

		_, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentClientPackage,
			Watermark:    WatermarkDraft,
		})
		if err == nil {
			t.Fatal("expected an error once retries are exhausted")
		}
		if !strings.Contains(err.Error(), "attempts") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)

		_, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "missing",
			DocumentType: DocumentClientPackage,
			Watermark:    WatermarkDraft,
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects unknown document type and watermark", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)

		_, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentType("poster"),
			Watermark:    Watermark("SHINY"),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["document_type"]; !ok {
			t.Fatalf("expected a document_type error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["watermark"]; !ok {
			t.Fatalf("expected a watermark error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("keeps the caller's comment", func(t *testing.T) {
		repo := &snapshotRepoStub{}
		svc := newSnapshotTestService(repo)

		snapshot, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
			EventID:      "event-1",
			DocumentType: DocumentStaffSheet,
			Watermark:    WatermarkFinal,
			Comment:      "printed for the kitchen briefing",
			Author:       "Giulia",
		})
		if err != nil {
			t.Fatalf("CreateSnapshot failed: %v", err)
		}
		if snapshot.Comment != "printed for the kitchen briefing" {
			t.Fatalf("unexpected comment: %q", snapshot.Comment)
		}
		if snapshot.Author != "Giulia" {
			t.Fatalf("unexpected author: %q", snapshot.Author)
		}
	})
}

func TestSnapshotService_GetSnapshot(t *testing.T) {
	repo := &snapshotRepoStub{}
	svc := newSnapshotTestService(repo)

	created, err := svc.CreateSnapshot(context.Background(), CreateSnapshotParams{
		EventID:      "event-1",
		DocumentType: DocumentClientPackage,
		Watermark:    WatermarkDraft,
	})
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	fetched, err := svc.GetSnapshot(context.Background(), "event-1", created.VersionNumber)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if fetched.ContentHash != created.ContentHash {
		t.Fatalf("hash mismatch: %s vs %s", fetched.ContentHash, created.ContentHash)
	}

	if _, err := svc.GetSnapshot(context.Background(), "event-1", 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown version, got %v", err)
	}
	if _, err := svc.GetSnapshot(context.Background(), "event-1", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for version 0, got %v", err)
	}
}

func TestBuildCanonicalPayloadFixedKeyOrder(t *testing.T) {
	payload, err := BuildCanonicalPayload(snapshotTestEvent(), nil)
	if err != nil {
		t.Fatalf("BuildCanonicalPayload failed: %v", err)
	}

	text := string(payload)
	order := []string{`"title"`, `"type"`, `"status"`, `"confirmed_date"`, `"proposed_dates"`, `"time_slot"`, `"party_size"`, `"note"`, `"clients"`, `"menu"`, `"structured_menu"`, `"layout"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx < 0 {
			t.Fatalf("payload missing key %s: %s", key, text)
		}
		if idx < last {
			t.Fatalf("key %s out of order in payload: %s", key, text)
		}
		last = idx
	}
}
