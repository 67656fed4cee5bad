package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/venue-operations/internal/application"
	"github.com/example/venue-operations/internal/lock"
	"github.com/example/venue-operations/internal/persistence"
)

// In-memory repositories so the handler tests exercise the real services.

type memEventRepo struct {
	events map[string]application.Event
}

func (r *memEventRepo) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	r.events[event.ID] = event
	return event, nil
}

func (r *memEventRepo) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	r.events[event.ID] = event
	return event, nil
}

func (r *memEventRepo) GetEvent(ctx context.Context, id string) (application.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return application.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

func (r *memEventRepo) ListEvents(ctx context.Context) ([]application.Event, error) {
	out := make([]application.Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}
	return out, nil
}

func (r *memEventRepo) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type memClientRepo struct {
	clients map[string]application.Client
}

func (r *memClientRepo) CreateClient(ctx context.Context, client application.Client) (application.Client, error) {
	r.clients[client.ID] = client
	return client, nil
}

func (r *memClientRepo) GetClient(ctx context.Context, id string) (application.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return application.Client{}, persistence.ErrNotFound
	}
	return client, nil
}

func (r *memClientRepo) GetClientByEmail(ctx context.Context, email string) (application.Client, error) {
	for _, client := range r.clients {
		if client.Email == email {
			return client, nil
		}
	}
	return application.Client{}, persistence.ErrNotFound
}

func (r *memClientRepo) ListClients(ctx context.Context) ([]application.Client, error) {
	out := make([]application.Client, 0, len(r.clients))
	for _, client := range r.clients {
		out = append(out, client)
	}
	return out, nil
}

type memOverrideRepo struct {
	entries []application.OverrideLogEntry
}

func (r *memOverrideRepo) AppendOverride(ctx context.Context, entry application.OverrideLogEntry) (application.OverrideLogEntry, error) {
	r.entries = append([]application.OverrideLogEntry{entry}, r.entries...)
	return entry, nil
}

func (r *memOverrideRepo) ListOverrides(ctx context.Context, eventID string) ([]application.OverrideLogEntry, error) {
	var out []application.OverrideLogEntry
	for _, entry := range r.entries {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type memSnapshotRepo struct {
	snapshots []application.VersionSnapshot
}

func (r *memSnapshotRepo) CreateSnapshot(ctx context.Context, snapshot application.VersionSnapshot) error {
	for _, existing := range r.snapshots {
		if existing.EventID == snapshot.EventID && existing.VersionNumber == snapshot.VersionNumber {
			return persistence.ErrDuplicate
		}
	}
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

func (r *memSnapshotRepo) CountSnapshots(ctx context.Context, eventID string) (int, error) {
	count := 0
	for _, existing := range r.snapshots {
		if existing.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *memSnapshotRepo) ListSnapshots(ctx context.Context, eventID string) ([]application.SnapshotMetadata, error) {
	var out []application.SnapshotMetadata
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		s := r.snapshots[i]
		if s.EventID != eventID {
			continue
		}
		out = append(out, application.SnapshotMetadata{
			ID:            s.ID,
			EventID:       s.EventID,
			VersionNumber: s.VersionNumber,
			DocumentType:  s.DocumentType,
			Watermark:     s.Watermark,
			ContentHash:   s.ContentHash,
			Author:        s.Author,
			Comment:       s.Comment,
			CreatedAt:     s.CreatedAt,
		})
	}
	return out, nil
}

func (r *memSnapshotRepo) GetSnapshot(ctx context.Context, eventID string, versionNumber int) (application.VersionSnapshot, error) {
	for _, s := range r.snapshots {
		if s.EventID == eventID && s.VersionNumber == versionNumber {
			return s, nil
		}
	}
	return application.VersionSnapshot{}, persistence.ErrNotFound
}

// memSnapshotSource mimics the storage layer's one-transaction snapshot
// read over the in-memory repositories.
type memSnapshotSource struct {
	events  *memEventRepo
	clients *memClientRepo
}

func (s *memSnapshotSource) GetEventWithClients(ctx context.Context, id string) (application.Event, []application.Client, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, nil, err
	}
	var clients []application.Client
	for _, clientID := range event.ClientIDs {
		client, err := s.clients.GetClient(ctx, clientID)
		if err != nil {
			return application.Event{}, nil, err
		}
		clients = append(clients, client)
	}
	return event, clients, nil
}

type apiHarness struct {
	handler http.Handler
	events  *memEventRepo
	now     time.Time
}

var apiTestSecretHash string

func testSecretHash(t *testing.T) string {
	t.Helper()
	if apiTestSecretHash != "" {
		return apiTestSecretHash
	}
	hash, err := application.CreateSecretHash("venue-master-key", application.Argon2idParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("CreateSecretHash failed: %v", err)
	}
	apiTestSecretHash = hash
	return hash
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}

	eventRepo := &memEventRepo{events: make(map[string]application.Event)}
	clientRepo := &memClientRepo{clients: make(map[string]application.Client)}
	overrideRepo := &memOverrideRepo{}
	snapshotRepo := &memSnapshotRepo{}

	clientSvc := application.NewClientService(clientRepo, idGen, nowFunc)
	auditSvc := application.NewAuditService(overrideRepo, idGen, nowFunc)
	eventSvc := application.NewEventService(eventRepo, clientSvc, auditSvc, application.GuardConfig{
		WindowDays: lock.DefaultWindowDays,
		SecretHash: testSecretHash(t),
	}, idGen, nowFunc)
	snapshotSvc := application.NewSnapshotService(&memSnapshotSource{events: eventRepo, clients: clientRepo}, snapshotRepo, idGen, nowFunc)

	handler := NewRouter(RouterConfig{
		Events:    NewEventHandler(eventSvc, auditSvc, lock.DefaultWindowDays, nowFunc, nil),
		Snapshots: NewSnapshotHandler(snapshotSvc, nil),
		Clients:   NewClientHandler(clientSvc, nil),
	})

	return &apiHarness{handler: handler, events: eventRepo, now: now}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) seedLockedEvent(t *testing.T, daysAhead int) string {
	t.Helper()

	rec := h.do(t, http.MethodPost, "/events", map[string]any{
		"title":          "Rossi Wedding",
		"type":           "wedding",
		"status":         "confirmed",
		"confirmed_date": h.now.Add(time.Duration(daysAhead) * 24 * time.Hour).Format(time.RFC3339),
		"menu":           map[string]any{"base_menu": "classic"},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed event failed: %d %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created event: %v", err)
	}
	return created.ID
}

func TestEventHandlers(t *testing.T) {
	t.Run("create returns the event with lock state", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 5)

		rec := h.do(t, http.MethodGet, "/events/"+id, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var dto eventDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if !dto.Locked {
			t.Fatal("expected the event to be locked")
		}
		if dto.DaysRemaining == nil || *dto.DaysRemaining != 5 {
			t.Fatalf("expected 5 days remaining, got %v", dto.DaysRemaining)
		}
	})

	t.Run("unknown event answers 404", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodGet, "/events/missing", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("lock endpoint reports the current evaluation", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 5)

		rec := h.do(t, http.MethodGet, "/events/"+id+"/lock", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var state lockStateDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatalf("failed to decode lock state: %v", err)
		}
		if !state.Locked {
			t.Fatal("expected the event to be locked")
		}
		if state.DaysRemaining == nil || *state.DaysRemaining != 5 {
			t.Fatalf("expected 5 days remaining, got %v", state.DaysRemaining)
		}
		if state.WindowDays != lock.DefaultWindowDays {
			t.Fatalf("expected window of %d days, got %d", lock.DefaultWindowDays, state.WindowDays)
		}
		if len(state.ProtectedFields) != 4 || state.ProtectedFields[0] != "menu" {
			t.Fatalf("unexpected protected fields: %v", state.ProtectedFields)
		}
	})

	t.Run("lock endpoint for an undated event omits days_remaining", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodPost, "/events", map[string]any{
			"title": "Open Enquiry",
			"type":  "corporate",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed event failed: %d %s", rec.Code, rec.Body.String())
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode created event: %v", err)
		}

		lockRec := h.do(t, http.MethodGet, "/events/"+created.ID+"/lock", nil, nil)
		if lockRec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", lockRec.Code)
		}
		if strings.Contains(lockRec.Body.String(), "days_remaining") {
			t.Fatalf("days_remaining should be omitted: %s", lockRec.Body.String())
		}
		if !strings.Contains(lockRec.Body.String(), `"locked":false`) {
			t.Fatalf("expected unlocked state: %s", lockRec.Body.String())
		}
	})

	t.Run("lock endpoint for an unknown event answers 404", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodGet, "/events/missing/lock", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("validation failures answer 422 with field errors", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodPost, "/events", map[string]any{"type": "wedding"}, nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "title") {
			t.Fatalf("expected a title field error, got %s", rec.Body.String())
		}
	})

	t.Run("events without a confirmed date omit days_remaining", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodPost, "/events", map[string]any{
			"title": "Open Enquiry",
			"type":  "corporate",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "days_remaining") {
			t.Fatalf("days_remaining should be omitted: %s", rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"locked":false`) {
			t.Fatalf("expected unlocked event: %s", rec.Body.String())
		}
	})
}

func TestGuardedUpdateContract(t *testing.T) {
	t.Run("locked protected edit without credentials answers 423", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 5)

		rec := h.do(t, http.MethodPut, "/events/"+id, map[string]any{
			"menu": map[string]any{"base_menu": "premium"},
		}, nil)
		if rec.Code != http.StatusLocked {
			t.Fatalf("expected 423, got %d: %s", rec.Code, rec.Body.String())
		}

		var body lockedResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode locked response: %v", err)
		}
		if body.DaysRemaining != 5 {
			t.Fatalf("expected 5 days remaining, got %d", body.DaysRemaining)
		}
		if len(body.ProtectedFieldsTouched) != 1 || body.ProtectedFieldsTouched[0] != "menu" {
			t.Fatalf("unexpected touched fields: %v", body.ProtectedFieldsTouched)
		}
		if !body.OverrideRequired {
			t.Fatal("expected override_required")
		}
		if len(body.ExpectedCredentialFields) != 3 || body.ExpectedCredentialFields[0] != headerOverrideToken {
			t.Fatalf("unexpected credential fields: %v", body.ExpectedCredentialFields)
		}
		if body.OverrideError != "missing_token" {
			t.Fatalf("expected missing_token, got %q", body.OverrideError)
		}
	})

	t.Run("wrong token answers 423 with token_mismatch", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 3)

		rec := h.do(t, http.MethodPut, "/events/"+id, map[string]any{
			"note": "updated seating notes",
		}, map[string]string{
			headerOverrideToken:  "wrong-key",
			headerOverrideReason: "client requested note change",
		})
		if rec.Code != http.StatusLocked {
			t.Fatalf("expected 423, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "token_mismatch") {
			t.Fatalf("expected token_mismatch, got %s", rec.Body.String())
		}
	})

	t.Run("valid credentials apply the update and record the override", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 5)

		rec := h.do(t, http.MethodPut, "/events/"+id, map[string]any{
			"menu": map[string]any{"base_menu": "premium"},
		}, map[string]string{
			headerOverrideToken:  "venue-master-key",
			headerOverrideReason: "client requested premium menu",
			headerOverrideAuthor: "Giulia",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		audit := h.do(t, http.MethodGet, "/events/"+id+"/overrides", nil, nil)
		if audit.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", audit.Code)
		}

		var trail listOverridesResponse
		if err := json.Unmarshal(audit.Body.Bytes(), &trail); err != nil {
			t.Fatalf("failed to decode audit trail: %v", err)
		}
		if len(trail.Overrides) != 1 {
			t.Fatalf("expected 1 audit entry, got %d", len(trail.Overrides))
		}
		entry := trail.Overrides[0]
		if entry.Author != "Giulia" {
			t.Fatalf("unexpected author: %s", entry.Author)
		}
		if len(entry.FieldsModified) != 1 || entry.FieldsModified[0] != "menu" {
			t.Fatalf("unexpected fields: %v", entry.FieldsModified)
		}
	})

	t.Run("non-protected edit passes without credentials", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 5)

		rec := h.do(t, http.MethodPut, "/events/"+id, map[string]any{
			"title": "Rossi Wedding (final)",
		}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		audit := h.do(t, http.MethodGet, "/events/"+id+"/overrides", nil, nil)
		var trail listOverridesResponse
		if err := json.Unmarshal(audit.Body.Bytes(), &trail); err != nil {
			t.Fatalf("failed to decode audit trail: %v", err)
		}
		if len(trail.Overrides) != 0 {
			t.Fatalf("expected empty audit trail, got %v", trail.Overrides)
		}
	})
}

func TestSnapshotHandlers(t *testing.T) {
	t.Run("create and fetch a version", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 20)

		rec := h.do(t, http.MethodPost, "/events/"+id+"/versions", map[string]any{
			"document_type": "client-package",
			"watermark":     "DRAFT",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var created snapshotDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode snapshot: %v", err)
		}
		if created.VersionNumber != 1 {
			t.Fatalf("expected version 1, got %d", created.VersionNumber)
		}
		if len(created.ContentHash) != application.ContentHashLength {
			t.Fatalf("unexpected hash length: %q", created.ContentHash)
		}
		if created.Comment != "Version client-package - DRAFT" {
			t.Fatalf("unexpected default comment: %q", created.Comment)
		}

		fetched := h.do(t, http.MethodGet, "/events/"+id+"/versions/1", nil, nil)
		if fetched.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", fetched.Code)
		}
		if !strings.Contains(fetched.Body.String(), `"payload"`) {
			t.Fatalf("expected full payload in single-version read: %s", fetched.Body.String())
		}
	})

	t.Run("listing excludes payloads and orders newest first", func(t *testing.T) {
		h := newAPIHarness(t)
		id := h.seedLockedEvent(t, 20)

		for i := 0; i < 2; i++ {
			rec := h.do(t, http.MethodPost, "/events/"+id+"/versions", map[string]any{
				"document_type": "staff-sheet",
				"watermark":     "CONTRACT",
			}, nil)
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d", rec.Code)
			}
		}

		rec := h.do(t, http.MethodGet, "/events/"+id+"/versions", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var list listSnapshotsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("failed to decode list: %v", err)
		}
		if len(list.Versions) != 2 {
			t.Fatalf("expected 2 versions, got %d", len(list.Versions))
		}
		if list.Versions[0].VersionNumber != 2 {
			t.Fatalf("expected newest first, got %v", list.Versions)
		}
		if strings.Contains(rec.Body.String(), `"payload"`) {
			t.Fatalf("listing must not include payloads: %s", rec.Body.String())
		}
	})

	t.Run("snapshot for an unknown event answers 404", func(t *testing.T) {
		h := newAPIHarness(t)
		rec := h.do(t, http.MethodPost, "/events/missing/versions", map[string]any{
			"document_type": "client-package",
			"watermark":     "DRAFT",
		}, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestClientHandlers(t *testing.T) {
	t.Run("create and fetch", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.do(t, http.MethodPost, "/clients", map[string]any{
			"first_name": "Maria",
			"last_name":  "Rossi",
			"email":      "maria@example.com",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var created clientDTO
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode client: %v", err)
		}

		fetched := h.do(t, http.MethodGet, "/clients/"+created.ID, nil, nil)
		if fetched.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", fetched.Code)
		}
	})

	t.Run("duplicate email answers 409", func(t *testing.T) {
		h := newAPIHarness(t)

		payload := map[string]any{
			"first_name": "Maria",
			"last_name":  "Rossi",
			"email":      "maria@example.com",
		}
		if rec := h.do(t, http.MethodPost, "/clients", payload, nil); rec.Code != http.StatusCreated {
			t.Fatalf("seed client failed: %d", rec.Code)
		}

		rec := h.do(t, http.MethodPost, "/clients", payload, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
