package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/venue-operations/internal/application"
	"github.com/example/venue-operations/internal/config"
	httptransport "github.com/example/venue-operations/internal/http"
	"github.com/example/venue-operations/internal/persistence"
	"github.com/example/venue-operations/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	secretHash := cfg.OverrideTokenHash
	if secretHash == "" {
		secretHash, err = application.CreateSecretHash(cfg.OverrideToken, application.DefaultArgon2idParams)
		if err != nil {
			logger.Error("failed to hash override token", "error", err)
			os.Exit(1)
		}
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Pool().Ping(context.Background()); err != nil {
		logger.Error("failed to reach storage", "error", err)
		os.Exit(1)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	eventRepo := newEventRepositoryAdapter(storage)
	clientRepo := newClientRepositoryAdapter(storage)
	overrideRepo := newOverrideLogAdapter(storage)
	snapshotRepo := newSnapshotRepositoryAdapter(storage)

	clientService := application.NewClientServiceWithLogger(clientRepo, idGenerator, now, logger)
	auditService := application.NewAuditServiceWithLogger(overrideRepo, idGenerator, now, logger)
	eventService := application.NewEventServiceWithLogger(eventRepo, clientService, auditService, application.GuardConfig{
		WindowDays: cfg.LockWindowDays,
		SecretHash: secretHash,
	}, idGenerator, now, logger)
	snapshotService := application.NewSnapshotServiceWithLogger(newSnapshotSourceAdapter(storage), snapshotRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Events:    httptransport.NewEventHandler(eventService, auditService, cfg.LockWindowDays, now, logger),
		Snapshots: httptransport.NewSnapshotHandler(snapshotService, logger),
		Clients:   httptransport.NewClientHandler(clientService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("venue operations API listening", "addr", server.Addr, "lock_window_days", cfg.LockWindowDays)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// ----------------------------- Event adapter -----------------------------

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	model, err := toPersistenceEvent(event)
	if err != nil {
		return application.Event{}, err
	}
	if err := a.repo.CreateEvent(ctx, model); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored)
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	model, err := toPersistenceEvent(event)
	if err != nil {
		return application.Event{}, err
	}
	if err := a.repo.UpdateEvent(ctx, model); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context) ([]application.Event, error) {
	models, err := a.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		event, err := toApplicationEvent(model)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func toPersistenceEvent(event application.Event) (persistence.Event, error) {
	menu, err := json.Marshal(event.Menu)
	if err != nil {
		return persistence.Event{}, fmt.Errorf("failed to encode menu: %w", err)
	}
	structured, err := json.Marshal(event.StructuredMenu)
	if err != nil {
		return persistence.Event{}, fmt.Errorf("failed to encode structured menu: %w", err)
	}
	var layout []byte
	if event.Layout != nil {
		if layout, err = json.Marshal(event.Layout); err != nil {
			return persistence.Event{}, fmt.Errorf("failed to encode layout: %w", err)
		}
	}

	var timeSlot *string
	if strings.TrimSpace(event.TimeSlot) != "" {
		slot := event.TimeSlot
		timeSlot = &slot
	}

	return persistence.Event{
		ID:             event.ID,
		Title:          event.Title,
		Type:           event.Type,
		Status:         event.Status,
		ConfirmedDate:  event.ConfirmedDate,
		ProposedDates:  append([]string(nil), event.ProposedDates...),
		TimeSlot:       timeSlot,
		PartySize:      event.PartySize,
		Note:           event.Note,
		Menu:           menu,
		StructuredMenu: structured,
		Layout:         layout,
		ClientIDs:      append([]string(nil), event.ClientIDs...),
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}, nil
}

func toApplicationEvent(model persistence.Event) (application.Event, error) {
	event := application.Event{
		ID:            model.ID,
		Title:         model.Title,
		Type:          model.Type,
		Status:        model.Status,
		ConfirmedDate: model.ConfirmedDate,
		ProposedDates: append([]string(nil), model.ProposedDates...),
		PartySize:     model.PartySize,
		Note:          model.Note,
		ClientIDs:     append([]string(nil), model.ClientIDs...),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	if model.TimeSlot != nil {
		event.TimeSlot = *model.TimeSlot
	}

	if len(model.Menu) > 0 {
		if err := json.Unmarshal(model.Menu, &event.Menu); err != nil {
			return application.Event{}, fmt.Errorf("failed to decode menu for event %s: %w", model.ID, err)
		}
	}
	if len(model.StructuredMenu) > 0 {
		if err := json.Unmarshal(model.StructuredMenu, &event.StructuredMenu); err != nil {
			return application.Event{}, fmt.Errorf("failed to decode structured menu for event %s: %w", model.ID, err)
		}
	}
	if len(model.Layout) > 0 {
		var layout application.SeatingLayout
		if err := json.Unmarshal(model.Layout, &layout); err != nil {
			return application.Event{}, fmt.Errorf("failed to decode layout for event %s: %w", model.ID, err)
		}
		event.Layout = &layout
	}

	return event, nil
}

// ----------------------------- Client adapter ----------------------------

type clientRepositoryAdapter struct {
	repo persistence.ClientRepository
}

func newClientRepositoryAdapter(repo persistence.ClientRepository) *clientRepositoryAdapter {
	return &clientRepositoryAdapter{repo: repo}
}

func (a *clientRepositoryAdapter) CreateClient(ctx context.Context, client application.Client) (application.Client, error) {
	if err := a.repo.CreateClient(ctx, toPersistenceClient(client)); err != nil {
		return application.Client{}, err
	}
	stored, err := a.repo.GetClient(ctx, client.ID)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientRepositoryAdapter) GetClient(ctx context.Context, id string) (application.Client, error) {
	stored, err := a.repo.GetClient(ctx, id)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientRepositoryAdapter) GetClientByEmail(ctx context.Context, email string) (application.Client, error) {
	stored, err := a.repo.GetClientByEmail(ctx, email)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientRepositoryAdapter) ListClients(ctx context.Context) ([]application.Client, error) {
	models, err := a.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	clients := make([]application.Client, 0, len(models))
	for _, model := range models {
		clients = append(clients, toApplicationClient(model))
	}
	return clients, nil
}

func toPersistenceClient(client application.Client) persistence.Client {
	var phone *string
	if strings.TrimSpace(client.Phone) != "" {
		value := client.Phone
		phone = &value
	}
	return persistence.Client{
		ID:        client.ID,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Email:     client.Email,
		Phone:     phone,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

func toApplicationClient(model persistence.Client) application.Client {
	client := application.Client{
		ID:        model.ID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Email:     model.Email,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.Phone != nil {
		client.Phone = *model.Phone
	}
	return client
}

// --------------------------- Override adapter ----------------------------

type overrideLogAdapter struct {
	repo persistence.OverrideLogRepository
}

func newOverrideLogAdapter(repo persistence.OverrideLogRepository) *overrideLogAdapter {
	return &overrideLogAdapter{repo: repo}
}

func (a *overrideLogAdapter) AppendOverride(ctx context.Context, entry application.OverrideLogEntry) (application.OverrideLogEntry, error) {
	var author *string
	if entry.Author != "" {
		value := entry.Author
		author = &value
	}
	model := persistence.OverrideLogEntry{
		ID:             entry.ID,
		EventID:        entry.EventID,
		FieldsModified: append([]string(nil), entry.FieldsModified...),
		Reason:         entry.Reason,
		Author:         author,
		CreatedAt:      entry.CreatedAt,
	}
	if err := a.repo.AppendOverride(ctx, model); err != nil {
		return application.OverrideLogEntry{}, err
	}
	return entry, nil
}

func (a *overrideLogAdapter) ListOverrides(ctx context.Context, eventID string) ([]application.OverrideLogEntry, error) {
	models, err := a.repo.ListOverrides(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.OverrideLogEntry, 0, len(models))
	for _, model := range models {
		entry := application.OverrideLogEntry{
			ID:             model.ID,
			EventID:        model.EventID,
			FieldsModified: append([]string(nil), model.FieldsModified...),
			Reason:         model.Reason,
			CreatedAt:      model.CreatedAt,
		}
		if model.Author != nil {
			entry.Author = *model.Author
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// --------------------------- Snapshot adapters ---------------------------

// snapshotSourceAdapter feeds the snapshot service its point-in-time read:
// event plus client contacts from one storage transaction.
type snapshotSourceAdapter struct {
	repo persistence.SnapshotSourceRepository
}

func newSnapshotSourceAdapter(repo persistence.SnapshotSourceRepository) *snapshotSourceAdapter {
	return &snapshotSourceAdapter{repo: repo}
}

func (a *snapshotSourceAdapter) GetEventWithClients(ctx context.Context, id string) (application.Event, []application.Client, error) {
	model, clientModels, err := a.repo.GetEventWithClients(ctx, id)
	if err != nil {
		return application.Event{}, nil, err
	}
	event, err := toApplicationEvent(model)
	if err != nil {
		return application.Event{}, nil, err
	}
	var clients []application.Client
	for _, clientModel := range clientModels {
		clients = append(clients, toApplicationClient(clientModel))
	}
	return event, clients, nil
}

type snapshotRepositoryAdapter struct {
	repo persistence.SnapshotRepository
}

func newSnapshotRepositoryAdapter(repo persistence.SnapshotRepository) *snapshotRepositoryAdapter {
	return &snapshotRepositoryAdapter{repo: repo}
}

func (a *snapshotRepositoryAdapter) CreateSnapshot(ctx context.Context, snapshot application.VersionSnapshot) error {
	var author *string
	if snapshot.Author != "" {
		value := snapshot.Author
		author = &value
	}
	return a.repo.CreateSnapshot(ctx, persistence.VersionSnapshot{
		ID:            snapshot.ID,
		EventID:       snapshot.EventID,
		VersionNumber: snapshot.VersionNumber,
		DocumentType:  string(snapshot.DocumentType),
		Watermark:     string(snapshot.Watermark),
		Payload:       snapshot.Payload,
		ContentHash:   snapshot.ContentHash,
		Author:        author,
		Comment:       snapshot.Comment,
		CreatedAt:     snapshot.CreatedAt,
	})
}

func (a *snapshotRepositoryAdapter) CountSnapshots(ctx context.Context, eventID string) (int, error) {
	return a.repo.CountSnapshots(ctx, eventID)
}

func (a *snapshotRepositoryAdapter) ListSnapshots(ctx context.Context, eventID string) ([]application.SnapshotMetadata, error) {
	models, err := a.repo.ListSnapshots(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	snapshots := make([]application.SnapshotMetadata, 0, len(models))
	for _, model := range models {
		meta := application.SnapshotMetadata{
			ID:            model.ID,
			EventID:       model.EventID,
			VersionNumber: model.VersionNumber,
			DocumentType:  application.DocumentType(model.DocumentType),
			Watermark:     application.Watermark(model.Watermark),
			ContentHash:   model.ContentHash,
			Comment:       model.Comment,
			CreatedAt:     model.CreatedAt,
		}
		if model.Author != nil {
			meta.Author = *model.Author
		}
		snapshots = append(snapshots, meta)
	}
	return snapshots, nil
}

func (a *snapshotRepositoryAdapter) GetSnapshot(ctx context.Context, eventID string, versionNumber int) (application.VersionSnapshot, error) {
	model, err := a.repo.GetSnapshot(ctx, eventID, versionNumber)
	if err != nil {
		return application.VersionSnapshot{}, err
	}
	snapshot := application.VersionSnapshot{
		ID:            model.ID,
		EventID:       model.EventID,
		VersionNumber: model.VersionNumber,
		DocumentType:  application.DocumentType(model.DocumentType),
		Watermark:     application.Watermark(model.Watermark),
		Payload:       model.Payload,
		ContentHash:   model.ContentHash,
		Comment:       model.Comment,
		CreatedAt:     model.CreatedAt,
	}
	if model.Author != nil {
		snapshot.Author = *model.Author
	}
	return snapshot, nil
}
