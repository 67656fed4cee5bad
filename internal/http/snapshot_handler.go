package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/venue-operations/internal/application"
)

type snapshotService interface {
	CreateSnapshot(ctx context.Context, params application.CreateSnapshotParams) (application.VersionSnapshot, error)
	ListSnapshots(ctx context.Context, eventID string) ([]application.SnapshotMetadata, error)
	GetSnapshot(ctx context.Context, eventID string, versionNumber int) (application.VersionSnapshot, error)
}

type SnapshotHandler struct {
	service   snapshotService
	responder responder
	logger    *slog.Logger
}

func NewSnapshotHandler(service snapshotService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		service:   service,
		responder: newResponder(logger),
		logger:    defaultLogger(logger),
	}
}

func (h *SnapshotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	snapshot, err := h.service.CreateSnapshot(r.Context(), application.CreateSnapshotParams{
		EventID:      eventID,
		DocumentType: application.DocumentType(strings.TrimSpace(req.DocumentType)),
		Watermark:    application.Watermark(strings.TrimSpace(req.Watermark)),
		Comment:      strings.TrimSpace(req.Comment),
		Author:       strings.TrimSpace(req.Author),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "snapshot", "create", "event_id", eventID).
		InfoContext(r.Context(), "snapshot created", "version", snapshot.VersionNumber)

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSnapshotDTO(snapshot, false))
}

func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	snapshots, err := h.service.ListSnapshots(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]snapshotDTO, 0, len(snapshots))
	for _, meta := range snapshots {
		dtos = append(dtos, snapshotDTO{
			SnapshotID:    meta.ID,
			EventID:       meta.EventID,
			VersionNumber: meta.VersionNumber,
			DocumentType:  string(meta.DocumentType),
			Watermark:     string(meta.Watermark),
			ContentHash:   meta.ContentHash,
			Author:        meta.Author,
			Comment:       meta.Comment,
			CreatedAt:     meta.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSnapshotsResponse{Versions: dtos})
}

func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "eventID"))
	if eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	versionNumber, err := strconv.Atoi(chi.URLParam(r, "versionNumber"))
	if err != nil || versionNumber < 1 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVersionNo)
		return
	}

	snapshot, err := h.service.GetSnapshot(r.Context(), eventID, versionNumber)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSnapshotDTO(snapshot, true))
}

func toSnapshotDTO(snapshot application.VersionSnapshot, includePayload bool) snapshotDTO {
	dto := snapshotDTO{
		SnapshotID:    snapshot.ID,
		EventID:       snapshot.EventID,
		VersionNumber: snapshot.VersionNumber,
		DocumentType:  string(snapshot.DocumentType),
		Watermark:     string(snapshot.Watermark),
		ContentHash:   snapshot.ContentHash,
		Author:        snapshot.Author,
		Comment:       snapshot.Comment,
		CreatedAt:     snapshot.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includePayload {
		dto.Payload = json.RawMessage(snapshot.Payload)
	}
	return dto
}

type snapshotRequest struct {
	DocumentType string `json:"document_type"`
	Watermark    string `json:"watermark"`
	Comment      string `json:"comment"`
	Author       string `json:"author"`
}

type snapshotDTO struct {
	SnapshotID    string          `json:"snapshot_id"`
	EventID       string          `json:"event_id"`
	VersionNumber int             `json:"version_number"`
	DocumentType  string          `json:"document_type"`
	Watermark     string          `json:"watermark"`
	ContentHash   string          `json:"content_hash"`
	Author        string          `json:"author,omitempty"`
	Comment       string          `json:"comment,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type listSnapshotsResponse struct {
	Versions []snapshotDTO `json:"versions"`
}
