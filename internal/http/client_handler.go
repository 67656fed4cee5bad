package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/venue-operations/internal/application"
)

type clientService interface {
	CreateClient(ctx context.Context, input application.ClientInput) (application.Client, error)
	GetClient(ctx context.Context, id string) (application.Client, error)
	ListClients(ctx context.Context) ([]application.Client, error)
}

type ClientHandler struct {
	service   clientService
	responder responder
}

func NewClientHandler(service clientService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{service: service, responder: newResponder(logger)}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	client, err := h.service.CreateClient(r.Context(), application.ClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toClientDTO(client))
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]clientDTO, 0, len(clients))
	for _, client := range clients {
		dtos = append(dtos, toClientDTO(client))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClientsResponse{Clients: dtos})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID := strings.TrimSpace(chi.URLParam(r, "clientID"))
	if clientID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return
	}

	client, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toClientDTO(client))
}

func toClientDTO(client application.Client) clientDTO {
	return clientDTO{
		ID:        client.ID,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Email:     client.Email,
		Phone:     client.Phone,
		CreatedAt: client.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: client.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type clientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type clientDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listClientsResponse struct {
	Clients []clientDTO `json:"clients"`
}
