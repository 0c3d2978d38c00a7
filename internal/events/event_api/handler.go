package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/events/service"
	"ms-events/internal/events/validation"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

type EventService interface {
	Create(ctx context.Context, v validation.ValidatedCreate) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetAll(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, id string, v validation.ValidatedUpdate) (*models.Event, error)
	Remove(ctx context.Context, id string) error
}

type Handler struct {
	EventService  EventService
	Logger        *logger.Logger
	PublicBaseURL string
}

func NewHandler(eventService EventService, log *logger.Logger, publicBaseURL string) *Handler {
	return &Handler{
		EventService:  eventService,
		Logger:        log,
		PublicBaseURL: publicBaseURL,
	}
}

// RegisterRoutes mounts the event REST surface under the given router,
// which main mounts at /api/events.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListEvents)
	r.Post("/", h.CreateEvent)
	r.Get("/{eventID}", h.GetEvent)
	r.Put("/{eventID}", h.UpdateEvent)
	r.Delete("/{eventID}", h.DeleteEvent)
	r.Get("/{eventID}/qr", h.EventShareQR)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.GetAll(r.Context())
	if err != nil {
		h.logError(fmt.Sprintf("ListEvents: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	h.writeJSON(w, http.StatusOK, models.ApiResponse{Success: true, Data: events})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.EventService.GetByID(r.Context(), eventID)
	if errors.Is(err, service.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.logError(fmt.Sprintf("GetEvent: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}
	h.writeJSON(w, http.StatusOK, models.ApiResponse{Success: true, Data: event})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input models.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	validated, err := validation.ValidateCreate(input)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.EventService.Create(r.Context(), *validated)
	if err != nil {
		h.logError(fmt.Sprintf("CreateEvent: %v", err))
		h.writeError(w, http.StatusBadRequest, "Failed to create event")
		return
	}
	h.writeJSON(w, http.StatusCreated, models.ApiResponse{Success: true, Data: event})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var input models.UpdateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	validated, err := validation.ValidateUpdate(input)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.EventService.Update(r.Context(), eventID, *validated)
	if errors.Is(err, service.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		h.writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	if err != nil {
		h.logError(fmt.Sprintf("UpdateEvent: %v", err))
		h.writeError(w, http.StatusBadRequest, "Failed to update event")
		return
	}
	h.writeJSON(w, http.StatusOK, models.ApiResponse{Success: true, Data: event})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	err := h.EventService.Remove(r.Context(), eventID)
	if errors.Is(err, service.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.logError(fmt.Sprintf("DeleteEvent: %v", err))
		h.writeError(w, http.StatusBadRequest, "Failed to delete event")
		return
	}
	h.writeJSON(w, http.StatusOK, models.NullDataResponse())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logError(fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.ApiResponse{Success: false, Error: message})
}

func (h *Handler) logError(message string) {
	if h.Logger != nil {
		h.Logger.Error("API", message)
	}
}
