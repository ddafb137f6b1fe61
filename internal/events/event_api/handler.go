package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ms-calendar/internal/events/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	EventService *service.EventService
	Logger       *logger.Logger
}

func NewHandler(eventService *service.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
}

// RegisterRoutes mounts the handlers on /events and on the legacy /api/calendar-events path.
func (h *Handler) RegisterRoutes(r chi.Router) {
	for _, prefix := range []string{"/events", "/api/calendar-events"} {
		r.Route(prefix, func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Post("/", h.CreateEvent)
			r.Put("/", h.UpdateEvent)
			r.Delete("/", h.DeleteEvent)
		})
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.sendError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		h.sendError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := decodeStrict(w, r, &req); err != nil {
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		h.sendError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusCreated, map[string]interface{}{"success": true, "id": id})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEventRequest
	if err := decodeStrict(w, r, &req); err != nil {
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	}

	matched, err := h.EventService.UpdateEvent(r.Context(), req)
	if err != nil {
		h.sendError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true, "matchedCount": matched})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		utils.SendError(w, http.StatusBadRequest, "id is required")
		return
	}

	deleted, err := h.EventService.DeleteEvent(r.Context(), id)
	if err != nil {
		h.sendError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true, "deletedCount": deleted})
}

// sendError maps service errors onto status codes.
func (h *Handler) sendError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.SendError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, models.ErrInvalidID):
		utils.SendError(w, http.StatusBadRequest, models.ErrInvalidID.Error())
	case errors.Is(err, models.ErrNotFound):
		utils.SendError(w, http.StatusNotFound, models.ErrNotFound.Error())
	default:
		h.Logger.Error("API", err.Error())
		utils.SendError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected data after JSON object")
	}
	return nil
}
