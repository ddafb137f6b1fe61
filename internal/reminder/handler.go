package reminder

import (
	"errors"
	"net/http"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Job    *Job
	Logger *logger.Logger
}

func NewHandler(job *Job, log *logger.Logger) *Handler {
	return &Handler{Job: job, Logger: log}
}

// RegisterRoutes mounts the trigger on /reminders and the legacy /api/calendar-reminder path.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders", h.RunReminders)
	r.Get("/api/calendar-reminder", h.RunReminders)
}

func (h *Handler) RunReminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.Job.Run(r.Context())
	if errors.Is(err, models.ErrReminderRunning) {
		utils.SendError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.Logger.Error("REMINDER", err.Error())
		utils.SendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.NoOp() {
		utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "No reminders today"})
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"date":    result.Date,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	})
}
