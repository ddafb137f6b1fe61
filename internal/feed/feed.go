package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

const (
	FeedPath = "/calendar.ics"
	QRPath   = FeedPath + "/qr.png"
	qrSize   = 256
)

type EventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// Handler exports bookings as a subscribable iCalendar feed.
type Handler struct {
	Events  EventLister
	Logger  *logger.Logger
	BaseURL string
	Name    string
	Now     func() time.Time
}

func NewHandler(events EventLister, log *logger.Logger, baseURL, name string) *Handler {
	return &Handler{
		Events:  events,
		Logger:  log,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Name:    name,
		Now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(FeedPath, h.Feed)
	r.Get(QRPath, h.QR)
}

// FeedURL is the absolute address encoded in the QR code.
func (h *Handler) FeedURL() string {
	return h.BaseURL + FeedPath
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ListEvents(r.Context())
	if err != nil {
		h.Logger.Error("FEED", fmt.Sprintf("Failed to list events: %v", err))
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	body := Build(events, h.Name, now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.Write([]byte(body))
}

func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(h.FeedURL(), qrcode.Medium, qrSize)
	if err != nil {
		h.Logger.Error("FEED", fmt.Sprintf("Failed to encode QR: %v", err))
		http.Error(w, "failed to encode QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// Build serializes every non-cancelled booking as an all-day VEVENT.
func Build(events []models.Event, name string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ms-calendar//bookings//EN")
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		if e.Status == models.StatusCancelled {
			continue
		}
		start := e.Date.Time()
		if start.IsZero() {
			continue
		}

		ev := cal.AddEvent(e.ID + "@ms-calendar")
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetSummary(fmt.Sprintf("%s – %s", e.Title, e.CustomerName))
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		ev.SetDescription(description(e))
		if e.Status == models.StatusPending {
			ev.SetStatus(ics.ObjectStatusTentative)
		} else {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

func description(e models.Event) string {
	lines := []string{"Status: " + string(e.Status), "Customer: " + e.CustomerName}
	if e.CustomerPhone != "" {
		lines = append(lines, "Phone: "+e.CustomerPhone)
	}
	if e.CustomerEmail != "" {
		lines = append(lines, "Email: "+e.CustomerEmail)
	}
	return strings.Join(lines, "\n")
}
