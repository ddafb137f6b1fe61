package feed

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	events []models.Event
	err    error
}

func (s stubLister) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events, s.err
}

var stamp = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func bookings() []models.Event {
	return []models.Event{
		{ID: "a", Title: "Wedding", Date: "2025-05-12", Status: models.StatusConfirmed, CustomerName: "Asha", Location: "Lake Hall", CustomerPhone: "98450"},
		{ID: "b", Title: "Portrait", Date: "2025-05-20", Status: models.StatusPending, CustomerName: "Ravi"},
		{ID: "c", Title: "Launch", Date: "2025-06-02", Status: models.StatusCancelled, CustomerName: "Meera"},
	}
}

func parse(t *testing.T, body string) *ics.Calendar {
	t.Helper()
	cal, err := ics.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	return cal
}

func prop(ev *ics.VEvent, name ics.ComponentProperty) string {
	if p := ev.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

func TestBuildSkipsCancelled(t *testing.T) {
	cal := parse(t, Build(bookings(), "Studio", stamp))

	events := cal.Events()
	require.Len(t, events, 2)

	wedding := events[0]
	assert.Equal(t, "a@ms-calendar", wedding.Id())
	assert.Equal(t, "Wedding – Asha", prop(wedding, ics.ComponentPropertySummary))
	assert.Equal(t, "20250512", prop(wedding, ics.ComponentPropertyDtStart))
	assert.Equal(t, "20250513", prop(wedding, ics.ComponentPropertyDtEnd))
	assert.Equal(t, "Lake Hall", prop(wedding, ics.ComponentPropertyLocation))
	assert.Equal(t, "CONFIRMED", prop(wedding, ics.ComponentPropertyStatus))
	assert.Contains(t, prop(wedding, ics.ComponentPropertyDescription), "Customer: Asha")

	assert.Equal(t, "TENTATIVE", prop(events[1], ics.ComponentPropertyStatus))
	assert.Empty(t, prop(events[1], ics.ComponentPropertyLocation))
}

func TestBuildEmpty(t *testing.T) {
	body := Build(nil, "", stamp)

	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Empty(t, parse(t, body).Events())
}

func TestFeedHandler(t *testing.T) {
	h := NewHandler(stubLister{events: bookings()}, logger.Discard(), "https://studio.example.com/", "Studio")
	h.Now = func() time.Time { return stamp }
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Len(t, parse(t, rec.Body.String()).Events(), 2)
}

func TestFeedHandlerStoreError(t *testing.T) {
	h := NewHandler(stubLister{err: errors.New("db down")}, logger.Discard(), "", "")
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQRHandler(t *testing.T) {
	h := NewHandler(stubLister{}, logger.Discard(), "https://studio.example.com/", "Studio")
	assert.Equal(t, "https://studio.example.com/calendar.ics", h.FeedURL())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar.ics/qr.png", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
