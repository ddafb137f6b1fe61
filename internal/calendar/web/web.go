package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/events/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/calendar.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"statusColor": calendar.StatusColor,
	"dmy":         calendar.FormatDMY,
}).ParseFS(templateFiles, "templates/calendar.html"))

// the service is used in-process as the page's Events API
var _ calendar.EventsAPI = (*service.EventService)(nil)

const basePath = "/admin/calendar"

// Handler serves the admin calendar. All view state lives in the query string,
// so every request builds a fresh Controller from it.
type Handler struct {
	API       calendar.EventsAPI
	Logger    *logger.Logger
	Location  *time.Location
	FeedURL   string
	// StreamURL, when set, makes the page reload on live changes.
	StreamURL string
	Now       func() time.Time
}

func NewHandler(api calendar.EventsAPI, log *logger.Logger, loc *time.Location, feedURL string) *Handler {
	return &Handler{API: api, Logger: log, Location: loc, FeedURL: feedURL, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(basePath, func(r chi.Router) {
		r.Get("/", h.Page)
		r.Post("/save", h.Save)
		r.Post("/status", h.QuickStatus)
		r.Post("/delete", h.Delete)
		r.Post("/filter", h.Filter)
	})
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) today() models.Date {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(h.now().In(loc))
}

func (h *Handler) controller(v url.Values) *calendar.Controller {
	state := calendar.DecodeState(v)
	if state.FocusDate.IsZero() {
		state.FocusDate = h.today()
	}
	ctrl := calendar.NewController(h.API, state)
	ctrl.Now = h.now
	return ctrl
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r.URL.Query())
	state, err := ctrl.Refresh(r.Context())

	data := h.buildPage(state)
	if err != nil {
		h.Logger.Error("CALENDAR", err.Error())
		data.Error = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		h.Logger.Error("CALENDAR", fmt.Sprintf("Failed to render calendar: %v", err))
	}
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	state, err := h.controller(r.Form).Save(r.Context())
	h.finish(w, r, "save", state, err)
}

func (h *Handler) QuickStatus(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	state, err := h.controller(r.Form).QuickStatus(r.Context(), models.Status(r.PostForm.Get("new_status")))
	h.finish(w, r, "status", state, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	state, err := h.controller(r.Form).Delete(r.Context())
	h.finish(w, r, "delete", state, err)
}

// Filter applies the status filter and search, moving the calendar to the first match.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	ctrl := h.controller(r.Form)
	state := ctrl.State()
	if _, err := ctrl.Refresh(r.Context()); err != nil {
		h.finish(w, r, "filter", ctrl.State(), err)
		return
	}
	ctrl.Dispatch(calendar.SetStatusFilter{Status: state.StatusFilter})
	state = ctrl.Dispatch(calendar.SetSearch{Text: state.Search})
	h.finish(w, r, "filter", state, nil)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// finish redirects back to the page with the resulting state in the query.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, action string, state calendar.ViewState, err error) {
	if err != nil {
		h.Logger.Warn("CALENDAR", fmt.Sprintf("%s failed: %v", action, err))
	}
	http.Redirect(w, r, pageURL(state), http.StatusSeeOther)
}

func pageURL(state calendar.ViewState) string {
	q := state.Query().Encode()
	if q == "" {
		return basePath
	}
	return basePath + "?" + q
}

type eventView struct {
	models.Event
	Color string
	URL   string
}

type dayView struct {
	calendar.Day
	Number    int
	CreateURL string
	Entries   []eventView
}

type pageData struct {
	State      calendar.ViewState
	MonthLabel string
	Weekdays   []string
	Weeks      [][]dayView
	Today      []models.Event
	Statuses   []models.Status
	Selected   *models.Event
	Links      map[string]string
	Hidden     url.Values
	FormHidden url.Values
	Filter     url.Values
	VisibleN   int
	FeedURL    string
	StreamURL  string
	Error      string
}

func (h *Handler) buildPage(state calendar.ViewState) pageData {
	today := h.today()
	// links never carry the toast or the saving flag
	base := state
	base.Toast = nil
	base.Saving = false

	visible := state.Visible()
	grid := calendar.MonthGrid(state.FocusDate, today, visible)
	weeks := make([][]dayView, 0, len(grid))
	for _, week := range grid {
		row := make([]dayView, 0, len(week))
		for _, day := range week {
			dv := dayView{
				Day:       day,
				Number:    day.Date.Time().Day(),
				CreateURL: pageURL(calendar.Reduce(base, calendar.SelectDate{Date: day.Date})),
			}
			for _, ev := range day.Events {
				dv.Entries = append(dv.Entries, eventView{
					Event: ev,
					Color: calendar.StatusColor(ev.Status),
					URL:   pageURL(calendar.Reduce(base, calendar.SelectEvent{ID: ev.ID})),
				})
			}
			row = append(row, dv)
		}
		weeks = append(weeks, row)
	}

	data := pageData{
		State:      state,
		MonthLabel: state.FocusDate.Time().Format("January 2006"),
		Weekdays:   []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		Weeks:      weeks,
		Today:      calendar.TodayEvents(state.Events, today),
		Statuses:   models.Statuses,
		VisibleN:   len(visible),
		FeedURL:    h.FeedURL,
		StreamURL:  h.StreamURL,
		Links: map[string]string{
			"prev":     pageURL(calendar.Reduce(base, calendar.Navigate{Date: calendar.MonthStart(state.FocusDate, -1)})),
			"next":     pageURL(calendar.Reduce(base, calendar.Navigate{Date: calendar.MonthStart(state.FocusDate, 1)})),
			"today":    pageURL(calendar.Reduce(base, calendar.Navigate{Date: today})),
			"close":    pageURL(calendar.Reduce(base, calendar.Close{})),
			"cancel":   pageURL(calendar.Reduce(base, calendar.Cancel{})),
			"fullEdit": pageURL(calendar.Reduce(base, calendar.FullEdit{})),
		},
	}
	if ev, ok := state.Selected(); ok {
		data.Selected = &ev
	}

	data.Hidden = base.Query()
	data.FormHidden = withoutKeys(base.Query(), func(k string) bool { return strings.HasPrefix(k, "f_") })
	data.Filter = withoutKeys(calendar.Reduce(base, calendar.Close{}).Query(), func(k string) bool { return k == "status" || k == "q" })
	return data
}

func withoutKeys(v url.Values, drop func(string) bool) url.Values {
	for k := range v {
		if drop(k) {
			delete(v, k)
		}
	}
	return v
}
