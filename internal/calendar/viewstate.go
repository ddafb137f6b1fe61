package calendar

import (
	"strings"
	"time"

	"ms-calendar/internal/models"
)

type Mode string

const (
	ModeNone   Mode = "none"
	ModeView   Mode = "view"
	ModeEdit   Mode = "edit"
	ModeCreate Mode = "create"
)

// StatusAll disables the status filter.
const StatusAll = "All"

// ToastDuration is how long a notification stays up.
const ToastDuration = 3 * time.Second

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Message   string    `json:"message"`
	Kind      ToastKind `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Form is the edit/create modal. ID is empty while creating.
type Form struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Location      string `json:"location"`
	CustomerEmail string `json:"customerEmail"`
}

func NewForm(date models.Date) Form {
	return Form{Date: string(date), Status: string(models.StatusPending)}
}

func FormFromEvent(ev models.Event) Form {
	return Form{
		ID:            ev.ID,
		Title:         ev.Title,
		Date:          string(ev.Date),
		Status:        string(ev.Status),
		CustomerName:  ev.CustomerName,
		CustomerPhone: ev.CustomerPhone,
		Location:      ev.Location,
		CustomerEmail: ev.CustomerEmail,
	}
}

func (f Form) CreateRequest() models.CreateEventRequest {
	return models.CreateEventRequest{
		Title:         strings.TrimSpace(f.Title),
		Date:          models.Date(strings.TrimSpace(f.Date)),
		Status:        models.Status(f.Status),
		CustomerName:  strings.TrimSpace(f.CustomerName),
		CustomerPhone: strings.TrimSpace(f.CustomerPhone),
		Location:      strings.TrimSpace(f.Location),
		CustomerEmail: strings.TrimSpace(f.CustomerEmail),
	}
}

// UpdateRequest sends every field so the server performs a full update.
func (f Form) UpdateRequest() models.UpdateEventRequest {
	c := f.CreateRequest()
	title, name, phone, location, email := c.Title, c.CustomerName, c.CustomerPhone, c.Location, c.CustomerEmail
	date, status := c.Date, c.Status
	return models.UpdateEventRequest{
		ID:            f.ID,
		Title:         &title,
		Date:          &date,
		Status:        &status,
		CustomerName:  &name,
		CustomerPhone: &phone,
		Location:      &location,
		CustomerEmail: &email,
	}
}

// ViewState is everything the admin calendar renders from.
type ViewState struct {
	Mode         Mode           `json:"mode"`
	SelectedID   string         `json:"selectedId,omitempty"`
	Form         Form           `json:"form"`
	StatusFilter string         `json:"statusFilter"`
	Search       string         `json:"search"`
	Saving       bool           `json:"saving"`
	Toast        *Toast         `json:"toast,omitempty"`
	FocusDate    models.Date    `json:"focusDate,omitempty"`
	Events       []models.Event `json:"events"`
}

func NewViewState(today models.Date) ViewState {
	return ViewState{Mode: ModeNone, StatusFilter: StatusAll, FocusDate: today, Events: []models.Event{}}
}

// Visible is the filtered event list the calendar draws.
func (s ViewState) Visible() []models.Event {
	return Filter(s.Events, s.StatusFilter, s.Search)
}

// Selected returns the event the modal refers to, if it is still loaded.
func (s ViewState) Selected() (models.Event, bool) {
	return findEvent(s.Events, s.SelectedID)
}

func (s ViewState) ModalOpen() bool {
	return s.Mode != ModeNone && s.Mode != ""
}

func findEvent(events []models.Event, id string) (models.Event, bool) {
	if id == "" {
		return models.Event{}, false
	}
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	return models.Event{}, false
}
