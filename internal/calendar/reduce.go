package calendar

import (
	"strings"
	"time"

	"ms-calendar/internal/models"
)

// Action is an input to Reduce.
type Action interface {
	isAction()
}

// Op names the request a Succeeded or Failed action completes.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpStatus Op = "status"
	OpDelete Op = "delete"
)

type (
	SelectEvent struct{ ID string }
	SelectDate  struct{ Date models.Date }
	FullEdit    struct{}
	UpdateForm  struct{ Form Form }
	// Submit marks a request as in flight.
	Submit struct{}
	// Succeeded carries the re-fetched list after a mutation.
	Succeeded struct {
		Op     Op
		Events []models.Event
		Status models.Status
		At     time.Time
	}
	Failed struct {
		Op  Op
		Err string
		At  time.Time
	}
	Cancel          struct{}
	Close           struct{}
	SetStatusFilter struct{ Status string }
	SetSearch       struct{ Text string }
	Navigate        struct{ Date models.Date }
	Dismiss         struct{}
	Tick            struct{ Now time.Time }
)

// EventsLoaded replaces the list. Refocus applies the search navigation
// again, which a plain page refresh should not do.
type EventsLoaded struct {
	Events  []models.Event
	Refocus bool
}

func (SelectEvent) isAction()     {}
func (SelectDate) isAction()      {}
func (FullEdit) isAction()        {}
func (UpdateForm) isAction()      {}
func (Submit) isAction()          {}
func (Succeeded) isAction()       {}
func (Failed) isAction()          {}
func (Cancel) isAction()          {}
func (Close) isAction()           {}
func (SetStatusFilter) isAction() {}
func (SetSearch) isAction()       {}
func (Navigate) isAction()        {}
func (EventsLoaded) isAction()    {}
func (Dismiss) isAction()         {}
func (Tick) isAction()            {}

// Reduce returns the state after action. It never mutates s.
func Reduce(s ViewState, action Action) ViewState {
	switch a := action.(type) {
	case SelectEvent:
		ev, ok := findEvent(s.Events, a.ID)
		if !ok {
			return s
		}
		s.Mode = ModeView
		s.SelectedID = ev.ID
		s.Form = FormFromEvent(ev)

	case SelectDate:
		s.Mode = ModeCreate
		s.SelectedID = ""
		s.Form = NewForm(a.Date)

	case FullEdit:
		if s.Mode != ModeView {
			return s
		}
		if ev, ok := s.Selected(); ok {
			s.Form = FormFromEvent(ev)
		}
		s.Mode = ModeEdit

	case UpdateForm:
		if s.Mode != ModeEdit && s.Mode != ModeCreate {
			return s
		}
		if s.Mode == ModeEdit {
			a.Form.ID = s.SelectedID
		} else {
			a.Form.ID = ""
		}
		s.Form = a.Form

	case Submit:
		if !s.ModalOpen() {
			return s
		}
		s.Saving = true

	case Succeeded:
		s.Saving = false
		s.Events = a.Events
		s.Toast = newToast(successMessage(a.Op, a.Status), ToastSuccess, a.At)
		switch a.Op {
		case OpStatus:
			if ev, ok := s.Selected(); ok {
				s.Form = FormFromEvent(ev)
			} else {
				s = closeModal(s)
			}
		case OpCreate, OpUpdate:
			s = closeModal(s)
			s.Search = ""
		default:
			s = closeModal(s)
		}
		s = focusFirstMatch(s)

	case Failed:
		s.Saving = false
		s.Toast = newToast(failureMessage(a.Op, a.Err), ToastError, a.At)

	case Cancel:
		switch s.Mode {
		case ModeEdit:
			s.Mode = ModeView
			if ev, ok := s.Selected(); ok {
				s.Form = FormFromEvent(ev)
			}
		default:
			s = closeModal(s)
		}

	case Close:
		s = closeModal(s)

	case SetStatusFilter:
		s.StatusFilter = normalizeStatusFilter(a.Status)
		s = focusFirstMatch(s)

	case SetSearch:
		s.Search = a.Text
		s = focusFirstMatch(s)

	case Navigate:
		if _, err := models.ParseDate(string(a.Date)); err == nil {
			s.FocusDate = a.Date
		}

	case EventsLoaded:
		s.Events = a.Events
		if s.Events == nil {
			s.Events = []models.Event{}
		}
		if s.Mode == ModeView || s.Mode == ModeEdit {
			ev, ok := s.Selected()
			switch {
			case !ok:
				s = closeModal(s)
			case s.Mode == ModeView:
				s.Form = FormFromEvent(ev)
			}
		}
		if a.Refocus {
			s = focusFirstMatch(s)
		}

	case Dismiss:
		s.Toast = nil

	case Tick:
		if s.Toast != nil && !a.Now.Before(s.Toast.ExpiresAt) {
			s.Toast = nil
		}
	}
	return s
}

func closeModal(s ViewState) ViewState {
	s.Mode = ModeNone
	s.SelectedID = ""
	s.Form = Form{}
	return s
}

// focusFirstMatch moves the calendar to the first visible match of a non-empty search.
func focusFirstMatch(s ViewState) ViewState {
	if strings.TrimSpace(s.Search) == "" {
		return s
	}
	if visible := s.Visible(); len(visible) > 0 {
		s.FocusDate = visible[0].Date
	}
	return s
}

func normalizeStatusFilter(status string) string {
	status = strings.TrimSpace(status)
	if models.Status(status).Valid() {
		return status
	}
	return StatusAll
}

func newToast(message string, kind ToastKind, at time.Time) *Toast {
	return &Toast{Message: message, Kind: kind, ExpiresAt: at.Add(ToastDuration)}
}

func successMessage(op Op, status models.Status) string {
	switch op {
	case OpCreate:
		return "Event created! ✅"
	case OpUpdate:
		return "Event updated! ✅"
	case OpStatus:
		return "Status updated to " + string(status) + " ✅"
	case OpDelete:
		return "Event deleted! ✅"
	default:
		return "Done ✅"
	}
}

func failureMessage(op Op, err string) string {
	switch op {
	case OpStatus:
		return "Status update failed ❌"
	case OpDelete:
		return "Delete failed ❌"
	default:
		return "Save failed: " + err + " ❌"
	}
}
