package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-calendar/internal/models"
)

var (
	// ErrBusy is returned while another request is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNoForm is returned by Save outside the edit and create modes.
	ErrNoForm = errors.New("no form is open")
	// ErrNoSelection is returned by QuickStatus and Delete without a selected event.
	ErrNoSelection = errors.New("no event selected")
)

// EventsAPI is the Events API as seen by the calendar.
type EventsAPI interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, req models.CreateEventRequest) (string, error)
	UpdateEvent(ctx context.Context, req models.UpdateEventRequest) (int64, error)
	DeleteEvent(ctx context.Context, id string) (int64, error)
}

// Controller runs Reduce against an EventsAPI. Every successful mutation is
// followed by a full re-fetch of the list.
type Controller struct {
	API EventsAPI
	Now func() time.Time

	mu    sync.Mutex
	state ViewState
}

func NewController(api EventsAPI, initial ViewState) *Controller {
	return &Controller{API: api, Now: time.Now, state: initial}
}

func (c *Controller) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Dispatch(action Action) ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, action)
	return c.state
}

// Load fetches the list and applies the search navigation.
func (c *Controller) Load(ctx context.Context) (ViewState, error) {
	return c.load(ctx, true)
}

// Refresh fetches the list without moving the calendar.
func (c *Controller) Refresh(ctx context.Context) (ViewState, error) {
	return c.load(ctx, false)
}

func (c *Controller) load(ctx context.Context, refocus bool) (ViewState, error) {
	events, err := c.API.ListEvents(ctx)
	if err != nil {
		return c.Dispatch(Tick{Now: c.now()}), fmt.Errorf("failed to load events: %w", err)
	}
	c.Dispatch(EventsLoaded{Events: events, Refocus: refocus})
	return c.Dispatch(Tick{Now: c.now()}), nil
}

// Save submits the open form, creating or fully updating depending on the mode.
func (c *Controller) Save(ctx context.Context) (ViewState, error) {
	c.mu.Lock()
	s := c.state
	if s.Mode != ModeEdit && s.Mode != ModeCreate {
		c.mu.Unlock()
		return s, ErrNoForm
	}
	if s.Saving {
		c.mu.Unlock()
		return s, ErrBusy
	}
	c.state = Reduce(s, Submit{})
	c.mu.Unlock()

	var err error
	op := OpCreate
	if s.Mode == ModeEdit {
		op = OpUpdate
		_, err = c.API.UpdateEvent(ctx, s.Form.UpdateRequest())
	} else {
		_, err = c.API.CreateEvent(ctx, s.Form.CreateRequest())
	}
	if err != nil {
		return c.Dispatch(Failed{Op: op, Err: err.Error(), At: c.now()}), err
	}
	return c.succeed(ctx, op, "")
}

// QuickStatus changes only the status of the selected event.
func (c *Controller) QuickStatus(ctx context.Context, status models.Status) (ViewState, error) {
	id, err := c.beginOnSelection()
	if err != nil {
		return c.State(), err
	}

	_, err = c.API.UpdateEvent(ctx, models.UpdateEventRequest{ID: id, Status: &status})
	if err != nil {
		return c.Dispatch(Failed{Op: OpStatus, Err: err.Error(), At: c.now()}), err
	}
	return c.succeed(ctx, OpStatus, status)
}

// Delete removes the selected event. A zero deleted count means it was already gone.
func (c *Controller) Delete(ctx context.Context) (ViewState, error) {
	id, err := c.beginOnSelection()
	if err != nil {
		return c.State(), err
	}

	if _, err := c.API.DeleteEvent(ctx, id); err != nil {
		return c.Dispatch(Failed{Op: OpDelete, Err: err.Error(), At: c.now()}), err
	}
	return c.succeed(ctx, OpDelete, "")
}

func (c *Controller) beginOnSelection() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SelectedID == "" || (c.state.Mode != ModeView && c.state.Mode != ModeEdit) {
		return "", ErrNoSelection
	}
	if c.state.Saving {
		return "", ErrBusy
	}
	c.state = Reduce(c.state, Submit{})
	return c.state.SelectedID, nil
}

// succeed re-fetches after a mutation. When the re-fetch fails the mutation
// still counts as done, the stale list is kept and the error is returned.
func (c *Controller) succeed(ctx context.Context, op Op, status models.Status) (ViewState, error) {
	events, err := c.API.ListEvents(ctx)
	if err != nil {
		events = c.State().Events
		err = fmt.Errorf("failed to reload events: %w", err)
	}
	return c.Dispatch(Succeeded{Op: op, Events: events, Status: status, At: c.now()}), err
}
