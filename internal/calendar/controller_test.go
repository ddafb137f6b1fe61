package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-calendar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventsAPI struct {
	mock.Mock
}

func (m *MockEventsAPI) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventsAPI) CreateEvent(ctx context.Context, req models.CreateEventRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockEventsAPI) UpdateEvent(ctx context.Context, req models.UpdateEventRequest) (int64, error) {
	args := m.Called(ctx, req)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockEventsAPI) DeleteEvent(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return int64(args.Int(0)), args.Error(1)
}

func newController(api *MockEventsAPI) *Controller {
	c := NewController(api, NewViewState("2025-05-01"))
	c.Now = func() time.Time { return at }
	return c
}

func TestControllerLoad(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	api.On("ListEvents", mock.Anything).Return(sampleEvents(), nil).Once()

	s, err := c.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, s.Events, 4)
	assert.Equal(t, s, c.State())
}

func TestControllerLoadError(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	api.On("ListEvents", mock.Anything).Return(nil, errors.New("connection refused"))

	s, err := c.Load(context.Background())

	assert.Error(t, err)
	assert.Empty(t, s.Events)
}

func TestControllerCreateRefetches(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	api.On("ListEvents", mock.Anything).Return(sampleEvents(), nil).Once()
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	c.Dispatch(SelectDate{Date: "2025-05-22"})
	c.Dispatch(UpdateForm{Form: Form{Title: " Reception ", Date: "2025-05-22", Status: "Pending", CustomerName: "Nila"}})

	fresh := append(sampleEvents(), models.Event{ID: "e", Title: "Reception", Date: "2025-05-22", CustomerName: "Nila"})
	api.On("CreateEvent", mock.Anything, mock.MatchedBy(func(r models.CreateEventRequest) bool {
		return r.Title == "Reception" && r.Date == "2025-05-22"
	})).Return("e", nil).Once()
	api.On("ListEvents", mock.Anything).Return(fresh, nil).Once()

	s, err := c.Save(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ModeNone, s.Mode)
	assert.False(t, s.Saving)
	assert.Len(t, s.Events, 5)
	assert.Equal(t, "Event created! ✅", s.Toast.Message)
	api.AssertExpectations(t)
}

func TestControllerUpdateFailureKeepsForm(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	c.Dispatch(EventsLoaded{Events: sampleEvents()})
	c.Dispatch(SelectEvent{ID: "a"})
	c.Dispatch(FullEdit{})

	api.On("UpdateEvent", mock.Anything, mock.MatchedBy(func(r models.UpdateEventRequest) bool {
		return r.EventID() == "a" && r.Title != nil && *r.Title == "Wedding"
	})).Return(0, models.ErrNotFound)

	s, err := c.Save(context.Background())

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, ModeEdit, s.Mode)
	assert.Equal(t, "Wedding", s.Form.Title)
	assert.False(t, s.Saving)
	assert.Equal(t, ToastError, s.Toast.Kind)
	api.AssertNotCalled(t, "ListEvents", mock.Anything)
}

func TestControllerQuickStatusRefetches(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	c.Dispatch(EventsLoaded{Events: sampleEvents()})
	c.Dispatch(SelectEvent{ID: "a"})

	fresh := sampleEvents()
	fresh[0].Status = models.StatusCompleted
	api.On("UpdateEvent", mock.Anything, mock.MatchedBy(func(r models.UpdateEventRequest) bool {
		return r.IsStatusOnly() && *r.Status == models.StatusCompleted && r.ID == "a"
	})).Return(1, nil)
	api.On("ListEvents", mock.Anything).Return(fresh, nil).Once()

	s, err := c.QuickStatus(context.Background(), models.StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, ModeView, s.Mode)
	assert.Equal(t, models.StatusCompleted, s.Events[0].Status)
	assert.Equal(t, "Completed", s.Form.Status)
	api.AssertExpectations(t)
}

func TestControllerDelete(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	c.Dispatch(EventsLoaded{Events: sampleEvents()})
	c.Dispatch(SelectEvent{ID: "d"})

	api.On("DeleteEvent", mock.Anything, "d").Return(0, nil)
	api.On("ListEvents", mock.Anything).Return(sampleEvents()[:3], nil).Once()

	s, err := c.Delete(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Len(t, s.Events, 3)
}

func TestControllerRefetchFailureStillCompletes(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	c.Dispatch(EventsLoaded{Events: sampleEvents()})
	c.Dispatch(SelectEvent{ID: "b"})

	api.On("DeleteEvent", mock.Anything, "b").Return(1, nil)
	api.On("ListEvents", mock.Anything).Return(nil, errors.New("timeout"))

	s, err := c.Delete(context.Background())

	assert.Error(t, err)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Len(t, s.Events, 4)
	assert.False(t, s.Saving)
}

func TestControllerGuards(t *testing.T) {
	api := new(MockEventsAPI)
	c := newController(api)
	c.Dispatch(EventsLoaded{Events: sampleEvents()})

	_, err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoForm)

	_, err = c.QuickStatus(context.Background(), models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = c.Delete(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	c.Dispatch(SelectEvent{ID: "a"})
	c.Dispatch(Submit{})
	_, err = c.Delete(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	c.Dispatch(FullEdit{})
	_, err = c.Save(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	api.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}
