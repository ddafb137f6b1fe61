package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type EventDBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) (string, error)
	UpdateEvent(ctx context.Context, event models.Event) (int64, error)
	UpdateEventStatus(ctx context.Context, id string, status models.Status) (int64, error)
	DeleteEvent(ctx context.Context, id string) (int64, error)
}

// EventCache holds the full list between mutations.
type EventCache interface {
	GetEvents(ctx context.Context) ([]models.Event, bool, error)
	SetEvents(ctx context.Context, events []models.Event) error
	Invalidate(ctx context.Context) error
}

type ChangePublisher interface {
	PublishEventChange(ctx context.Context, change models.EventChange) error
}

// EventService applies validation on top of the store. Cache and Publisher are optional.
// Publishers fans a change out to every publisher and joins their errors.
type Publishers []ChangePublisher

func (p Publishers) PublishEventChange(ctx context.Context, change models.EventChange) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishEventChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type EventService struct {
	DB        EventDBLayer
	Cache     EventCache
	Publisher ChangePublisher
	Logger    *logger.Logger
	Now       func() time.Time

	// generation counts mutations so a list read that raced one is not left in the cache.
	generation atomic.Uint64
}

func NewEventService(db EventDBLayer, cache EventCache, publisher ChangePublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Cache: cache, Publisher: publisher, Logger: log, Now: time.Now}
}

func (s *EventService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ListEvents returns every event, date ascending, from cache when warm.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	if s.Cache != nil {
		events, ok, err := s.Cache.GetEvents(ctx)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Failed to read events cache: %v", err))
		} else if ok {
			return events, nil
		}
	}

	before := s.generation.Load()
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.SetEvents(ctx, events); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Failed to fill events cache: %v", err))
		} else if s.generation.Load() != before {
			// a mutation landed between the read and the fill
			if err := s.Cache.Invalidate(ctx); err != nil {
				s.Logger.Warn("CACHE", fmt.Sprintf("Failed to drop stale events cache: %v", err))
			}
		}
	}
	return events, nil
}

func (s *EventService) ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error) {
	events, err := s.DB.ListEventsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", date, err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, models.NewValidationError("id is required")
	}
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return event, nil
}

// CreateEvent validates the trimmed request and inserts it.
func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (string, error) {
	event := req.ToEvent()
	if err := models.ValidateEvent(event); err != nil {
		return "", err
	}

	id, err := s.DB.CreateEvent(ctx, &event)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	s.Logger.LogEvent("CREATE", id, fmt.Sprintf("%q on %s for %s", event.Title, event.Date, event.CustomerName))
	s.afterMutation(ctx, models.EventCreated, id, &event)
	return id, nil
}

// UpdateEvent merges the provided fields onto the stored event. A status-only
// request goes through the store's status path so nothing else is rewritten.
func (s *EventService) UpdateEvent(ctx context.Context, req models.UpdateEventRequest) (int64, error) {
	id := req.EventID()
	if id == "" {
		return 0, models.NewValidationError("id is required")
	}
	if !req.HasChanges() {
		return 0, models.NewValidationError("no fields to update")
	}

	if req.IsStatusOnly() {
		status := models.Status(strings.TrimSpace(string(*req.Status)))
		if !status.Valid() {
			return 0, models.NewValidationError("status must be one of Pending, Confirmed, Completed, Cancelled")
		}
		matched, err := s.DB.UpdateEventStatus(ctx, id, status)
		if err != nil {
			return 0, fmt.Errorf("failed to update status of event %s: %w", id, err)
		}
		s.Logger.LogEvent("STATUS", id, string(status))
		s.afterMutation(ctx, models.EventStatusChanged, id, nil)
		return matched, nil
	}

	current, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to load event %s: %w", id, err)
	}

	updated := *current
	req.Apply(&updated)
	if err := models.ValidateEvent(updated); err != nil {
		return 0, err
	}

	matched, err := s.DB.UpdateEvent(ctx, updated)
	if err != nil {
		return 0, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	s.Logger.LogEvent("UPDATE", id, fmt.Sprintf("%q on %s", updated.Title, updated.Date))
	s.afterMutation(ctx, models.EventUpdated, id, &updated)
	return matched, nil
}

// DeleteEvent reports the number of removed events; 0 is not an error.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, models.NewValidationError("id is required")
	}
	deleted, err := s.DB.DeleteEvent(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	if deleted == 0 {
		s.Logger.LogEvent("DELETE", id, "already gone")
		return 0, nil
	}
	s.Logger.LogEvent("DELETE", id, "removed")
	s.afterMutation(ctx, models.EventDeleted, id, nil)
	return deleted, nil
}

func (s *EventService) afterMutation(ctx context.Context, action models.EventAction, id string, event *models.Event) {
	s.generation.Add(1)
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Failed to invalidate events cache: %v", err))
		}
	}
	if s.Publisher != nil {
		change := models.EventChange{Action: action, EventID: id, OccurredAt: s.now().UTC()}
		if event != nil {
			copied := *event
			change.Event = &copied
		}
		if err := s.Publisher.PublishEventChange(ctx, change); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for event %s: %v", action, id, err))
		}
	}
}

// IsNotFound and IsInvalid classify service errors for transport layers.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

func IsInvalid(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr) || errors.Is(err, models.ErrInvalidID)
}
