package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type EventLister interface {
	ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error)
}

// Locker guards against overlapping runs. Acquire returns models.ErrReminderRunning when held.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type RunPublisher interface {
	PublishReminderRun(ctx context.Context, result models.ReminderResult) error
}

// Job emails every customer whose booking is tomorrow. Lock and Publisher are optional.
type Job struct {
	Store     EventLister
	Mailer    Mailer
	Lock      Locker
	Publisher RunPublisher
	Logger    *logger.Logger
	Location  *time.Location
	Now       func() time.Time
}

func NewJob(store EventLister, mailer Mailer, log *logger.Logger, loc *time.Location) *Job {
	return &Job{Store: store, Mailer: mailer, Logger: log, Location: loc, Now: time.Now}
}

func (j *Job) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

// Tomorrow is the day after the current date in the job's location.
func (j *Job) Tomorrow() models.Date {
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(j.now().In(loc)).AddDays(1)
}

// Run sends one reminder per eligible booking. A failed send is counted and the
// run continues. Bookings without a usable email, or cancelled, are skipped.
func (j *Job) Run(ctx context.Context) (*models.ReminderResult, error) {
	if j.Lock != nil {
		release, err := j.Lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	date := j.Tomorrow()
	events, err := j.Store.ListEventsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s: %w", date, err)
	}

	result := &models.ReminderResult{Date: date, Matched: len(events)}
	for _, ev := range events {
		switch {
		case ev.Status == models.StatusCancelled:
			result.Skipped++
			j.Logger.LogReminder(string(date), fmt.Sprintf("skip %s: booking cancelled", ev.ID))
			continue
		case !models.ValidEmail(ev.CustomerEmail):
			result.Skipped++
			j.Logger.LogReminder(string(date), fmt.Sprintf("skip %s: no valid customer email", ev.ID))
			continue
		}

		ev.CustomerEmail = strings.TrimSpace(ev.CustomerEmail)
		if err := j.Mailer.SendReminder(ctx, ev); err != nil {
			result.Failed++
			j.Logger.Error("REMINDER", fmt.Sprintf("Failed to send reminder for %s: %v", ev.ID, err))
			continue
		}
		result.Sent++
		j.Logger.LogReminder(string(date), fmt.Sprintf("sent %s to %s", ev.ID, ev.CustomerEmail))
	}

	result.FinishedAt = j.now().UTC()
	j.Logger.LogReminder(string(date), fmt.Sprintf("matched=%d sent=%d failed=%d skipped=%d",
		result.Matched, result.Sent, result.Failed, result.Skipped))

	if j.Publisher != nil && !result.NoOp() {
		if err := j.Publisher.PublishReminderRun(ctx, *result); err != nil {
			j.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish reminder run: %v", err))
		}
	}
	return result, nil
}
