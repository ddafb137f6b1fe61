package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-calendar/internal/models"

	"github.com/robfig/cron/v3"
)

// Schedule runs job on a standard five-field cron spec evaluated in loc.
// The returned cron is already started; Stop it on shutdown.
func Schedule(spec string, job *Job, loc *time.Location, timeout time.Duration) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := job.Run(ctx)
		switch {
		case errors.Is(err, models.ErrReminderRunning):
			job.Logger.Info("REMINDER", "Scheduled run skipped, another run holds the lock")
		case err != nil:
			job.Logger.Error("REMINDER", fmt.Sprintf("Scheduled run failed: %v", err))
		case result.NoOp():
			job.Logger.LogReminder(string(result.Date), "No reminders today")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_CRON %q: %w", spec, err)
	}
	c.Start()
	job.Logger.Info("REMINDER", fmt.Sprintf("Reminder schedule %q (%s)", spec, loc))
	return c, nil
}
