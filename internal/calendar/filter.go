package calendar

import (
	"strings"
	"time"

	"ms-calendar/internal/models"
)

// Filter keeps events matching the status filter and the customer name search.
// Both predicates must hold; an empty search matches everything.
func Filter(events []models.Event, status, search string) []models.Event {
	status = strings.TrimSpace(status)
	text := strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if status != "" && status != StatusAll && string(ev.Status) != status {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(ev.CustomerName), text) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

var statusColors = map[models.Status]string{
	models.StatusPending:   "#f59e0b",
	models.StatusConfirmed: "#10b981",
	models.StatusCompleted: "#3b82f6",
	models.StatusCancelled: "#ef4444",
}

const fallbackColor = "#6b7280"

func StatusColor(status models.Status) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return fallbackColor
}

// FormatDMY renders 2025-03-09 as 09/03/2025. Unparseable input is returned as is.
func FormatDMY(date models.Date) string {
	t, err := time.Parse(models.DateLayout, string(date))
	if err != nil {
		return string(date)
	}
	return t.Format("02/01/2006")
}

// TodayEvents lists the bookings dated today, excluding cancelled ones.
func TodayEvents(events []models.Event, today models.Date) []models.Event {
	var out []models.Event
	for _, ev := range events {
		if ev.Date == today && ev.Status != models.StatusCancelled {
			out = append(out, ev)
		}
	}
	return out
}

type Day struct {
	Date    models.Date
	InMonth bool
	Today   bool
	Events  []models.Event
}

// MonthGrid lays out the month containing focus as Sunday-first weeks,
// padding with days of the neighbouring months.
func MonthGrid(focus, today models.Date, events []models.Event) [][]Day {
	f := focus.Time()
	if f.IsZero() {
		f = today.Time()
	}
	first := time.Date(f.Year(), f.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, 6-int(last.Weekday()))

	byDate := make(map[models.Date][]models.Event)
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	var weeks [][]Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		week := make([]Day, 0, 7)
		for i := 0; i < 7; i++ {
			day := d.AddDate(0, 0, i)
			date := models.DateOf(day)
			week = append(week, Day{
				Date:    date,
				InMonth: day.Month() == first.Month(),
				Today:   date == today,
				Events:  byDate[date],
			})
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// MonthStart returns the first day of the month n months away from date.
func MonthStart(date models.Date, n int) models.Date {
	t := date.Time()
	if t.IsZero() {
		return date
	}
	return models.DateOf(time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}
