package models

import "time"

// ReminderResult summarises one run of the reminder job.
type ReminderResult struct {
	Date       Date      `json:"date"`
	Matched    int       `json:"matched"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finishedAt"`
}

// NoOp reports a run that found nothing dated for the target day.
func (r ReminderResult) NoOp() bool {
	return r.Matched == 0
}
