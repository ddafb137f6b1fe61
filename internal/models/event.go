package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every booking status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Event is a photography booking shown on the admin calendar.
type Event struct {
	bun.BaseModel `bun:"table:calendar_events"`

	ID            string     `bun:"id,pk" json:"id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Date          Date       `bun:"date,notnull" json:"date"`
	Status        Status     `bun:"status,notnull" json:"status"`
	CustomerName  string     `bun:"customer_name,notnull" json:"customerName"`
	CustomerPhone string     `bun:"customer_phone" json:"customerPhone"`
	Location      string     `bun:"location" json:"location"`
	CustomerEmail string     `bun:"customer_email" json:"customerEmail,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// EventAction names a mutation of the event store.
type EventAction string

const (
	EventCreated       EventAction = "created"
	EventUpdated       EventAction = "updated"
	EventStatusChanged EventAction = "status_changed"
	EventDeleted       EventAction = "deleted"
)

// EventChange is the notification emitted after a successful mutation.
type EventChange struct {
	Action     EventAction `json:"action"`
	EventID    string      `json:"eventId"`
	Event      *Event      `json:"event,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}
