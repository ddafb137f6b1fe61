package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-calendar/internal/models"
)

// DB is the bun-backed event store. Now defaults to time.Now.
type DB struct {
	Bun *bun.DB
	Now func() time.Time
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, Now: time.Now}
}

func (d *DB) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", models.ErrInvalidID, id)
	}
	return nil
}

// Migrate creates the events table and its date index when missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Bun.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create calendar_events: %w", err)
	}
	if _, err := d.Bun.NewCreateIndex().
		Model((*models.Event)(nil)).
		Index("calendar_events_date_idx").
		Column("date").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create calendar_events date index: %w", err)
	}
	return nil
}

// ListEvents → every event, date ascending
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC", "created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListEventsByDate → events booked on exactly one day
func (d *DB) ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("date = ?", date).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent assigns the id and createdAt, then inserts.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) (string, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = d.now()
	event.UpdatedAt = nil
	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return "", err
	}
	return event.ID, nil
}

// UpdateEvent replaces every mutable field; created_at is never written.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event) (int64, error) {
	if err := checkID(event.ID); err != nil {
		return 0, err
	}
	now := d.now()
	event.UpdatedAt = &now
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "date", "status", "customer_name", "customer_phone", "location", "customer_email", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return matched(res)
}

// UpdateEventStatus touches only status and updated_at.
func (d *DB) UpdateEventStatus(ctx context.Context, id string, status models.Status) (int64, error) {
	if err := checkID(id); err != nil {
		return 0, err
	}
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", d.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return matched(res)
}

// DeleteEvent reports 0 for an id that is already gone.
func (d *DB) DeleteEvent(ctx context.Context, id string) (int64, error) {
	if err := checkID(id); err != nil {
		return 0, err
	}
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func matched(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, models.ErrNotFound
	}
	return n, nil
}
