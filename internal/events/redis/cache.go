package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-redis/redis/v8"
)

const eventsKey = "calendar:events:all"

// Cache keeps the full event list as one JSON value. Any mutation drops it.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

func (c *Cache) GetEvents(ctx context.Context) ([]models.Event, bool, error) {
	raw, err := c.Client.Get(ctx, eventsKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		// corrupt entry, treat as a miss and let the next fill overwrite it
		c.Logger.Warn("CACHE", fmt.Sprintf("Discarding unreadable %s: %v", eventsKey, err))
		return nil, false, nil
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, true, nil
}

func (c *Cache) SetEvents(ctx context.Context, events []models.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return c.Client.Set(ctx, eventsKey, raw, c.TTL).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, eventsKey).Err()
}
