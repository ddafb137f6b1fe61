package redis

import (
	"context"
	"fmt"
	"time"

	"ms-calendar/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const reminderLockKey = "calendar:reminder:lock"

// RunLock serialises reminder runs across instances. The TTL bounds how long a
// crashed run can hold it.
type RunLock struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{Client: client, TTL: ttl}
}

// Acquire returns a release func, or models.ErrReminderRunning when another run holds the lock.
func (l *RunLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, reminderLockKey, token, l.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire reminder lock: %w", err)
	}
	if !ok {
		return nil, models.ErrReminderRunning
	}
	return func() { l.release(token) }, nil
}

// release only deletes the key while it still carries our token.
func (l *RunLock) release(token string) {
	ctx := context.Background()
	val, err := l.Client.Get(ctx, reminderLockKey).Result()
	if err != nil {
		return
	}
	if val == token {
		l.Client.Del(ctx, reminderLockKey)
	}
}
