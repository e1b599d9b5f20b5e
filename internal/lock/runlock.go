// Package lock implements the Redis-backed run-exclusivity guard described
// in the concurrency model: at most one pipeline run may execute against
// the persistence backend at a time. Built on redis/go-redis/v9, the same
// client the teacher already depends on for its delta cache
// (internal/delta/engine.go) and its writer's stream publishing
// (internal/writer/writer.go), repurposed here for mutual exclusion rather
// than caching or pub/sub.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/boompicks/pickengine/internal/domain"
)

const lockKey = "boompicks:run:lock"

// RunLock guards RunOnce invocations with a TTL-bounded Redis key so a
// crashed runner does not wedge future runs indefinitely.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

// Handle is returned by Acquire and must be passed to Release.
type Handle struct {
	token string
}

// Acquire attempts to take the run lock, returning a Handle on success or a
// LOCK_UNAVAILABLE error if another run currently holds it.
func (l *RunLock) Acquire(ctx context.Context) (*Handle, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, domain.ErrTransport("acquire run lock", err)
	}
	if !ok {
		return nil, domain.ErrLockUnavailable("a pipeline run is already in progress")
	}
	return &Handle{token: token}, nil
}

// Release drops the lock, but only if it is still held by this handle's
// token — a check-then-delete guard against releasing a lock some other
// runner has since acquired after this one's TTL expired.
func (l *RunLock) Release(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	current, err := l.client.Get(ctx, lockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return domain.ErrTransport("release run lock", err)
	}
	if current != h.token {
		// Someone else's lock now; nothing to do.
		return nil
	}
	if err := l.client.Del(ctx, lockKey).Err(); err != nil {
		return domain.ErrTransport("release run lock", err)
	}
	return nil
}
