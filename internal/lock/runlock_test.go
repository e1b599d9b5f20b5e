//go:build integration

// Run-lock tests exercise a real Redis instance, matching the teacher's
// delta-engine test style (tests/unit/delta/engine_test.go), which also
// prefers a real dependency over a mock for this kind of state check.
package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestAcquireAndRelease(t *testing.T) {
	client := newTestClient(t)
	defer client.Del(context.Background(), lockKey)

	l := New(client, 5*time.Second)
	ctx := context.Background()

	handle, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error acquiring lock: %v", err)
	}

	if _, err := l.Acquire(ctx); err == nil {
		t.Fatal("expected second acquire to fail while lock is held")
	}

	if err := l.Release(ctx, handle); err != nil {
		t.Fatalf("unexpected error releasing lock: %v", err)
	}

	if _, err := l.Acquire(ctx); err != nil {
		t.Fatalf("expected acquire to succeed after release: %v", err)
	}
}

func TestReleaseDoesNotStealAnotherHolder(t *testing.T) {
	client := newTestClient(t)
	defer client.Del(context.Background(), lockKey)

	l := New(client, 1*time.Second)
	ctx := context.Background()

	first, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // let the TTL expire

	second, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("expected second acquire after TTL expiry: %v", err)
	}

	// Releasing the stale first handle must not remove the second holder's key.
	if err := l.Release(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := client.Get(ctx, lockKey).Result()
	if err != nil {
		t.Fatalf("expected lock key to still be present: %v", err)
	}
	_ = second
	if val == "" {
		t.Fatal("expected second holder's token to remain")
	}
}
