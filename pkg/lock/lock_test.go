package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "term-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := locker.Acquire(ctx, "term-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocalLockerExpiry(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	locker.clock = func() time.Time { return now }
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := locker.Acquire(ctx, "term-1", time.Minute)
	require.NoError(t, err)

	// the expired holder must not release the new holder's lock
	require.NoError(t, stale(ctx))
	_, err = locker.Acquire(ctx, "term-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, fresh(ctx))
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "timetable-planner:lock:"), mr
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("timetable-planner:lock:timetable:term:term-1"))
	assert.Equal(t, time.Minute, mr.TTL("timetable-planner:lock:timetable:term:term-1"))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("timetable-planner:lock:timetable:term:term-1"))

	again, err := locker.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLockerConflictAcrossLockers(t *testing.T) {
	first, mr := newRedisLocker(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close() //nolint:errcheck
	second := NewRedisLocker(client, "timetable-planner:lock:")
	ctx := context.Background()

	release, err := first.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)

	_, err = second.Acquire(ctx, "timetable:term:term-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := second.Acquire(ctx, "timetable:term:term-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	taken, err := second.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, taken(ctx))
}

func TestRedisLockerStaleReleaseKeepsNewHolder(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()
	key := "timetable-planner:lock:timetable:term:term-1"

	stale, err := locker.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	require.False(t, mr.Exists(key))

	fresh, err := locker.Acquire(ctx, "timetable:term:term-1", time.Minute)
	require.NoError(t, err)
	token, err := mr.Get(key)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	current, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, token, current)

	_, err = locker.Acquire(ctx, "timetable:term:term-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists(key))
}

func TestRedisLockerBackendError(t *testing.T) {
	locker, mr := newRedisLocker(t)
	mr.SetError("ERR backend unavailable")

	_, err := locker.Acquire(context.Background(), "timetable:term:term-1", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
	assert.Contains(t, err.Error(), "acquire lock")
}
