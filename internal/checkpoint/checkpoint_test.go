package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, runID string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, runID, time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	done, err := store.IsDone(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.MarkDone(ctx, "k1", "doc-a"))
	require.NoError(t, store.MarkDone(ctx, "k1", "doc-b"))

	done, err = store.IsDone(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, done)

	id, ok := store.DocumentID("k1")
	assert.True(t, ok)
	assert.Equal(t, "doc-a", id)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	_, err := store.IsDone(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.MarkDone(ctx, "k", "d"), context.Canceled)
}

func TestRedisStore_MarkAndCheck(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "run-1")
	require.NoError(t, store.Ping(ctx))

	done, err := store.IsDone(ctx, "informatiker-0")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.MarkDone(ctx, "informatiker-0", "doc-1"))
	require.NoError(t, store.MarkDone(ctx, "informatiker-0", "doc-2"))

	done, err = store.IsDone(ctx, "informatiker-0")
	require.NoError(t, err)
	assert.True(t, done)

	id, err := store.DocumentID(ctx, "informatiker-0")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	assert.True(t, mr.Exists("cvsynth:run-1:done:informatiker-0"))
	assert.Equal(t, time.Hour, mr.TTL("cvsynth:run-1:done:informatiker-0"))
}

func TestRedisStore_RunsAreIsolated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewRedisStore(client, "a", 0)
	b := NewRedisStore(client, "b", 0)
	require.NoError(t, a.MarkDone(ctx, "k", "doc"))

	done, err := b.IsDone(ctx, "k")
	require.NoError(t, err)
	assert.False(t, done)

	id, err := b.DocumentID(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRedisStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "run")
	mr.Close()

	_, err := store.IsDone(ctx, "k")
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "checkpoint error")
	assert.Error(t, store.MarkDone(ctx, "k", "d"))
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	assert.Equal(t, 5*time.Second, client.Options().DialTimeout)
	_ = client.Close()

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}
