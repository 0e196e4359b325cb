// Package checkpoint records which batch items already produced an accepted
// document so an interrupted run can resume without redoing them.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks completed natural keys
type Store interface {
	// IsDone reports whether key has been marked done
	IsDone(ctx context.Context, key string) (bool, error)
	// MarkDone records key with the accepted document's ID. Marking an
	// already done key keeps the first document ID.
	MarkDone(ctx context.Context, key, docID string) error
}

// StoreError wraps a checkpoint backend failure
type StoreError struct {
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("checkpoint error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("checkpoint error: %s", e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu   sync.RWMutex
	done map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{done: make(map[string]string)}
}

func (m *MemoryStore) IsDone(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.done[key]
	return ok, nil
}

func (m *MemoryStore) MarkDone(ctx context.Context, key, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.done[key]; !ok {
		m.done[key] = docID
	}
	return nil
}

// DocumentID returns the document recorded for key
func (m *MemoryStore) DocumentID(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.done[key]
	return id, ok
}

// Len returns the number of completed keys
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.done)
}

// RedisStore keeps checkpoints in Redis under cvsynth:<run>:done:<key>
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and applies connection timeouts
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &StoreError{Message: "invalid redis url", Cause: err}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

// NewRedisStore creates a store scoped to runID. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, runID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "cvsynth:" + runID + ":done:",
		ttl:    ttl,
	}
}

// Ping tests the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &StoreError{Message: "redis unreachable", Cause: err}
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) IsDone(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, &StoreError{Message: "failed to check " + key, Cause: err}
	}
	return n > 0, nil
}

func (r *RedisStore) MarkDone(ctx context.Context, key, docID string) error {
	if err := r.client.SetNX(ctx, r.prefix+key, docID, r.ttl).Err(); err != nil {
		return &StoreError{Message: "failed to mark " + key, Cause: err}
	}
	return nil
}

// DocumentID returns the document recorded for key, or "" when key is not done
func (r *RedisStore) DocumentID(ctx context.Context, key string) (string, error) {
	id, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", &StoreError{Message: "failed to read " + key, Cause: err}
	}
	return id, nil
}
