package oauth

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// StateTTL bounds how long a login may take between redirect and callback.
const StateTTL = 10 * time.Minute

const stateKeyPrefix = "oauth_state:"

// StateStore remembers issued OAuth states until their callback arrives.
type StateStore interface {
	Save(ctx context.Context, state, provider string, ttl time.Duration) error
	// Consume atomically removes state and returns the provider it was issued
	// for. ok is false for unknown or expired states.
	Consume(ctx context.Context, state string) (provider string, ok bool, err error)
}

// RedisStateStore keeps states in Redis under oauth_state:<state>.
type RedisStateStore struct {
	client redis.Cmdable
}

// NewRedisStateStore constructs a RedisStateStore.
func NewRedisStateStore(client redis.Cmdable) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// Save stores state once. A collision is reported as an error.
func (s *RedisStateStore) Save(ctx context.Context, state, provider string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, stateKeyPrefix+state, provider, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("oauth state already exists")
	}
	return nil
}

// Consume reads and deletes the state in one round trip.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, bool, error) {
	provider, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return provider, true, nil
}

// MemoryStateStore keeps states in process. It is used when Redis is not
// configured and only works for single-instance deployments.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryState
	now     func() time.Time
}

type memoryState struct {
	provider  string
	expiresAt time.Time
}

// NewMemoryStateStore constructs a MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{entries: make(map[string]memoryState), now: time.Now}
}

// Save stores state, pruning expired entries.
func (s *MemoryStateStore) Save(_ context.Context, state, provider string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	if _, exists := s.entries[state]; exists {
		return errors.New("oauth state already exists")
	}
	s.entries[state] = memoryState{provider: provider, expiresAt: now.Add(ttl)}
	return nil
}

// Consume removes state and reports whether it was still valid.
func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[state]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, state)
	if s.now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.provider, true, nil
}
