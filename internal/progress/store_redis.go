package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-finance/internal/platform/cache"
)

// RedisStore keeps learner state in Redis/Dragonfly as JSON. Each save
// refreshes the key's TTL, so a session expires after ttl of inactivity.
type RedisStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(c *cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func sessionKey(id string) string {
	return cache.Key("session", id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*LearnerState, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}

	var state LearnerState
	ok, err := s.cache.GetJSON(ctx, sessionKey(id), &state)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !ok {
		return NewLearnerState(id), nil
	}
	return state.Clone(), nil
}

func (s *RedisStore) Save(ctx context.Context, state *LearnerState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if err := s.cache.SetJSON(ctx, sessionKey(state.ID), state, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}
