package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/redis/go-redis/v9"
)

// PendingAuthStore implements domain.PendingAuthStore using Redis, so a
// redirect started by one process can be finished by the next.
type PendingAuthStore struct {
	client *redis.Client
	prefix string
}

// NewPendingAuthStore creates a new [PendingAuthStore] instance.
func NewPendingAuthStore(client *redis.Client, prefix string) *PendingAuthStore {
	return &PendingAuthStore{client: client, prefix: prefix}
}

func (r *PendingAuthStore) key(state string) string {
	return fmt.Sprintf("%s:pending:%s", r.prefix, state)
}

// Put stores the pending authorization for ttl.
func (r *PendingAuthStore) Put(ctx context.Context, pending *domain.PendingAuth, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending auth: %w", err)
	}
	return r.client.Set(ctx, r.key(pending.State), data, ttl).Err()
}

// Take atomically reads and deletes the pending authorization for state.
func (r *PendingAuthStore) Take(ctx context.Context, state string) (*domain.PendingAuth, error) {
	val, err := r.client.GetDel(ctx, r.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take pending auth from Redis: %w", err)
	}

	var p domain.PendingAuth
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending auth: %w", err)
	}
	return &p, nil
}

var _ domain.PendingAuthStore = (*PendingAuthStore)(nil)
