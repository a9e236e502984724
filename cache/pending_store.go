package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pilab-dev/shadow-interview/domain"
)

// MemoryPendingAuthStore implements domain.PendingAuthStore using ttlcache.
// It only survives as long as the process, so redirect round-trips that
// restart the process need the Redis or bolt store.
type MemoryPendingAuthStore struct {
	cache *ttlcache.Cache[string, *domain.PendingAuth]
}

// NewMemoryPendingAuthStore creates an in-memory pending-auth store.
func NewMemoryPendingAuthStore() *MemoryPendingAuthStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.PendingAuth](),
	)
	go cache.Start()

	return &MemoryPendingAuthStore{cache: cache}
}

// Put implements domain.PendingAuthStore.
func (s *MemoryPendingAuthStore) Put(_ context.Context, pending *domain.PendingAuth, ttl time.Duration) error {
	p := *pending
	s.cache.Set(pending.State, &p, ttl)
	return nil
}

// Take implements domain.PendingAuthStore. A state can be taken once.
func (s *MemoryPendingAuthStore) Take(_ context.Context, state string) (*domain.PendingAuth, error) {
	item, found := s.cache.GetAndDelete(state)
	if !found || item == nil {
		return nil, nil
	}
	return item.Value(), nil
}

// Close stops the cleanup goroutine.
func (s *MemoryPendingAuthStore) Close() {
	s.cache.Stop()
}

var _ domain.PendingAuthStore = (*MemoryPendingAuthStore)(nil)
