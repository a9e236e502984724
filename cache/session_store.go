package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pilab-dev/shadow-interview/domain"
)

const currentSessionKey = "current"

// MemorySessionStore implements domain.SessionPersistence using ttlcache.
// The stored session expires with the session itself.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionStore creates an in-memory session store with automatic
// cleanup. Call Close to stop the cleanup goroutine.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)
	go cache.Start()

	return &MemorySessionStore{cache: cache}
}

// Save implements domain.SessionPersistence.
func (s *MemorySessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return s.Clear(ctx)
	}
	s.cache.Set(currentSessionKey, session.Clone(), ttl)
	return nil
}

// Load implements domain.SessionPersistence.
func (s *MemorySessionStore) Load(_ context.Context) (*domain.Session, error) {
	item := s.cache.Get(currentSessionKey)
	if item == nil {
		return nil, nil
	}
	return item.Value().Clone(), nil
}

// Clear implements domain.SessionPersistence.
func (s *MemorySessionStore) Clear(_ context.Context) error {
	s.cache.Delete(currentSessionKey)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() {
	s.cache.Stop()
}

var _ domain.SessionPersistence = (*MemorySessionStore)(nil)
