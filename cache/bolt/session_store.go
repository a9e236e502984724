package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pilab-dev/shadow-interview/domain"
)

const currentSessionKey = "current"

// SessionStore implements domain.SessionPersistence on a Store.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// Save stores the session until it expires.
func (r *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	if !session.ExpiresAt.After(r.store.now()) {
		return r.Clear(ctx)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.store.put(sessionBucket, currentSessionKey, data, session.ExpiresAt)
}

// Load returns the stored session, or nil when there is none.
func (r *SessionStore) Load(context.Context) (*domain.Session, error) {
	data, err := r.store.get(sessionBucket, currentSessionKey, false)
	if err != nil || data == nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Clear removes the stored session.
func (r *SessionStore) Clear(context.Context) error {
	return r.store.delete(sessionBucket, currentSessionKey)
}

var _ domain.SessionPersistence = (*SessionStore)(nil)
