package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
)

// PendingAuthStore implements domain.PendingAuthStore on a Store.
type PendingAuthStore struct {
	store *Store
}

// NewPendingAuthStore creates a PendingAuthStore.
func NewPendingAuthStore(store *Store) *PendingAuthStore {
	return &PendingAuthStore{store: store}
}

// Put stores the pending authorization for ttl.
func (r *PendingAuthStore) Put(_ context.Context, pending *domain.PendingAuth, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending auth: %w", err)
	}
	return r.store.put(pendingBucket, pending.State, data, r.store.now().Add(ttl))
}

// Take reads and deletes the pending authorization for state in one
// transaction.
func (r *PendingAuthStore) Take(_ context.Context, state string) (*domain.PendingAuth, error) {
	data, err := r.store.get(pendingBucket, state, true)
	if err != nil || data == nil {
		return nil, err
	}
	var p domain.PendingAuth
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending auth: %w", err)
	}
	return &p, nil
}

var _ domain.PendingAuthStore = (*PendingAuthStore)(nil)
