package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"go.etcd.io/bbolt"
)

// ProfileRepository implements domain.ProfileRepository on a Store.
type ProfileRepository struct {
	store *Store
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// GetProfile implements domain.ProfileRepository.
func (r *ProfileRepository) GetProfile(_ context.Context, uid domain.UserID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(profileBucket)).Get([]byte(uid))
		if raw == nil {
			return serrors.ErrProfileNotFound
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("failed to unmarshal profile %s: %w", uid, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile implements domain.ProfileRepository. The existence check and
// the write share one transaction.
func (r *ProfileRepository) CreateProfile(_ context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(profileBucket))
		if b.Get([]byte(profile.UID)) != nil {
			return serrors.ErrProfileExists
		}
		return b.Put([]byte(profile.UID), data)
	})
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
