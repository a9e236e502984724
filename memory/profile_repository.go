package memory

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
)

// ProfileRepository implements domain.ProfileRepository in memory. Records
// never expire.
type ProfileRepository struct {
	profiles *ttlcache.Cache[domain.UserID, domain.Profile]
}

// NewProfileRepository creates an empty in-memory profile store.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: ttlcache.New[domain.UserID, domain.Profile](),
	}
}

// GetProfile implements domain.ProfileRepository.
func (r *ProfileRepository) GetProfile(_ context.Context, uid domain.UserID) (*domain.Profile, error) {
	item := r.profiles.Get(uid)
	if item == nil {
		return nil, serrors.ErrProfileNotFound
	}
	p := item.Value()
	return &p, nil
}

// CreateProfile implements domain.ProfileRepository. Creation is atomic: of
// two concurrent creates for one UID exactly one succeeds.
func (r *ProfileRepository) CreateProfile(_ context.Context, profile *domain.Profile) error {
	if _, found := r.profiles.GetOrSet(profile.UID, *profile); found {
		return serrors.ErrProfileExists
	}
	return nil
}

// Len returns the number of stored profiles.
func (r *ProfileRepository) Len() int {
	return r.profiles.Len()
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
