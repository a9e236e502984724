package services

import (
	"context"
	"errors"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ProfileService is the profile store adapter: it keeps the store's error
// vocabulary to not-found, exists and unavailable.
type ProfileService struct {
	repo domain.ProfileRepository
}

// NewProfileService creates a ProfileService.
func NewProfileService(repo domain.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get returns the profile for uid.
func (s *ProfileService) Get(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	if uid == "" {
		return nil, serrors.ErrProfileNotFound
	}
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, storeError(err)
	}
	return p, nil
}

// Create stores a new profile. It fails with serrors.ErrProfileExists if one
// is already stored for the UID.
func (s *ProfileService) Create(ctx context.Context, p *domain.Profile) error {
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return storeError(err)
	}
	metrics.ProfilesCreatedTotal.WithLabelValues(p.AuthProvider).Inc()
	log.Info().Str("uid", p.UID.String()).Str("provider", p.AuthProvider).Msg("Profile created")
	return nil
}

// CreateIfAbsent stores p unless a profile already exists for its UID. It
// reports whether p was stored.
func (s *ProfileService) CreateIfAbsent(ctx context.Context, p *domain.Profile) (bool, error) {
	err := s.Create(ctx, p)
	if errors.Is(err, serrors.ErrProfileExists) {
		return false, nil
	}
	return err == nil, err
}

// storeError keeps typed store errors and treats anything else as the store
// being unreachable.
func storeError(err error) error {
	var ae *serrors.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return serrors.ErrProfileUnavailable.Wrap(err)
}
