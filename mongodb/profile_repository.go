package mongodb

import (
	"context"
	"errors"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProfileRepository implements domain.ProfileRepository on the "users"
// collection. Documents are keyed by the identity's UID in _id, so the
// primary key index makes creation atomic.
type ProfileRepository struct {
	profiles *mongo.Collection
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		profiles: db.Collection(ProfilesCollection),
	}
}

// GetProfile implements domain.ProfileRepository.
func (r *ProfileRepository) GetProfile(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.profiles.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, serrors.ErrProfileNotFound
		}
		return nil, serrors.ErrProfileUnavailable.Wrap(err)
	}
	return &p, nil
}

// CreateProfile implements domain.ProfileRepository.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	if _, err := r.profiles.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return serrors.ErrProfileExists
		}
		return serrors.ErrProfileUnavailable.Wrap(err)
	}
	return nil
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
