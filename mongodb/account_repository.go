package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// emailCollation makes email comparisons case-insensitive. Queries must use
// the same collation as the unique index to be served by it.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// AccountRepository implements domain.AccountRepository.
type AccountRepository struct {
	accounts *mongo.Collection
}

// NewAccountRepository creates an AccountRepository and ensures its indexes.
func NewAccountRepository(ctx context.Context, db *mongo.Database) (*AccountRepository, error) {
	repo := &AccountRepository{
		accounts: db.Collection(AccountsCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *AccountRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(emailCollation).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "links.provider", Value: 1}, {Key: "links.subject", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"links.subject": bson.M{"$exists": true}}),
		},
	}

	if _, err := r.accounts.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for accounts collection: %w", err)
	}
	log.Debug().Msg("Indexes for accounts collection ensured.")
	return nil
}

// CreateAccount implements domain.AccountRepository.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account.UID == "" {
		account.UID = domain.UserID(uuid.NewString())
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if _, err := r.accounts.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return serrors.ErrEmailAlreadyInUse
		}
		return serrors.ErrNetwork.Wrap(err)
	}
	return nil
}

// GetAccountByID implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByID(ctx context.Context, uid domain.UserID) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

// GetAccountByEmail implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(emailCollation))
}

// GetAccountByLink implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByLink(ctx context.Context, provider, subject string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{
		"links": bson.M{"$elemMatch": bson.M{"provider": provider, "subject": subject}},
	})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.Account, error) {
	var a domain.Account
	if err := r.accounts.FindOne(ctx, filter, opts...).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, serrors.ErrUserNotFound
		}
		return nil, serrors.ErrNetwork.Wrap(err)
	}
	return &a, nil
}

// AddLink implements domain.AccountRepository.
func (r *AccountRepository) AddLink(ctx context.Context, uid domain.UserID, link domain.FederatedLink) error {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$addToSet": bson.M{"links": link},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return serrors.ErrFederationFailed.Wrap(err)
		}
		return serrors.ErrNetwork.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return serrors.ErrUserNotFound
	}
	return nil
}

// TouchLogin implements domain.AccountRepository.
func (r *AccountRepository) TouchLogin(ctx context.Context, uid domain.UserID, at time.Time) error {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{"last_login_at": at.UTC()}},
	)
	if err != nil {
		return serrors.ErrNetwork.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return serrors.ErrUserNotFound
	}
	return nil
}

// DeleteAccount implements domain.AccountRepository.
func (r *AccountRepository) DeleteAccount(ctx context.Context, uid domain.UserID) error {
	if _, err := r.accounts.DeleteOne(ctx, bson.M{"_id": uid}); err != nil {
		return serrors.ErrNetwork.Wrap(err)
	}
	return nil
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
