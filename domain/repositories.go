package domain

import (
	"context"
	"time"
)

// ProfileRepository persists profile records keyed by UserID.
type ProfileRepository interface {
	// GetProfile returns serrors.ErrProfileNotFound when no record exists.
	GetProfile(ctx context.Context, uid UserID) (*Profile, error)

	// CreateProfile stores a new record. It returns serrors.ErrProfileExists
	// if one already exists for the UID.
	CreateProfile(ctx context.Context, profile *Profile) error
}

// AccountRepository persists identity-provider accounts.
type AccountRepository interface {
	// CreateAccount returns serrors.ErrEmailAlreadyInUse for a taken email.
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByID(ctx context.Context, uid UserID) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByLink(ctx context.Context, provider, subject string) (*Account, error)
	AddLink(ctx context.Context, uid UserID, link FederatedLink) error
	TouchLogin(ctx context.Context, uid UserID, at time.Time) error
	// DeleteAccount removes the account and frees its email and links.
	// Deleting a missing account is not an error.
	DeleteAccount(ctx context.Context, uid UserID) error
}

// SessionPersistence keeps the provider's current session across process
// restarts.
type SessionPersistence interface {
	Save(ctx context.Context, session *Session) error
	// Load returns (nil, nil) when no session is stored or it has expired.
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}

// PendingAuthStore holds redirect round-trips in flight.
type PendingAuthStore interface {
	Put(ctx context.Context, pending *PendingAuth, ttl time.Duration) error
	// Take returns and removes the record for state. It returns
	// (nil, nil) when the state is unknown or expired.
	Take(ctx context.Context, state string) (*PendingAuth, error)
}
