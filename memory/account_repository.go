package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
)

// AccountRepository implements domain.AccountRepository in memory.
type AccountRepository struct {
	// mu serialises writers to byID; the index caches are atomic on their own.
	mu      sync.Mutex
	byID    *ttlcache.Cache[domain.UserID, domain.Account]
	byEmail *ttlcache.Cache[string, domain.UserID]
	byLink  *ttlcache.Cache[string, domain.UserID]
}

// NewAccountRepository creates an empty in-memory account store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    ttlcache.New[domain.UserID, domain.Account](),
		byEmail: ttlcache.New[string, domain.UserID](),
		byLink:  ttlcache.New[string, domain.UserID](),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func linkKey(provider, subject string) string {
	return provider + "|" + subject
}

// CreateAccount implements domain.AccountRepository.
func (r *AccountRepository) CreateAccount(_ context.Context, account *domain.Account) error {
	if account.UID == "" {
		account.UID = domain.UserID(uuid.NewString())
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	email := emailKey(account.Email)
	if email != "" {
		if _, found := r.byEmail.GetOrSet(email, account.UID); found {
			return serrors.ErrEmailAlreadyInUse
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID.Set(account.UID, cloneAccount(account), ttlcache.NoTTL)

	claimed := make([]string, 0, len(account.Links))
	for _, l := range account.Links {
		key := linkKey(l.Provider, l.Subject)
		if owner, found := r.byLink.GetOrSet(key, account.UID); found && owner.Value() != account.UID {
			// Another account owns the link: undo everything claimed so far.
			for _, k := range claimed {
				r.byLink.Delete(k)
			}
			r.byID.Delete(account.UID)
			if email != "" {
				r.byEmail.Delete(email)
			}
			return serrors.ErrEmailAlreadyInUse
		}
		claimed = append(claimed, key)
	}
	return nil
}

// GetAccountByID implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByID(_ context.Context, uid domain.UserID) (*domain.Account, error) {
	item := r.byID.Get(uid)
	if item == nil {
		return nil, serrors.ErrUserNotFound
	}
	a := item.Value()
	return &a, nil
}

// GetAccountByEmail implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	item := r.byEmail.Get(emailKey(email))
	if item == nil {
		return nil, serrors.ErrUserNotFound
	}
	return r.GetAccountByID(ctx, item.Value())
}

// GetAccountByLink implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByLink(ctx context.Context, provider, subject string) (*domain.Account, error) {
	item := r.byLink.Get(linkKey(provider, subject))
	if item == nil {
		return nil, serrors.ErrUserNotFound
	}
	return r.GetAccountByID(ctx, item.Value())
}

// AddLink implements domain.AccountRepository.
func (r *AccountRepository) AddLink(_ context.Context, uid domain.UserID, link domain.FederatedLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.byID.Get(uid)
	if item == nil {
		return serrors.ErrUserNotFound
	}
	if owner, found := r.byLink.GetOrSet(linkKey(link.Provider, link.Subject), uid); found && owner.Value() != uid {
		return serrors.ErrFederationFailed
	}

	a := item.Value()
	for _, l := range a.Links {
		if l == link {
			return nil
		}
	}
	a.Links = append(append([]domain.FederatedLink(nil), a.Links...), link)
	a.UpdatedAt = time.Now().UTC()
	r.byID.Set(uid, a, ttlcache.NoTTL)
	return nil
}

// TouchLogin implements domain.AccountRepository.
func (r *AccountRepository) TouchLogin(_ context.Context, uid domain.UserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.byID.Get(uid)
	if item == nil {
		return serrors.ErrUserNotFound
	}
	a := item.Value()
	t := at.UTC()
	a.LastLoginAt = &t
	r.byID.Set(uid, a, ttlcache.NoTTL)
	return nil
}

// DeleteAccount implements domain.AccountRepository.
func (r *AccountRepository) DeleteAccount(_ context.Context, uid domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.byID.Get(uid)
	if item == nil {
		return nil
	}
	a := item.Value()
	for _, l := range a.Links {
		key := linkKey(l.Provider, l.Subject)
		if owner := r.byLink.Get(key); owner != nil && owner.Value() == uid {
			r.byLink.Delete(key)
		}
	}
	if key := emailKey(a.Email); key != "" {
		if owner := r.byEmail.Get(key); owner != nil && owner.Value() == uid {
			r.byEmail.Delete(key)
		}
	}
	r.byID.Delete(uid)
	return nil
}

func cloneAccount(a *domain.Account) domain.Account {
	c := *a
	c.Links = append([]domain.FederatedLink(nil), a.Links...)
	return c
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
