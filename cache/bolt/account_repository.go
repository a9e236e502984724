package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"go.etcd.io/bbolt"
)

// accountRecord is the stored form of an account. domain.Account keeps its
// password hash out of JSON.
type accountRecord struct {
	domain.Account
	PasswordHash string `json:"passwordHash,omitempty"`
}

// AccountRepository implements domain.AccountRepository on a Store. Email and
// link indexes live in their own buckets and change in the same transaction
// as the account.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func emailKey(email string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(email)))
}

func linkKey(l domain.FederatedLink) []byte {
	return []byte(l.Provider + "|" + l.Subject)
}

func putAccount(tx *bbolt.Tx, a *domain.Account) error {
	data, err := json.Marshal(accountRecord{Account: *a, PasswordHash: a.PasswordHash})
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	return tx.Bucket([]byte(accountBucket)).Put([]byte(a.UID), data)
}

func getAccount(tx *bbolt.Tx, uid []byte) (*domain.Account, error) {
	raw := tx.Bucket([]byte(accountBucket)).Get(uid)
	if raw == nil {
		return nil, serrors.ErrUserNotFound
	}
	var rec accountRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", uid, err)
	}
	rec.Account.PasswordHash = rec.PasswordHash
	return &rec.Account, nil
}

// CreateAccount implements domain.AccountRepository. A taken email or link
// fails the whole create.
func (r *AccountRepository) CreateAccount(_ context.Context, account *domain.Account) error {
	if account.UID == "" {
		account.UID = domain.UserID(uuid.NewString())
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	return r.store.db.Update(func(tx *bbolt.Tx) error {
		uid := []byte(account.UID)
		if key := emailKey(account.Email); len(key) > 0 {
			emails := tx.Bucket([]byte(emailBucket))
			if emails.Get(key) != nil {
				return serrors.ErrEmailAlreadyInUse
			}
			if err := emails.Put(key, uid); err != nil {
				return err
			}
		}
		links := tx.Bucket([]byte(linkBucket))
		for _, l := range account.Links {
			if owner := links.Get(linkKey(l)); owner != nil {
				return serrors.ErrEmailAlreadyInUse
			}
			if err := links.Put(linkKey(l), uid); err != nil {
				return err
			}
		}
		return putAccount(tx, account)
	})
}

// GetAccountByID implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByID(_ context.Context, uid domain.UserID) (*domain.Account, error) {
	var a *domain.Account
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		var err error
		a, err = getAccount(tx, []byte(uid))
		return err
	})
	return a, err
}

// GetAccountByEmail implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.lookup(emailBucket, emailKey(email))
}

// GetAccountByLink implements domain.AccountRepository.
func (r *AccountRepository) GetAccountByLink(_ context.Context, provider, subject string) (*domain.Account, error) {
	return r.lookup(linkBucket, linkKey(domain.FederatedLink{Provider: provider, Subject: subject}))
}

func (r *AccountRepository) lookup(index string, key []byte) (*domain.Account, error) {
	var a *domain.Account
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		uid := tx.Bucket([]byte(index)).Get(key)
		if uid == nil {
			return serrors.ErrUserNotFound
		}
		var err error
		a, err = getAccount(tx, uid)
		return err
	})
	return a, err
}

// AddLink implements domain.AccountRepository.
func (r *AccountRepository) AddLink(_ context.Context, uid domain.UserID, link domain.FederatedLink) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		a, err := getAccount(tx, []byte(uid))
		if err != nil {
			return err
		}
		links := tx.Bucket([]byte(linkBucket))
		if owner := links.Get(linkKey(link)); owner != nil {
			if domain.UserID(owner) != uid {
				return serrors.ErrFederationFailed
			}
			return nil
		}
		if err := links.Put(linkKey(link), []byte(uid)); err != nil {
			return err
		}
		a.Links = append(a.Links, link)
		a.UpdatedAt = time.Now().UTC()
		return putAccount(tx, a)
	})
}

// TouchLogin implements domain.AccountRepository.
func (r *AccountRepository) TouchLogin(_ context.Context, uid domain.UserID, at time.Time) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		a, err := getAccount(tx, []byte(uid))
		if err != nil {
			return err
		}
		t := at.UTC()
		a.LastLoginAt = &t
		return putAccount(tx, a)
	})
}

// DeleteAccount implements domain.AccountRepository.
func (r *AccountRepository) DeleteAccount(_ context.Context, uid domain.UserID) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		a, err := getAccount(tx, []byte(uid))
		if errors.Is(err, serrors.ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if key := emailKey(a.Email); len(key) > 0 {
			if err := tx.Bucket([]byte(emailBucket)).Delete(key); err != nil {
				return err
			}
		}
		links := tx.Bucket([]byte(linkBucket))
		for _, l := range a.Links {
			if err := links.Delete(linkKey(l)); err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(accountBucket)).Delete([]byte(uid))
	})
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
