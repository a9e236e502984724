//go:build mongodb

package mongodb

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/mongodb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository(t *testing.T) {
	db, cleanup := testutil.SetupTestMongoDB(t, "profile_repo_test")
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(db)

	_, err := repo.GetProfile(ctx, "u1")
	require.ErrorIs(t, err, serrors.ErrProfileNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &domain.Profile{
		UID:                "u1",
		Email:              "a@x.com",
		DisplayName:        "a",
		CreatedAt:          now,
		SubscriptionStatus: domain.SubscriptionFree,
	}
	require.NoError(t, repo.CreateProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, domain.SubscriptionFree, got.SubscriptionStatus)
	assert.True(t, now.Equal(got.CreatedAt))

	assert.ErrorIs(t, repo.CreateProfile(ctx, p), serrors.ErrProfileExists)
}

func TestProfileRepository_ConcurrentCreate(t *testing.T) {
	db, cleanup := testutil.SetupTestMongoDB(t, "profile_race_test")
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(db)

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.CreateProfile(ctx, &domain.Profile{UID: "race"}); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
}

func TestAccountRepository(t *testing.T) {
	db, cleanup := testutil.SetupTestMongoDB(t, "account_repo_test")
	defer cleanup()

	ctx := context.Background()
	repo, err := NewAccountRepository(ctx, db)
	require.NoError(t, err)

	acct := &domain.Account{Email: "Alice@Example.com", PasswordHash: "h"}
	require.NoError(t, repo.CreateAccount(ctx, acct))
	require.NotEmpty(t, acct.UID)

	err = repo.CreateAccount(ctx, &domain.Account{Email: "alice@example.com"})
	assert.ErrorIs(t, err, serrors.ErrEmailAlreadyInUse)

	got, err := repo.GetAccountByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, acct.UID, got.UID)

	link := domain.FederatedLink{Provider: domain.ProviderGoogle, Subject: "sub-1"}
	require.NoError(t, repo.AddLink(ctx, acct.UID, link))

	byLink, err := repo.GetAccountByLink(ctx, domain.ProviderGoogle, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, acct.UID, byLink.UID)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.TouchLogin(ctx, acct.UID, at))
	got, err = repo.GetAccountByID(ctx, acct.UID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))

	assert.ErrorIs(t, repo.TouchLogin(ctx, "missing", at), serrors.ErrUserNotFound)
	_, err = repo.GetAccountByLink(ctx, domain.ProviderGoogle, "nope")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)

	require.NoError(t, repo.DeleteAccount(ctx, acct.UID))
	require.NoError(t, repo.DeleteAccount(ctx, acct.UID))
	_, err = repo.GetAccountByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)
	assert.NoError(t, repo.CreateAccount(ctx, &domain.Account{Email: "alice@example.com"}))
}
