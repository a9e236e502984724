package bolt

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	first, err := Open(path)
	require.NoError(t, err)
	acct := &domain.Account{Email: "Ann@X.com", PasswordHash: "hash", DisplayName: "Ann"}
	require.NoError(t, NewAccountRepository(first).CreateAccount(ctx, acct))
	require.NotEmpty(t, acct.UID)
	require.NoError(t, NewProfileRepository(first).CreateProfile(ctx, &domain.Profile{UID: acct.UID, Email: "Ann@X.com", DisplayName: "Ann"}))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	repo := NewAccountRepository(second)

	got, err := repo.GetAccountByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, acct.UID, got.UID)
	assert.Equal(t, "hash", got.PasswordHash, "the hash is stored even though JSON hides it")
	assert.True(t, got.HasPassword())

	profile, err := NewProfileRepository(second).GetProfile(ctx, acct.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.DisplayName)

	err = repo.CreateAccount(ctx, &domain.Account{Email: "ann@x.com"})
	assert.ErrorIs(t, err, serrors.ErrEmailAlreadyInUse)
}

func TestAccountRepository_Links(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(openStore(t, filepath.Join(t.TempDir(), "client.db")))
	link := domain.FederatedLink{Provider: domain.ProviderGoogle, Subject: "sub-1"}

	require.NoError(t, repo.CreateAccount(ctx, &domain.Account{UID: "a", Email: "a@x.com"}))
	require.NoError(t, repo.CreateAccount(ctx, &domain.Account{UID: "b", Email: "b@x.com"}))

	require.NoError(t, repo.AddLink(ctx, "a", link))
	require.NoError(t, repo.AddLink(ctx, "a", link))
	assert.ErrorIs(t, repo.AddLink(ctx, "b", link), serrors.ErrFederationFailed)
	assert.ErrorIs(t, repo.AddLink(ctx, "zzz", link), serrors.ErrUserNotFound)

	got, err := repo.GetAccountByLink(ctx, domain.ProviderGoogle, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("a"), got.UID)
	assert.Len(t, got.Links, 1)

	// A create that collides on the link writes nothing, not even its email.
	err = repo.CreateAccount(ctx, &domain.Account{UID: "c", Email: "c@x.com", Links: []domain.FederatedLink{link}})
	require.ErrorIs(t, err, serrors.ErrEmailAlreadyInUse)
	_, err = repo.GetAccountByEmail(ctx, "c@x.com")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLogin(ctx, "a", at))
	got, err = repo.GetAccountByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))

	require.NoError(t, repo.DeleteAccount(ctx, "a"))
	require.NoError(t, repo.DeleteAccount(ctx, "a"))
	_, err = repo.GetAccountByLink(ctx, domain.ProviderGoogle, "sub-1")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)
	assert.NoError(t, repo.CreateAccount(ctx, &domain.Account{UID: "d", Email: "a@x.com", Links: []domain.FederatedLink{link}}))
}

func TestProfileRepository_CreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openStore(t, filepath.Join(t.TempDir(), "client.db")))

	_, err := repo.GetProfile(ctx, "race")
	require.ErrorIs(t, err, serrors.ErrProfileNotFound)

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateProfile(ctx, &domain.Profile{UID: "race"})
			if err == nil {
				created.Add(1)
				return
			}
			assert.ErrorIs(t, err, serrors.ErrProfileExists)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
}
