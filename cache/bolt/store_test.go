package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	first, err := Open(path)
	require.NoError(t, err)

	session := &domain.Session{
		UID:        "u1",
		Email:      "a@x.com",
		ProviderID: domain.ProviderPassword,
		ExpiresAt:  time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, NewSessionStore(first).Save(ctx, session))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	store := NewSessionStore(second)
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.UID, got.UID)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, store.Clear(ctx), "clearing twice is fine")
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))
	now := time.Now()
	s.now = func() time.Time { return now }
	store := NewSessionStore(s)

	require.NoError(t, store.Save(ctx, &domain.Session{UID: "u1", ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(2 * time.Minute)
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, &domain.Session{UID: "u2", ExpiresAt: now.Add(-time.Second)}))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "an already expired session is not stored")
}

func TestPendingAuthStore_TakeOnce(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))
	store := NewPendingAuthStore(s)

	pending := &domain.PendingAuth{State: "st-1", Provider: domain.ProviderGoogle, CodeVerifier: "v"}
	require.NoError(t, store.Put(ctx, pending, time.Minute))

	got, err := store.Take(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v", got.CodeVerifier)

	got, err = store.Take(ctx, "st-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Take(ctx, "never-issued")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPendingAuthStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))
	now := time.Now()
	s.now = func() time.Time { return now }
	store := NewPendingAuthStore(s)

	require.NoError(t, store.Put(ctx, &domain.PendingAuth{State: "st-1"}, time.Minute))
	now = now.Add(time.Minute)

	got, err := store.Take(ctx, "st-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
