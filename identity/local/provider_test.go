package local

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/cache"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/audit"
	"github.com/pilab-dev/shadow-interview/internal/auth"
	"github.com/pilab-dev/shadow-interview/internal/federation"
	"github.com/pilab-dev/shadow-interview/internal/federation/federationtest"
	"github.com/pilab-dev/shadow-interview/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "test-signing-key"

func TestMain(m *testing.M) {
	audit.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	accounts *memory.AccountRepository
	sessions *cache.MemorySessionStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := cache.NewMemorySessionStore()
	t.Cleanup(sessions.Close)
	return &fixture{accounts: memory.NewAccountRepository(), sessions: sessions}
}

func (f *fixture) config() Config {
	return Config{
		Accounts:   f.accounts,
		Sessions:   f.sessions,
		Hasher:     auth.NewBcryptPasswordHasher(bcrypt.MinCost),
		SigningKey: testKey,
		SessionTTL: time.Hour,
	}
}

func (f *fixture) provider(t *testing.T, mods ...func(*Config)) *Provider {
	t.Helper()
	cfg := f.config()
	for _, m := range mods {
		m(&cfg)
	}
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

type recorder struct {
	ch chan *domain.Session
}

func record(t *testing.T, p *Provider) *recorder {
	t.Helper()
	r := &recorder{ch: make(chan *domain.Session, 32)}
	unsubscribe := p.OnAuthStateChanged(func(s *domain.Session) { r.ch <- s })
	t.Cleanup(unsubscribe)
	return r
}

func (r *recorder) next(t *testing.T) *domain.Session {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth state emission")
		return nil
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.ch:
		t.Fatalf("unexpected emission: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)
	rec := record(t, p)
	assert.Nil(t, rec.next(t), "first emission is the signed-out state")

	s, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.UID)
	assert.Equal(t, domain.ProviderPassword, s.ProviderID)
	assert.NotEmpty(t, s.IDToken)
	assert.True(t, s.ExpiresAt.After(s.IssuedAt))

	emitted := rec.next(t)
	require.NotNil(t, emitted)
	assert.Equal(t, s.UID, emitted.UID)
	assert.Equal(t, s.UID, p.CurrentUser().UID)

	_, err = p.CreateAccount(ctx, "alice@example.com", "another1")
	assert.ErrorIs(t, err, serrors.ErrEmailAlreadyInUse)
	rec.none(t)
}

// failingSessions rejects Save while fail is set.
type failingSessions struct {
	*cache.MemorySessionStore
	fail bool
}

func (s *failingSessions) Save(ctx context.Context, session *domain.Session) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemorySessionStore.Save(ctx, session)
}

func TestCreateAccount_SessionFailureFreesEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sessions := &failingSessions{MemorySessionStore: f.sessions, fail: true}
	p := f.provider(t, func(c *Config) { c.Sessions = sessions })

	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.ErrorIs(t, err, serrors.ErrNetwork)
	assert.Nil(t, p.CurrentUser())

	_, err = f.accounts.GetAccountByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)

	sessions.fail = false
	s, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, s.UID, p.CurrentUser().UID)
}

func TestCreateAccount_Validation(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	for _, email := range []string{"", "not-an-email", "Alice <alice@example.com>", "a@"} {
		_, err := p.CreateAccount(ctx, email, "secret1")
		assert.ErrorIs(t, err, serrors.ErrInvalidEmail, email)
	}

	_, err := p.CreateAccount(ctx, "bob@example.com", "12345")
	assert.ErrorIs(t, err, serrors.ErrWeakPassword)
	assert.Nil(t, p.CurrentUser())
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	created, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	_, err = p.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, serrors.ErrInvalidCredential)
	assert.Nil(t, p.CurrentUser())

	_, err = p.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, serrors.ErrUserNotFound)

	s, err := p.Authenticate(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, s.UID)
	assert.NotEqual(t, created.SessionID, s.SessionID)
}

func TestAuthenticate_Lockout(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t, func(c *Config) {
		c.MaxFailedAttempts = 3
		c.LockoutWindow = time.Minute
	})

	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	for i := 0; i < 3; i++ {
		_, err = p.Authenticate(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, serrors.ErrInvalidCredential)
	}

	_, err = p.Authenticate(ctx, "ALICE@example.com", "secret1")
	assert.ErrorIs(t, err, serrors.ErrTooManyRequests)
	assert.False(t, serrors.From(err).Retryable())
}

func TestSignOut_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)
	rec := record(t, p)
	rec.next(t)

	require.NoError(t, p.SignOut(ctx), "signing out while signed out succeeds")
	rec.none(t)

	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, rec.next(t))

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, rec.next(t))
	require.NoError(t, p.SignOut(ctx))
	rec.none(t)
	assert.Nil(t, p.CurrentUser())
}

func TestRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.provider(t)
	s, err := first.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	first.Close()

	// A new process over the same stores starts signed in.
	second := f.provider(t)
	rec := record(t, second)
	restored := rec.next(t)
	require.NotNil(t, restored)
	assert.Equal(t, s.UID, restored.UID)
	assert.Equal(t, s.SessionID, restored.SessionID)
}

func TestDiscardsSessionOfUnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.provider(t)
	_, err := first.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	first.Close()

	// The account store did not survive the restart; the session did.
	f.accounts = memory.NewAccountRepository()
	second := f.provider(t)
	assert.Nil(t, second.CurrentUser())

	stored, err := f.sessions.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDiscardsTamperedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.sessions.Save(ctx, &domain.Session{
		UID:       "intruder",
		SessionID: "sid",
		IDToken:   "not-a-jwt",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	p := f.provider(t)
	assert.Nil(t, p.CurrentUser())

	stored, err := f.sessions.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDiscardsSessionSignedWithOtherKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.provider(t, func(c *Config) { c.SigningKey = "old-key" })
	_, err := first.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	first.Close()

	second := f.provider(t)
	assert.Nil(t, second.CurrentUser())
}

func TestRefreshSession_DoesNotEmit(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	s, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	rec := record(t, p)
	require.Equal(t, s.UID, rec.next(t).UID)

	refreshed, err := p.RefreshSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.UID, refreshed.UID)
	assert.NotEqual(t, s.SessionID, refreshed.SessionID)
	rec.none(t)

	assert.Equal(t, refreshed.SessionID, p.CurrentUser().SessionID)
}

func TestEmissionsFollowChangeOrder(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	a, err := p.CreateAccount(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	b, err := p.CreateAccount(ctx, "b@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	rec := record(t, p)
	assert.Nil(t, rec.next(t))

	_, err = p.Authenticate(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = p.Authenticate(ctx, "b@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	assert.Equal(t, a.UID, rec.next(t).UID)
	assert.Equal(t, b.UID, rec.next(t).UID)
	assert.Nil(t, rec.next(t))
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	ch := make(chan *domain.Session, 8)
	unsubscribe := p.OnAuthStateChanged(func(s *domain.Session) { ch <- s })
	<-ch

	unsubscribe()
	unsubscribe()

	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	select {
	case s := <-ch:
		t.Fatalf("emission after unsubscribe: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenerReceivesCopies(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)
	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	rec := record(t, p)
	s := rec.next(t)
	s.Email = "mallory@example.com"

	assert.Equal(t, "alice@example.com", p.CurrentUser().Email)
}

func TestSignInWithIdP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.provider(t)

	ext := &domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		Subject:       "g-1",
		Email:         "grace@example.com",
		EmailVerified: true,
		DisplayName:   "Grace",
		PhotoURL:      "https://example.com/g.png",
	}

	first, err := p.SignInWithIdP(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, first.ProviderID)
	assert.Equal(t, "Grace", first.DisplayName)
	assert.Equal(t, "https://example.com/g.png", first.PhotoURL)

	require.NoError(t, p.SignOut(ctx))
	again, err := p.SignInWithIdP(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, first.UID, again.UID, "the subject maps to a stable identity")

	_, err = p.SignInWithIdP(ctx, &domain.ExternalIdentity{Provider: domain.ProviderGoogle})
	assert.ErrorIs(t, err, serrors.ErrFederationFailed)
}

func TestSignInWithIdP_LinksVerifiedEmail(t *testing.T) {
	ctx := context.Background()
	p := newFixture(t).provider(t)

	pw, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	s, err := p.SignInWithIdP(ctx, &domain.ExternalIdentity{
		Provider: domain.ProviderGoogle, Subject: "g-alice", Email: "alice@example.com", EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, pw.UID, s.UID)

	_, err = p.SignInWithIdP(ctx, &domain.ExternalIdentity{
		Provider: domain.ProviderGoogle, Subject: "g-other", Email: "alice@example.com", EmailVerified: false,
	})
	assert.ErrorIs(t, err, serrors.ErrEmailAlreadyInUse)
}

func TestFinalizePendingRedirect_NothingPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.provider(t)
	s, err := p.FinalizePendingRedirect(ctx)
	assert.NoError(t, err)
	assert.Nil(t, s)

	idp := federationtest.NewServer(t)
	pending := cache.NewMemoryPendingAuthStore()
	t.Cleanup(pending.Close)
	flow := federation.NewRedirectFlow(idp.Provider(t), pending, "https://app.example.com/cb", 0)

	p = f.provider(t, func(c *Config) {
		c.Redirect = flow
		c.Navigation = domain.NewNavigationContext("https://app.example.com/")
	})
	s, err = p.FinalizePendingRedirect(ctx)
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestFinalizePendingRedirect_Completes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	idp := federationtest.NewServer(t)
	pending := cache.NewMemoryPendingAuthStore()
	t.Cleanup(pending.Close)
	flow := federation.NewRedirectFlow(idp.Provider(t), pending, "https://app.example.com/cb", 0)

	// The first process starts the round-trip.
	starter := f.provider(t, func(c *Config) { c.Redirect = flow })
	authURL, err := starter.BeginRedirect(ctx)
	require.NoError(t, err)
	callback, err := idp.Authorize(authURL)
	require.NoError(t, err)
	starter.Close()

	// The relaunched process finishes it exactly once.
	nav := domain.NewNavigationContext(callback)
	p := f.provider(t, func(c *Config) {
		c.Redirect = flow
		c.Navigation = nav
	})
	rec := record(t, p)
	assert.Nil(t, rec.next(t))

	s, err := p.FinalizePendingRedirect(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, domain.ProviderGoogle, s.ProviderID)
	assert.Equal(t, idp.Email, s.Email)
	assert.Equal(t, s.UID, rec.next(t).UID)

	s, err = p.FinalizePendingRedirect(ctx)
	assert.NoError(t, err)
	assert.Nil(t, s, "the navigation context is consumed")
}

func TestFinalizePendingRedirect_Failure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	idp := federationtest.NewServer(t)
	pending := cache.NewMemoryPendingAuthStore()
	t.Cleanup(pending.Close)
	flow := federation.NewRedirectFlow(idp.Provider(t), pending, "https://app.example.com/cb", 0)

	p := f.provider(t, func(c *Config) {
		c.Redirect = flow
		c.Navigation = domain.NewNavigationContext("https://app.example.com/cb?code=x&state=stale")
	})
	_, err := p.FinalizePendingRedirect(ctx)
	assert.ErrorIs(t, err, serrors.ErrFederationFailed)
	assert.Nil(t, p.CurrentUser())
}

func TestBeginRedirect_Unsupported(t *testing.T) {
	p := newFixture(t).provider(t)
	_, err := p.BeginRedirect(context.Background())
	assert.ErrorIs(t, err, serrors.ErrPlatformUnsupported)
}

func TestNew_RequiresStores(t *testing.T) {
	_, err := New(context.Background(), Config{SigningKey: testKey})
	assert.Error(t, err)

	f := newFixture(t)
	_, err = New(context.Background(), Config{Accounts: f.accounts, Sessions: f.sessions})
	assert.Error(t, err)
}
