// Package local is a self-hosted identity provider: password and federated
// accounts, a persisted current session and auth-state notifications.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/audit"
	"github.com/pilab-dev/shadow-interview/internal/auth"
	"github.com/pilab-dev/shadow-interview/internal/federation"
	"github.com/rs/zerolog/log"
)

const auditService = "identity"

// DefaultSessionTTL is used when Config.SessionTTL is zero.
const DefaultSessionTTL = 30 * 24 * time.Hour

// RedirectFlow is the two-phase federated flow the provider finishes on
// behalf of a process launched from a provider redirect.
type RedirectFlow interface {
	Provider() string
	Begin(ctx context.Context) (string, error)
	Finish(ctx context.Context, callbackURL string) (*domain.ExternalIdentity, error)
}

// Config wires a Provider.
type Config struct {
	Accounts   domain.AccountRepository
	Sessions   domain.SessionPersistence
	Hasher     auth.PasswordHasher // bcrypt when nil
	SigningKey string
	SessionTTL time.Duration

	// Redirect and Navigation are optional. Without them
	// FinalizePendingRedirect always reports nothing pending.
	Redirect   RedirectFlow
	Navigation *domain.NavigationContext

	MaxFailedAttempts int
	LockoutWindow     time.Duration

	Now func() time.Time
}

// Provider implements domain.IdentityProvider.
type Provider struct {
	accounts   domain.AccountRepository
	sessions   domain.SessionPersistence
	hasher     auth.PasswordHasher
	signer     *tokenSigner
	ttl        time.Duration
	redirect   RedirectFlow
	navigation *domain.NavigationContext
	lockout    *lockout
	now        func() time.Time

	mu          sync.Mutex
	current     *domain.Session
	subscribers map[uint64]*subscriber
	nextID      uint64
	dispatch    *dispatcher
	closed      bool
}

// New creates a Provider and restores the persisted session, if any.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Accounts == nil || cfg.Sessions == nil {
		return nil, errors.New("identity: account and session stores are required")
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("identity: signing key is required")
	}
	if cfg.Hasher == nil {
		cfg.Hasher = auth.NewBcryptPasswordHasher(0)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	p := &Provider{
		accounts:    cfg.Accounts,
		sessions:    cfg.Sessions,
		hasher:      cfg.Hasher,
		signer:      newTokenSigner(cfg.SigningKey, cfg.Now),
		ttl:         cfg.SessionTTL,
		redirect:    cfg.Redirect,
		navigation:  cfg.Navigation,
		lockout:     newLockout(cfg.MaxFailedAttempts, cfg.LockoutWindow),
		now:         cfg.Now,
		subscribers: map[uint64]*subscriber{},
		dispatch:    newDispatcher(),
	}

	if err := p.restore(ctx); err != nil {
		p.dispatch.stop()
		return nil, err
	}
	return p, nil
}

func (p *Provider) restore(ctx context.Context) error {
	s, err := p.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("identity: failed to load persisted session: %w", err)
	}
	if s == nil {
		return nil
	}
	if err := p.signer.Verify(s); err != nil {
		log.Warn().Err(err).Str("uid", s.UID.String()).Msg("Discarding persisted session")
		return p.sessions.Clear(ctx)
	}
	if _, err := p.accounts.GetAccountByID(ctx, s.UID); err != nil {
		if !errors.Is(err, serrors.ErrUserNotFound) {
			return fmt.Errorf("identity: failed to look up account of persisted session: %w", err)
		}
		log.Warn().Str("uid", s.UID.String()).Msg("Discarding persisted session of unknown account")
		return p.sessions.Clear(ctx)
	}
	log.Debug().Str("uid", s.UID.String()).Msg("Restored persisted session")
	p.current = s
	return nil
}

// CreateAccount implements domain.IdentityProvider.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Session, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, serrors.ErrInternal.Wrap(err)
	}

	acct := &domain.Account{Email: email, PasswordHash: hash}
	if err := p.accounts.CreateAccount(ctx, acct); err != nil {
		audit.Log(auditService, audit.ActionSignUp, "", email, domain.ProviderPassword, false, err)
		return nil, err
	}

	s, err := p.establish(ctx, acct, domain.ProviderPassword)
	audit.Log(auditService, audit.ActionSignUp, acct.UID.String(), email, domain.ProviderPassword, err == nil, err)
	if err != nil {
		// Free the email so the sign-up can be retried.
		if derr := p.accounts.DeleteAccount(context.WithoutCancel(ctx), acct.UID); derr != nil {
			log.Error().Err(derr).Str("uid", acct.UID.String()).Msg("Failed to remove account after sign-up failed")
		}
		return nil, err
	}
	return s, nil
}

// Authenticate implements domain.IdentityProvider.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*domain.Session, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if p.lockout.Locked(email) {
		audit.Log(auditService, audit.ActionSignIn, "", email, "locked", false, serrors.ErrTooManyRequests)
		return nil, serrors.ErrTooManyRequests
	}

	acct, err := p.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serrors.ErrUserNotFound) {
			p.fail(email)
		}
		audit.Log(auditService, audit.ActionSignIn, "", email, domain.ProviderPassword, false, err)
		return nil, err
	}

	if !acct.HasPassword() {
		err = serrors.ErrInvalidCredential
	} else {
		err = p.hasher.Verify(acct.PasswordHash, password)
	}
	if err != nil {
		if errors.Is(err, serrors.ErrInvalidCredential) {
			p.fail(email)
		} else {
			err = serrors.ErrInternal.Wrap(err)
		}
		audit.Log(auditService, audit.ActionSignIn, acct.UID.String(), email, domain.ProviderPassword, false, err)
		return nil, err
	}

	p.lockout.Reset(email)
	s, err := p.establish(ctx, acct, domain.ProviderPassword)
	audit.Log(auditService, audit.ActionSignIn, acct.UID.String(), email, domain.ProviderPassword, err == nil, err)
	return s, err
}

func (p *Provider) fail(email string) {
	if p.lockout.Fail(email) {
		log.Warn().Str("email", email).Msg("Too many failed sign-in attempts; account temporarily locked")
		audit.Log(auditService, audit.ActionLockout, "", email, "", true, nil)
	}
}

// SignInWithIdP implements domain.IdentityProvider. The account is found by
// provider subject, then by verified email (linking it), and is created
// otherwise.
func (p *Provider) SignInWithIdP(ctx context.Context, ext *domain.ExternalIdentity) (*domain.Session, error) {
	if ext == nil || ext.Provider == "" || ext.Subject == "" {
		return nil, serrors.ErrFederationFailed
	}

	acct, err := p.resolveFederated(ctx, ext)
	if err != nil {
		audit.Log(auditService, audit.ActionFederated, "", ext.Email, ext.Provider, false, err)
		return nil, err
	}
	if acct.DisplayName == "" {
		acct.DisplayName = ext.DisplayName
	}
	if acct.PhotoURL == "" {
		acct.PhotoURL = ext.PhotoURL
	}

	s, err := p.establish(ctx, acct, ext.Provider)
	audit.Log(auditService, audit.ActionFederated, acct.UID.String(), ext.Email, ext.Provider, err == nil, err)
	return s, err
}

func (p *Provider) resolveFederated(ctx context.Context, ext *domain.ExternalIdentity) (*domain.Account, error) {
	acct, err := p.accounts.GetAccountByLink(ctx, ext.Provider, ext.Subject)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, serrors.ErrUserNotFound) {
		return nil, err
	}

	link := domain.FederatedLink{Provider: ext.Provider, Subject: ext.Subject}

	if ext.Email != "" {
		existing, err := p.accounts.GetAccountByEmail(ctx, ext.Email)
		switch {
		case err == nil && ext.EmailVerified:
			if err := p.accounts.AddLink(ctx, existing.UID, link); err != nil {
				return nil, err
			}
			existing.Links = append(existing.Links, link)
			return existing, nil
		case err == nil:
			// An unverified address must not take over an existing account.
			return nil, serrors.ErrEmailAlreadyInUse
		case !errors.Is(err, serrors.ErrUserNotFound):
			return nil, err
		}
	}

	acct = &domain.Account{
		Email:       ext.Email,
		DisplayName: ext.DisplayName,
		PhotoURL:    ext.PhotoURL,
		Links:       []domain.FederatedLink{link},
	}
	if err := p.accounts.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, serrors.ErrEmailAlreadyInUse) {
			// Lost a race with a concurrent first sign-in of the same user.
			return p.accounts.GetAccountByLink(ctx, ext.Provider, ext.Subject)
		}
		return nil, err
	}
	return acct, nil
}

// SignOut implements domain.IdentityProvider.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.sessions.Clear(ctx); err != nil {
		return serrors.ErrNetwork.Wrap(err)
	}
	prev := p.setCurrent(nil)
	if prev != nil {
		audit.Log(auditService, audit.ActionSignOut, prev.UID.String(), prev.Email, prev.ProviderID, true, nil)
	}
	return nil
}

// RefreshSession re-issues the ID token of the current session. The identity
// does not change, so listeners are not notified.
func (p *Provider) RefreshSession(ctx context.Context) (*domain.Session, error) {
	cur := p.CurrentUser()
	if cur == nil {
		return nil, nil
	}
	acct := &domain.Account{UID: cur.UID, Email: cur.Email, DisplayName: cur.DisplayName, PhotoURL: cur.PhotoURL}
	return p.establish(ctx, acct, cur.ProviderID)
}

// OnAuthStateChanged implements domain.IdentityProvider.
func (p *Provider) OnAuthStateChanged(listener domain.AuthStateListener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return func() {}
	}

	p.nextID++
	sub := &subscriber{id: p.nextID, listener: listener}
	sub.active.Store(true)
	p.subscribers[sub.id] = sub

	p.dispatch.enqueue(emission{session: p.current.Clone(), targets: []*subscriber{sub}})

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			p.mu.Lock()
			delete(p.subscribers, sub.id)
			p.mu.Unlock()
		})
	}
}

// FinalizePendingRedirect implements domain.IdentityProvider.
func (p *Provider) FinalizePendingRedirect(ctx context.Context) (*domain.Session, error) {
	launchURL := p.navigation.Take()
	if launchURL == "" || p.redirect == nil {
		return nil, nil
	}

	ext, err := p.redirect.Finish(ctx, launchURL)
	if err != nil {
		if errors.Is(err, federation.ErrNoPendingRedirect) {
			return nil, nil
		}
		return nil, federation.ToAuthError(err)
	}
	return p.SignInWithIdP(ctx, ext)
}

// BeginRedirect starts a redirect-style federated sign-in and returns the URL
// to send the user to.
func (p *Provider) BeginRedirect(ctx context.Context) (string, error) {
	if p.redirect == nil {
		return "", serrors.ErrPlatformUnsupported
	}
	authURL, err := p.redirect.Begin(ctx)
	audit.Log(auditService, audit.ActionRedirectBegin, "", "", p.redirect.Provider(), err == nil, err)
	if err != nil {
		return "", federation.ToAuthError(err)
	}
	return authURL, nil
}

// CurrentUser implements domain.IdentityProvider.
func (p *Provider) CurrentUser() *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// Close stops notification delivery. It must not be called from a listener.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, s := range p.subscribers {
		s.active.Store(false)
	}
	p.subscribers = map[uint64]*subscriber{}
	p.mu.Unlock()

	p.dispatch.stop()
}

// establish mints a session for acct, persists it and makes it current.
func (p *Provider) establish(ctx context.Context, acct *domain.Account, providerID string) (*domain.Session, error) {
	now := p.now().UTC()
	s := &domain.Session{
		UID:         acct.UID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		PhotoURL:    acct.PhotoURL,
		ProviderID:  providerID,
		SessionID:   uuid.NewString(),
		IssuedAt:    now,
		ExpiresAt:   now.Add(p.ttl),
	}

	token, err := p.signer.Sign(s)
	if err != nil {
		return nil, serrors.ErrInternal.Wrap(err)
	}
	s.IDToken = token

	if err := p.sessions.Save(ctx, s); err != nil {
		return nil, serrors.ErrNetwork.Wrap(err)
	}

	if err := p.accounts.TouchLogin(ctx, acct.UID, now); err != nil {
		log.Warn().Err(err).Str("uid", acct.UID.String()).Msg("Failed to record last login")
	}

	p.setCurrent(s)
	return s.Clone(), nil
}

// setCurrent swaps the current session and notifies subscribers when the
// identity changed. It returns the previous session.
func (p *Provider) setCurrent(s *domain.Session) *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.current
	p.current = s.Clone()
	if domain.SameIdentity(prev, s) {
		return prev
	}

	targets := make([]*subscriber, 0, len(p.subscribers))
	for _, sub := range p.subscribers {
		targets = append(targets, sub)
	}
	p.dispatch.enqueue(emission{session: p.current.Clone(), targets: targets})
	return prev
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", serrors.ErrInvalidEmail
	}
	return email, nil
}

var _ domain.IdentityProvider = (*Provider)(nil)
