package federation

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultPendingTTL bounds how long a redirect round-trip may take.
const DefaultPendingTTL = 10 * time.Minute

// RedirectFlow is the two-phase variant of the authorization-code flow: Begin
// records the pending round-trip and hands out the consent URL, and a later
// process finishes it from the URL the provider redirected back to.
type RedirectFlow struct {
	provider    OAuth2Provider
	store       domain.PendingAuthStore
	redirectURL string
	ttl         time.Duration
	now         func() time.Time
}

// NewRedirectFlow creates a RedirectFlow. A ttl of zero uses DefaultPendingTTL.
func NewRedirectFlow(provider OAuth2Provider, store domain.PendingAuthStore, redirectURL string, ttl time.Duration) *RedirectFlow {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &RedirectFlow{
		provider:    provider,
		store:       store,
		redirectURL: redirectURL,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Provider returns the name of the external provider.
func (f *RedirectFlow) Provider() string {
	return f.provider.Name()
}

// Begin stores a pending authorization and returns the URL to send the user to.
func (f *RedirectFlow) Begin(ctx context.Context) (string, error) {
	if f.redirectURL == "" {
		return "", fmt.Errorf("%w: redirect URL is not set", ErrProviderMisconfigured)
	}
	state, err := generateState()
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	authURL, err := f.provider.GetAuthCodeURL(state, f.redirectURL, oauth2.S256ChallengeOption(verifier))
	if err != nil {
		return "", err
	}

	pending := &domain.PendingAuth{
		State:        state,
		Provider:     f.provider.Name(),
		CodeVerifier: verifier,
		RedirectURL:  f.redirectURL,
		CreatedAt:    f.now().UTC(),
	}
	if err := f.store.Put(ctx, pending, f.ttl); err != nil {
		return "", fmt.Errorf("failed to store pending authorization: %w", err)
	}
	return authURL, nil
}

// Finish completes the round-trip described by callbackURL. It returns
// ErrNoPendingRedirect when the URL carries no authorization response, and
// ErrInvalidAuthState when the state is unknown, expired or already used.
func (f *RedirectFlow) Finish(ctx context.Context, callbackURL string) (*domain.ExternalIdentity, error) {
	if callbackURL == "" {
		return nil, ErrNoPendingRedirect
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, ErrNoPendingRedirect
	}
	q := u.Query()
	if !q.Has("state") && !q.Has("code") && !q.Has("error") {
		return nil, ErrNoPendingRedirect
	}

	state := q.Get("state")
	var pending *domain.PendingAuth
	if state != "" {
		// Consume the state before anything else so it can never be replayed.
		if pending, err = f.store.Take(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to load pending authorization: %w", err)
		}
	}
	if pending == nil {
		return nil, ErrInvalidAuthState
	}

	res := parseCallback(q.Get("error"), state, q.Get("code"), pending.State)
	if res.err != nil {
		return nil, res.err
	}

	log.Debug().Str("provider", pending.Provider).Msg("Finishing redirect sign-in")

	token, err := f.provider.ExchangeCode(ctx, pending.RedirectURL, res.code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeCodeFailed, err)
	}
	info, err := f.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.Identity(f.provider.Name()), nil
}
