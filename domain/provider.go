package domain

import "context"

// AuthStateListener receives the current session, or nil when signed out.
type AuthStateListener func(*Session)

// IdentityProvider is the capability surface of the identity backend. It owns
// the session: the client core invokes these operations and observes the
// result through OnAuthStateChanged, it never writes session state itself.
type IdentityProvider interface {
	// CreateAccount registers a password account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (*Session, error)

	// Authenticate signs in an existing password account.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	// SignInWithIdP signs in (creating the account on first use) the user an
	// external provider vouched for.
	SignInWithIdP(ctx context.Context, ext *ExternalIdentity) (*Session, error)

	// SignOut invalidates the current session. Signing out with no session
	// succeeds.
	SignOut(ctx context.Context) error

	// OnAuthStateChanged registers a listener. The listener is called soon
	// after registration with the current value and then on every identity
	// change. The returned function removes the listener.
	OnAuthStateChanged(listener AuthStateListener) (unsubscribe func())

	// FinalizePendingRedirect completes a redirect-based federated sign-in if
	// the process was launched from one. It returns (nil, nil) when nothing is
	// pending.
	FinalizePendingRedirect(ctx context.Context) (*Session, error)

	// CurrentUser returns a snapshot of the current session.
	CurrentUser() *Session
}

// FederatedSignIn is the interactive half of a federated sign-in. Variants are
// selected once when the application is composed.
type FederatedSignIn interface {
	// Provider names the external provider ("google").
	Provider() string

	// SignIn runs the interactive flow and returns the established session.
	SignIn(ctx context.Context) (*Session, error)
}
