package services

//go:generate mockgen -source=interfaces.go -destination=mock_services/mock_interfaces.go -package=mock_services

import (
	"context"

	"github.com/pilab-dev/shadow-interview/domain"
)

// SessionSource is the part of the identity provider the observer needs.
type SessionSource interface {
	OnAuthStateChanged(listener domain.AuthStateListener) (unsubscribe func())
}

// RedirectStarter begins a redirect-style federated sign-in.
type RedirectStarter interface {
	BeginRedirect(ctx context.Context) (string, error)
}

// RedirectFinalizer drives a pending redirect sign-in to completion.
type RedirectFinalizer interface {
	FinalizePendingRedirect(ctx context.Context) (*domain.Session, error)
}

// InteractiveFlow runs a federated authorization round-trip with the user
// present.
type InteractiveFlow interface {
	Provider() string
	Run(ctx context.Context) (*domain.ExternalIdentity, error)
}
