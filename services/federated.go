package services

import (
	"context"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/federation"
)

// PopupSignIn is the interactive federated sign-in: it runs the flow with the
// user and hands the vouched identity to the identity provider.
type PopupSignIn struct {
	flow InteractiveFlow
	idp  domain.IdentityProvider
}

// NewPopupSignIn creates a PopupSignIn.
func NewPopupSignIn(flow InteractiveFlow, idp domain.IdentityProvider) *PopupSignIn {
	return &PopupSignIn{flow: flow, idp: idp}
}

func (p *PopupSignIn) Provider() string { return p.flow.Provider() }

func (p *PopupSignIn) SignIn(ctx context.Context) (*domain.Session, error) {
	ext, err := p.flow.Run(ctx)
	if err != nil {
		return nil, federation.ToAuthError(err)
	}
	return p.idp.SignInWithIdP(ctx, ext)
}

// UnsupportedSignIn is selected where federated sign-in cannot work. It fails
// every call with serrors.ErrPlatformUnsupported and touches nothing.
type UnsupportedSignIn struct {
	provider string
}

// NewUnsupportedSignIn creates an UnsupportedSignIn for provider.
func NewUnsupportedSignIn(provider string) *UnsupportedSignIn {
	return &UnsupportedSignIn{provider: provider}
}

func (u *UnsupportedSignIn) Provider() string { return u.provider }

func (u *UnsupportedSignIn) SignIn(context.Context) (*domain.Session, error) {
	return nil, serrors.ErrPlatformUnsupported
}

var (
	_ domain.FederatedSignIn = (*PopupSignIn)(nil)
	_ domain.FederatedSignIn = (*UnsupportedSignIn)(nil)
)
