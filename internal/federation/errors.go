package federation

import (
	"errors"

	serrors "github.com/pilab-dev/shadow-interview/errors"
)

var (
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrInvalidAuthState      = errors.New("invalid auth state parameter")
	ErrExchangeCodeFailed    = errors.New("failed to exchange authorization code for token")
	ErrFetchUserInfoFailed   = errors.New("failed to fetch user info from provider")
	ErrNoPendingRedirect     = errors.New("no pending redirect sign-in")
	ErrFlowCancelled         = errors.New("sign-in flow cancelled")
)

// ToAuthError maps a flow error onto the user-facing error vocabulary.
func ToAuthError(err error) error {
	if err == nil {
		return nil
	}
	var ae *serrors.AuthError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, ErrFlowCancelled):
		return serrors.ErrPopupClosed.Wrap(err)
	case errors.Is(err, ErrProviderMisconfigured):
		return serrors.ErrPlatformUnsupported.Wrap(err)
	case serrors.IsTransport(err):
		return serrors.ErrNetwork.Wrap(err)
	}
	return serrors.ErrFederationFailed.Wrap(err)
}
