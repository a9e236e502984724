package federation_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/cache"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/federation"
	"github.com/pilab-dev/shadow-interview/internal/federation/federationtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redirectURL = "https://app.example.com/auth/callback"

func newRedirectFlow(t *testing.T) (*federation.RedirectFlow, *federationtest.Server) {
	t.Helper()
	idp := federationtest.NewServer(t)
	store := cache.NewMemoryPendingAuthStore()
	t.Cleanup(store.Close)
	return federation.NewRedirectFlow(idp.Provider(t), store, redirectURL, 0), idp
}

func TestRedirectFlow_BeginAndFinish(t *testing.T) {
	ctx := context.Background()
	flow, idp := newRedirectFlow(t)

	authURL, err := flow.Begin(ctx)
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, redirectURL, u.Query().Get("redirect_uri"))
	assert.NotEmpty(t, u.Query().Get("state"))

	callback, err := idp.Authorize(authURL)
	require.NoError(t, err)

	ext, err := flow.Finish(ctx, callback)
	require.NoError(t, err)
	assert.Equal(t, idp.Subject, ext.Subject)

	// The state is single use.
	_, err = flow.Finish(ctx, callback)
	assert.ErrorIs(t, err, federation.ErrInvalidAuthState)
}

func TestRedirectFlow_FinishWithoutCallback(t *testing.T) {
	ctx := context.Background()
	flow, _ := newRedirectFlow(t)

	for _, launch := range []string{"", "https://app.example.com/", "::not a url"} {
		_, err := flow.Finish(ctx, launch)
		assert.ErrorIs(t, err, federation.ErrNoPendingRedirect, launch)
	}
}

func TestRedirectFlow_UnknownState(t *testing.T) {
	flow, _ := newRedirectFlow(t)
	_, err := flow.Finish(context.Background(), redirectURL+"?code=c&state=never-issued")
	assert.ErrorIs(t, err, federation.ErrInvalidAuthState)
}

func TestRedirectFlow_Denied(t *testing.T) {
	ctx := context.Background()
	flow, _ := newRedirectFlow(t)

	authURL, err := flow.Begin(ctx)
	require.NoError(t, err)
	u, _ := url.Parse(authURL)

	_, err = flow.Finish(ctx, redirectURL+"?error=access_denied&state="+u.Query().Get("state"))
	assert.ErrorIs(t, err, federation.ErrFlowCancelled)
}

func TestRedirectFlow_PendingExpires(t *testing.T) {
	ctx := context.Background()
	idp := federationtest.NewServer(t)
	store := cache.NewMemoryPendingAuthStore()
	t.Cleanup(store.Close)
	flow := federation.NewRedirectFlow(idp.Provider(t), store, redirectURL, 20*time.Millisecond)

	authURL, err := flow.Begin(ctx)
	require.NoError(t, err)
	callback, err := idp.Authorize(authURL)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = flow.Finish(ctx, callback)
	assert.ErrorIs(t, err, federation.ErrInvalidAuthState)
}

func TestRedirectFlow_RequiresRedirectURL(t *testing.T) {
	idp := federationtest.NewServer(t)
	store := cache.NewMemoryPendingAuthStore()
	t.Cleanup(store.Close)

	_, err := federation.NewRedirectFlow(idp.Provider(t), store, "", 0).Begin(context.Background())
	assert.ErrorIs(t, err, federation.ErrProviderMisconfigured)
}

func TestToAuthError(t *testing.T) {
	assert.Nil(t, federation.ToAuthError(nil))
	assert.ErrorIs(t, federation.ToAuthError(federation.ErrFlowCancelled), serrors.ErrPopupClosed)
	assert.ErrorIs(t, federation.ToAuthError(federation.ErrInvalidAuthState), serrors.ErrFederationFailed)
	assert.ErrorIs(t, federation.ToAuthError(federation.ErrProviderMisconfigured), serrors.ErrPlatformUnsupported)
	assert.ErrorIs(t, federation.ToAuthError(context.DeadlineExceeded), serrors.ErrNetwork)
	assert.Same(t, serrors.ErrTooManyRequests, federation.ToAuthError(serrors.ErrTooManyRequests))
}
