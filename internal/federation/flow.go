package federation

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultFlowTimeout = 5 * time.Minute

// LoopbackFlow runs an interactive authorization-code flow with PKCE. It
// serves the redirect on a loopback port and opens the system browser at the
// provider's consent page, the command-line equivalent of a sign-in popup.
type LoopbackFlow struct {
	provider OAuth2Provider
	port     int
	timeout  time.Duration
	openURL  func(url string) error
}

// LoopbackOption configures a LoopbackFlow.
type LoopbackOption func(*LoopbackFlow)

// WithBrowserOpener replaces the system browser launcher.
func WithBrowserOpener(open func(url string) error) LoopbackOption {
	return func(f *LoopbackFlow) { f.openURL = open }
}

// WithFlowTimeout bounds how long Run waits for the callback.
func WithFlowTimeout(d time.Duration) LoopbackOption {
	return func(f *LoopbackFlow) { f.timeout = d }
}

// NewLoopbackFlow creates a flow for provider listening on port (0 picks a
// free port).
func NewLoopbackFlow(provider OAuth2Provider, port int, opts ...LoopbackOption) *LoopbackFlow {
	f := &LoopbackFlow{
		provider: provider,
		port:     port,
		timeout:  defaultFlowTimeout,
		openURL:  browser.OpenURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider returns the name of the external provider.
func (f *LoopbackFlow) Provider() string {
	return f.provider.Name()
}

type callbackResult struct {
	code string
	err  error
}

// Run performs one complete round-trip and returns the identity the provider
// vouched for. Closing the browser tab without finishing leaves Run waiting
// until ctx is done or the timeout passes; both yield ErrFlowCancelled.
func (f *LoopbackFlow) Run(ctx context.Context) (*domain.ExternalIdentity, error) {
	state, err := generateState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	redirectURL := fmt.Sprintf("http://%s/callback", ln.Addr().String())

	results := make(chan callbackResult, 1)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/callback", f.handleCallback(state, results))

	srv := &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shutdown OAuth callback server")
		}
	}()

	authURL, err := f.provider.GetAuthCodeURL(state, redirectURL, oauth2.S256ChallengeOption(verifier))
	if err != nil {
		return nil, err
	}

	log.Debug().Str("provider", f.provider.Name()).Str("redirect_url", redirectURL).Msg("Opening browser for sign-in")
	if err := f.openURL(authURL); err != nil {
		log.Warn().Err(err).Str("url", authURL).Msg("Failed to open browser; open the URL manually")
	}

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrFlowCancelled, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: timed out waiting for callback", ErrFlowCancelled)
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := f.provider.ExchangeCode(ctx, redirectURL, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeCodeFailed, err)
	}
	info, err := f.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.Identity(f.provider.Name()), nil
}

func (f *LoopbackFlow) handleCallback(state string, results chan<- callbackResult) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := parseCallback(c.QueryParam("error"), c.QueryParam("state"), c.QueryParam("code"), state)
		deliver(results, res)
		if res.err != nil {
			return c.HTML(http.StatusBadRequest, resultPage("Sign-in failed", html.EscapeString(res.err.Error())))
		}
		return c.HTML(http.StatusOK, resultPage("Sign-in complete", "You can close this window and return to the terminal."))
	}
}

// parseCallback validates the query of an authorization response.
func parseCallback(errParam, gotState, code, wantState string) callbackResult {
	switch {
	case errParam == "access_denied":
		return callbackResult{err: ErrFlowCancelled}
	case errParam != "":
		return callbackResult{err: fmt.Errorf("%w: provider returned %s", ErrExchangeCodeFailed, errParam)}
	case gotState == "" || gotState != wantState:
		return callbackResult{err: ErrInvalidAuthState}
	case code == "":
		return callbackResult{err: fmt.Errorf("%w: missing authorization code", ErrExchangeCodeFailed)}
	}
	return callbackResult{code: code}
}

// deliver keeps only the first result; later callbacks are ignored.
func deliver(ch chan<- callbackResult, res callbackResult) {
	select {
	case ch <- res:
	default:
	}
}

func resultPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body style="font-family: sans-serif; text-align: center; margin: 40px;">
<h1>%[1]s</h1>
<p>%[2]s</p>
</body>
</html>`, title, message)
}
