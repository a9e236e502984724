package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/metrics"
	"github.com/pilab-dev/shadow-interview/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AuthGateway is the credential gateway. Every operation returns a
// domain.Result; failures carry an *serrors.AuthError and nothing panics past
// it.
type AuthGateway struct {
	idp       domain.IdentityProvider
	profiles  *ProfileService
	federated domain.FederatedSignIn
	redirect  RedirectStarter
	now       func() time.Time
}

// NewAuthGateway creates an AuthGateway. redirect may be nil, in which case
// BeginGoogleRedirect reports the platform as unsupported.
func NewAuthGateway(
	idp domain.IdentityProvider,
	profiles *ProfileService,
	federated domain.FederatedSignIn,
	redirect RedirectStarter,
) *AuthGateway {
	return &AuthGateway{
		idp:       idp,
		profiles:  profiles,
		federated: federated,
		redirect:  redirect,
		now:       time.Now,
	}
}

// SignUp creates a password account and its profile. The profile is written
// only after the session exists; if that write fails the result is a failure
// but the session stays.
func (g *AuthGateway) SignUp(ctx context.Context, email, password, displayName string) domain.Result[*domain.Session] {
	res := run(ctx, "SignUp", func(ctx context.Context) (*domain.Session, error) {
		s, err := g.idp.CreateAccount(ctx, email, password)
		if err != nil {
			return nil, err
		}
		profile := domain.NewProfile(s, displayName, domain.ProviderPassword, g.now())
		if err := g.profiles.Create(ctx, profile); err != nil {
			log.Error().Err(err).Str("uid", s.UID.String()).Msg("Session created but profile write failed")
			return s, err
		}
		return s, nil
	})
	metrics.SignUpTotal.WithLabelValues(metrics.Outcome(res.Err)).Inc()
	return res
}

// SignIn authenticates a password account. It has no profile side effect.
func (g *AuthGateway) SignIn(ctx context.Context, email, password string) domain.Result[*domain.Session] {
	res := run(ctx, "SignIn", func(ctx context.Context) (*domain.Session, error) {
		return g.idp.Authenticate(ctx, email, password)
	})
	metrics.SignInTotal.WithLabelValues(domain.ProviderPassword, metrics.Outcome(res.Err)).Inc()
	return res
}

// LogOut ends the current session. It succeeds when nobody is signed in.
func (g *AuthGateway) LogOut(ctx context.Context) domain.Result[struct{}] {
	return run(ctx, "LogOut", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.idp.SignOut(ctx)
	})
}

// SignInWithGoogle runs the federated sign-in chosen at composition and
// creates the profile on first use.
func (g *AuthGateway) SignInWithGoogle(ctx context.Context) domain.Result[*domain.Session] {
	res := run(ctx, "SignInWithGoogle", func(ctx context.Context) (*domain.Session, error) {
		s, err := g.federated.SignIn(ctx)
		if err != nil {
			return nil, err
		}
		profile := domain.NewProfile(s, "", g.federated.Provider(), g.now())
		created, err := g.profiles.CreateIfAbsent(ctx, profile)
		if err != nil {
			log.Error().Err(err).Str("uid", s.UID.String()).Msg("Session created but profile write failed")
			return s, err
		}
		log.Debug().Str("uid", s.UID.String()).Bool("profile_created", created).Msg("Federated sign-in complete")
		return s, nil
	})
	metrics.SignInTotal.WithLabelValues(g.federated.Provider(), metrics.Outcome(res.Err)).Inc()
	return res
}

// BeginGoogleRedirect starts the redirect variant of federated sign-in and
// returns the URL to open. The sign-in completes in the process the provider
// redirects back to.
func (g *AuthGateway) BeginGoogleRedirect(ctx context.Context) domain.Result[string] {
	return run(ctx, "BeginGoogleRedirect", func(ctx context.Context) (string, error) {
		if g.redirect == nil {
			return "", serrors.ErrPlatformUnsupported
		}
		return g.redirect.BeginRedirect(ctx)
	})
}

// GetUserProfile reads a profile. A missing record fails with kind not_found,
// distinct from the store being unreachable.
func (g *AuthGateway) GetUserProfile(ctx context.Context, uid domain.UserID) domain.Result[*domain.Profile] {
	return run(ctx, "GetUserProfile", func(ctx context.Context) (*domain.Profile, error) {
		return g.profiles.Get(ctx, uid)
	})
}

// CurrentUser is a snapshot of the provider's session. Routing must follow
// the session observer instead.
func (g *AuthGateway) CurrentUser() *domain.Session {
	return g.idp.CurrentUser()
}

// run executes op inside a span and converts its outcome into a Result. A
// failed op keeps its value, so a session created before a profile failure is
// still reported to the caller.
func run[T any](ctx context.Context, name string, op func(context.Context) (T, error)) (res domain.Result[T]) {
	ctx, span := tracing.Tracer().Start(ctx, "AuthGateway."+name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("op", name).Msg("Recovered panic in auth gateway")
			res = domain.Result[T]{Err: serrors.ErrInternal.Wrap(fmt.Errorf("panic: %v", r))}
		}
		if res.Err != nil {
			ae := serrors.From(res.Err)
			res.Err = ae
			span.RecordError(ae)
			span.SetAttributes(attribute.String("auth.error_code", ae.Code))
			span.SetStatus(codes.Error, ae.Code)
			log.Debug().Str("op", name).Str("code", ae.Code).Msg("Auth operation failed")
		}
	}()

	v, err := op(ctx)
	if err != nil {
		return domain.Result[T]{Value: v, Err: err}
	}
	return domain.Ok(v)
}
