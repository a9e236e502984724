package federation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pilab-dev/shadow-interview/domain"
	"golang.org/x/oauth2"
)

// ExternalUserInfo holds standardized user information retrieved from an external OAuth2 provider.
type ExternalUserInfo struct {
	ProviderUserID string // Unique ID of the user within the external provider (e.g., Google's 'sub')
	Email          string
	EmailVerified  bool
	Name           string
	FirstName      string
	LastName       string
	PictureURL     string
	RawData        map[string]any
}

// Identity converts the user info into what the identity provider consumes.
func (u *ExternalUserInfo) Identity(provider string) *domain.ExternalIdentity {
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return &domain.ExternalIdentity{
		Provider:      provider,
		Subject:       u.ProviderUserID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   name,
		PhotoURL:      u.PictureURL,
	}
}

// OAuth2Provider defines the interface for an external OAuth2 identity provider.
// Implementations of this interface will handle provider-specific details.
type OAuth2Provider interface {
	// Name returns the unique identifier for the provider (e.g., "google").
	Name() string

	// GetType returns the type of the provider (e.g. "OIDC").
	GetType() domain.IdPType

	// GetOAuth2Config returns the oauth2.Config for the given redirect URL.
	GetOAuth2Config(redirectURL string) (*oauth2.Config, error)

	// GetAuthCodeURL generates the authorization URL the user should be sent to.
	GetAuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error)

	// ExchangeCode exchanges an authorization code for an OAuth2 token.
	ExchangeCode(ctx context.Context, redirectURL string, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// FetchUserInfo uses an access token to retrieve user information from the provider.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error)
}

// BaseProvider provides a common structure and partial implementation for OAuth2Provider.
// Specific providers can embed this and override methods as needed.
type BaseProvider struct {
	Config domain.IdPConfig
}

func NewBaseProvider(idpConfig domain.IdPConfig) *BaseProvider {
	return &BaseProvider{Config: idpConfig}
}

func (b *BaseProvider) Name() string {
	return b.Config.Name
}

func (b *BaseProvider) GetType() domain.IdPType {
	return b.Config.Type
}

// GetOAuth2Config builds an oauth2.Config whose endpoints hang off the issuer
// URL. Providers with well-known endpoints override it.
func (b *BaseProvider) GetOAuth2Config(redirectURL string) (*oauth2.Config, error) {
	if !b.Config.Configured() || b.Config.IssuerURL == "" {
		return nil, ErrProviderMisconfigured
	}
	issuer := strings.TrimSuffix(b.Config.IssuerURL, "/")
	return &oauth2.Config{
		ClientID:     b.Config.ClientID,
		ClientSecret: b.Config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       b.Config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  issuer + "/auth",
			TokenURL: issuer + "/token",
		},
	}, nil
}

func (b *BaseProvider) GetAuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	return authCodeURL(b, state, redirectURL, opts...)
}

func (b *BaseProvider) ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return exchangeCode(ctx, b, redirectURL, code, opts...)
}

func (b *BaseProvider) FetchUserInfo(context.Context, *oauth2.Token) (*ExternalUserInfo, error) {
	return nil, errors.New("FetchUserInfo not implemented in BaseProvider; must be overridden")
}

// authCodeURL and exchangeCode are shared by providers that override
// GetOAuth2Config; Go embedding would otherwise call the base version.
func authCodeURL(p OAuth2Provider, state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	conf, err := p.GetOAuth2Config(redirectURL)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, opts...), nil
}

func exchangeCode(ctx context.Context, p OAuth2Provider, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	conf, err := p.GetOAuth2Config(redirectURL)
	if err != nil {
		return nil, err
	}
	return conf.Exchange(ctx, code, opts...)
}

func httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
}
