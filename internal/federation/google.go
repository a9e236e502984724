package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/pilab-dev/shadow-interview/domain"
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

var (
	GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"
	GoogleEndpoint         = googleOAuth2.Endpoint
)

// GoogleProvider implements the OAuth2Provider interface for Google.
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a GoogleProvider. The openid, profile and email
// scopes are always requested.
func NewGoogleProvider(idpConfig domain.IdPConfig) (*GoogleProvider, error) {
	if !idpConfig.Configured() {
		return nil, ErrProviderMisconfigured
	}
	if idpConfig.Name == "" {
		idpConfig.Name = domain.ProviderGoogle
	}
	if idpConfig.Type == "" {
		idpConfig.Type = domain.IdPTypeOIDC
	}
	if idpConfig.IssuerURL == "" {
		idpConfig.IssuerURL = "https://accounts.google.com"
	}

	scopes := slices.Clone(idpConfig.Scopes)
	for _, s := range []string{"openid", "profile", "email"} {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	idpConfig.Scopes = scopes

	return &GoogleProvider{
		BaseProvider: NewBaseProvider(idpConfig),
	}, nil
}

// GetOAuth2Config overrides BaseProvider's method to use Google's well-known endpoints.
func (g *GoogleProvider) GetOAuth2Config(redirectURL string) (*oauth2.Config, error) {
	if !g.Config.Configured() {
		return nil, ErrProviderMisconfigured
	}
	return &oauth2.Config{
		ClientID:     g.Config.ClientID,
		ClientSecret: g.Config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       g.Config.Scopes,
		Endpoint:     GoogleEndpoint,
	}, nil
}

func (g *GoogleProvider) GetAuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	return authCodeURL(g, state, redirectURL, opts...)
}

func (g *GoogleProvider) ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return exchangeCode(ctx, g, redirectURL, code, opts...)
}

// FetchUserInfo overrides BaseProvider's method to fetch user information from Google.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GoogleUserInfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from Google: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google user info response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(rawBody))
	}

	var rawUserInfo struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.Unmarshal(rawBody, &rawUserInfo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	if rawUserInfo.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrFetchUserInfoFailed)
	}

	var rawDataMap map[string]any
	_ = json.Unmarshal(rawBody, &rawDataMap)

	return &ExternalUserInfo{
		ProviderUserID: rawUserInfo.Sub,
		Email:          rawUserInfo.Email,
		EmailVerified:  rawUserInfo.EmailVerified,
		Name:           rawUserInfo.Name,
		FirstName:      rawUserInfo.GivenName,
		LastName:       rawUserInfo.FamilyName,
		PictureURL:     rawUserInfo.Picture,
		RawData:        rawDataMap,
	}, nil
}

// Ensure GoogleProvider implements OAuth2Provider.
var _ OAuth2Provider = (*GoogleProvider)(nil)
