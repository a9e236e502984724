package domain

// IdPType defines the type of the external identity provider.
type IdPType string

const (
	IdPTypeOIDC IdPType = "OIDC"
)

// IdPConfig holds the OAuth client registration for an external provider.
type IdPConfig struct {
	Name         string   `mapstructure:"name" json:"name"` // "google"
	Type         IdPType  `mapstructure:"type" json:"type"`
	ClientID     string   `mapstructure:"client_id" json:"client_id"`
	ClientSecret string   `mapstructure:"client_secret" json:"-"`
	IssuerURL    string   `mapstructure:"issuer_url" json:"issuer_url,omitempty"`
	Scopes       []string `mapstructure:"scopes" json:"scopes,omitempty"`
}

// Configured reports whether the registration carries client credentials.
func (c *IdPConfig) Configured() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}
