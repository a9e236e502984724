package domain

import "time"

// FederatedLink ties an account to a subject at an external identity provider.
type FederatedLink struct {
	Provider string `bson:"provider" json:"provider"`
	Subject  string `bson:"subject" json:"subject"`
}

// Account is the identity provider's private credential record. The client
// core never reads it; only IdentityProvider implementations do.
type Account struct {
	UID          UserID          `bson:"_id" json:"uid"`
	Email        string          `bson:"email" json:"email"`
	PasswordHash string          `bson:"password_hash,omitempty" json:"-"`
	DisplayName  string          `bson:"display_name,omitempty" json:"displayName,omitempty"`
	PhotoURL     string          `bson:"photo_url,omitempty" json:"photoURL,omitempty"`
	Links        []FederatedLink `bson:"links,omitempty" json:"links,omitempty"`
	CreatedAt    time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updatedAt"`
	LastLoginAt  *time.Time      `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
}

// HasPassword reports whether the account can sign in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// ExternalIdentity is what a federated provider asserts about a user after a
// completed authorization round-trip.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
}

// PendingAuth is the provider-side record of a redirect round-trip in flight,
// keyed by its OAuth state parameter.
type PendingAuth struct {
	State        string    `json:"state"`
	Provider     string    `json:"provider"`
	CodeVerifier string    `json:"codeVerifier"`
	RedirectURL  string    `json:"redirectURL"`
	CreatedAt    time.Time `json:"createdAt"`
}
