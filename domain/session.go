package domain

import "time"

// UserID is the opaque, stable identifier the identity provider issues for an
// account. It is the join key into the profile store.
type UserID string

// String implements fmt.Stringer.
func (id UserID) String() string { return string(id) }

// Provider IDs recorded on sessions and profiles.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Session is the provider-issued representation of the authenticated user.
// Only an IdentityProvider constructs sessions; everything else copies them.
type Session struct {
	UID         UserID    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	ProviderID  string    `json:"providerId"`
	SessionID   string    `json:"sessionId"`
	IDToken     string    `json:"idToken,omitempty"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Clone returns a copy of the session, or nil for a nil receiver.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SameIdentity reports whether a and b describe the same signed-in identity.
// Two nil sessions are the same ("signed out").
func SameIdentity(a, b *Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}
