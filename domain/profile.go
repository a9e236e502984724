package domain

import (
	"strings"
	"time"
)

// SubscriptionFree is the tier every new profile starts with.
const SubscriptionFree = "free"

// Profile is the application-owned document stored per identity in the
// "users" collection.
type Profile struct {
	UID                UserID    `bson:"_id" json:"uid" yaml:"uid"`
	Email              string    `bson:"email" json:"email" yaml:"email"`
	DisplayName        string    `bson:"display_name" json:"displayName" yaml:"displayName"`
	CreatedAt          time.Time `bson:"created_at" json:"createdAt" yaml:"createdAt"`
	SubscriptionStatus string    `bson:"subscription_status" json:"subscriptionStatus" yaml:"subscriptionStatus"`
	PhotoURL           string    `bson:"photo_url,omitempty" json:"photoURL,omitempty" yaml:"photoURL,omitempty"`
	AuthProvider       string    `bson:"auth_provider,omitempty" json:"authProvider,omitempty" yaml:"authProvider,omitempty"`
}

// DefaultDisplayName returns the local part of an email address. It is the
// fallback display name when none was supplied.
func DefaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// NewProfile builds the first profile record for a freshly established session.
func NewProfile(s *Session, displayName, authProvider string, now time.Time) *Profile {
	if displayName == "" {
		displayName = s.DisplayName
	}
	if displayName == "" {
		displayName = DefaultDisplayName(s.Email)
	}
	return &Profile{
		UID:                s.UID,
		Email:              s.Email,
		DisplayName:        displayName,
		CreatedAt:          now.UTC(),
		SubscriptionStatus: SubscriptionFree,
		PhotoURL:           s.PhotoURL,
		AuthProvider:       authProvider,
	}
}
