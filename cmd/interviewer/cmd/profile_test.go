package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintProfile(t *testing.T) {
	p := &domain.Profile{
		UID:                "u1",
		Email:              "a@x.com",
		DisplayName:        "Ann",
		CreatedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SubscriptionStatus: domain.SubscriptionFree,
		AuthProvider:       domain.ProviderPassword,
	}

	var buf bytes.Buffer
	require.NoError(t, printProfile(&buf, p, "yaml"))
	assert.Contains(t, buf.String(), "displayName: Ann\n")
	assert.Contains(t, buf.String(), "subscriptionStatus: free\n")
	assert.NotContains(t, buf.String(), "photoURL")

	buf.Reset()
	require.NoError(t, printProfile(&buf, p, "json"))
	assert.Contains(t, buf.String(), `"displayName": "Ann"`)

	assert.Error(t, printProfile(&buf, p, "xml"))
}

func TestUserError(t *testing.T) {
	assert.NoError(t, userError(nil))

	err := userError(serrors.ErrInvalidCredential)
	assert.EqualError(t, err, "The supplied credentials are incorrect. (auth/invalid-credential)")

	err = userError(context.DeadlineExceeded)
	assert.ErrorContains(t, err, "try again")
}
