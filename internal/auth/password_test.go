package auth_test

import (
	"strings"
	"testing"

	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("pw123456")
	require.NoError(t, err)
	assert.NoError(t, hasher.Verify(hash, "pw123456"))

	t.Run("mismatch is an invalid credential", func(t *testing.T) {
		assert.ErrorIs(t, hasher.Verify(hash, "nope"), serrors.ErrInvalidCredential)
	})

	t.Run("too long password fails to hash", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("x", 73))
		assert.Error(t, err)
	})
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, auth.ValidatePassword("12345"), serrors.ErrWeakPassword)
	assert.NoError(t, auth.ValidatePassword("123456"))
	assert.Error(t, auth.ValidatePassword(strings.Repeat("x", 73)))
}
