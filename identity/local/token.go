package local

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pilab-dev/shadow-interview/domain"
)

const tokenIssuer = "shadow-interview"

var ErrInvalidSessionToken = errors.New("invalid session token")

// sessionClaims is the payload of a session ID token.
type sessionClaims struct {
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// tokenSigner mints and checks HS256 session ID tokens.
type tokenSigner struct {
	key []byte
	now func() time.Time
}

func newTokenSigner(secretKey string, now func() time.Time) *tokenSigner {
	return &tokenSigner{key: []byte(secretKey), now: now}
}

func (s *tokenSigner) Sign(session *domain.Session) (string, error) {
	claims := sessionClaims{
		Email:    session.Email,
		Provider: session.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   session.UID.String(),
			ID:        session.SessionID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks a session against its own ID token. A persisted session whose
// token fails verification must not be restored.
func (s *tokenSigner) Verify(session *domain.Session) error {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(session.IDToken, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}
	if claims.Subject != session.UID.String() || claims.ID != session.SessionID {
		return fmt.Errorf("%w: token does not match session", ErrInvalidSessionToken)
	}
	return nil
}
