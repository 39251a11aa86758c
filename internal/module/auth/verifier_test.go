package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "collabsphere",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "user@example.com",
	}
}

func TestVerifyIDToken(t *testing.T) {
	verifier := NewVerifier(&VerifierConfig{Secret: testSecret, Issuer: "collabsphere"})

	t.Run("valid token", func(t *testing.T) {
		identity, err := verifier.VerifyIDToken(signToken(t, testSecret, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.UID)
		assert.Equal(t, "user@example.com", identity.Email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := verifier.VerifyIDToken(signToken(t, "other-secret", validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := verifier.VerifyIDToken(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = nil
		_, err := verifier.VerifyIDToken(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims.Issuer = "someone-else"
		_, err := verifier.VerifyIDToken(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims()
		claims.Subject = ""
		_, err := verifier.VerifyIDToken(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.VerifyIDToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no issuer check when unconfigured", func(t *testing.T) {
		open := NewVerifier(&VerifierConfig{Secret: testSecret})
		claims := validClaims()
		claims.Issuer = "anything"
		_, err := open.VerifyIDToken(signToken(t, testSecret, claims))
		assert.NoError(t, err)
	})
}
