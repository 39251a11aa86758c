package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is a verified caller identity extracted from an ID token.
type Identity struct {
	UID   string
	Email string
}

// Claims represents the ID token claims issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// VerifierConfig holds token verification configuration.
type VerifierConfig struct {
	Secret string
	Issuer string
}

// Verifier validates identity assertions. It is a stateless check; every
// state-mutating operation passes through it before touching any record.
type Verifier struct {
	config *VerifierConfig
}

// NewVerifier creates a new identity token verifier.
func NewVerifier(config *VerifierConfig) *Verifier {
	return &Verifier{config: config}
}

// VerifyIDToken validates the assertion signature, expiry and issuer, and
// returns the caller identity.
func (v *Verifier) VerifyIDToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidTokenClaims
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{
		UID:   claims.Subject,
		Email: claims.Email,
	}, nil
}
