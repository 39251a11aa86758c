package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collabsphere/server/internal/module/auth"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for the verified caller id.
	UserIDKey = "user_id"
	// EmailKey is the context key for the verified caller email.
	EmailKey = "email"
)

// TokenVerifier validates an identity assertion and returns the caller identity.
type TokenVerifier interface {
	VerifyIDToken(token string) (*auth.Identity, error)
}

// RequireAuth returns a middleware that verifies the bearer identity assertion.
// On success it sets user_id and email in the context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing ID token"})
			return
		}

		identity, err := verifier.VerifyIDToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid ID token"})
			return
		}

		c.Set(UserIDKey, identity.UID)
		c.Set(EmailKey, identity.Email)

		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}

	return ""
}

// GetUserID returns the verified caller id from context, or "" if absent.
func GetUserID(c *gin.Context) string {
	if val, exists := c.Get(UserIDKey); exists {
		if uid, ok := val.(string); ok {
			return uid
		}
	}
	return ""
}

// GetEmail returns the verified caller email from context, or "" if absent.
func GetEmail(c *gin.Context) string {
	if val, exists := c.Get(EmailKey); exists {
		if email, ok := val.(string); ok {
			return email
		}
	}
	return ""
}
