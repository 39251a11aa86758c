package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabsphere/server/internal/module/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	identity *auth.Identity
	err      error
}

func (f *fakeVerifier) VerifyIDToken(string) (*auth.Identity, error) {
	return f.identity, f.err
}

func TestRequireAuth(t *testing.T) {
	newRouter := func(verifier TokenVerifier) *gin.Engine {
		router := gin.New()
		router.GET("/protected", RequireAuth(verifier), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"uid": GetUserID(c), "email": GetEmail(c)})
		})
		return router
	}

	t.Run("missing token", func(t *testing.T) {
		router := newRouter(&fakeVerifier{})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing ID token")
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		router := newRouter(&fakeVerifier{})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthorizationHeader, "Basic abc123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing ID token")
	})

	t.Run("invalid token", func(t *testing.T) {
		router := newRouter(&fakeVerifier{err: errors.New("bad signature")})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+"some-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid ID token")
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		router := newRouter(&fakeVerifier{identity: &auth.Identity{UID: "u1", Email: "u1@example.com"}})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+"some-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"uid":"u1"`)
		assert.Contains(t, rec.Body.String(), `"email":"u1@example.com"`)
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Body.String())
		assert.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", rec.Body.String())
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})
}

type fixedLimiter struct {
	allowed   bool
	remaining int
	err       error
}

func (f *fixedLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return f.allowed, f.err
}

func (f *fixedLimiter) GetRemaining(context.Context, string, int, time.Duration) (int, error) {
	return f.remaining, nil
}

func TestRateLimit(t *testing.T) {
	newRouter := func(limiter RateLimiter) *gin.Engine {
		router := gin.New()
		router.GET("/", RateLimitByIP(limiter, 10, time.Minute), func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("allowed request passes with headers", func(t *testing.T) {
		router := newRouter(&fixedLimiter{allowed: true, remaining: 9})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get(RateLimitLimit))
		assert.Equal(t, "9", rec.Header().Get(RateLimitRemaining))
	})

	t.Run("exhausted limit rejects", func(t *testing.T) {
		router := newRouter(&fixedLimiter{allowed: false, remaining: 0})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get(RetryAfter))
	})

	t.Run("limiter failure is fail-open", func(t *testing.T) {
		router := newRouter(&fixedLimiter{err: errors.New("redis down")})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil limiter disables limiting", func(t *testing.T) {
		router := newRouter(nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
