package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOAuthUpstream mimics GitHub's token and user endpoints. Authorization
// codes are single use, like GitHub's.
type fakeOAuthUpstream struct {
	mu    sync.Mutex
	codes map[string]string // code -> token
	users map[string]string // token -> login

	lastVerifier string
	lastRedirect string
}

func (f *fakeOAuthUpstream) tokenHandler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVerifier = r.FormValue("code_verifier")
	f.lastRedirect = r.FormValue("redirect_uri")

	code := r.FormValue("code")
	token, ok := f.codes[code]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		// GitHub reports OAuth errors with a 200 and an error field.
		json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
		return
	}
	delete(f.codes, code)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (f *fakeOAuthUpstream) userHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	auth := r.Header.Get("Authorization")
	for token, login := range f.users {
		if auth == "Bearer "+token {
			json.NewEncoder(w).Encode(map[string]string{"login": login})
			return
		}
	}
	w.WriteHeader(http.StatusUnauthorized)
}

func newOAuthFixture(t *testing.T) (*OAuthClient, *fakeOAuthUpstream) {
	t.Helper()
	upstream := &fakeOAuthUpstream{
		codes: map[string]string{"code-1": "tok-1"},
		users: map[string]string{"tok-1": "alice"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", upstream.tokenHandler)
	mux.HandleFunc("/user", upstream.userHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewOAuthClient(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIBaseURL:   srv.URL,
		CallTimeout:  2 * time.Second,
	}, zap.NewNop())
	return client, upstream
}

func TestOAuthExchangeCode(t *testing.T) {
	t.Run("passes verifier and redirect through", func(t *testing.T) {
		client, upstream := newOAuthFixture(t)

		token, err := client.ExchangeCode(context.Background(), "code-1", "https://app/cb", "verifier-123")
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, "verifier-123", upstream.lastVerifier)
		assert.Equal(t, "https://app/cb", upstream.lastRedirect)
	})

	t.Run("reused code fails", func(t *testing.T) {
		client, _ := newOAuthFixture(t)

		_, err := client.ExchangeCode(context.Background(), "code-1", "https://app/cb", "v")
		require.NoError(t, err)

		_, err = client.ExchangeCode(context.Background(), "code-1", "https://app/cb", "v")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})

	t.Run("unknown code fails", func(t *testing.T) {
		client, _ := newOAuthFixture(t)

		_, err := client.ExchangeCode(context.Background(), "nope", "https://app/cb", "v")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})
}

func TestOAuthFetchProfile(t *testing.T) {
	t.Run("resolves login", func(t *testing.T) {
		client, _ := newOAuthFixture(t)

		profile, err := client.FetchProfile(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", profile.Login)
	})

	t.Run("invalid token", func(t *testing.T) {
		client, _ := newOAuthFixture(t)

		_, err := client.FetchProfile(context.Background(), "bogus")
		assert.ErrorIs(t, err, ErrProfileFetchFailed)
	})
}
