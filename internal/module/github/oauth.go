package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuthConfig configures the authorization-code exchange against GitHub's
// OAuth token endpoint.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
	CallTimeout  time.Duration
}

// OAuthClient performs the PKCE authorization-code exchange and fetches the
// authenticated user's profile. Each call is bounded by CallTimeout.
type OAuthClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Profile is the subset of the GitHub user profile the linker needs.
type Profile struct {
	Login string `json:"login"`
}

func NewOAuthClient(cfg OAuthConfig, logger *zap.Logger) *OAuthClient {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &OAuthClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
		logger:     logger,
	}
}

// ExchangeCode trades a one-time authorization code for an access token.
// The code_verifier completes the PKCE handshake; GitHub rejects reused or
// expired codes, which surfaces here as ErrExchangeFailed.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (string, error) {
	conf := &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     oauth2.Endpoint{TokenURL: c.cfg.TokenURL},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	tok, err := conf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: token exchange", ErrUpstreamTimeout)
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.logger.Warn("github token exchange rejected",
				zap.Int("status", retrieveErr.Response.StatusCode),
				zap.ByteString("body", retrieveErr.Body))
		}
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrExchangeFailed)
	}
	return tok.AccessToken, nil
}

// FetchProfile resolves the access token to the GitHub username it belongs to.
func (c *OAuthClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: profile fetch", ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("github profile fetch failed", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetchFailed, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProfileFetchFailed, err)
	}
	if profile.Login == "" {
		return nil, fmt.Errorf("%w: profile has no login", ErrProfileFetchFailed)
	}
	return &profile, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
