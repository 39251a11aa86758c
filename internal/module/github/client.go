package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/collabsphere/server/internal/utils/metrics"
)

// Repository is a provisioned GitHub repository as reported by the API.
type Repository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// ClientConfig configures the authenticated GitHub REST client.
type ClientConfig struct {
	APIBaseURL  string
	CallTimeout time.Duration
}

// maxResponseBytes caps how much of an upstream response body is read.
const maxResponseBytes = 1 << 20

// Client calls the GitHub REST API on behalf of a linked user. Transport
// failures feed a circuit breaker so a GitHub outage fails fast instead of
// holding request handlers for the full timeout.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg ClientConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "github-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:     logger,
		metrics:    m,
	}
}

// CreateRepository creates a repository under the token owner's account.
func (c *Client) CreateRepository(ctx context.Context, accessToken, name, description string, private bool) (*Repository, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"private":     private,
	}

	status, payload, err := c.do(ctx, http.MethodPost, "/user/repos", accessToken, body, "create_repo")
	if err != nil {
		return nil, err
	}

	if status != http.StatusCreated {
		c.logger.Error("github repository creation rejected",
			zap.Int("status", status),
			zap.ByteString("body", payload))
		return nil, fmt.Errorf("%w: status %d", ErrRepoCreateFailed, status)
	}

	var repo Repository
	if err := json.Unmarshal(payload, &repo); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRepoCreateFailed, err)
	}
	return &repo, nil
}

// AddCollaborator invites a username to the repository with push permission.
// GitHub answers 201 for a new invitation and 204 when the user already has
// access; both count as success here. A 422 naming an existing collaborator
// maps to ErrAlreadyCollaborator, a 404 to ErrRepoNotFoundOrForbidden.
func (c *Client) AddCollaborator(ctx context.Context, accessToken, repoFullName, username string) error {
	path := fmt.Sprintf("/repos/%s/collaborators/%s", repoFullName, username)
	body := map[string]any{"permission": "push"}

	status, payload, err := c.do(ctx, http.MethodPut, path, accessToken, body, "add_collaborator")
	if err != nil {
		return err
	}

	switch status {
	case http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrRepoNotFoundOrForbidden, repoFullName)
	case http.StatusUnprocessableEntity:
		if strings.Contains(strings.ToLower(string(payload)), "already a collaborator") {
			return fmt.Errorf("%w: %s", ErrAlreadyCollaborator, username)
		}
		c.logger.Error("github collaborator invite rejected",
			zap.String("repo", repoFullName),
			zap.String("username", username),
			zap.ByteString("body", payload))
		return fmt.Errorf("%w: status %d", ErrCollaboratorAddFailed, status)
	default:
		c.logger.Error("github collaborator invite failed",
			zap.String("repo", repoFullName),
			zap.String("username", username),
			zap.Int("status", status))
		return fmt.Errorf("%w: status %d", ErrCollaboratorAddFailed, status)
	}
}

// do runs one authenticated request through the circuit breaker and returns
// the response status and body. The body is consumed here, before the
// per-call context is canceled; handing the response back unread would race
// callers against the deferred cancel. Only transport-level failures count
// against the breaker; HTTP error statuses are mapped by the callers.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body any, operation string) (int, []byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	c.record(operation, resp, err, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, fmt.Errorf("%w: circuit open", ErrUpstreamUnavailable)
		}
		if isTimeout(err) {
			return 0, nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, operation)
		}
		return 0, nil, fmt.Errorf("github %s: %w", operation, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return 0, nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, operation)
		}
		return 0, nil, fmt.Errorf("github %s: read response: %w", operation, err)
	}
	return resp.StatusCode, payload, nil
}

func (c *Client) record(operation string, resp *http.Response, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if err == nil && resp != nil {
		status = fmt.Sprintf("%dxx", resp.StatusCode/100)
	} else if isTimeout(err) {
		status = "timeout"
	}
	c.metrics.RecordGitHubCall(operation, status, elapsed)
}
