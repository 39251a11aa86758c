package github

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/collabsphere/server/internal/module/project"
	"github.com/collabsphere/server/internal/module/user"
	"github.com/collabsphere/server/internal/utils/metrics"
	"github.com/collabsphere/server/internal/utils/requestctx"
)

// OAuthExchanger trades an authorization code for an access token and
// resolves tokens to GitHub profiles.
type OAuthExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// HostingClient is the authenticated GitHub REST surface the service needs.
type HostingClient interface {
	CreateRepository(ctx context.Context, accessToken, name, description string, private bool) (*Repository, error)
	AddCollaborator(ctx context.Context, accessToken, repoFullName, username string) error
}

// TokenCipher encrypts access tokens before they touch the database.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encodedCiphertext string) (string, error)
}

// ProvisionResult is the outcome of provisioning a project repository.
type ProvisionResult struct {
	URL      string
	FullName string
	Invited  []string // GitHub usernames successfully invited
	Pending  []string // member ids that could not be invited yet
}

// Service orchestrates GitHub account linking, repository provisioning and
// collaborator invites. All repository operations authenticate as the
// project leader; members never need to grant the service their own tokens.
type Service struct {
	users    user.Repository
	projects project.Repository
	oauth    OAuthExchanger
	api      HostingClient
	cipher   TokenCipher
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(
	users user.Repository,
	projects project.Repository,
	oauth OAuthExchanger,
	api HostingClient,
	cipher TokenCipher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		users:    users,
		projects: projects,
		oauth:    oauth,
		api:      api,
		cipher:   cipher,
		logger:   logger,
		metrics:  m,
	}
}

// GetAccessToken exchanges an authorization code for an access token without
// persisting anything. The code is single-use upstream, so a retry with the
// same code fails at the exchange.
func (s *Service) GetAccessToken(ctx context.Context, req GetAccessTokenRequest) (string, error) {
	if req.Code == "" {
		return "", ErrMissingCode
	}
	return s.oauth.ExchangeCode(ctx, req.Code, req.RedirectURI, req.CodeVerifier)
}

// LinkAccount exchanges the code, resolves the GitHub username behind the
// token, and stores the username plus the encrypted token on the caller's
// user record. Relinking overwrites a previous link entirely.
func (s *Service) LinkAccount(ctx context.Context, callerID string, req ExchangeCodeRequest) (string, error) {
	if req.Code == "" {
		return "", ErrMissingCode
	}
	if req.CodeVerifier == "" {
		return "", ErrMissingCodeVerifier
	}

	accessToken, err := s.oauth.ExchangeCode(ctx, req.Code, req.RedirectURI, req.CodeVerifier)
	if err != nil {
		return "", err
	}

	profile, err := s.oauth.FetchProfile(ctx, accessToken)
	if err != nil {
		return "", err
	}

	encrypted, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		s.log(ctx).Error("access token encryption failed", zap.Error(err))
		return "", err
	}

	if err := s.users.LinkGitHubAccount(ctx, callerID, profile.Login, encrypted, time.Now().UTC()); err != nil {
		return "", err
	}

	s.log(ctx).Info("github account linked",
		zap.String("user_id", callerID),
		zap.String("github_username", profile.Login))
	return profile.Login, nil
}

// CreateProjectRepository creates a repository under the leader's GitHub
// account and invites every linked member. Members without a linked identity,
// and members whose invite the hosting API rejects, land in the pending list;
// a rejected invite never aborts the rest of the loop. The resulting repo and
// both lists replace whatever the project record held before.
func (s *Service) CreateProjectRepository(ctx context.Context, callerID, projectID string, req CreateRepoRequest) (*ProvisionResult, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.LeaderID != callerID {
		return nil, ErrNotLeader
	}
	if proj.HasGithubRepo() {
		return nil, ErrRepoAlreadyProvisioned
	}

	leader, err := s.users.GetByID(ctx, proj.LeaderID)
	if err != nil {
		return nil, err
	}
	if !leader.HasGithubToken() {
		return nil, ErrLeaderNotLinked
	}
	leaderToken, err := s.cipher.Decrypt(*leader.GithubAccessToken)
	if err != nil {
		s.log(ctx).Error("leader token decryption failed",
			zap.String("user_id", leader.ID), zap.Error(err))
		return nil, err
	}

	private := true
	if req.PrivateRepo != nil {
		private = *req.PrivateRepo
	}

	repo, err := s.api.CreateRepository(ctx, leaderToken, req.RepoName, req.RepoDescription, private)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("github repository created",
		zap.String("project_id", projectID),
		zap.String("repo", repo.FullName))

	// Members are invited one at a time, in stored order, so the
	// invited/pending split is deterministic and the upstream rate limit
	// never sees a burst. Invite failures here are non-fatal.
	invited := make([]string, 0, len(proj.Members))
	pending := make([]string, 0, len(proj.Members))
	for _, memberID := range proj.Members {
		if memberID == proj.LeaderID {
			continue
		}

		member, err := s.users.GetByID(ctx, memberID)
		if err != nil || !member.HasGithubUsername() {
			pending = append(pending, memberID)
			continue
		}

		username := *member.GithubUsername
		if err := s.api.AddCollaborator(ctx, leaderToken, repo.FullName, username); err != nil {
			s.log(ctx).Warn("collaborator invite deferred",
				zap.String("project_id", projectID),
				zap.String("member_id", memberID),
				zap.String("github_username", username),
				zap.Error(err))
			pending = append(pending, memberID)
			s.countInvite("pending")
			continue
		}
		invited = append(invited, username)
		s.countInvite("invited")
	}

	githubRepo := project.GithubRepo{FullName: repo.FullName, URL: repo.HTMLURL}
	if err := s.projects.SetGithubRepo(ctx, projectID, githubRepo, invited, pending); err != nil {
		// The repository already exists upstream; losing the record would
		// strand it, so retry the write once before giving up.
		s.log(ctx).Warn("repository record write failed, retrying",
			zap.String("project_id", projectID), zap.Error(err))
		if err := s.projects.SetGithubRepo(ctx, projectID, githubRepo, invited, pending); err != nil {
			s.log(ctx).Error("repository record write failed after retry",
				zap.String("project_id", projectID),
				zap.String("repo", repo.FullName),
				zap.String("url", repo.HTMLURL),
				zap.Error(err))
			return nil, err
		}
	}

	return &ProvisionResult{
		URL:      repo.HTMLURL,
		FullName: repo.FullName,
		Invited:  invited,
		Pending:  pending,
	}, nil
}

// AddCollaborator invites a single project member to the project's existing
// repository and records the username in the invited set. Unlike the bulk
// loop in CreateProjectRepository, an upstream rejection here is the
// operation's failure.
func (s *Service) AddCollaborator(ctx context.Context, callerID, projectID, memberUID string) (string, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	if proj.LeaderID != callerID {
		return "", ErrNotLeader
	}

	member, err := s.users.GetByID(ctx, memberUID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrMemberNotLinked
		}
		return "", err
	}
	if !member.HasGithubUsername() {
		return "", ErrMemberNotLinked
	}

	if !proj.HasGithubRepo() {
		return "", ErrNoRepository
	}

	leader, err := s.users.GetByID(ctx, proj.LeaderID)
	if err != nil {
		return "", err
	}
	if !leader.HasGithubToken() {
		return "", ErrLeaderNotLinked
	}
	leaderToken, err := s.cipher.Decrypt(*leader.GithubAccessToken)
	if err != nil {
		s.log(ctx).Error("leader token decryption failed",
			zap.String("user_id", leader.ID), zap.Error(err))
		return "", err
	}

	username := *member.GithubUsername
	if err := s.api.AddCollaborator(ctx, leaderToken, *proj.GithubRepoFullName, username); err != nil {
		return "", err
	}

	if err := s.projects.AddInvitedUsername(ctx, projectID, username); err != nil {
		return "", err
	}

	s.log(ctx).Info("collaborator invited",
		zap.String("project_id", projectID),
		zap.String("member_id", memberUID),
		zap.String("github_username", username))
	return username, nil
}

// log scopes the service logger to the inbound request.
func (s *Service) log(ctx context.Context) *zap.Logger {
	if id := requestctx.RequestID(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func (s *Service) countInvite(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.InvitesTotal.WithLabelValues(outcome).Inc()
}
