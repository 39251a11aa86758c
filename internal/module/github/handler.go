package github

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/collabsphere/server/internal/module/project"
	"github.com/collabsphere/server/internal/module/user"
	"github.com/collabsphere/server/internal/utils/middleware"
)

// Handler exposes the GitHub integration over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the GitHub endpoints. get-access-token is the only
// unauthenticated route; it performs no writes and is rate limited per IP.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth, publicLimit gin.HandlerFunc) {
	gh := r.Group("/github")
	gh.POST("/get-access-token", publicLimit, h.GetAccessToken)
	gh.POST("/exchange-github-code", requireAuth, h.ExchangeCode)
	gh.POST("/projects/:projectId/create-repo", requireAuth, h.CreateRepo)
	gh.POST("/projects/:projectId/add-collaborator", requireAuth, h.AddCollaborator)
}

// GetAccessToken godoc
// @Summary Exchange an OAuth code for an access token
// @Description Trades a PKCE authorization code for a GitHub access token without persisting it
// @Tags github
// @Accept json
// @Produce json
// @Param request body GetAccessTokenRequest true "Authorization code exchange"
// @Success 200 {object} GetAccessTokenResponse
// @Router /github/get-access-token [post]
func (h *Handler) GetAccessToken(c *gin.Context) {
	var req GetAccessTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	token, err := h.service.GetAccessToken(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, GetAccessTokenResponse{AccessToken: token})
}

// ExchangeCode godoc
// @Summary Link the caller's GitHub account
// @Description Exchanges the code, resolves the GitHub username and stores the link on the caller's user record
// @Tags github
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExchangeCodeRequest true "Authorization code exchange"
// @Success 200 {object} ExchangeCodeResponse
// @Router /github/exchange-github-code [post]
func (h *Handler) ExchangeCode(c *gin.Context) {
	var req ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	username, err := h.service.LinkAccount(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExchangeCodeResponse{GithubUsername: username})
}

// CreateRepo godoc
// @Summary Provision a GitHub repository for a project
// @Description Creates a repository under the leader's account and invites every linked member
// @Tags github
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param request body CreateRepoRequest true "Repository settings"
// @Success 200 {object} CreateRepoResponse
// @Router /github/projects/{projectId}/create-repo [post]
func (h *Handler) CreateRepo(c *gin.Context) {
	var req CreateRepoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.RepoName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "repoName is required"})
		return
	}

	result, err := h.service.CreateProjectRepository(c.Request.Context(), middleware.GetUserID(c), c.Param("projectId"), req)
	if err != nil {
		if errors.Is(err, ErrNotLeader) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only leader can create repo"})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateRepoResponse{
		GithubRepositoryURL: result.URL,
		FullName:            result.FullName,
		Invited:             result.Invited,
		Pending:             result.Pending,
	})
}

// AddCollaborator godoc
// @Summary Invite a project member to the project repository
// @Description Grants the member's linked GitHub identity push access to the project repository
// @Tags github
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param request body AddCollaboratorRequest true "Member to invite"
// @Success 200 {object} AddCollaboratorResponse
// @Router /github/projects/{projectId}/add-collaborator [post]
func (h *Handler) AddCollaborator(c *gin.Context) {
	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.MemberUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memberUid is required"})
		return
	}

	username, err := h.service.AddCollaborator(c.Request.Context(), middleware.GetUserID(c), c.Param("projectId"), req.MemberUID)
	if err != nil {
		if errors.Is(err, ErrNotLeader) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only leader can add collaborators"})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, AddCollaboratorResponse{Success: true, GithubUsername: username})
}

// handleError maps service errors to HTTP responses. Upstream error bodies
// are logged by the client layer and never forwarded to callers.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is missing"})
	case errors.Is(err, ErrMissingCodeVerifier):
		c.JSON(http.StatusBadRequest, gin.H{"error": "PKCE code verifier is missing"})
	case errors.Is(err, project.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrLeaderNotLinked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leader has not linked GitHub"})
	case errors.Is(err, ErrMemberNotLinked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target member has not linked GitHub"})
	case errors.Is(err, ErrNoRepository):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project has no GitHub repository linked"})
	case errors.Is(err, ErrRepoAlreadyProvisioned):
		c.JSON(http.StatusConflict, gin.H{"error": "Project already has a GitHub repository"})
	case errors.Is(err, ErrRepoNotFoundOrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "GitHub repository not found or leader lacks permission"})
	case errors.Is(err, ErrAlreadyCollaborator):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "User is already a collaborator on this repository"})
	case errors.Is(err, ErrExchangeFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get GitHub access token"})
	case errors.Is(err, ErrProfileFetchFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error linking GitHub account"})
	case errors.Is(err, ErrUpstreamTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "GitHub request timed out"})
	case errors.Is(err, ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub is temporarily unavailable"})
	case errors.Is(err, ErrRepoCreateFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create repo"})
	case errors.Is(err, ErrCollaboratorAddFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add collaborator due to a server error"})
	default:
		h.logger.Error("unhandled github error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
