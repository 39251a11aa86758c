package github

// GetAccessTokenRequest exchanges an OAuth authorization code for a token
// without persisting anything.
type GetAccessTokenRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier"`
}

// GetAccessTokenResponse carries the raw access token back to the client.
type GetAccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// ExchangeCodeRequest links the authenticated user's GitHub account.
type ExchangeCodeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier"`
}

// ExchangeCodeResponse returns only the linked username. The stored access
// token is never echoed back.
type ExchangeCodeResponse struct {
	GithubUsername string `json:"githubUsername"`
}

// CreateRepoRequest provisions a repository for a project. PrivateRepo
// defaults to true when omitted.
type CreateRepoRequest struct {
	RepoName        string `json:"repoName"`
	RepoDescription string `json:"repoDescription"`
	PrivateRepo     *bool  `json:"privateRepo"`
}

// CreateRepoResponse reports the provisioned repository and the per-member
// invite outcome.
type CreateRepoResponse struct {
	GithubRepositoryURL string   `json:"githubRepositoryUrl"`
	FullName            string   `json:"fullName"`
	Invited             []string `json:"invited"`
	Pending             []string `json:"pending"`
}

// AddCollaboratorRequest invites a single project member to the repository.
type AddCollaboratorRequest struct {
	MemberUID string `json:"memberUid"`
}

// AddCollaboratorResponse confirms the invite.
type AddCollaboratorResponse struct {
	Success        bool   `json:"success"`
	GithubUsername string `json:"githubUsername"`
}
