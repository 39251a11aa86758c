package github

import "errors"

// GitHub module errors.
var (
	// Request shape errors, detected before any upstream call.
	ErrMissingCode         = errors.New("authorization code is missing")
	ErrMissingCodeVerifier = errors.New("pkce code_verifier is missing")

	// Authorization errors.
	ErrNotLeader = errors.New("caller is not the project leader")

	// Precondition errors.
	ErrLeaderNotLinked        = errors.New("leader has not linked github")
	ErrMemberNotLinked        = errors.New("member has not linked github")
	ErrNoRepository           = errors.New("project has no github repository linked")
	ErrRepoAlreadyProvisioned = errors.New("project already has a github repository")

	// Upstream errors.
	ErrExchangeFailed          = errors.New("github token exchange failed")
	ErrProfileFetchFailed      = errors.New("github profile fetch failed")
	ErrRepoCreateFailed        = errors.New("github repository creation failed")
	ErrRepoNotFoundOrForbidden = errors.New("github repository not found or leader lacks permission")
	ErrAlreadyCollaborator     = errors.New("user is already a collaborator")
	ErrCollaboratorAddFailed   = errors.New("github collaborator invite failed")
	ErrUpstreamTimeout         = errors.New("github request timed out")
	ErrUpstreamUnavailable     = errors.New("github temporarily unavailable")
)
