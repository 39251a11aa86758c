package project

import (
	"time"

	"github.com/lib/pq"
)

// GithubRepo is the provisioned hosting-platform repository of a project.
type GithubRepo struct {
	FullName string `json:"fullName"`
	URL      string `json:"url"`
}

// Project represents a project team. The leader is the immutable owner and
// the sole authority for repository operations; all hosting-platform writes
// run under the leader's linked credential, never the acting caller's.
type Project struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	LeaderID string `json:"leader_id" gorm:"column:leader_id;not null;index"`

	// Members holds user ids. The leader is implicitly a member.
	Members pq.StringArray `json:"members" gorm:"column:members;type:text[]"`

	// GithubRepoFullName/URL are set at most once, by repository provisioning.
	GithubRepoFullName *string `json:"github_repo_full_name,omitempty" gorm:"column:github_repo_full_name"`
	GithubRepoURL      *string `json:"github_repo_url,omitempty" gorm:"column:github_repo_url"`

	// InvitedGithubUsernames and PendingGithubInvites are the authoritative
	// collaborator sync state once the repo exists. Invited holds GitHub
	// usernames; pending holds member user ids that could not be invited yet.
	InvitedGithubUsernames pq.StringArray `json:"invited_github_usernames" gorm:"column:invited_github_usernames;type:text[]"`
	PendingGithubInvites   pq.StringArray `json:"pending_github_invites" gorm:"column:pending_github_invites;type:text[]"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (Project) TableName() string {
	return "projects"
}

// HasGithubRepo returns true if a repository has been provisioned.
func (p *Project) HasGithubRepo() bool {
	return p.GithubRepoFullName != nil && *p.GithubRepoFullName != ""
}

// Repo returns the provisioned repository, or nil.
func (p *Project) Repo() *GithubRepo {
	if !p.HasGithubRepo() {
		return nil
	}
	url := ""
	if p.GithubRepoURL != nil {
		url = *p.GithubRepoURL
	}
	return &GithubRepo{FullName: *p.GithubRepoFullName, URL: url}
}
