package user

import (
	"time"
)

// User represents an application user. The primary key is the id issued by
// the identity provider; records are created at signup by the surrounding
// application, and this service only mutates the GitHub link fields.
type User struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Email string `json:"email" gorm:"uniqueIndex;not null"`
	Name  string `json:"name"`

	// GitHub link. A user has at most one linked identity at a time;
	// relinking overwrites all three fields. The access token is stored
	// AES-GCM encrypted and never leaves the server.
	GithubUsername    *string    `json:"github_username,omitempty" gorm:"column:github_username"`
	GithubAccessToken *string    `json:"-" gorm:"column:github_access_token"`
	GithubLinkedAt    *time.Time `json:"github_linked_at,omitempty" gorm:"column:github_linked_at"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// HasGithubUsername returns true if the user has a linked GitHub identity.
func (u *User) HasGithubUsername() bool {
	return u.GithubUsername != nil && *u.GithubUsername != ""
}

// HasGithubToken returns true if the user has a stored GitHub access token.
func (u *User) HasGithubToken() bool {
	return u.GithubAccessToken != nil && *u.GithubAccessToken != ""
}
