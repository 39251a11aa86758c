package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserGithubLink(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("unlinked user", func(t *testing.T) {
		u := &User{ID: "u1", Email: "u1@example.com"}
		assert.False(t, u.HasGithubUsername())
		assert.False(t, u.HasGithubToken())
	})

	t.Run("linked user", func(t *testing.T) {
		u := &User{
			ID:                "u1",
			GithubUsername:    strPtr("alice"),
			GithubAccessToken: strPtr("ciphertext"),
		}
		assert.True(t, u.HasGithubUsername())
		assert.True(t, u.HasGithubToken())
	})

	t.Run("empty strings count as unlinked", func(t *testing.T) {
		u := &User{
			ID:                "u1",
			GithubUsername:    strPtr(""),
			GithubAccessToken: strPtr(""),
		}
		assert.False(t, u.HasGithubUsername())
		assert.False(t, u.HasGithubToken())
	})
}
