package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("unprovisioned project", func(t *testing.T) {
		p := &Project{ID: "p1", LeaderID: "leader"}
		assert.False(t, p.HasGithubRepo())
		assert.Nil(t, p.Repo())
	})

	t.Run("provisioned project", func(t *testing.T) {
		p := &Project{
			ID:                 "p1",
			LeaderID:           "leader",
			GithubRepoFullName: strPtr("leader/demo"),
			GithubRepoURL:      strPtr("https://github.com/leader/demo"),
		}
		assert.True(t, p.HasGithubRepo())

		repo := p.Repo()
		require.NotNil(t, repo)
		assert.Equal(t, "leader/demo", repo.FullName)
		assert.Equal(t, "https://github.com/leader/demo", repo.URL)
	})

	t.Run("empty full name counts as unprovisioned", func(t *testing.T) {
		p := &Project{ID: "p1", GithubRepoFullName: strPtr("")}
		assert.False(t, p.HasGithubRepo())
	})
}
