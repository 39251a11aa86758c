package project

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for project data access.
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)

	// SetGithubRepo records the provisioned repository and replaces the
	// invited/pending collaborator lists. Provisioning is the sole writer of
	// the initial collaborator sync state.
	SetGithubRepo(ctx context.Context, id string, repo GithubRepo, invited, pending []string) error

	// AddInvitedUsername adds a username to the invited set if absent.
	// The membership check runs inside a row-locking transaction so
	// concurrent adds cannot lose updates.
	AddInvitedUsername(ctx context.Context, id, username string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new project repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *repository) SetGithubRepo(ctx context.Context, id string, repo GithubRepo, invited, pending []string) error {
	result := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"github_repo_full_name":    repo.FullName,
			"github_repo_url":          repo.URL,
			"invited_github_usernames": pq.StringArray(invited),
			"pending_github_invites":   pq.StringArray(pending),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *repository) AddInvitedUsername(ctx context.Context, id, username string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project Project
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&project).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		for _, existing := range project.InvitedGithubUsernames {
			if existing == username {
				return nil
			}
		}

		invited := append(project.InvitedGithubUsernames, username)
		return tx.Model(&Project{}).
			Where("id = ?", id).
			Update("invited_github_usernames", invited).Error
	})
}
