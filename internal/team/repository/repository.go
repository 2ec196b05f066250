package repository

import (
	"context"

	"taskboard/backend/internal/team/domain"
)

// Repository defines persistence for teams.
type Repository interface {
	// Create persists the team and returns the assigned id.
	Create(ctx context.Context, t *domain.Team) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	// Update renames the team. Returns false if no such team exists.
	Update(ctx context.Context, id int64, name string) (bool, error)
	// Delete removes the team with its memberships and tasks in one
	// transaction. Returns false if no such team exists.
	Delete(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]domain.Team, error)
	// ListForUser returns teams the user created or belongs to.
	ListForUser(ctx context.Context, userID int64) ([]domain.Team, error)
}
