package repository

import (
	"context"

	"taskboard/backend/internal/task/domain"
)

// Repository defines persistence for tasks.
type Repository interface {
	// Create persists the task and returns the assigned id.
	Create(ctx context.Context, t *domain.Task) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	// Update applies the patch. Returns false if no such task exists.
	Update(ctx context.Context, id int64, p *domain.Patch) (bool, error)
	// Delete removes the task. Returns false if no such task exists.
	Delete(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
	// ListForAssignee returns the user's assigned tasks, optionally
	// narrowed to one team when teamID is non-nil.
	ListForAssignee(ctx context.Context, userID int64, teamID *int64) ([]domain.Task, error)
	ListByTeam(ctx context.Context, teamID int64) ([]domain.Task, error)
}
