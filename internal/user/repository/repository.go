package repository

import (
	"context"

	"taskboard/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user and returns the assigned id.
	Create(ctx context.Context, u *domain.User) (int64, error)
	List(ctx context.Context) ([]domain.User, error)
	// SetAdmin flips the admin flag. Returns false if no such user exists.
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (bool, error)
}
