package repository

import (
	"context"

	"taskboard/backend/internal/session/domain"
)

// Repository defines persistence for login sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes the session. Returns false if it did not exist.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteExpired removes sessions past their expiry and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
