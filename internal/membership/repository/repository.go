package repository

import (
	"context"

	"taskboard/backend/internal/membership/domain"
)

// Repository defines persistence for team memberships.
type Repository interface {
	// AddMembers inserts one membership row per user id in a single
	// transaction. Either all rows insert or none do.
	AddMembers(ctx context.Context, teamID int64, userIDs []int64) error
	// Remove deletes the membership. Returns false if it did not exist.
	Remove(ctx context.Context, teamID, userID int64) (bool, error)
	ListByTeam(ctx context.Context, teamID int64) ([]domain.Membership, error)
	// Get returns the membership, or nil if the user is not a member.
	Get(ctx context.Context, teamID, userID int64) (*domain.Membership, error)
}
