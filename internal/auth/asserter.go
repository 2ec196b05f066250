// Package auth defines the identity assertion abstraction. An Asserter
// turns a logged-in user into a credential string and verifies that
// credential on later requests. Exactly one implementation is active,
// selected by AUTH_STRATEGY.
package auth

import (
	"context"
	"errors"
	"time"

	"taskboard/backend/internal/user/domain"
)

// ErrInvalidCredential is returned when a credential is missing, malformed,
// expired, or revoked.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims is the verified identity attached to a request.
type Claims struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// Asserter issues, verifies, and revokes identity assertions.
type Asserter interface {
	// Issue creates a credential for the user and returns it with its expiry.
	Issue(ctx context.Context, u *domain.User) (credential string, expiresAt time.Time, err error)
	// Verify checks the credential and returns the identity it asserts.
	Verify(ctx context.Context, credential string) (*Claims, error)
	// Revoke invalidates the credential where the strategy supports it.
	Revoke(ctx context.Context, credential string) error
}
