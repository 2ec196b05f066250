package auth

import (
	"context"
	"time"

	"taskboard/backend/internal/security"
	"taskboard/backend/internal/user/domain"
)

// TokenAsserter asserts identity with signed JWTs. It is stateless: the
// credential carries the identity and Verify never touches the database.
type TokenAsserter struct {
	tokens *security.TokenProvider
}

func NewTokenAsserter(tokens *security.TokenProvider) *TokenAsserter {
	return &TokenAsserter{tokens: tokens}
}

func (a *TokenAsserter) Issue(ctx context.Context, u *domain.User) (string, time.Time, error) {
	return a.tokens.IssueAccess(u.ID, u.Email, u.IsAdmin)
}

func (a *TokenAsserter) Verify(ctx context.Context, credential string) (*Claims, error) {
	userID, email, isAdmin, err := a.tokens.ValidateAccess(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	return &Claims{UserID: userID, Email: email, IsAdmin: isAdmin}, nil
}

// Revoke is a no-op. Issued tokens stay valid until they expire; keeping
// the access TTL short bounds the exposure window.
func (a *TokenAsserter) Revoke(ctx context.Context, credential string) error {
	return nil
}
