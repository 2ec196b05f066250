package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	sessiondomain "taskboard/backend/internal/session/domain"
	sessionrepo "taskboard/backend/internal/session/repository"
	userdomain "taskboard/backend/internal/user/domain"
	userrepo "taskboard/backend/internal/user/repository"
)

// SessionAsserter asserts identity with server-side session rows. The
// credential is a random session id; Verify loads the session and the
// user, so admin changes take effect on the next request and Revoke is
// durable.
type SessionAsserter struct {
	sessions sessionrepo.Repository
	users    userrepo.Repository
	lifetime time.Duration
	now      func() time.Time
}

func NewSessionAsserter(sessions sessionrepo.Repository, users userrepo.Repository, lifetime time.Duration) *SessionAsserter {
	return &SessionAsserter{
		sessions: sessions,
		users:    users,
		lifetime: lifetime,
		now:      time.Now,
	}
}

func (a *SessionAsserter) Issue(ctx context.Context, u *userdomain.User) (string, time.Time, error) {
	now := a.now().UTC()
	s := &sessiondomain.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(a.lifetime),
		CreatedAt: now,
	}
	if err := a.sessions.Create(ctx, s); err != nil {
		return "", time.Time{}, err
	}
	return s.ID, s.ExpiresAt, nil
}

func (a *SessionAsserter) Verify(ctx context.Context, credential string) (*Claims, error) {
	if credential == "" {
		return nil, ErrInvalidCredential
	}
	s, err := a.sessions.GetByID(ctx, credential)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrInvalidCredential
	}
	if s.Expired(a.now().UTC()) {
		// Lazy cleanup; a missing row on the next request is equivalent.
		_, _ = a.sessions.Delete(ctx, s.ID)
		return nil, ErrInvalidCredential
	}
	u, err := a.users.GetByID(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredential
	}
	return &Claims{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

// Revoke deletes the session row. Once this returns nil the credential
// can never verify again.
func (a *SessionAsserter) Revoke(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}
	_, err := a.sessions.Delete(ctx, credential)
	return err
}
