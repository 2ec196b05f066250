package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/security"
	"taskboard/backend/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidEmail           = errors.New("email is invalid")
	ErrPasswordTooShort       = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) (int64, error)
}

// LoginResult holds the outcome of a successful Login.
type LoginResult struct {
	Credential string
	ExpiresAt  time.Time
	User       *domain.User
}

// AuthService implements register, login, and logout.
type AuthService struct {
	userRepo UserRepo
	hasher   *security.Hasher
	asserter auth.Asserter
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, hasher *security.Hasher, asserter auth.Asserter) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		asserter: asserter,
	}
}

// Register creates a user with the given email and password. New accounts
// are always regular members; admins are promoted separately.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !domain.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hashed,
		IsAdmin:      false,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// Login authenticates with email/password and issues a credential.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	credential, expiresAt, err := s.asserter.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Credential: credential, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes the credential. The response is sent only after the
// revocation has been applied.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	return s.asserter.Revoke(ctx, credential)
}
