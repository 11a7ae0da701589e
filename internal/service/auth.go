// Package service provides the account and note business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/password"
	"github.com/atinyakov/GophNotes/internal/token"
	"go.uber.org/zap"
)

// dummyPassword is hashed once and verified against when a login names an
// unknown email, so both failure paths cost one hash comparison.
const dummyPassword = "gophnotes-timing-equalizer"

// UserDirectory defines the persistence operations on user accounts
// required by the authentication service.
type UserDirectory interface {
	// FindByEmail returns the user with the given normalized email,
	// or models.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Create inserts a new user. A taken email yields models.ErrConflict.
	Create(ctx context.Context, u *models.User) error
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(claims token.Claims, ttl time.Duration) (string, error)
	Verify(tokenString string) (token.Claims, error)
}

// AuthService implements registration, login and token resolution.
type AuthService struct {
	users  UserDirectory
	hasher PasswordHasher
	tokens TokenIssuer
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthService constructs an AuthService.
// ttl is the lifetime of every issued session token.
func NewAuthService(users UserDirectory, hasher PasswordHasher, tokens TokenIssuer, ttl time.Duration, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Register creates an account and returns it together with a fresh session token.
// An email that is already registered yields models.ErrConflict and nothing is written.
func (s *AuthService) Register(ctx context.Context, email, plaintext, fullName string) (*models.User, string, error) {
	email = models.NormalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", models.ErrConflict
	case !errors.Is(err, models.ErrNotFound):
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return nil, "", models.NewValidationError("password", "%s", err.Error())
		}
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           models.NewID(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: digest,
		CreatedAt:    s.timestamp(),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, "", models.ErrConflict
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	tok, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return u, tok, nil
}

// Authenticate checks credentials. An unknown email and a wrong password
// produce the same models.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		s.hasher.Verify(plaintext, s.dummy())
		return nil, models.ErrUnauthorized
	}
	if !s.hasher.Verify(plaintext, u.PasswordHash) {
		return nil, models.ErrUnauthorized
	}
	return u, nil
}

// Login authenticates the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*models.User, string, error) {
	u, err := s.Authenticate(ctx, email, plaintext)
	if err != nil {
		return nil, "", err
	}
	tok, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID))
	return u, tok, nil
}

// ResolveIdentity maps a presented session token to the current user record.
// Any verification failure, or a subject that no longer exists, yields
// models.ErrUnauthorized.
func (s *AuthService) ResolveIdentity(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return nil, models.ErrUnauthorized
	}
	u, err := s.users.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *AuthService) issue(u *models.User) (string, error) {
	tok, err := s.tokens.Issue(token.Claims{Subject: u.Email}, s.ttl)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Error("failed to prepare dummy digest", zap.Error(err))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func (s *AuthService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
