package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/domain"
	"github.com/spec-kit/resource-gateway/internal/repository"
)

// CredentialVerifier confirms a username/password pair and resolves the
// opaque subject it belongs to.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

type userVerifier struct {
	users repository.UserRepository
}

// NewUserVerifier returns a verifier backed by the users table.
func NewUserVerifier(users repository.UserRepository) CredentialVerifier {
	return &userVerifier{users: users}
}

// Verify never distinguishes unknown-user from wrong-password: both collapse
// into ErrInvalidCredentials.
func (v *userVerifier) Verify(ctx context.Context, username, password string) (string, error) {
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if user.Status != domain.UserStatusActive {
		return "", ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return user.ID, nil
}
