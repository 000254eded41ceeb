// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/authflow/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("already exists")
)

// Store defines the interface for identity storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user.
	// Returns ErrDuplicate if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateDisplayName changes a user's display name and returns the
	// updated user.
	UpdateDisplayName(ctx context.Context, id, displayName string) (*models.User, error)

	// RevokeToken records a session token ID as no longer valid until
	// expiresAt (Unix seconds).
	RevokeToken(ctx context.Context, tokenID string, expiresAt int64) error

	// IsTokenRevoked reports whether tokenID was revoked.
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
