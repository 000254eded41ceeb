package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an account known to the identity provider.
//
// On the client side only ID, Email and DisplayName are populated.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique, lower case).
	// Used for sign-in.
	Email string

	// DisplayName is the optional name shown in the UI.
	// Empty until set through a profile update or at sign-up.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	// Only populated server side.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lower-cases an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
