package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/authflow/internal/models"
)

// Session is the signed-in state cached on the device.
type Session struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// SessionUser is the persisted user handle.
type SessionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

func (s *Session) handle() *models.User {
	return &models.User{
		ID:          s.User.ID,
		Email:       s.User.Email,
		DisplayName: s.User.DisplayName,
	}
}

// Expired reports whether the session token's expiry is before now. The
// signature is not checked; only the server can do that.
func (s *Session) Expired(now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// SessionFile persists a Session as JSON. An empty path keeps the session
// in memory only.
type SessionFile struct {
	path string
}

// NewSessionFile creates a session file at path.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Load reads the session. It returns nil and no error when none is stored.
func (f *SessionFile) Load() (*Session, error) {
	if f.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Token == "" || s.User.ID == "" {
		return nil, nil
	}
	return &s, nil
}

// Save writes the session atomically with owner-only permissions.
func (f *SessionFile) Save(s *Session) error {
	if f.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (f *SessionFile) Clear() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
