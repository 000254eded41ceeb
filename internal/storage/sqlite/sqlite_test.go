package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "authflow-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("CreateUser and GetUserByEmail", func(t *testing.T) {
		user := models.NewUser("Ada@Example.com", "Ada", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		retrieved, err := store.GetUserByEmail(ctx, "  ADA@example.COM ")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if retrieved.ID != user.ID {
			t.Errorf("ID mismatch: got %s, want %s", retrieved.ID, user.ID)
		}
		if retrieved.Email != "ada@example.com" {
			t.Errorf("Email not normalized: got %s", retrieved.Email)
		}
		if retrieved.DisplayName != "Ada" {
			t.Errorf("DisplayName mismatch: got %s, want Ada", retrieved.DisplayName)
		}
		if retrieved.PasswordHash != "hash" {
			t.Errorf("PasswordHash mismatch: got %s", retrieved.PasswordHash)
		}
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		first := models.NewUser("dup@example.com", "", "hash")
		if err := store.CreateUser(ctx, first); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		second := models.NewUser("DUP@example.com", "", "hash")
		err := store.CreateUser(ctx, second)
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("Get returns ErrNotFound for unknown user", func(t *testing.T) {
		if _, err := store.GetUserByID(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByID: expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByEmail: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateDisplayName", func(t *testing.T) {
		user := models.NewUser("grace@example.com", "", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		updated, err := store.UpdateDisplayName(ctx, user.ID, "Grace")
		if err != nil {
			t.Fatalf("UpdateDisplayName failed: %v", err)
		}
		if updated.DisplayName != "Grace" {
			t.Errorf("DisplayName mismatch: got %s, want Grace", updated.DisplayName)
		}
		if updated.UpdatedAt < user.UpdatedAt {
			t.Errorf("UpdatedAt went backwards: %d < %d", updated.UpdatedAt, user.UpdatedAt)
		}

		if _, err := store.UpdateDisplayName(ctx, "nonexistent-id", "X"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
		}
	})

	t.Run("Token revocation", func(t *testing.T) {
		revoked, err := store.IsTokenRevoked(ctx, "jti-1")
		if err != nil {
			t.Fatalf("IsTokenRevoked failed: %v", err)
		}
		if revoked {
			t.Error("Expected fresh token to be valid")
		}

		expiry := time.Now().Add(time.Hour).Unix()
		if err := store.RevokeToken(ctx, "jti-1", expiry); err != nil {
			t.Fatalf("RevokeToken failed: %v", err)
		}
		if err := store.RevokeToken(ctx, "jti-1", expiry); err != nil {
			t.Fatalf("Second RevokeToken failed: %v", err)
		}

		revoked, err = store.IsTokenRevoked(ctx, "jti-1")
		if err != nil {
			t.Fatalf("IsTokenRevoked failed: %v", err)
		}
		if !revoked {
			t.Error("Expected token to be revoked")
		}
	})

	t.Run("PurgeExpiredTokens", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).Unix()
		if err := store.RevokeToken(ctx, "jti-old", past); err != nil {
			t.Fatalf("RevokeToken failed: %v", err)
		}

		n, err := store.PurgeExpiredTokens(ctx, time.Now())
		if err != nil {
			t.Fatalf("PurgeExpiredTokens failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Purged %d tokens, want 1", n)
		}

		revoked, _ := store.IsTokenRevoked(ctx, "jti-1")
		if !revoked {
			t.Error("Unexpired revocation should survive purge")
		}
	})
}
