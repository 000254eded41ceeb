// Package gateway adapts an identity provider's asynchronous operations into
// blocking calls that report their outcome as a result.Result.
package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/result"
	"github.com/mmynk/authflow/internal/task"
)

// Gateway exposes login, signup and logout against a provider.
// It keeps no state of its own.
type Gateway struct {
	provider provider.Provider
	logger   *slog.Logger
}

// New creates a gateway over p.
func New(p provider.Provider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		provider: p,
		logger:   logger,
	}
}

// CurrentUser returns the user of the provider's cached session.
func (g *Gateway) CurrentUser() (*models.User, bool) {
	return g.provider.CurrentUser()
}

// Login signs the user in. Every failure, including cancellation of ctx, is
// returned as a Failure result.
func (g *Gateway) Login(ctx context.Context, email, password string) *result.Result[*models.User] {
	user, err := task.Await(ctx, g.provider.SignInWithEmailAndPassword(email, password))
	if err != nil {
		g.logger.Warn("Login failed", "email", email, "error", err)
		return result.Failure[*models.User](err)
	}
	if user == nil {
		g.logger.Error("Provider returned no user on sign-in", "email", email)
		return result.Failure[*models.User](provider.ErrUnknown)
	}

	g.logger.Info("User logged in", "user_id", user.ID)
	return result.Success(user)
}

// Signup creates the account and then sets its display name.
//
// The display name update is best-effort: once the account exists the
// result is Success even if the update fails. The returned user carries the
// name only when the update went through.
func (g *Gateway) Signup(ctx context.Context, name, email, password string) *result.Result[*models.User] {
	user, err := task.Await(ctx, g.provider.CreateUserWithEmailAndPassword(email, password))
	if err != nil {
		g.logger.Warn("Signup failed", "email", email, "error", err)
		return result.Failure[*models.User](err)
	}
	if user == nil {
		g.logger.Error("Provider returned no user on sign-up", "email", email)
		return result.Failure[*models.User](provider.ErrUnknown)
	}

	name = strings.TrimSpace(name)
	if name != "" {
		if _, err := task.Await(ctx, g.provider.UpdateProfile(name)); err != nil {
			g.logger.Warn("Display name update failed", "user_id", user.ID, "error", err)
		} else {
			named := *user
			named.DisplayName = name
			user = &named
		}
	}

	g.logger.Info("User signed up", "user_id", user.ID)
	return result.Success(user)
}

// Logout clears the provider's local session.
func (g *Gateway) Logout() {
	g.provider.SignOut()
	g.logger.Info("User logged out")
}
