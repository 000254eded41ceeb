// Package provider defines the boundary to the identity provider: the
// asynchronous operations the auth gateway awaits and the errors they fail
// with.
package provider

import (
	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/task"
)

// Provider is an identity provider client. Asynchronous operations return a
// task that completes exactly once; the provider owns the local session.
type Provider interface {
	// CurrentUser returns the user of the locally cached session without
	// any network call.
	CurrentUser() (*models.User, bool)

	// SignInWithEmailAndPassword starts a sign-in. On success the session is
	// cached and the task yields the signed-in user.
	SignInWithEmailAndPassword(email, password string) task.Task[*models.User]

	// CreateUserWithEmailAndPassword starts account creation. On success the
	// new user is signed in.
	CreateUserWithEmailAndPassword(email, password string) task.Task[*models.User]

	// UpdateProfile sets the display name of the signed-in user.
	UpdateProfile(displayName string) task.Task[struct{}]

	// SignOut clears the local session.
	SignOut()
}
