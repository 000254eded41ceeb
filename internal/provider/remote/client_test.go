package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/authflow/internal/auth"
	"github.com/mmynk/authflow/internal/gateway"
	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/server"
	"github.com/mmynk/authflow/internal/state"
	"github.com/mmynk/authflow/internal/storage/sqlite"
	"github.com/mmynk/authflow/internal/task"
	"github.com/mmynk/authflow/pkg/api"
	"github.com/mmynk/authflow/pkg/api/apiconnect"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupIdentityServer starts the identity service backed by a temp SQLite
// database and returns its URL.
func setupIdentityServer(t *testing.T, ttl time.Duration) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(server.NewHandler(server.Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWTManager:    auth.NewJWTManager("test-secret", ttl),
		Logger:        quietLogger(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url, sessionPath string) *Client {
	t.Helper()
	c := New(http.DefaultClient, url, NewSessionFile(sessionPath), quietLogger())
	t.Cleanup(c.Close)
	return c
}

func await[T any](t *testing.T, tk task.Task[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return task.Await(ctx, tk)
}

func TestSignUpSignInAndSignOut(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	c := newTestClient(t, srv.URL, "")

	if _, ok := c.CurrentUser(); ok {
		t.Fatal("new client should have no session")
	}

	created, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123"))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == "" || created.Email != "ada@example.com" {
		t.Errorf("unexpected user: %+v", created)
	}

	if _, err := await(t, c.UpdateProfile("Ada")); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	current, ok := c.CurrentUser()
	if !ok || current.DisplayName != "Ada" {
		t.Fatalf("CurrentUser = (%+v, %v), want Ada", current, ok)
	}

	c.SignOut()
	if _, ok := c.CurrentUser(); ok {
		t.Fatal("expected no session after SignOut")
	}

	user, err := await(t, c.SignInWithEmailAndPassword("ADA@example.com", "password123"))
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if user.ID != created.ID || user.DisplayName != "Ada" {
		t.Errorf("SignIn user = %+v, want %s named Ada", user, created.ID)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	c := newTestClient(t, srv.URL, "")

	if _, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "wrong password",
			run: func() error {
				_, err := await(t, c.SignInWithEmailAndPassword("ada@example.com", "wrong-password"))
				return err
			},
			wantErr: provider.ErrInvalidCredentials,
		},
		{
			name: "account exists",
			run: func() error {
				_, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123"))
				return err
			},
			wantErr: provider.ErrAccountExists,
		},
		{
			name: "malformed email",
			run: func() error {
				_, err := await(t, c.CreateUserWithEmailAndPassword("not-an-email", "password123"))
				return err
			},
			wantErr: provider.ErrInvalidArgument,
		},
		{
			name: "empty password",
			run: func() error {
				_, err := await(t, c.SignInWithEmailAndPassword("ada@example.com", ""))
				return err
			},
			wantErr: provider.ErrInvalidArgument,
		},
		{
			name: "weak password",
			run: func() error {
				_, err := await(t, c.CreateUserWithEmailAndPassword("bob@example.com", "short"))
				return err
			},
			wantErr: provider.ErrWeakCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if err.Error() == "" {
				t.Error("expected a displayable message")
			}
		})
	}
}

func TestSignOutRevokesTokenBeforeClose(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	c := New(http.DefaultClient, srv.URL, NewSessionFile(""), quietLogger())

	if _, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	c.mu.RLock()
	token := c.session.Token
	c.mu.RUnlock()

	// The CLI closes the client as soon as the logout command returns.
	c.SignOut()
	c.Close()

	identity := apiconnect.NewIdentityServiceClient(http.DefaultClient, srv.URL)
	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	req.Header().Set("Authorization", "Bearer "+token)
	_, err := identity.GetCurrentUser(context.Background(), req)
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("GetCurrentUser with signed-out token: err = %v, want unauthenticated", err)
	}
}

// profileWithoutUser signs up successfully but answers UpdateProfile without
// a user. Other procedures are unimplemented.
type profileWithoutUser struct {
	token string
}

var _ apiconnect.IdentityServiceHandler = profileWithoutUser{}

func (profileWithoutUser) SignIn(context.Context, *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, nil)
}

func (profileWithoutUser) SignOut(context.Context, *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, nil)
}

func (profileWithoutUser) GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, nil)
}

func (h profileWithoutUser) SignUp(context.Context, *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error) {
	return connect.NewResponse(&api.SignUpResponse{
		User:  &api.User{Id: "user-1", Email: "ada@example.com"},
		Token: h.token,
	}), nil
}

func (h profileWithoutUser) UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	return connect.NewResponse(&api.UpdateProfileResponse{}), nil
}

func TestUpdateProfileResponseWithoutUser(t *testing.T) {
	token, err := auth.NewJWTManager("test-secret", time.Hour).Generate(&models.User{ID: "user-1", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewIdentityServiceHandler(profileWithoutUser{token: token}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, "")
	if _, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := await(t, c.UpdateProfile("Ada")); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	user, ok := c.CurrentUser()
	if !ok || user.DisplayName != "Ada" {
		t.Errorf("CurrentUser = (%+v, %v), want requested name Ada", user, ok)
	}
}

func TestNetworkUnavailable(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, "")
	_, err := await(t, c.SignInWithEmailAndPassword("ada@example.com", "password123"))
	if !errors.Is(err, provider.ErrNetworkUnavailable) {
		t.Errorf("got %v, want ErrNetworkUnavailable", err)
	}
}

func TestUpdateProfileWithoutSession(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", "")
	if _, err := await(t, c.UpdateProfile("Ada")); !errors.Is(err, provider.ErrNoCurrentUser) {
		t.Errorf("got %v, want ErrNoCurrentUser", err)
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	sessionPath := filepath.Join(t.TempDir(), "auth", "session.json")

	first := New(http.DefaultClient, srv.URL, NewSessionFile(sessionPath), quietLogger())
	created, err := await(t, first.CreateUserWithEmailAndPassword("ada@example.com", "password123"))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	first.Close()

	info, err := os.Stat(sessionPath)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}

	second := newTestClient(t, srv.URL, sessionPath)
	user, ok := second.CurrentUser()
	if !ok || user.ID != created.ID {
		t.Fatalf("restored CurrentUser = (%+v, %v), want %s", user, ok, created.ID)
	}

	second.SignOut()
	if _, err := os.Stat(sessionPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file should be removed after SignOut, stat err = %v", err)
	}
}

func TestExpiredSessionIsSignedOut(t *testing.T) {
	srv := setupIdentityServer(t, -time.Minute)
	c := newTestClient(t, srv.URL, "")

	if _, err := await(t, c.CreateUserWithEmailAndPassword("ada@example.com", "password123")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, ok := c.CurrentUser(); ok {
		t.Error("expired session should not report a current user")
	}
}

func TestCorruptSessionFileIgnored(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(sessionPath, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := newTestClient(t, "http://127.0.0.1:1", sessionPath)
	if _, ok := c.CurrentUser(); ok {
		t.Error("corrupt session should be ignored")
	}
}

// Drives the whole stack: state store, gateway, remote provider, identity
// service, SQLite.
func TestStoreAgainstIdentityService(t *testing.T) {
	srv := setupIdentityServer(t, time.Hour)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	logger := quietLogger()

	c := New(http.DefaultClient, srv.URL, NewSessionFile(sessionPath), logger)
	store := state.New(gateway.New(c, logger), logger)

	waitJob := func(done <-chan struct{}) {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not finish")
		}
	}

	waitJob(store.Signup("Ada", "ada@example.com", "password123").Done())
	user, ok := store.SignupState().Get().Value()
	if !ok || user.DisplayName != "Ada" {
		t.Fatalf("signup state = %v, want Success named Ada", store.SignupState().Get())
	}

	waitJob(store.Login("ada@example.com", "wrong-password").Done())
	if err := store.LoginState().Get().Err(); !errors.Is(err, provider.ErrInvalidCredentials) {
		t.Fatalf("login state error = %v, want ErrInvalidCredentials", err)
	}

	waitJob(store.Login("ada@example.com", "password123").Done())
	if _, ok := store.LoginState().Get().Value(); !ok {
		t.Fatalf("login state = %v, want Success", store.LoginState().Get())
	}
	store.Close()
	c.Close()

	// A new process restores the session without signing in again.
	restarted := New(http.DefaultClient, srv.URL, NewSessionFile(sessionPath), logger)
	defer restarted.Close()
	restored := state.New(gateway.New(restarted, logger), logger)
	defer restored.Close()

	var restoredUser *models.User
	if restoredUser, ok = restored.LoginState().Get().Value(); !ok || restoredUser.ID != user.ID {
		t.Fatalf("restored login state = %v, want Success(%s)", restored.LoginState().Get(), user.ID)
	}

	restored.Logout()
	if restored.LoginState().Get() != nil || restored.SignupState().Get() != nil {
		t.Error("logout should reset both slots")
	}
}
