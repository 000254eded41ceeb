package authcli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/provider/providertest"
)

func runApp(t *testing.T, stub *providertest.Stub, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &App{
		Provider: stub,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:      &out,
	}
	err := app.Command().Run(context.Background(), append([]string{"authflow"}, args...))
	return out.String(), err
}

func TestLoginNavigatesHome(t *testing.T) {
	stub := providertest.NewStub(nil)
	stub.SignInFunc = func(email, _ string) (*models.User, error) {
		return &models.User{ID: "u1", Email: email, DisplayName: "Ada"}, nil
	}

	out, err := runApp(t, stub, "login", "--email", "ada@example.com", "--password", "password123")
	if err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[home] Welcome, Ada (ada@example.com)") {
		t.Errorf("missing home screen:\n%s", out)
	}
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	stub := providertest.NewStub(nil)
	stub.SignInFunc = func(string, string) (*models.User, error) {
		return nil, provider.ErrInvalidCredentials
	}

	out, err := runApp(t, stub, "login", "--email", "ada@example.com", "--password", "wrong")
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if !strings.Contains(out, "[login] invalid email or password") {
		t.Errorf("missing failure notice:\n%s", out)
	}
	if strings.Contains(out, "[home]") {
		t.Errorf("failure must not navigate:\n%s", out)
	}
}

func TestLoginWithRestoredSession(t *testing.T) {
	stub := providertest.NewStub(&models.User{ID: "u1", Email: "ada@example.com"})

	out, err := runApp(t, stub, "login", "--email", "ada@example.com", "--password", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "[home] Welcome, ada@example.com") {
		t.Errorf("expected restored home screen:\n%s", out)
	}
	if signIns, _, _, _ := stub.Calls(); signIns != 0 {
		t.Errorf("sign-in called %d times, want 0", signIns)
	}
}

func TestSignup(t *testing.T) {
	stub := providertest.NewStub(nil)

	out, err := runApp(t, stub, "signup", "--name", "Ada", "--email", "ada@example.com", "--password", "password123")
	if err != nil {
		t.Fatalf("signup failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "[signup]\n") {
		t.Errorf("expected signup screen first:\n%s", out)
	}
	if !strings.Contains(out, "[home] Welcome, Ada") {
		t.Errorf("missing home screen:\n%s", out)
	}
}

func TestLogoutAndWhoami(t *testing.T) {
	stub := providertest.NewStub(&models.User{ID: "u1", Email: "ada@example.com"})

	out, err := runApp(t, stub, "whoami")
	if err != nil || !strings.Contains(out, "ada@example.com") {
		t.Fatalf("whoami = %q, %v", out, err)
	}

	out, err = runApp(t, stub, "logout")
	if err != nil || !strings.Contains(out, "[login]") {
		t.Fatalf("logout = %q, %v", out, err)
	}

	out, err = runApp(t, stub, "whoami")
	if err != nil || !strings.Contains(out, "Not signed in") {
		t.Fatalf("whoami after logout = %q, %v", out, err)
	}
}
