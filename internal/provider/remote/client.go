// Package remote implements provider.Provider against the identity service
// over Connect.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/task"
	"github.com/mmynk/authflow/pkg/api"
	"github.com/mmynk/authflow/pkg/api/apiconnect"
)

const signOutTimeout = 5 * time.Second

var _ provider.Provider = (*Client)(nil)

// Client talks to the identity service and owns the local session.
// Operations run on their own goroutines and keep running when the caller
// stops waiting; Close stops them.
type Client struct {
	api      apiconnect.IdentityServiceClient
	sessions *SessionFile
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	session *Session
}

// New creates a client for the service at baseURL and restores the session
// stored in sessions, if any.
func New(httpClient connect.HTTPClient, baseURL string, sessions *SessionFile, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewSessionFile("")
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		api:      apiconnect.NewIdentityServiceClient(httpClient, baseURL),
		sessions: sessions,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	session, err := sessions.Load()
	if err != nil {
		logger.Warn("Ignoring unreadable session", "error", err)
	}
	c.session = session
	return c
}

// Close stops in-flight operations and waits for them, including pending
// sign-out revocations.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

// CurrentUser implements provider.Provider. An expired session counts as
// signed out.
func (c *Client) CurrentUser() (*models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || c.session.Expired(time.Now()) {
		return nil, false
	}
	return c.session.handle(), true
}

// SignInWithEmailAndPassword implements provider.Provider.
func (c *Client) SignInWithEmailAndPassword(email, password string) task.Task[*models.User] {
	return c.run(func(ctx context.Context) (*models.User, error) {
		resp, err := c.api.SignIn(ctx, connect.NewRequest(&api.SignInRequest{
			Email:    email,
			Password: password,
		}))
		if err != nil {
			return nil, translateError(err)
		}
		return c.startSession(resp.Msg.Token, resp.Msg.User), nil
	})
}

// CreateUserWithEmailAndPassword implements provider.Provider.
func (c *Client) CreateUserWithEmailAndPassword(email, password string) task.Task[*models.User] {
	return c.run(func(ctx context.Context) (*models.User, error) {
		resp, err := c.api.SignUp(ctx, connect.NewRequest(&api.SignUpRequest{
			Email:    email,
			Password: password,
		}))
		if err != nil {
			return nil, translateError(err)
		}
		return c.startSession(resp.Msg.Token, resp.Msg.User), nil
	})
}

// UpdateProfile implements provider.Provider.
func (c *Client) UpdateProfile(displayName string) task.Task[struct{}] {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return task.Completed(struct{}{}, provider.ErrNoCurrentUser)
	}

	c.wg.Add(1)
	return task.Run(c.ctx, func(ctx context.Context) (struct{}, error) {
		defer c.wg.Done()

		req := connect.NewRequest(&api.UpdateProfileRequest{DisplayName: displayName})
		req.Header().Set("Authorization", "Bearer "+session.Token)
		resp, err := c.api.UpdateProfile(ctx, req)
		if err != nil {
			return struct{}{}, translateError(err)
		}

		name := displayName
		if resp.Msg.User != nil {
			name = resp.Msg.User.DisplayName
		}

		c.mu.Lock()
		if c.session != nil && c.session.Token == session.Token {
			updated := *c.session
			updated.User.DisplayName = name
			c.session = &updated
			c.persist(&updated)
		}
		c.mu.Unlock()
		return struct{}{}, nil
	})
}

// SignOut implements provider.Provider. The local session is cleared
// immediately; the server-side revocation runs in the background and its
// failure is only logged. Close does not cut the revocation short; it waits
// for it up to signOutTimeout.
func (c *Client) SignOut() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("Failed to clear stored session", "error", err)
	}
	c.mu.Unlock()

	if session == nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), signOutTimeout)
		defer cancel()

		req := connect.NewRequest(&api.SignOutRequest{})
		req.Header().Set("Authorization", "Bearer "+session.Token)
		if _, err := c.api.SignOut(ctx, req); err != nil {
			c.logger.Warn("Failed to revoke session", "user_id", session.User.ID, "error", err)
		}
	}()
}

func (c *Client) run(fn func(context.Context) (*models.User, error)) task.Task[*models.User] {
	c.wg.Add(1)
	return task.Run(c.ctx, func(ctx context.Context) (*models.User, error) {
		defer c.wg.Done()
		return fn(ctx)
	})
}

func (c *Client) startSession(token string, user *api.User) *models.User {
	session := &Session{Token: token}
	if user != nil {
		session.User = SessionUser{
			ID:          user.Id,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
	}

	c.mu.Lock()
	c.session = session
	c.persist(session)
	c.mu.Unlock()

	return session.handle()
}

// persist must be called with mu held.
func (c *Client) persist(s *Session) {
	if err := c.sessions.Save(s); err != nil {
		c.logger.Warn("Failed to store session", "user_id", s.User.ID, "error", err)
	}
}

// translateError maps a Connect error onto the provider error taxonomy,
// keeping the server's message for display.
func translateError(err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return provider.NewError(provider.CodeUnknown, err.Error(), err)
	}

	message := connectErr.Message()
	switch connectErr.Meta().Get(api.ReasonHeader) {
	case api.ReasonInvalidCredentials:
		return provider.NewError(provider.CodeInvalidCredentials, message, err)
	case api.ReasonAccountExists:
		return provider.NewError(provider.CodeAccountExists, message, err)
	case api.ReasonWeakCredential:
		return provider.NewError(provider.CodeWeakCredential, message, err)
	case api.ReasonInvalidArgument:
		return provider.NewError(provider.CodeInvalidArgument, message, err)
	}

	switch connectErr.Code() {
	case connect.CodeUnauthenticated:
		return provider.NewError(provider.CodeInvalidCredentials, message, err)
	case connect.CodeAlreadyExists:
		return provider.NewError(provider.CodeAccountExists, message, err)
	case connect.CodeInvalidArgument:
		return provider.NewError(provider.CodeInvalidArgument, message, err)
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded:
		return provider.NewError(provider.CodeNetworkUnavailable, message, err)
	default:
		return provider.NewError(provider.CodeUnknown, message, err)
	}
}
