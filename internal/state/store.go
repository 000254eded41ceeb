// Package state holds the observable authentication state consumed by the
// presentation layer.
//
// The Store owns two slots, one per operation. Each slot is absent (nil)
// until an operation runs, Loading while it runs, and then holds the
// terminal Success or Failure. Logout resets both slots to absent.
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/observable"
	"github.com/mmynk/authflow/internal/result"
)

// State is the value of a slot. nil means absent.
type State = *result.Result[*models.User]

// Gateway is the subset of the auth gateway the store drives.
type Gateway interface {
	CurrentUser() (*models.User, bool)
	Login(ctx context.Context, email, password string) *result.Result[*models.User]
	Signup(ctx context.Context, name, email, password string) *result.Result[*models.User]
	Logout()
}

// Store mediates calls into the gateway and publishes their progress.
type Store struct {
	gateway Gateway
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// commitMu orders terminal writes against cancellation so that a
	// cancelled job never writes.
	commitMu sync.Mutex

	loginState  *observable.Value[State]
	signupState *observable.Value[State]
}

// New creates a store. If the gateway already has a signed-in user, the
// login slot starts as Success for that user.
func New(gateway Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	var initial State
	if user, ok := gateway.CurrentUser(); ok && user != nil {
		initial = result.Success(user)
		logger.Debug("Restored session", "user_id", user.ID)
	}

	return &Store{
		gateway:     gateway,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		loginState:  observable.New(initial),
		signupState: observable.New[State](nil),
	}
}

// LoginState is the read-only login slot.
func (s *Store) LoginState() observable.Reader[State] {
	return s.loginState
}

// SignupState is the read-only signup slot.
func (s *Store) SignupState() observable.Reader[State] {
	return s.signupState
}

// Login sets the login slot to Loading and signs in on a separate
// goroutine. The slot is the only completion signal callers need; the
// returned Job allows cancelling or waiting.
func (s *Store) Login(email, password string) *Job {
	return s.launch(s.loginState, func(ctx context.Context) State {
		return s.gateway.Login(ctx, email, password)
	})
}

// Signup is Login's counterpart for the signup slot.
func (s *Store) Signup(name, email, password string) *Job {
	return s.launch(s.signupState, func(ctx context.Context) State {
		return s.gateway.Signup(ctx, name, email, password)
	})
}

// Logout signs out and resets both slots to absent.
func (s *Store) Logout() {
	s.gateway.Logout()
	s.loginState.Set(nil)
	s.signupState.Set(nil)
}

// Close cancels in-flight jobs and waits for them to return. Commands
// issued after Close do nothing.
func (s *Store) Close() {
	s.commitMu.Lock()
	s.cancel()
	s.commitMu.Unlock()
	s.wg.Wait()
}

func (s *Store) launch(slot *observable.Value[State], op func(context.Context) State) *Job {
	s.commitMu.Lock()
	if s.ctx.Err() != nil {
		s.commitMu.Unlock()
		return finishedJob()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	job := &Job{store: s, cancel: cancel, done: make(chan struct{})}
	slot.Set(result.Loading[*models.User]())
	s.wg.Add(1)
	s.commitMu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(job.done)
		defer cancel()

		res := op(ctx)

		s.commitMu.Lock()
		defer s.commitMu.Unlock()
		if ctx.Err() != nil {
			s.logger.Debug("Dropping result of cancelled job", "result", res)
			return
		}
		slot.Set(res)
	}()
	return job
}

// Job is a running login or signup.
type Job struct {
	store  *Store
	cancel context.CancelFunc
	done   chan struct{}
}

func finishedJob() *Job {
	done := make(chan struct{})
	close(done)
	return &Job{cancel: func() {}, done: done}
}

// Cancel stops the job. If the provider has not completed yet, the slot
// keeps its current value.
func (j *Job) Cancel() {
	if j.store == nil {
		return
	}
	j.store.commitMu.Lock()
	j.cancel()
	j.store.commitMu.Unlock()
}

// Done is closed once the job has returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}
