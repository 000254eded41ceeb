// Package providertest provides a programmable identity provider for tests.
package providertest

import (
	"sync"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/task"
)

var _ provider.Provider = (*Stub)(nil)

// Stub is an in-memory provider. Each operation runs its configured func on
// a new goroutine and completes the returned task with its outcome. A nil
// func succeeds with a user derived from the arguments.
//
// When Gate is non-nil, every operation waits for it to be closed before
// completing, which lets tests observe the in-flight state.
type Stub struct {
	SignInFunc        func(email, password string) (*models.User, error)
	CreateUserFunc    func(email, password string) (*models.User, error)
	UpdateProfileFunc func(displayName string) error
	Gate              chan struct{}

	mu       sync.Mutex
	current  *models.User
	signIns  int
	signUps  int
	updates  int
	signOuts int
}

// NewStub creates a stub whose session is signed in as current, if non-nil.
func NewStub(current *models.User) *Stub {
	return &Stub{current: current}
}

// CurrentUser implements provider.Provider.
func (s *Stub) CurrentUser() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	u := *s.current
	return &u, true
}

// SignInWithEmailAndPassword implements provider.Provider.
func (s *Stub) SignInWithEmailAndPassword(email, password string) task.Task[*models.User] {
	s.mu.Lock()
	s.signIns++
	s.mu.Unlock()

	return s.start(func() (*models.User, error) {
		if s.SignInFunc != nil {
			return s.SignInFunc(email, password)
		}
		return &models.User{ID: "user-" + email, Email: email}, nil
	})
}

// CreateUserWithEmailAndPassword implements provider.Provider.
func (s *Stub) CreateUserWithEmailAndPassword(email, password string) task.Task[*models.User] {
	s.mu.Lock()
	s.signUps++
	s.mu.Unlock()

	return s.start(func() (*models.User, error) {
		if s.CreateUserFunc != nil {
			return s.CreateUserFunc(email, password)
		}
		return &models.User{ID: "user-" + email, Email: email}, nil
	})
}

// UpdateProfile implements provider.Provider.
func (s *Stub) UpdateProfile(displayName string) task.Task[struct{}] {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()

	src := task.NewSource[struct{}]()
	go func() {
		s.wait()
		if s.UpdateProfileFunc != nil {
			if err := s.UpdateProfileFunc(displayName); err != nil {
				src.Reject(err)
				return
			}
		}
		s.mu.Lock()
		if s.current == nil {
			s.mu.Unlock()
			src.Reject(provider.ErrNoCurrentUser)
			return
		}
		s.current.DisplayName = displayName
		s.mu.Unlock()
		src.Resolve(struct{}{})
	}()
	return src.Task()
}

// SignOut implements provider.Provider.
func (s *Stub) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	s.current = nil
}

// Calls returns how many times each operation was invoked.
func (s *Stub) Calls() (signIns, signUps, updates, signOuts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signIns, s.signUps, s.updates, s.signOuts
}

func (s *Stub) start(fn func() (*models.User, error)) task.Task[*models.User] {
	src := task.NewSource[*models.User]()
	go func() {
		s.wait()
		user, err := fn()
		if err != nil {
			src.Reject(err)
			return
		}
		if user != nil {
			s.mu.Lock()
			u := *user
			s.current = &u
			s.mu.Unlock()
		}
		src.Resolve(user)
	}()
	return src.Task()
}

func (s *Stub) wait() {
	if s.Gate != nil {
		<-s.Gate
	}
}
