// Package task provides single-shot asynchronous results and a bridge that
// turns them into blocking, context-aware calls.
//
// A Task completes exactly once, with either a value or an error. Producers
// create one through a Source; consumers either register a completion
// listener with OnComplete or block on it with Await.
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrNilRejection is the error a task completes with when it is rejected
// with a nil error.
var ErrNilRejection = errors.New("task rejected without an error")

// Task is a pending operation that invokes its completion listeners exactly
// once.
type Task[T any] interface {
	// OnComplete registers fn to run when the task completes. If the task has
	// already completed, fn runs immediately on the calling goroutine.
	// The returned func removes the registration and is safe to call more
	// than once, including after completion.
	OnComplete(fn func(T, error)) (remove func())
}

// Source produces a Task and completes it.
type Source[T any] struct {
	mu        sync.Mutex
	done      bool
	value     T
	err       error
	nextID    uint64
	listeners map[uint64]func(T, error)
}

// NewSource creates a Source whose task is pending.
func NewSource[T any]() *Source[T] {
	return &Source[T]{listeners: make(map[uint64]func(T, error))}
}

// Task returns the read side of the source.
func (s *Source[T]) Task() Task[T] {
	return view[T]{s}
}

// Resolve completes the task with v. It reports false if the task had
// already completed.
func (s *Source[T]) Resolve(v T) bool {
	return s.complete(v, nil)
}

// Reject completes the task with err. It reports false if the task had
// already completed.
func (s *Source[T]) Reject(err error) bool {
	if err == nil {
		err = ErrNilRejection
	}
	var zero T
	return s.complete(zero, err)
}

func (s *Source[T]) complete(v T, err error) bool {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return false
	}
	s.done = true
	s.value = v
	s.err = err
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(v, err)
	}
	return true
}

func (s *Source[T]) onComplete(fn func(T, error)) func() {
	s.mu.Lock()
	if s.done {
		v, err := s.value, s.err
		s.mu.Unlock()
		fn(v, err)
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// pending returns the number of registered listeners.
func (s *Source[T]) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

type view[T any] struct {
	s *Source[T]
}

func (v view[T]) OnComplete(fn func(T, error)) func() {
	return v.s.onComplete(fn)
}

// Completed returns a task that has already completed with v and err.
func Completed[T any](v T, err error) Task[T] {
	s := NewSource[T]()
	if err != nil {
		s.Reject(err)
	} else {
		s.Resolve(v)
	}
	return s.Task()
}

// Run starts fn on a new goroutine and returns a task that completes with
// its outcome.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) Task[T] {
	s := NewSource[T]()
	go func() {
		v, err := fn(ctx)
		if err != nil {
			s.Reject(err)
			return
		}
		s.Resolve(v)
	}()
	return s.Task()
}

// Await blocks until t completes or ctx is done. A task error is returned
// as is. When ctx ends first the listener is removed and ctx.Err() is
// returned; a completion arriving afterwards is discarded.
func Await[T any](ctx context.Context, t Task[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	remove := t.OnComplete(func(v T, err error) {
		ch <- outcome{value: v, err: err}
	})
	defer remove()

	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
