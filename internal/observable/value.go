// Package observable provides a current-value holder with change
// notification.
package observable

import (
	"context"
	"sync"
)

// Reader is the read-only view of a Value.
type Reader[T any] interface {
	// Get returns the current value.
	Get() T

	// Subscribe streams the current value followed by every later change, in
	// order and without dropping any, until ctx is done. The channel is
	// closed afterwards.
	Subscribe(ctx context.Context) <-chan T
}

// Value holds a value written by a single owner and observed by any number
// of subscribers.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[*subscriber[T]]struct{}
}

var _ Reader[int] = (*Value[int])(nil)

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[*subscriber[T]]struct{}),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = x
	for s := range v.subs {
		s.push(x)
	}
}

// Subscribe implements Reader.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	s := &subscriber[T]{wake: make(chan struct{}, 1)}
	out := make(chan T)

	v.mu.Lock()
	s.push(v.current)
	v.subs[s] = struct{}{}
	v.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			v.mu.Lock()
			delete(v.subs, s)
			v.mu.Unlock()
		}()
		s.pump(ctx, out)
	}()
	return out
}

type subscriber[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
}

func (s *subscriber[T]) push(x T) {
	s.mu.Lock()
	s.queue = append(s.queue, x)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	x := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return x, true
}

func (s *subscriber[T]) pump(ctx context.Context, out chan<- T) {
	for {
		x, ok := s.pop()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- x:
		case <-ctx.Done():
			return
		}
	}
}
