// Package result defines the three-state outcome of an asynchronous
// operation: in progress, succeeded with a value, or failed with an error.
package result

import (
	"errors"
	"fmt"
)

// ErrUnknown is the error carried by a failure constructed without one.
var ErrUnknown = errors.New("unknown error")

// Kind identifies which variant a Result holds.
type Kind uint8

const (
	KindLoading Kind = iota + 1
	KindSuccess
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Result is an immutable Loading, Success or Failure value. Only the
// constructors in this package produce valid results.
type Result[T any] struct {
	kind  Kind
	value T
	err   error
}

// Loading returns a result for an operation that is still running.
func Loading[T any]() *Result[T] {
	return &Result[T]{kind: KindLoading}
}

// Success returns a terminal result holding v.
func Success[T any](v T) *Result[T] {
	return &Result[T]{kind: KindSuccess, value: v}
}

// Failure returns a terminal result holding err.
func Failure[T any](err error) *Result[T] {
	if err == nil {
		err = ErrUnknown
	}
	return &Result[T]{kind: KindFailure, err: err}
}

// Kind reports the variant.
func (r *Result[T]) Kind() Kind {
	return r.kind
}

// Value returns the success payload. ok is false for Loading and Failure.
func (r *Result[T]) Value() (v T, ok bool) {
	if r.kind != KindSuccess {
		return v, false
	}
	return r.value, true
}

// Err returns the failure error, or nil for any other variant.
func (r *Result[T]) Err() error {
	return r.err
}

// Terminal reports whether the result is a Success or Failure.
func (r *Result[T]) Terminal() bool {
	return r.kind == KindSuccess || r.kind == KindFailure
}

func (r *Result[T]) String() string {
	switch r.kind {
	case KindSuccess:
		return fmt.Sprintf("Success(%v)", r.value)
	case KindFailure:
		return fmt.Sprintf("Failure(%v)", r.err)
	default:
		return r.kind.String()
	}
}

// Match calls exactly one of the handlers depending on the variant of r and
// returns its value. It panics on a result not built by this package.
func Match[T, R any](r *Result[T], onLoading func() R, onSuccess func(T) R, onFailure func(error) R) R {
	switch r.kind {
	case KindLoading:
		return onLoading()
	case KindSuccess:
		return onSuccess(r.value)
	case KindFailure:
		return onFailure(r.err)
	default:
		panic(fmt.Sprintf("result: invalid %s", r.kind))
	}
}
