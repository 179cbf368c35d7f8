package symcoro

import (
	"context"
	"errors"
)

var (
	// ErrCanceled reports that a coroutine can never run again: it
	// is parked at a suspension point and nothing can resume it.
	ErrCanceled = errors.New("symcoro: coroutine canceled")

	// ErrStartCanceled is returned by a with-input coroutine's future
	// when every handle was closed before an initial input arrived.
	// The body never ran.
	ErrStartCanceled error = &kindError{"symcoro: coroutine handle closed before start", ErrCanceled}

	// ErrDiscarded is returned by Await on a discarded future.
	ErrDiscarded error = &kindError{"symcoro: future discarded", ErrCanceled}

	// ErrUnresumable reports that a coroutine's suspender is gone, so
	// nothing can deliver a value to it anymore.
	ErrUnresumable = errors.New("symcoro: coroutine suspender released")

	// ErrPeerUnresumable is the yield-to form of ErrUnresumable.
	ErrPeerUnresumable error = &kindError{"symcoro: other coroutine's suspender released", ErrUnresumable}

	// ErrHandleClosed is returned when a closed handle is used.
	ErrHandleClosed = errors.New("symcoro: coroutine handle closed")

	// ErrSuspenderBusy is the panic value when a Suspender is used by
	// two goroutines at once.
	ErrSuspenderBusy = errors.New("symcoro: suspender used concurrently")

	ErrCellAlreadySet = errors.New("symcoro: cell already set")
	ErrCellEmpty      = errors.New("symcoro: cell read before set")
)

// kindError is a sentinel that also matches a broader sentinel.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.parent
}

// ResumeError is returned by Resume. Input is the value that could
// not be delivered.
type ResumeError[T any] struct {
	Input T
	cause error
}

func (e *ResumeError[T]) Error() string {
	return e.cause.Error()
}

func (e *ResumeError[T]) Unwrap() error {
	return e.cause
}

// YieldError is returned by TryYieldTo.
//
// When Delivered is false the other coroutine never received Value.
// When Delivered is true Value reached the other coroutine, but the
// caller could not be resumed afterwards.
type YieldError[T any] struct {
	Value     T
	Delivered bool
	cause     error
}

func (e *YieldError[T]) Error() string {
	return e.cause.Error()
}

func (e *YieldError[T]) Unwrap() error {
	return e.cause
}

// suspendInterrupted reports whether the caller was parked after
// delivering Value and its context ended before it was resumed.
func (e *YieldError[T]) suspendInterrupted() bool {
	return e.Delivered && isContextError(e.cause)
}

// interruption is implemented by every YieldError instantiation.
type interruption interface {
	suspendInterrupted() bool
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func yieldErrorFrom[T any](err *ResumeError[T]) *YieldError[T] {
	cause := err.cause
	if cause == ErrUnresumable {
		cause = ErrPeerUnresumable
	}
	return &YieldError[T]{Value: err.Input, cause: cause}
}
