package symcoro

import (
	"context"
	"errors"
	"sync/atomic"
)

// Future is the pending execution of a coroutine. Nothing runs until
// the first call to Await or Run, which executes the coroutine on the
// calling goroutine. To run several coroutines at once, await their
// futures on separate goroutines, or use Join.
type Future[Out any] struct {
	id      *identity
	state   *stateCell
	run     func(context.Context) (Out, error)
	release func()

	// claimed is set by whoever runs or discards the future.
	claimed atomic.Bool

	// closed once out, err and perr are final.
	done chan struct{}
	out  Out
	err  error
	perr error
}

func newFuture[Out any](
	id *identity,
	state *stateCell,
	run func(context.Context) (Out, error),
	release func(),
) *Future[Out] {
	return &Future[Out]{
		id:      id,
		state:   state,
		run:     run,
		release: release,
		done:    make(chan struct{}),
	}
}

// Await runs the coroutine to completion and returns the body's
// result. If another goroutine is already running it, Await waits for
// that run instead, or returns ctx's error if ctx ends first.
//
// A panic in the body is re-raised by Await, wrapped in an error that
// carries the original stack.
func (f *Future[Out]) Await(ctx context.Context) (Out, error) {
	if err := f.settle(ctx); err != nil {
		var zero Out
		return zero, err
	}
	if f.perr != nil {
		panic(f.perr)
	}
	return f.out, f.err
}

// Run is Await without the output. A panic in the body is returned as
// an error instead of re-raised.
func (f *Future[Out]) Run(ctx context.Context) error {
	if err := f.settle(ctx); err != nil {
		return err
	}
	if f.perr != nil {
		return f.perr
	}
	return f.err
}

// Done returns a channel closed once the future completes.
func (f *Future[Out]) Done() <-chan struct{} {
	return f.done
}

// State reports where the coroutine is in its lifecycle.
func (f *Future[Out]) State() State {
	return f.state.load()
}

// Discard abandons a future that has not started. Its suspender is
// released, so any pending or later resume of the coroutine fails,
// and Await returns ErrDiscarded. Discard reports false, doing
// nothing, if the future was already started or discarded.
func (f *Future[Out]) Discard() bool {
	if !f.claimed.CompareAndSwap(false, true) {
		return false
	}

	f.err = ErrDiscarded
	f.state.store(Canceled)
	f.release()
	close(f.done)

	f.id.log.Debug("coroutine discarded")
	return true
}

func (f *Future[Out]) settle(ctx context.Context) error {
	if f.claimed.CompareAndSwap(false, true) {
		f.execute(ctx)
		return nil
	}

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Future[Out]) execute(ctx context.Context) {
	defer close(f.done)
	defer f.release()
	defer func() {
		if p := recover(); p != nil {
			f.perr = newPanicError(p)
			f.state.store(Finished)
			f.id.log.WithError(f.perr).Debug("coroutine panicked")
		}
	}()

	f.id.log.Debug("coroutine started")
	f.out, f.err = f.run(ctx)
	last := f.state.load()

	var in interruption
	switch {
	case errors.Is(f.err, ErrStartCanceled):
		f.state.store(Canceled)
		f.id.log.Debug("coroutine canceled before start")
	case last == AwaitingInput && isContextError(f.err):
		f.state.store(Canceled)
		f.id.log.WithError(f.err).Debug("coroutine canceled before start")
	case errors.Is(f.err, ErrCanceled),
		errors.As(f.err, &in) && in.suspendInterrupted():
		f.state.store(Canceled)
		f.id.log.WithError(f.err).Debug("coroutine canceled")
	default:
		f.state.store(Finished)
		f.id.log.WithError(f.err).Debug("coroutine finished")
	}
}
