package symcoro

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/webriots/symcoro/internal/rendezvous"
)

// Coroutine is a handle for resuming one coroutine. Handles are
// cheap to Clone and safe to share between goroutines; every clone
// addresses the same coroutine.
//
// A coroutine stays resumable while at least one of its handles is
// open. Close gives a handle up.
type Coroutine[In any] struct {
	tx *rendezvous.Sender[In]
	id *identity
}

func prepare[In any](opts []Option) (handle, self *Coroutine[In], s *Suspender[In]) {
	id := newIdentity(opts)
	tx, rx := rendezvous.New[In]()

	handle = &Coroutine[In]{tx: tx, id: id}
	self = handle.Clone()
	s = &Suspender[In]{rx: rx, id: id, state: new(stateCell)}
	return
}

// New creates a coroutine that takes no initial input. Its body runs
// as soon as the returned Future is awaited.
//
// The body receives its own handle and its Suspender. That self
// handle belongs to the future and is closed when the body returns;
// Clone it to give out copies that must outlive the body.
func New[In, Out any](
	body func(ctx context.Context, self *Coroutine[In], s *Suspender[In]) (Out, error),
	opts ...Option,
) (*Coroutine[In], *Future[Out]) {
	handle, self, s := prepare[In](opts)

	run := func(ctx context.Context) (Out, error) {
		s.state.store(Running)
		return body(ctx, self, s)
	}
	release := func() {
		self.Close()
		s.release()
	}

	return handle, newFuture(s.id, s.state, run, release)
}

// WithInput creates a coroutine that takes an initial input. Awaiting
// its Future first waits for a Resume (or a yield-to) that supplies
// the input; only then does the body run.
//
// If every handle is closed before that happens, the future completes
// with ErrStartCanceled and the body never runs.
func WithInput[In, Out any](
	body func(ctx context.Context, self *Coroutine[In], s *Suspender[In], input In) (Out, error),
	opts ...Option,
) (*Coroutine[In], *Future[Out]) {
	handle, self, s := prepare[In](opts)

	run := func(ctx context.Context) (Out, error) {
		var zero Out

		s.state.store(AwaitingInput)
		// The self handle is held back until the body starts, so it
		// does not count as a resumer.
		stop, unwatch := s.rx.SendersAtMost(1)
		input, err := s.rx.RecvUntil(ctx, stop)
		unwatch()
		if err != nil {
			if errors.Is(err, rendezvous.ErrDisconnected) {
				return zero, ErrStartCanceled
			}
			return zero, err
		}

		s.state.store(Running)
		return body(ctx, self, s, input)
	}
	release := func() {
		self.Close()
		s.release()
	}

	return handle, newFuture(s.id, s.state, run, release)
}

// Resume delivers input to the coroutine, resuming it from its most
// recent suspension (or starting it, for a with-input coroutine that
// has not started yet). It blocks until the coroutine accepts the
// value.
//
// On failure the returned error is a *ResumeError holding input. It
// matches ErrUnresumable if the coroutine finished or was discarded,
// ErrHandleClosed if c was closed, or the context's error.
func (c *Coroutine[In]) Resume(ctx context.Context, input In) error {
	if err := c.resume(ctx, input); err != nil {
		return err
	}
	return nil
}

func (c *Coroutine[In]) resume(ctx context.Context, input In) *ResumeError[In] {
	err := c.tx.Send(ctx, input)
	if err == nil {
		return nil
	}

	var cause error
	switch {
	case errors.Is(err, rendezvous.ErrDisconnected):
		cause = ErrUnresumable
	case errors.Is(err, rendezvous.ErrReleased):
		cause = ErrHandleClosed
	default:
		cause = err
	}

	c.id.log.WithError(cause).Debug("resume failed")
	return &ResumeError[In]{Input: input, cause: cause}
}

// Clone returns another handle to the same coroutine. Cloning a
// closed handle panics with ErrHandleClosed.
func (c *Coroutine[In]) Clone() *Coroutine[In] {
	if c.tx.Released() {
		panic(ErrHandleClosed)
	}
	return &Coroutine[In]{tx: c.tx.Clone(), id: c.id}
}

// Close gives up this handle. Once every handle of a coroutine is
// closed, nothing can resume it. Close is idempotent.
func (c *Coroutine[In]) Close() {
	c.tx.Release()
}

// Equal reports whether c and o address the same coroutine.
func (c *Coroutine[In]) Equal(o *Coroutine[In]) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.tx.SameChannel(o.tx)
}

// ID returns the coroutine's identifier. It is for logging; use Equal
// to compare handles.
func (c *Coroutine[In]) ID() uuid.UUID {
	return c.id.id
}

// Name returns the name set with WithName, if any.
func (c *Coroutine[In]) Name() string {
	return c.id.name
}

func (c *Coroutine[In]) String() string {
	return "coroutine " + c.id.String()
}
