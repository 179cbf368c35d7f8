package symcoro

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/webriots/symcoro/internal/rendezvous"
)

// Suspender lets a coroutine's body suspend itself. There is exactly
// one per coroutine, handed to the body at creation; it must not be
// shared with other goroutines.
type Suspender[R any] struct {
	rx    *rendezvous.Receiver[R]
	id    *identity
	state *stateCell
	busy  atomic.Bool
}

func (s *Suspender[R]) release() {
	s.rx.Release()
}

// Equal reports whether s and o belong to the same coroutine.
func (s *Suspender[R]) Equal(o *Suspender[R]) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.rx.SameChannel(o.rx)
}

// ID returns the identifier of the coroutine s belongs to.
func (s *Suspender[R]) ID() uuid.UUID {
	return s.id.id
}

// TryYieldTo suspends the coroutine owning s and resumes other with
// value, in one step. It returns the value the coroutine is resumed
// with next.
//
// If other cannot be resumed, the error is a *YieldError holding
// value, matching ErrPeerUnresumable (or ErrHandleClosed), and the
// caller is not suspended. If, once suspended, nothing can resume the
// caller anymore because every handle to it was closed, the error
// matches ErrCanceled. A context that ends during either step is
// reported with the context's error.
func TryYieldTo[R, Y any](ctx context.Context, s *Suspender[R], other *Coroutine[Y], value Y) (R, error) {
	var zero R

	if !s.busy.CompareAndSwap(false, true) {
		panic(ErrSuspenderBusy)
	}
	defer s.busy.Store(false)

	if s.rx.Released() {
		return zero, &YieldError[Y]{Value: value, cause: ErrCanceled}
	}

	logger := s.id.log.WithField("peer", other.id.String())
	logger.Trace("yielding")

	if err := other.resume(ctx, value); err != nil {
		return zero, yieldErrorFrom(err)
	}

	s.state.store(Suspended)
	v, err := s.rx.Recv(ctx)
	s.state.store(Running)
	if err != nil {
		cause := err
		if errors.Is(err, rendezvous.ErrDisconnected) {
			cause = ErrCanceled
		}
		logger.WithError(cause).Debug("suspended coroutine cannot be resumed")
		return zero, &YieldError[Y]{Value: value, Delivered: true, cause: cause}
	}

	logger.Trace("resumed")
	return v, nil
}

// YieldTo is TryYieldTo for code where the coroutine topology rules
// its errors out: other is known to still be resumable, and some
// handle to the caller is known to stay open. It blocks without a
// deadline and panics if either assumption is violated.
func YieldTo[R, Y any](s *Suspender[R], other *Coroutine[Y], value Y) R {
	v, err := TryYieldTo(context.Background(), s, other, value)
	if err == nil {
		return v
	}

	var ye *YieldError[Y]
	switch {
	case errors.Is(err, ErrUnresumable), errors.Is(err, ErrHandleClosed):
		panic(fmt.Errorf("symcoro: other coroutine should still exist: %w", err))
	case errors.As(err, &ye) && !ye.Delivered:
		panic(fmt.Errorf("symcoro: suspender used after its coroutine finished: %w", err))
	default:
		panic(fmt.Errorf("symcoro: own coroutine handle should still exist: %w", err))
	}
}
