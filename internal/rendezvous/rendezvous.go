// Package rendezvous provides a zero-capacity, multi-producer,
// single-consumer channel that reports when the other side is gone.
//
// A plain unbuffered Go channel blocks forever once its peer stops
// listening. Here every Sender and the Receiver are released
// explicitly, and a blocked Send or Recv returns ErrDisconnected as
// soon as the opposite side can no longer complete it.
package rendezvous

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrDisconnected is returned by Send once the Receiver is
	// released, and by Recv once every Sender is released.
	ErrDisconnected = errors.New("rendezvous: disconnected")

	// ErrReleased is returned when an endpoint is used after its own
	// Release.
	ErrReleased = errors.New("rendezvous: endpoint released")
)

type channel[T any] struct {
	values chan T

	rxGone chan struct{}

	// txGone is closed when the last Sender is released.
	txGone chan struct{}

	mu       sync.Mutex
	senders  int
	watchers []*watcher
}

// watcher is closed once the live sender count drops to n or below.
type watcher struct {
	n  int
	ch chan struct{}
}

// New returns both endpoints of a fresh channel. The Sender is the
// only live sender.
func New[T any]() (*Sender[T], *Receiver[T]) {
	c := &channel[T]{
		values:  make(chan T),
		rxGone:  make(chan struct{}),
		txGone:  make(chan struct{}),
		senders: 1,
	}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// watch returns a channel closed once at most n senders remain, and
// a func that unregisters it.
func (c *channel[T]) watch(n int) (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := &watcher{n: n, ch: make(chan struct{})}
	if c.senders <= n {
		close(w.ch)
		return w.ch, func() {}
	}
	c.watchers = append(c.watchers, w)
	return w.ch, func() { c.unwatch(w) }
}

func (c *channel[T]) unwatch(w *watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, o := range c.watchers {
		if o == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			return
		}
	}
}

func (c *channel[T]) addSender() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.senders == 0 {
		panic("rendezvous: clone of a channel with no live senders")
	}
	c.senders++
}

func (c *channel[T]) dropSender() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.senders--
	if c.senders == 0 {
		close(c.txGone)
	}
	kept := c.watchers[:0]
	for _, w := range c.watchers {
		if c.senders <= w.n {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	c.watchers = kept
}

// Sender is one send endpoint. Clones share the channel.
type Sender[T any] struct {
	c        *channel[T]
	released atomic.Bool
}

// Clone returns another Sender on the same channel. Cloning a
// released Sender panics.
func (s *Sender[T]) Clone() *Sender[T] {
	if s.released.Load() {
		panic(ErrReleased)
	}
	s.c.addSender()
	return &Sender[T]{c: s.c}
}

// SameChannel reports whether s and o address the same channel.
func (s *Sender[T]) SameChannel(o *Sender[T]) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.c == o.c
}

// Send blocks until the Receiver takes v. If the Receiver is
// released first, Send returns ErrDisconnected; if ctx ends first, it
// returns the context's error. v is never delivered when an error is
// returned.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if s.released.Load() {
		return ErrReleased
	}

	select {
	case <-s.c.rxGone:
		return ErrDisconnected
	default:
	}

	select {
	case s.c.values <- v:
		return nil
	case <-s.c.rxGone:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnected returns a channel closed once the Receiver is
// released.
func (s *Sender[T]) Disconnected() <-chan struct{} {
	return s.c.rxGone
}

// Released reports whether Release was called on s.
func (s *Sender[T]) Released() bool {
	return s.released.Load()
}

// Release gives up this endpoint. It is safe to call more than once.
func (s *Sender[T]) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.c.dropSender()
	}
}

// Receiver is the single receive endpoint of a channel.
type Receiver[T any] struct {
	c        *channel[T]
	released atomic.Bool
}

// Recv blocks until a value arrives, every Sender is released
// (ErrDisconnected), or ctx ends.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	return r.RecvUntil(ctx, r.c.txGone)
}

// RecvUntil is Recv with a caller-supplied disconnect signal: once
// stop is closed and no sender is offering a value, it returns
// ErrDisconnected.
func (r *Receiver[T]) RecvUntil(ctx context.Context, stop <-chan struct{}) (T, error) {
	var zero T
	if r.released.Load() {
		return zero, ErrReleased
	}

	select {
	case v := <-r.c.values:
		return v, nil
	case <-stop:
		// A sender racing its own release may still be parked on the
		// channel; prefer its value.
		select {
		case v := <-r.c.values:
			return v, nil
		default:
			return zero, ErrDisconnected
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// SendersAtMost returns a channel closed once n or fewer Senders are
// live. Call stop once the channel is no longer waited on.
func (r *Receiver[T]) SendersAtMost(n int) (done <-chan struct{}, stop func()) {
	if n == 0 {
		return r.c.txGone, func() {}
	}
	return r.c.watch(n)
}

// SameChannel reports whether r and o are the same channel's
// receiver.
func (r *Receiver[T]) SameChannel(o *Receiver[T]) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.c == o.c
}

// Released reports whether Release was called on r.
func (r *Receiver[T]) Released() bool {
	return r.released.Load()
}

// Release gives up the receive side. Blocked and future Sends fail
// with ErrDisconnected.
func (r *Receiver[T]) Release() {
	if r.released.CompareAndSwap(false, true) {
		close(r.c.rxGone)
	}
}
