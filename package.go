// Package symcoro provides symmetric coroutines for Go: units of
// logic that transfer control directly to one another, so coroutine A
// can suspend itself and resume coroutine B in a single step, rather
// than only yielding back to whoever resumed it.
//
// A coroutine is created with New, or with WithInput when it needs a
// value before it can start. Both return a Coroutine handle and a
// Future. The handle is how others resume the coroutine; it can be
// cloned freely and shared between goroutines. The Future is the
// coroutine's execution: nothing runs until it is awaited, and the
// goroutine that awaits it is the one that runs the body. Join awaits
// several futures on separate goroutines.
//
// The body receives a Suspender, the coroutine's private capability to
// suspend itself. TryYieldTo resumes another coroutine with a value
// and suspends the caller until something resumes it in turn. Every
// way a handoff can fail is reported by a typed error that gives the
// undelivered value back: ErrPeerUnresumable when the other coroutine
// is gone, ErrCanceled when nothing can resume the caller anymore,
// ErrStartCanceled when a with-input coroutine is abandoned before it
// starts. YieldTo is the variant for code whose topology rules those
// failures out; it panics if they happen anyway.
//
// Coroutines that need each other's handles before either starts can
// refer to them through a Cell filled after creation:
//
//	var pong symcoro.Cell[*symcoro.Coroutine[int]]
//	ping, pingFut := symcoro.New(func(ctx context.Context, _ *symcoro.Coroutine[int], s *symcoro.Suspender[int]) (int, error) {
//		return symcoro.TryYieldTo(ctx, s, pong.Get(), 5)
//	})
//	pongHandle, pongFut := symcoro.WithInput(func(ctx context.Context, _ *symcoro.Coroutine[int], _ *symcoro.Suspender[int], in int) (int, error) {
//		return in, ping.Resume(ctx, in+1)
//	})
//	_ = pong.Set(pongHandle)
//	err := symcoro.Join(ctx, pingFut, pongFut)
//
// Cancellation is structural. Closing every handle of a coroutine
// makes it unresumable; a coroutine whose future finishes or is
// discarded can no longer accept values. Timeouts come from the
// context passed to Resume and TryYieldTo.
package symcoro
