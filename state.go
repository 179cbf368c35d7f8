package symcoro

import "sync/atomic"

// State is the lifecycle position of a coroutine, as observed through
// its Future.
type State int32

const (
	// Unstarted: the future exists but has not been awaited.
	Unstarted State = iota
	// AwaitingInput: a with-input coroutine waits for its first
	// resume.
	AwaitingInput
	// Running: the body executes between suspension points.
	Running
	// Suspended: the body is parked inside TryYieldTo, having handed
	// control elsewhere.
	Suspended
	// Finished: the body returned.
	Finished
	// Canceled: the coroutine stopped with no path to resumption,
	// either because nothing could resume it or because its context
	// ended while it waited for input or was suspended.
	Canceled
)

var stateNames = [...]string{
	Unstarted:     "unstarted",
	AwaitingInput: "awaiting-input",
	Running:       "running",
	Suspended:     "suspended",
	Finished:      "finished",
	Canceled:      "canceled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State {
	return State(c.v.Load())
}

func (c *stateCell) store(s State) {
	c.v.Store(int32(s))
}
