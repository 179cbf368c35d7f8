package symcoro

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner is anything that runs to completion under a context. Every
// *Future is a Runner.
type Runner interface {
	Run(ctx context.Context) error
}

// Join runs each runner on its own goroutine and waits for all of
// them. It returns the first non-nil error; the context passed to the
// others is canceled at that point, which interrupts their pending
// TryYieldTo and Resume calls.
func Join(ctx context.Context, runners ...Runner) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			return r.Run(ctx)
		})
	}
	return g.Wait()
}
