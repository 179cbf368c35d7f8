package demo

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/webriots/symcoro"
)

// item is what the worker yields to main. A zero item tells main the
// worker has finished.
type item struct {
	n  int
	ok bool
}

// PingPong runs two coroutines that hand control back and forth.
// worker starts with the input main gives it, yields 0 through
// rounds-1 to main, and main answers each with a counter starting at
// start. When the worker runs out it resumes main with an empty item
// and both exit. It returns main's final counter.
func PingPong(ctx context.Context, logger log.FieldLogger, rounds, start int) (int, *Transcript, error) {
	t := newTranscript(logger)

	var mainCell symcoro.Cell[*symcoro.Coroutine[item]]

	worker, workerFut := symcoro.WithInput(
		func(ctx context.Context, _ *symcoro.Coroutine[int], s *symcoro.Suspender[int], input int) (int, error) {
			t.record("worker", "started with input %d", input)
			main := mainCell.Get()

			for i := 0; i < rounds; i++ {
				t.record("worker", "yielding %d", i)
				got, err := symcoro.TryYieldTo(ctx, s, main, item{n: i, ok: true})
				if err != nil {
					return i, err
				}
				t.record("worker", "got %d from main", got)
			}

			if err := main.Resume(ctx, item{}); err != nil {
				return rounds, err
			}
			t.record("worker", "exiting")
			return rounds, nil
		},
		symcoro.WithName("worker"), symcoro.WithLogger(logger),
	)
	main, mainFut := symcoro.New(
		func(ctx context.Context, _ *symcoro.Coroutine[item], s *symcoro.Suspender[item]) (int, error) {
			t.record("main", "started")

			counter := start
			for {
				t.record("main", "resuming worker with %d", counter)
				got, err := symcoro.TryYieldTo(ctx, s, worker, counter)
				if err != nil {
					return counter, err
				}
				if !got.ok {
					break
				}
				t.record("main", "got %d from worker", got.n)
				counter++
			}

			t.record("main", "exiting")
			return counter, nil
		},
		symcoro.WithName("main"), symcoro.WithLogger(logger),
	)
	if err := mainCell.Set(main); err != nil {
		return 0, t, err
	}

	if err := symcoro.Join(ctx, workerFut, mainFut); err != nil {
		return 0, t, err
	}

	counter, err := mainFut.Await(ctx)
	return counter, t, err
}
