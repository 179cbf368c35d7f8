package demo

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/webriots/symcoro"
)

// Token travels around the ring. Every hop adds one to Count; Done
// asks the receiver to pass it on once more and exit.
type Token struct {
	Count int
	Done  bool
}

type link = symcoro.Cell[*symcoro.Coroutine[Token]]

// Ring passes a Token around three coroutines, a -> b -> c -> a, for
// the given number of laps. a then sends a done token around once
// more so everyone exits. It returns the final count, which is three
// per lap.
func Ring(ctx context.Context, logger log.FieldLogger, laps int) (int, *Transcript, error) {
	t := newTranscript(logger)

	var a, b, c link

	ah, aFut := symcoro.New(
		func(ctx context.Context, _ *symcoro.Coroutine[Token], s *symcoro.Suspender[Token]) (int, error) {
			next := b.Get()
			count := 0
			for lap := 0; lap < laps; lap++ {
				got, err := symcoro.TryYieldTo(ctx, s, next, Token{Count: count + 1})
				if err != nil {
					return count, err
				}
				count = got.Count
				t.record("a", "lap %d complete at %d", lap+1, count)
			}

			t.record("a", "sending done at %d", count)
			if _, err := symcoro.TryYieldTo(ctx, s, next, Token{Count: count, Done: true}); err != nil {
				return count, err
			}
			t.record("a", "exiting")
			return count, nil
		},
		symcoro.WithName("a"), symcoro.WithLogger(logger),
	)
	bh, bFut := symcoro.WithInput(relay(t, "b", &c), symcoro.WithName("b"), symcoro.WithLogger(logger))
	ch, cFut := symcoro.WithInput(relay(t, "c", &a), symcoro.WithName("c"), symcoro.WithLogger(logger))

	for _, set := range []struct {
		cell   *link
		handle *symcoro.Coroutine[Token]
	}{{&a, ah}, {&b, bh}, {&c, ch}} {
		if err := set.cell.Set(set.handle); err != nil {
			return 0, t, err
		}
	}

	if err := symcoro.Join(ctx, aFut, bFut, cFut); err != nil {
		return 0, t, err
	}

	count, err := aFut.Await(ctx)
	return count, t, err
}

// relay forwards every token to next with one added, until a done
// token arrives; that one is passed on unchanged with a plain resume.
func relay(t *Transcript, name string, next *link) func(context.Context, *symcoro.Coroutine[Token], *symcoro.Suspender[Token], Token) (int, error) {
	return func(ctx context.Context, _ *symcoro.Coroutine[Token], s *symcoro.Suspender[Token], in Token) (int, error) {
		hops := 0
		for !in.Done {
			hops++
			out := Token{Count: in.Count + 1}
			t.record(name, "passing %d", out.Count)

			var err error
			if in, err = symcoro.TryYieldTo(ctx, s, next.Get(), out); err != nil {
				return hops, err
			}
		}

		t.record(name, "passing done")
		return hops, next.Get().Resume(ctx, in)
	}
}
