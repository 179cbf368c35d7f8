package symcoro

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestYieldToAndResume(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var b Cell[*Coroutine[int]]
	a, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		return TryYieldTo(ctx, s, b.Get(), 5)
	})
	bh, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, a.Resume(ctx, in+1)
	})
	r.NoError(b.Set(bh))

	r.NoError(Join(ctx, aFut, bFut))

	out, err := aFut.Await(ctx)
	r.NoError(err)
	r.Equal(6, out)

	out, err = bFut.Await(ctx)
	r.NoError(err)
	r.Equal(5, out)

	r.Equal(Finished, aFut.State())
	r.Equal(Finished, bFut.State())
}

func TestYieldToRoundTripSequence(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	const n = 10

	var (
		a Cell[*Coroutine[int]]
		b Cell[*Coroutine[int]]
	)

	ah, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) ([]int, error) {
		var got []int
		for i := 0; i < n; i++ {
			v, err := TryYieldTo(ctx, s, b.Get(), i)
			if err != nil {
				return got, err
			}
			got = append(got, v)
		}
		return got, nil
	})
	bh, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int], in int) ([]int, error) {
		var seen []int
		for {
			seen = append(seen, in)
			if in == n-1 {
				return seen, a.Get().Resume(ctx, in*10)
			}

			var err error
			if in, err = TryYieldTo(ctx, s, a.Get(), in*10); err != nil {
				return seen, err
			}
		}
	})
	r.NoError(a.Set(ah))
	r.NoError(b.Set(bh))

	r.NoError(Join(ctx, aFut, bFut))

	got, _ := aFut.Await(ctx)
	seen, _ := bFut.Await(ctx)
	for i := 0; i < n; i++ {
		r.Equal(i, seen[i])
		r.Equal(i*10, got[i])
	}
}

// Four coroutines carrying different value types, driven from
// several goroutines.
func TestMixedTypesAcrossGoroutines(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var (
		ac Cell[*Coroutine[uint8]]
		bc Cell[*Coroutine[uint16]]
		cc Cell[*Coroutine[uint32]]
		dc Cell[*Coroutine[uint64]]
	)

	a, aFut := WithInput(func(ctx context.Context, _ *Coroutine[uint8], s *Suspender[uint8], in1 uint8) (uint8, error) {
		in2 := YieldTo(s, bc.Get(), uint16(in1+1))
		in3 := YieldTo(s, cc.Get(), uint32(in2+1))
		in4 := YieldTo(s, dc.Get(), uint64(in3+1))
		return in4 + 1, nil
	}, WithName("a"))
	r.NoError(ac.Set(a))

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[uint16], _ *Suspender[uint16], in uint16) (struct{}, error) {
		return struct{}{}, cc.Get().Resume(ctx, uint32(in*2))
	}, WithName("b"))
	r.NoError(bc.Set(b))

	c, cFut := WithInput(func(ctx context.Context, _ *Coroutine[uint32], s *Suspender[uint32], in1 uint32) (struct{}, error) {
		in2 := YieldTo(s, dc.Get(), uint64(in1*3))
		return struct{}{}, dc.Get().Resume(ctx, uint64(in2*3))
	}, WithName("c"))
	r.NoError(cc.Set(c))

	d, dFut := WithInput(func(ctx context.Context, _ *Coroutine[uint64], s *Suspender[uint64], in1 uint64) (struct{}, error) {
		in2 := YieldTo(s, ac.Get(), uint8(in1))
		in3 := YieldTo(s, ac.Get(), uint8(in2))
		return struct{}{}, ac.Get().Resume(ctx, uint8(in3))
	}, WithName("d"))
	r.NoError(dc.Set(d))

	var g errgroup.Group
	g.Go(func() error { return Join(ctx, dFut, bFut) })
	g.Go(func() error { return aFut.Run(ctx) })

	r.NoError(ac.Get().Resume(ctx, 234))

	_, err := cFut.Await(ctx)
	r.NoError(err)
	r.NoError(g.Wait())

	out, err := aFut.Await(ctx)
	r.NoError(err)
	r.Equal(uint8(139), out)
}

func TestStartCanceled(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	ran := false
	x, fut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		ran = true
		return in, nil
	})
	x.Close()

	_, err := fut.Await(ctx)
	r.ErrorIs(err, ErrStartCanceled)
	r.ErrorIs(err, ErrCanceled)
	r.False(ran)
	r.Equal(Canceled, fut.State())

	err = x.Resume(ctx, 17)
	var re *ResumeError[int]
	r.ErrorAs(err, &re)
	r.Equal(17, re.Input)
	r.ErrorIs(err, ErrHandleClosed)
}

func TestStartWaitsWhileAnyHandleIsOpen(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	x, fut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in * 2, nil
	})
	y := x.Clone()
	x.Close()

	errc := make(chan error, 1)
	go func() { errc <- y.Resume(ctx, 21) }()

	out, err := fut.Await(ctx)
	r.NoError(err)
	r.Equal(42, out)
	r.NoError(<-errc)
	y.Close()
}

func TestResumeAfterFinish(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	x, fut := New(func(ctx context.Context, _ *Coroutine[string], _ *Suspender[string]) (int, error) {
		return 1, nil
	})
	_, err := fut.Await(ctx)
	r.NoError(err)

	err = x.Resume(ctx, "late")
	r.ErrorIs(err, ErrUnresumable)

	var re *ResumeError[string]
	r.ErrorAs(err, &re)
	r.Equal("late", re.Input)
}

func TestResumeContextDeadline(t *testing.T) {
	r := require.New(t)

	x, fut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	defer fut.Discard()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := x.Resume(ctx, 3)
	r.ErrorIs(err, context.DeadlineExceeded)

	var re *ResumeError[int]
	r.ErrorAs(err, &re)
	r.Equal(3, re.Input)
}

func TestConcurrentResumesSerialize(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var sink Cell[*Coroutine[int]]
	x, xFut := WithInput(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int], first int) ([]int, error) {
		second, err := TryYieldTo(ctx, s, sink.Get(), first)
		return []int{first, second}, err
	})
	sh, sinkFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	r.NoError(sink.Set(sh))

	var g errgroup.Group
	g.Go(func() error { return Join(ctx, xFut, sinkFut) })
	g.Go(func() error { return x.Resume(ctx, 1) })
	g.Go(func() error { return x.Resume(ctx, 2) })
	r.NoError(g.Wait())

	got, err := xFut.Await(ctx)
	r.NoError(err)
	r.ElementsMatch([]int{1, 2}, got)

	first, err := sinkFut.Await(ctx)
	r.NoError(err)
	r.Equal(got[0], first)
}

func TestHandleIdentity(t *testing.T) {
	r := require.New(t)

	a, aFut := New(func(context.Context, *Coroutine[int], *Suspender[int]) (int, error) {
		return 0, nil
	}, WithName("alpha"))
	defer aFut.Discard()
	b, bFut := New(func(context.Context, *Coroutine[int], *Suspender[int]) (int, error) {
		return 0, nil
	})
	defer bFut.Discard()

	a2 := a.Clone()
	a3 := a2.Clone()
	r.True(a.Equal(a2))
	r.True(a3.Equal(a))
	r.False(a.Equal(b))
	r.False(b.Equal(a2))
	r.Equal(a.ID(), a3.ID())
	r.NotEqual(a.ID(), b.ID())

	r.Equal("alpha", a.Name())
	r.True(strings.Contains(a.String(), "alpha"))
	r.True(strings.Contains(b.String(), b.ID().String()))

	a2.Close()
	a2.Close()
	r.True(a.Equal(a2))
	r.PanicsWithValue(ErrHandleClosed, func() { a2.Clone() })
}

func TestPeerLossWhileSending(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	release := make(chan struct{})
	b, bFut := New(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int]) (int, error) {
		<-release
		return 0, nil
	})
	_, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		return TryYieldTo(ctx, s, b, 7)
	})

	var g errgroup.Group
	g.Go(func() error { return bFut.Run(ctx) })

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	_, err := aFut.Await(ctx)
	r.ErrorIs(err, ErrPeerUnresumable)
	r.ErrorIs(err, ErrUnresumable)

	var ye *YieldError[int]
	r.ErrorAs(err, &ye)
	r.Equal(7, ye.Value)
	r.False(ye.Delivered)
	r.NoError(g.Wait())
}

func TestPeerLossAfterDiscard(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[string], _ *Suspender[string], in string) (string, error) {
		return in, nil
	})
	r.True(bFut.Discard())

	_, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		return TryYieldTo(ctx, s, b, "hello")
	})

	_, err := aFut.Await(ctx)
	var ye *YieldError[string]
	r.ErrorAs(err, &ye)
	r.ErrorIs(err, ErrPeerUnresumable)
	r.Equal("hello", ye.Value)
	r.Equal(Finished, aFut.State())
}

func TestSelfCanceled(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	a, aFut := New(func(ctx context.Context, self *Coroutine[int], s *Suspender[int]) (int, error) {
		self.Close()
		return TryYieldTo(ctx, s, b, 1)
	})
	a.Close()

	var g errgroup.Group
	g.Go(func() error { return bFut.Run(ctx) })

	_, err := aFut.Await(ctx)
	r.ErrorIs(err, ErrCanceled)

	var ye *YieldError[int]
	r.ErrorAs(err, &ye)
	r.True(ye.Delivered)
	r.Equal(1, ye.Value)
	r.Equal(Canceled, aFut.State())

	r.NoError(g.Wait())
	out, _ := bFut.Await(ctx)
	r.Equal(1, out)
}

func TestYieldToPanicsOnPeerLoss(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	bFut.Discard()

	_, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		return YieldTo(s, b, 3), nil
	})

	defer func() {
		p := recover()
		r.NotNil(p)

		err, ok := p.(error)
		r.True(ok)
		r.True(IsPanic(err))
		r.ErrorIs(err, ErrPeerUnresumable)
		r.Contains(err.Error(), "other coroutine should still exist")
	}()

	aFut.Await(ctx)
	t.Error("Await should have panicked")
}

func TestYieldToPanicsWhenSelfCanceled(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	a, aFut := New(func(ctx context.Context, self *Coroutine[int], s *Suspender[int]) (int, error) {
		self.Close()
		return YieldTo(s, b, 1), nil
	})
	a.Close()

	var g errgroup.Group
	g.Go(func() error { return bFut.Run(ctx) })

	err := aFut.Run(ctx)
	r.True(IsPanic(err))
	r.ErrorIs(err, ErrCanceled)
	r.Contains(err.Error(), "own coroutine handle should still exist")
	r.NoError(g.Wait())
}

func TestEscapedSuspender(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var escaped *Suspender[int]
	_, fut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		escaped = s
		return 0, nil
	})
	_, err := fut.Await(ctx)
	r.NoError(err)

	peer, peerFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	defer peerFut.Discard()

	_, err = TryYieldTo(ctx, escaped, peer, 9)
	r.ErrorIs(err, ErrCanceled)

	var ye *YieldError[int]
	r.ErrorAs(err, &ye)
	r.False(ye.Delivered)
	r.Equal(9, ye.Value)
}

func TestTryYieldToContextCanceledWhileSuspended(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		cancel()
		return in, nil
	})
	_, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		return TryYieldTo(ctx, s, b, 4)
	})

	var g errgroup.Group
	g.Go(func() error { return bFut.Run(context.Background()) })

	_, err := aFut.Await(ctx)
	r.ErrorIs(err, context.Canceled)

	var ye *YieldError[int]
	r.True(errors.As(err, &ye))
	r.True(ye.Delivered)
	r.NoError(g.Wait())

	r.Equal(Canceled, aFut.State())
	r.Equal(Finished, bFut.State())
}

func TestYieldToPanicsOnEscapedSuspender(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var escaped *Suspender[int]
	_, fut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		escaped = s
		return 0, nil
	})
	r.NoError(fut.Run(ctx))

	peer, peerFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	defer peerFut.Discard()

	_, user := New(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int]) (int, error) {
		return YieldTo(escaped, peer, 3), nil
	})
	err := user.Run(ctx)
	r.True(IsPanic(err))
	r.ErrorIs(err, ErrCanceled)
	r.Contains(err.Error(), "suspender used after its coroutine finished")
}

func TestSuspenderUsedConcurrently(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, bFut := WithInput(func(ctx context.Context, _ *Coroutine[int], _ *Suspender[int], in int) (int, error) {
		return in, nil
	})
	defer bFut.Discard()

	first := make(chan error, 1)
	_, aFut := New(func(ctx context.Context, _ *Coroutine[int], s *Suspender[int]) (int, error) {
		// b is never awaited, so this handoff parks while holding s.
		go func() {
			_, err := TryYieldTo(ctx, s, b, 1)
			first <- err
		}()
		for !s.busy.Load() {
			runtime.Gosched()
		}
		return TryYieldTo(ctx, s, b, 2)
	})

	err := aFut.Run(ctx)
	r.True(IsPanic(err))
	r.ErrorIs(err, ErrSuspenderBusy)

	cancel()
	r.ErrorIs(<-first, context.Canceled)
}
