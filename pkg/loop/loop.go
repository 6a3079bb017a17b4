package loop

import (
	"context"
	"fmt"
	"time"
)

// Next tells Start what to do after a task pass.
type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop with interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}

	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// Continue runs the task again after sleeping interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break stops the loop. err may be nil.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task is one pass of a loop. It receives the value the previous pass
// returned and decides how to go on.
type Task[T any] func(context.Context, T) (T, Next)

// Start runs task repeatedly.
//
// The task is first called with init; each later pass receives the value
// the previous one returned, so reports can accumulate across passes.
// The zero Next continues immediately.
//
// Count to ten:
//
//	Start(ctx, 1, func(_ context.Context, v int) (int, Next) {
//		if 10 <= v {
//			return v, Break(nil)
//		}
//		return v + 1, Continue(0)
//	})
//
// Args
//
// - ctx: when it is done, the loop breaks with ctx.Err(), during a sleep
// or before the first pass. A running task finishes its pass first.
//
// - init: value of the first call.
//
// - task: the pass to repeat.
//
// Returns
//
// - T: the value of the last pass (init when no pass ran).
//
// - error: the error of Break(err) or ctx.Err(), nil for Break(nil).
func Start[T any](ctx context.Context, init T, task Task[T], options ...LoopOption) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		interval := 0 * time.Nanosecond

		lc := &loopConfig{ctx: ctx}
		for _, opt := range options {
			lc = opt(lc)
		}

		v, n := func() (T, Next) {
			ctx := lc.ctx
			if lc.deferred != nil {
				defer lc.deferred()
			}
			return task(ctx, value)
		}()

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		} else {
			value = v
			interval = n.interval
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			// shutdown first, the timer can wait.
			if !timer.Stop() {
				<-timer.C // drain. see: time.Timer.Stop's document
			}
			return value, ctx.Err()

		case <-timer.C:
			continue
		}
	}
}

type loopConfig struct {
	ctx      context.Context
	deferred func()
}

type LoopOption func(*loopConfig) *loopConfig

// WithTimeout deadlines the context of each pass. A sweep stuck on a
// dead remote gives up at the deadline instead of holding its loop.
func WithTimeout(d time.Duration) LoopOption {
	return func(lc *loopConfig) *loopConfig {
		ctx, cancel := context.WithTimeout(lc.ctx, d)
		return &loopConfig{
			ctx: ctx,
			deferred: func() {
				if lc.deferred != nil {
					defer lc.deferred()
				}
				cancel()
			},
		}
	}
}
