// Package recurring turns sweep functions into loop tasks driven by a
// restart policy.
package recurring

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/comses/citation/pkg/loop"
)

// Task is one sweep over the catalog.
//
// Return:
//
// - T : same as return value T of loop.Task[T]
//
// - bool : true when this sweep did something and more backlog can be.
// otherwise false.
//
// - error : same as err of loop.Break(err)
type Task[T any] func(context.Context, T) (T, bool, error)

// Applied builds a loop.Task which runs rt and asks p what to do next.
func (rt Task[T]) Applied(p Policy) loop.Task[T] {
	return func(ctx context.Context, t T) (T, loop.Next) {
		value, ok, err := rt(ctx, t)
		return value, p.Next(ok, err)
	}
}

func ParsePolicy(s string) (Policy, error) {
	typ, param, ok := strings.Cut(s, ":")
	switch typ {
	case "forever":
		if !ok || param == "" {
			return Forever(0), nil
		}

		period, err := time.ParseDuration(param)
		if err != nil {
			return nil, fmt.Errorf(`failed to parse: %s as "forever:COOLDOWN": %w`, s, err)
		}
		return Forever(period), nil
	case "backlog":
		if ok {
			return nil, fmt.Errorf("backlog policy does not take paramters: %s", s)
		}
		return Backlog(), nil
	}
	return nil, fmt.Errorf("unknown policy name: %s (should be one of -- forever|backlog)", typ)
}

// Policy decides how a loop goes on after each sweep.
type Policy interface {
	Next(updated bool, err error) loop.Next
	String() string
}

// Forever restarts immediately while there are things to do.
// Otherwise, restart after the cooldown.
func Forever(cooldown time.Duration) Policy {
	return forever(cooldown)
}

type forever time.Duration

func (f forever) String() string {
	return fmt.Sprintf("forever:%s", time.Duration(f).String())
}

func (f forever) Next(updated bool, err error) loop.Next {
	if updated {
		return loop.Continue(0)
	}
	return loop.Continue(time.Duration(f))
}

// Backlog restarts immediately while there are things to do.
// Otherwise, Break(nil). Use it to run sweeps one-shot.
func Backlog() Policy {
	return backlog
}

type backlogPolicy struct {
	name string
}

func (b backlogPolicy) String() string {
	return b.name
}

func (b backlogPolicy) Next(updated bool, err error) loop.Next {
	if updated {
		return loop.Continue(0)
	}
	return loop.Break(nil)
}

var backlog = backlogPolicy{name: "backlog"} // singleton

// UntilError adds a provisory clause: In case of error, Break with that error.
func UntilError(p Policy) Policy {
	return untilError{base: p}
}

type untilError struct {
	base Policy
}

func (u untilError) String() string {
	return fmt.Sprintf("%s (until error)", u.base.String())
}

func (u untilError) Next(updated bool, err error) loop.Next {
	if err != nil {
		return loop.Break(err)
	}
	return u.base.Next(updated, err)
}

// Resilient adds another clause, taking precedence: errors isTransient
// says will cure themselves do not reach base; the loop waits and runs
// the sweep again. The wait starts at initial and doubles per
// consecutive transient error up to max. Any other outcome resets it.
func Resilient(
	logger *log.Logger,
	base Policy,
	isTransient func(error) bool,
	initial time.Duration,
	max time.Duration,
) Policy {
	return &resilient{
		logger: logger, base: base, isTransient: isTransient,
		initial: initial, max: max, wait: initial,
	}
}

type resilient struct {
	logger      *log.Logger
	base        Policy
	isTransient func(error) bool
	initial     time.Duration
	max         time.Duration
	wait        time.Duration
}

func (r *resilient) String() string {
	return fmt.Sprintf("%s (backing off transient errors)", r.base.String())
}

func (r *resilient) Next(updated bool, err error) loop.Next {
	if err == nil || !r.isTransient(err) {
		r.wait = r.initial
		return r.base.Next(updated, err)
	}

	next := loop.Continue(r.wait)
	r.logger.Printf("transient error (next try in %s): %s", r.wait, err)
	r.wait *= 2
	if r.max < r.wait {
		r.wait = r.max
	}
	return next
}
