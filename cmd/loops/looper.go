package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/comses/citation/cmd/loops/recurring"
	"github.com/comses/citation/cmd/loops/tasks/cache"
	"github.com/comses/citation/cmd/loops/tasks/crossref"
	"github.com/comses/citation/cmd/loops/tasks/urlping"
	"github.com/comses/citation/pkg/domain/citation"
	kcrossref "github.com/comses/citation/pkg/domain/crossref"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	"github.com/comses/citation/pkg/loop"
)

// TaskKind names one background sweep of the daemon.
type TaskKind string

const (
	TaskUrlPing  TaskKind = "urlping"
	TaskCrossref TaskKind = "crossref"
	TaskCache    TaskKind = "cache"
)

func (k TaskKind) String() string {
	return string(k)
}

func AsTaskKind(s string) (TaskKind, error) {
	switch k := TaskKind(s); k {
	case TaskUrlPing, TaskCrossref, TaskCache:
		return k, nil
	}
	return "", fmt.Errorf("unknown task name: %s (should be one of -- urlping|crossref|cache)", s)
}

// AllTasks returns every task kind, in start order.
func AllTasks() []TaskKind {
	return []TaskKind{TaskUrlPing, TaskCrossref, TaskCache}
}

// creator the daemon's audit commands are signed with.
const loopsCreator = "loops"

// Waits framing the backoff while the database is unreachable.
const (
	initialOutageWait = 1 * time.Second
	maxOutageWait     = 5 * time.Minute
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Policy for the looping
	Policy recurring.Policy
}

// resilient wraps the manifest policy for one loop: while the database
// is unreachable the loop backs off and retries instead of dying.
// Each loop gets its own wrap, the backoff state is per loop.
func resilient(logger *log.Logger, policy recurring.Policy) recurring.Policy {
	return recurring.Resilient(
		logger, policy, kpgerr.IsUnreachable,
		initialOutageWait, maxOutageWait,
	)
}

// StartLoop runs the loop of one task kind until it breaks or ctx ends.
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	c citation.Citation,
	kind TaskKind,
	manifest LoopManifest,
) error {
	switch kind {
	case TaskUrlPing:
		return StartUrlPingLoop(ctx, logger, c, manifest)
	case TaskCrossref:
		return StartCrossrefLoop(ctx, logger, c, manifest)
	case TaskCache:
		return StartCacheLoop(ctx, logger, c, manifest)
	}
	return fmt.Errorf("unknown task: %s", kind)
}

// Start url ping loop
//
// Args:
//
// - ctx
//
// - logger : logger for monitoring loop.
//
// - c : the catalog hub
//
// - manifest
func StartUrlPingLoop(
	ctx context.Context,
	logger *log.Logger,
	c citation.Citation,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[urlping loop]"))

	var client *http.Client
	if timeout := c.Config().Archive.Timeout; 0 < timeout {
		client = &http.Client{Timeout: timeout}
	}

	_, err := loop.Start(
		ctx, urlping.Seed(),
		monitor(
			l,
			urlping.Task(
				c.Archive().Database(), client,
			).Applied(resilient(l, manifest.Policy)),
		),
	)
	return err
}

func StartCrossrefLoop(
	ctx context.Context,
	logger *log.Logger,
	c citation.Citation,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[crossref loop]"))

	cfg := c.Config().Crossref
	client := kcrossref.New(
		cfg.BaseUrl,
		kcrossref.WithRateLimit(cfg.RateLimit),
		kcrossref.WithTimeout(cfg.Timeout),
	)

	_, err := loop.Start(
		ctx, crossref.Seed(),
		monitor(
			l,
			crossref.Task(
				c.Ingest().Database(), client, loopsCreator,
			).Applied(resilient(l, manifest.Policy)),
		),
	)
	return err
}

func StartCacheLoop(
	ctx context.Context,
	logger *log.Logger,
	c citation.Citation,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[cache loop]"))
	_, err := loop.Start(
		ctx, cache.Seed(),
		monitor(
			l,
			cache.Task(
				c.Cache().Database(),
				c.Graph().Database(),
				c.Audit().Database(),
				c.Config().Cache.TTL,
			).Applied(resilient(l, manifest.Policy)),
		),
		// a warming pass stuck on a lock is cut and retried later.
		loop.WithTimeout(5*time.Minute),
	)
	return err
}
