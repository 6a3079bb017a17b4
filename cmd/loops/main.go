//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comses/citation/cmd/loops/recurring"
	"github.com/comses/citation/pkg/configs/app"
	"github.com/comses/citation/pkg/domain/citation"
	"github.com/comses/citation/pkg/utils/args"
	"github.com/comses/citation/pkg/utils/filewatch"
	"github.com/comses/citation/pkg/utils/try"
)

//go:embed CREDITS
var CREDITS string

func main() {
	logger := byLogger(log.Default(), WithTimestamp())
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("CITATION_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("CITATION_SCHEMA"), "schema repository path",
	)
	//-- which tasks to run
	tasks := args.ListParser(AsTaskKind)
	flag.Var(
		tasks, "task",
		"task to run: one of urlping|crossref|cache. Repeatable. Default: all of them.",
	)
	//-- loop policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`loop policy (syntax: forever[:COOLDOWN]|backlog).`+
			` "forever[:COOLDOWN]" = run forever until error. When backlog is over, `+
			`wait COOLDOWN (optional duration. default: -interval) as inteval.`+
			` "backlog" = run until error or backlog is over.`,
	)
	pinterval := flag.Duration(
		"interval", 24*time.Hour, "cooldown between passes of the default policy",
	)
	plic := flag.Bool("license", false, "show licenses of dependencies")
	// parse command line flags
	flag.Parse()

	if *plic {
		logger.Println(CREDITS)
		return
	}

	{
		// watch config; changes end the process, the orchestrator restarts it
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(app.Load(*pconfig)).OrFatal(logger)

	c := try.To(citation.Default(
		ctx, conf, citation.WithSchemaRepository(*pSchemaRepo),
	)).OrFatal(logger)

	{
		// stop when the on-disk schema outruns the database
		ctx_, ccan := c.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	pol := recurring.Policy(recurring.Forever(*pinterval))
	if policy.IsSet() {
		pol = policy.Value()
	}

	kinds := tasks.Values()
	if len(kinds) == 0 {
		kinds = AllTasks()
	}

	logger.Printf(`start loops %v /w policy "%s"`, kinds, pol.String())

	manifest := LoopManifest{Policy: recurring.UntilError(pol)}
	errch := make(chan error, len(kinds))
	for _, kind := range kinds {
		kind := kind
		go func() {
			errch <- StartLoop(ctx, logger, c, kind, manifest)
		}()
	}

	var fail error
	for range kinds {
		err := <-errch
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		if fail == nil {
			fail = err
		}
		// one broken loop brings the daemon down
		cancel()
	}

	if fail != nil {
		logger.Fatal(fail)
	}
	if cause := context.Cause(ctx); cause != nil {
		logger.Println("loops stopped:", cause)
	}
}
