//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/comses/citation/pkg/configs/app"
	"github.com/comses/citation/pkg/domain/auth"
	"github.com/comses/citation/pkg/domain/citation"
	"github.com/comses/citation/pkg/utils/filewatch"
)

//go:embed CREDITS
var CREDITS string

func main() {
	pconfig := flag.String(
		"config", os.Getenv("CITATION_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("CITATION_SCHEMA"), "schema repository path",
	)
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	plic := flag.Bool("license", false, "show licenses of dependencies")
	flag.Parse()

	if *plic {
		fmt.Println(CREDITS)
		return
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	{
		// config changes end the process; the orchestrator restarts it
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			log.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf, err := app.Load(*pconfig)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}
	if conf.Secrets.SecretKey == "" {
		log.Fatal("secrets.secret_key is required to sign session tokens")
	}

	c, err := citation.Default(
		ctx, conf, citation.WithSchemaRepository(*pSchemaRepo),
	)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	{
		// stop when the on-disk schema outruns the database
		ctx_, ccan := c.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	issuer := auth.Issuer{
		Secret: []byte(conf.Secrets.SecretKey),
		TTL:    conf.Secrets.TokenTTL,
	}

	server := BuildServer(c, issuer, *loglevel)
	for _, r := range server.Routes() {
		server.Logger.Debugf("- mount handler: %s %s", strings.ToUpper(r.Method), r.Path)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if err := server.Start(fmt.Sprintf(":%d", conf.Server.Port)); err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done(): // wait
		if err := ctx.Err(); err != nil {
			server.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
		}
	case err := <-ch:
		if err != nil {
			server.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		server.Logger.Info("shutting down...")
		qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer qcancel()

		if err := server.Shutdown(qctx); err != nil {
			server.Logger.Fatalf("shutdown with error: %+v", err)
		}
		os.Exit(exit)
	}
}
