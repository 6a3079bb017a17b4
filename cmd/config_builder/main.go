//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/pkg/deployment"
	"github.com/comses/citation/pkg/utils/try"
)

//go:embed CREDITS
var CREDITS string

type RenderFlag struct {
	Templates string `flag:"templates" help:"Directory holding the *.template files."`
	Compose   string `flag:"compose-out" help:"Where the rendered Compose file goes."`
	Config    string `flag:"config-out" help:"Where the rendered config.ini goes."`
	License   bool   `flag:"license" help:"Print the license."`
}

type WaitDbFlag struct {
	Host    string `flag:"host" help:"Database host to wait for."`
	Port    string `flag:"port" help:"Database port to wait for."`
	Timeout string `flag:"timeout" help:"Give up after this long, like 90s or 5m."`
}

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt, os.Kill,
	)
	defer cancel()

	render := try.To(flarc.NewCommand(
		"render deployment files from templates",
		RenderFlag{
			Templates: filepath.Join("deploy", "templates"),
			Compose:   "docker-compose.yml",
			Config:    filepath.Join("deploy", "config", "config.ini"),
		},
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[RenderFlag], a []any) error {
			flags := c.Flags()
			if flags.License {
				_, err := io.WriteString(c.Stdout(), CREDITS)
				return err
			}
			return Render(logger, flags)
		},
		flarc.WithDescription(`
Render docker-compose.yml and config.ini from their templates.

Placeholders like ${DB_USER} resolve from the environment. The one
exception is ${SECRET_KEY}: when the environment does not set it, a
fresh signing key is drawn and used, so every deployment gets a key
without anyone having to invent one.

Rendering fails, leaving no partial files, when a placeholder stays
unresolved or an output would be empty. Rendered files are then
checked: the Compose file must be YAML whose image references parse,
and config.ini must carry its [database] and [server] sections.
`),
	)).OrFatal(logger)

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	waitDb := try.To(flarc.NewCommand(
		"wait for the database port to accept connections",
		WaitDbFlag{
			Host:    os.Getenv("DB_HOST"),
			Port:    port,
			Timeout: "90s",
		},
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[WaitDbFlag], a []any) error {
			flags := c.Flags()
			if flags.Host == "" {
				return fmt.Errorf("%w: --host is required", flarc.ErrUsage)
			}
			if _, err := strconv.Atoi(flags.Port); err != nil {
				return fmt.Errorf("%w: --port should be a number: %s", flarc.ErrUsage, flags.Port)
			}
			timeout, err := time.ParseDuration(flags.Timeout)
			if err != nil {
				return fmt.Errorf("%w: --timeout: %s", flarc.ErrUsage, err)
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			addr := net.JoinHostPort(flags.Host, flags.Port)
			logger.Printf("waiting for %s (timeout: %s)...", addr, timeout)
			if err := deployment.WaitTCP(ctx, addr); err != nil {
				return fmt.Errorf("database %s did not come up: %w", addr, err)
			}
			logger.Printf("%s is up", addr)
			return nil
		},
	)).OrFatal(logger)

	cmd := try.To(flarc.NewCommandGroup(
		"Build deployment configuration for the citation catalog.",
		struct{}{},
		flarc.WithSubcommand("render", render),
		flarc.WithSubcommand("wait-db", waitDb),
	)).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd, flarc.WithHelp(true)))
}

// Render produces the two deployment files from their templates.
func Render(logger *log.Logger, flags RenderFlag) error {
	lookup := deployment.Lookup(deployment.Env)
	if _, ok := os.LookupEnv("SECRET_KEY"); !ok {
		key, err := deployment.NewSecretKey()
		if err != nil {
			return err
		}
		logger.Println("SECRET_KEY is not set; generated a fresh one")
		lookup = deployment.Fallback(deployment.Env, func(name string) (string, bool) {
			if name == "SECRET_KEY" {
				return key, true
			}
			return "", false
		})
	}

	compose := filepath.Join(flags.Templates, "docker-compose.yml.template")
	if err := deployment.RenderFile(compose, flags.Compose, lookup); err != nil {
		return err
	}
	config := filepath.Join(flags.Templates, "config.ini.template")
	if err := deployment.RenderFile(config, flags.Config, lookup); err != nil {
		return err
	}

	{
		buf, err := os.ReadFile(flags.Compose)
		if err != nil {
			return err
		}
		if err := deployment.ValidateCompose(buf); err != nil {
			return err
		}
	}
	{
		buf, err := os.ReadFile(flags.Config)
		if err != nil {
			return err
		}
		if err := deployment.ValidateConfigIni(buf); err != nil {
			return err
		}
	}

	logger.Printf("rendered %s and %s", flags.Compose, flags.Config)
	return nil
}
