// Package cache maintains the precomputed aggregates the catalog serves.
package cache

import (
	"context"
	"log"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain/cache/warm"
	"github.com/comses/citation/pkg/domain/citation"
)

func New() (flarc.Command, error) {
	w, err := Warm()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Maintain the precomputed aggregate caches.",
		struct{}{},
		flarc.WithSubcommand("warm", w),
	)
}

type Flag struct {
	Contributors bool `flag:"contributors" help:"recompute the contributor shares"`
	Distribution bool `flag:"distribution" help:"recompute the distribution dataset"`
	Platforms    bool `flag:"platforms" help:"recompute the archive-by-platform counts"`
	Networks     bool `flag:"networks" help:"recompute the sponsor and tag networks"`
}

func Warm() (flarc.Command, error) {
	return flarc.NewCommand(
		"recompute cached aggregates",
		Flag{},
		flarc.Args{},
		common.NewDbTask(WarmTask()),
		flarc.WithDescription(`
Recompute the cached aggregates (contributor shares, the distribution
dataset, archive-by-platform counts and the sponsor/tag networks) from
the live tables, so the next reader gets them precomputed.

Flags narrow the round to the named datasets; no flags means all of
them.

	{{ .Command }} --networks --distribution
`),
	)
}

func WarmTask() common.DbTask[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		warmer := &warm.Warmer{
			Cache: hub.Cache().Database(),
			Graph: hub.Graph().Database(),
			Audit: hub.Audit().Database(),
			TTL:   hub.Config().Cache.TTL,
		}

		flags := cl.Flags()
		all := !flags.Contributors && !flags.Distribution &&
			!flags.Platforms && !flags.Networks

		warmed := 0
		for _, part := range []struct {
			picked bool
			warm   func(context.Context) (bool, error)
		}{
			{flags.Contributors, warmer.Contributors},
			{flags.Distribution, warmer.Distribution},
			{flags.Platforms, warmer.ArchivePlatforms},
			{flags.Networks, warmer.Networks},
		} {
			if !all && !part.picked {
				continue
			}
			computed, err := part.warm(ctx)
			if computed {
				warmed += 1
			}
			if err != nil {
				return err
			}
		}

		logger.Printf("warmed %d cache entries", warmed)
		return nil
	}
}
