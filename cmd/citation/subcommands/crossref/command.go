// Package crossref sweeps the catalog for publications Crossref could
// fill in.
package crossref

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	dcrossref "github.com/comses/citation/pkg/domain/crossref"
	"github.com/comses/citation/pkg/domain/citation"
)

type Flag struct {
	Creator string `flag:"creator" help:"username of the curator signing the changes"`
	Limit   string `flag:"limit" help:"stop after this many candidates. 0 sweeps them all."`
}

func New() (flarc.Command, error) {
	doi, err := Doi()
	if err != nil {
		return nil, err
	}
	search, err := Search()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Fill missing publication fields from Crossref.",
		struct{}{},
		flarc.WithSubcommand("doi", doi),
		flarc.WithSubcommand("search", search),
	)
}

func Doi() (flarc.Command, error) {
	return flarc.NewCommand(
		"look up publications by DOI",
		Flag{},
		flarc.Args{},
		common.NewDbTask(Task(func(e dcrossref.Enricher) sweep { return e.ByDoi })),
		flarc.WithDescription(`
Look up every publication that has a DOI but no title, abstract or
publishing date, and fill the missing fields from the Crossref
works/{doi} endpoint. Every exchange, successful or not, stays on
record with the publication.
`),
	)
}

func Search() (flarc.Command, error) {
	return flarc.NewCommand(
		"search publications by author and year",
		Flag{},
		flarc.Args{},
		common.NewDbTask(Task(func(e dcrossref.Enricher) sweep { return e.BySearch })),
		flarc.WithDescription(`
Search Crossref by author names and publishing year for publications
known only from BibTeX, and fill their missing fields when exactly one
work matches the title closely enough. Ambiguous results are recorded
and left alone.
`),
	)
}

type sweep func(ctx context.Context, creator string, limit int) (dcrossref.Report, error)

func Task(pick func(dcrossref.Enricher) sweep) common.DbTask[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.Creator == "" {
			return fmt.Errorf("%w: --creator is required", flarc.ErrUsage)
		}
		limit := 0
		if flags.Limit != "" {
			l, err := strconv.Atoi(flags.Limit)
			if err != nil || l < 0 {
				return fmt.Errorf("%w: --limit should be a non-negative integer", flarc.ErrUsage)
			}
			limit = l
		}

		conf := hub.Config().Crossref
		options := []dcrossref.Option{}
		if 0 < conf.Timeout {
			options = append(options, dcrossref.WithTimeout(conf.Timeout))
		}
		if 0 < conf.RateLimit {
			options = append(options, dcrossref.WithRateLimit(conf.RateLimit))
		}
		enricher := dcrossref.Enricher{
			Ingest: hub.Ingest().Database(),
			Client: dcrossref.New(conf.BaseUrl, options...),
		}

		report, err := pick(enricher)(ctx, flags.Creator, limit)
		logger.Printf(
			"looked up %d publications: %d enriched, %d failed, %d skipped",
			report.Looked, report.Enriched, report.Failed, report.Skipped,
		)
		return err
	}
}
