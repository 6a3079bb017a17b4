// Package export hands the catalog over to researchers as flat files.
package export

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain/citation"
	"github.com/comses/citation/pkg/export"
)

type Flag struct {
	Outfile string `flag:"outfile" help:"file to write. \"-\" writes to stdout."`
}

func New() (flarc.Command, error) {
	c, err := Csv()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Export the catalog as flat files.",
		struct{}{},
		flarc.WithSubcommand("csv", c),
	)
}

func Csv() (flarc.Command, error) {
	return flarc.NewCommand(
		"export primary publications as CSV",
		Flag{Outfile: "data.csv"},
		flarc.Args{},
		common.NewDbTask(CsvTask()),
		flarc.WithDescription(`
Export every primary publication as one CSV row.

Beyond the fixed columns, the file grows one 0/1 column per platform
and per sponsor known to the catalog, marking which publications carry
them. Exporting the same catalog twice gives identical files.
`),
	)
}

func CsvTask() common.DbTask[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		out := cl.Stdout()
		if flags.Outfile != "-" {
			f, err := os.Create(flags.Outfile)
			if err != nil {
				return fmt.Errorf("%w: cannot write %s", err, flags.Outfile)
			}
			defer f.Close()
			out = f
		}

		count, err := export.Csv(
			ctx, out,
			hub.Publication().Database(),
			hub.Vocab().Database(),
		)
		if err != nil {
			return err
		}
		logger.Printf("exported %d publications to %s", count, flags.Outfile)
		return nil
	}
}
