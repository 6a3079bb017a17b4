// Package urls keeps recorded code archive URLs honest.
package urls

import (
	"context"
	"log"
	"net/http"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain/archive/check"
	"github.com/comses/citation/pkg/domain/citation"
)

func New() (flarc.Command, error) {
	validate, err := Validate()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Work on recorded code archive URLs.",
		struct{}{},
		flarc.WithSubcommand("validate", validate),
	)
}

func Validate() (flarc.Command, error) {
	return flarc.NewCommand(
		"probe every code archive URL and record what it serves",
		struct{}{},
		flarc.Args{},
		common.NewDbTask(ValidateTask()),
		flarc.WithDescription(`
Probe every code archive URL in the catalog with a GET and record the
outcome: a status log row per probe, plus status and category updates
where the web disagrees with the catalog.
`),
	)
}

func ValidateTask() common.DbTask[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		checker := check.Checker{Archive: hub.Archive().Database()}
		if timeout := hub.Config().Archive.Timeout; 0 < timeout {
			checker.Client = &http.Client{Timeout: timeout}
		}

		report, err := checker.All(ctx)
		logger.Printf(
			"checked %d urls: %d available, %d restricted, %d unavailable, %d recategorized",
			report.Checked, report.Available, report.Restricted,
			report.Unavailable, report.Recategorized,
		)
		return err
	}
}
