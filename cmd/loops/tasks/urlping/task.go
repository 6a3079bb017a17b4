package urlping

import (
	"context"
	"net/http"

	"github.com/comses/citation/cmd/loops/recurring"
	"github.com/comses/citation/pkg/domain/archive/check"
	kdbarc "github.com/comses/citation/pkg/domain/archive/db"
)

// initial value for task
func Seed() check.Report {
	return check.Report{}
}

// Task sweeps every code archive URL of the catalog: probe, grade,
// re-categorize. One pass visits everything, so there is never backlog
// left behind it.
//
// client may be nil to probe with the checker's default.
func Task(
	archive kdbarc.ArchiveInterface,
	client *http.Client,
) recurring.Task[check.Report] {
	checker := check.Checker{Archive: archive, Client: client}
	return func(ctx context.Context, _ check.Report) (check.Report, bool, error) {
		report, err := checker.All(ctx)
		return report, false, err
	}
}
