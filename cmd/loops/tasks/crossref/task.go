package crossref

import (
	"context"

	"github.com/comses/citation/cmd/loops/recurring"
	kcrossref "github.com/comses/citation/pkg/domain/crossref"
	kdbing "github.com/comses/citation/pkg/domain/ingest/db"
)

// BatchSize bounds how many candidates each sweep of one pass looks up.
// The Crossref client paces requests anyway; the bound keeps a pass,
// and the transaction window of its fills, short.
const BatchSize = 50

// Report pairs the sweeps of one pass.
type Report struct {
	Doi    kcrossref.Report
	Search kcrossref.Report
}

// initial value for task
func Seed() Report {
	return Report{}
}

// Task fills publications with missing fields from Crossref: first the
// DOI sweep, then the author/year search sweep, each over a batch of
// candidates.
//
// A full batch may hide more candidates, but progress is only certain
// when the sweep shrank the candidate set: fills for the DOI sweep, any
// lookup for the search sweep (its failures are recorded as provenance
// and not offered again).
func Task(
	ingest kdbing.IngestInterface,
	client *kcrossref.Client,
	creator string,
) recurring.Task[Report] {
	enricher := kcrossref.Enricher{Ingest: ingest, Client: client}
	return func(ctx context.Context, _ Report) (Report, bool, error) {
		doi, err := enricher.ByDoi(ctx, creator, BatchSize)
		if err != nil {
			return Report{Doi: doi}, false, err
		}

		search, err := enricher.BySearch(ctx, creator, BatchSize)
		report := Report{Doi: doi, Search: search}
		if err != nil {
			return report, false, err
		}

		more := (doi.Looked == BatchSize && 0 < doi.Enriched) ||
			(search.Looked+search.Skipped == BatchSize && 0 < search.Looked)
		return report, more, nil
	}
}
