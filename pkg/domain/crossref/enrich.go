package crossref

import (
	"context"
	"fmt"
	"strings"

	"github.com/comses/citation/pkg/domain"
	kdbing "github.com/comses/citation/pkg/domain/ingest/db"
)

// Enricher sweeps the catalog for publications with missing fields and
// fills them from Crossref, recording every exchange as provenance.
type Enricher struct {
	Ingest kdbing.IngestInterface
	Client *Client
}

// Report sums up one sweep.
type Report struct {
	// Lookups that went out.
	Looked int

	// Publications a response was folded into.
	Enriched int

	// Lookups recorded as failures: no usable response, or no unique match.
	Failed int

	// Candidates skipped without a lookup for want of a query.
	Skipped int
}

// ByDoi runs the DOI sweep. Every publication with a DOI but no title,
// abstract or publishing date gets a works/{doi} lookup; a 200 response
// is folded in under an audit command signed by creator.
//
// limit bounds the sweep, 0 meaning every candidate.
func (e Enricher) ByDoi(ctx context.Context, creator string, limit int) (Report, error) {
	candidates, err := e.Ingest.DoiCandidates(ctx, limit)
	if err != nil {
		return Report{}, err
	}

	report := Report{}
	for _, cand := range candidates {
		work, snap, err := e.Client.Lookup(ctx, cand.Doi)
		report.Looked++
		if err != nil && ctx.Err() != nil {
			return report, err
		}
		if work == nil {
			if _, err := e.Ingest.AddRaw(ctx, cand.PublicationId, domain.RawCrossrefDoiFail, snap); err != nil {
				return report, err
			}
			report.Failed++
			continue
		}

		stub := work.Stub()
		stub.RawKey = domain.RawCrossrefDoiSuccess
		stub.RawValue = snap
		cmd := &domain.AuditCommand{
			Action: domain.ActionLoad, Creator: creator,
			Message: "augment with crossref doi lookup",
		}
		if _, err := e.Ingest.Enrich(ctx, cmd, cand.PublicationId, stub); err != nil {
			return report, err
		}
		report.Enriched++
	}
	return report, nil
}

// BySearch runs the author/year sweep over publications that have
// nothing but BibTeX provenance: a free text works search on
// "creators, year", folded in only when exactly one returned work
// matches the publication.
//
// limit bounds the sweep, 0 meaning every candidate.
func (e Enricher) BySearch(ctx context.Context, creator string, limit int) (Report, error) {
	candidates, err := e.Ingest.SearchCandidates(ctx, limit)
	if err != nil {
		return Report{}, err
	}

	report := Report{}
	for _, cand := range candidates {
		body := domain.PublicationBody{DatePublishedText: cand.DatePublishedText}
		year, ok := body.YearPublished()
		authors := strings.Join(cand.AuthorNames, "; ")
		if !ok || authors == "" {
			report.Skipped++
			continue
		}

		works, snap, err := e.Client.Search(
			ctx, fmt.Sprintf("%s, %s", authors, cand.DatePublishedText),
		)
		report.Looked++
		if err != nil && ctx.Err() != nil {
			return report, err
		}
		if works == nil {
			if _, err := e.Ingest.AddRaw(ctx, cand.PublicationId, domain.RawCrossrefSearchFailOther, snap); err != nil {
				return report, err
			}
			report.Failed++
			continue
		}

		matches := MatchWork(cand.Title, year, works)
		snap.MatchIds = matches
		if len(matches) != 1 {
			if _, err := e.Ingest.AddRaw(ctx, cand.PublicationId, domain.RawCrossrefSearchFailNotUnique, snap); err != nil {
				return report, err
			}
			report.Failed++
			continue
		}

		stub := works[matches[0]].Stub()
		stub.RawKey = domain.RawCrossrefSearchSuccess
		stub.RawValue = snap
		cmd := &domain.AuditCommand{
			Action: domain.ActionLoad, Creator: creator,
			Message: "augment data crossref year author search",
		}
		if _, err := e.Ingest.Enrich(ctx, cmd, cand.PublicationId, stub); err != nil {
			return report, err
		}
		report.Enriched++
	}
	return report, nil
}

// MatchWork picks the indexes of the works that plausibly are the
// publication: issue year equal to the publication's and, when the
// publication has a title, a close one (PartialRatio at least 90).
// A work whose title aligns exactly wins alone.
func MatchWork(title string, year int, works []Work) []int {
	matched := []int{}
	for i, w := range works {
		if y, ok := w.Year(); ok && y == year {
			matched = append(matched, i)
		}
	}
	if title == "" {
		return matched
	}

	near := []int{}
	for _, i := range matched {
		switch r := PartialRatio(title, works[i].TitleText()); {
		case r == 100:
			return []int{i}
		case 90 <= r:
			near = append(near, i)
		}
	}
	return near
}

// PartialRatio scores the closest alignment of the shorter string
// within the longer one, 0 to 100, ignoring case.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(long) < len(short) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	needle := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := domain.Similarity(needle, string(long[i:i+len(short)])); best < r {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}
