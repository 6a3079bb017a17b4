// Package export renders the catalog into files curators hand on to
// researchers.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/comses/citation/pkg/domain"
	kdbpub "github.com/comses/citation/pkg/domain/publication/db"
	kdbvocab "github.com/comses/citation/pkg/domain/vocab/db"
	xe "github.com/comses/citation/pkg/errors"
	"github.com/comses/citation/pkg/utils/pointer"
	"github.com/comses/citation/pkg/utils/slices"
)

// Csv writes every primary publication as one CSV row.
//
// Beyond the fixed columns, the header grows one 0/1 column per
// platform and per sponsor known to the catalog, in alphabetical
// order, marking which publications carry them. Notes are aggregated
// into a single column. Rows are ordered by publication id, so two
// exports of the same catalog are identical.
func Csv(
	ctx context.Context,
	w io.Writer,
	dbPublication kdbpub.PublicationInterface,
	dbVocab kdbvocab.VocabInterface,
) (int, error) {
	platforms, err := vocabNames(ctx, dbVocab, domain.VocabPlatform)
	if err != nil {
		return 0, xe.Wrap(err)
	}
	sponsors, err := vocabNames(ctx, dbVocab, domain.VocabSponsor)
	if err != nil {
		return 0, xe.Wrap(err)
	}

	ids, err := dbPublication.Find(ctx, domain.PublicationFilter{
		IsPrimary: pointer.Ref(true),
	})
	if err != nil {
		return 0, xe.Wrap(err)
	}
	sort.Ints(ids)

	cw := csv.NewWriter(w)
	header := []string{
		"Count", "Id", "Publication Title", "Abstract", "Short Title",
		"Code Url", "Date Published Text", "Date Added", "Date Modified",
		"Status", "Contact Email", "Added By", "Assigned Curator",
		"Contact Author Name", "Resource Type", "Is Primary",
		"Journal Id", "DOI", "Series Text", "Series Title", "Series",
		"Issue", "Volume", "ISSN", "Pages", "Year of Publication",
		"Journal", "Notes", "Platform List",
	}
	header = append(header, platforms...)
	header = append(header, "Sponsors List")
	header = append(header, sponsors...)
	if err := cw.Write(header); err != nil {
		return 0, xe.Wrap(err)
	}

	count := 0
	for start := 0; start < len(ids); start += pageSize {
		end := start + pageSize
		if len(ids) < end {
			end = len(ids)
		}
		page, err := dbPublication.Get(ctx, ids[start:end])
		if err != nil {
			return count, xe.Wrap(err)
		}

		for _, id := range ids[start:end] {
			pub, ok := page[id]
			if !ok {
				continue
			}
			notes, err := dbPublication.Notes(ctx, id)
			if err != nil {
				return count, xe.Wrap(err)
			}
			count++
			if err := cw.Write(row(count, pub, notes, platforms, sponsors)); err != nil {
				return count, xe.Wrap(err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, xe.Wrap(err)
	}
	return count, nil
}

// How many publications one Get fetches.
const pageSize = 200

func vocabNames(ctx context.Context, dbVocab kdbvocab.VocabInterface, kind domain.VocabKind) ([]string, error) {
	records, err := dbVocab.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := slices.Map(records, func(r domain.NamedRecord) string { return r.Name })
	sort.Strings(names)
	return names, nil
}

func row(
	count int,
	pub domain.Publication,
	notes []domain.Note,
	platforms []string,
	sponsors []string,
) []string {
	year := ""
	if y, ok := pub.YearPublished(); ok {
		year = strconv.Itoa(y)
	}
	noteTexts := slices.Map(notes, func(n domain.Note) string { return n.Text })

	fields := []string{
		strconv.Itoa(count),
		strconv.Itoa(pub.Id),
		pub.Title,
		pub.Abstract,
		pub.ShortTitle,
		pub.Url,
		pub.DatePublishedText,
		pub.DateAdded.Format("2006-01-02 15:04:05"),
		pub.DateModified.Format("2006-01-02 15:04:05"),
		pub.Status.String(),
		pub.ContactEmail,
		pub.AddedBy,
		pub.AssignedCurator,
		pub.ContactAuthorName,
		pub.Container.Type,
		strconv.FormatBool(pub.IsPrimary),
		strconv.Itoa(pub.Container.Id),
		pub.Doi,
		pub.SeriesText,
		pub.SeriesTitle,
		pub.Series,
		pub.Issue,
		pub.Volume,
		pub.Issn,
		pub.Pages,
		year,
		pub.Container.Name,
		strings.Join(noteTexts, "; "),
		strings.Join(namesOf(pub.Platforms), "; "),
	}
	fields = append(fields, matrix(platforms, pub.Platforms)...)
	fields = append(fields, strings.Join(namesOf(pub.Sponsors), "; "))
	fields = append(fields, matrix(sponsors, pub.Sponsors)...)
	return fields
}

func namesOf(records []domain.NamedRecord) []string {
	names := slices.Map(records, func(r domain.NamedRecord) string { return r.Name })
	sort.Strings(names)
	return names
}

// matrix marks each of all with 1 when records carry it, 0 otherwise.
func matrix(all []string, records []domain.NamedRecord) []string {
	carried := map[string]bool{}
	for _, r := range records {
		carried[r.Name] = true
	}
	out := make([]string, 0, len(all))
	for _, name := range all {
		if carried[name] {
			out = append(out, "1")
		} else {
			out = append(out, "0")
		}
	}
	return out
}
