package bibtex

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/comses/citation/pkg/domain"
)

// Citations converts the record's "cited-references" block, one stub per
// nonempty line.
func (rec Record) Citations() []domain.CitationStub {
	citations := []domain.CitationStub{}
	for _, line := range strings.Split(rec.Field("cited-references"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		author, year, container := GuessElements(line)
		citations = append(citations, domain.CitationStub{
			AuthorName:    author,
			Year:          year,
			ContainerName: container,
			Doi:           MakeDoi(line),
			RefText:       line,
		})
	}
	return citations
}

// GuessElements pulls the author, year and container segments out of one
// cited-reference line such as "Nowak M, 1992, NATURE, V359, P826".
//
// Only the first four comma separated segments are considered. The last
// all-numeric one is the year; the author sits just before it and the
// container just after. Without a year the first two segments are taken
// for author and container. Missing segments come back "".
func GuessElements(ref string) (author, year, container string) {
	segments := strings.SplitN(ref, ",", 4)
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}

	yearInd := -1
	for i, s := range segments {
		if isNumeric(s) {
			yearInd = i
		}
	}
	if yearInd < 0 {
		author = segments[0]
		if 1 < len(segments) {
			container = segments[1]
		}
		return author, "", container
	}

	year = segments[yearInd]
	if 0 <= yearInd-1 {
		author = segments[yearInd-1]
	}
	if yearInd+1 < len(segments) {
		container = segments[yearInd+1]
	}
	return author, year, container
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var refDoi = regexp.MustCompile(`^(?:.*DOI *)(10\..+)\.$`)

// MakeDoi extracts the DOI a cited-reference line carries in its last
// comma separated segment, sanitized, or "" when the line does not end
// in one.
func MakeDoi(ref string) string {
	i := strings.LastIndex(ref, ",")
	if i < 0 {
		return ""
	}
	m := refDoi.FindStringSubmatch(ref[i+1:])
	if m == nil {
		return ""
	}
	return domain.SanitizeDoi(m[1])
}
