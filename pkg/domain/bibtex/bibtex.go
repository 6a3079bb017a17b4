// Package bibtex turns BibTeX exports, as Web of Science writes them,
// into publication stubs ready for registration.
package bibtex

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/comses/citation/pkg/domain"
	xe "github.com/comses/citation/pkg/errors"
	nbib "github.com/nickng/bibtex"
)

// Record is one BibTeX entry with its fields flattened to plain strings.
//
// Field names are lowercased, so hand-written files and WoS exports read
// the same way. A Record is JSON-shaped and is stored as the entry's
// BIBTEX_ENTRY provenance.
type Record struct {
	// Type of the entry, "article" for most WoS exports.
	Type string `json:"type"`

	// CiteName is the entry's citation key, "ISI:000253622800003" and the like.
	CiteName string `json:"cite_name"`

	Fields map[string]string `json:"fields"`
}

// Field returns the named field, or "" when the record does not carry it.
func (rec Record) Field(name string) string {
	return rec.Fields[name]
}

// Parse reads BibTeX source into records, in file order.
func Parse(r io.Reader) ([]Record, error) {
	bib, err := nbib.Parse(r)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	records := make([]Record, 0, len(bib.Entries))
	for _, entry := range bib.Entries {
		fields := map[string]string{}
		for name, value := range entry.Fields {
			fields[strings.ToLower(name)] = value.String()
		}
		records = append(records, Record{
			Type:     entry.Type,
			CiteName: entry.CiteName,
			Fields:   fields,
		})
	}
	return records, nil
}

// Publication converts the record into the stub it describes.
//
// The second return lists author emails the record could not attribute to
// any author. They are worth a look by hand; everything else about the
// record is in the stub.
func (rec Record) Publication() (domain.PublicationStub, []string) {
	authors, unassigned := collectAuthors(rec)
	stub := domain.PublicationStub{
		Body: domain.PublicationBody{
			Title:             SanitizeName(rec.Field("title")),
			Abstract:          rec.Field("abstract"),
			DatePublishedText: rec.Field("year"),
			Doi:               domain.SanitizeDoi(rec.Field("doi")),
			Isi:               rec.Field("isi"),
			Volume:            rec.Field("volume"),
			Pages:             rec.Field("pages"),
			Issue:             rec.Field("issue"),
			Series:            rec.Field("series"),
			SeriesTitle:       rec.Field("series_title"),
			SeriesText:        rec.Field("series_text"),
			IsPrimary:         true,
		},
		Container: domain.ContainerStub{
			Type:  rec.Field("type"),
			Name:  rec.Field("journal"),
			Issn:  rec.Field("issn"),
			Eissn: rec.Field("eissn"),
		},
		Authors:   authors,
		Tags:      rec.Keywords(),
		Citations: rec.Citations(),
		RawKey:    domain.RawBibtexEntry,
		RawValue:  rec,
	}
	return stub, unassigned
}

// Keywords merges the "keywords" and "keywords-plus" fields, split on ";"
// and capitalized the way the catalog spells tags.
func (rec Record) Keywords() []string {
	tags := []string{}
	for _, field := range []string{"keywords", "keywords-plus"} {
		for _, keyword := range strings.Split(rec.Field(field), ";") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				tags = append(tags, capitalize(keyword))
			}
		}
	}
	return tags
}

func capitalize(s string) string {
	rs := []rune(strings.ToLower(s))
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

var texQuotes = regexp.MustCompile("\\{''\\}|``")

// SanitizeName cleans TeX markup out of a title or name field. TeX quote
// pairs become plain double quotes, newlines become spaces and backslash
// escapes are dropped.
func SanitizeName(s string) string {
	s = texQuotes.ReplaceAllString(s, `"`)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, `\`, "")
}
