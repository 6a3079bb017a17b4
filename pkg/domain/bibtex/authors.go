package bibtex

import (
	"regexp"
	"sort"
	"strings"

	"github.com/comses/citation/pkg/domain"
)

var andSep = regexp.MustCompile(`\band\b`)

// EmailFloor is the similarity an email has to reach with some author
// before fuzzy assignment trusts the record's emails at all.
const EmailFloor = 50

// collectAuthors builds the author stubs a record names: the author field
// split on the word "and", with the orcid-numbers and researcherid-numbers
// blocks matched back by normalized name and emails attributed to authors
// where possible.
func collectAuthors(rec Record) ([]domain.AuthorStub, []string) {
	authors := splitAuthors(rec.Field("author"))

	orcids := idsByName(rec.Field("orcid-numbers"), cutOnFirstSlash)
	researcherids := idsByName(rec.Field("researcherid-numbers"), cutOnLastSlash)
	for i, a := range authors {
		key := nameKey{family: a.FamilyName, given: a.GivenName}
		authors[i].Orcid = orcids[key]
		authors[i].Researcherid = researcherids[key]
	}

	unassigned := assignEmails(authors, splitEmails(rec.Field("author-email")))
	return authors, unassigned
}

// splitAuthors cuts an author field on the word "and" and normalizes each
// part into family and given names. Empty parts are dropped.
func splitAuthors(authorField string) []domain.AuthorStub {
	authors := []domain.AuthorStub{}
	for _, part := range andSep.Split(authorField, -1) {
		family, given := domain.NormalizeAuthorName(part)
		if family == "" && given == "" {
			continue
		}
		authors = append(authors, domain.AuthorStub{
			Type:       domain.Individual,
			FamilyName: family,
			GivenName:  given,
		})
	}
	return authors
}

func splitEmails(emailField string) []string {
	emails := []string{}
	for _, line := range strings.Split(emailField, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			emails = append(emails, line)
		}
	}
	return emails
}

type nameKey struct {
	family string
	given  string
}

// idsByName reads an "Author/ID" block, one pair per line, into a map
// keyed by normalized name. The first id a name gets is the one kept.
//
// ORCID lines split on the first slash and ResearcherID lines on the
// last, since a ResearcherID like "B-6033-2011" never contains a slash.
func idsByName(block string, cut func(line string) (name, id string, ok bool)) map[nameKey]string {
	ids := map[nameKey]string{}
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, id, ok := cut(line)
		if !ok {
			continue
		}
		family, given := domain.NormalizeAuthorName(name)
		key := nameKey{family: family, given: given}
		if _, taken := ids[key]; !taken {
			ids[key] = strings.TrimSpace(id)
		}
	}
	return ids
}

func cutOnFirstSlash(line string) (name, id string, ok bool) {
	return strings.Cut(line, "/")
}

func cutOnLastSlash(line string) (name, id string, ok bool) {
	i := strings.LastIndex(line, "/")
	if i < 0 {
		return line, "", false
	}
	return line[:i], line[i+1:], true
}

// assignEmails attributes emails to authors, writing them into the slice.
// It returns the emails that end up attributed to nobody.
//
// When the record lists exactly one email per author they match in order.
// Otherwise each email goes to the free author whose name reads most like
// the email's local part. When there are more emails than authors, or no
// pairing reaches EmailFloor, the whole list comes back unassigned.
func assignEmails(authors []domain.AuthorStub, emails []string) []string {
	if len(emails) == 0 {
		return nil
	}
	if len(authors) == len(emails) {
		for i, email := range emails {
			authors[i].Email = email
		}
		return nil
	}
	if len(authors) < len(emails) {
		return emails
	}

	type pair struct {
		author   int
		email    int
		affinity int
	}
	pairs := []pair{}
	plausible := false
	for i, a := range authors {
		for j, email := range emails {
			affinity := emailAffinity(a, email)
			plausible = plausible || EmailFloor < affinity
			pairs = append(pairs, pair{author: i, email: j, affinity: affinity})
		}
	}
	if !plausible {
		return emails
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[j].affinity < pairs[i].affinity
	})
	authorTaken := make([]bool, len(authors))
	emailTaken := make([]bool, len(emails))
	for _, p := range pairs {
		if authorTaken[p.author] || emailTaken[p.email] {
			continue
		}
		authors[p.author].Email = emails[p.email]
		authorTaken[p.author] = true
		emailTaken[p.email] = true
	}
	return nil
}

// emailAffinity scores how much an email looks like an author's, by the
// better of the full name and the family name against the local part.
func emailAffinity(a domain.AuthorStub, email string) int {
	local, _, _ := strings.Cut(email, "@")
	affinity := domain.Similarity(a.Name(), local)
	if byFamily := domain.Similarity(a.FamilyName, local); affinity < byFamily {
		affinity = byFamily
	}
	return affinity
}
