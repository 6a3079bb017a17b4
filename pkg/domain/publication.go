package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownPublicationStatus = errors.New("unknown publication status")

type PublicationStatus string

const (
	// Not reviewed yet.
	Unreviewed PublicationStatus = "UNREVIEWED"

	// Updated by its author and awaiting another review.
	AuthorUpdated PublicationStatus = "AUTHOR_UPDATED"

	// Does not refer to a specific computational model.
	Invalid PublicationStatus = "INVALID"

	// Metadata reviewed and verified by a curator.
	Reviewed PublicationStatus = "REVIEWED"
)

func (ps PublicationStatus) String() string {
	return string(ps)
}

func AsPublicationStatus(s string) (PublicationStatus, error) {
	switch PublicationStatus(s) {
	case Unreviewed:
		return Unreviewed, nil
	case AuthorUpdated:
		return AuthorUpdated, nil
	case Invalid:
		return Invalid, nil
	case Reviewed:
		return Reviewed, nil
	default:
		return PublicationStatus(s), fmt.Errorf("%w: %s", ErrUnknownPublicationStatus, s)
	}
}

var ErrUnknownAuthorRole = errors.New("unknown author role")

type AuthorRole string

const (
	RoleAuthor         AuthorRole = "AUTHOR"
	RoleReviewedAuthor AuthorRole = "REVIEWED_AUTHOR"
	RoleContributor    AuthorRole = "CONTRIBUTOR"
	RoleEditor         AuthorRole = "EDITOR"
	RoleTranslator     AuthorRole = "TRANSLATOR"
	RoleSeriesEditor   AuthorRole = "SERIES_EDITOR"
)

func (ar AuthorRole) String() string {
	return string(ar)
}

func AsAuthorRole(s string) (AuthorRole, error) {
	switch AuthorRole(s) {
	case RoleAuthor:
		return RoleAuthor, nil
	case RoleReviewedAuthor:
		return RoleReviewedAuthor, nil
	case RoleContributor:
		return RoleContributor, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleTranslator:
		return RoleTranslator, nil
	case RoleSeriesEditor:
		return RoleSeriesEditor, nil
	default:
		return AuthorRole(s), fmt.Errorf("%w: %s", ErrUnknownAuthorRole, s)
	}
}

// Creator is an Author together with the role they played on a publication.
//
// The order of Creators on a publication is the author order of the source.
type Creator struct {
	Author
	Role AuthorRole
}

func (c *Creator) Equal(o *Creator) bool {
	return c.Role == o.Role && c.Author.Equal(&o.Author)
}

// Core part of a publication.
type PublicationBody struct {
	Id int

	Title      string
	Abstract   string
	ShortTitle string
	Url        string

	// Publishing date as found in the source, not always a full date.
	// "2014", "May 2014" and "2014-05-03" all occur.
	DatePublishedText string

	ContactAuthorName string
	ContactEmail      string

	Status  PublicationStatus
	Flagged bool

	// False for publications known only by being cited.
	IsPrimary bool

	// Where in its container the publication appeared.
	Pages       string
	Issn        string
	Volume      string
	Issue       string
	Series      string
	SeriesTitle string
	SeriesText  string

	// Doi and Isi are empty when not known; when known, each is unique
	// over all publications.
	Doi string
	Isi string

	// Username of the curator who imported this publication.
	AddedBy string

	// Username of the curator assigned to review this publication, or "".
	AssignedCurator string

	DateAdded    time.Time
	DateModified time.Time
}

func (pb *PublicationBody) Equal(o *PublicationBody) bool {
	if (pb == nil) || (o == nil) {
		return (pb == nil) && (o == nil)
	}
	return pb.Id == o.Id &&
		pb.Title == o.Title &&
		pb.Abstract == o.Abstract &&
		pb.ShortTitle == o.ShortTitle &&
		pb.Url == o.Url &&
		pb.DatePublishedText == o.DatePublishedText &&
		pb.ContactAuthorName == o.ContactAuthorName &&
		pb.ContactEmail == o.ContactEmail &&
		pb.Status == o.Status &&
		pb.Flagged == o.Flagged &&
		pb.IsPrimary == o.IsPrimary &&
		pb.Pages == o.Pages &&
		pb.Issn == o.Issn &&
		pb.Volume == o.Volume &&
		pb.Issue == o.Issue &&
		pb.Series == o.Series &&
		pb.SeriesTitle == o.SeriesTitle &&
		pb.SeriesText == o.SeriesText &&
		pb.Doi == o.Doi &&
		pb.Isi == o.Isi &&
		pb.AddedBy == o.AddedBy &&
		pb.AssignedCurator == o.AssignedCurator &&
		pb.DateAdded.Equal(o.DateAdded) &&
		pb.DateModified.Equal(o.DateModified)
}

var datePublishedFormats = []string{
	"2006-01-02", "2006/01/02",
	"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
	"2006-01", "Jan 2006", "January 2006",
	"2006",
}

// DatePublished parses DatePublishedText. It is false when the text does
// not hold a recognizable date.
func (pb *PublicationBody) DatePublished() (time.Time, bool) {
	text := strings.TrimSpace(pb.DatePublishedText)
	for _, f := range datePublishedFormats {
		if t, err := time.Parse(f, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var yearPattern = regexp.MustCompile(`\b(1[5-9][0-9]{2}|2[0-9]{3})\b`)

// YearPublished extracts the publishing year from DatePublishedText,
// falling back to the first 4-digit year found anywhere in the text.
func (pb *PublicationBody) YearPublished() (int, bool) {
	if t, ok := pb.DatePublished(); ok {
		return t.Year(), true
	}
	if m := yearPattern.FindString(pb.DatePublishedText); m != "" {
		y, _ := strconv.Atoi(m)
		return y, true
	}
	return 0, false
}

type Publication struct {
	PublicationBody

	Container Container
	Creators  []Creator

	Platforms          []NamedRecord
	Sponsors           []NamedRecord
	Tags               []NamedRecord
	ModelDocumentation []NamedRecord

	CodeArchiveUrls []CodeArchiveUrl

	// Ids of publications this one cites, and of those citing this one.
	Citations    []int
	ReferencedBy []int
}

func (p *Publication) Equal(o *Publication) bool {
	if (p == nil) || (o == nil) {
		return (p == nil) && (o == nil)
	}
	return p.PublicationBody.Equal(&o.PublicationBody) &&
		p.Container.Equal(&o.Container) &&
		cmp.SliceEqWith(p.Creators, o.Creators, func(a, b Creator) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEqWith(p.Platforms, o.Platforms, func(a, b NamedRecord) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEqWith(p.Sponsors, o.Sponsors, func(a, b NamedRecord) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEqWith(p.Tags, o.Tags, func(a, b NamedRecord) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEqWith(p.ModelDocumentation, o.ModelDocumentation, func(a, b NamedRecord) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEqWith(p.CodeArchiveUrls, o.CodeArchiveUrls, func(a, b CodeArchiveUrl) bool { return a.Equal(&b) }) &&
		cmp.SliceContentEq(p.Citations, o.Citations) &&
		cmp.SliceContentEq(p.ReferencedBy, o.ReferencedBy)
}

// IsArchived is true when any archive URL, defunct ones included, resolved.
func (p *Publication) IsArchived() bool {
	_, found := slices.First(p.CodeArchiveUrls, func(u CodeArchiveUrl) bool {
		return u.Status != UrlUnavailable
	})
	return found
}

// CodeArchivalStatus is the best status among the active archive URLs.
//
// A publication without active URLs is NOT_AVAILABLE.
func (p *Publication) CodeArchivalStatus() CodeArchiveStatus {
	status := NotAvailable
	for _, u := range p.CodeArchiveUrls {
		if !u.IsActive {
			continue
		}
		if s := u.CodeArchiveStatus(); status.Ordinal() < s.Ordinal() {
			status = s
		}
	}
	return status
}

// ContainerTitle is the container name in title case, for citation strings.
func (p *Publication) ContainerTitle() string {
	if p.Container.Name == "" {
		return "None"
	}
	return cases.Title(language.English).String(p.Container.Name)
}

// ApaCitationString renders an APA-flavored citation line.
func (p *Publication) ApaCitationString() string {
	authors := strings.Join(
		slices.Map(p.Creators, func(c Creator) string {
			return fmt.Sprintf("%s, %s.", c.FamilyName, c.GivenNameInitial())
		}),
		", ",
	)
	year := "n.d."
	if y, ok := p.YearPublished(); ok {
		year = strconv.Itoa(y)
	}
	return fmt.Sprintf(
		"%s (%s). %s. %s, %s(%s)",
		authors, year, p.Title, p.ContainerTitle(), p.Volume, p.Pages,
	)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(text string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(FoldToASCII(text)), "-"), "-")
}

func slugifyMax(text string, maxLength int) string {
	slug := slugify(text)
	if len(slug) == 0 {
		return "-"
	}
	if len(slug) <= maxLength {
		return slug
	}
	if i := strings.LastIndex(slug[:maxLength], "-"); 0 < i {
		return slug[:i]
	}
	// first word alone is longer than maxLength
	return slug[:maxLength]
}

// Slug is the URL path component of the publication, made of its creators,
// publishing year and title.
func (p *Publication) Slug() string {
	parts := []string{}
	if apaAuthors := strings.Join(
		slices.Map(p.Creators, func(c Creator) string { return c.Name() }), "-",
	); apaAuthors != "" {
		parts = append(parts, apaAuthors)
	}
	if year, ok := p.YearPublished(); ok {
		parts = append(parts, strconv.Itoa(year))
	}
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	return slugifyMax(strings.Join(parts, "-"), 100)
}

// SanitizeDoi strips braces and backslashes left over from BibTeX escaping
// and lowercases the DOI. Duplicate detection compares DOIs in this form.
func SanitizeDoi(doi string) string {
	return strings.ToLower(strings.NewReplacer("{", "", "}", "", `\`, "").Replace(doi))
}

// Parameter to query publications.
//
// When all dimensions match a publication, this query matches the publication.
type PublicationFilter struct {
	// match if the publication's status is one of these.
	//
	// If it is nil or empty, it means "match any".
	Status []PublicationStatus

	// match on primary/secondary. nil means "match any".
	IsPrimary *bool

	// match on the flagged mark. nil means "match any".
	Flagged *bool

	// match if assigned to this curator. Empty means "match any".
	AssignedCurator string

	// match if the publication appeared in one of these containers.
	ContainerId []int

	// match if one of these authors created the publication.
	AuthorId []int

	// match if the publication is tagged/platformed/sponsored so.
	TagId      []int
	PlatformId []int
	SponsorId  []int

	// match if the title contains this text, case-insensitively.
	TitleLike string

	// match on the DOI, compared in sanitized form. Empty means "match any".
	Doi string
}

func (pf PublicationFilter) Equal(other PublicationFilter) bool {
	return cmp.SliceContentEq(pf.Status, other.Status) &&
		cmp.PEqEq(pf.IsPrimary, other.IsPrimary) &&
		cmp.PEqEq(pf.Flagged, other.Flagged) &&
		pf.AssignedCurator == other.AssignedCurator &&
		cmp.SliceContentEq(pf.ContainerId, other.ContainerId) &&
		cmp.SliceContentEq(pf.AuthorId, other.AuthorId) &&
		cmp.SliceContentEq(pf.TagId, other.TagId) &&
		cmp.SliceContentEq(pf.PlatformId, other.PlatformId) &&
		cmp.SliceContentEq(pf.SponsorId, other.SponsorId) &&
		pf.TitleLike == other.TitleLike &&
		pf.Doi == other.Doi
}
