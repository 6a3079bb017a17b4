package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

var ErrUnknownCodeArchiveStatus = errors.New("unknown code archive status")

// CodeArchiveStatus tells how well the model code of a publication is preserved.
type CodeArchiveStatus string

const (
	// No visitable URL for the code is known.
	NotAvailable CodeArchiveStatus = "NOT_AVAILABLE"

	// The code has an active URL, but not in a trusted digital repository.
	NotInArchive CodeArchiveStatus = "NOT_IN_ARCHIVE"

	// The code is available in a trusted archive.
	Archived CodeArchiveStatus = "ARCHIVED"
)

func (cas CodeArchiveStatus) String() string {
	return string(cas)
}

// Ordinal orders statuses from worst (1) to best (3).
func (cas CodeArchiveStatus) Ordinal() int {
	switch cas {
	case NotInArchive:
		return 2
	case Archived:
		return 3
	default:
		return 1
	}
}

func AsCodeArchiveStatus(s string) (CodeArchiveStatus, error) {
	switch CodeArchiveStatus(s) {
	case NotAvailable:
		return NotAvailable, nil
	case NotInArchive:
		return NotInArchive, nil
	case Archived:
		return Archived, nil
	default:
		return CodeArchiveStatus(s), fmt.Errorf("%w: %s", ErrUnknownCodeArchiveStatus, s)
	}
}

var ErrUnknownUrlStatus = errors.New("unknown archive url status")

// ArchiveUrlStatus is the last observed state of one archive URL.
type ArchiveUrlStatus string

const (
	// The codebase is openly accessible at the URL.
	UrlAvailable ArchiveUrlStatus = "available"

	// The URL is locked behind authentication or a paywall.
	UrlRestricted ArchiveUrlStatus = "restricted"

	// The URL does not resolve.
	UrlUnavailable ArchiveUrlStatus = "unavailable"
)

func (aus ArchiveUrlStatus) String() string {
	return string(aus)
}

func AsArchiveUrlStatus(s string) (ArchiveUrlStatus, error) {
	switch ArchiveUrlStatus(s) {
	case UrlAvailable:
		return UrlAvailable, nil
	case UrlRestricted:
		return UrlRestricted, nil
	case UrlUnavailable:
		return UrlUnavailable, nil
	default:
		return ArchiveUrlStatus(s), fmt.Errorf("%w: %s", ErrUnknownUrlStatus, s)
	}
}

// CodeArchiveUrlCategory classifies where archive URLs point
// (CoMSES, Open Source, Platforms, Journal, Personal, Others, Invalid...).
//
// (category, subcategory) pairs are unique.
type CodeArchiveUrlCategory struct {
	Id          int
	Category    string
	Subcategory string
}

// Trusted categories count as real archives when grading archive status.
func (c CodeArchiveUrlCategory) Trusted() bool {
	return c.Category == "Archive"
}

func (c CodeArchiveUrlCategory) Name() string {
	if c.Subcategory != "" {
		return c.Category + " / " + c.Subcategory
	}
	return c.Category
}

func (c *CodeArchiveUrlCategory) Equal(o *CodeArchiveUrlCategory) bool {
	if (c == nil) || (o == nil) {
		return (c == nil) && (o == nil)
	}
	return c.Id == o.Id &&
		c.Category == o.Category &&
		c.Subcategory == o.Subcategory
}

// CodeArchiveUrlPattern assigns a category to URLs whose host and path
// match its regexes. An empty matcher matches everything.
type CodeArchiveUrlPattern struct {
	Id               int
	RegexHostMatcher string
	RegexPathMatcher string
	Category         CodeArchiveUrlCategory
}

func (p *CodeArchiveUrlPattern) Equal(o *CodeArchiveUrlPattern) bool {
	if (p == nil) || (o == nil) {
		return (p == nil) && (o == nil)
	}
	return p.Id == o.Id &&
		p.RegexHostMatcher == o.RegexHostMatcher &&
		p.RegexPathMatcher == o.RegexPathMatcher &&
		p.Category.Equal(&o.Category)
}

// UrlMatcher is a compiled CodeArchiveUrlPattern.
type UrlMatcher struct {
	host     *regexp.Regexp
	path     *regexp.Regexp
	category CodeArchiveUrlCategory
}

// Matches tests host and path against the pattern's regexes.
// Matchers are anchored at the start of each component.
func (m UrlMatcher) Matches(host string, path string) bool {
	if m.host != nil && !m.host.MatchString(host) {
		return false
	}
	if m.path != nil && !m.path.MatchString(path) {
		return false
	}
	return true
}

func (m UrlMatcher) Category() CodeArchiveUrlCategory {
	return m.category
}

// CompileUrlPatterns compiles patterns into matchers, keeping their order.
//
// Patterns with neither a host nor a path matcher can never identify
// an archive location, so they are skipped.
func CompileUrlPatterns(patterns []CodeArchiveUrlPattern) ([]UrlMatcher, error) {
	matchers := []UrlMatcher{}
	for _, p := range patterns {
		if p.RegexHostMatcher == "" && p.RegexPathMatcher == "" {
			continue
		}
		m := UrlMatcher{category: p.Category}
		if p.RegexHostMatcher != "" {
			re, err := regexp.Compile("^(?:" + p.RegexHostMatcher + ")")
			if err != nil {
				return nil, fmt.Errorf("host matcher of url pattern %d: %w", p.Id, err)
			}
			m.host = re
		}
		if p.RegexPathMatcher != "" {
			re, err := regexp.Compile("^(?:" + p.RegexPathMatcher + ")")
			if err != nil {
				return nil, fmt.Errorf("path matcher of url pattern %d: %w", p.Id, err)
			}
			m.path = re
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// CategorizeUrl picks the category of the first matcher matching the
// URL's host and path. URLs no matcher claims, and URLs that do not
// parse, get the fallback category.
func CategorizeUrl(rawUrl string, matchers []UrlMatcher, fallback CodeArchiveUrlCategory) CodeArchiveUrlCategory {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return fallback
	}
	host := u.Hostname()
	path := u.Path
	for _, m := range matchers {
		if m.Matches(host, path) {
			return m.Category()
		}
	}
	return fallback
}

// CodeArchiveUrl points to where the model code of a publication lives.
type CodeArchiveUrl struct {
	Id            int
	PublicationId int
	Url           string
	Category      CodeArchiveUrlCategory
	Status        ArchiveUrlStatus

	// False once this URL has been replaced.
	IsActive bool

	// True unless a curator pinned the category by hand.
	// The URL checker only re-categorizes overridable URLs.
	SystemOverridableCategory bool

	// Remarks on this URL from the author or curator.
	Notes string

	// Username of who entered the URL.
	Creator string

	DateCreated  time.Time
	LastModified time.Time
}

// CodeArchiveStatus grades this URL for archive status aggregation.
//
// Only available URLs in a trusted category count as ARCHIVED.
func (u CodeArchiveUrl) CodeArchiveStatus() CodeArchiveStatus {
	if u.Status == UrlAvailable && u.Category.Trusted() {
		return Archived
	}
	if u.Status == UrlRestricted {
		return NotInArchive
	}
	return NotAvailable
}

// IsAvailable is true when the URL resolves at all, pay-walled or not.
func (u CodeArchiveUrl) IsAvailable() bool {
	return u.Status == UrlAvailable || u.Status == UrlRestricted
}

func (u *CodeArchiveUrl) Equal(o *CodeArchiveUrl) bool {
	if (u == nil) || (o == nil) {
		return (u == nil) && (o == nil)
	}
	return u.Id == o.Id &&
		u.PublicationId == o.PublicationId &&
		u.Url == o.Url &&
		u.Category.Equal(&o.Category) &&
		u.Status == o.Status &&
		u.IsActive == o.IsActive &&
		u.SystemOverridableCategory == o.SystemOverridableCategory &&
		u.Notes == o.Notes &&
		u.Creator == o.Creator &&
		u.DateCreated.Equal(o.DateCreated) &&
		u.LastModified.Equal(o.LastModified)
}

// URLStatusLog records one probe of an archive URL by the URL checker.
type URLStatusLog struct {
	Id            int
	PublicationId int
	Url           string
	StatusCode    int
	StatusReason  string
	Headers       string

	SystemGenerated bool

	DateCreated  time.Time
	LastModified time.Time
}
