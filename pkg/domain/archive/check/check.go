// Package check probes code archive URLs and keeps their recorded
// status and category in step with what the web actually serves.
package check

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/comses/citation/pkg/domain"
	kdbarc "github.com/comses/citation/pkg/domain/archive/db"
	xe "github.com/comses/citation/pkg/errors"
	json "github.com/goccy/go-json"
)

// DefaultTimeout bounds one probe. Some archives are slow; none should
// hold the sweep for longer than this.
const DefaultTimeout = 3 * time.Second

// FallbackCategory is the category name URLs fall under when no
// pattern claims them.
const FallbackCategory = "Unknown"

// Checker probes every archive URL in the catalog and records what it
// finds: a status log row per probe, plus status and category updates
// where they changed.
type Checker struct {
	Archive kdbarc.ArchiveInterface

	// Client the probes go out through. nil means a client with
	// DefaultTimeout.
	Client *http.Client
}

// Report sums up one sweep.
type Report struct {
	// URLs probed and recorded.
	Checked int

	// Probes per graded status.
	Available   int
	Restricted  int
	Unavailable int

	// URLs whose patterns category differed from the recorded one
	// while the category was still system overridable.
	Recategorized int
}

// All probes every archive URL, active or not.
//
// Each URL is re-categorized against the URL patterns, falling back to
// the "Unknown" category, and probed with a GET. Probe failures grade
// the URL unavailable; only a broken catalog or a cancelled context
// stops the sweep.
func (c Checker) All(ctx context.Context) (Report, error) {
	patterns, err := c.Archive.Patterns(ctx)
	if err != nil {
		return Report{}, err
	}
	matchers, err := domain.CompileUrlPatterns(patterns)
	if err != nil {
		return Report{}, err
	}
	fallback, err := fallbackCategory(ctx, c.Archive)
	if err != nil {
		return Report{}, err
	}
	urls, err := c.Archive.AllUrls(ctx)
	if err != nil {
		return Report{}, err
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	report := Report{}
	for _, u := range urls {
		check := probe(ctx, client, u.Url)
		if err := ctx.Err(); err != nil {
			return report, err
		}

		category := domain.CategorizeUrl(u.Url, matchers, fallback)
		check.CategoryId = category.Id

		if err := c.Archive.RecordCheck(ctx, u.Id, check); err != nil {
			return report, err
		}
		report.Checked++
		switch check.Status {
		case domain.UrlAvailable:
			report.Available++
		case domain.UrlRestricted:
			report.Restricted++
		default:
			report.Unavailable++
		}
		if u.SystemOverridableCategory && category.Id != u.Category.Id {
			report.Recategorized++
		}
	}
	return report, nil
}

// Categorize matches rawUrl against the catalog's URL patterns and
// returns the category of the first match, or the "Unknown" fallback.
func Categorize(ctx context.Context, archive kdbarc.ArchiveInterface, rawUrl string) (domain.CodeArchiveUrlCategory, error) {
	patterns, err := archive.Patterns(ctx)
	if err != nil {
		return domain.CodeArchiveUrlCategory{}, err
	}
	matchers, err := domain.CompileUrlPatterns(patterns)
	if err != nil {
		return domain.CodeArchiveUrlCategory{}, err
	}
	fallback, err := fallbackCategory(ctx, archive)
	if err != nil {
		return domain.CodeArchiveUrlCategory{}, err
	}
	return domain.CategorizeUrl(rawUrl, matchers, fallback), nil
}

func fallbackCategory(ctx context.Context, archive kdbarc.ArchiveInterface) (domain.CodeArchiveUrlCategory, error) {
	categories, err := archive.Categories(ctx)
	if err != nil {
		return domain.CodeArchiveUrlCategory{}, err
	}
	for _, cat := range categories {
		if cat.Category == FallbackCategory {
			return cat, nil
		}
	}
	return domain.CodeArchiveUrlCategory{}, xe.Wrap(errors.New(
		"the catalog has no " + FallbackCategory + " url category",
	))
}

// probe GETs the URL and grades the outcome. Request errors are not
// errors of the sweep; they grade the URL unavailable with the error
// text as the reason.
func probe(ctx context.Context, client *http.Client, rawUrl string) kdbarc.Check {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return kdbarc.Check{StatusReason: err.Error(), Status: domain.UrlUnavailable}
	}
	resp, err := client.Do(req)
	if err != nil {
		return kdbarc.Check{StatusReason: err.Error(), Status: domain.UrlUnavailable}
	}
	defer resp.Body.Close()

	return kdbarc.Check{
		StatusCode:   resp.StatusCode,
		StatusReason: http.StatusText(resp.StatusCode),
		Headers:      headerText(resp.Header),
		Status:       Grade(resp.StatusCode),
	}
}

// Grade maps a response status to the URL status it proves.
//
// A 2xx is an open codebase, a 403 one locked behind authentication or
// a paywall, anything else does not resolve.
func Grade(statusCode int) domain.ArchiveUrlStatus {
	switch {
	case 200 <= statusCode && statusCode < 300:
		return domain.UrlAvailable
	case statusCode == http.StatusForbidden:
		return domain.UrlRestricted
	default:
		return domain.UrlUnavailable
	}
}

func headerText(h http.Header) string {
	flat := make(map[string]string, len(h))
	for name := range h {
		flat[name] = h.Get(name)
	}
	text, err := json.Marshal(flat)
	if err != nil {
		return ""
	}
	return string(text)
}
