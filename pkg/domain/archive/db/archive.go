package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// NewUrl is an archive URL to record for a publication.
type NewUrl struct {
	Url string

	// CategoryId of the category the URL falls under.
	CategoryId int

	// SystemOverridableCategory is true when the category came from the
	// URL patterns rather than from a curator. The URL checker only
	// re-categorizes URLs with this flag set.
	SystemOverridableCategory bool

	Notes string
}

// UrlDelta carries a partial update of an archive URL's columns.
// nil fields are left as they are.
type UrlDelta struct {
	Url        *string
	CategoryId *int

	// A curator pinning CategoryId by hand should clear this flag too.
	SystemOverridableCategory *bool

	Status   *domain.ArchiveUrlStatus
	IsActive *bool
	Notes    *string
}

// Check is the outcome of probing one archive URL.
type Check struct {
	StatusCode   int
	StatusReason string
	Headers      string

	// Status graded from the response.
	Status domain.ArchiveUrlStatus

	// CategoryId the URL patterns assign. Zero leaves the category
	// alone; otherwise it is applied as long as the URL's category is
	// still system overridable.
	CategoryId int
}

type ArchiveInterface interface {
	// All known URL categories.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - []domain.CodeArchiveUrlCategory: ordered by category, subcategory
	//
	// - error
	Categories(ctx context.Context) ([]domain.CodeArchiveUrlCategory, error)

	// All URL patterns with their categories.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - []domain.CodeArchiveUrlPattern: in matching order (by id)
	//
	// - error
	Patterns(ctx context.Context) ([]domain.CodeArchiveUrlPattern, error)

	// Retrieve archive URLs of publications.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of publications
	//
	// Return
	//
	// - map[int][]domain.CodeArchiveUrl: URLs per publication, oldest
	// first. Publications with no URL are left out.
	//
	// - error
	Urls(ctx context.Context, publicationIds []int) (map[int][]domain.CodeArchiveUrl, error)

	// Every archive URL in the catalog, for the URL checker.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - []domain.CodeArchiveUrl: all URLs, active or not, ordered by id
	//
	// - error
	AllUrls(ctx context.Context) ([]domain.CodeArchiveUrl, error)

	// Record a new archive URL under an audit command.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the change is recorded under.
	// Its Creator is stored as the URL's creator.
	//
	// - int: id of the publication the URL belongs to
	//
	// - NewUrl: the URL to record. Its status starts as unavailable
	// until the URL checker probes it.
	//
	// Return
	//
	// - domain.CodeArchiveUrl: the URL as stored
	//
	// - error: ErrMissing when the publication or the category does
	// not exist
	AddUrl(ctx context.Context, cmd *domain.AuditCommand, publicationId int, url NewUrl) (domain.CodeArchiveUrl, error)

	// Update columns of an archive URL under an audit command.
	//
	// Fields which do not change are left out of the audit payload; when
	// nothing changes at all, no log (and no command row) is written.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the change is recorded under
	//
	// - int: id of the URL
	//
	// - UrlDelta: fields to overwrite
	//
	// Return
	//
	// - error: ErrMissing when no such URL exists, or when the delta
	// points at a category which does not exist
	UpdateUrl(ctx context.Context, cmd *domain.AuditCommand, id int, delta UrlDelta) error

	// Record the outcome of probing an archive URL.
	//
	// Every check leaves a status log row. On top of that, the URL's
	// status is updated when it changed, and its category is updated
	// when the check assigns a different one and the category is still
	// system overridable. Checks are machine work and are not audited.
	//
	// Args
	//
	// - context.Context
	//
	// - int: id of the URL
	//
	// - Check: what the probe observed
	//
	// Return
	//
	// - error: ErrMissing when no such URL exists
	RecordCheck(ctx context.Context, urlId int, check Check) error
}
