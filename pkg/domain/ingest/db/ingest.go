package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/cmp"
)

// Loaded reports what Register did with one source record.
type Loaded struct {
	// Publication the record ended up in, created or matched.
	PublicationId int

	// Provenance row stored for the record, 0 when none was.
	RawId int

	// True when the record created the publication, false when it was
	// folded into one already in the catalog.
	Created bool

	// Authors named by the record which could not be matched against
	// the creators of the existing publication. Creating them would
	// duplicate authors the catalog spells differently, so they are
	// dropped and reported instead.
	UnmatchedAuthors []domain.AuthorStub
}

// Candidate is a publication missing fields an external lookup could fill.
type Candidate struct {
	PublicationId     int
	Doi               string
	Title             string
	DatePublishedText string

	// Creator names, given name first. Filled by SearchCandidates only.
	AuthorNames []string
}

func (c Candidate) Equal(o Candidate) bool {
	return c.PublicationId == o.PublicationId &&
		c.Doi == o.Doi &&
		c.Title == o.Title &&
		c.DatePublishedText == o.DatePublishedText &&
		cmp.SliceEq(c.AuthorNames, o.AuthorNames)
}

// IngestInterface writes source records (BibTeX entries, lookup
// responses) into the catalog and keeps their provenance.
type IngestInterface interface {
	// Store what one source record says, as one transaction.
	//
	// A record duplicating a publication already in the catalog (same
	// DOI or ISI, or same title and publishing date) is folded into it:
	// empty fields of the publication, its container and its matched
	// creators are filled with the record's values, each fill audited
	// under cmd, and the record is stored as provenance only when some
	// field actually changed. Anything else creates the publication
	// (audited), reusing containers sharing an ISSN or a name and
	// authors sharing an ORCID, a ResearcherID or a name, stores the
	// record, and stores its cited references as secondary
	// publications, each with its own provenance line.
	//
	// Tags named by the record are attached either way, creating tag
	// rows as needed. Loads do not audit tagging.
	//
	// A stub with an empty RawKey is a hand-entered record and leaves
	// no provenance row.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command this load runs under.
	// Written lazily on the first recorded change.
	//
	// - domain.PublicationStub: the record
	//
	// Return
	//
	// - Loaded: where the record went
	//
	// - error
	Register(ctx context.Context, cmd *domain.AuditCommand, stub domain.PublicationStub) (Loaded, error)

	// Fold what an external lookup found into a publication.
	//
	// Empty fields of the publication and its container are filled from
	// the stub under cmd. The stub's container name and author names
	// are kept as alias rows, and its authors are stored (reusing
	// catalog authors only on a shared ORCID) and tied to the
	// response's provenance row, which is stored unconditionally.
	// Enrichment never touches the publication's creator list.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand
	//
	// - int: id of the publication
	//
	// - domain.PublicationStub: what the lookup found. RawKey and
	// RawValue carry the response snapshot to store.
	//
	// Return
	//
	// - domain.Raw: the provenance row stored
	//
	// - error: dberrors.Missing when the publication does not exist.
	Enrich(ctx context.Context, cmd *domain.AuditCommand, publicationId int, stub domain.PublicationStub) (domain.Raw, error)

	// Store a provenance payload against a publication, changing
	// nothing else. Failed lookups are recorded this way.
	//
	// Args
	//
	// - context.Context
	//
	// - int: id of the publication
	//
	// - domain.RawKey: where the payload came from
	//
	// - any: the payload, stored as JSON
	//
	// Return
	//
	// - domain.Raw: the row stored
	//
	// - error: dberrors.Missing when the publication does not exist.
	AddRaw(ctx context.Context, publicationId int, key domain.RawKey, value any) (domain.Raw, error)

	// Provenance rows of publications, oldest first.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of publications
	//
	// Return
	//
	// - map[int][]domain.Raw: mapping from publication id to its rows.
	// Publications without any are dropped silently.
	//
	// - error
	Provenance(ctx context.Context, publicationIds []int) (map[int][]domain.Raw, error)

	// Publications whose DOI could be looked up to fill missing fields:
	// they have a DOI but no title, abstract or publishing date.
	// Ordered by id.
	//
	// Args
	//
	// - context.Context
	//
	// - int: largest number of candidates to return. 0 means all.
	//
	// Return
	//
	// - []Candidate
	//
	// - error
	DoiCandidates(ctx context.Context, limit int) ([]Candidate, error)

	// Publications worth an author/year search: missing fields, a DOI,
	// and nothing but BibTeX provenance, meaning no lookup reached them
	// yet. Ordered by id, creator names attached.
	//
	// Args
	//
	// - context.Context
	//
	// - int: largest number of candidates to return. 0 means all.
	//
	// Return
	//
	// - []Candidate
	//
	// - error
	SearchCandidates(ctx context.Context, limit int) ([]Candidate, error)
}
