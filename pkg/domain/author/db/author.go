package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// AuthorDelta carries a partial update of an author's columns.
// nil fields are left as they are.
type AuthorDelta struct {
	Type       *domain.AuthorType
	GivenName  *string
	FamilyName *string

	// empty string clears the identifier.
	Orcid        *string
	Researcherid *string

	Email *string
}

type AuthorInterface interface {
	// Retrieve authors by id.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of authors
	//
	// Return
	//
	// - map[int]domain.Author: mapping from id to Author.
	// Ids pointing to nothing are dropped silently.
	//
	// - error
	Get(ctx context.Context, ids []int) (map[int]domain.Author, error)

	// Find ids of authors matching the filter, ordered by name.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.AuthorFilter: all given dimensions must match
	//
	// Return
	//
	// - []int: matching ids, ordered by family name, given name, id
	//
	// - error
	Find(ctx context.Context, filter domain.AuthorFilter) ([]int, error)

	// Retrieve alternate spellings of authors, grouped by author.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of authors
	//
	// Return
	//
	// - map[int][]domain.AuthorAlias: aliases per author, in the order
	// they were recorded. Authors with no alias are left out.
	//
	// - error
	Aliases(ctx context.Context, authorIds []int) (map[int][]domain.AuthorAlias, error)

	// Update columns of an author under an audit command.
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
	// - int: id of the author
	//
	// - AuthorDelta: fields to overwrite
	//
	// Return
	//
	// - error: ErrMissing when no such author exists
	Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta AuthorDelta) error
}
