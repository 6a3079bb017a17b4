package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// VocabDelta carries a partial update of a vocabulary record.
// nil fields are left as they are.
//
// Url and Description only apply to kinds which carry them
// (platforms and sponsors); for other kinds they are ignored.
type VocabDelta struct {
	Name        *string
	Url         *string
	Description *string
}

// VocabInterface curates the publication vocabularies: platforms,
// sponsors, tags and model documentation. All kinds share one shape,
// so every operation takes the kind to work on.
type VocabInterface interface {
	// List every record of a kind, ordered by name.
	List(ctx context.Context, kind domain.VocabKind) ([]domain.NamedRecord, error)

	// Retrieve records of a kind by id.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.VocabKind
	//
	// - []int: ids of records
	//
	// Return
	//
	// - map[int]domain.NamedRecord: mapping from id to record.
	// Ids pointing to nothing are dropped silently.
	//
	// - error
	Get(ctx context.Context, kind domain.VocabKind, ids []int) (map[int]domain.NamedRecord, error)

	// Create records with the given names, under an audit command.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the changes are recorded under
	//
	// - domain.VocabKind
	//
	// - []string: names to create
	//
	// Return
	//
	// - []domain.NamedRecord: the created records, in the order given.
	// Names are unique per kind; creating a known name is an error.
	//
	// - error
	Create(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error)

	// Update columns of a record under an audit command.
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
	// - domain.VocabKind
	//
	// - int: id of the record
	//
	// - VocabDelta: fields to overwrite
	//
	// Return
	//
	// - error: ErrMissing when no such record exists
	Update(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, id int, delta VocabDelta) error

	// Delete records by name, under an audit command.
	//
	// Publication attachments of the deleted records go away with them.
	// Names naming no record are skipped silently.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the changes are recorded under
	//
	// - domain.VocabKind
	//
	// - []string: names to delete
	//
	// Return
	//
	// - []domain.NamedRecord: the records which were deleted
	//
	// - error
	Delete(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error)

	// Split replaces a record with several, rewiring publications.
	//
	// The named record is deleted and each publication it was attached
	// to is attached to every record in newNames, existing or created
	// on the fly.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the changes are recorded under
	//
	// - domain.VocabKind
	//
	// - string: name of the record to split
	//
	// - []string: names replacing it
	//
	// Return
	//
	// - []domain.NamedRecord: the records standing in for the old one
	//
	// - error: ErrMissing when no record has the name
	Split(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, name string, newNames []string) ([]domain.NamedRecord, error)

	// Merge folds records into one canonical record, rewiring publications.
	//
	// Publications attached to any of the named records are attached to
	// the canonical record (got or created by newName); the named records
	// other than the canonical one are deleted.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the changes are recorded under
	//
	// - domain.VocabKind
	//
	// - []string: names of the records to fold in
	//
	// - string: name of the canonical record
	//
	// Return
	//
	// - domain.NamedRecord: the canonical record
	//
	// - error
	Merge(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string, newName string) (domain.NamedRecord, error)
}
