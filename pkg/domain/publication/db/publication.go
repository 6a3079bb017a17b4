package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// PublicationDelta carries a partial update of a publication's own columns.
// nil fields are left as they are.
//
// Relations (creators, vocabularies, archive urls, citations) change through
// their own operations, not here.
type PublicationDelta struct {
	Title             *string
	Abstract          *string
	ShortTitle        *string
	Url               *string
	DatePublishedText *string
	ContactAuthorName *string
	ContactEmail      *string

	Status    *domain.PublicationStatus
	IsPrimary *bool

	Pages       *string
	Issn        *string
	Volume      *string
	Issue       *string
	Series      *string
	SeriesTitle *string
	SeriesText  *string

	// empty string clears the identifier.
	Doi *string
	Isi *string

	ContainerId *int

	// empty string unassigns.
	AssignedCurator *string
}

type PublicationInterface interface {
	// Retrieve publications with all their relations, by id.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of publications
	//
	// Return
	//
	// - map[int]domain.Publication: mapping from id to Publication.
	// Ids pointing to nothing are dropped silently.
	//
	// - error
	Get(ctx context.Context, ids []int) (map[int]domain.Publication, error)

	// Find ids of publications matching the filter, newest first.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.PublicationFilter: all given dimensions must match
	//
	// Return
	//
	// - []int: matching ids, ordered by date added (descending)
	//
	// - error
	Find(ctx context.Context, filter domain.PublicationFilter) ([]int, error)

	// Update columns of a publication under an audit command.
	//
	// Fields which do not change are left out of the audit payload; when
	// nothing changes at all, no log (and no command row) is written.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command this change runs under.
	// Written lazily on the first recorded change.
	//
	// - int: id of the publication
	//
	// - PublicationDelta: new values
	//
	// Return
	//
	// - error: dberrors.Missing when the publication does not exist.
	Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta PublicationDelta) error

	// Replace the records of one vocabulary attached to a publication.
	//
	// Added and removed attachments are audited row by row.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand
	//
	// - int: id of the publication
	//
	// - domain.VocabKind: which vocabulary
	//
	// - []int: ids of the records to be attached after the call
	//
	// Return
	//
	// - error: dberrors.Missing when the publication or a record does not exist.
	UpdateVocab(ctx context.Context, cmd *domain.AuditCommand, id int, kind domain.VocabKind, recordIds []int) error

	// Mark a publication as flagged and leave a note saying why.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand
	//
	// - int: id of the publication
	//
	// - string: reason, stored as a note by the command's creator
	//
	// Return
	//
	// - domain.Note: the note created
	//
	// - error
	Flag(ctx context.Context, cmd *domain.AuditCommand, id int, message string) (domain.Note, error)

	// Clear the flagged mark.
	Unflag(ctx context.Context, cmd *domain.AuditCommand, id int) error

	// Notes of a publication, newest first. Deleted notes are included.
	Notes(ctx context.Context, publicationId int) ([]domain.Note, error)

	// Add a note on a publication, authored by the command's creator.
	AddNote(ctx context.Context, cmd *domain.AuditCommand, publicationId int, text string) (domain.Note, error)

	// Mark a note as deleted. The row is kept, with who deleted it and when.
	//
	// Return
	//
	// - error: dberrors.Missing when the note does not exist or is
	// deleted already.
	DeleteNote(ctx context.Context, cmd *domain.AuditCommand, noteId int) error
}
