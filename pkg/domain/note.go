package domain

import "time"

// Note is a curator remark on a publication.
//
// Deleted notes are kept, marked with who deleted them and when.
type Note struct {
	Id   int
	Text string

	// Username of the curator who wrote the note.
	AddedBy string

	// Publication the note is about, 0 when detached.
	PublicationId int

	DateAdded    time.Time
	DateModified time.Time

	DeletedOn *time.Time
	DeletedBy string
}

func (n *Note) IsDeleted() bool {
	return n != nil && n.DeletedOn != nil
}
