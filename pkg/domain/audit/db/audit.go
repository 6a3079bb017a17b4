package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// AuditInterface reads the change history other areas write.
// It never writes; logs are recorded by the operations they describe.
type AuditInterface interface {
	// The history of a publication.
	//
	// A command belongs to the history when any of its logs is scoped to
	// the publication or changed the publication row itself. Each trail
	// carries the whole command, so changes on related rows made in the
	// same stroke stay visible.
	//
	// Args
	//
	// - context.Context
	//
	// - int: id of the publication
	//
	// Return
	//
	// - []domain.AuditTrail: newest command first, the logs of each in
	// recorded order
	//
	// - error
	ForPublication(ctx context.Context, publicationId int) ([]domain.AuditTrail, error)

	// The history of one row of a table.
	//
	// Args
	//
	// - context.Context
	//
	// - string: table name, as recorded in the logs
	//
	// - int: id of the row
	//
	// Return
	//
	// - []domain.AuditTrail: commands which changed the row, with all
	// their logs. Newest command first.
	//
	// - error
	ForRow(ctx context.Context, table string, rowId int) ([]domain.AuditTrail, error)

	// Per-curator shares of the hand-entered changes of a publication.
	//
	// Only MANUAL commands count. The percentage of each curator is
	// their log count against all matching logs, rounded down.
	//
	// Args
	//
	// - context.Context
	//
	// - int: id of the publication
	//
	// Return
	//
	// - []domain.Contribution: most recent contributor first. Empty when
	// the publication has no hand-entered change.
	//
	// - error
	Contributions(ctx context.Context, publicationId int) ([]domain.Contribution, error)

	// Contributions of every primary publication at once, for cache
	// warming.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - map[int][]domain.Contribution: contributions per publication id.
	// Publications with no hand-entered change are left out.
	//
	// - error
	AllContributions(ctx context.Context) (map[int][]domain.Contribution, error)
}
