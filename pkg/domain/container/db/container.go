package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// ContainerDelta carries a partial update of a container's columns.
// nil fields are left as they are.
type ContainerDelta struct {
	Type *string
	Name *string

	// empty string clears the identifier.
	Issn  *string
	Eissn *string
}

type ContainerInterface interface {
	// Retrieve containers by id.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of containers
	//
	// Return
	//
	// - map[int]domain.Container: mapping from id to Container.
	// Ids pointing to nothing are dropped silently.
	//
	// - error
	Get(ctx context.Context, ids []int) (map[int]domain.Container, error)

	// Find ids of containers matching the filter, ordered by name.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.ContainerFilter: all given dimensions must match
	//
	// Return
	//
	// - []int: matching ids, ordered by name, id
	//
	// - error
	Find(ctx context.Context, filter domain.ContainerFilter) ([]int, error)

	// Retrieve alternate spellings of containers, grouped by container.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids of containers
	//
	// Return
	//
	// - map[int][]domain.ContainerAlias: aliases per container, in the
	// order they were recorded. Containers with no alias are left out.
	//
	// - error
	Aliases(ctx context.Context, containerIds []int) (map[int][]domain.ContainerAlias, error)

	// Update columns of a container under an audit command.
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
	// - int: id of the container
	//
	// - ContainerDelta: fields to overwrite
	//
	// Return
	//
	// - error: ErrMissing when no such container exists
	Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta ContainerDelta) error
}
