package containers

import (
	"github.com/comses/citation/pkg/api/types/containers"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/slices"
)

func ComposeDetail(c domain.Container, aliases []domain.ContainerAlias) containers.Detail {
	return containers.Detail{
		Id:    c.Id,
		Type:  c.Type,
		Name:  c.Name,
		Issn:  c.Issn,
		Eissn: c.Eissn,
		Aliases: slices.Map(aliases, func(a domain.ContainerAlias) string {
			return a.Name
		}),
	}
}
