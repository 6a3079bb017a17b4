package curators

import (
	"github.com/comses/citation/pkg/api/types/curators"
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/domain"
)

func ComposeDetail(c domain.Curator) curators.Detail {
	return curators.Detail{
		Id:          c.Id,
		Username:    c.Username,
		Email:       c.Email,
		IsActive:    c.IsActive,
		IsSuperuser: c.IsSuperuser,
		DateJoined:  rfctime.New(c.DateJoined),
	}
}
