package merges

import (
	"github.com/comses/citation/pkg/api/types/merges"
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/slices"
)

func ComposeDetail(sm domain.SuggestedMerge) merges.Detail {
	var applied *rfctime.RFC3339
	if sm.DateApplied != nil {
		t := rfctime.New(*sm.DateApplied)
		applied = &t
	}
	return merges.Detail{
		Id:        sm.Id,
		ModelName: sm.Kind.String(),
		Instances: slices.Map(sm.Duplicates, func(id int) merges.Instance {
			return merges.Instance{Id: id}
		}),
		NewContent:  sm.NewContent,
		Creator:     sm.Creator,
		Comment:     sm.Comment,
		DateAdded:   rfctime.New(sm.DateAdded),
		DateApplied: applied,
	}
}
