package merges

import (
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/utils/cmp"
)

// Instance names one record of a suggested merge group by id.
type Instance struct {
	Id int `json:"id"`
}

// Suggestion is the request body proposing a merge.
//
// ModelName is the record family ("publication", "author", "container",
// "platform" or "sponsor"). Instances lists the records considered
// duplicates, at least two of them. NewContent, keyed by column name,
// overwrites fields of the kept record when the merge is applied.
type Suggestion struct {
	ModelName  string         `json:"model_name"`
	Instances  []Instance     `json:"instances"`
	NewContent map[string]any `json:"new_content,omitempty"`
	Comment    string         `json:"comment,omitempty"`
}

func (s Suggestion) Equal(o Suggestion) bool {
	return s.ModelName == o.ModelName &&
		cmp.SliceEq(s.Instances, o.Instances) &&
		cmp.JsonEq(s.NewContent, o.NewContent) &&
		s.Comment == o.Comment
}

// Detail is one suggested merge, pending or applied.
type Detail struct {
	Id          int              `json:"id"`
	ModelName   string           `json:"model_name"`
	Instances   []Instance       `json:"instances"`
	NewContent  map[string]any   `json:"new_content,omitempty"`
	Creator     string           `json:"creator"`
	Comment     string           `json:"comment,omitempty"`
	DateAdded   rfctime.RFC3339  `json:"date_added"`
	DateApplied *rfctime.RFC3339 `json:"date_applied"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.ModelName == o.ModelName &&
		cmp.SliceEq(d.Instances, o.Instances) &&
		cmp.JsonEq(d.NewContent, o.NewContent) &&
		d.Creator == o.Creator &&
		d.Comment == o.Comment &&
		d.DateAdded.Equal(o.DateAdded) &&
		cmp.PEqualWith(d.DateApplied, o.DateApplied, rfctime.RFC3339.Equal)
}
