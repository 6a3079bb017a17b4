package containers

import (
	"github.com/comses/citation/pkg/utils/cmp"
)

// Detail is one container (journal, proceedings...) of the catalog.
type Detail struct {
	Id      int      `json:"id"`
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Issn    string   `json:"issn"`
	Eissn   string   `json:"eissn"`
	Aliases []string `json:"aliases"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Type == o.Type &&
		d.Name == o.Name &&
		d.Issn == o.Issn &&
		d.Eissn == o.Eissn &&
		cmp.SliceEq(d.Aliases, o.Aliases)
}

// Change is the request body updating a container. Absent fields keep
// their value. Issn and Eissn set to "" withdraw the identifier.
type Change struct {
	Type  *string `json:"type,omitempty"`
	Name  *string `json:"name,omitempty"`
	Issn  *string `json:"issn,omitempty"`
	Eissn *string `json:"eissn,omitempty"`
}

func (c Change) Equal(o Change) bool {
	return cmp.PEqEq(c.Type, o.Type) &&
		cmp.PEqEq(c.Name, o.Name) &&
		cmp.PEqEq(c.Issn, o.Issn) &&
		cmp.PEqEq(c.Eissn, o.Eissn)
}
