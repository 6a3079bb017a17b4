package authors

import (
	"github.com/comses/citation/pkg/utils/cmp"
)

// Alias is an alternate spelling of an author met during ingest.
type Alias struct {
	Id         int    `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (a Alias) Equal(o Alias) bool {
	return a == o
}

// Detail is one author of the catalog.
type Detail struct {
	Id           int     `json:"id"`
	Type         string  `json:"type"`
	GivenName    string  `json:"given_name"`
	FamilyName   string  `json:"family_name"`
	Orcid        string  `json:"orcid"`
	Researcherid string  `json:"researcherid"`
	Email        string  `json:"email"`
	Aliases      []Alias `json:"aliases"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Type == o.Type &&
		d.GivenName == o.GivenName &&
		d.FamilyName == o.FamilyName &&
		d.Orcid == o.Orcid &&
		d.Researcherid == o.Researcherid &&
		d.Email == o.Email &&
		cmp.SliceEqWith(d.Aliases, o.Aliases, Alias.Equal)
}

// Change is the request body updating an author. Absent fields keep
// their value. Orcid and Researcherid set to "" withdraw the identifier.
type Change struct {
	Type         *string `json:"type,omitempty"`
	GivenName    *string `json:"given_name,omitempty"`
	FamilyName   *string `json:"family_name,omitempty"`
	Orcid        *string `json:"orcid,omitempty"`
	Researcherid *string `json:"researcherid,omitempty"`
	Email        *string `json:"email,omitempty"`
}

func (c Change) Equal(o Change) bool {
	return cmp.PEqEq(c.Type, o.Type) &&
		cmp.PEqEq(c.GivenName, o.GivenName) &&
		cmp.PEqEq(c.FamilyName, o.FamilyName) &&
		cmp.PEqEq(c.Orcid, o.Orcid) &&
		cmp.PEqEq(c.Researcherid, o.Researcherid) &&
		cmp.PEqEq(c.Email, o.Email)
}
