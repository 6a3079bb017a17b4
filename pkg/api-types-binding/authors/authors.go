package authors

import (
	"github.com/comses/citation/pkg/api/types/authors"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/slices"
)

func ComposeAlias(a domain.AuthorAlias) authors.Alias {
	return authors.Alias{
		Id:         a.Id,
		GivenName:  a.GivenName,
		FamilyName: a.FamilyName,
	}
}

func ComposeDetail(a domain.Author, aliases []domain.AuthorAlias) authors.Detail {
	return authors.Detail{
		Id:           a.Id,
		Type:         a.Type.String(),
		GivenName:    a.GivenName,
		FamilyName:   a.FamilyName,
		Orcid:        a.Orcid,
		Researcherid: a.Researcherid,
		Email:        a.Email,
		Aliases:      slices.Map(aliases, ComposeAlias),
	}
}
