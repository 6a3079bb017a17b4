package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownAuthorType = errors.New("unknown author type")

type AuthorType string

const (
	Individual   AuthorType = "INDIVIDUAL"
	Organization AuthorType = "ORGANIZATION"
)

func (at AuthorType) String() string {
	return string(at)
}

func AsAuthorType(s string) (AuthorType, error) {
	switch AuthorType(s) {
	case Individual:
		return Individual, nil
	case Organization:
		return Organization, nil
	default:
		return AuthorType(s), fmt.Errorf("%w: %s", ErrUnknownAuthorType, s)
	}
}

// Author is a canonical creator of publications, a person or an organization.
//
// Orcid and Researcherid are identifiers from external registries.
// Empty string means "not known"; when known, they are unique over all Authors.
type Author struct {
	Id           int
	Type         AuthorType
	GivenName    string
	FamilyName   string
	Orcid        string
	Researcherid string
	Email        string
}

// Name returns "GIVEN FAMILY", or whichever part the author has.
//
// Organizations carry their whole name in one part.
func (a *Author) Name() string {
	if a.FamilyName != "" {
		if a.GivenName != "" {
			return a.GivenName + " " + a.FamilyName
		}
		return a.FamilyName
	}
	return a.GivenName
}

// GivenNameInitial returns the first letter of the given name, or "".
func (a *Author) GivenNameInitial() string {
	for _, r := range a.GivenName {
		return string(r)
	}
	return ""
}

func (a *Author) Equal(o *Author) bool {
	if (a == nil) || (o == nil) {
		return (a == nil) && (o == nil)
	}
	return a.Id == o.Id &&
		a.Type == o.Type &&
		a.GivenName == o.GivenName &&
		a.FamilyName == o.FamilyName &&
		a.Orcid == o.Orcid &&
		a.Researcherid == o.Researcherid &&
		a.Email == o.Email
}

// AuthorAlias is an alternate spelling of an Author met during ingest.
//
// Authors that are not an individual only have a given name.
type AuthorAlias struct {
	Id         int
	AuthorId   int
	GivenName  string
	FamilyName string
}

func (aa *AuthorAlias) Name() string {
	if aa.FamilyName != "" {
		if aa.GivenName != "" {
			return aa.GivenName + " " + aa.FamilyName
		}
		return aa.FamilyName
	}
	return aa.GivenName
}

func (aa *AuthorAlias) Equal(o *AuthorAlias) bool {
	if (aa == nil) || (o == nil) {
		return (aa == nil) && (o == nil)
	}
	return aa.Id == o.Id &&
		aa.AuthorId == o.AuthorId &&
		aa.GivenName == o.GivenName &&
		aa.FamilyName == o.FamilyName
}

// Parameter to query authors.
//
// When all dimensions match an author, this query matches the author.
type AuthorFilter struct {
	// match if the author's name, or one of their aliases,
	// contains this text, case-insensitively.
	NameLike string

	// match on the ORCID iD. Empty means "match any".
	Orcid string
}

func (af AuthorFilter) Equal(other AuthorFilter) bool {
	return af == other
}
