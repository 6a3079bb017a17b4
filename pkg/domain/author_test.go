package domain_test

import (
	"errors"
	"testing"

	"github.com/comses/citation/pkg/domain"
)

func TestAsAuthorType(t *testing.T) {
	for _, s := range []string{"INDIVIDUAL", "ORGANIZATION"} {
		actual, err := domain.AsAuthorType(s)
		if err != nil {
			t.Errorf("unexpected error for %s: %+v", s, err)
		}
		if actual.String() != s {
			t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, s)
		}
	}

	if _, err := domain.AsAuthorType("COLLECTIVE"); !errors.Is(err, domain.ErrUnknownAuthorType) {
		t.Errorf("expected ErrUnknownAuthorType, got %+v", err)
	}
}

func TestAuthor_Name(t *testing.T) {
	theory := func(when domain.Author, then string) func(*testing.T) {
		return func(t *testing.T) {
			if actual := when.Name(); actual != then {
				t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, then)
			}
		}
	}

	t.Run("when the author has both name parts, it joins them", theory(
		domain.Author{GivenName: "JOHN", FamilyName: "SMITH"}, "JOHN SMITH",
	))
	t.Run("when the author has only a family name, it returns that", theory(
		domain.Author{FamilyName: "SMITH"}, "SMITH",
	))
	t.Run("when the author has only a given name, it returns that", theory(
		domain.Author{Type: domain.Organization, GivenName: "SANTA FE INSTITUTE"},
		"SANTA FE INSTITUTE",
	))
	t.Run("when the author has no name at all, it returns empty", theory(
		domain.Author{}, "",
	))
}

func TestAuthor_GivenNameInitial(t *testing.T) {
	theory := func(when domain.Author, then string) func(*testing.T) {
		return func(t *testing.T) {
			if actual := when.GivenNameInitial(); actual != then {
				t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, then)
			}
		}
	}

	t.Run("when the given name is spelled out, it takes the first letter", theory(
		domain.Author{GivenName: "JOHN"}, "J",
	))
	t.Run("when the given name starts with a non-ascii letter, it keeps the whole rune", theory(
		domain.Author{GivenName: "Ólafur"}, "Ó",
	))
	t.Run("when there is no given name, it is empty", theory(
		domain.Author{FamilyName: "SMITH"}, "",
	))
}
