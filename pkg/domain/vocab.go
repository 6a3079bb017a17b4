package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownVocab = errors.New("unknown vocabulary")

// VocabKind identifies one of the curated vocabularies.
type VocabKind string

const (
	VocabPlatform           VocabKind = "platform"
	VocabSponsor            VocabKind = "sponsor"
	VocabTag                VocabKind = "tag"
	VocabModelDocumentation VocabKind = "model_documentation"
)

func (vk VocabKind) String() string {
	return string(vk)
}

func AsVocabKind(s string) (VocabKind, error) {
	switch VocabKind(s) {
	case VocabPlatform:
		return VocabPlatform, nil
	case VocabSponsor:
		return VocabSponsor, nil
	case VocabTag:
		return VocabTag, nil
	case VocabModelDocumentation:
		return VocabModelDocumentation, nil
	default:
		return VocabKind(s), fmt.Errorf("%w: %s", ErrUnknownVocab, s)
	}
}

// NamedRecord is an entry of a curated vocabulary. Names are unique per kind.
//
// Platforms and Sponsors carry Url and Description.
// Tags and ModelDocumentation records have a bare Name.
type NamedRecord struct {
	Id          int
	Name        string
	Url         string
	Description string
}

func (nr *NamedRecord) Equal(o *NamedRecord) bool {
	if (nr == nil) || (o == nil) {
		return (nr == nil) && (o == nil)
	}
	return nr.Id == o.Id &&
		nr.Name == o.Name &&
		nr.Url == o.Url &&
		nr.Description == o.Description
}
