package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownRawKey = errors.New("unknown raw key")

// RawKey tells where a Raw payload came from.
type RawKey string

const (
	RawBibtexFile  RawKey = "BIBTEX_FILE"
	RawBibtexEntry RawKey = "BIBTEX_ENTRY"
	RawBibtexRef   RawKey = "BIBTEX_REF"

	RawCrossrefDoiSuccess          RawKey = "CROSSREF_DOI_SUCCESS"
	RawCrossrefDoiFail             RawKey = "CROSSREF_DOI_FAIL"
	RawCrossrefSearchSuccess       RawKey = "CROSSREF_SEARCH_SUCCESS"
	RawCrossrefSearchFailNotUnique RawKey = "CROSSREF_SEARCH_FAIL_NOT_UNIQUE"
	RawCrossrefSearchFailOther     RawKey = "CROSSREF_SEARCH_FAIL_OTHER"
	RawCrossrefSearchCandidate     RawKey = "CROSSREF_SEARCH_CANDIDATE"
)

func (rk RawKey) String() string {
	return string(rk)
}

func AsRawKey(s string) (RawKey, error) {
	switch RawKey(s) {
	case RawBibtexFile, RawBibtexEntry, RawBibtexRef,
		RawCrossrefDoiSuccess, RawCrossrefDoiFail,
		RawCrossrefSearchSuccess, RawCrossrefSearchFailNotUnique,
		RawCrossrefSearchFailOther, RawCrossrefSearchCandidate:
		return RawKey(s), nil
	default:
		return RawKey(s), fmt.Errorf("%w: %s", ErrUnknownRawKey, s)
	}
}

// Raw is a provenance payload: the source record a publication, its
// container and its authors were derived from.
//
// Value is JSON-shaped. BIBTEX_ENTRY and Crossref payloads are objects,
// BIBTEX_FILE and BIBTEX_REF payloads are the source text itself.
type Raw struct {
	Id            int
	Key           RawKey
	Value         any
	PublicationId int
	ContainerId   int
	AuthorIds     []int
	DateAdded     time.Time
}
