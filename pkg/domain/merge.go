package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/comses/citation/pkg/utils/cmp"
)

var ErrUnknownMergeKind = errors.New("unknown merge kind")

// MergeKind is the entity family a SuggestedMerge applies to.
type MergeKind string

const (
	MergeAuthor      MergeKind = "author"
	MergeContainer   MergeKind = "container"
	MergePlatform    MergeKind = "platform"
	MergePublication MergeKind = "publication"
	MergeSponsor     MergeKind = "sponsor"
)

func (mk MergeKind) String() string {
	return string(mk)
}

func AsMergeKind(s string) (MergeKind, error) {
	switch MergeKind(s) {
	case MergeAuthor, MergeContainer, MergePlatform, MergePublication, MergeSponsor:
		return MergeKind(s), nil
	default:
		return MergeKind(s), fmt.Errorf("%w: %s", ErrUnknownMergeKind, s)
	}
}

// SuggestedMerge proposes folding duplicate records into one.
//
// Duplicates lists ids of records of Kind considered the same thing.
// When applied, the record with the smallest id is kept, the others are
// folded into it and deleted, and NewContent overwrites fields of the
// kept record.
type SuggestedMerge struct {
	Id         int
	Kind       MergeKind
	Duplicates []int

	// Field values for the kept record, keyed by column name.
	NewContent map[string]any

	Creator     string
	Comment     string
	DateAdded   time.Time
	DateApplied *time.Time
}

func (sm *SuggestedMerge) Applied() bool {
	return sm != nil && sm.DateApplied != nil
}

// KeptId is the id the duplicates are folded into. False when there are
// no duplicates listed.
func (sm *SuggestedMerge) KeptId() (int, bool) {
	if len(sm.Duplicates) == 0 {
		return 0, false
	}
	kept := sm.Duplicates[0]
	for _, id := range sm.Duplicates[1:] {
		if id < kept {
			kept = id
		}
	}
	return kept, true
}

func (sm *SuggestedMerge) Equal(o *SuggestedMerge) bool {
	if (sm == nil) || (o == nil) {
		return (sm == nil) && (o == nil)
	}
	return sm.Id == o.Id &&
		sm.Kind == o.Kind &&
		cmp.SliceContentEq(sm.Duplicates, o.Duplicates) &&
		jsonEq(sm.NewContent, o.NewContent) &&
		sm.Creator == o.Creator &&
		sm.Comment == o.Comment &&
		sm.DateAdded.Equal(o.DateAdded) &&
		cmp.PEqualWith(sm.DateApplied, o.DateApplied, func(a, b time.Time) bool { return a.Equal(b) })
}
