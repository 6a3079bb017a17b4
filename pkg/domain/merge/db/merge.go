package db

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
)

// ErrNotMergeable rejects a group of records which cannot be merged
// without losing or conflating data. Errors wrap it together with the
// reason.
var ErrNotMergeable = errors.New("records cannot be merged")

// ErrApplied rejects applying a suggested merge a second time.
var ErrApplied = errors.New("suggested merge is already applied")

// SuggestionFilter narrows Find. Zero fields match everything.
type SuggestionFilter struct {
	// Kind of the records the suggestions are about.
	Kind []domain.MergeKind

	// Applied selects suggestions already carried out (true) or still
	// pending (false).
	Applied *bool
}

// MergeInterface folds duplicate records into one and keeps track of
// suggested merges until a curator applies them.
//
// Merges keep one record, move everything hanging off the duplicates
// onto it, fill its empty fields with theirs, and delete them. Every
// row changed on the way is audited under the command of the merge, so
// the history of the kept record tells where its content came from.
type MergeInterface interface {
	// Merge duplicate publications into finalId, as one transaction.
	//
	// The group is rejected with ErrNotMergeable when its members are
	// not interchangeable: when a duplicate is primary while finalId is
	// not, when two members cite different reference lists (distinct
	// non-zero citation counts), when one publication cites two members
	// (folding them would conflate its references), or when the
	// containers of the members carry conflicting ISSNs.
	//
	// Merging moves the raw provenance, archive URLs, URL checks, notes
	// and vocabulary attachments of the duplicates onto finalId, along
	// with their citation links: references cited by a duplicate become
	// references of finalId when it has none, and publications citing a
	// duplicate cite finalId afterwards. Secondary references cited
	// only by duplicates are deleted rather than moved when finalId
	// keeps its own reference list. Creators of the duplicates are
	// deleted when the merge orphans them; the creators of finalId are
	// never touched. Empty fields of finalId (title, DOI, ISI,
	// abstract, publishing date) are filled from the duplicates, oldest
	// first.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command this merge runs under
	//
	// - int: id of the publication to keep
	//
	// - []int: ids of the duplicates, oldest first
	//
	// Return
	//
	// - error: ErrNotMergeable as above, or domain errors ErrMissing
	// when a member is not found.
	MergePublications(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error

	// Merge duplicate authors into finalId, as one transaction.
	//
	// The group is rejected with ErrNotMergeable when one publication
	// has two members among its creators, since merging would collapse
	// two distinct byline entries.
	//
	// Merging turns differing names of the duplicates into aliases of
	// finalId, moves their aliases and raw provenance links over,
	// relinks their publications to finalId and fills its empty fields
	// (names, ORCID, ResearcherID, email) before deleting them.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command this merge runs under
	//
	// - int: id of the author to keep
	//
	// - []int: ids of the duplicates, oldest first
	//
	// Return
	//
	// - error: ErrNotMergeable or domain.ErrMissing as above.
	MergeAuthors(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error

	// Merge duplicate containers into finalId, as one transaction.
	//
	// The group is rejected with ErrNotMergeable when its members carry
	// conflicting ISSNs or EISSNs.
	//
	// Merging moves the publications, aliases and raw provenance of the
	// duplicates onto finalId, turns their differing names into aliases
	// of it and fills its empty fields before deleting them.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command this merge runs under
	//
	// - int: id of the container to keep
	//
	// - []int: ids of the duplicates, oldest first
	//
	// Return
	//
	// - error: ErrNotMergeable or domain.ErrMissing as above.
	MergeContainers(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error

	// Record a suggested merge for later review.
	//
	// Suggestions are bookkeeping, not changes to the catalog, so they
	// are not audited. Groups of fewer than two records are rejected
	// with ErrNotMergeable.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.SuggestedMerge: Kind, Duplicates, NewContent, Creator
	// and Comment are stored. The rest is generated.
	//
	// Return
	//
	// - domain.SuggestedMerge: the stored suggestion
	//
	// - error
	Suggest(ctx context.Context, suggestion domain.SuggestedMerge) (domain.SuggestedMerge, error)

	// Find ids of suggested merges matching filter, oldest first.
	//
	// Args
	//
	// - context.Context
	//
	// - SuggestionFilter
	//
	// Return
	//
	// - []int: ids, ordered by id
	//
	// - error
	Find(ctx context.Context, filter SuggestionFilter) ([]int, error)

	// Get suggested merges by id.
	//
	// Args
	//
	// - context.Context
	//
	// - []int: ids looked for
	//
	// Return
	//
	// - map[int]domain.SuggestedMerge: found suggestions, keyed by id.
	// Ids not in the table are left out, silently.
	//
	// - error
	Get(ctx context.Context, ids []int) (map[int]domain.SuggestedMerge, error)

	// Apply a suggested merge, as one transaction.
	//
	// The record with the smallest id in Duplicates is kept and the
	// rest is merged into it, per kind: publications, authors and
	// containers merge as the operations above do, platforms and
	// sponsors are folded by reattaching their publications. NewContent
	// then overwrites fields of the kept record, audited like any
	// update. The suggestion is marked applied in the same transaction.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand: command the merge runs under
	//
	// - int: id of the suggestion
	//
	// Return
	//
	// - domain.SuggestedMerge: the suggestion, marked applied
	//
	// - error: ErrApplied when it was applied before, ErrNotMergeable
	// when the group fails validation, domain.ErrMissing when the
	// suggestion or a group member is gone.
	Apply(ctx context.Context, cmd *domain.AuditCommand, id int) (domain.SuggestedMerge, error)

	// Find groups of publications sharing a DOI.
	//
	// DOIs are compared case-insensitively, empty ones skipped.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - [][]int: publication ids, grouped by DOI. Members are ordered
	// oldest first, groups by their smallest member. Every group has at
	// least two members.
	//
	// - error
	DoiDuplicateGroups(ctx context.Context) ([][]int, error)

	// Find groups of containers sharing a name.
	//
	// Names are compared case-insensitively, empty ones skipped.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - [][]int: container ids, grouped by name, ordered as in
	// DoiDuplicateGroups.
	//
	// - error
	ContainerDuplicateGroups(ctx context.Context) ([][]int, error)

	// Rewrite mixed-case DOIs to lower case, audited under cmd.
	//
	// Meant to run after merging DOI duplicates, so that lowercasing
	// cannot collide two publications.
	//
	// Args
	//
	// - context.Context
	//
	// - *domain.AuditCommand
	//
	// Return
	//
	// - int: publications rewritten
	//
	// - error
	LowercaseDois(ctx context.Context, cmd *domain.AuditCommand) (int, error)
}
