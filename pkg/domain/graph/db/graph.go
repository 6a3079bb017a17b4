package db

import (
	"context"

	"github.com/comses/citation/pkg/domain"
)

// NetworkFilter selects and colors the citation network.
type NetworkFilter struct {
	GroupBy domain.GraphGroupBy

	// Filter names records of the grouping vocabulary. Only reviewed
	// primary publications attached to one of them take part in the
	// network. Empty means the grouping's default filter.
	Filter []string
}

// GraphInterface assembles the aggregate views behind the charts.
// It only reads; the numbers move as curation does.
type GraphInterface interface {
	// Network assembles the citation network among reviewed primary
	// publications matching the filter.
	//
	// Nodes are the publications appearing in at least one citation
	// whose both ends match the filter, in ascending id order. Links
	// index into that node list, citing side first.
	//
	// Args
	//
	// - context.Context
	//
	// - NetworkFilter
	//
	// Return
	//
	// - domain.NetworkData: the network. Groups holds the effective
	// filter plus "others".
	//
	// - error
	Network(ctx context.Context, filter NetworkFilter) (domain.NetworkData, error)

	// Distribution counts reviewed primary publications per publishing
	// year, split by whether their code is archived somewhere.
	//
	// Publications whose publishing year cannot be told are left out.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - []domain.DistributionRow: one row per year, oldest first
	//
	// - error
	Distribution(ctx context.Context) ([]domain.DistributionRow, error)

	// ArchivePlatformCounts counts reviewed primary publications per
	// archive category.
	//
	// A publication counts for a category when it has an active archive
	// URL there. Categories nothing is archived in are reported as 0.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - map[string]int: publications per category name
	//
	// - error
	ArchivePlatformCounts(ctx context.Context) (map[string]int, error)

	// TopVocabNames lists vocabulary records attached to the most
	// reviewed primary publications, the names the cached networks are
	// filtered by.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.VocabKind
	//
	// - int: how many names at most
	//
	// Return
	//
	// - []string: names, most used first. Ties go alphabetically.
	//
	// - error
	TopVocabNames(ctx context.Context, kind domain.VocabKind, limit int) ([]string, error)
}
