// Package warm recomputes the cached aggregates the catalog serves
// without touching the live tables on every request.
package warm

import (
	"context"
	"time"

	"github.com/comses/citation/pkg/domain"
	kdbaud "github.com/comses/citation/pkg/domain/audit/db"
	kdbcache "github.com/comses/citation/pkg/domain/cache/db"
	kdbgra "github.com/comses/citation/pkg/domain/graph/db"
)

// Keys of the cached datasets.
const (
	KeyContributorStats      = "contributor-stats"
	KeyDistributionData      = "distribution-data"
	KeyArchivePlatformCounts = "archive-platform-counts"
	KeyNetworkSponsors       = "network-graph-sponsors"
	KeyNetworkTags           = "network-graph-tags"
)

// DefaultTTL outlives the daily warming round by a few seconds, so
// entries never go cold between rounds.
const DefaultTTL = 86410 * time.Second

// TopFilterSize is how many of the most used sponsor and tag names the
// cached networks are filtered to.
const TopFilterSize = 10

// Warmer refreshes the cached datasets from the catalog.
type Warmer struct {
	Cache kdbcache.CacheInterface
	Graph kdbgra.GraphInterface
	Audit kdbaud.AuditInterface

	// TTL of refreshed entries. Zero or less means DefaultTTL.
	TTL time.Duration
}

func (w *Warmer) ttl() time.Duration {
	if w.TTL <= 0 {
		return DefaultTTL
	}
	return w.TTL
}

// Contributors caches the per-curator shares of hand-entered changes,
// for every primary publication at once.
func (w *Warmer) Contributors(ctx context.Context) (bool, error) {
	return w.Cache.Refresh(
		ctx, KeyContributorStats, w.ttl(),
		func(ctx context.Context) (any, error) {
			return w.Audit.AllContributions(ctx)
		},
	)
}

// Distribution caches the per-year code availability counts.
func (w *Warmer) Distribution(ctx context.Context) (bool, error) {
	return w.Cache.Refresh(
		ctx, KeyDistributionData, w.ttl(),
		func(ctx context.Context) (any, error) {
			return w.Graph.Distribution(ctx)
		},
	)
}

// ArchivePlatforms caches the per-category archive counts.
func (w *Warmer) ArchivePlatforms(ctx context.Context) (bool, error) {
	return w.Cache.Refresh(
		ctx, KeyArchivePlatformCounts, w.ttl(),
		func(ctx context.Context) (any, error) {
			return w.Graph.ArchivePlatformCounts(ctx)
		},
	)
}

// Networks caches the sponsor and tag citation networks, each filtered
// to the most used names of its vocabulary.
func (w *Warmer) Networks(ctx context.Context) (bool, error) {
	sponsors, err := w.Cache.Refresh(
		ctx, KeyNetworkSponsors, w.ttl(),
		func(ctx context.Context) (any, error) {
			return TopNetwork(ctx, w.Graph, domain.GroupBySponsors)
		},
	)
	if err != nil {
		return sponsors, err
	}
	tags, err := w.Cache.Refresh(
		ctx, KeyNetworkTags, w.ttl(),
		func(ctx context.Context) (any, error) {
			return TopNetwork(ctx, w.Graph, domain.GroupByTags)
		},
	)
	return sponsors || tags, err
}

// NetworkKey is the cache key of the network grouped by groupBy.
func NetworkKey(groupBy domain.GraphGroupBy) string {
	if groupBy == domain.GroupByTags {
		return KeyNetworkTags
	}
	return KeyNetworkSponsors
}

// TopNetwork is the citation network grouped by groupBy, filtered to
// the TopFilterSize most used names of its vocabulary. This is the
// dataset cached under NetworkKey(groupBy).
func TopNetwork(ctx context.Context, g kdbgra.GraphInterface, groupBy domain.GraphGroupBy) (domain.NetworkData, error) {
	filter, err := g.TopVocabNames(ctx, groupBy.Vocab(), TopFilterSize)
	if err != nil {
		return domain.NetworkData{}, err
	}
	return g.Network(ctx, kdbgra.NetworkFilter{GroupBy: groupBy, Filter: filter})
}

// All refreshes every cached dataset, reporting how many datasets this
// call actually computed. It stops at the first error.
func (w *Warmer) All(ctx context.Context) (int, error) {
	computed := 0
	for _, warm := range []func(context.Context) (bool, error){
		w.Contributors, w.Distribution, w.ArchivePlatforms, w.Networks,
	} {
		c, err := warm(ctx)
		if c {
			computed += 1
		}
		if err != nil {
			return computed, err
		}
	}
	return computed, nil
}
