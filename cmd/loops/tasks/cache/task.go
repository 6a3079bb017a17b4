package cache

import (
	"context"
	"time"

	"github.com/comses/citation/cmd/loops/recurring"
	kdbaud "github.com/comses/citation/pkg/domain/audit/db"
	kdbcache "github.com/comses/citation/pkg/domain/cache/db"
	"github.com/comses/citation/pkg/domain/cache/warm"
	kdbgra "github.com/comses/citation/pkg/domain/graph/db"
)

// Report counts what one pass did to the cache.
type Report struct {
	// Computed is how many cached datasets this pass recomputed.
	// Datasets still live are left be and not counted.
	Computed int

	// Expired is how many dead entries this pass reclaimed.
	Expired int
}

// initial value for task
func Seed() Report {
	return Report{}
}

// Task keeps the cached aggregates warm: it refreshes every dataset
// past its deadline and reclaims dead entries. One pass covers the
// whole cache, so it never leaves backlog.
//
// ttl is the lifetime of refreshed entries. Zero or less means
// warm.DefaultTTL.
func Task(
	cache kdbcache.CacheInterface,
	graph kdbgra.GraphInterface,
	audit kdbaud.AuditInterface,
	ttl time.Duration,
) recurring.Task[Report] {
	warmer := warm.Warmer{Cache: cache, Graph: graph, Audit: audit, TTL: ttl}
	return func(ctx context.Context, _ Report) (Report, bool, error) {
		computed, err := warmer.All(ctx)
		if err != nil {
			return Report{Computed: computed}, false, err
		}

		expired, err := cache.Expire(ctx)
		return Report{Computed: computed, Expired: expired}, false, err
	}
}
