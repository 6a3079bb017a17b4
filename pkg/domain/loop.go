package domain

import (
	"errors"
	"fmt"
)

type LoopType string

const (
	// Probes code archive URLs and refreshes their statuses.
	UrlPing LoopType = "url_ping"

	// Enriches publications against the Crossref API.
	CrossrefSweep LoopType = "crossref_sweep"

	// Rebuilds cached aggregates (graph datasets) before they expire.
	CacheWarming LoopType = "cache_warming"
)

// NOTE: we define them here, because...
//
// 1. "we have loops, they are like this" is a part of the model of the catalog.
//
// 2. When we make loops scalable, we will use database to throttle loops.
//

func (lt LoopType) String() string {
	return string(lt)
}

func (lt LoopType) IsKnown() bool {
	switch lt {
	case UrlPing, CrossrefSweep, CacheWarming:
		return true
	default:
		return false
	}
}

func AsLoopType(s string) (LoopType, error) {
	l := LoopType(s)
	if l.IsKnown() {
		return l, nil
	}
	return l, fmt.Errorf(`%w: "%s"`, ErrUnknownLoopType, s)
}

var ErrUnknownLoopType = errors.New("unknown loop type")
