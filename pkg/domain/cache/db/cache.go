package db

import (
	"context"
	"time"
)

// CacheInterface stores precomputed aggregates as JSON values with a
// deadline. Entries past their deadline are as good as gone; readers
// never see them, and Expire reclaims them.
type CacheInterface interface {
	// Get reads the live entry under a key.
	//
	// Args
	//
	// - context.Context
	//
	// - string: cache key
	//
	// - any: pointer receiving the cached value, unmarshalled from JSON
	//
	// Return
	//
	// - error: ErrMissing when there is no entry or it has expired
	Get(ctx context.Context, key string, dest any) error

	// Put stores a value under a key, replacing whatever was there.
	//
	// Args
	//
	// - context.Context
	//
	// - string: cache key
	//
	// - any: value, marshalled to JSON
	//
	// - time.Duration: lifetime of the entry from now
	//
	// Return
	//
	// - error
	Put(ctx context.Context, key string, value any, ttl time.Duration) error

	// Refresh recomputes the entry under a key unless it is still live.
	//
	// The key's row is locked while deciding, so when refreshers meet on
	// an expired entry only the first computes. The others wait, find the
	// entry live again and leave it be. The computed value is stored with
	// the given lifetime; when compute fails nothing is stored and the
	// entry stays expired.
	//
	// Args
	//
	// - context.Context
	//
	// - string: cache key
	//
	// - time.Duration: lifetime of the recomputed entry
	//
	// - func(context.Context) (any, error): computes the value to store.
	// Called while holding the lock, so keep it bounded.
	//
	// Return
	//
	// - bool: true when this call computed and stored the value
	//
	// - error
	Refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (any, error)) (bool, error)

	// Drop removes entries now, live or not.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: cache keys
	//
	// Return
	//
	// - int: how many entries were removed
	//
	// - error
	Drop(ctx context.Context, keys []string) (int, error)

	// Expire reclaims entries past their deadline.
	//
	// Args
	//
	// - context.Context
	//
	// Return
	//
	// - int: how many entries were reclaimed
	//
	// - error
	Expire(ctx context.Context) (int, error)
}
