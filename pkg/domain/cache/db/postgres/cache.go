package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	kdb "github.com/comses/citation/pkg/domain/cache/db"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
)

type pgCache struct { // implements kdb.CacheInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.CacheInterface {
	return &pgCache{pool: pool}
}

func (c *pgCache) Get(ctx context.Context, key string, dest any) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var value string
	if err := conn.QueryRow(
		ctx,
		`select "value"::text from "cache" where "key" = $1 and now() < "expires_at"`,
		key,
	).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "cache", Identity: fmt.Sprintf("key=%s", key)}
		}
		return err
	}

	return json.Unmarshal([]byte(value), dest)
}

func (c *pgCache) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	body, err := json.Marshal(value)
	if err != nil {
		return err
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "cache" ("key", "value", "expires_at")
		values ($1, $2::jsonb, now() + make_interval(secs => $3))
		on conflict ("key") do update
		set "value" = excluded."value", "expires_at" = excluded."expires_at"
		`,
		key, string(body), ttl.Seconds(),
	)
	return err
}

func (c *pgCache) Refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (any, error)) (bool, error) {
	computed, err := c.refresh(ctx, key, ttl, compute)
	if errors.Is(err, pgx.ErrNoRows) {
		// refreshers racing on a key never stored before: the loser
		// locks nothing, since the winner's row is not committed yet
		// and the conflicting insert returns nothing. by the second
		// try the row is there to be locked.
		computed, err = c.refresh(ctx, key, ttl, compute)
	}
	return computed, err
}

func (c *pgCache) refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (any, error)) (bool, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		`
		with
		"old" as (
			select "key" from "cache"
			where "key" = $1 for update
		),
		"new" as (
			insert into "cache" ("key", "value", "expires_at")
			values ($1, 'null'::jsonb, to_timestamp(0))
			on conflict ("key") do nothing
			returning "key"
		)
		select * from "old"
		union all
		select * from "new"
		`,
		key,
	).Scan(nil); err != nil {
		return false, err
	}

	live := false
	if err := tx.QueryRow(
		ctx,
		`select now() < "expires_at" from "cache" where "key" = $1`,
		key,
	).Scan(&live); err != nil {
		return false, err
	}
	if live {
		// someone else got here first. their value serves.
		return false, tx.Commit(ctx)
	}

	value, err := compute(ctx)
	if err != nil {
		// roll back, taking the placeholder row with it when the key
		// was never stored before.
		return false, err
	}
	body, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	if _, err := tx.Exec(
		ctx,
		`update "cache" set "value" = $2::jsonb, "expires_at" = now() + make_interval(secs => $3) where "key" = $1`,
		key, string(body), ttl.Seconds(),
	); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *pgCache) Drop(ctx context.Context, keys []string) (int, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx,
		`delete from "cache" where "key" = any($1::text[])`,
		keys,
	)
	if err != nil {
		return 0, err
	}
	return int(ctag.RowsAffected()), nil
}

func (c *pgCache) Expire(ctx context.Context) (int, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	ctag, err := conn.Exec(ctx, `delete from "cache" where "expires_at" <= now()`)
	if err != nil {
		return 0, err
	}
	return int(ctag.RowsAffected()), nil
}
