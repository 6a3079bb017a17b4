package testenv

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
)

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Cleanup(func() {
		t.Helper()
		ClearTables(ctx, p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

type pgNoClean struct {
	pool *pgxpool.Pool
}

func (p *pgNoClean) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	return kpool.Wrap(p.pool)
}

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool
}

type pgConnOptions struct {
	User         string
	Password     string
	Dbname       string
	DoNotCleanup bool
}

type PgConnOption func(*pgConnOptions) *pgConnOptions

func WithUser(user string) PgConnOption {
	return func(o *pgConnOptions) *pgConnOptions {
		o.User = user
		return o
	}
}

func WithPassword(password string) PgConnOption {
	return func(o *pgConnOptions) *pgConnOptions {
		o.Password = password
		return o
	}
}

func WithDbname(dbname string) PgConnOption {
	return func(o *pgConnOptions) *pgConnOptions {
		o.Dbname = dbname
		return o
	}
}

func WithDoNotCleanup() PgConnOption {
	return func(o *pgConnOptions) *pgConnOptions {
		o.DoNotCleanup = true
		return o
	}
}

// NewPoolBroaker returns a PoolBroaker.
//
// This function provides a postgres pool, pointed at by environment
// variables DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME
// (as set in the compose environment built by build.sh).
//
// Tests are skipped when DB_USER, DB_PASSWORD or DB_NAME is not set.
//
// # Args
//
// - ctx: When this context is canceled, the database connection behind
// the pool will be lost.
//
// - t: scope of the PoolBroaker.
// When this test is finished, the broaker will be shutdown.
func NewPoolBroaker(ctx context.Context, t *testing.T, options ...PgConnOption) PoolBroaker {
	t.Helper()

	opts := &pgConnOptions{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Dbname:   os.Getenv("DB_NAME"),
	}
	for _, o := range options {
		opts = o(opts)
	}

	if opts.User == "" || opts.Password == "" || opts.Dbname == "" {
		t.Skip("no database: DB_USER, DB_PASSWORD and DB_NAME are needed")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	pool, err := pgxpool.Connect(
		ctx,
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			opts.User, opts.Password, host, port, opts.Dbname,
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if opts.DoNotCleanup {
		return &pgNoClean{pool: pool}
	} else {
		return &pg{pool: pool}
	}
}

func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	conn, err := p.Acquire(ctx)
	defer conn.Release()

	if err != nil {
		t.Errorf("fail to clean-up tables.: %v", err)
	}

	for _, command := range []string{
		`truncate "curator" RESTART IDENTITY cascade`,
		`truncate "publication" RESTART IDENTITY cascade`,
		`truncate "container" RESTART IDENTITY cascade`,
		`truncate "author" RESTART IDENTITY cascade`,
		`truncate "platform" RESTART IDENTITY cascade`,
		`truncate "sponsor" RESTART IDENTITY cascade`,
		`truncate "tag" RESTART IDENTITY cascade`,
		`truncate "model_documentation" RESTART IDENTITY cascade`,
		`truncate "code_archive_url_category" RESTART IDENTITY cascade`,
		`truncate "audit_command" RESTART IDENTITY cascade`,
		`truncate "suggested_merge" RESTART IDENTITY cascade`,
		`truncate "note" RESTART IDENTITY cascade`,
		`truncate "cache"`,
		// by cascade, all dependent rows should be deleted.
	} {
		_, err = conn.Exec(ctx, command)
		if err != nil {
			t.Errorf("fail to clean-up tables.: %v", err)
		}
	}
}
