package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	karc "github.com/comses/citation/pkg/domain/archive/db"
	kpgarc "github.com/comses/citation/pkg/domain/archive/db/postgres"
	kaud "github.com/comses/citation/pkg/domain/audit/db"
	kpgaud "github.com/comses/citation/pkg/domain/audit/db/postgres"
	kaut "github.com/comses/citation/pkg/domain/author/db"
	kpgaut "github.com/comses/citation/pkg/domain/author/db/postgres"
	kcache "github.com/comses/citation/pkg/domain/cache/db"
	kpgcache "github.com/comses/citation/pkg/domain/cache/db/postgres"
	dbInterface "github.com/comses/citation/pkg/domain/citation/db"
	kcon "github.com/comses/citation/pkg/domain/container/db"
	kpgcon "github.com/comses/citation/pkg/domain/container/db/postgres"
	kcur "github.com/comses/citation/pkg/domain/curator/db"
	kpgcur "github.com/comses/citation/pkg/domain/curator/db/postgres"
	kgra "github.com/comses/citation/pkg/domain/graph/db"
	kpggra "github.com/comses/citation/pkg/domain/graph/db/postgres"
	king "github.com/comses/citation/pkg/domain/ingest/db"
	kpging "github.com/comses/citation/pkg/domain/ingest/db/postgres"
	kmer "github.com/comses/citation/pkg/domain/merge/db"
	kpgmer "github.com/comses/citation/pkg/domain/merge/db/postgres"
	kpub "github.com/comses/citation/pkg/domain/publication/db"
	kpgpub "github.com/comses/citation/pkg/domain/publication/db/postgres"
	ksch "github.com/comses/citation/pkg/domain/schema/db"
	kpgsch "github.com/comses/citation/pkg/domain/schema/db/postgres"
	kvoc "github.com/comses/citation/pkg/domain/vocab/db"
	kpgvoc "github.com/comses/citation/pkg/domain/vocab/db/postgres"
	xe "github.com/comses/citation/pkg/errors"
)

type citationDBPostgres struct {
	pool        *pgxpool.Pool
	publication kpub.PublicationInterface
	author      kaut.AuthorInterface
	container   kcon.ContainerInterface
	vocab       kvoc.VocabInterface
	archive     karc.ArchiveInterface
	ingest      king.IngestInterface
	merge       kmer.MergeInterface
	audit       kaud.AuditInterface
	curator     kcur.CuratorInterface
	cache       kcache.CacheInterface
	graph       kgra.GraphInterface
	schema      ksch.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

// WithSchemaRepository points at the on-disk schema directory.
//
// Without it the database does not watch nor upgrade its schema.
func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.CitationDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := &Config{}
	for _, option := range options {
		c = option(c)
	}

	p := kpool.Wrap(pool)
	var schema ksch.SchemaInterface = kpgsch.Null()
	if c.SchemaRepository != "" {
		schema = kpgsch.New(p, c.SchemaRepository)
	}

	return &citationDBPostgres{
		pool:        pool,
		publication: kpgpub.New(p),
		author:      kpgaut.New(p),
		container:   kpgcon.New(p),
		vocab:       kpgvoc.New(p),
		archive:     kpgarc.New(p),
		ingest:      kpging.New(p),
		merge:       kpgmer.New(p),
		audit:       kpgaud.New(p),
		curator:     kpgcur.New(p),
		cache:       kpgcache.New(p),
		graph:       kpggra.New(p),
		schema:      schema,
	}, nil
}

func (k *citationDBPostgres) Publication() kpub.PublicationInterface {
	return k.publication
}

func (k *citationDBPostgres) Author() kaut.AuthorInterface {
	return k.author
}

func (k *citationDBPostgres) Container() kcon.ContainerInterface {
	return k.container
}

func (k *citationDBPostgres) Vocab() kvoc.VocabInterface {
	return k.vocab
}

func (k *citationDBPostgres) Archive() karc.ArchiveInterface {
	return k.archive
}

func (k *citationDBPostgres) Ingest() king.IngestInterface {
	return k.ingest
}

func (k *citationDBPostgres) Merge() kmer.MergeInterface {
	return k.merge
}

func (k *citationDBPostgres) Audit() kaud.AuditInterface {
	return k.audit
}

func (k *citationDBPostgres) Curator() kcur.CuratorInterface {
	return k.curator
}

func (k *citationDBPostgres) Cache() kcache.CacheInterface {
	return k.cache
}

func (k *citationDBPostgres) Graph() kgra.GraphInterface {
	return k.graph
}

func (k *citationDBPostgres) Schema() ksch.SchemaInterface {
	return k.schema
}

func (k *citationDBPostgres) Close() error {
	k.pool.Close()
	return nil
}
