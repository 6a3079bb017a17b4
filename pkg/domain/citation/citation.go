package citation

import (
	"context"

	"github.com/comses/citation/pkg/configs/app"
	"github.com/comses/citation/pkg/domain/archive"
	"github.com/comses/citation/pkg/domain/audit"
	"github.com/comses/citation/pkg/domain/author"
	"github.com/comses/citation/pkg/domain/cache"
	"github.com/comses/citation/pkg/domain/citation/db/postgres"
	"github.com/comses/citation/pkg/domain/container"
	"github.com/comses/citation/pkg/domain/curator"
	"github.com/comses/citation/pkg/domain/graph"
	"github.com/comses/citation/pkg/domain/ingest"
	"github.com/comses/citation/pkg/domain/merge"
	"github.com/comses/citation/pkg/domain/publication"
	"github.com/comses/citation/pkg/domain/schema"
	"github.com/comses/citation/pkg/domain/vocab"
)

// Citation is the hub of the catalog: one handle per domain area,
// backed by one shared database.
type Citation interface {
	Config() *app.Config

	Publication() publication.Interface
	Author() author.Interface
	Container() container.Interface
	Vocab() vocab.Interface

	Archive() archive.Interface
	Ingest() ingest.Interface
	Merge() merge.Interface
	Audit() audit.Interface
	Curator() curator.Interface

	Cache() cache.Interface
	Graph() graph.Interface
	Schema() schema.Interface
}

type citation struct {
	config *app.Config

	publication publication.Interface
	author      author.Interface
	container   container.Interface
	vocab       vocab.Interface

	archive archive.Interface
	ingest  ingest.Interface
	merge   merge.Interface
	audit   audit.Interface
	curator curator.Interface

	cache  cache.Interface
	graph  graph.Interface
	schema schema.Interface
}

// Default connects to the database named in config and builds the hub
// on it.
func Default(
	ctx context.Context,
	config *app.Config,
	options ...Option,
) (Citation, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	pg, err := postgres.New(ctx, config.Database.URL(), opt.pg...)
	if err != nil {
		return nil, err
	}

	return &citation{
		config: config,

		publication: publication.New(pg.Publication()),
		author:      author.New(pg.Author()),
		container:   container.New(pg.Container()),
		vocab:       vocab.New(pg.Vocab()),

		archive: archive.New(pg.Archive()),
		ingest:  ingest.New(pg.Ingest()),
		merge:   merge.New(pg.Merge()),
		audit:   audit.New(pg.Audit()),
		curator: curator.New(pg.Curator()),

		cache:  cache.New(pg.Cache()),
		graph:  graph.New(pg.Graph()),
		schema: schema.New(pg.Schema()),
	}, nil
}

type Option func(*_options)

type _options struct {
	pg []postgres.Option
}

// WithSchemaRepository lets the schema area watch and apply the on-disk
// schema directory.
func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (c *citation) Config() *app.Config {
	return c.config
}

func (c *citation) Publication() publication.Interface {
	return c.publication
}

func (c *citation) Author() author.Interface {
	return c.author
}

func (c *citation) Container() container.Interface {
	return c.container
}

func (c *citation) Vocab() vocab.Interface {
	return c.vocab
}

func (c *citation) Archive() archive.Interface {
	return c.archive
}

func (c *citation) Ingest() ingest.Interface {
	return c.ingest
}

func (c *citation) Merge() merge.Interface {
	return c.merge
}

func (c *citation) Audit() audit.Interface {
	return c.audit
}

func (c *citation) Curator() curator.Interface {
	return c.curator
}

func (c *citation) Cache() cache.Interface {
	return c.cache
}

func (c *citation) Graph() graph.Interface {
	return c.graph
}

func (c *citation) Schema() schema.Interface {
	return c.schema
}
