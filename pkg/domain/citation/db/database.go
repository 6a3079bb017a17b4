package db

import (
	karc "github.com/comses/citation/pkg/domain/archive/db"
	kaud "github.com/comses/citation/pkg/domain/audit/db"
	kaut "github.com/comses/citation/pkg/domain/author/db"
	kcache "github.com/comses/citation/pkg/domain/cache/db"
	kcon "github.com/comses/citation/pkg/domain/container/db"
	kcur "github.com/comses/citation/pkg/domain/curator/db"
	kgra "github.com/comses/citation/pkg/domain/graph/db"
	king "github.com/comses/citation/pkg/domain/ingest/db"
	kmer "github.com/comses/citation/pkg/domain/merge/db"
	kpub "github.com/comses/citation/pkg/domain/publication/db"
	ksch "github.com/comses/citation/pkg/domain/schema/db"
	kvoc "github.com/comses/citation/pkg/domain/vocab/db"
)

type CitationDatabase interface {
	Publication() kpub.PublicationInterface
	Author() kaut.AuthorInterface
	Container() kcon.ContainerInterface
	Vocab() kvoc.VocabInterface
	Archive() karc.ArchiveInterface
	Ingest() king.IngestInterface
	Merge() kmer.MergeInterface
	Audit() kaud.AuditInterface
	Curator() kcur.CuratorInterface
	Cache() kcache.CacheInterface
	Graph() kgra.GraphInterface
	Schema() ksch.SchemaInterface
	Close() error
}
