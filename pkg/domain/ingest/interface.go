package ingest

import (
	"github.com/comses/citation/pkg/domain/ingest/db"
)

type Interface interface {
	Database() db.IngestInterface
}

type impl struct {
	database db.IngestInterface
}

func New(database db.IngestInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.IngestInterface {
	return i.database
}
