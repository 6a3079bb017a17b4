package archive

import (
	"github.com/comses/citation/pkg/domain/archive/db"
)

type Interface interface {
	Database() db.ArchiveInterface
}

type impl struct {
	database db.ArchiveInterface
}

func New(database db.ArchiveInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.ArchiveInterface {
	return i.database
}
