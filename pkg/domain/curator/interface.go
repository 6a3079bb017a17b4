package curator

import (
	"github.com/comses/citation/pkg/domain/curator/db"
)

type Interface interface {
	Database() db.CuratorInterface
}

type impl struct {
	database db.CuratorInterface
}

func New(database db.CuratorInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.CuratorInterface {
	return i.database
}
