package merge

import (
	"github.com/comses/citation/pkg/domain/merge/db"
)

type Interface interface {
	Database() db.MergeInterface
}

type impl struct {
	database db.MergeInterface
}

func New(database db.MergeInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.MergeInterface {
	return i.database
}
