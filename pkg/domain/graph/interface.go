package graph

import (
	"github.com/comses/citation/pkg/domain/graph/db"
)

type Interface interface {
	Database() db.GraphInterface
}

type impl struct {
	database db.GraphInterface
}

func New(database db.GraphInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.GraphInterface {
	return i.database
}
