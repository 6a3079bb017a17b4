package container

import (
	"github.com/comses/citation/pkg/domain/container/db"
)

type Interface interface {
	Database() db.ContainerInterface
}

type impl struct {
	database db.ContainerInterface
}

func New(database db.ContainerInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.ContainerInterface {
	return i.database
}
