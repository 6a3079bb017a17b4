package publication

import (
	"github.com/comses/citation/pkg/domain/publication/db"
)

type Interface interface {
	Database() db.PublicationInterface
}

type impl struct {
	database db.PublicationInterface
}

func New(database db.PublicationInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.PublicationInterface {
	return i.database
}
