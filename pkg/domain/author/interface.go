package author

import (
	"github.com/comses/citation/pkg/domain/author/db"
)

type Interface interface {
	Database() db.AuthorInterface
}

type impl struct {
	database db.AuthorInterface
}

func New(database db.AuthorInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.AuthorInterface {
	return i.database
}
