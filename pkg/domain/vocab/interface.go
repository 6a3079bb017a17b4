package vocab

import (
	"github.com/comses/citation/pkg/domain/vocab/db"
)

type Interface interface {
	Database() db.VocabInterface
}

type impl struct {
	database db.VocabInterface
}

func New(database db.VocabInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.VocabInterface {
	return i.database
}
