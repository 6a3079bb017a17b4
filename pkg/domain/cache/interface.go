package cache

import (
	"github.com/comses/citation/pkg/domain/cache/db"
)

type Interface interface {
	Database() db.CacheInterface
}

type impl struct {
	database db.CacheInterface
}

func New(database db.CacheInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.CacheInterface {
	return i.database
}
