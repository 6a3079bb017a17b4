package audit

import (
	"github.com/comses/citation/pkg/domain/audit/db"
)

type Interface interface {
	Database() db.AuditInterface
}

type impl struct {
	database db.AuditInterface
}

func New(database db.AuditInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.AuditInterface {
	return i.database
}
