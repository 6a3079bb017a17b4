package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbcon "github.com/comses/citation/pkg/domain/container/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type ContainerInterface struct {
	Impl struct {
		Get     func(context.Context, []int) (map[int]domain.Container, error)
		Find    func(context.Context, domain.ContainerFilter) ([]int, error)
		Aliases func(context.Context, []int) (map[int][]domain.ContainerAlias, error)
		Update  func(context.Context, *domain.AuditCommand, int, kdbcon.ContainerDelta) error
	}
	Calls struct {
		Get     dbmock.CallLog[struct{ Ids []int }]
		Find    dbmock.CallLog[domain.ContainerFilter]
		Aliases dbmock.CallLog[struct{ ContainerIds []int }]
		Update  dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
			Delta   kdbcon.ContainerDelta
		}]
	}
}

func NewContainerInterface() *ContainerInterface {
	return &ContainerInterface{}
}

var _ kdbcon.ContainerInterface = &ContainerInterface{}

func (m *ContainerInterface) Get(ctx context.Context, ids []int) (map[int]domain.Container, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ Ids []int }{Ids: ids})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (m *ContainerInterface) Find(ctx context.Context, filter domain.ContainerFilter) ([]int, error) {
	m.Calls.Find = append(m.Calls.Find, filter)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *ContainerInterface) Aliases(ctx context.Context, containerIds []int) (map[int][]domain.ContainerAlias, error) {
	m.Calls.Aliases = append(m.Calls.Aliases, struct{ ContainerIds []int }{ContainerIds: containerIds})
	if m.Impl.Aliases != nil {
		return m.Impl.Aliases(ctx, containerIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *ContainerInterface) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdbcon.ContainerDelta) error {
	m.Calls.Update = append(m.Calls.Update, struct {
		Command *domain.AuditCommand
		Id      int
		Delta   kdbcon.ContainerDelta
	}{Command: cmd, Id: id, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, cmd, id, delta)
	}
	panic(errors.New("it should not be called"))
}
