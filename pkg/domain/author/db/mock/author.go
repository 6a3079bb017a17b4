package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbaut "github.com/comses/citation/pkg/domain/author/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type AuthorInterface struct {
	Impl struct {
		Get     func(context.Context, []int) (map[int]domain.Author, error)
		Find    func(context.Context, domain.AuthorFilter) ([]int, error)
		Aliases func(context.Context, []int) (map[int][]domain.AuthorAlias, error)
		Update  func(context.Context, *domain.AuditCommand, int, kdbaut.AuthorDelta) error
	}
	Calls struct {
		Get     dbmock.CallLog[struct{ Ids []int }]
		Find    dbmock.CallLog[domain.AuthorFilter]
		Aliases dbmock.CallLog[struct{ AuthorIds []int }]
		Update  dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
			Delta   kdbaut.AuthorDelta
		}]
	}
}

func NewAuthorInterface() *AuthorInterface {
	return &AuthorInterface{}
}

var _ kdbaut.AuthorInterface = &AuthorInterface{}

func (m *AuthorInterface) Get(ctx context.Context, ids []int) (map[int]domain.Author, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ Ids []int }{Ids: ids})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuthorInterface) Find(ctx context.Context, filter domain.AuthorFilter) ([]int, error) {
	m.Calls.Find = append(m.Calls.Find, filter)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuthorInterface) Aliases(ctx context.Context, authorIds []int) (map[int][]domain.AuthorAlias, error) {
	m.Calls.Aliases = append(m.Calls.Aliases, struct{ AuthorIds []int }{AuthorIds: authorIds})
	if m.Impl.Aliases != nil {
		return m.Impl.Aliases(ctx, authorIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuthorInterface) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdbaut.AuthorDelta) error {
	m.Calls.Update = append(m.Calls.Update, struct {
		Command *domain.AuditCommand
		Id      int
		Delta   kdbaut.AuthorDelta
	}{Command: cmd, Id: id, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, cmd, id, delta)
	}
	panic(errors.New("it should not be called"))
}
