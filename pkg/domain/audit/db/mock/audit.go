package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbaud "github.com/comses/citation/pkg/domain/audit/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type AuditInterface struct {
	Impl struct {
		ForPublication   func(context.Context, int) ([]domain.AuditTrail, error)
		ForRow           func(context.Context, string, int) ([]domain.AuditTrail, error)
		Contributions    func(context.Context, int) ([]domain.Contribution, error)
		AllContributions func(context.Context) (map[int][]domain.Contribution, error)
	}
	Calls struct {
		ForPublication dbmock.CallLog[struct{ PublicationId int }]
		ForRow         dbmock.CallLog[struct {
			Table string
			RowId int
		}]
		Contributions    dbmock.CallLog[struct{ PublicationId int }]
		AllContributions dbmock.CallLog[struct{}]
	}
}

func NewAuditInterface() *AuditInterface {
	return &AuditInterface{}
}

var _ kdbaud.AuditInterface = &AuditInterface{}

func (m *AuditInterface) ForPublication(ctx context.Context, publicationId int) ([]domain.AuditTrail, error) {
	m.Calls.ForPublication = append(m.Calls.ForPublication, struct{ PublicationId int }{PublicationId: publicationId})
	if m.Impl.ForPublication != nil {
		return m.Impl.ForPublication(ctx, publicationId)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuditInterface) ForRow(ctx context.Context, table string, rowId int) ([]domain.AuditTrail, error) {
	m.Calls.ForRow = append(m.Calls.ForRow, struct {
		Table string
		RowId int
	}{Table: table, RowId: rowId})
	if m.Impl.ForRow != nil {
		return m.Impl.ForRow(ctx, table, rowId)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuditInterface) Contributions(ctx context.Context, publicationId int) ([]domain.Contribution, error) {
	m.Calls.Contributions = append(m.Calls.Contributions, struct{ PublicationId int }{PublicationId: publicationId})
	if m.Impl.Contributions != nil {
		return m.Impl.Contributions(ctx, publicationId)
	}
	panic(errors.New("it should not be called"))
}

func (m *AuditInterface) AllContributions(ctx context.Context) (map[int][]domain.Contribution, error) {
	m.Calls.AllContributions = append(m.Calls.AllContributions, struct{}{})
	if m.Impl.AllContributions != nil {
		return m.Impl.AllContributions(ctx)
	}
	panic(errors.New("it should not be called"))
}
