package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
	kdbvoc "github.com/comses/citation/pkg/domain/vocab/db"
)

type VocabInterface struct {
	Impl struct {
		List   func(context.Context, domain.VocabKind) ([]domain.NamedRecord, error)
		Get    func(context.Context, domain.VocabKind, []int) (map[int]domain.NamedRecord, error)
		Create func(context.Context, *domain.AuditCommand, domain.VocabKind, []string) ([]domain.NamedRecord, error)
		Update func(context.Context, *domain.AuditCommand, domain.VocabKind, int, kdbvoc.VocabDelta) error
		Delete func(context.Context, *domain.AuditCommand, domain.VocabKind, []string) ([]domain.NamedRecord, error)
		Split  func(context.Context, *domain.AuditCommand, domain.VocabKind, string, []string) ([]domain.NamedRecord, error)
		Merge  func(context.Context, *domain.AuditCommand, domain.VocabKind, []string, string) (domain.NamedRecord, error)
	}
	Calls struct {
		List dbmock.CallLog[struct{ Kind domain.VocabKind }]
		Get  dbmock.CallLog[struct {
			Kind domain.VocabKind
			Ids  []int
		}]
		Create dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Kind    domain.VocabKind
			Names   []string
		}]
		Update dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Kind    domain.VocabKind
			Id      int
			Delta   kdbvoc.VocabDelta
		}]
		Delete dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Kind    domain.VocabKind
			Names   []string
		}]
		Split dbmock.CallLog[struct {
			Command  *domain.AuditCommand
			Kind     domain.VocabKind
			Name     string
			NewNames []string
		}]
		Merge dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Kind    domain.VocabKind
			Names   []string
			NewName string
		}]
	}
}

func NewVocabInterface() *VocabInterface {
	return &VocabInterface{}
}

var _ kdbvoc.VocabInterface = &VocabInterface{}

func (m *VocabInterface) List(ctx context.Context, kind domain.VocabKind) ([]domain.NamedRecord, error) {
	m.Calls.List = append(m.Calls.List, struct{ Kind domain.VocabKind }{Kind: kind})
	if m.Impl.List != nil {
		return m.Impl.List(ctx, kind)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Get(ctx context.Context, kind domain.VocabKind, ids []int) (map[int]domain.NamedRecord, error) {
	m.Calls.Get = append(m.Calls.Get, struct {
		Kind domain.VocabKind
		Ids  []int
	}{Kind: kind, Ids: ids})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, kind, ids)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Create(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error) {
	m.Calls.Create = append(m.Calls.Create, struct {
		Command *domain.AuditCommand
		Kind    domain.VocabKind
		Names   []string
	}{Command: cmd, Kind: kind, Names: names})
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, cmd, kind, names)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Update(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, id int, delta kdbvoc.VocabDelta) error {
	m.Calls.Update = append(m.Calls.Update, struct {
		Command *domain.AuditCommand
		Kind    domain.VocabKind
		Id      int
		Delta   kdbvoc.VocabDelta
	}{Command: cmd, Kind: kind, Id: id, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, cmd, kind, id, delta)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Delete(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error) {
	m.Calls.Delete = append(m.Calls.Delete, struct {
		Command *domain.AuditCommand
		Kind    domain.VocabKind
		Names   []string
	}{Command: cmd, Kind: kind, Names: names})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, cmd, kind, names)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Split(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, name string, newNames []string) ([]domain.NamedRecord, error) {
	m.Calls.Split = append(m.Calls.Split, struct {
		Command  *domain.AuditCommand
		Kind     domain.VocabKind
		Name     string
		NewNames []string
	}{Command: cmd, Kind: kind, Name: name, NewNames: newNames})
	if m.Impl.Split != nil {
		return m.Impl.Split(ctx, cmd, kind, name, newNames)
	}
	panic(errors.New("it should not be called"))
}

func (m *VocabInterface) Merge(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string, newName string) (domain.NamedRecord, error) {
	m.Calls.Merge = append(m.Calls.Merge, struct {
		Command *domain.AuditCommand
		Kind    domain.VocabKind
		Names   []string
		NewName string
	}{Command: cmd, Kind: kind, Names: names, NewName: newName})
	if m.Impl.Merge != nil {
		return m.Impl.Merge(ctx, cmd, kind, names, newName)
	}
	panic(errors.New("it should not be called"))
}
