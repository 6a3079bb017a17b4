package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
	kdbmrg "github.com/comses/citation/pkg/domain/merge/db"
)

type MergeInterface struct {
	Impl struct {
		MergePublications        func(context.Context, *domain.AuditCommand, int, []int) error
		MergeAuthors             func(context.Context, *domain.AuditCommand, int, []int) error
		MergeContainers          func(context.Context, *domain.AuditCommand, int, []int) error
		Suggest                  func(context.Context, domain.SuggestedMerge) (domain.SuggestedMerge, error)
		Find                     func(context.Context, kdbmrg.SuggestionFilter) ([]int, error)
		Get                      func(context.Context, []int) (map[int]domain.SuggestedMerge, error)
		Apply                    func(context.Context, *domain.AuditCommand, int) (domain.SuggestedMerge, error)
		DoiDuplicateGroups       func(context.Context) ([][]int, error)
		ContainerDuplicateGroups func(context.Context) ([][]int, error)
		LowercaseDois            func(context.Context, *domain.AuditCommand) (int, error)
	}
	Calls struct {
		MergePublications dbmock.CallLog[struct {
			Command  *domain.AuditCommand
			FinalId  int
			OtherIds []int
		}]
		MergeAuthors dbmock.CallLog[struct {
			Command  *domain.AuditCommand
			FinalId  int
			OtherIds []int
		}]
		MergeContainers dbmock.CallLog[struct {
			Command  *domain.AuditCommand
			FinalId  int
			OtherIds []int
		}]
		Suggest dbmock.CallLog[struct {
			Suggestion domain.SuggestedMerge
		}]
		Find dbmock.CallLog[struct {
			Filter kdbmrg.SuggestionFilter
		}]
		Get dbmock.CallLog[struct {
			Ids []int
		}]
		Apply dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
		}]
		DoiDuplicateGroups       dbmock.CallLog[struct{}]
		ContainerDuplicateGroups dbmock.CallLog[struct{}]
		LowercaseDois            dbmock.CallLog[struct {
			Command *domain.AuditCommand
		}]
	}
}

func NewMergeInterface() *MergeInterface {
	return &MergeInterface{}
}

var _ kdbmrg.MergeInterface = &MergeInterface{}

func (m *MergeInterface) MergePublications(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	m.Calls.MergePublications = append(m.Calls.MergePublications, struct {
		Command  *domain.AuditCommand
		FinalId  int
		OtherIds []int
	}{Command: cmd, FinalId: finalId, OtherIds: otherIds})
	if m.Impl.MergePublications != nil {
		return m.Impl.MergePublications(ctx, cmd, finalId, otherIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) MergeAuthors(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	m.Calls.MergeAuthors = append(m.Calls.MergeAuthors, struct {
		Command  *domain.AuditCommand
		FinalId  int
		OtherIds []int
	}{Command: cmd, FinalId: finalId, OtherIds: otherIds})
	if m.Impl.MergeAuthors != nil {
		return m.Impl.MergeAuthors(ctx, cmd, finalId, otherIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) MergeContainers(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	m.Calls.MergeContainers = append(m.Calls.MergeContainers, struct {
		Command  *domain.AuditCommand
		FinalId  int
		OtherIds []int
	}{Command: cmd, FinalId: finalId, OtherIds: otherIds})
	if m.Impl.MergeContainers != nil {
		return m.Impl.MergeContainers(ctx, cmd, finalId, otherIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) Suggest(ctx context.Context, suggestion domain.SuggestedMerge) (domain.SuggestedMerge, error) {
	m.Calls.Suggest = append(m.Calls.Suggest, struct {
		Suggestion domain.SuggestedMerge
	}{Suggestion: suggestion})
	if m.Impl.Suggest != nil {
		return m.Impl.Suggest(ctx, suggestion)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) Find(ctx context.Context, filter kdbmrg.SuggestionFilter) ([]int, error) {
	m.Calls.Find = append(m.Calls.Find, struct {
		Filter kdbmrg.SuggestionFilter
	}{Filter: filter})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) Get(ctx context.Context, ids []int) (map[int]domain.SuggestedMerge, error) {
	m.Calls.Get = append(m.Calls.Get, struct {
		Ids []int
	}{Ids: ids})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) Apply(ctx context.Context, cmd *domain.AuditCommand, id int) (domain.SuggestedMerge, error) {
	m.Calls.Apply = append(m.Calls.Apply, struct {
		Command *domain.AuditCommand
		Id      int
	}{Command: cmd, Id: id})
	if m.Impl.Apply != nil {
		return m.Impl.Apply(ctx, cmd, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) DoiDuplicateGroups(ctx context.Context) ([][]int, error) {
	m.Calls.DoiDuplicateGroups = append(m.Calls.DoiDuplicateGroups, struct{}{})
	if m.Impl.DoiDuplicateGroups != nil {
		return m.Impl.DoiDuplicateGroups(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) ContainerDuplicateGroups(ctx context.Context) ([][]int, error) {
	m.Calls.ContainerDuplicateGroups = append(m.Calls.ContainerDuplicateGroups, struct{}{})
	if m.Impl.ContainerDuplicateGroups != nil {
		return m.Impl.ContainerDuplicateGroups(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *MergeInterface) LowercaseDois(ctx context.Context, cmd *domain.AuditCommand) (int, error) {
	m.Calls.LowercaseDois = append(m.Calls.LowercaseDois, struct {
		Command *domain.AuditCommand
	}{Command: cmd})
	if m.Impl.LowercaseDois != nil {
		return m.Impl.LowercaseDois(ctx, cmd)
	}
	panic(errors.New("it should not be called"))
}
