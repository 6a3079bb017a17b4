package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbgra "github.com/comses/citation/pkg/domain/graph/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type GraphInterface struct {
	Impl struct {
		Network               func(context.Context, kdbgra.NetworkFilter) (domain.NetworkData, error)
		Distribution          func(context.Context) ([]domain.DistributionRow, error)
		ArchivePlatformCounts func(context.Context) (map[string]int, error)
		TopVocabNames         func(context.Context, domain.VocabKind, int) ([]string, error)
	}
	Calls struct {
		Network               dbmock.CallLog[struct{ Filter kdbgra.NetworkFilter }]
		Distribution          dbmock.CallLog[struct{}]
		ArchivePlatformCounts dbmock.CallLog[struct{}]
		TopVocabNames         dbmock.CallLog[struct {
			Kind  domain.VocabKind
			Limit int
		}]
	}
}

func NewGraphInterface() *GraphInterface {
	return &GraphInterface{}
}

var _ kdbgra.GraphInterface = &GraphInterface{}

func (m *GraphInterface) Network(ctx context.Context, filter kdbgra.NetworkFilter) (domain.NetworkData, error) {
	m.Calls.Network = append(m.Calls.Network, struct{ Filter kdbgra.NetworkFilter }{Filter: filter})
	if m.Impl.Network != nil {
		return m.Impl.Network(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *GraphInterface) Distribution(ctx context.Context) ([]domain.DistributionRow, error) {
	m.Calls.Distribution = append(m.Calls.Distribution, struct{}{})
	if m.Impl.Distribution != nil {
		return m.Impl.Distribution(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *GraphInterface) ArchivePlatformCounts(ctx context.Context) (map[string]int, error) {
	m.Calls.ArchivePlatformCounts = append(m.Calls.ArchivePlatformCounts, struct{}{})
	if m.Impl.ArchivePlatformCounts != nil {
		return m.Impl.ArchivePlatformCounts(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *GraphInterface) TopVocabNames(ctx context.Context, kind domain.VocabKind, limit int) ([]string, error) {
	m.Calls.TopVocabNames = append(m.Calls.TopVocabNames, struct {
		Kind  domain.VocabKind
		Limit int
	}{Kind: kind, Limit: limit})
	if m.Impl.TopVocabNames != nil {
		return m.Impl.TopVocabNames(ctx, kind, limit)
	}
	panic(errors.New("it should not be called"))
}
