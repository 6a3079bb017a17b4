package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbing "github.com/comses/citation/pkg/domain/ingest/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type IngestInterface struct {
	Impl struct {
		Register         func(context.Context, *domain.AuditCommand, domain.PublicationStub) (kdbing.Loaded, error)
		Enrich           func(context.Context, *domain.AuditCommand, int, domain.PublicationStub) (domain.Raw, error)
		AddRaw           func(context.Context, int, domain.RawKey, any) (domain.Raw, error)
		Provenance       func(context.Context, []int) (map[int][]domain.Raw, error)
		DoiCandidates    func(context.Context, int) ([]kdbing.Candidate, error)
		SearchCandidates func(context.Context, int) ([]kdbing.Candidate, error)
	}
	Calls struct {
		Register dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Stub    domain.PublicationStub
		}]
		Enrich dbmock.CallLog[struct {
			Command       *domain.AuditCommand
			PublicationId int
			Stub          domain.PublicationStub
		}]
		AddRaw dbmock.CallLog[struct {
			PublicationId int
			Key           domain.RawKey
			Value         any
		}]
		Provenance       dbmock.CallLog[struct{ PublicationIds []int }]
		DoiCandidates    dbmock.CallLog[struct{ Limit int }]
		SearchCandidates dbmock.CallLog[struct{ Limit int }]
	}
}

func NewIngestInterface() *IngestInterface {
	return &IngestInterface{}
}

var _ kdbing.IngestInterface = &IngestInterface{}

func (m *IngestInterface) Register(ctx context.Context, cmd *domain.AuditCommand, stub domain.PublicationStub) (kdbing.Loaded, error) {
	m.Calls.Register = append(m.Calls.Register, struct {
		Command *domain.AuditCommand
		Stub    domain.PublicationStub
	}{Command: cmd, Stub: stub})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, cmd, stub)
	}
	panic(errors.New("it should not be called"))
}

func (m *IngestInterface) Enrich(ctx context.Context, cmd *domain.AuditCommand, publicationId int, stub domain.PublicationStub) (domain.Raw, error) {
	m.Calls.Enrich = append(m.Calls.Enrich, struct {
		Command       *domain.AuditCommand
		PublicationId int
		Stub          domain.PublicationStub
	}{Command: cmd, PublicationId: publicationId, Stub: stub})
	if m.Impl.Enrich != nil {
		return m.Impl.Enrich(ctx, cmd, publicationId, stub)
	}
	panic(errors.New("it should not be called"))
}

func (m *IngestInterface) AddRaw(ctx context.Context, publicationId int, key domain.RawKey, value any) (domain.Raw, error) {
	m.Calls.AddRaw = append(m.Calls.AddRaw, struct {
		PublicationId int
		Key           domain.RawKey
		Value         any
	}{PublicationId: publicationId, Key: key, Value: value})
	if m.Impl.AddRaw != nil {
		return m.Impl.AddRaw(ctx, publicationId, key, value)
	}
	panic(errors.New("it should not be called"))
}

func (m *IngestInterface) Provenance(ctx context.Context, publicationIds []int) (map[int][]domain.Raw, error) {
	m.Calls.Provenance = append(m.Calls.Provenance, struct{ PublicationIds []int }{PublicationIds: publicationIds})
	if m.Impl.Provenance != nil {
		return m.Impl.Provenance(ctx, publicationIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *IngestInterface) DoiCandidates(ctx context.Context, limit int) ([]kdbing.Candidate, error) {
	m.Calls.DoiCandidates = append(m.Calls.DoiCandidates, struct{ Limit int }{Limit: limit})
	if m.Impl.DoiCandidates != nil {
		return m.Impl.DoiCandidates(ctx, limit)
	}
	panic(errors.New("it should not be called"))
}

func (m *IngestInterface) SearchCandidates(ctx context.Context, limit int) ([]kdbing.Candidate, error) {
	m.Calls.SearchCandidates = append(m.Calls.SearchCandidates, struct{ Limit int }{Limit: limit})
	if m.Impl.SearchCandidates != nil {
		return m.Impl.SearchCandidates(ctx, limit)
	}
	panic(errors.New("it should not be called"))
}
