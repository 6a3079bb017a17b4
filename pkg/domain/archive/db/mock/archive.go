package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbarc "github.com/comses/citation/pkg/domain/archive/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type ArchiveInterface struct {
	Impl struct {
		Categories  func(context.Context) ([]domain.CodeArchiveUrlCategory, error)
		Patterns    func(context.Context) ([]domain.CodeArchiveUrlPattern, error)
		Urls        func(context.Context, []int) (map[int][]domain.CodeArchiveUrl, error)
		AllUrls     func(context.Context) ([]domain.CodeArchiveUrl, error)
		AddUrl      func(context.Context, *domain.AuditCommand, int, kdbarc.NewUrl) (domain.CodeArchiveUrl, error)
		UpdateUrl   func(context.Context, *domain.AuditCommand, int, kdbarc.UrlDelta) error
		RecordCheck func(context.Context, int, kdbarc.Check) error
	}
	Calls struct {
		Categories dbmock.CallLog[struct{}]
		Patterns   dbmock.CallLog[struct{}]
		Urls       dbmock.CallLog[struct{ PublicationIds []int }]
		AllUrls    dbmock.CallLog[struct{}]
		AddUrl     dbmock.CallLog[struct {
			Command       *domain.AuditCommand
			PublicationId int
			Url           kdbarc.NewUrl
		}]
		UpdateUrl dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
			Delta   kdbarc.UrlDelta
		}]
		RecordCheck dbmock.CallLog[struct {
			UrlId int
			Check kdbarc.Check
		}]
	}
}

func NewArchiveInterface() *ArchiveInterface {
	return &ArchiveInterface{}
}

var _ kdbarc.ArchiveInterface = &ArchiveInterface{}

func (m *ArchiveInterface) Categories(ctx context.Context) ([]domain.CodeArchiveUrlCategory, error) {
	m.Calls.Categories = append(m.Calls.Categories, struct{}{})
	if m.Impl.Categories != nil {
		return m.Impl.Categories(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) Patterns(ctx context.Context) ([]domain.CodeArchiveUrlPattern, error) {
	m.Calls.Patterns = append(m.Calls.Patterns, struct{}{})
	if m.Impl.Patterns != nil {
		return m.Impl.Patterns(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) Urls(ctx context.Context, publicationIds []int) (map[int][]domain.CodeArchiveUrl, error) {
	m.Calls.Urls = append(m.Calls.Urls, struct{ PublicationIds []int }{PublicationIds: publicationIds})
	if m.Impl.Urls != nil {
		return m.Impl.Urls(ctx, publicationIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) AllUrls(ctx context.Context) ([]domain.CodeArchiveUrl, error) {
	m.Calls.AllUrls = append(m.Calls.AllUrls, struct{}{})
	if m.Impl.AllUrls != nil {
		return m.Impl.AllUrls(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) AddUrl(ctx context.Context, cmd *domain.AuditCommand, publicationId int, url kdbarc.NewUrl) (domain.CodeArchiveUrl, error) {
	m.Calls.AddUrl = append(m.Calls.AddUrl, struct {
		Command       *domain.AuditCommand
		PublicationId int
		Url           kdbarc.NewUrl
	}{Command: cmd, PublicationId: publicationId, Url: url})
	if m.Impl.AddUrl != nil {
		return m.Impl.AddUrl(ctx, cmd, publicationId, url)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) UpdateUrl(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdbarc.UrlDelta) error {
	m.Calls.UpdateUrl = append(m.Calls.UpdateUrl, struct {
		Command *domain.AuditCommand
		Id      int
		Delta   kdbarc.UrlDelta
	}{Command: cmd, Id: id, Delta: delta})
	if m.Impl.UpdateUrl != nil {
		return m.Impl.UpdateUrl(ctx, cmd, id, delta)
	}
	panic(errors.New("it should not be called"))
}

func (m *ArchiveInterface) RecordCheck(ctx context.Context, urlId int, check kdbarc.Check) error {
	m.Calls.RecordCheck = append(m.Calls.RecordCheck, struct {
		UrlId int
		Check kdbarc.Check
	}{UrlId: urlId, Check: check})
	if m.Impl.RecordCheck != nil {
		return m.Impl.RecordCheck(ctx, urlId, check)
	}
	panic(errors.New("it should not be called"))
}
