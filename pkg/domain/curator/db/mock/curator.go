package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	kdbcur "github.com/comses/citation/pkg/domain/curator/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type CuratorInterface struct {
	Impl struct {
		Verify      func(context.Context, string, string) (domain.Curator, error)
		Get         func(context.Context, string) (domain.Curator, error)
		List        func(context.Context) ([]domain.Curator, error)
		Register    func(context.Context, kdbcur.NewCurator) (domain.Curator, error)
		SetPassword func(context.Context, string, string) error
		SetActive   func(context.Context, string, bool) error
	}
	Calls struct {
		Verify      dbmock.CallLog[struct{ Username string }]
		Get         dbmock.CallLog[struct{ Username string }]
		List        dbmock.CallLog[struct{}]
		Register    dbmock.CallLog[struct{ Spec kdbcur.NewCurator }]
		SetPassword dbmock.CallLog[struct{ Username string }]
		SetActive   dbmock.CallLog[struct {
			Username string
			Active   bool
		}]
	}
}

func NewCuratorInterface() *CuratorInterface {
	return &CuratorInterface{}
}

var _ kdbcur.CuratorInterface = &CuratorInterface{}

func (m *CuratorInterface) Verify(ctx context.Context, username string, password string) (domain.Curator, error) {
	m.Calls.Verify = append(m.Calls.Verify, struct{ Username string }{Username: username})
	if m.Impl.Verify != nil {
		return m.Impl.Verify(ctx, username, password)
	}
	panic(errors.New("it should not be called"))
}

func (m *CuratorInterface) Get(ctx context.Context, username string) (domain.Curator, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ Username string }{Username: username})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, username)
	}
	panic(errors.New("it should not be called"))
}

func (m *CuratorInterface) List(ctx context.Context) ([]domain.Curator, error) {
	m.Calls.List = append(m.Calls.List, struct{}{})
	if m.Impl.List != nil {
		return m.Impl.List(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *CuratorInterface) Register(ctx context.Context, spec kdbcur.NewCurator) (domain.Curator, error) {
	m.Calls.Register = append(m.Calls.Register, struct{ Spec kdbcur.NewCurator }{Spec: spec})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *CuratorInterface) SetPassword(ctx context.Context, username string, password string) error {
	m.Calls.SetPassword = append(m.Calls.SetPassword, struct{ Username string }{Username: username})
	if m.Impl.SetPassword != nil {
		return m.Impl.SetPassword(ctx, username, password)
	}
	panic(errors.New("it should not be called"))
}

func (m *CuratorInterface) SetActive(ctx context.Context, username string, active bool) error {
	m.Calls.SetActive = append(m.Calls.SetActive, struct {
		Username string
		Active   bool
	}{Username: username, Active: active})
	if m.Impl.SetActive != nil {
		return m.Impl.SetActive(ctx, username, active)
	}
	panic(errors.New("it should not be called"))
}
