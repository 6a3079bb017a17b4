package mocks

import (
	"context"
	"errors"
	"time"

	kdbcache "github.com/comses/citation/pkg/domain/cache/db"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
)

type CacheInterface struct {
	Impl struct {
		Get     func(context.Context, string, any) error
		Put     func(context.Context, string, any, time.Duration) error
		Refresh func(context.Context, string, time.Duration, func(context.Context) (any, error)) (bool, error)
		Drop    func(context.Context, []string) (int, error)
		Expire  func(context.Context) (int, error)
	}
	Calls struct {
		Get dbmock.CallLog[struct{ Key string }]
		Put dbmock.CallLog[struct {
			Key   string
			Value any
			Ttl   time.Duration
		}]
		Refresh dbmock.CallLog[struct {
			Key string
			Ttl time.Duration
		}]
		Drop   dbmock.CallLog[struct{ Keys []string }]
		Expire dbmock.CallLog[struct{}]
	}
}

func NewCacheInterface() *CacheInterface {
	return &CacheInterface{}
}

var _ kdbcache.CacheInterface = &CacheInterface{}

func (m *CacheInterface) Get(ctx context.Context, key string, dest any) error {
	m.Calls.Get = append(m.Calls.Get, struct{ Key string }{Key: key})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, key, dest)
	}
	panic(errors.New("it should not be called"))
}

func (m *CacheInterface) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.Calls.Put = append(m.Calls.Put, struct {
		Key   string
		Value any
		Ttl   time.Duration
	}{Key: key, Value: value, Ttl: ttl})
	if m.Impl.Put != nil {
		return m.Impl.Put(ctx, key, value, ttl)
	}
	panic(errors.New("it should not be called"))
}

func (m *CacheInterface) Refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (any, error)) (bool, error) {
	m.Calls.Refresh = append(m.Calls.Refresh, struct {
		Key string
		Ttl time.Duration
	}{Key: key, Ttl: ttl})
	if m.Impl.Refresh != nil {
		return m.Impl.Refresh(ctx, key, ttl, compute)
	}
	panic(errors.New("it should not be called"))
}

func (m *CacheInterface) Drop(ctx context.Context, keys []string) (int, error) {
	m.Calls.Drop = append(m.Calls.Drop, struct{ Keys []string }{Keys: keys})
	if m.Impl.Drop != nil {
		return m.Impl.Drop(ctx, keys)
	}
	panic(errors.New("it should not be called"))
}

func (m *CacheInterface) Expire(ctx context.Context) (int, error) {
	m.Calls.Expire = append(m.Calls.Expire, struct{}{})
	if m.Impl.Expire != nil {
		return m.Impl.Expire(ctx)
	}
	panic(errors.New("it should not be called"))
}
