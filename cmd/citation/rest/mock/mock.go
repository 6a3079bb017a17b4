package mock

import (
	"context"
	"testing"

	"github.com/comses/citation/cmd/citation/rest"
	apiauth "github.com/comses/citation/pkg/api/types/auth"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
)

type IssueTokenArgs struct {
	Username string
	Password string
}

func New(t *testing.T) *mockCitationClient {
	return &mockCitationClient{t: t}
}

type mockCitationClient struct {
	t    *testing.T
	Impl struct {
		IssueToken       func(ctx context.Context, username string, password string) (apiauth.TokenResponse, error)
		FindPublications func(ctx context.Context, query rest.PublicationQuery) (apipubs.Page, error)
		GetPublication   func(ctx context.Context, id int) (apipubs.Detail, error)
	}
	Calls struct {
		IssueToken       []IssueTokenArgs
		FindPublications []rest.PublicationQuery
		GetPublication   []int
	}
}

var _ rest.CitationClient = &mockCitationClient{}

func (m *mockCitationClient) IssueToken(ctx context.Context, username string, password string) (apiauth.TokenResponse, error) {
	m.t.Helper()

	m.Calls.IssueToken = append(m.Calls.IssueToken, IssueTokenArgs{
		Username: username, Password: password,
	})
	if m.Impl.IssueToken == nil {
		m.t.Fatal("IssueToken is not ready to be called")
	}
	return m.Impl.IssueToken(ctx, username, password)
}

func (m *mockCitationClient) FindPublications(ctx context.Context, query rest.PublicationQuery) (apipubs.Page, error) {
	m.t.Helper()

	m.Calls.FindPublications = append(m.Calls.FindPublications, query)
	if m.Impl.FindPublications == nil {
		m.t.Fatal("FindPublications is not ready to be called")
	}
	return m.Impl.FindPublications(ctx, query)
}

func (m *mockCitationClient) GetPublication(ctx context.Context, id int) (apipubs.Detail, error) {
	m.t.Helper()

	m.Calls.GetPublication = append(m.Calls.GetPublication, id)
	if m.Impl.GetPublication == nil {
		m.t.Fatal("GetPublication is not ready to be called")
	}
	return m.Impl.GetPublication(ctx, id)
}
