package rest

import (
	"context"
	"net/http"
	"strings"

	kprof "github.com/comses/citation/cmd/citation/config/profiles"
	apiauth "github.com/comses/citation/pkg/api/types/auth"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/slices"
)

// PublicationQuery is the query of FindPublications.
//
// Empty fields do not constrain the result.
type PublicationQuery struct {
	// match if the publication's status is one of these.
	Status []string

	// match on the flagged mark. nil means "match any".
	Flagged *bool

	// match on primary/secondary. nil means "match any".
	IsPrimary *bool

	// match if assigned to this curator.
	AssignedCurator string

	// match if the title contains this text.
	Title string

	// match on the DOI.
	Doi string

	// match if the publication appeared in a container of this name.
	Container string

	// match if tagged/sponsored/platformed with one of these names.
	Tags      []string
	Sponsors  []string
	Platforms []string

	// Page to fetch, 1-based. 0 means the first page.
	Page int

	// Rows per page. 0 leaves it to the server.
	PerPage int
}

func (q PublicationQuery) Equal(o PublicationQuery) bool {
	return cmp.SliceEq(q.Status, o.Status) &&
		cmp.PEqEq(q.Flagged, o.Flagged) &&
		cmp.PEqEq(q.IsPrimary, o.IsPrimary) &&
		q.AssignedCurator == o.AssignedCurator &&
		q.Title == o.Title &&
		q.Doi == o.Doi &&
		q.Container == o.Container &&
		cmp.SliceEq(q.Tags, o.Tags) &&
		cmp.SliceEq(q.Sponsors, o.Sponsors) &&
		cmp.SliceEq(q.Platforms, o.Platforms) &&
		q.Page == o.Page &&
		q.PerPage == o.PerPage
}

type CitationClient interface {
	// IssueToken signs in and gets a session token.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// - string: password
	//
	// Returns
	//
	// - apiauth.TokenResponse: the signed token and its expiry
	//
	// - error
	IssueToken(ctx context.Context, username string, password string) (apiauth.TokenResponse, error)

	// FindPublications finds publications matching a query.
	//
	// Args
	//
	// - context.Context
	//
	// - PublicationQuery: what to match and which page to fetch
	//
	// Returns
	//
	// - apipubs.Page: one page of matching publications
	//
	// - error
	FindPublications(ctx context.Context, query PublicationQuery) (apipubs.Page, error)

	// GetPublication gets the full curation view of one publication.
	//
	// Args
	//
	// - context.Context
	//
	// - int: id of the publication
	//
	// Returns
	//
	// - apipubs.Detail: the publication
	//
	// - error
	GetPublication(ctx context.Context, id int) (apipubs.Detail, error)
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

// create new catalog client for CitationProfile
//
// # Args
//
// - *kprof.CitationProfile
//
// # Return
//
// - CitationClient: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.CitationProfile) (CitationClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}

	c := &client{
		httpclient: new(http.Client),
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = slices.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

// do sends the request with the profile's session token attached.
func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpclient.Do(req)
}
