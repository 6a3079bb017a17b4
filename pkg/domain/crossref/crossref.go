// Package crossref looks publications up on the Crossref REST API to
// fill fields a BibTeX load left empty.
package crossref

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/comses/citation/pkg/domain"
	xe "github.com/comses/citation/pkg/errors"
	"github.com/comses/citation/pkg/utils/slices"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DefaultBaseUrl is the public Crossref API root.
const DefaultBaseUrl = "https://api.crossref.org"

// DefaultTimeout bounds one exchange with the API.
const DefaultTimeout = 10 * time.Second

// DefaultRateLimit is the polite request rate, per second.
const DefaultRateLimit = 1.0

// Client calls the Crossref works API.
type Client struct {
	base       string
	httpclient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client) *Client

// WithTimeout bounds each exchange. Zero or less means DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) *Client {
		if 0 < d {
			c.httpclient.Timeout = d
		}
		return c
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less means
// DefaultRateLimit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) *Client {
		if 0 < perSecond {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
		return c
	}
}

// New creates a client for the API rooted at baseUrl.
// "" means DefaultBaseUrl.
func New(baseUrl string, options ...Option) *Client {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	c := &Client{
		base:       strings.TrimSuffix(baseUrl, "/"),
		httpclient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range options {
		c = opt(c)
	}
	return c
}

// Snapshot is the stored image of one exchange with the API, the value
// of CROSSREF_* provenance rows.
type Snapshot struct {
	Url        string            `json:"url"`
	StatusCode int               `json:"status_code,omitempty"`
	Reason     string            `json:"reason"`
	Headers    map[string]string `json:"headers,omitempty"`
	IsJson     bool              `json:"is_json"`
	Content    any               `json:"content,omitempty"`

	// Indexes of the search items that matched the publication.
	// Search snapshots only.
	MatchIds []int `json:"match_ids,omitempty"`
}

// Work is the part of a Crossref work record the catalog reads.
type Work struct {
	Title          []string     `json:"title"`
	ContainerTitle []string     `json:"container-title"`
	Doi            string       `json:"DOI"`
	Type           string       `json:"type"`
	Issued         WorkDate     `json:"issued"`
	Author         []WorkAuthor `json:"author"`
	Editor         []WorkAuthor `json:"editor"`
}

type WorkDate struct {
	DateParts [][]int `json:"date-parts"`
}

type WorkAuthor struct {
	Family string `json:"family"`
	Given  string `json:"given"`
	Orcid  string `json:"ORCID"`
}

// TitleText returns the work's first title, or "".
func (w Work) TitleText() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// ContainerName returns the work's first container title, or "".
func (w Work) ContainerName() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

// Year returns the work's issue year, or false when the record has none.
func (w Work) Year() (int, bool) {
	if len(w.Issued.DateParts) == 0 || len(w.Issued.DateParts[0]) == 0 {
		return 0, false
	}
	y := w.Issued.DateParts[0][0]
	return y, y != 0
}

// Stub converts the work into an enrichment stub: what the lookup says
// about title, publishing year, doi, venue and people.
//
// Crossref spells book credits as editors; they stand in when the work
// has no authors.
func (w Work) Stub() domain.PublicationStub {
	people := w.Author
	if len(people) == 0 {
		people = w.Editor
	}
	body := domain.PublicationBody{
		Title: w.TitleText(),
		Doi:   w.Doi,
	}
	if y, ok := w.Year(); ok {
		body.DatePublishedText = strconv.Itoa(y)
	}
	return domain.PublicationStub{
		Body: body,
		Container: domain.ContainerStub{
			Type: w.Type,
			Name: w.ContainerName(),
		},
		Authors: slices.Map(people, WorkAuthor.Stub),
	}
}

// Stub folds the author's names the way the catalog spells lookup
// authors: uppercased and stripped of diacritics.
func (wa WorkAuthor) Stub() domain.AuthorStub {
	return domain.AuthorStub{
		Type:       domain.Individual,
		FamilyName: domain.FoldToASCII(strings.ToUpper(wa.Family)),
		GivenName:  domain.FoldToASCII(strings.ToUpper(wa.Given)),
		Orcid:      wa.Orcid,
	}
}

// Lookup fetches the work registered for a DOI.
//
// The Snapshot images the exchange for provenance whatever happens; the
// Work is non-nil only for a 200 response with a readable body.
func (c *Client) Lookup(ctx context.Context, doi string) (*Work, Snapshot, error) {
	var payload struct {
		Message Work `json:"message"`
	}
	snap, err := c.get(ctx, c.base+"/works/"+url.PathEscape(doi), &payload)
	if err != nil || snap.StatusCode != http.StatusOK {
		return nil, snap, err
	}
	return &payload.Message, snap, nil
}

// Search queries works by free text and returns the candidate works of
// a 200 response, best ranked first.
func (c *Client) Search(ctx context.Context, query string) ([]Work, Snapshot, error) {
	var payload struct {
		Message struct {
			Items []Work `json:"items"`
		} `json:"message"`
	}
	q := url.Values{"query": []string{query}}
	snap, err := c.get(ctx, c.base+"/works?"+q.Encode(), &payload)
	if err != nil || snap.StatusCode != http.StatusOK {
		return nil, snap, err
	}
	return payload.Message.Items, snap, nil
}

// get runs one rate-limited GET. The returned Snapshot is usable even
// when err is non-nil, carrying the url and the failure reason.
func (c *Client) get(ctx context.Context, rawUrl string, into any) (Snapshot, error) {
	snap := Snapshot{Url: rawUrl}

	if err := c.limiter.Wait(ctx); err != nil {
		snap.Reason = reasonOf(err)
		return snap, xe.Wrap(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		snap.Reason = reasonOf(err)
		return snap, xe.Wrap(err)
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		snap.Reason = reasonOf(err)
		return snap, xe.Wrap(err)
	}
	defer resp.Body.Close()

	snap.StatusCode = resp.StatusCode
	snap.Reason = http.StatusText(resp.StatusCode)
	snap.Headers = flattenHeader(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		snap.Reason = reasonOf(err)
		return snap, xe.Wrap(err)
	}

	var content any
	if err := json.Unmarshal(body, &content); err != nil {
		snap.Content = string(body)
	} else {
		snap.IsJson = true
		snap.Content = content
	}

	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, into); err != nil {
			return snap, xe.Wrap(err)
		}
	}
	return snap, nil
}

// reasonOf names a transport failure the way provenance rows record it.
func reasonOf(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "TIMEOUT"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	return err.Error()
}

func flattenHeader(h http.Header) map[string]string {
	flat := make(map[string]string, len(h))
	for name := range h {
		flat[name] = h.Get(name)
	}
	return flat
}
