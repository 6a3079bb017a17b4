package crossref_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/crossref"
	"github.com/comses/citation/pkg/utils/cmp"
	json "github.com/goccy/go-json"
)

func TestClient_Lookup(t *testing.T) {
	t.Run("when the server knows the doi, it returns the work and images the exchange", func(t *testing.T) {
		handlerFactory := func(t *testing.T, resp crossref.Work) (http.Handler, func() *http.Request) {
			var request *http.Request
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r

				w.Header().Add("Content-Type", "application/json")

				body, err := json.Marshal(struct {
					Message crossref.Work `json:"message"`
				}{Message: resp})
				if err != nil {
					t.Fatal(err.Error())
				}

				w.WriteHeader(http.StatusOK)
				w.Write(body)
			})
			return h, func() *http.Request { return request }
		}

		expectedWork := crossref.Work{
			Title:          []string{"The evolution of cooperation"},
			ContainerTitle: []string{"Basic Books"},
			Doi:            "10.1234/evolcoop",
			Type:           "book",
			Issued:         crossref.WorkDate{DateParts: [][]int{{1984, 4, 1}}},
			Author: []crossref.WorkAuthor{
				{Family: "Axelrod", Given: "Robert", Orcid: "http://orcid.org/0000-0003-1265-7797"},
			},
		}

		handler, getLastRequest := handlerFactory(t, expectedWork)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL)
		work, snap, err := testee.Lookup(context.Background(), "10.1234/evolcoop")
		if err != nil {
			t.Fatal(err.Error())
		}

		request := getLastRequest()
		if request.Method != http.MethodGet {
			t.Errorf("unmatch: method: (actual, expected) = (%s, %s)", request.Method, http.MethodGet)
		}
		if request.URL.Path != "/works/10.1234/evolcoop" {
			t.Errorf("unmatch: path: (actual, expected) = (%s, /works/10.1234/evolcoop)", request.URL.Path)
		}

		if work == nil {
			t.Fatal("no work is returned")
		}
		if work.TitleText() != "The evolution of cooperation" {
			t.Errorf("unmatch: title: (actual, expected) = (%s, The evolution of cooperation)", work.TitleText())
		}
		if work.ContainerName() != "Basic Books" {
			t.Errorf("unmatch: container: (actual, expected) = (%s, Basic Books)", work.ContainerName())
		}
		if work.Doi != expectedWork.Doi || work.Type != expectedWork.Type {
			t.Errorf(
				"unmatch: doi, type: (actual, expected) = ((%s, %s), (%s, %s))",
				work.Doi, work.Type, expectedWork.Doi, expectedWork.Type,
			)
		}
		if y, ok := work.Year(); !ok || y != 1984 {
			t.Errorf("unmatch: year: (actual, expected) = ((%d, %v), (1984, true))", y, ok)
		}
		if !cmp.SliceEq(work.Author, expectedWork.Author) {
			t.Errorf("unmatch: authors: (actual, expected) = (%v, %v)", work.Author, expectedWork.Author)
		}

		expectedUrl := server.URL + "/works/" + url.PathEscape("10.1234/evolcoop")
		if snap.Url != expectedUrl {
			t.Errorf("unmatch: snapshot url: (actual, expected) = (%s, %s)", snap.Url, expectedUrl)
		}
		if snap.StatusCode != http.StatusOK || snap.Reason != "OK" {
			t.Errorf(
				"unmatch: snapshot status: (actual, expected) = ((%d, %s), (200, OK))",
				snap.StatusCode, snap.Reason,
			)
		}
		if !snap.IsJson {
			t.Error("snapshot does not flag its content as json")
		}
		if snap.Headers["Content-Type"] != "application/json" {
			t.Errorf("unmatch: snapshot content type: (actual, expected) = (%s, application/json)", snap.Headers["Content-Type"])
		}
		content, ok := snap.Content.(map[string]any)
		if !ok {
			t.Fatalf("snapshot content is not an object: %+v", snap.Content)
		}
		if _, ok := content["message"]; !ok {
			t.Errorf("snapshot content drops the response payload: %+v", content)
		}
	})

	t.Run("when the server does not know the doi, it returns no work but keeps the exchange", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status": "error", "message-type": "route-not-found"}`))
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL)
		work, snap, err := testee.Lookup(context.Background(), "10.9999/nosuch")
		if err != nil {
			t.Fatal(err.Error())
		}
		if work != nil {
			t.Errorf("a work is returned for a miss: %+v", work)
		}
		if snap.StatusCode != http.StatusNotFound || snap.Reason != "Not Found" {
			t.Errorf(
				"unmatch: snapshot status: (actual, expected) = ((%d, %s), (404, Not Found))",
				snap.StatusCode, snap.Reason,
			)
		}
		if !snap.IsJson {
			t.Error("snapshot does not flag its content as json")
		}
	})

	t.Run("when the response is not json, the snapshot keeps the body as text", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("down for maintenance\n"))
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL)
		work, snap, err := testee.Lookup(context.Background(), "10.9999/busy")
		if err != nil {
			t.Fatal(err.Error())
		}
		if work != nil {
			t.Errorf("a work is returned for an error response: %+v", work)
		}
		if snap.IsJson {
			t.Error("snapshot flags a plain text body as json")
		}
		if content, ok := snap.Content.(string); !ok || content != "down for maintenance\n" {
			t.Errorf("unmatch: snapshot content: (actual, expected) = (%v, down for maintenance)", snap.Content)
		}
	})

	t.Run("when the server is too slow, it returns an error naming the timeout", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL, crossref.WithTimeout(10*time.Millisecond))
		work, snap, err := testee.Lookup(context.Background(), "10.9999/slow")
		if err == nil {
			t.Fatal("no error occured")
		}
		if work != nil {
			t.Errorf("a work is returned despite the timeout: %+v", work)
		}
		if snap.Reason != "TIMEOUT" {
			t.Errorf("unmatch: snapshot reason: (actual, expected) = (%s, TIMEOUT)", snap.Reason)
		}
		if snap.StatusCode != 0 {
			t.Errorf("snapshot carries a status for an exchange that never completed: %d", snap.StatusCode)
		}
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("it queries works by free text and returns the items", func(t *testing.T) {
		handlerFactory := func(t *testing.T, resp []crossref.Work) (http.Handler, func() *http.Request) {
			var request *http.Request
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r

				w.Header().Add("Content-Type", "application/json")

				type message struct {
					Items []crossref.Work `json:"items"`
				}
				body, err := json.Marshal(struct {
					Message message `json:"message"`
				}{Message: message{Items: resp}})
				if err != nil {
					t.Fatal(err.Error())
				}

				w.WriteHeader(http.StatusOK)
				w.Write(body)
			})
			return h, func() *http.Request { return request }
		}

		expectedWorks := []crossref.Work{
			{
				Title:  []string{"The evolution of cooperation"},
				Doi:    "10.1234/evolcoop",
				Issued: crossref.WorkDate{DateParts: [][]int{{1984}}},
			},
			{
				Title:  []string{"The further evolution of cooperation"},
				Doi:    "10.1126/science.242.4884.1385",
				Issued: crossref.WorkDate{DateParts: [][]int{{1988}}},
			},
		}

		handler, getLastRequest := handlerFactory(t, expectedWorks)
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL)
		query := "Robert Axelrod; William D Hamilton, 1981"
		works, snap, err := testee.Search(context.Background(), query)
		if err != nil {
			t.Fatal(err.Error())
		}

		request := getLastRequest()
		if request.URL.Path != "/works" {
			t.Errorf("unmatch: path: (actual, expected) = (%s, /works)", request.URL.Path)
		}
		if q := request.URL.Query().Get("query"); q != query {
			t.Errorf("unmatch: query: (actual, expected) = (%s, %s)", q, query)
		}

		if len(works) != len(expectedWorks) {
			t.Fatalf("unmatch: works: (actual, expected) = (%v, %v)", works, expectedWorks)
		}
		for i := range works {
			if works[i].Doi != expectedWorks[i].Doi {
				t.Errorf("unmatch: works[%d]: (actual, expected) = (%v, %v)", i, works[i], expectedWorks[i])
			}
		}

		expectedUrl := server.URL + "/works?" + url.Values{"query": []string{query}}.Encode()
		if snap.Url != expectedUrl {
			t.Errorf("unmatch: snapshot url: (actual, expected) = (%s, %s)", snap.Url, expectedUrl)
		}
		if snap.StatusCode != http.StatusOK {
			t.Errorf("unmatch: snapshot status: (actual, expected) = (%d, 200)", snap.StatusCode)
		}
	})

	t.Run("when the search fails, it returns no works but keeps the exchange", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status": "error"}`))
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		testee := crossref.New(server.URL)
		works, snap, err := testee.Search(context.Background(), "anything")
		if err != nil {
			t.Fatal(err.Error())
		}
		if works != nil {
			t.Errorf("works are returned for an error response: %+v", works)
		}
		if snap.StatusCode != http.StatusInternalServerError {
			t.Errorf("unmatch: snapshot status: (actual, expected) = (%d, 500)", snap.StatusCode)
		}
	})
}

func TestWork_Year(t *testing.T) {
	theory := func(when crossref.WorkDate, thenYear int, thenOk bool) func(*testing.T) {
		return func(t *testing.T) {
			actual, ok := crossref.Work{Issued: when}.Year()
			if actual != thenYear || ok != thenOk {
				t.Errorf(
					"unmatch: (actual, expected) = ((%d, %v), (%d, %v))",
					actual, ok, thenYear, thenOk,
				)
			}
		}
	}

	t.Run("a full date yields its year", theory(
		crossref.WorkDate{DateParts: [][]int{{2002, 3, 15}}}, 2002, true,
	))
	t.Run("a bare year yields itself", theory(
		crossref.WorkDate{DateParts: [][]int{{1996}}}, 1996, true,
	))
	t.Run("no date parts yield nothing", theory(
		crossref.WorkDate{}, 0, false,
	))
	t.Run("an empty first part yields nothing", theory(
		crossref.WorkDate{DateParts: [][]int{{}}}, 0, false,
	))
	t.Run("a zero year yields nothing", theory(
		crossref.WorkDate{DateParts: [][]int{{0}}}, 0, false,
	))
}

func TestWork_Stub(t *testing.T) {
	theory := func(when crossref.Work, then domain.PublicationStub) func(*testing.T) {
		return func(t *testing.T) {
			actual := when.Stub()
			if actual.Body != then.Body {
				t.Errorf("unmatch: body: (actual, expected) = (%+v, %+v)", actual.Body, then.Body)
			}
			if !actual.Container.Equal(then.Container) {
				t.Errorf("unmatch: container: (actual, expected) = (%+v, %+v)", actual.Container, then.Container)
			}
			if !cmp.SliceEqWith(actual.Authors, then.Authors, domain.AuthorStub.Equal) {
				t.Errorf("unmatch: authors: (actual, expected) = (%v, %v)", actual.Authors, then.Authors)
			}
		}
	}

	t.Run("a work with authors", theory(
		crossref.Work{
			Title:          []string{"Growing artificial societies", "social science from the bottom up"},
			ContainerTitle: []string{"Brookings Institution Press"},
			Doi:            "10.7551/mitpress/3374.001.0001",
			Type:           "book",
			Issued:         crossref.WorkDate{DateParts: [][]int{{1996, 10}}},
			Author: []crossref.WorkAuthor{
				{Family: "Epstein", Given: "Joshua M.", Orcid: "http://orcid.org/0000-0002-7153-8363"},
				{Family: "Axtell", Given: "Robert"},
			},
			Editor: []crossref.WorkAuthor{
				{Family: "Somebody", Given: "Else"},
			},
		},
		domain.PublicationStub{
			Body: domain.PublicationBody{
				Title:             "Growing artificial societies",
				Doi:               "10.7551/mitpress/3374.001.0001",
				DatePublishedText: "1996",
			},
			Container: domain.ContainerStub{Type: "book", Name: "Brookings Institution Press"},
			Authors: []domain.AuthorStub{
				{Type: domain.Individual, FamilyName: "EPSTEIN", GivenName: "JOSHUA M.", Orcid: "http://orcid.org/0000-0002-7153-8363"},
				{Type: domain.Individual, FamilyName: "AXTELL", GivenName: "ROBERT"},
			},
		},
	))

	t.Run("editors stand in when the work has no authors", theory(
		crossref.Work{
			Title:  []string{"Simulating social phenomena"},
			Type:   "monograph",
			Issued: crossref.WorkDate{DateParts: [][]int{{1997}}},
			Editor: []crossref.WorkAuthor{
				{Family: "Ramírez", Given: "José María"},
			},
		},
		domain.PublicationStub{
			Body: domain.PublicationBody{
				Title:             "Simulating social phenomena",
				DatePublishedText: "1997",
			},
			Container: domain.ContainerStub{Type: "monograph"},
			Authors: []domain.AuthorStub{
				{Type: domain.Individual, FamilyName: "RAMIREZ", GivenName: "JOSE MARIA"},
			},
		},
	))

	t.Run("a work without a date leaves the publishing text empty", theory(
		crossref.Work{
			Title: []string{"Untitled working paper"},
			Doi:   "10.9999/wp",
		},
		domain.PublicationStub{
			Body: domain.PublicationBody{
				Title: "Untitled working paper",
				Doi:   "10.9999/wp",
			},
			Authors: []domain.AuthorStub{},
		},
	))
}
