package crossref_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/crossref"
	kdbing "github.com/comses/citation/pkg/domain/ingest/db"
	ingestmocks "github.com/comses/citation/pkg/domain/ingest/db/mock"
	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/try"
	json "github.com/goccy/go-json"
)

func TestEnricher_ByDoi(t *testing.T) {
	t.Run("it fills resolved candidates and records misses as failures", func(t *testing.T) {
		ctx := context.Background()

		resolved := crossref.Work{
			Title:          []string{"The evolution of cooperation"},
			ContainerTitle: []string{"Basic Books"},
			Doi:            "10.1/good",
			Type:           "book",
			Issued:         crossref.WorkDate{DateParts: [][]int{{1984}}},
			Author: []crossref.WorkAuthor{
				{Family: "Axelrod", Given: "Robert"},
			},
		}
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			if r.URL.Path != "/works/10.1/good" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"status": "error"}`))
				return
			}
			body, err := json.Marshal(struct {
				Message crossref.Work `json:"message"`
			}{Message: resolved})
			if err != nil {
				t.Fatal(err.Error())
			}
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.DoiCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{
				{PublicationId: 10, Doi: "10.1/good"},
				{PublicationId: 20, Doi: "10.2/bad"},
			}, nil
		}
		ingest.Impl.Enrich = func(context.Context, *domain.AuditCommand, int, domain.PublicationStub) (domain.Raw, error) {
			return domain.Raw{Id: 1}, nil
		}
		ingest.Impl.AddRaw = func(context.Context, int, domain.RawKey, any) (domain.Raw, error) {
			return domain.Raw{Id: 2}, nil
		}

		testee := crossref.Enricher{
			Ingest: ingest,
			Client: crossref.New(server.URL, crossref.WithRateLimit(1000)),
		}
		report := try.To(testee.ByDoi(ctx, "loader", 0)).OrFatal(t)

		if want := (crossref.Report{Looked: 2, Enriched: 1, Failed: 1}); report != want {
			t.Errorf("report: actual=%+v, expected=%+v", report, want)
		}
		if calls := ingest.Calls.DoiCandidates; len(calls) != 1 || calls[0].Limit != 0 {
			t.Errorf("candidate listings: actual=%+v", calls)
		}

		if len(ingest.Calls.Enrich) != 1 {
			t.Fatalf("enrichments: actual=%d, expected=%d", len(ingest.Calls.Enrich), 1)
		}
		enriched := ingest.Calls.Enrich[0]
		if enriched.PublicationId != 10 {
			t.Errorf("enriched publication: actual=%d, expected=%d", enriched.PublicationId, 10)
		}
		if enriched.Stub.Body.Title != "The evolution of cooperation" ||
			enriched.Stub.Body.DatePublishedText != "1984" {
			t.Errorf("enriched stub: actual=%+v", enriched.Stub.Body)
		}
		if enriched.Stub.RawKey != domain.RawCrossrefDoiSuccess {
			t.Errorf("raw key: actual=%s, expected=%s", enriched.Stub.RawKey, domain.RawCrossrefDoiSuccess)
		}
		if snap, ok := enriched.Stub.RawValue.(crossref.Snapshot); !ok || snap.StatusCode != http.StatusOK {
			t.Errorf("raw value: actual=%+v", enriched.Stub.RawValue)
		}
		if enriched.Command.Action != domain.ActionLoad ||
			enriched.Command.Creator != "loader" ||
			enriched.Command.Message != "augment with crossref doi lookup" {
			t.Errorf("audit command: actual=%+v", enriched.Command)
		}

		if len(ingest.Calls.AddRaw) != 1 {
			t.Fatalf("failure records: actual=%d, expected=%d", len(ingest.Calls.AddRaw), 1)
		}
		failed := ingest.Calls.AddRaw[0]
		if failed.PublicationId != 20 || failed.Key != domain.RawCrossrefDoiFail {
			t.Errorf("failure record: actual=%+v", failed)
		}
		if snap, ok := failed.Value.(crossref.Snapshot); !ok || snap.StatusCode != http.StatusNotFound {
			t.Errorf("failure snapshot: actual=%+v", failed.Value)
		}
	})

	t.Run("when candidates cannot be listed, it stops", func(t *testing.T) {
		expectedError := errors.New("fake error")
		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.DoiCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return nil, expectedError
		}

		testee := crossref.Enricher{Ingest: ingest, Client: crossref.New("")}
		if _, err := testee.ByDoi(context.Background(), "loader", 0); !errors.Is(err, expectedError) {
			t.Errorf("error: actual=%v, expected=%v", err, expectedError)
		}
	})

	t.Run("when the context is cancelled, the sweep stops", func(t *testing.T) {
		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.DoiCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{{PublicationId: 10, Doi: "10.1/good"}}, nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		testee := crossref.Enricher{Ingest: ingest, Client: crossref.New("")}
		if _, err := testee.ByDoi(ctx, "loader", 0); err == nil {
			t.Error("no error occured")
		}
		if len(ingest.Calls.Enrich) != 0 || len(ingest.Calls.AddRaw) != 0 {
			t.Error("the catalog is touched after cancellation")
		}
	})
}

func TestEnricher_BySearch(t *testing.T) {
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

	t.Run("it folds in the single work matching year and title", func(t *testing.T) {
		ctx := context.Background()

		works := []crossref.Work{
			{
				Title:  []string{"Something else entirely"},
				Doi:    "10.1/other",
				Issued: crossref.WorkDate{DateParts: [][]int{{1981}}},
			},
			{
				Title:  []string{"The evolution of cooperation"},
				Doi:    "10.1126/science.7466396",
				Issued: crossref.WorkDate{DateParts: [][]int{{1981}}},
			},
			{
				Title:  []string{"The evolution of cooperation"},
				Doi:    "10.1/wrongyear",
				Issued: crossref.WorkDate{DateParts: [][]int{{2006}}},
			},
		}

		handler, getLastRequest := handlerFactory(t, works)
		server := httptest.NewServer(handler)
		defer server.Close()

		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.SearchCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{{
				PublicationId:     7,
				Title:             "The evolution of cooperation",
				DatePublishedText: "1981-06",
				AuthorNames:       []string{"Robert Axelrod", "William D Hamilton"},
			}}, nil
		}
		ingest.Impl.Enrich = func(context.Context, *domain.AuditCommand, int, domain.PublicationStub) (domain.Raw, error) {
			return domain.Raw{Id: 1}, nil
		}

		testee := crossref.Enricher{
			Ingest: ingest,
			Client: crossref.New(server.URL, crossref.WithRateLimit(1000)),
		}
		report := try.To(testee.BySearch(ctx, "loader", 5)).OrFatal(t)

		if want := (crossref.Report{Looked: 1, Enriched: 1}); report != want {
			t.Errorf("report: actual=%+v, expected=%+v", report, want)
		}
		if calls := ingest.Calls.SearchCandidates; len(calls) != 1 || calls[0].Limit != 5 {
			t.Errorf("candidate listings: actual=%+v", calls)
		}

		request := getLastRequest()
		expectedQuery := "Robert Axelrod; William D Hamilton, 1981-06"
		if q := request.URL.Query().Get("query"); q != expectedQuery {
			t.Errorf("query: actual=%s, expected=%s", q, expectedQuery)
		}

		if len(ingest.Calls.Enrich) != 1 {
			t.Fatalf("enrichments: actual=%d, expected=%d", len(ingest.Calls.Enrich), 1)
		}
		enriched := ingest.Calls.Enrich[0]
		if enriched.PublicationId != 7 {
			t.Errorf("enriched publication: actual=%d, expected=%d", enriched.PublicationId, 7)
		}
		if enriched.Stub.Body.Doi != "10.1126/science.7466396" ||
			enriched.Stub.Body.DatePublishedText != "1981" {
			t.Errorf("enriched stub: actual=%+v", enriched.Stub.Body)
		}
		if enriched.Stub.RawKey != domain.RawCrossrefSearchSuccess {
			t.Errorf("raw key: actual=%s, expected=%s", enriched.Stub.RawKey, domain.RawCrossrefSearchSuccess)
		}
		snap, ok := enriched.Stub.RawValue.(crossref.Snapshot)
		if !ok {
			t.Fatalf("raw value: actual=%+v", enriched.Stub.RawValue)
		}
		if !cmp.SliceEq(snap.MatchIds, []int{1}) {
			t.Errorf("match ids: actual=%v, expected=%v", snap.MatchIds, []int{1})
		}
		if enriched.Command.Message != "augment data crossref year author search" {
			t.Errorf("audit message: actual=%s", enriched.Command.Message)
		}
	})

	t.Run("a search matching more than one work is recorded as a failure", func(t *testing.T) {
		ctx := context.Background()

		works := []crossref.Work{
			{Title: []string{"Micromotives and macrobehavior"}, Issued: crossref.WorkDate{DateParts: [][]int{{1978}}}},
			{Title: []string{"Models of segregation"}, Issued: crossref.WorkDate{DateParts: [][]int{{1978}}}},
		}
		handler, _ := handlerFactory(t, works)
		server := httptest.NewServer(handler)
		defer server.Close()

		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.SearchCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{{
				PublicationId:     8,
				DatePublishedText: "1978",
				AuthorNames:       []string{"Thomas Schelling"},
			}}, nil
		}
		ingest.Impl.AddRaw = func(context.Context, int, domain.RawKey, any) (domain.Raw, error) {
			return domain.Raw{Id: 2}, nil
		}

		testee := crossref.Enricher{
			Ingest: ingest,
			Client: crossref.New(server.URL, crossref.WithRateLimit(1000)),
		}
		report := try.To(testee.BySearch(ctx, "loader", 0)).OrFatal(t)

		if want := (crossref.Report{Looked: 1, Failed: 1}); report != want {
			t.Errorf("report: actual=%+v, expected=%+v", report, want)
		}
		if len(ingest.Calls.AddRaw) != 1 {
			t.Fatalf("failure records: actual=%d, expected=%d", len(ingest.Calls.AddRaw), 1)
		}
		failed := ingest.Calls.AddRaw[0]
		if failed.PublicationId != 8 || failed.Key != domain.RawCrossrefSearchFailNotUnique {
			t.Errorf("failure record: actual=%+v", failed)
		}
		snap, ok := failed.Value.(crossref.Snapshot)
		if !ok {
			t.Fatalf("failure snapshot: actual=%+v", failed.Value)
		}
		if !cmp.SliceEq(snap.MatchIds, []int{0, 1}) {
			t.Errorf("match ids: actual=%v, expected=%v", snap.MatchIds, []int{0, 1})
		}
	})

	t.Run("candidates without a year or creators are skipped without a lookup", func(t *testing.T) {
		ctx := context.Background()

		handler, getLastRequest := handlerFactory(t, nil)
		server := httptest.NewServer(handler)
		defer server.Close()

		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.SearchCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{
				{PublicationId: 1, DatePublishedText: "n.d.", AuthorNames: []string{"Somebody"}},
				{PublicationId: 2, DatePublishedText: "1999"},
			}, nil
		}

		testee := crossref.Enricher{
			Ingest: ingest,
			Client: crossref.New(server.URL, crossref.WithRateLimit(1000)),
		}
		report := try.To(testee.BySearch(ctx, "loader", 0)).OrFatal(t)

		if want := (crossref.Report{Skipped: 2}); report != want {
			t.Errorf("report: actual=%+v, expected=%+v", report, want)
		}
		if request := getLastRequest(); request != nil {
			t.Errorf("a lookup went out for a skipped candidate: %s", request.URL)
		}
	})

	t.Run("a failing search is recorded and the sweep goes on", func(t *testing.T) {
		ctx := context.Background()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status": "error"}`))
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		ingest := ingestmocks.NewIngestInterface()
		ingest.Impl.SearchCandidates = func(context.Context, int) ([]kdbing.Candidate, error) {
			return []kdbing.Candidate{{
				PublicationId:     9,
				Title:             "Thinking, fast and slow",
				DatePublishedText: "2011",
				AuthorNames:       []string{"Daniel Kahneman"},
			}}, nil
		}
		ingest.Impl.AddRaw = func(context.Context, int, domain.RawKey, any) (domain.Raw, error) {
			return domain.Raw{Id: 2}, nil
		}

		testee := crossref.Enricher{
			Ingest: ingest,
			Client: crossref.New(server.URL, crossref.WithRateLimit(1000)),
		}
		report := try.To(testee.BySearch(ctx, "loader", 0)).OrFatal(t)

		if want := (crossref.Report{Looked: 1, Failed: 1}); report != want {
			t.Errorf("report: actual=%+v, expected=%+v", report, want)
		}
		if len(ingest.Calls.AddRaw) != 1 {
			t.Fatalf("failure records: actual=%d, expected=%d", len(ingest.Calls.AddRaw), 1)
		}
		failed := ingest.Calls.AddRaw[0]
		if failed.PublicationId != 9 || failed.Key != domain.RawCrossrefSearchFailOther {
			t.Errorf("failure record: actual=%+v", failed)
		}
		if snap, ok := failed.Value.(crossref.Snapshot); !ok || snap.StatusCode != http.StatusInternalServerError {
			t.Errorf("failure snapshot: actual=%+v", failed.Value)
		}
	})
}

func TestMatchWork(t *testing.T) {
	works := []crossref.Work{
		{
			Title:  []string{"The evolutoin of cooperation"},
			Issued: crossref.WorkDate{DateParts: [][]int{{1984}}},
		},
		{
			Title:  []string{"The evolution of cooperation"},
			Issued: crossref.WorkDate{DateParts: [][]int{{1984}}},
		},
		{
			Title:  []string{"Micromotives and macrobehavior"},
			Issued: crossref.WorkDate{DateParts: [][]int{{1984}}},
		},
		{
			Title:  []string{"The evolution of cooperation"},
			Issued: crossref.WorkDate{DateParts: [][]int{{1990}}},
		},
	}

	theory := func(title string, year int, works []crossref.Work, then []int) func(*testing.T) {
		return func(t *testing.T) {
			actual := crossref.MatchWork(title, year, works)
			if !cmp.SliceEq(actual, then) {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, then)
			}
		}
	}

	t.Run("a title aligning exactly wins alone", theory(
		"The evolution of cooperation", 1984, works, []int{1},
	))
	t.Run("close titles are kept when none aligns exactly", theory(
		"The evolution of cooperation", 1984, works[:1], []int{0},
	))
	t.Run("titles too far off are dropped", theory(
		"The evolution of cooperation", 1984, works[2:3], []int{},
	))
	t.Run("without a title the year decides", theory(
		"", 1984, works, []int{0, 1, 2},
	))
	t.Run("no work from the right year matches", theory(
		"The evolution of cooperation", 1999, works, []int{},
	))
}

func TestPartialRatio(t *testing.T) {
	theory := func(a, b string, then int) func(*testing.T) {
		return func(t *testing.T) {
			actual := crossref.PartialRatio(a, b)
			if actual != then {
				t.Errorf("unmatch: (actual, expected) = (%d, %d)", actual, then)
			}
		}
	}

	t.Run("a substring aligns perfectly", theory(
		"agent", "multi agent systems", 100,
	))
	t.Run("case is ignored", theory(
		"AGENT", "multi agent systems", 100,
	))
	t.Run("argument order does not matter", theory(
		"multi agent systems", "agent", 100,
	))
	t.Run("the best window scores", theory(
		"abcf", "xxabcdxx", 75,
	))
	t.Run("an empty string against text scores zero", theory(
		"", "anything", 0,
	))
	t.Run("two empty strings align", theory(
		"", "", 100,
	))
}
