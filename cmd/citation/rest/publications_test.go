package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	kprof "github.com/comses/citation/cmd/citation/config/profiles"
	krst "github.com/comses/citation/cmd/citation/rest"

	apiauth "github.com/comses/citation/pkg/api/types/auth"
	apierr "github.com/comses/citation/pkg/api/types/errors"
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
	"github.com/comses/citation/pkg/utils/pointer"
	"github.com/comses/citation/pkg/utils/try"
)

func TestFindPublications(t *testing.T) {
	t.Run("when server returns a page, it returns that as is", func(t *testing.T) {
		handlerFactory := func(t *testing.T, resp apipubs.Page) (http.Handler, func() *http.Request) {
			var request *http.Request
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r

				w.Header().Add("Content-Type", "application/json")

				body, err := json.Marshal(resp)
				if err != nil {
					t.Fatal(err.Error())
				}

				w.WriteHeader(http.StatusOK)
				w.Write(body)
			})
			return h, func() *http.Request { return request }
		}

		expectedResponse := apipubs.Page{
			StartIndex:  26,
			EndIndex:    27,
			NumPages:    2,
			CurrentPage: 2,
			Count:       27,
			Results: []apipubs.Summary{
				{
					Id:     42,
					Title:  "Agent-based model of land use",
					Status: "UNREVIEWED",
					DateModified: rfctime.RFC3339(time.Date(
						2024, 3, 1, 12, 0, 0, 0, time.UTC,
					)),
				},
				{
					Id:      43,
					Title:   "Validation of an irrigation model",
					Status:  "UNREVIEWED",
					Flagged: true,
					DateModified: rfctime.RFC3339(time.Date(
						2024, 3, 2, 9, 30, 0, 0, time.UTC,
					)),
				},
			},
		}

		handler, getLastRequest := handlerFactory(t, expectedResponse)
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.CitationProfile{
			ApiRoot: server.URL,
			Token:   "test-session-token",
		}

		testee := try.To(krst.NewClient(&profile)).OrFatal(t)
		query := krst.PublicationQuery{
			Status:          []string{"UNREVIEWED", "AUTHOR_UPDATED"},
			Flagged:         pointer.Ref(true),
			IsPrimary:       pointer.Ref(false),
			AssignedCurator: "alice",
			Title:           "land use",
			Doi:             "10.1000/xyz",
			Container:       "Ecological Modelling",
			Tags:            []string{"irrigation", "land use"},
			Sponsors:        []string{"NSF"},
			Platforms:       []string{"NetLogo"},
			Page:            2,
			PerPage:         25,
		}
		actualResponse := try.To(testee.FindPublications(context.Background(), query)).OrFatal(t)
		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}

		request := getLastRequest()
		if request.URL.Path != "/publications" {
			t.Errorf("request path is not equal (actual,expected): %s,/publications", request.URL.Path)
		}
		if auth := request.Header.Get("Authorization"); auth != "Bearer test-session-token" {
			t.Errorf("Authorization header: %s", auth)
		}

		actualQuery := request.URL.Query()
		for name, value := range map[string]string{
			"status":           "UNREVIEWED,AUTHOR_UPDATED",
			"flagged":          "true",
			"is_primary":       "false",
			"assigned_curator": "alice",
			"title":            "land use",
			"doi":              "10.1000/xyz",
			"container":        "Ecological Modelling",
			"tag":              "irrigation,land use",
			"sponsor":          "NSF",
			"platform":         "NetLogo",
			"page":             "2",
			"per_page":         "25",
		} {
			if actual := actualQuery.Get(name); actual != value {
				t.Errorf("query %s is not equal (actual,expected): %s,%s", name, actual, value)
			}
		}
	})

	t.Run("when the query is empty, it sends no parameters", func(t *testing.T) {
		var request *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"start_index":0,"end_index":0,"num_pages":0,"current_page":1,"count":0,"results":[]}`))
		}))
		defer server.Close()

		profile := kprof.CitationProfile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.FindPublications(context.Background(), krst.PublicationQuery{}); err != nil {
			t.Fatal(err)
		}

		if len(request.URL.Query()) != 0 {
			t.Errorf("query is not empty: %s", request.URL.RawQuery)
		}
		if auth := request.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization header is set without a token: %s", auth)
		}
	})

	t.Run("a server responding with error is given", func(t *testing.T) {
		handlerFactory := func(t *testing.T, status int, message string) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Helper()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)

				buf, err := json.Marshal(apierr.ErrorMessage{Reason: message})
				if err != nil {
					t.Fatal(err)
				}
				w.Write(buf)
			})
		}
		for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
			t.Run(fmt.Sprintf("when server responding with %d, it returns error", status), func(t *testing.T) {
				handler := handlerFactory(t, status, "something wrong")
				server := httptest.NewServer(handler)
				defer server.Close()

				profile := kprof.CitationProfile{ApiRoot: server.URL}
				testee := try.To(krst.NewClient(&profile)).OrFatal(t)

				if _, err := testee.FindPublications(
					context.Background(), krst.PublicationQuery{},
				); err == nil {
					t.Errorf("no error is returned for status %d", status)
				}
			})
		}
	})
}

func TestGetPublication(t *testing.T) {
	t.Run("when server returns a publication, it returns that as is", func(t *testing.T) {
		expectedResponse := apipubs.Detail{
			Id:                42,
			Title:             "Agent-based model of land use",
			Doi:               "10.1000/xyz",
			Status:            "REVIEWED",
			IsPrimary:         true,
			DatePublishedText: "March 2020",
			YearPublished:     pointer.Ref(2020),
			Container:         apipubs.Container{Id: 7, Name: "Ecological Modelling"},
			Creators: []apipubs.Creator{
				{Id: 1, GivenName: "Volker", FamilyName: "Grimm", Type: "INDIVIDUAL"},
			},
			Platforms: []apipubs.Record{{Id: 3, Name: "NetLogo"}},
		}

		var request *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.Header().Add("Content-Type", "application/json")

			body, err := json.Marshal(expectedResponse)
			if err != nil {
				t.Fatal(err.Error())
			}
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		}))
		defer server.Close()

		profile := kprof.CitationProfile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		actualResponse := try.To(testee.GetPublication(context.Background(), 42)).OrFatal(t)
		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}
		if request.URL.Path != "/publications/42" {
			t.Errorf("request path is not equal (actual,expected): %s,/publications/42", request.URL.Path)
		}
	})

	t.Run("when server responds with 404, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"reason":"publication not found"}`))
		}))
		defer server.Close()

		profile := kprof.CitationProfile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.GetPublication(context.Background(), 404); err == nil {
			t.Errorf("no error is returned")
		}
	})
}

func TestIssueToken(t *testing.T) {
	t.Run("when server accepts the credential, it returns the token", func(t *testing.T) {
		expectedResponse := apiauth.TokenResponse{
			Token: "signed.jwt.token",
			ExpiresAt: rfctime.RFC3339(time.Date(
				2024, 3, 1, 18, 0, 0, 0, time.UTC,
			)),
		}

		var request *http.Request
		var requestBody apiauth.TokenRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
				t.Fatal(err.Error())
			}
			w.Header().Add("Content-Type", "application/json")

			body, err := json.Marshal(expectedResponse)
			if err != nil {
				t.Fatal(err.Error())
			}
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		}))
		defer server.Close()

		profile := kprof.CitationProfile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		actualResponse := try.To(testee.IssueToken(
			context.Background(), "alice", "open sesame",
		)).OrFatal(t)
		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}

		if request.Method != http.MethodPost || request.URL.Path != "/auth/token" {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		if ct := request.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: %s", ct)
		}
		expectedBody := apiauth.TokenRequest{Username: "alice", Password: "open sesame"}
		if !requestBody.Equal(expectedBody) {
			t.Errorf("request body is not equal (actual,expected): %v,%v", requestBody, expectedBody)
		}
	})

	t.Run("when server rejects the credential, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"reason":"bad credential"}`))
		}))
		defer server.Close()

		profile := kprof.CitationProfile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.IssueToken(
			context.Background(), "alice", "wrong password",
		); err == nil {
			t.Errorf("no error is returned")
		}
	})
}
