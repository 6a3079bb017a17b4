package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apiauth "github.com/comses/citation/pkg/api/types/auth"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
)

func (c *client) IssueToken(ctx context.Context, username string, password string) (apiauth.TokenResponse, error) {
	body, err := json.Marshal(apiauth.TokenRequest{
		Username: username, Password: password,
	})
	if err != nil {
		return apiauth.TokenResponse{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("auth/token"), bytes.NewReader(body),
	)
	if err != nil {
		return apiauth.TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apiauth.TokenResponse{}, err
	}
	defer resp.Body.Close()

	token := apiauth.TokenResponse{}
	if err := unmarshalJsonResponse(
		resp, &token,
		MessageFor{
			Status4xx: "sign in is rejected",
			Status5xx: "something wrong in the catalog server",
		},
	); err != nil {
		return apiauth.TokenResponse{}, err
	}
	return token, nil
}

func (q PublicationQuery) values() url.Values {
	v := url.Values{}
	if 0 < len(q.Status) {
		v.Set("status", strings.Join(q.Status, ","))
	}
	if q.Flagged != nil {
		v.Set("flagged", strconv.FormatBool(*q.Flagged))
	}
	if q.IsPrimary != nil {
		v.Set("is_primary", strconv.FormatBool(*q.IsPrimary))
	}
	if q.AssignedCurator != "" {
		v.Set("assigned_curator", q.AssignedCurator)
	}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	if q.Doi != "" {
		v.Set("doi", q.Doi)
	}
	if q.Container != "" {
		v.Set("container", q.Container)
	}
	if 0 < len(q.Tags) {
		v.Set("tag", strings.Join(q.Tags, ","))
	}
	if 0 < len(q.Sponsors) {
		v.Set("sponsor", strings.Join(q.Sponsors, ","))
	}
	if 0 < len(q.Platforms) {
		v.Set("platform", strings.Join(q.Platforms, ","))
	}
	if 0 < q.Page {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if 0 < q.PerPage {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

func (c *client) FindPublications(ctx context.Context, query PublicationQuery) (apipubs.Page, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("publications"), nil,
	)
	if err != nil {
		return apipubs.Page{}, err
	}
	req.URL.RawQuery = query.values().Encode()

	resp, err := c.do(req)
	if err != nil {
		return apipubs.Page{}, err
	}
	defer resp.Body.Close()

	page := apipubs.Page{}
	if err := unmarshalJsonResponse(
		resp, &page,
		MessageFor{
			Status4xx: "publication query is rejected",
			Status5xx: "something wrong in the catalog server",
		},
	); err != nil {
		return apipubs.Page{}, err
	}
	return page, nil
}

func (c *client) GetPublication(ctx context.Context, id int) (apipubs.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("publications", strconv.Itoa(id)), nil,
	)
	if err != nil {
		return apipubs.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apipubs.Detail{}, err
	}
	defer resp.Body.Close()

	detail := apipubs.Detail{}
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "publication is not found",
			Status5xx: "something wrong in the catalog server",
		},
	); err != nil {
		return apipubs.Detail{}, err
	}
	return detail, nil
}
