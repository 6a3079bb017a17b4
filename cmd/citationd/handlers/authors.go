package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apiauthors "github.com/comses/citation/pkg/api/types/authors"
	apierr "github.com/comses/citation/pkg/api/types/errors"
	bindauthors "github.com/comses/citation/pkg/api-types-binding/authors"
	"github.com/comses/citation/pkg/domain"
	kdbaut "github.com/comses/citation/pkg/domain/author/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
)

// FindAuthorHandler lists authors matching the query parameters, with
// their recorded alias spellings.
func FindAuthorHandler(dbAuthor kdbaut.AuthorInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		filter := domain.AuthorFilter{
			NameLike: c.QueryParam("name"),
			Orcid:    c.QueryParam("orcid"),
		}

		ids, err := dbAuthor.Find(ctx, filter)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		authors, err := dbAuthor.Get(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		aliases, err := dbAuthor.Aliases(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apiauthors.Detail, 0, len(authors))
		for _, id := range ids {
			a, ok := authors[id]
			if !ok {
				continue
			}
			resp = append(resp, bindauthors.ComposeDetail(a, aliases[id]))
		}

		c.JSON(http.StatusOK, resp)

		return nil
	}
}

// GetAuthorHandler serves one author.
func GetAuthorHandler(dbAuthor kdbaut.AuthorInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("author id should be an integer", err)
		}

		detail, err := authorDetail(ctx, dbAuthor, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// UpdateAuthorHandler applies a hand-entered change to an author.
func UpdateAuthorHandler(dbAuthor kdbaut.AuthorInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("author id should be an integer", err)
		}

		change := apiauthors.Change{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&change); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithError(err),
				apierr.WithAdvice(err.Error()),
			)
		}

		delta := kdbaut.AuthorDelta{
			GivenName:    change.GivenName,
			FamilyName:   change.FamilyName,
			Orcid:        change.Orcid,
			Researcherid: change.Researcherid,
			Email:        change.Email,
		}
		if change.Type != nil {
			atyp, err := domain.AsAuthorType(*change.Type)
			if err != nil {
				return apierr.BadRequest(
					`"type" should be "INDIVIDUAL" or "ORGANIZATION"`, err,
				)
			}
			delta.Type = &atyp
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbAuthor.Update(ctx, cmd, id, delta); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		detail, err := authorDetail(ctx, dbAuthor, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func authorDetail(ctx context.Context, dbAuthor kdbaut.AuthorInterface, id int) (apiauthors.Detail, error) {
	authors, err := dbAuthor.Get(ctx, []int{id})
	if err != nil {
		return apiauthors.Detail{}, apierr.InternalServerError(err)
	}
	a, ok := authors[id]
	if !ok {
		return apiauthors.Detail{}, apierr.NotFound()
	}
	aliases, err := dbAuthor.Aliases(ctx, []int{id})
	if err != nil {
		return apiauthors.Detail{}, apierr.InternalServerError(err)
	}
	return bindauthors.ComposeDetail(a, aliases[id]), nil
}
