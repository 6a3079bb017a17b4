package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/comses/citation/pkg/api/types/errors"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
	bindpub "github.com/comses/citation/pkg/api-types-binding/publications"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/archive/check"
	kdbarc "github.com/comses/citation/pkg/domain/archive/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
)

// AddArchiveUrlHandler records a code archive URL on a publication.
//
// When the request pins a category the URL checker will not move it;
// otherwise the URL is categorized by the catalog's URL patterns and
// stays open to re-categorization.
func AddArchiveUrlHandler(dbArchive kdbarc.ArchiveInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		draft := apipubs.UrlDraft{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&draft); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithError(err),
				apierr.WithAdvice(err.Error()),
			)
		}
		if draft.Url == "" {
			return apierr.BadRequest(`"url" is required`, nil)
		}

		spec := kdbarc.NewUrl{Url: draft.Url}
		if draft.Category != 0 {
			spec.CategoryId = draft.Category
			spec.SystemOverridableCategory = false
		} else {
			category, err := check.Categorize(ctx, dbArchive, draft.Url)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			spec.CategoryId = category.Id
			spec.SystemOverridableCategory = true
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		url, err := dbArchive.AddUrl(ctx, cmd, id, spec)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindpub.ComposeArchiveUrl(url))
	}
}

// UpdateArchiveUrlHandler applies a hand-entered change to an archive
// URL.
//
// Setting a category pins it against the URL checker. Changing the URL
// without a category re-categorizes it by the URL patterns, leaving it
// open to the checker as a fresh URL would be.
func UpdateArchiveUrlHandler(dbArchive kdbarc.ArchiveInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("url id should be an integer", err)
		}

		change := apipubs.UrlChange{}
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

		delta := kdbarc.UrlDelta{Url: change.Url}
		if change.Status != nil {
			status, err := domain.AsArchiveUrlStatus(*change.Status)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "available", "restricted" or "unavailable"`,
					err,
				)
			}
			delta.Status = &status
		}
		pinned := false
		if change.Category != nil {
			delta.CategoryId = change.Category
			pinned = true
			overridable := false
			delta.SystemOverridableCategory = &overridable
		}
		if change.Url != nil && !pinned {
			category, err := check.Categorize(ctx, dbArchive, *change.Url)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			delta.CategoryId = &category.Id
			overridable := true
			delta.SystemOverridableCategory = &overridable
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbArchive.UpdateUrl(ctx, cmd, id, delta); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)

		return nil
	}
}
