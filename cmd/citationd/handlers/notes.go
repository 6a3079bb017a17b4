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
	kerr "github.com/comses/citation/pkg/domain/errors"
	kdbpub "github.com/comses/citation/pkg/domain/publication/db"
)

// AddNoteHandler attaches a curator note to a publication.
func AddNoteHandler(dbPublication kdbpub.PublicationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		draft := apipubs.NoteDraft{}
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
		if draft.Text == "" {
			return apierr.BadRequest(`"text" is required`, nil)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		note, err := dbPublication.AddNote(ctx, cmd, id, draft.Text)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindpub.ComposeNote(note))
	}
}

// DeleteNoteHandler marks a note deleted. The note stays readable in
// the publication's history, with who deleted it.
func DeleteNoteHandler(dbPublication kdbpub.PublicationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("note id should be an integer", err)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbPublication.DeleteNote(ctx, cmd, id); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)

		return nil
	}
}

// FlagPublicationHandler raises the flagged mark on a publication and
// records the reason as a note.
func FlagPublicationHandler(dbPublication kdbpub.PublicationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		draft := apipubs.FlagDraft{}
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
		if draft.Message == "" {
			return apierr.BadRequest(`"message" is required`, nil)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		note, err := dbPublication.Flag(ctx, cmd, id, draft.Message)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindpub.ComposeNote(note))
	}
}

// UnflagPublicationHandler clears the flagged mark.
func UnflagPublicationHandler(dbPublication kdbpub.PublicationInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbPublication.Unflag(ctx, cmd, id); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)

		return nil
	}
}
