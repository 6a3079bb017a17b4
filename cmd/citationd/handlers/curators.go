package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apicur "github.com/comses/citation/pkg/api/types/curators"
	apierr "github.com/comses/citation/pkg/api/types/errors"
	bindcur "github.com/comses/citation/pkg/api-types-binding/curators"
	kdbcur "github.com/comses/citation/pkg/domain/curator/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
	kdberr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	"github.com/comses/citation/pkg/utils/slices"
)

// RegisterCuratorHandler creates a curator account.
//
// Only superusers may register accounts, with one exception: while the
// curator table is empty the first registration is accepted without a
// session, so a fresh deployment can bootstrap its admin without a
// shell in the database container. The window closes with the first
// account; two racing first registrations are settled by the unique
// username constraint.
func RegisterCuratorHandler(dbCurator kdbcur.CuratorInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		draft := apicur.Draft{}
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

		if account, ok := Session(c); !ok || !account.IsSuperuser {
			existing, err := dbCurator.List(ctx)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			if len(existing) != 0 {
				return apierr.NewErrorMessage(
					http.StatusForbidden,
					"registering curators needs a superuser session",
				)
			}
			// first boot: the very first account is the superuser.
			draft.IsSuperuser = true
		}

		stored, err := dbCurator.Register(ctx, kdbcur.NewCurator{
			Username:    draft.Username,
			Password:    draft.Password,
			Email:       draft.Email,
			FirstName:   draft.FirstName,
			LastName:    draft.LastName,
			IsSuperuser: draft.IsSuperuser,
		})
		if errors.Is(err, kdbcur.ErrEmptyCredential) {
			return apierr.BadRequest("username and password are required", err)
		} else if kdberr.IsUniqueViolation(err, "curator_username_key") {
			return apierr.Conflict(
				"username is taken",
				apierr.WithError(err),
			)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindcur.ComposeDetail(stored))
	}
}

// FindCuratorHandler lists curator accounts, in the order they joined.
func FindCuratorHandler(dbCurator kdbcur.CuratorInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		accounts, err := dbCurator.List(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(accounts, bindcur.ComposeDetail))
	}
}

// SetCuratorPasswordHandler resets an account's password. Curators may
// reset their own; superusers may reset anyone's.
func SetCuratorPasswordHandler(dbCurator kdbcur.CuratorInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		username := c.Param(paramKey)

		account, _ := Session(c)
		if !account.IsSuperuser && account.Username != username {
			return apierr.NewErrorMessage(
				http.StatusForbidden,
				"resetting another curator's password needs a superuser session",
			)
		}

		change := apicur.PasswordChange{}
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

		err := dbCurator.SetPassword(ctx, username, change.Password)
		if errors.Is(err, kdbcur.ErrEmptyCredential) {
			return apierr.BadRequest("password should not be empty", err)
		} else if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// SetCuratorActiveHandler activates or retires an account. Superusers
// only; retiring cuts the account's live tokens off at the next
// request.
func SetCuratorActiveHandler(dbCurator kdbcur.CuratorInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		username := c.Param(paramKey)

		if account, _ := Session(c); !account.IsSuperuser {
			return apierr.NewErrorMessage(
				http.StatusForbidden,
				"retiring or reviving curators needs a superuser session",
			)
		}

		change := apicur.ActiveChange{}
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

		err := dbCurator.SetActive(ctx, username, change.IsActive)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		account, err := dbCurator.Get(ctx, username)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bindcur.ComposeDetail(account))
	}
}
