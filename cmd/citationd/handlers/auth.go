package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apiauth "github.com/comses/citation/pkg/api/types/auth"
	apierr "github.com/comses/citation/pkg/api/types/errors"
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/auth"
	kdbcur "github.com/comses/citation/pkg/domain/curator/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
)

// key the signed-in curator is stored under in the echo context.
const sessionKey = "citation/session"

// Session is the curator the request is signed in as, set by
// BearerAuth or OptionalBearerAuth. ok is false for anonymous requests.
func Session(c echo.Context) (domain.Curator, bool) {
	account, ok := c.Get(sessionKey).(domain.Curator)
	return account, ok
}

// IssueTokenHandler exchanges a username and password for a bearer token.
func IssueTokenHandler(dbCurator kdbcur.CuratorInterface, issuer auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.TokenRequest{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithError(err),
				apierr.WithAdvice(err.Error()),
			)
		}

		account, err := dbCurator.Verify(ctx, req.Username, req.Password)
		if errors.Is(err, kerr.ErrMissing) || errors.Is(err, kdbcur.ErrEmptyCredential) {
			return apierr.Unauthorized("username or password does not match", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		expiresAt := issuer.Expiry(time.Now())
		token, err := issuer.Issue(account)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiauth.TokenResponse{
			Token:     token,
			ExpiresAt: rfctime.New(expiresAt),
		})
	}
}

// BearerAuth requires a valid bearer token and stores the curator it
// speaks for in the context, for Session.
//
// A token whose account has gone missing or retired since it was
// issued does not pass.
func BearerAuth(issuer auth.Issuer, dbCurator kdbcur.CuratorInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := verifyBearer(c, issuer, dbCurator); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalBearerAuth is BearerAuth for routes that also serve anonymous
// requests. A request without an Authorization header passes through
// with no session; a request with one is held to the same checks as
// BearerAuth.
func OptionalBearerAuth(issuer auth.Issuer, dbCurator kdbcur.CuratorInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				if err := verifyBearer(c, issuer, dbCurator); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

func verifyBearer(c echo.Context, issuer auth.Issuer, dbCurator kdbcur.CuratorInterface) error {
	ctx := c.Request().Context()

	header := c.Request().Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return apierr.Unauthorized("send a bearer token in the Authorization header", nil)
	}

	claims, err := issuer.Verify(token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return apierr.Unauthorized("token does not verify", err)
	} else if err != nil {
		return apierr.InternalServerError(err)
	}

	// the account is re-read per request so that retiring a curator
	// takes effect before their tokens expire.
	account, err := dbCurator.Get(ctx, claims.Subject)
	if errors.Is(err, kerr.ErrMissing) {
		return apierr.Unauthorized("token does not verify", err)
	} else if err != nil {
		return apierr.InternalServerError(err)
	}
	if !account.IsActive {
		return apierr.Unauthorized("account is retired", nil)
	}

	c.Set(sessionKey, account)
	return nil
}
