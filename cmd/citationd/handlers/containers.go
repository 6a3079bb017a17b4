package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apicontainers "github.com/comses/citation/pkg/api/types/containers"
	apierr "github.com/comses/citation/pkg/api/types/errors"
	bindcontainers "github.com/comses/citation/pkg/api-types-binding/containers"
	"github.com/comses/citation/pkg/domain"
	kdbcon "github.com/comses/citation/pkg/domain/container/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
)

// FindContainerHandler lists containers matching the query parameters,
// with their recorded alias spellings.
func FindContainerHandler(dbContainer kdbcon.ContainerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		filter := domain.ContainerFilter{
			NameLike: c.QueryParam("name"),
			Issn:     c.QueryParam("issn"),
		}

		ids, err := dbContainer.Find(ctx, filter)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		containers, err := dbContainer.Get(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		aliases, err := dbContainer.Aliases(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apicontainers.Detail, 0, len(containers))
		for _, id := range ids {
			con, ok := containers[id]
			if !ok {
				continue
			}
			resp = append(resp, bindcontainers.ComposeDetail(con, aliases[id]))
		}

		c.JSON(http.StatusOK, resp)

		return nil
	}
}

// GetContainerHandler serves one container.
func GetContainerHandler(dbContainer kdbcon.ContainerInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("container id should be an integer", err)
		}

		detail, err := containerDetail(ctx, dbContainer, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// UpdateContainerHandler applies a hand-entered change to a container.
func UpdateContainerHandler(dbContainer kdbcon.ContainerInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("container id should be an integer", err)
		}

		change := apicontainers.Change{}
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

		delta := kdbcon.ContainerDelta{
			Type:  change.Type,
			Name:  change.Name,
			Issn:  change.Issn,
			Eissn: change.Eissn,
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbContainer.Update(ctx, cmd, id, delta); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		detail, err := containerDetail(ctx, dbContainer, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func containerDetail(ctx context.Context, dbContainer kdbcon.ContainerInterface, id int) (apicontainers.Detail, error) {
	containers, err := dbContainer.Get(ctx, []int{id})
	if err != nil {
		return apicontainers.Detail{}, apierr.InternalServerError(err)
	}
	con, ok := containers[id]
	if !ok {
		return apicontainers.Detail{}, apierr.NotFound()
	}
	aliases, err := dbContainer.Aliases(ctx, []int{id})
	if err != nil {
		return apicontainers.Detail{}, apierr.InternalServerError(err)
	}
	return bindcontainers.ComposeDetail(con, aliases[id]), nil
}
