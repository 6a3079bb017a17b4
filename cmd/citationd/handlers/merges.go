package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/comses/citation/pkg/api/types/errors"
	apimerges "github.com/comses/citation/pkg/api/types/merges"
	bindmerges "github.com/comses/citation/pkg/api-types-binding/merges"
	"github.com/comses/citation/pkg/domain"
	kerr "github.com/comses/citation/pkg/domain/errors"
	kdbmer "github.com/comses/citation/pkg/domain/merge/db"
	"github.com/comses/citation/pkg/utils/slices"
	kstrings "github.com/comses/citation/pkg/utils/strings"
)

// SuggestMergeHandler records a proposed merge of duplicate records
// for later review. Nothing in the catalog changes until the
// suggestion is applied.
func SuggestMergeHandler(dbMerge kdbmer.MergeInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		suggestion := apimerges.Suggestion{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&suggestion); err != nil {
			return apierr.NewErrorMessage(
				http.StatusBadRequest,
				"format error",
				apierr.WithError(err),
				apierr.WithAdvice(err.Error()),
			)
		}

		kind, err := domain.AsMergeKind(suggestion.ModelName)
		if err != nil {
			return apierr.BadRequest(
				`"model_name" should be one of "publication", "author", "container", "platform" or "sponsor"`,
				err,
			)
		}

		account, _ := Session(c)

		stored, err := dbMerge.Suggest(ctx, domain.SuggestedMerge{
			Kind: kind,
			Duplicates: slices.Map(suggestion.Instances, func(i apimerges.Instance) int {
				return i.Id
			}),
			NewContent: suggestion.NewContent,
			Creator:    account.Username,
			Comment:    suggestion.Comment,
		})
		if errors.Is(err, kdbmer.ErrNotMergeable) {
			return apierr.BadRequest("list at least two duplicate records", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindmerges.ComposeDetail(stored))
	}
}

// FindMergeHandler lists suggested merges, oldest first, filtered by
// the query parameters.
func FindMergeHandler(dbMerge kdbmer.MergeInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		filter := kdbmer.SuggestionFilter{}
		for _, p := range kstrings.SplitIfNotEmpty(c.QueryParam("model"), ",") {
			kind, err := domain.AsMergeKind(p)
			if err != nil {
				return apierr.BadRequest(
					`"model" should be one of "publication", "author", "container", "platform" or "sponsor"`,
					err,
				)
			}
			filter.Kind = append(filter.Kind, kind)
		}
		if param := c.QueryParam("applied"); param != "" {
			applied, err := strconv.ParseBool(param)
			if err != nil {
				return apierr.BadRequest(`"applied" should be "true" or "false"`, err)
			}
			filter.Applied = &applied
		}

		ids, err := dbMerge.Find(ctx, filter)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		suggestions, err := dbMerge.Get(ctx, ids)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apimerges.Detail, 0, len(suggestions))
		for _, id := range ids {
			sm, ok := suggestions[id]
			if !ok {
				continue
			}
			resp = append(resp, bindmerges.ComposeDetail(sm))
		}

		c.JSON(http.StatusOK, resp)

		return nil
	}
}

// GetMergeHandler serves one suggested merge.
func GetMergeHandler(dbMerge kdbmer.MergeInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("merge id should be an integer", err)
		}

		suggestions, err := dbMerge.Get(ctx, []int{id})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		sm, ok := suggestions[id]
		if !ok {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, bindmerges.ComposeDetail(sm))
	}
}

// ApplyMergeHandler carries out a suggested merge. The duplicates fold
// into the record with the smallest id and the suggestion is marked
// applied, all in one transaction.
func ApplyMergeHandler(dbMerge kdbmer.MergeInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("merge id should be an integer", err)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionMerge, Creator: account.Username}

		applied, err := dbMerge.Apply(ctx, cmd, id)
		if errors.Is(err, kdbmer.ErrApplied) {
			return apierr.Conflict("suggested merge is already applied", apierr.WithError(err))
		} else if errors.Is(err, kdbmer.ErrNotMergeable) {
			return apierr.Conflict(
				"records cannot be merged",
				apierr.WithError(err),
				apierr.WithAdvice(err.Error()),
			)
		} else if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindmerges.ComposeDetail(applied))
	}
}
