package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/comses/citation/pkg/api/types/errors"
	"github.com/comses/citation/pkg/domain"
	kdbcache "github.com/comses/citation/pkg/domain/cache/db"
	"github.com/comses/citation/pkg/domain/cache/warm"
	kerr "github.com/comses/citation/pkg/domain/errors"
	kdbgra "github.com/comses/citation/pkg/domain/graph/db"
	kstrings "github.com/comses/citation/pkg/utils/strings"
)

// NetworkGraphHandler serves the citation network dataset.
//
// Without an explicit filter it answers from the cache the warmers
// keep (the top-sponsor or top-tag network); a request naming its own
// filter is assembled from the live tables instead, since filters are
// free text and not worth caching per combination.
func NetworkGraphHandler(
	dbCache kdbcache.CacheInterface,
	dbGraph kdbgra.GraphInterface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		groupBy := domain.GroupBySponsors
		if param := c.QueryParam("groupby"); param != "" {
			g, err := domain.AsGraphGroupBy(param)
			if err != nil {
				return apierr.BadRequest(
					`"groupby" should be "sponsors" or "tags"`, err,
				)
			}
			groupBy = g
		}

		filter := kstrings.SplitIfNotEmpty(c.QueryParam("filter"), ",")
		if len(filter) != 0 {
			network, err := dbGraph.Network(ctx, kdbgra.NetworkFilter{
				GroupBy: groupBy, Filter: filter,
			})
			if err != nil {
				return apierr.InternalServerError(err)
			}
			return c.JSON(http.StatusOK, network)
		}

		network := domain.NetworkData{}
		err := dbCache.Get(ctx, warm.NetworkKey(groupBy), &network)
		if errors.Is(err, kerr.ErrMissing) {
			// cold cache. Serve the dataset without adopting the
			// warmers' job of storing it.
			network, err = warm.TopNetwork(ctx, dbGraph, groupBy)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, network)
	}
}

// DistributionGraphHandler serves the per-year code availability
// counts, from cache when the warmers have been by.
func DistributionGraphHandler(
	dbCache kdbcache.CacheInterface,
	dbGraph kdbgra.GraphInterface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		rows := []domain.DistributionRow{}
		err := dbCache.Get(ctx, warm.KeyDistributionData, &rows)
		if errors.Is(err, kerr.ErrMissing) {
			rows, err = dbGraph.Distribution(ctx)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, rows)
	}
}
