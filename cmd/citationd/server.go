package main

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/comses/citation/cmd/citationd/handlers"
	"github.com/comses/citation/pkg/domain/auth"
	"github.com/comses/citation/pkg/domain/citation"
	"github.com/comses/citation/pkg/utils/echoutil"
)

var API_ROOT = "/api"

func api(subpath string) string {
	if !strings.HasSuffix(subpath, "/") {
		subpath += "/"
	}
	return fmt.Sprintf("%s/%s", API_ROOT, subpath)
}

// BuildServer mounts the catalog API onto an echo server.
//
// Reads are open; writes need a bearer session. The one exception is
// documented at handlers.RegisterCuratorHandler.
func BuildServer(c citation.Citation, issuer auth.Issuer, loglevel string) *echo.Echo {
	e := echo.New()

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Pre(middleware.AddTrailingSlash())
	e.Use(echoutil.LogHandlerFunc)

	dbPublication := c.Publication().Database()
	dbAuthor := c.Author().Database()
	dbContainer := c.Container().Database()
	dbVocab := c.Vocab().Database()
	dbArchive := c.Archive().Database()
	dbIngest := c.Ingest().Database()
	dbMerge := c.Merge().Database()
	dbAudit := c.Audit().Database()
	dbCurator := c.Curator().Database()
	dbCache := c.Cache().Database()
	dbGraph := c.Graph().Database()

	signedIn := handlers.BearerAuth(issuer, dbCurator)
	maybeSignedIn := handlers.OptionalBearerAuth(issuer, dbCurator)

	e.POST(api("auth/token"), handlers.IssueTokenHandler(dbCurator, issuer))

	{
		e.GET(api("publications"), handlers.FindPublicationHandler(
			dbPublication, dbContainer, dbVocab, dbCache, dbAudit,
		))
		e.POST(api("publications"), handlers.AddPublicationHandler(
			dbIngest, dbPublication, dbVocab, dbAudit,
		), signedIn)

		id := "id"
		e.GET(api("publications/:id"), handlers.GetPublicationHandler(dbPublication, dbAudit, id))
		e.PUT(api("publications/:id"), handlers.UpdatePublicationHandler(
			dbPublication, dbVocab, dbAudit, id,
		), signedIn)
		e.GET(api("publications/:id/history"), handlers.PublicationHistoryHandler(dbAudit, id))

		e.POST(api("publications/:id/archive-urls"), handlers.AddArchiveUrlHandler(dbArchive, id), signedIn)
		e.PUT(api("archive-urls/:id"), handlers.UpdateArchiveUrlHandler(dbArchive, id), signedIn)

		e.POST(api("publications/:id/notes"), handlers.AddNoteHandler(dbPublication, id), signedIn)
		e.DELETE(api("notes/:id"), handlers.DeleteNoteHandler(dbPublication, id), signedIn)
		e.PUT(api("publications/:id/flag"), handlers.FlagPublicationHandler(dbPublication, id), signedIn)
		e.DELETE(api("publications/:id/flag"), handlers.UnflagPublicationHandler(dbPublication, id), signedIn)
	}

	{
		id := "id"
		e.GET(api("authors"), handlers.FindAuthorHandler(dbAuthor))
		e.GET(api("authors/:id"), handlers.GetAuthorHandler(dbAuthor, id))
		e.PUT(api("authors/:id"), handlers.UpdateAuthorHandler(dbAuthor, id), signedIn)

		e.GET(api("containers"), handlers.FindContainerHandler(dbContainer))
		e.GET(api("containers/:id"), handlers.GetContainerHandler(dbContainer, id))
		e.PUT(api("containers/:id"), handlers.UpdateContainerHandler(dbContainer, id), signedIn)
	}

	{
		id := "id"
		e.POST(api("merges"), handlers.SuggestMergeHandler(dbMerge), signedIn)
		e.GET(api("merges"), handlers.FindMergeHandler(dbMerge))
		e.GET(api("merges/:id"), handlers.GetMergeHandler(dbMerge, id))
		e.POST(api("merges/:id/apply"), handlers.ApplyMergeHandler(dbMerge, id), signedIn)
	}

	{
		e.GET(api("graph/network"), handlers.NetworkGraphHandler(dbCache, dbGraph))
		e.GET(api("graph/distribution"), handlers.DistributionGraphHandler(dbCache, dbGraph))
	}

	{
		username := "username"
		e.POST(api("curators"), handlers.RegisterCuratorHandler(dbCurator), maybeSignedIn)
		e.GET(api("curators"), handlers.FindCuratorHandler(dbCurator), signedIn)
		e.PUT(api("curators/:username/password"), handlers.SetCuratorPasswordHandler(dbCurator, username), signedIn)
		e.PUT(api("curators/:username/active"), handlers.SetCuratorActiveHandler(dbCurator, username), signedIn)
	}

	return e
}
