package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/comses/citation/pkg/api/types/errors"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
	bindpub "github.com/comses/citation/pkg/api-types-binding/publications"
	"github.com/comses/citation/pkg/domain"
	kdbaud "github.com/comses/citation/pkg/domain/audit/db"
	kdbcache "github.com/comses/citation/pkg/domain/cache/db"
	"github.com/comses/citation/pkg/domain/cache/warm"
	kdbcon "github.com/comses/citation/pkg/domain/container/db"
	kerr "github.com/comses/citation/pkg/domain/errors"
	kdbing "github.com/comses/citation/pkg/domain/ingest/db"
	kdbpub "github.com/comses/citation/pkg/domain/publication/db"
	kdbvoc "github.com/comses/citation/pkg/domain/vocab/db"
	"github.com/comses/citation/pkg/utils/slices"
	kstrings "github.com/comses/citation/pkg/utils/strings"
)

// DefaultPageSize is how many publications a listing page carries
// unless "per_page" says otherwise.
const DefaultPageSize = 15

// FindPublicationHandler lists publications page by page, filtered by
// the query parameters.
//
// Name-based filters (container, tag, sponsor, platform) are resolved
// against the catalog first. A name the catalog does not know matches
// nothing, so such a filter yields an empty page.
func FindPublicationHandler(
	dbPublication kdbpub.PublicationInterface,
	dbContainer kdbcon.ContainerInterface,
	dbVocab kdbvoc.VocabInterface,
	dbCache kdbcache.CacheInterface,
	dbAudit kdbaud.AuditInterface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		filter, noMatch, err := func(c echo.Context) (domain.PublicationFilter, bool, error) {
			result := domain.PublicationFilter{
				AssignedCurator: c.QueryParam("assigned_curator"),
				TitleLike:       c.QueryParam("title"),
				Doi:             domain.SanitizeDoi(c.QueryParam("doi")),
			}

			for _, p := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
				s, err := domain.AsPublicationStatus(p)
				if err != nil {
					return domain.PublicationFilter{}, false, apierr.BadRequest(
						`"status" should be one of "UNREVIEWED", "AUTHOR_UPDATED", "INVALID" or "REVIEWED"`,
						err,
					)
				}
				result.Status = append(result.Status, s)
			}

			if param := c.QueryParam("flagged"); param != "" {
				flagged, err := strconv.ParseBool(param)
				if err != nil {
					return domain.PublicationFilter{}, false, apierr.BadRequest(
						`"flagged" should be "true" or "false"`, err,
					)
				}
				result.Flagged = &flagged
			}
			if param := c.QueryParam("is_primary"); param != "" {
				isPrimary, err := strconv.ParseBool(param)
				if err != nil {
					return domain.PublicationFilter{}, false, apierr.BadRequest(
						`"is_primary" should be "true" or "false"`, err,
					)
				}
				result.IsPrimary = &isPrimary
			}

			if name := c.QueryParam("container"); name != "" {
				ids, err := dbContainer.Find(ctx, domain.ContainerFilter{NameLike: name})
				if err != nil {
					return domain.PublicationFilter{}, false, apierr.InternalServerError(err)
				}
				if len(ids) == 0 {
					return domain.PublicationFilter{}, true, nil
				}
				result.ContainerId = ids
			}

			for _, vocab := range []struct {
				Kind  domain.VocabKind
				Param string
				Dest  *[]int
			}{
				{Kind: domain.VocabTag, Param: "tag", Dest: &result.TagId},
				{Kind: domain.VocabSponsor, Param: "sponsor", Dest: &result.SponsorId},
				{Kind: domain.VocabPlatform, Param: "platform", Dest: &result.PlatformId},
			} {
				names := kstrings.SplitIfNotEmpty(c.QueryParam(vocab.Param), ",")
				if len(names) == 0 {
					continue
				}
				ids, err := vocabIdsByName(ctx, dbVocab, vocab.Kind, names)
				if err != nil {
					return domain.PublicationFilter{}, false, apierr.InternalServerError(err)
				}
				if len(ids) == 0 {
					return domain.PublicationFilter{}, true, nil
				}
				*vocab.Dest = ids
			}

			return result, false, nil
		}(c)
		if err != nil {
			return err
		}

		page := 1
		if param := c.QueryParam("page"); param != "" {
			p, err := strconv.Atoi(param)
			if err != nil || p < 1 {
				return apierr.BadRequest(`"page" should be a positive integer`, err)
			}
			page = p
		}
		size := DefaultPageSize
		if param := c.QueryParam("per_page"); param != "" {
			s, err := strconv.Atoi(param)
			if err != nil || s < 1 {
				return apierr.BadRequest(`"per_page" should be a positive integer`, err)
			}
			size = s
		}

		found := []int{}
		if !noMatch {
			found, err = dbPublication.Find(ctx, filter)
			if err != nil {
				return apierr.InternalServerError(err)
			}
		}

		count := len(found)
		numPages := (count + size - 1) / size
		if numPages < 1 {
			numPages = 1
		}
		if numPages < page {
			return apierr.NotFound()
		}

		end := page * size
		if count < end {
			end = count
		}
		pageIds := found[(page-1)*size : end]

		publications, err := dbPublication.Get(ctx, pageIds)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		contributions, err := contributorStats(ctx, dbCache, dbAudit)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		results := make([]apipubs.Summary, 0, len(pageIds))
		for _, id := range pageIds {
			p, ok := publications[id]
			if !ok {
				continue
			}
			results = append(results, bindpub.ComposeSummary(p, contributions[id]))
		}

		startIndex := 0
		endIndex := 0
		if count != 0 {
			startIndex = (page-1)*size + 1
			endIndex = startIndex + len(pageIds) - 1
		}
		c.JSON(http.StatusOK, apipubs.Page{
			StartIndex:  startIndex,
			EndIndex:    endIndex,
			NumPages:    numPages,
			CurrentPage: page,
			Count:       count,
			Results:     results,
		})

		return nil
	}
}

// GetPublicationHandler serves one publication with its notes and
// activity logs.
func GetPublicationHandler(
	dbPublication kdbpub.PublicationInterface,
	dbAudit kdbaud.AuditInterface,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		detail, err := publicationDetail(ctx, dbPublication, dbAudit, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// AddPublicationHandler registers a hand-entered publication.
//
// The draft goes through the same matching as imported records: a
// draft whose DOI or title the catalog already knows folds into the
// existing publication instead of creating a twin.
func AddPublicationHandler(
	dbIngest kdbing.IngestInterface,
	dbPublication kdbpub.PublicationInterface,
	dbVocab kdbvoc.VocabInterface,
	dbAudit kdbaud.AuditInterface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		draft := apipubs.Draft{}
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
		if draft.Title == "" {
			return apierr.BadRequest(`"title" is required`, nil)
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		stub := domain.PublicationStub{
			Body: domain.PublicationBody{
				Title:             draft.Title,
				Abstract:          draft.Abstract,
				Url:               draft.Url,
				DatePublishedText: draft.DatePublishedText,
				ContactAuthorName: draft.ContactAuthorName,
				ContactEmail:      draft.ContactEmail,
				Status:            domain.Unreviewed,
				IsPrimary:         true,
				Pages:             draft.Pages,
				Volume:            draft.Volume,
				Issue:             draft.Issue,
				Doi:               domain.SanitizeDoi(draft.Doi),
				AddedBy:           account.Username,
			},
			Container: domain.ContainerStub{Name: draft.Container},
			Authors: slices.Map(draft.Authors, func(a apipubs.Author) domain.AuthorStub {
				return domain.AuthorStub{
					Type:       domain.Individual,
					GivenName:  a.GivenName,
					FamilyName: a.FamilyName,
					Orcid:      a.Orcid,
				}
			}),
			Tags: draft.Tags,
		}

		loaded, err := dbIngest.Register(ctx, cmd, stub)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		for _, vocab := range []struct {
			Kind  domain.VocabKind
			Names []string
		}{
			{Kind: domain.VocabSponsor, Names: draft.Sponsors},
			{Kind: domain.VocabPlatform, Names: draft.Platforms},
			{Kind: domain.VocabModelDocumentation, Names: draft.ModelDocumentation},
		} {
			if len(vocab.Names) == 0 {
				continue
			}
			ids, err := resolveVocabNames(ctx, dbVocab, cmd, vocab.Kind, vocab.Names)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			if err := dbPublication.UpdateVocab(ctx, cmd, loaded.PublicationId, vocab.Kind, ids); err != nil {
				return apierr.InternalServerError(err)
			}
		}

		detail, err := publicationDetail(ctx, dbPublication, dbAudit, loaded.PublicationId)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// UpdatePublicationHandler applies a hand-entered change to a
// publication. Vocabulary lists in the request replace the
// publication's whole list of that kind; absent lists stay untouched.
func UpdatePublicationHandler(
	dbPublication kdbpub.PublicationInterface,
	dbVocab kdbvoc.VocabInterface,
	dbAudit kdbaud.AuditInterface,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		change := apipubs.Change{}
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

		delta := kdbpub.PublicationDelta{
			Title:             change.Title,
			DatePublishedText: change.DatePublishedText,
			ContactAuthorName: change.ContactAuthorName,
			ContactEmail:      change.ContactEmail,
			Pages:             change.Pages,
			Volume:            change.Volume,
			AssignedCurator:   change.AssignedCurator,
		}
		if change.Status != nil {
			status, err := domain.AsPublicationStatus(*change.Status)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "UNREVIEWED", "AUTHOR_UPDATED", "INVALID" or "REVIEWED"`,
					err,
				)
			}
			delta.Status = &status
		}
		if change.Doi != nil {
			doi := domain.SanitizeDoi(*change.Doi)
			delta.Doi = &doi
		}

		account, _ := Session(c)
		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: account.Username}

		if err := dbPublication.Update(ctx, cmd, id, delta); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		for _, vocab := range []struct {
			Kind  domain.VocabKind
			Names *[]string
		}{
			{Kind: domain.VocabTag, Names: change.Tags},
			{Kind: domain.VocabSponsor, Names: change.Sponsors},
			{Kind: domain.VocabPlatform, Names: change.Platforms},
			{Kind: domain.VocabModelDocumentation, Names: change.ModelDocumentation},
		} {
			if vocab.Names == nil {
				continue
			}
			ids, err := resolveVocabNames(ctx, dbVocab, cmd, vocab.Kind, *vocab.Names)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			if err := dbPublication.UpdateVocab(ctx, cmd, id, vocab.Kind, ids); err != nil {
				return apierr.InternalServerError(err)
			}
		}

		detail, err := publicationDetail(ctx, dbPublication, dbAudit, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// PublicationHistoryHandler lists the audited activity of a
// publication, newest first. Unknown ids have no activity, so they
// list empty rather than erroring.
func PublicationHistoryHandler(dbAudit kdbaud.AuditInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("publication id should be an integer", err)
		}

		trails, err := dbAudit.ForPublication(ctx, id)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(trails, bindpub.ComposeActivity))
	}
}

// publicationDetail composes the detail view of one publication. The
// error, when not nil, is ready to return from a handler.
func publicationDetail(
	ctx context.Context,
	dbPublication kdbpub.PublicationInterface,
	dbAudit kdbaud.AuditInterface,
	id int,
) (apipubs.Detail, error) {
	publications, err := dbPublication.Get(ctx, []int{id})
	if err != nil {
		return apipubs.Detail{}, apierr.InternalServerError(err)
	}
	p, ok := publications[id]
	if !ok {
		return apipubs.Detail{}, apierr.NotFound()
	}

	notes, err := dbPublication.Notes(ctx, id)
	if err != nil {
		return apipubs.Detail{}, apierr.InternalServerError(err)
	}
	trails, err := dbAudit.ForPublication(ctx, id)
	if err != nil {
		return apipubs.Detail{}, apierr.InternalServerError(err)
	}
	return bindpub.ComposeDetail(p, notes, trails), nil
}

// contributorStats reads the cached per-publication contributor
// shares, computing and caching them when the entry has lapsed.
func contributorStats(
	ctx context.Context,
	dbCache kdbcache.CacheInterface,
	dbAudit kdbaud.AuditInterface,
) (map[int][]domain.Contribution, error) {
	contributions := map[int][]domain.Contribution{}
	err := dbCache.Get(ctx, warm.KeyContributorStats, &contributions)
	if err == nil {
		return contributions, nil
	}
	if !errors.Is(err, kerr.ErrMissing) {
		return nil, err
	}

	w := &warm.Warmer{Cache: dbCache, Audit: dbAudit}
	if _, err := w.Contributors(ctx); err != nil {
		return nil, err
	}
	if err := dbCache.Get(ctx, warm.KeyContributorStats, &contributions); err != nil {
		return nil, err
	}
	return contributions, nil
}

// vocabIdsByName maps exact vocabulary names onto record ids. Unknown
// names map to nothing.
func vocabIdsByName(
	ctx context.Context,
	dbVocab kdbvoc.VocabInterface,
	kind domain.VocabKind,
	names []string,
) ([]int, error) {
	records, err := dbVocab.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	byName := map[string]int{}
	for _, r := range records {
		byName[r.Name] = r.Id
	}

	ids := []int{}
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// resolveVocabNames maps names onto vocabulary records, creating the
// missing ones under cmd, and returns their ids in the names' order,
// deduplicated.
func resolveVocabNames(
	ctx context.Context,
	dbVocab kdbvoc.VocabInterface,
	cmd *domain.AuditCommand,
	kind domain.VocabKind,
	names []string,
) ([]int, error) {
	records, err := dbVocab.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	byName := map[string]int{}
	for _, r := range records {
		byName[r.Name] = r.Id
	}

	ordered := []string{}
	missing := []string{}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		ordered = append(ordered, name)
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) != 0 {
		created, err := dbVocab.Create(ctx, cmd, kind, missing)
		if err != nil {
			return nil, err
		}
		for _, r := range created {
			byName[r.Name] = r.Id
		}
	}

	ids := make([]int, 0, len(ordered))
	for _, name := range ordered {
		ids = append(ids, byName[name])
	}
	return ids, nil
}
