package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/archive/db"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
)

type pgArchive struct { // implements kdb.ArchiveInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.ArchiveInterface {
	return &pgArchive{pool: pool}
}

func (a *pgArchive) Categories(ctx context.Context) ([]domain.CodeArchiveUrlCategory, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id", "category", "subcategory"
		from "code_archive_url_category"
		order by "category", "subcategory"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.CodeArchiveUrlCategory{}
	for rows.Next() {
		c := domain.CodeArchiveUrlCategory{}
		if err := rows.Scan(&c.Id, &c.Category, &c.Subcategory); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (a *pgArchive) Patterns(ctx context.Context) ([]domain.CodeArchiveUrlPattern, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"p"."id", "p"."regex_host_matcher", "p"."regex_path_matcher",
			"c"."id", "c"."category", "c"."subcategory"
		from "code_archive_url_pattern" as "p"
		inner join "code_archive_url_category" as "c" on "c"."id" = "p"."category_id"
		order by "p"."id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patterns := []domain.CodeArchiveUrlPattern{}
	for rows.Next() {
		p := domain.CodeArchiveUrlPattern{}
		if err := rows.Scan(
			&p.Id, &p.RegexHostMatcher, &p.RegexPathMatcher,
			&p.Category.Id, &p.Category.Category, &p.Category.Subcategory,
		); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

func (a *pgArchive) Urls(ctx context.Context, publicationIds []int) (map[int][]domain.CodeArchiveUrl, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetCodeArchiveUrls(ctx, conn, publicationIds)
}

func (a *pgArchive) AllUrls(ctx context.Context) ([]domain.CodeArchiveUrl, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"u"."id", "u"."publication_id", "u"."url",
			"c"."id", "c"."category", "c"."subcategory",
			"u"."status", "u"."is_active", "u"."system_overridable_category",
			"u"."notes", "u"."creator", "u"."date_created", "u"."last_modified"
		from "code_archive_url" as "u"
		inner join "code_archive_url_category" as "c" on "c"."id" = "u"."category_id"
		order by "u"."id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := []domain.CodeArchiveUrl{}
	for rows.Next() {
		u := domain.CodeArchiveUrl{}
		var status string
		if err := rows.Scan(
			&u.Id, &u.PublicationId, &u.Url,
			&u.Category.Id, &u.Category.Category, &u.Category.Subcategory,
			&status, &u.IsActive, &u.SystemOverridableCategory,
			&u.Notes, &u.Creator, &u.DateCreated, &u.LastModified,
		); err != nil {
			return nil, err
		}
		if u.Status, err = domain.AsArchiveUrlStatus(status); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}

func (a *pgArchive) AddUrl(ctx context.Context, cmd *domain.AuditCommand, publicationId int, url kdb.NewUrl) (domain.CodeArchiveUrl, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	defer tx.Rollback(ctx)

	u, err := a.addUrl(ctx, tx, cmd, publicationId, url)
	if err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	return u, nil
}

func (a *pgArchive) addUrl(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, publicationId int, spec kdb.NewUrl) (domain.CodeArchiveUrl, error) {
	label, err := kpgintr.PublicationLabel(ctx, tx, publicationId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CodeArchiveUrl{}, kpgerr.Missing{
				Table: "publication", Identity: fmt.Sprintf("id=%d", publicationId),
			}
		}
		return domain.CodeArchiveUrl{}, err
	}

	categories, err := kpgintr.GetCategories(ctx, tx, []int{spec.CategoryId})
	if err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	category, ok := categories[spec.CategoryId]
	if !ok {
		return domain.CodeArchiveUrl{}, kpgerr.Missing{
			Table: "code_archive_url_category", Identity: fmt.Sprintf("id=%d", spec.CategoryId),
		}
	}

	u := domain.CodeArchiveUrl{
		PublicationId:             publicationId,
		Url:                       spec.Url,
		Category:                  category,
		SystemOverridableCategory: spec.SystemOverridableCategory,
		Notes:                     spec.Notes,
		Creator:                   cmd.Creator,
	}
	var status string
	if err := tx.QueryRow(
		ctx,
		`
		insert into "code_archive_url"
			("publication_id", "category_id", "url",
				"system_overridable_category", "notes", "creator")
		values ($1, $2, $3, $4, $5, $6)
		returning "id", "status", "is_active", "date_created", "last_modified"
		`,
		publicationId, spec.CategoryId, spec.Url,
		spec.SystemOverridableCategory, spec.Notes, cmd.Creator,
	).Scan(&u.Id, &status, &u.IsActive, &u.DateCreated, &u.LastModified); err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	if u.Status, err = domain.AsArchiveUrlStatus(status); err != nil {
		return domain.CodeArchiveUrl{}, err
	}

	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "code_archive_url", RowId: u.Id, PublicationId: publicationId,
		Payload: kpgintr.NewRowPayload(
			"code_archive_url", u.Url,
			map[string]any{
				"url": u.Url, "category_id": spec.CategoryId,
				"status": status, "is_active": u.IsActive,
				"system_overridable_category": u.SystemOverridableCategory,
				"notes": u.Notes, "creator": u.Creator, "publication_id": publicationId,
			},
			map[string]any{"publication": label},
		),
	}); err != nil {
		return domain.CodeArchiveUrl{}, err
	}
	return u, nil
}

// scalar columns of a code archive url row, read and written as one
// unit so updates can be diffed for the audit payload.
type urlRecord struct {
	Url                       string
	CategoryId                int
	Status                    string
	IsActive                  bool
	SystemOverridableCategory bool
	Notes                     string
}

func (r urlRecord) patched(delta kdb.UrlDelta) urlRecord {
	if delta.Url != nil {
		r.Url = *delta.Url
	}
	if delta.CategoryId != nil {
		r.CategoryId = *delta.CategoryId
	}
	if delta.SystemOverridableCategory != nil {
		r.SystemOverridableCategory = *delta.SystemOverridableCategory
	}
	if delta.Status != nil {
		r.Status = delta.Status.String()
	}
	if delta.IsActive != nil {
		r.IsActive = *delta.IsActive
	}
	if delta.Notes != nil {
		r.Notes = *delta.Notes
	}
	return r
}

func (r urlRecord) asMap() map[string]any {
	return map[string]any{
		"url":                         r.Url,
		"category_id":                 r.CategoryId,
		"status":                      r.Status,
		"is_active":                   r.IsActive,
		"system_overridable_category": r.SystemOverridableCategory,
		"notes":                       r.Notes,
	}
}

func (a *pgArchive) UpdateUrl(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdb.UrlDelta) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := a.updateUrl(ctx, tx, cmd, id, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgArchive) updateUrl(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, delta kdb.UrlDelta) error {
	old := urlRecord{}
	var publicationId int
	if err := tx.QueryRow(
		ctx,
		`
		select
			"publication_id", "url", "category_id", "status",
			"is_active", "system_overridable_category", "notes"
		from "code_archive_url" where "id" = $1 for update
		`,
		id,
	).Scan(
		&publicationId, &old.Url, &old.CategoryId, &old.Status,
		&old.IsActive, &old.SystemOverridableCategory, &old.Notes,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "code_archive_url", Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	new := old.patched(delta)
	if new.CategoryId != old.CategoryId {
		categories, err := kpgintr.GetCategories(ctx, tx, []int{new.CategoryId})
		if err != nil {
			return err
		}
		if _, ok := categories[new.CategoryId]; !ok {
			return kpgerr.Missing{
				Table: "code_archive_url_category", Identity: fmt.Sprintf("id=%d", new.CategoryId),
			}
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "code_archive_url" set
			"url" = $2, "category_id" = $3, "status" = $4,
			"is_active" = $5, "system_overridable_category" = $6,
			"notes" = $7, "last_modified" = now()
		where "id" = $1
		`,
		id, new.Url, new.CategoryId, new.Status,
		new.IsActive, new.SystemOverridableCategory, new.Notes,
	); err != nil {
		return err
	}

	label, err := kpgintr.PublicationLabel(ctx, tx, publicationId)
	if err != nil {
		return err
	}
	payload := kpgintr.NewVersionedPayload(
		"code_archive_url", old.Url, old.asMap(), new.asMap(),
		map[string]any{"publication": label},
	)
	if payload == nil {
		// nothing changed. leave no trace.
		return nil
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "code_archive_url", RowId: id,
		PublicationId: publicationId, Payload: payload,
	})
	return err
}

func (a *pgArchive) RecordCheck(ctx context.Context, urlId int, check kdb.Check) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := a.recordCheck(ctx, tx, urlId, check); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgArchive) recordCheck(ctx context.Context, tx kpool.Tx, urlId int, check kdb.Check) error {
	var (
		publicationId int
		url           string
		status        string
		categoryId    int
		overridable   bool
	)
	if err := tx.QueryRow(
		ctx,
		`
		select "publication_id", "url", "status", "category_id", "system_overridable_category"
		from "code_archive_url" where "id" = $1 for update
		`,
		urlId,
	).Scan(&publicationId, &url, &status, &categoryId, &overridable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "code_archive_url", Identity: fmt.Sprintf("id=%d", urlId)}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "url_status_log"
			("publication_id", "url", "status_code", "status_reason", "headers", "system_generated")
		values ($1, $2, $3, $4, $5, true)
		`,
		publicationId, url, check.StatusCode, check.StatusReason, check.Headers,
	); err != nil {
		return err
	}

	newStatus := check.Status.String()
	newCategory := categoryId
	if overridable && check.CategoryId != 0 {
		newCategory = check.CategoryId
	}
	if newStatus == status && newCategory == categoryId {
		return nil
	}
	_, err := tx.Exec(
		ctx,
		`
		update "code_archive_url"
		set "status" = $2, "category_id" = $3, "last_modified" = now()
		where "id" = $1
		`,
		urlId, newStatus, newCategory,
	)
	return err
}
