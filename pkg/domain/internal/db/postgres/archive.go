package postgres

import (
	"context"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// GetCodeArchiveUrls fetches code archive urls with their categories,
// grouped by publication, oldest first.
func GetCodeArchiveUrls(ctx context.Context, conn kpool.Queryer, publicationIds []int) (map[int][]domain.CodeArchiveUrl, error) {
	urls := map[int][]domain.CodeArchiveUrl{}
	if len(publicationIds) == 0 {
		return urls, nil
	}

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
		where "u"."publication_id" = any($1::int[])
		order by "u"."id"
		`,
		publicationIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
		urls[u.PublicationId] = append(urls[u.PublicationId], u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}

// GetCategories fetches code archive url categories by id.
func GetCategories(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]domain.CodeArchiveUrlCategory, error) {
	if len(ids) == 0 {
		return map[int]domain.CodeArchiveUrlCategory{}, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id", "category", "subcategory"
		from "code_archive_url_category"
		where "id" = any($1::int[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := map[int]domain.CodeArchiveUrlCategory{}
	for rows.Next() {
		c := domain.CodeArchiveUrlCategory{}
		if err := rows.Scan(&c.Id, &c.Category, &c.Subcategory); err != nil {
			return nil, err
		}
		categories[c.Id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}
