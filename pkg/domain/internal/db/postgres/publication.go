package postgres

import (
	"context"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// GetPublicationBody fetches the scalar part of publications, by id.
// Ids pointing to nothing are silently dropped from the result.
func GetPublicationBody(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]domain.PublicationBody, error) {
	if len(ids) == 0 {
		return map[int]domain.PublicationBody{}, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "title", "abstract", "short_title", "url",
			"date_published_text", "contact_author_name", "contact_email",
			"status", "flagged", "is_primary",
			"pages", "issn", "volume", "issue",
			"series", "series_title", "series_text",
			coalesce("doi", ''), coalesce("isi", ''),
			"added_by", "assigned_curator",
			"date_added", "date_modified"
		from "publication"
		where "id" = any($1::int[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bodies := map[int]domain.PublicationBody{}
	for rows.Next() {
		b := domain.PublicationBody{}
		var status string
		if err := rows.Scan(
			&b.Id, &b.Title, &b.Abstract, &b.ShortTitle, &b.Url,
			&b.DatePublishedText, &b.ContactAuthorName, &b.ContactEmail,
			&status, &b.Flagged, &b.IsPrimary,
			&b.Pages, &b.Issn, &b.Volume, &b.Issue,
			&b.Series, &b.SeriesTitle, &b.SeriesText,
			&b.Doi, &b.Isi,
			&b.AddedBy, &b.AssignedCurator,
			&b.DateAdded, &b.DateModified,
		); err != nil {
			return nil, err
		}
		if b.Status, err = domain.AsPublicationStatus(status); err != nil {
			return nil, err
		}
		bodies[b.Id] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bodies, nil
}

// GetPublicationContainerIds maps publications to their container.
func GetPublicationContainerIds(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]int, error) {
	containerIds := map[int]int{}
	if len(ids) == 0 {
		return containerIds, nil
	}

	rows, err := conn.Query(
		ctx,
		`select "id", "container_id" from "publication" where "id" = any($1::int[])`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, containerId int
		if err := rows.Scan(&id, &containerId); err != nil {
			return nil, err
		}
		containerIds[id] = containerId
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return containerIds, nil
}

// GetCitationIds fetches citation links touching the given publications.
//
// The first map holds publications each given id cites, the second
// publications citing it. Both sides are ordered by link age.
func GetCitationIds(ctx context.Context, conn kpool.Queryer, ids []int) (map[int][]int, map[int][]int, error) {
	cites := map[int][]int{}
	citedBy := map[int][]int{}
	if len(ids) == 0 {
		return cites, citedBy, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select "publication_id", "citation_id" from "publication_citations"
		where "publication_id" = any($1::int[]) or "citation_id" = any($1::int[])
		order by "id"
		`,
		ids,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var from, to int
		if err := rows.Scan(&from, &to); err != nil {
			return nil, nil, err
		}
		cites[from] = append(cites[from], to)
		citedBy[to] = append(citedBy[to], from)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return cites, citedBy, nil
}

// PublicationLabel is the audit label of a publication row.
func PublicationLabel(ctx context.Context, conn kpool.Queryer, id int) (string, error) {
	var label string
	if err := conn.QueryRow(
		ctx,
		`select "title" || ' (' || "id" || ')' from "publication" where "id" = $1`,
		id,
	).Scan(&label); err != nil {
		return "", err
	}
	return label, nil
}
