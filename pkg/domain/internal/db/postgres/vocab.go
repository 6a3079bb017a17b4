package postgres

import (
	"context"
	"fmt"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// VocabTable names the table of a vocabulary kind.
// Kinds form a fixed set, so the name can be spliced into SQL.
func VocabTable(kind domain.VocabKind) string {
	switch kind {
	case domain.VocabPlatform:
		return "platform"
	case domain.VocabSponsor:
		return "sponsor"
	case domain.VocabTag:
		return "tag"
	case domain.VocabModelDocumentation:
		return "model_documentation"
	}
	return ""
}

// VocabJoinTable names the publication join table of a vocabulary kind
// and its vocabulary-side column.
func VocabJoinTable(kind domain.VocabKind) (table string, column string) {
	switch kind {
	case domain.VocabPlatform:
		return "publication_platforms", "platform_id"
	case domain.VocabSponsor:
		return "publication_sponsors", "sponsor_id"
	case domain.VocabTag:
		return "publication_tags", "tag_id"
	case domain.VocabModelDocumentation:
		return "publication_model_documentations", "model_documentation_id"
	}
	return "", ""
}

// VocabHasMeta reports whether the kind's table carries url and
// description columns. Platforms and sponsors do; tags and model
// documentation are bare names.
func VocabHasMeta(kind domain.VocabKind) bool {
	return kind == domain.VocabPlatform || kind == domain.VocabSponsor
}

// GetNamedRecords fetches vocabulary records of one kind, by id.
func GetNamedRecords(ctx context.Context, conn kpool.Queryer, kind domain.VocabKind, ids []int) (map[int]domain.NamedRecord, error) {
	if len(ids) == 0 {
		return map[int]domain.NamedRecord{}, nil
	}

	meta := `'', ''`
	if VocabHasMeta(kind) {
		meta = `"url", "description"`
	}
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`select "id", "name", %s from "%s" where "id" = any($1::int[])`,
			meta, VocabTable(kind),
		),
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := map[int]domain.NamedRecord{}
	for rows.Next() {
		r := domain.NamedRecord{}
		if err := rows.Scan(&r.Id, &r.Name, &r.Url, &r.Description); err != nil {
			return nil, err
		}
		records[r.Id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// GetPublicationVocab fetches the records of one kind attached to each
// publication, in attachment order.
func GetPublicationVocab(ctx context.Context, conn kpool.Queryer, kind domain.VocabKind, publicationIds []int) (map[int][]domain.NamedRecord, error) {
	attached := map[int][]domain.NamedRecord{}
	if len(publicationIds) == 0 {
		return attached, nil
	}

	meta := `'', ''`
	if VocabHasMeta(kind) {
		meta = `"v"."url", "v"."description"`
	}
	join, column := VocabJoinTable(kind)
	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`
			select "j"."publication_id", "v"."id", "v"."name", %s
			from "%s" as "j"
			inner join "%s" as "v" on "v"."id" = "j"."%s"
			where "j"."publication_id" = any($1::int[])
			order by "j"."id"
			`,
			meta, join, VocabTable(kind), column,
		),
		publicationIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var publicationId int
		r := domain.NamedRecord{}
		if err := rows.Scan(&publicationId, &r.Id, &r.Name, &r.Url, &r.Description); err != nil {
			return nil, err
		}
		attached[publicationId] = append(attached[publicationId], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attached, nil
}
