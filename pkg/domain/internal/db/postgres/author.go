package postgres

import (
	"context"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// GetAuthors fetches authors by id. Unknown ids are dropped.
func GetAuthors(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]domain.Author, error) {
	if len(ids) == 0 {
		return map[int]domain.Author{}, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "type", "given_name", "family_name",
			coalesce("orcid", ''), coalesce("researcherid", ''), "email"
		from "author"
		where "id" = any($1::int[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := map[int]domain.Author{}
	for rows.Next() {
		a := domain.Author{}
		var typ string
		if err := rows.Scan(
			&a.Id, &typ, &a.GivenName, &a.FamilyName,
			&a.Orcid, &a.Researcherid, &a.Email,
		); err != nil {
			return nil, err
		}
		if a.Type, err = domain.AsAuthorType(typ); err != nil {
			return nil, err
		}
		authors[a.Id] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return authors, nil
}

// GetAuthorAliases fetches alternate spellings, grouped by author.
func GetAuthorAliases(ctx context.Context, conn kpool.Queryer, authorIds []int) (map[int][]domain.AuthorAlias, error) {
	aliases := map[int][]domain.AuthorAlias{}
	if len(authorIds) == 0 {
		return aliases, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id", "author_id", "given_name", "family_name"
		from "author_alias"
		where "author_id" = any($1::int[])
		order by "id"
		`,
		authorIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		al := domain.AuthorAlias{}
		if err := rows.Scan(&al.Id, &al.AuthorId, &al.GivenName, &al.FamilyName); err != nil {
			return nil, err
		}
		aliases[al.AuthorId] = append(aliases[al.AuthorId], al)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return aliases, nil
}

// GetCreators fetches each publication's authors with their roles,
// in the order they were attached.
func GetCreators(ctx context.Context, conn kpool.Queryer, publicationIds []int) (map[int][]domain.Creator, error) {
	creators := map[int][]domain.Creator{}
	if len(publicationIds) == 0 {
		return creators, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select
			"pa"."publication_id", "pa"."role",
			"a"."id", "a"."type", "a"."given_name", "a"."family_name",
			coalesce("a"."orcid", ''), coalesce("a"."researcherid", ''), "a"."email"
		from "publication_authors" as "pa"
		inner join "author" as "a" on "a"."id" = "pa"."author_id"
		where "pa"."publication_id" = any($1::int[])
		order by "pa"."id"
		`,
		publicationIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var publicationId int
		var role, typ string
		c := domain.Creator{}
		if err := rows.Scan(
			&publicationId, &role,
			&c.Author.Id, &typ, &c.GivenName, &c.FamilyName,
			&c.Orcid, &c.Researcherid, &c.Email,
		); err != nil {
			return nil, err
		}
		if c.Author.Type, err = domain.AsAuthorType(typ); err != nil {
			return nil, err
		}
		if c.Role, err = domain.AsAuthorRole(role); err != nil {
			return nil, err
		}
		creators[publicationId] = append(creators[publicationId], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return creators, nil
}
