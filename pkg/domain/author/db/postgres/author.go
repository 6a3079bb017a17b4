package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/author/db"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
)

type pgAuthor struct { // implements kdb.AuthorInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.AuthorInterface {
	return &pgAuthor{pool: pool}
}

func (a *pgAuthor) Get(ctx context.Context, ids []int) (map[int]domain.Author, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetAuthors(ctx, conn, ids)
}

func (a *pgAuthor) Find(ctx context.Context, filter domain.AuthorFilter) ([]int, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "author"
		where ($1::text = ''
				or ("given_name" || ' ' || "family_name") ilike '%' || $1 || '%'
				or "id" in (
					select "author_id" from "author_alias"
					where ("given_name" || ' ' || "family_name") ilike '%' || $1 || '%'
				))
			and ($2::text = '' or "orcid" = $2)
		order by "family_name", "given_name", "id"
		`,
		filter.NameLike, filter.Orcid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (a *pgAuthor) Aliases(ctx context.Context, authorIds []int) (map[int][]domain.AuthorAlias, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetAuthorAliases(ctx, conn, authorIds)
}

// scalar columns of an author row, read and written as one unit
// so updates can be diffed for the audit payload.
type authorRecord struct {
	Type         string
	GivenName    string
	FamilyName   string
	Orcid        string
	Researcherid string
	Email        string
}

func (r authorRecord) patched(delta kdb.AuthorDelta) authorRecord {
	if delta.Type != nil {
		r.Type = delta.Type.String()
	}
	if delta.GivenName != nil {
		r.GivenName = *delta.GivenName
	}
	if delta.FamilyName != nil {
		r.FamilyName = *delta.FamilyName
	}
	if delta.Orcid != nil {
		r.Orcid = *delta.Orcid
	}
	if delta.Researcherid != nil {
		r.Researcherid = *delta.Researcherid
	}
	if delta.Email != nil {
		r.Email = *delta.Email
	}
	return r
}

func (r authorRecord) asMap() map[string]any {
	return map[string]any{
		"type":         r.Type,
		"given_name":   r.GivenName,
		"family_name":  r.FamilyName,
		"orcid":        r.Orcid,
		"researcherid": r.Researcherid,
		"email":        r.Email,
	}
}

func (r authorRecord) label(id int) string {
	name := domain.Author{GivenName: r.GivenName, FamilyName: r.FamilyName}
	return fmt.Sprintf("%s (%d)", name.Name(), id)
}

func (a *pgAuthor) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdb.AuthorDelta) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := a.update(ctx, tx, cmd, id, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgAuthor) update(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, delta kdb.AuthorDelta) error {
	old := authorRecord{}
	if err := tx.QueryRow(
		ctx,
		`
		select
			"type", "given_name", "family_name",
			coalesce("orcid", ''), coalesce("researcherid", ''), "email"
		from "author" where "id" = $1 for update
		`,
		id,
	).Scan(
		&old.Type, &old.GivenName, &old.FamilyName,
		&old.Orcid, &old.Researcherid, &old.Email,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "author", Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	new := old.patched(delta)
	if _, err := tx.Exec(
		ctx,
		`
		update "author" set
			"type" = $2, "given_name" = $3, "family_name" = $4,
			"orcid" = nullif($5, ''), "researcherid" = nullif($6, ''),
			"email" = $7,
			"date_modified" = now()
		where "id" = $1
		`,
		id,
		new.Type, new.GivenName, new.FamilyName,
		new.Orcid, new.Researcherid, new.Email,
	); err != nil {
		return err
	}

	payload := kpgintr.NewVersionedPayload(
		"author", old.label(id), old.asMap(), new.asMap(), nil,
	)
	if payload == nil {
		// nothing changed. leave no trace.
		return nil
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "author", RowId: id, Payload: payload,
	})
	return err
}
