package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/container/db"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
)

type pgContainer struct { // implements kdb.ContainerInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.ContainerInterface {
	return &pgContainer{pool: pool}
}

func (c *pgContainer) Get(ctx context.Context, ids []int) (map[int]domain.Container, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetContainers(ctx, conn, ids)
}

func (c *pgContainer) Find(ctx context.Context, filter domain.ContainerFilter) ([]int, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "container"
		where ($1::text = ''
				or "name" ilike '%' || $1 || '%'
				or "id" in (
					select "container_id" from "container_alias"
					where "name" ilike '%' || $1 || '%'
				))
			and ($2::text = '' or "issn" = $2 or "eissn" = $2)
		order by "name", "id"
		`,
		filter.NameLike, filter.Issn,
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

func (c *pgContainer) Aliases(ctx context.Context, containerIds []int) (map[int][]domain.ContainerAlias, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetContainerAliases(ctx, conn, containerIds)
}

// scalar columns of a container row, read and written as one unit
// so updates can be diffed for the audit payload.
type containerRecord struct {
	Type  string
	Name  string
	Issn  string
	Eissn string
}

func (r containerRecord) patched(delta kdb.ContainerDelta) containerRecord {
	if delta.Type != nil {
		r.Type = *delta.Type
	}
	if delta.Name != nil {
		r.Name = *delta.Name
	}
	if delta.Issn != nil {
		r.Issn = *delta.Issn
	}
	if delta.Eissn != nil {
		r.Eissn = *delta.Eissn
	}
	return r
}

func (r containerRecord) asMap() map[string]any {
	return map[string]any{
		"type":  r.Type,
		"name":  r.Name,
		"issn":  r.Issn,
		"eissn": r.Eissn,
	}
}

func (r containerRecord) label(id int) string {
	return fmt.Sprintf("%s (%d)", r.Name, id)
}

func (c *pgContainer) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdb.ContainerDelta) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.update(ctx, tx, cmd, id, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *pgContainer) update(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, delta kdb.ContainerDelta) error {
	old := containerRecord{}
	if err := tx.QueryRow(
		ctx,
		`
		select "type", "name", coalesce("issn", ''), coalesce("eissn", '')
		from "container" where "id" = $1 for update
		`,
		id,
	).Scan(&old.Type, &old.Name, &old.Issn, &old.Eissn); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "container", Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	new := old.patched(delta)
	if _, err := tx.Exec(
		ctx,
		`
		update "container" set
			"type" = $2, "name" = $3,
			"issn" = nullif($4, ''), "eissn" = nullif($5, ''),
			"date_modified" = now()
		where "id" = $1
		`,
		id, new.Type, new.Name, new.Issn, new.Eissn,
	); err != nil {
		return err
	}

	payload := kpgintr.NewVersionedPayload(
		"container", old.label(id), old.asMap(), new.asMap(), nil,
	)
	if payload == nil {
		// nothing changed. leave no trace.
		return nil
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "container", RowId: id, Payload: payload,
	})
	return err
}
