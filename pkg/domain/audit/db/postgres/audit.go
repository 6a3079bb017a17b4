package postgres

import (
	"context"

	json "github.com/goccy/go-json"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/audit/db"
)

type pgAudit struct { // implements kdb.AuditInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.AuditInterface {
	return &pgAudit{pool: pool}
}

func (a *pgAudit) ForPublication(ctx context.Context, publicationId int) ([]domain.AuditTrail, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return trails(
		ctx, conn,
		`
		select distinct "audit_command_id" from "audit_log"
		where "publication_id" = $1
			or ("table_name" = 'publication' and "row_id" = $1)
		`,
		publicationId,
	)
}

func (a *pgAudit) ForRow(ctx context.Context, table string, rowId int) ([]domain.AuditTrail, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return trails(
		ctx, conn,
		`
		select distinct "audit_command_id" from "audit_log"
		where "table_name" = $1 and "row_id" = $2
		`,
		table, rowId,
	)
}

// trails assembles whole commands, newest first, from a query selecting
// command ids.
func trails(ctx context.Context, conn kpool.Queryer, commandQuery string, params ...interface{}) ([]domain.AuditTrail, error) {
	rows, err := conn.Query(ctx, commandQuery, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commandIds := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		commandIds = append(commandIds, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	found := []domain.AuditTrail{}
	if len(commandIds) == 0 {
		return found, nil
	}

	crows, err := conn.Query(
		ctx,
		`
		select "id", "action", "creator", "message", "date_added"
		from "audit_command"
		where "id" = any($1::int[])
		order by "date_added" desc, "id" desc
		`,
		commandIds,
	)
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	index := map[int]int{}
	for crows.Next() {
		c := domain.AuditCommand{}
		var action string
		if err := crows.Scan(&c.Id, &action, &c.Creator, &c.Message, &c.DateAdded); err != nil {
			return nil, err
		}
		if c.Action, err = domain.AsAuditAction(action); err != nil {
			return nil, err
		}
		index[c.Id] = len(found)
		found = append(found, domain.AuditTrail{Command: c})
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	lrows, err := conn.Query(
		ctx,
		`
		select
			"id", "audit_command_id", "action", "table_name", "row_id",
			coalesce("publication_id", 0), coalesce("payload"::text, ''),
			"message", "date_added"
		from "audit_log"
		where "audit_command_id" = any($1::int[])
		order by "id"
		`,
		commandIds,
	)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()

	for lrows.Next() {
		l := domain.AuditLog{}
		var action, payload string
		if err := lrows.Scan(
			&l.Id, &l.CommandId, &action, &l.Table, &l.RowId,
			&l.PublicationId, &payload, &l.Message, &l.DateAdded,
		); err != nil {
			return nil, err
		}
		if l.Action, err = domain.AsLogAction(action); err != nil {
			return nil, err
		}
		if payload != "" {
			l.Payload = &domain.LogPayload{}
			if err := json.Unmarshal([]byte(payload), l.Payload); err != nil {
				return nil, err
			}
		}
		trail := &found[index[l.CommandId]]
		trail.Logs = append(trail.Logs, l)
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}

	return found, nil
}

func (a *pgAudit) Contributions(ctx context.Context, publicationId int) ([]domain.Contribution, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		with "changes" as (
			select "c"."creator" as "creator", "c"."date_added" as "date_added"
			from "audit_log" as "l"
			inner join "audit_command" as "c" on "c"."id" = "l"."audit_command_id"
			where "c"."action" = 'MANUAL'
				and ("l"."publication_id" = $1
					or ("l"."table_name" = 'publication' and "l"."row_id" = $1))
		)
		select
			"creator",
			(count(*) * 100 / (select count(*) from "changes"))::int,
			max("date_added")
		from "changes"
		group by "creator"
		order by max("date_added") desc, "creator"
		`,
		publicationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions := []domain.Contribution{}
	for rows.Next() {
		c := domain.Contribution{}
		if err := rows.Scan(&c.Creator, &c.Contribution, &c.DateAdded); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contributions, nil
}

func (a *pgAudit) AllContributions(ctx context.Context) (map[int][]domain.Contribution, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		with "changes" as (
			select
				"p"."id" as "publication_id",
				"c"."creator" as "creator",
				"c"."date_added" as "date_added"
			from "publication" as "p"
			inner join "audit_log" as "l"
				on "l"."publication_id" = "p"."id"
					or ("l"."table_name" = 'publication' and "l"."row_id" = "p"."id")
			inner join "audit_command" as "c"
				on "c"."id" = "l"."audit_command_id" and "c"."action" = 'MANUAL'
			where "p"."is_primary"
		)
		select
			"publication_id",
			"creator",
			(count(*) * 100 / (
				select count(*) from "changes" as "t"
				where "t"."publication_id" = "changes"."publication_id"
			))::int,
			max("date_added")
		from "changes"
		group by "publication_id", "creator"
		order by "publication_id", max("date_added") desc, "creator"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions := map[int][]domain.Contribution{}
	for rows.Next() {
		var publicationId int
		c := domain.Contribution{}
		if err := rows.Scan(&publicationId, &c.Creator, &c.Contribution, &c.DateAdded); err != nil {
			return nil, err
		}
		contributions[publicationId] = append(contributions[publicationId], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contributions, nil
}
