package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
	kdb "github.com/comses/citation/pkg/domain/vocab/db"
	"github.com/comses/citation/pkg/utils/slices"
)

type pgVocab struct { // implements kdb.VocabInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.VocabInterface {
	return &pgVocab{pool: pool}
}

func metaColumns(kind domain.VocabKind) string {
	if kpgintr.VocabHasMeta(kind) {
		return `"url", "description"`
	}
	return `'', ''`
}

func label(r domain.NamedRecord) string {
	return fmt.Sprintf("%s (%d)", r.Name, r.Id)
}

func asMap(kind domain.VocabKind, r domain.NamedRecord) map[string]any {
	data := map[string]any{"name": r.Name}
	if kpgintr.VocabHasMeta(kind) {
		data["url"] = r.Url
		data["description"] = r.Description
	}
	return data
}

func (v *pgVocab) List(ctx context.Context, kind domain.VocabKind) ([]domain.NamedRecord, error) {
	conn, err := v.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		fmt.Sprintf(
			`select "id", "name", %s from "%s" order by "name", "id"`,
			metaColumns(kind), kpgintr.VocabTable(kind),
		),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.NamedRecord{}
	for rows.Next() {
		r := domain.NamedRecord{}
		if err := rows.Scan(&r.Id, &r.Name, &r.Url, &r.Description); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (v *pgVocab) Get(ctx context.Context, kind domain.VocabKind, ids []int) (map[int]domain.NamedRecord, error) {
	conn, err := v.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetNamedRecords(ctx, conn, kind, ids)
}

func (v *pgVocab) Create(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error) {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	records := make([]domain.NamedRecord, 0, len(names))
	for _, name := range names {
		r, err := createRecord(ctx, tx, cmd, kind, name)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func createRecord(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, name string) (domain.NamedRecord, error) {
	r := domain.NamedRecord{Name: name}
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`insert into "%s" ("name") values ($1) returning "id"`,
			kpgintr.VocabTable(kind),
		),
		name,
	).Scan(&r.Id); err != nil {
		return domain.NamedRecord{}, err
	}

	table := kpgintr.VocabTable(kind)
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: table, RowId: r.Id,
		Payload: kpgintr.NewRowPayload(table, label(r), asMap(kind, r), nil),
	}); err != nil {
		return domain.NamedRecord{}, err
	}
	return r, nil
}

// getOrCreateRecord finds the record by name, creating and logging it
// when there is none.
func getOrCreateRecord(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, name string) (domain.NamedRecord, error) {
	r := domain.NamedRecord{}
	err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`select "id", "name", %s from "%s" where "name" = $1`,
			metaColumns(kind), kpgintr.VocabTable(kind),
		),
		name,
	).Scan(&r.Id, &r.Name, &r.Url, &r.Description)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.NamedRecord{}, err
	}
	return createRecord(ctx, tx, cmd, kind, name)
}

// getOrCreateAttachment attaches the record to the publication, logging
// the join row when it is new.
func getOrCreateAttachment(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, publicationId int, publicationLabel string, r domain.NamedRecord) error {
	join, column := kpgintr.VocabJoinTable(kind)

	var joinId int
	err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`select "id" from "%s" where "publication_id" = $1 and "%s" = $2`,
			join, column,
		),
		publicationId, r.Id,
	).Scan(&joinId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`insert into "%s" ("publication_id", "%s") values ($1, $2) returning "id"`,
			join, column,
		),
		publicationId, r.Id,
	).Scan(&joinId); err != nil {
		return err
	}

	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: join, RowId: joinId, PublicationId: publicationId,
		Payload: kpgintr.NewRowPayload(
			join, "",
			map[string]any{"publication_id": publicationId, column: r.Id},
			map[string]any{
				"publication":            publicationLabel,
				kpgintr.VocabTable(kind): label(r),
			},
		),
	})
	return err
}

func (v *pgVocab) Update(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, id int, delta kdb.VocabDelta) error {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := v.update(ctx, tx, cmd, kind, id, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (v *pgVocab) update(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, id int, delta kdb.VocabDelta) error {
	table := kpgintr.VocabTable(kind)

	old := domain.NamedRecord{Id: id}
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`select "name", %s from "%s" where "id" = $1 for update`,
			metaColumns(kind), table,
		),
		id,
	).Scan(&old.Name, &old.Url, &old.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: table, Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	new := old
	if delta.Name != nil {
		new.Name = *delta.Name
	}
	if kpgintr.VocabHasMeta(kind) {
		if delta.Url != nil {
			new.Url = *delta.Url
		}
		if delta.Description != nil {
			new.Description = *delta.Description
		}
		if _, err := tx.Exec(
			ctx,
			fmt.Sprintf(
				`update "%s" set "name" = $2, "url" = $3, "description" = $4, "date_modified" = now() where "id" = $1`,
				table,
			),
			id, new.Name, new.Url, new.Description,
		); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(
			ctx,
			fmt.Sprintf(
				`update "%s" set "name" = $2, "date_modified" = now() where "id" = $1`,
				table,
			),
			id, new.Name,
		); err != nil {
			return err
		}
	}

	payload := kpgintr.NewVersionedPayload(
		table, label(old), asMap(kind, old), asMap(kind, new), nil,
	)
	if payload == nil {
		// nothing changed. leave no trace.
		return nil
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: table, RowId: id, Payload: payload,
	})
	return err
}

func (v *pgVocab) Delete(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string) ([]domain.NamedRecord, error) {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	doomed, err := recordsByName(ctx, tx, kind, names, true)
	if err != nil {
		return nil, err
	}

	table := kpgintr.VocabTable(kind)
	for _, r := range doomed {
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: table, RowId: r.Id,
			Payload: kpgintr.NewRowPayload(table, label(r), asMap(kind, r), nil),
		}); err != nil {
			return nil, err
		}
	}
	if 0 < len(doomed) {
		if _, err := tx.Exec(
			ctx,
			fmt.Sprintf(`delete from "%s" where "id" = any($1::int[])`, table),
			slices.Map(doomed, func(r domain.NamedRecord) int { return r.Id }),
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return doomed, nil
}

func recordsByName(ctx context.Context, tx kpool.Tx, kind domain.VocabKind, names []string, lock bool) ([]domain.NamedRecord, error) {
	suffix := ""
	if lock {
		suffix = " for update"
	}
	rows, err := tx.Query(
		ctx,
		fmt.Sprintf(
			`select "id", "name", %s from "%s" where "name" = any($1::text[]) order by "id"%s`,
			metaColumns(kind), kpgintr.VocabTable(kind), suffix,
		),
		names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.NamedRecord{}
	for rows.Next() {
		r := domain.NamedRecord{}
		if err := rows.Scan(&r.Id, &r.Name, &r.Url, &r.Description); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (v *pgVocab) Split(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, name string, newNames []string) ([]domain.NamedRecord, error) {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	records, err := v.split(ctx, tx, cmd, kind, name, newNames)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func (v *pgVocab) split(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, name string, newNames []string) ([]domain.NamedRecord, error) {
	table := kpgintr.VocabTable(kind)

	old := domain.NamedRecord{}
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(
			`select "id", "name", %s from "%s" where "name" = $1 for update`,
			metaColumns(kind), table,
		),
		name,
	).Scan(&old.Id, &old.Name, &old.Url, &old.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kpgerr.Missing{Table: table, Identity: fmt.Sprintf("name=%s", name)}
		}
		return nil, err
	}

	publicationIds, err := attachedPublications(ctx, tx, kind, []int{old.Id})
	if err != nil {
		return nil, err
	}

	// the old record goes first, as the original curation tool did;
	// its attachments go away with it.
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogDelete, Table: table, RowId: old.Id,
		Payload: kpgintr.NewRowPayload(table, label(old), asMap(kind, old), nil),
	}); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		fmt.Sprintf(`delete from "%s" where "id" = $1`, table),
		old.Id,
	); err != nil {
		return nil, err
	}

	records := make([]domain.NamedRecord, 0, len(newNames))
	for _, newName := range newNames {
		r, err := getOrCreateRecord(ctx, tx, cmd, kind, newName)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	for _, publicationId := range publicationIds {
		publicationLabel, err := kpgintr.PublicationLabel(ctx, tx, publicationId)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if err := getOrCreateAttachment(
				ctx, tx, cmd, kind, publicationId, publicationLabel, r,
			); err != nil {
				return nil, err
			}
		}
	}

	return records, nil
}

func attachedPublications(ctx context.Context, tx kpool.Tx, kind domain.VocabKind, recordIds []int) ([]int, error) {
	join, column := kpgintr.VocabJoinTable(kind)
	rows, err := tx.Query(
		ctx,
		fmt.Sprintf(
			`select distinct "publication_id" from "%s" where "%s" = any($1::int[]) order by "publication_id"`,
			join, column,
		),
		recordIds,
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

func (v *pgVocab) Merge(ctx context.Context, cmd *domain.AuditCommand, kind domain.VocabKind, names []string, newName string) (domain.NamedRecord, error) {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return domain.NamedRecord{}, err
	}
	defer tx.Rollback(ctx)

	canonical, err := v.merge(ctx, tx, cmd, kind, names, newName)
	if err != nil {
		return domain.NamedRecord{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.NamedRecord{}, err
	}
	return canonical, nil
}

func (v *pgVocab) merge(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, names []string, newName string) (domain.NamedRecord, error) {
	table := kpgintr.VocabTable(kind)

	toMerge, err := recordsByName(ctx, tx, kind, names, true)
	if err != nil {
		return domain.NamedRecord{}, err
	}
	publicationIds, err := attachedPublications(
		ctx, tx, kind,
		slices.Map(toMerge, func(r domain.NamedRecord) int { return r.Id }),
	)
	if err != nil {
		return domain.NamedRecord{}, err
	}

	canonical, err := getOrCreateRecord(ctx, tx, cmd, kind, newName)
	if err != nil {
		return domain.NamedRecord{}, err
	}

	for _, publicationId := range publicationIds {
		publicationLabel, err := kpgintr.PublicationLabel(ctx, tx, publicationId)
		if err != nil {
			return domain.NamedRecord{}, err
		}
		if err := getOrCreateAttachment(
			ctx, tx, cmd, kind, publicationId, publicationLabel, canonical,
		); err != nil {
			return domain.NamedRecord{}, err
		}
	}

	doomed := []int{}
	for _, r := range toMerge {
		if r.Name == newName {
			continue
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: table, RowId: r.Id,
			Payload: kpgintr.NewRowPayload(table, label(r), asMap(kind, r), nil),
		}); err != nil {
			return domain.NamedRecord{}, err
		}
		doomed = append(doomed, r.Id)
	}
	if 0 < len(doomed) {
		if _, err := tx.Exec(
			ctx,
			fmt.Sprintf(`delete from "%s" where "id" = any($1::int[])`, table),
			doomed,
		); err != nil {
			return domain.NamedRecord{}, err
		}
	}

	return canonical, nil
}
