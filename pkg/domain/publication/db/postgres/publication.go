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
	kdb "github.com/comses/citation/pkg/domain/publication/db"
	"github.com/comses/citation/pkg/utils/slices"
)

type pgPublication struct { // implements kdb.PublicationInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.PublicationInterface {
	return &pgPublication{pool: pool}
}

func (p *pgPublication) Get(ctx context.Context, ids []int) (map[int]domain.Publication, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return p.get(ctx, conn, ids)
}

func (p *pgPublication) get(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]domain.Publication, error) {
	bodies, err := kpgintr.GetPublicationBody(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	found := slices.KeysOf(bodies)

	containerIds, err := kpgintr.GetPublicationContainerIds(ctx, conn, found)
	if err != nil {
		return nil, err
	}
	containers, err := kpgintr.GetContainers(
		ctx, conn, slices.Deduplicate(slices.ValuesOf(containerIds)),
	)
	if err != nil {
		return nil, err
	}
	creators, err := kpgintr.GetCreators(ctx, conn, found)
	if err != nil {
		return nil, err
	}

	vocabs := map[domain.VocabKind]map[int][]domain.NamedRecord{}
	for _, kind := range []domain.VocabKind{
		domain.VocabPlatform, domain.VocabSponsor,
		domain.VocabTag, domain.VocabModelDocumentation,
	} {
		attached, err := kpgintr.GetPublicationVocab(ctx, conn, kind, found)
		if err != nil {
			return nil, err
		}
		vocabs[kind] = attached
	}

	urls, err := kpgintr.GetCodeArchiveUrls(ctx, conn, found)
	if err != nil {
		return nil, err
	}
	cites, citedBy, err := kpgintr.GetCitationIds(ctx, conn, found)
	if err != nil {
		return nil, err
	}

	publications := map[int]domain.Publication{}
	for id, body := range bodies {
		publications[id] = domain.Publication{
			PublicationBody:    body,
			Container:          containers[containerIds[id]],
			Creators:           creators[id],
			Platforms:          vocabs[domain.VocabPlatform][id],
			Sponsors:           vocabs[domain.VocabSponsor][id],
			Tags:               vocabs[domain.VocabTag][id],
			ModelDocumentation: vocabs[domain.VocabModelDocumentation][id],
			CodeArchiveUrls:    urls[id],
			Citations:          cites[id],
			ReferencedBy:       citedBy[id],
		}
	}
	return publications, nil
}

func (p *pgPublication) Find(ctx context.Context, filter domain.PublicationFilter) ([]int, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return p.find(ctx, conn, filter)
}

func emptyAsNil(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func (p *pgPublication) find(ctx context.Context, conn kpool.Queryer, filter domain.PublicationFilter) ([]int, error) {
	var status []string
	if 0 < len(filter.Status) {
		status = slices.Map(filter.Status, domain.PublicationStatus.String)
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "publication"
		where ($1::text[] is null or "status" = any($1::text[]))
			and ($2::boolean is null or "is_primary" = $2)
			and ($3::boolean is null or "flagged" = $3)
			and ($4::text = '' or "assigned_curator" = $4)
			and ($5::int[] is null or "container_id" = any($5::int[]))
			and ($6::int[] is null or "id" in (
				select "publication_id" from "publication_authors"
				where "author_id" = any($6::int[])
			))
			and ($7::int[] is null or "id" in (
				select "publication_id" from "publication_tags"
				where "tag_id" = any($7::int[])
			))
			and ($8::int[] is null or "id" in (
				select "publication_id" from "publication_platforms"
				where "platform_id" = any($8::int[])
			))
			and ($9::int[] is null or "id" in (
				select "publication_id" from "publication_sponsors"
				where "sponsor_id" = any($9::int[])
			))
			and ($10::text = '' or "title" ilike '%' || $10 || '%')
			and ($11::text = '' or "doi" = $11)
		order by "date_added" desc, "id" desc
		`,
		status, filter.IsPrimary, filter.Flagged, filter.AssignedCurator,
		emptyAsNil(filter.ContainerId), emptyAsNil(filter.AuthorId),
		emptyAsNil(filter.TagId), emptyAsNil(filter.PlatformId),
		emptyAsNil(filter.SponsorId),
		filter.TitleLike, domain.SanitizeDoi(filter.Doi),
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

// scalar columns of a publication row, read and written as one unit
// so updates can be diffed for the audit payload.
type publicationRecord struct {
	Title             string
	Abstract          string
	ShortTitle        string
	Url               string
	DatePublishedText string
	ContactAuthorName string
	ContactEmail      string
	Status            string
	IsPrimary         bool
	Pages             string
	Issn              string
	Volume            string
	Issue             string
	Series            string
	SeriesTitle       string
	SeriesText        string
	Doi               string
	Isi               string
	AssignedCurator   string
	ContainerId       int
}

func (r publicationRecord) patched(delta kdb.PublicationDelta) publicationRecord {
	if delta.Title != nil {
		r.Title = *delta.Title
	}
	if delta.Abstract != nil {
		r.Abstract = *delta.Abstract
	}
	if delta.ShortTitle != nil {
		r.ShortTitle = *delta.ShortTitle
	}
	if delta.Url != nil {
		r.Url = *delta.Url
	}
	if delta.DatePublishedText != nil {
		r.DatePublishedText = *delta.DatePublishedText
	}
	if delta.ContactAuthorName != nil {
		r.ContactAuthorName = *delta.ContactAuthorName
	}
	if delta.ContactEmail != nil {
		r.ContactEmail = *delta.ContactEmail
	}
	if delta.Status != nil {
		r.Status = delta.Status.String()
	}
	if delta.IsPrimary != nil {
		r.IsPrimary = *delta.IsPrimary
	}
	if delta.Pages != nil {
		r.Pages = *delta.Pages
	}
	if delta.Issn != nil {
		r.Issn = *delta.Issn
	}
	if delta.Volume != nil {
		r.Volume = *delta.Volume
	}
	if delta.Issue != nil {
		r.Issue = *delta.Issue
	}
	if delta.Series != nil {
		r.Series = *delta.Series
	}
	if delta.SeriesTitle != nil {
		r.SeriesTitle = *delta.SeriesTitle
	}
	if delta.SeriesText != nil {
		r.SeriesText = *delta.SeriesText
	}
	if delta.Doi != nil {
		r.Doi = domain.SanitizeDoi(*delta.Doi)
	}
	if delta.Isi != nil {
		r.Isi = *delta.Isi
	}
	if delta.ContainerId != nil {
		r.ContainerId = *delta.ContainerId
	}
	if delta.AssignedCurator != nil {
		r.AssignedCurator = *delta.AssignedCurator
	}
	return r
}

func (r publicationRecord) asMap() map[string]any {
	return map[string]any{
		"title":               r.Title,
		"abstract":            r.Abstract,
		"short_title":         r.ShortTitle,
		"url":                 r.Url,
		"date_published_text": r.DatePublishedText,
		"contact_author_name": r.ContactAuthorName,
		"contact_email":       r.ContactEmail,
		"status":              r.Status,
		"is_primary":          r.IsPrimary,
		"pages":               r.Pages,
		"issn":                r.Issn,
		"volume":              r.Volume,
		"issue":               r.Issue,
		"series":              r.Series,
		"series_title":        r.SeriesTitle,
		"series_text":         r.SeriesText,
		"doi":                 r.Doi,
		"isi":                 r.Isi,
		"assigned_curator":    r.AssignedCurator,
		"container_id":        r.ContainerId,
	}
}

func (r publicationRecord) label(id int) string {
	return fmt.Sprintf("%s (%d)", r.Title, id)
}

func (p *pgPublication) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdb.PublicationDelta) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.update(ctx, tx, cmd, id, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *pgPublication) update(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, delta kdb.PublicationDelta) error {
	old := publicationRecord{}
	if err := tx.QueryRow(
		ctx,
		`
		select
			"title", "abstract", "short_title", "url",
			"date_published_text", "contact_author_name", "contact_email",
			"status", "is_primary",
			"pages", "issn", "volume", "issue",
			"series", "series_title", "series_text",
			coalesce("doi", ''), coalesce("isi", ''),
			"assigned_curator", "container_id"
		from "publication" where "id" = $1 for update
		`,
		id,
	).Scan(
		&old.Title, &old.Abstract, &old.ShortTitle, &old.Url,
		&old.DatePublishedText, &old.ContactAuthorName, &old.ContactEmail,
		&old.Status, &old.IsPrimary,
		&old.Pages, &old.Issn, &old.Volume, &old.Issue,
		&old.Series, &old.SeriesTitle, &old.SeriesText,
		&old.Doi, &old.Isi,
		&old.AssignedCurator, &old.ContainerId,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	new := old.patched(delta)
	if _, err := tx.Exec(
		ctx,
		`
		update "publication" set
			"title" = $2, "abstract" = $3, "short_title" = $4, "url" = $5,
			"date_published_text" = $6, "contact_author_name" = $7, "contact_email" = $8,
			"status" = $9, "is_primary" = $10,
			"pages" = $11, "issn" = $12, "volume" = $13, "issue" = $14,
			"series" = $15, "series_title" = $16, "series_text" = $17,
			"doi" = nullif($18, ''), "isi" = nullif($19, ''),
			"assigned_curator" = $20, "container_id" = $21,
			"date_modified" = now()
		where "id" = $1
		`,
		id,
		new.Title, new.Abstract, new.ShortTitle, new.Url,
		new.DatePublishedText, new.ContactAuthorName, new.ContactEmail,
		new.Status, new.IsPrimary,
		new.Pages, new.Issn, new.Volume, new.Issue,
		new.Series, new.SeriesTitle, new.SeriesText,
		new.Doi, new.Isi,
		new.AssignedCurator, new.ContainerId,
	); err != nil {
		return err
	}

	payload := kpgintr.NewVersionedPayload(
		"publication", old.label(id), old.asMap(), new.asMap(), nil,
	)
	if payload == nil {
		// nothing changed. leave no trace.
		return nil
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "publication",
		RowId: id, PublicationId: id, Payload: payload,
	})
	return err
}

func (p *pgPublication) UpdateVocab(ctx context.Context, cmd *domain.AuditCommand, id int, kind domain.VocabKind, recordIds []int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.updateVocab(ctx, tx, cmd, id, kind, recordIds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *pgPublication) updateVocab(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, kind domain.VocabKind, recordIds []int) error {
	label, err := kpgintr.PublicationLabel(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", id)}
		}
		return err
	}

	join, column := kpgintr.VocabJoinTable(kind)
	rows, err := tx.Query(
		ctx,
		fmt.Sprintf(
			`select "id", "%s" from "%s" where "publication_id" = $1 for update`,
			column, join,
		),
		id,
	)
	if err != nil {
		return err
	}
	attached := map[int]int{} // record id -> join row id
	for rows.Next() {
		var joinId, recordId int
		if err := rows.Scan(&joinId, &recordId); err != nil {
			rows.Close()
			return err
		}
		attached[recordId] = joinId
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	want := slices.Deduplicate(recordIds)
	records, err := kpgintr.GetNamedRecords(
		ctx, tx, kind, slices.Concat(want, slices.KeysOf(attached)),
	)
	if err != nil {
		return err
	}
	table := kpgintr.VocabTable(kind)
	for _, recordId := range want {
		if _, ok := records[recordId]; !ok {
			return kpgerr.Missing{Table: table, Identity: fmt.Sprintf("id=%d", recordId)}
		}
	}

	for recordId, joinId := range attached {
		if slices.Contains(want, recordId) {
			continue
		}
		if _, err := tx.Exec(
			ctx, fmt.Sprintf(`delete from "%s" where "id" = $1`, join), joinId,
		); err != nil {
			return err
		}
		r := records[recordId]
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: join, RowId: joinId, PublicationId: id,
			Payload: kpgintr.NewRowPayload(
				join, "",
				map[string]any{"publication_id": id, column: recordId},
				map[string]any{
					"publication": label,
					table:         fmt.Sprintf("%s (%d)", r.Name, r.Id),
				},
			),
		}); err != nil {
			return err
		}
	}

	for _, recordId := range want {
		if _, ok := attached[recordId]; ok {
			continue
		}
		var joinId int
		if err := tx.QueryRow(
			ctx,
			fmt.Sprintf(
				`insert into "%s" ("publication_id", "%s") values ($1, $2) returning "id"`,
				join, column,
			),
			id, recordId,
		).Scan(&joinId); err != nil {
			return err
		}
		r := records[recordId]
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogInsert, Table: join, RowId: joinId, PublicationId: id,
			Payload: kpgintr.NewRowPayload(
				join, "",
				map[string]any{"publication_id": id, column: recordId},
				map[string]any{
					"publication": label,
					table:         fmt.Sprintf("%s (%d)", r.Name, r.Id),
				},
			),
		}); err != nil {
			return err
		}
	}

	return nil
}

func (p *pgPublication) Flag(ctx context.Context, cmd *domain.AuditCommand, id int, message string) (domain.Note, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	defer tx.Rollback(ctx)

	label, err := p.setFlagged(ctx, tx, cmd, id, true)
	if err != nil {
		return domain.Note{}, err
	}
	n, err := p.addNote(ctx, tx, cmd, id, label, message)
	if err != nil {
		return domain.Note{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

func (p *pgPublication) Unflag(ctx context.Context, cmd *domain.AuditCommand, id int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := p.setFlagged(ctx, tx, cmd, id, false); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// setFlagged moves the flagged mark and logs the change when it moves.
// It returns the publication's label for callers which keep writing logs.
func (p *pgPublication) setFlagged(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, flagged bool) (string, error) {
	var label string
	var current bool
	if err := tx.QueryRow(
		ctx,
		`select "title" || ' (' || "id" || ')', "flagged" from "publication" where "id" = $1 for update`,
		id,
	).Scan(&label, &current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", id)}
		}
		return "", err
	}
	if current == flagged {
		return label, nil
	}

	if _, err := tx.Exec(
		ctx,
		`update "publication" set "flagged" = $2, "date_modified" = now() where "id" = $1`,
		id, flagged,
	); err != nil {
		return "", err
	}
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "publication", RowId: id, PublicationId: id,
		Payload: kpgintr.NewVersionedPayload(
			"publication", label,
			map[string]any{"flagged": current},
			map[string]any{"flagged": flagged},
			nil,
		),
	}); err != nil {
		return "", err
	}
	return label, nil
}

func (p *pgPublication) Notes(ctx context.Context, publicationId int) ([]domain.Note, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "text", "added_by", coalesce("publication_id", 0),
			"date_added", "date_modified", "deleted_on", "deleted_by"
		from "note"
		where "publication_id" = $1
		order by "date_added" desc, "id" desc
		`,
		publicationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		n := domain.Note{}
		if err := rows.Scan(
			&n.Id, &n.Text, &n.AddedBy, &n.PublicationId,
			&n.DateAdded, &n.DateModified, &n.DeletedOn, &n.DeletedBy,
		); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (p *pgPublication) AddNote(ctx context.Context, cmd *domain.AuditCommand, publicationId int, text string) (domain.Note, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	defer tx.Rollback(ctx)

	label := ""
	if publicationId != 0 {
		label, err = kpgintr.PublicationLabel(ctx, tx, publicationId)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Note{}, kpgerr.Missing{
					Table: "publication", Identity: fmt.Sprintf("id=%d", publicationId),
				}
			}
			return domain.Note{}, err
		}
	}

	note, err := p.addNote(ctx, tx, cmd, publicationId, label, text)
	if err != nil {
		return domain.Note{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func (p *pgPublication) addNote(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, publicationId int, publicationLabel string, text string) (domain.Note, error) {
	note := domain.Note{Text: text, AddedBy: cmd.Creator, PublicationId: publicationId}
	if err := tx.QueryRow(
		ctx,
		`
		insert into "note" ("text", "added_by", "publication_id")
		values ($1, $2, nullif($3, 0))
		returning "id", "date_added", "date_modified"
		`,
		text, cmd.Creator, publicationId,
	).Scan(&note.Id, &note.DateAdded, &note.DateModified); err != nil {
		return domain.Note{}, err
	}

	labels := map[string]any{}
	if publicationLabel != "" {
		labels["publication"] = publicationLabel
	}
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "note", RowId: note.Id, PublicationId: publicationId,
		Payload: kpgintr.NewRowPayload(
			"note", note.Text,
			map[string]any{
				"text": note.Text, "added_by": note.AddedBy, "publication_id": publicationId,
			},
			labels,
		),
	}); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func (p *pgPublication) DeleteNote(ctx context.Context, cmd *domain.AuditCommand, noteId int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.deleteNote(ctx, tx, cmd, noteId); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *pgPublication) deleteNote(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, noteId int) error {
	note := domain.Note{Id: noteId}
	if err := tx.QueryRow(
		ctx,
		`
		select "text", "added_by", coalesce("publication_id", 0)
		from "note"
		where "id" = $1 and "deleted_on" is null
		for update
		`,
		noteId,
	).Scan(&note.Text, &note.AddedBy, &note.PublicationId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "note", Identity: fmt.Sprintf("id=%d", noteId)}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`update "note" set "deleted_on" = now(), "deleted_by" = $2, "date_modified" = now() where "id" = $1`,
		noteId, cmd.Creator,
	); err != nil {
		return err
	}

	labels := map[string]any{}
	if note.PublicationId != 0 {
		label, err := kpgintr.PublicationLabel(ctx, tx, note.PublicationId)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if label != "" {
			labels["publication"] = label
		}
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogDelete, Table: "note", RowId: noteId, PublicationId: note.PublicationId,
		Payload: kpgintr.NewRowPayload(
			"note", note.Text,
			map[string]any{
				"text": note.Text, "added_by": note.AddedBy, "publication_id": note.PublicationId,
			},
			labels,
		),
	})
	return err
}
