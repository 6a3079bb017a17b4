package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
	kdb "github.com/comses/citation/pkg/domain/merge/db"
	"github.com/comses/citation/pkg/utils/slices"
)

type pgMerge struct { // implements kdb.MergeInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.MergeInterface {
	return &pgMerge{pool: pool}
}

// fill sets dst when it is empty and v is not.
// Merges never overwrite a value the kept record already has.
func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// memberIds joins the kept id and the duplicates, rejecting groups too
// small to merge or naming an id twice.
func memberIds(finalId int, otherIds []int) ([]int, error) {
	if len(otherIds) == 0 {
		return nil, fmt.Errorf("%w: a merge needs at least two records", kdb.ErrNotMergeable)
	}
	members := []int{finalId}
	for _, id := range otherIds {
		if slices.Contains(members, id) {
			return nil, fmt.Errorf("%w: id %d is listed twice", kdb.ErrNotMergeable, id)
		}
		members = append(members, id)
	}
	return members, nil
}

// scalar columns of a publication row, read and written as one unit
// so deletions and updates carry the whole row into the audit trail.
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

func loadPublicationRecords(ctx context.Context, tx kpool.Tx, ids []int) (map[int]publicationRecord, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "id",
			"title", "abstract", "short_title", "url",
			"date_published_text", "contact_author_name", "contact_email",
			"status", "is_primary",
			"pages", "issn", "volume", "issue",
			"series", "series_title", "series_text",
			coalesce("doi", ''), coalesce("isi", ''),
			"assigned_curator", "container_id"
		from "publication" where "id" = any($1::int[]) for update
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := map[int]publicationRecord{}
	for rows.Next() {
		var id int
		r := publicationRecord{}
		if err := rows.Scan(
			&id,
			&r.Title, &r.Abstract, &r.ShortTitle, &r.Url,
			&r.DatePublishedText, &r.ContactAuthorName, &r.ContactEmail,
			&r.Status, &r.IsPrimary,
			&r.Pages, &r.Issn, &r.Volume, &r.Issue,
			&r.Series, &r.SeriesTitle, &r.SeriesText,
			&r.Doi, &r.Isi,
			&r.AssignedCurator, &r.ContainerId,
		); err != nil {
			return nil, err
		}
		recs[id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := recs[id]; !ok {
			return nil, kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", id)}
		}
	}
	return recs, nil
}

// updatePublication writes new over the row and logs the difference.
// old and new are the whole row as loaded in this transaction.
func updatePublication(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, old, new publicationRecord) error {
	if new == old {
		return nil
	}
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
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "publication", RowId: id, PublicationId: id,
		Payload: kpgintr.NewVersionedPayload(
			"publication", new.label(id), old.asMap(), new.asMap(), nil,
		),
	})
	return err
}

type containerRecord struct {
	Type  string
	Name  string
	Issn  string
	Eissn string
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

func loadContainerRecords(ctx context.Context, tx kpool.Tx, ids []int) (map[int]containerRecord, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "id", "type", "name", coalesce("issn", ''), coalesce("eissn", '')
		from "container" where "id" = any($1::int[]) for update
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := map[int]containerRecord{}
	for rows.Next() {
		var id int
		r := containerRecord{}
		if err := rows.Scan(&id, &r.Type, &r.Name, &r.Issn, &r.Eissn); err != nil {
			return nil, err
		}
		recs[id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := recs[id]; !ok {
			return nil, kpgerr.Missing{Table: "container", Identity: fmt.Sprintf("id=%d", id)}
		}
	}
	return recs, nil
}

func updateContainer(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, old, new containerRecord) error {
	if new == old {
		return nil
	}
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
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "container", RowId: id,
		Payload: kpgintr.NewVersionedPayload(
			"container", new.label(id), old.asMap(), new.asMap(), nil,
		),
	})
	return err
}

type authorRecord struct {
	Type         string
	GivenName    string
	FamilyName   string
	Orcid        string
	Researcherid string
	Email        string
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
	name := strings.TrimSpace(r.GivenName + " " + r.FamilyName)
	return fmt.Sprintf("%s (%d)", name, id)
}

func loadAuthorRecords(ctx context.Context, tx kpool.Tx, ids []int) (map[int]authorRecord, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "id", "type", "given_name", "family_name",
			coalesce("orcid", ''), coalesce("researcherid", ''), "email"
		from "author" where "id" = any($1::int[]) for update
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := map[int]authorRecord{}
	for rows.Next() {
		var id int
		r := authorRecord{}
		if err := rows.Scan(
			&id, &r.Type, &r.GivenName, &r.FamilyName,
			&r.Orcid, &r.Researcherid, &r.Email,
		); err != nil {
			return nil, err
		}
		recs[id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := recs[id]; !ok {
			return nil, kpgerr.Missing{Table: "author", Identity: fmt.Sprintf("id=%d", id)}
		}
	}
	return recs, nil
}

func updateAuthor(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, old, new authorRecord) error {
	if new == old {
		return nil
	}
	if _, err := tx.Exec(
		ctx,
		`
		update "author" set
			"given_name" = $2, "family_name" = $3,
			"orcid" = nullif($4, ''), "researcherid" = nullif($5, ''),
			"email" = $6, "date_modified" = now()
		where "id" = $1
		`,
		id, new.GivenName, new.FamilyName, new.Orcid, new.Researcherid, new.Email,
	); err != nil {
		return err
	}
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "author", RowId: id,
		Payload: kpgintr.NewVersionedPayload(
			"author", new.label(id), old.asMap(), new.asMap(), nil,
		),
	})
	return err
}

func (m *pgMerge) MergePublications(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.mergePublications(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *pgMerge) mergePublications(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	members, err := memberIds(finalId, otherIds)
	if err != nil {
		return err
	}
	recs, err := loadPublicationRecords(ctx, tx, members)
	if err != nil {
		return err
	}

	containerIds := []int{recs[finalId].ContainerId}
	for _, id := range otherIds {
		if cid := recs[id].ContainerId; !slices.Contains(containerIds, cid) {
			containerIds = append(containerIds, cid)
		}
	}
	crecs, err := loadContainerRecords(ctx, tx, containerIds)
	if err != nil {
		return err
	}

	if err := publicationsMergeable(ctx, tx, finalId, members, recs, crecs); err != nil {
		return err
	}

	adopt, doomed, err := planCitations(ctx, tx, finalId, otherIds, members)
	if err != nil {
		return err
	}

	condemned := append(append([]int{}, otherIds...), doomed...)
	if err := dropOrphanedCreators(ctx, tx, cmd, condemned); err != nil {
		return err
	}

	if 1 < len(containerIds) {
		if err := mergeContainerRows(ctx, tx, cmd, containerIds[0], containerIds[1:], crecs); err != nil {
			return err
		}
	}

	if err := movePublicationDependents(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}

	for _, citationId := range adopt {
		if err := linkCitation(ctx, tx, cmd, finalId, citationId); err != nil {
			return err
		}
	}
	if err := deleteCitedPublications(ctx, tx, cmd, doomed); err != nil {
		return err
	}
	if err := repointIncoming(ctx, tx, cmd, finalId, otherIds, members); err != nil {
		return err
	}

	old := recs[finalId]
	new := old
	for _, id := range otherIds {
		other := recs[id]
		fill(&new.Title, other.Title)
		fill(&new.Doi, other.Doi)
		fill(&new.Isi, other.Isi)
		fill(&new.Abstract, other.Abstract)
		fill(&new.DatePublishedText, other.DatePublishedText)
	}

	// duplicates go first: the kept row inherits their DOI or ISI only
	// once the unique columns are free.
	for _, id := range otherIds {
		other := recs[id]
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "publication", RowId: id, PublicationId: id,
			Payload: kpgintr.NewRowPayload("publication", other.label(id), other.asMap(), nil),
		}); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from "publication" where "id" = $1`, id); err != nil {
			return err
		}
	}

	return updatePublication(ctx, tx, cmd, finalId, old, new)
}

// publicationsMergeable rejects groups whose members cannot stand in
// for each other.
func publicationsMergeable(ctx context.Context, tx kpool.Tx, finalId int, members []int, recs map[int]publicationRecord, crecs map[int]containerRecord) error {
	for _, id := range members {
		if id == finalId || !recs[id].IsPrimary {
			continue
		}
		if recs[finalId].IsPrimary {
			return fmt.Errorf(
				"%w: publications %d and %d are both primary",
				kdb.ErrNotMergeable, finalId, id,
			)
		}
		return fmt.Errorf(
			"%w: the primary publication %d must be the one kept",
			kdb.ErrNotMergeable, id,
		)
	}

	if err := citationCountsAgree(ctx, tx, members); err != nil {
		return err
	}
	if err := citersDistinct(ctx, tx, members); err != nil {
		return err
	}
	return containersMergeable(crecs)
}

// citationCountsAgree rejects groups whose members cite reference
// lists of different sizes. Two members citing nothing alike would be
// conflated; one citing nothing is a stub and merges fine.
func citationCountsAgree(ctx context.Context, tx kpool.Tx, members []int) error {
	rows, err := tx.Query(
		ctx,
		`
		select count(*) from "publication_citations"
		where "publication_id" = any($1::int[])
		group by "publication_id"
		`,
		members,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	counts := []int{}
	for rows.Next() {
		var count int
		if err := rows.Scan(&count); err != nil {
			return err
		}
		if !slices.Contains(counts, count) {
			counts = append(counts, count)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if 1 < len(counts) {
		return fmt.Errorf(
			"%w: publications cite %v references each",
			kdb.ErrNotMergeable, slices.Sorted(counts, func(a, b int) bool { return a < b }),
		)
	}
	return nil
}

// citersDistinct rejects groups two of whose members appear in one
// reference list. Repointing both at the kept publication would fold
// two citations into one.
func citersDistinct(ctx context.Context, tx kpool.Tx, members []int) error {
	rows, err := tx.Query(
		ctx,
		`
		select "publication_id" from "publication_citations"
		where "citation_id" = any($1::int[])
		group by "publication_id"
		having 1 < count(distinct "citation_id")
		order by "publication_id"
		`,
		members,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	citers := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		citers = append(citers, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if 0 < len(citers) {
		return fmt.Errorf(
			"%w: publications %v cite more than one of the duplicates",
			kdb.ErrNotMergeable, citers,
		)
	}
	return nil
}

// planCitations decides what happens to the reference lists. A kept
// publication without references adopts the duplicates' citations.
// One with its own keeps them, and cited secondary publications
// referenced by nothing outside the group are marked for deletion.
func planCitations(ctx context.Context, tx kpool.Tx, finalId int, otherIds, members []int) (adopt []int, doomed []int, err error) {
	var count int
	if err := tx.QueryRow(
		ctx,
		`select count(*) from "publication_citations" where "publication_id" = $1`,
		finalId,
	).Scan(&count); err != nil {
		return nil, nil, err
	}

	if count == 0 {
		rows, err := tx.Query(
			ctx,
			`
			select distinct "citation_id" from "publication_citations"
			where "publication_id" = any($1::int[])
				and not ("citation_id" = any($2::int[]))
			order by "citation_id"
			`,
			otherIds, members,
		)
		if err != nil {
			return nil, nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				return nil, nil, err
			}
			adopt = append(adopt, id)
		}
		return adopt, nil, rows.Err()
	}

	rows, err := tx.Query(
		ctx,
		`
		select "c"."id" from "publication" "c"
		where not "c"."is_primary"
			and not ("c"."id" = any($2::int[]))
			and "c"."id" in (
				select "citation_id" from "publication_citations"
				where "publication_id" = any($1::int[])
			)
			and not exists (
				select 1 from "publication_citations" "pc"
				where "pc"."citation_id" = "c"."id"
					and not ("pc"."publication_id" = any($1::int[]))
			)
		order by "c"."id"
		`,
		otherIds, members,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		doomed = append(doomed, id)
	}
	return nil, doomed, rows.Err()
}

// dropOrphanedCreators deletes authors whose every byline sits on a
// publication about to be deleted. Their links cascade away with the
// publications; this pass keeps the author catalog free of entries
// nothing references.
func dropOrphanedCreators(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, condemned []int) error {
	if len(condemned) == 0 {
		return nil
	}
	rows, err := tx.Query(
		ctx,
		`
		select distinct "author_id" from "publication_authors" "pa"
		where "pa"."publication_id" = any($1::int[])
			and not exists (
				select 1 from "publication_authors" "q"
				where "q"."author_id" = "pa"."author_id"
					and not ("q"."publication_id" = any($1::int[]))
			)
		order by "author_id"
		`,
		condemned,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	orphaned := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		orphaned = append(orphaned, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(orphaned) == 0 {
		return nil
	}

	arecs, err := loadAuthorRecords(ctx, tx, orphaned)
	if err != nil {
		return err
	}
	for _, id := range orphaned {
		aliases, err := listAuthorAliases(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, alias := range aliases {
			if err := logAuthorAliasDelete(ctx, tx, cmd, id, alias); err != nil {
				return err
			}
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "author", RowId: id,
			Payload: kpgintr.NewRowPayload("author", arecs[id].label(id), arecs[id].asMap(), nil),
		}); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `delete from "author" where "id" = any($1::int[])`, orphaned)
	return err
}

// movePublicationDependents reattaches what hangs off the duplicates
// to the kept publication: raw provenance, archive URLs, their check
// history, notes and vocabulary attachments.
func movePublicationDependents(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	if err := movePublicationRaws(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}
	if err := moveArchiveUrls(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}

	// check history and notes carry no history of their own
	if _, err := tx.Exec(
		ctx,
		`update "url_status_log" set "publication_id" = $2 where "publication_id" = any($1::int[])`,
		otherIds, finalId,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx,
		`update "note" set "publication_id" = $2 where "publication_id" = any($1::int[])`,
		otherIds, finalId,
	); err != nil {
		return err
	}

	// vocabulary attachments move silently, as loads attach silently.
	// Rows already on the kept publication cascade with the duplicates.
	for _, kind := range []domain.VocabKind{
		domain.VocabPlatform, domain.VocabSponsor, domain.VocabTag, domain.VocabModelDocumentation,
	} {
		join, column := kpgintr.VocabJoinTable(kind)
		if _, err := tx.Exec(
			ctx,
			fmt.Sprintf(
				`
				insert into "%s" ("publication_id", "%s")
				select $1, "%s" from "%s" where "publication_id" = any($2::int[])
				on conflict do nothing
				`,
				join, column, column, join,
			),
			finalId, otherIds,
		); err != nil {
			return err
		}
	}
	return nil
}

func movePublicationRaws(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	type rawRow struct{ id, publicationId int }
	raws := []rawRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "publication_id" from "raw" where "publication_id" = any($1::int[]) order by "id"`,
		otherIds,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := rawRow{}
		if err := rows.Scan(&r.id, &r.publicationId); err != nil {
			return err
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range raws {
		if _, err := tx.Exec(
			ctx, `update "raw" set "publication_id" = $2 where "id" = $1`, r.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "raw", RowId: r.id, PublicationId: finalId,
			Payload: kpgintr.NewVersionedPayload(
				"raw", fmt.Sprintf("raw (%d)", r.id),
				map[string]any{"publication_id": r.publicationId},
				map[string]any{"publication_id": finalId},
				nil,
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

func moveArchiveUrls(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	type urlRow struct {
		id            int
		url           string
		publicationId int
	}
	urls := []urlRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "url", "publication_id" from "code_archive_url" where "publication_id" = any($1::int[]) order by "id"`,
		otherIds,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		u := urlRow{}
		if err := rows.Scan(&u.id, &u.url, &u.publicationId); err != nil {
			return err
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, u := range urls {
		if _, err := tx.Exec(
			ctx, `update "code_archive_url" set "publication_id" = $2 where "id" = $1`, u.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "code_archive_url", RowId: u.id, PublicationId: finalId,
			Payload: kpgintr.NewVersionedPayload(
				"code_archive_url", fmt.Sprintf("%s (%d)", u.url, u.id),
				map[string]any{"publication_id": u.publicationId},
				map[string]any{"publication_id": finalId},
				nil,
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

func linkCitation(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId, citationId int) error {
	var linkId int
	err := tx.QueryRow(
		ctx,
		`
		insert into "publication_citations" ("publication_id", "citation_id")
		values ($1, $2)
		on conflict do nothing
		returning "id"
		`,
		pubId, citationId,
	).Scan(&linkId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	pubLabel, err := kpgintr.PublicationLabel(ctx, tx, pubId)
	if err != nil {
		return err
	}
	citationLabel, err := kpgintr.PublicationLabel(ctx, tx, citationId)
	if err != nil {
		return err
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "publication_citations", RowId: linkId, PublicationId: pubId,
		Payload: kpgintr.NewRowPayload(
			"publication_citations", "",
			map[string]any{"publication_id": pubId, "citation_id": citationId},
			map[string]any{"publication": pubLabel, "citation": citationLabel},
		),
	})
	return err
}

// deleteCitedPublications removes cited references the merge leaves
// unreferenced, logging their provenance before the cascade would eat
// it silently.
func deleteCitedPublications(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, doomed []int) error {
	if len(doomed) == 0 {
		return nil
	}
	drecs, err := loadPublicationRecords(ctx, tx, doomed)
	if err != nil {
		return err
	}
	for _, id := range doomed {
		if err := deleteRawsOf(ctx, tx, cmd, id); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "publication", RowId: id, PublicationId: id,
			Payload: kpgintr.NewRowPayload("publication", drecs[id].label(id), drecs[id].asMap(), nil),
		}); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `delete from "publication" where "id" = any($1::int[])`, doomed)
	return err
}

func deleteRawsOf(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, publicationId int) error {
	type rawRow struct {
		id          int
		key         string
		value       string
		containerId int
	}
	raws := []rawRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "key", "value"::text, "container_id" from "raw" where "publication_id" = $1 order by "id"`,
		publicationId,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := rawRow{}
		if err := rows.Scan(&r.id, &r.key, &r.value, &r.containerId); err != nil {
			return err
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(raws) == 0 {
		return nil
	}

	for _, r := range raws {
		var value any
		if err := json.Unmarshal([]byte(r.value), &value); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "raw", RowId: r.id, PublicationId: publicationId,
			Payload: kpgintr.NewRowPayload(
				"raw", fmt.Sprintf("raw (%d)", r.id),
				map[string]any{
					"key": r.key, "value": value,
					"publication_id": publicationId, "container_id": r.containerId,
				},
				nil,
			),
		}); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `delete from "raw" where "publication_id" = $1`, publicationId)
	return err
}

// repointIncoming makes publications citing a duplicate cite the kept
// one. Citations among group members just cascade with the deletions.
func repointIncoming(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds, members []int) error {
	type linkRow struct {
		id            int
		publicationId int
		citationId    int
	}
	links := []linkRow{}
	rows, err := tx.Query(
		ctx,
		`
		select "id", "publication_id", "citation_id" from "publication_citations"
		where "citation_id" = any($1::int[])
			and not ("publication_id" = any($2::int[]))
		order by "id"
		`,
		otherIds, members,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		l := linkRow{}
		if err := rows.Scan(&l.id, &l.publicationId, &l.citationId); err != nil {
			return err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	finalLabel, err := kpgintr.PublicationLabel(ctx, tx, finalId)
	if err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.Exec(
			ctx, `update "publication_citations" set "citation_id" = $2 where "id" = $1`, l.id, finalId,
		); err != nil {
			return err
		}
		citerLabel, err := kpgintr.PublicationLabel(ctx, tx, l.publicationId)
		if err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "publication_citations", RowId: l.id, PublicationId: l.publicationId,
			Payload: kpgintr.NewVersionedPayload(
				"publication_citations", "",
				map[string]any{"citation_id": l.citationId},
				map[string]any{"citation_id": finalId},
				map[string]any{"publication": citerLabel, "citation": finalLabel},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *pgMerge) MergeAuthors(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.mergeAuthors(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *pgMerge) mergeAuthors(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	members, err := memberIds(finalId, otherIds)
	if err != nil {
		return err
	}
	recs, err := loadAuthorRecords(ctx, tx, members)
	if err != nil {
		return err
	}
	if err := authorsMergeable(ctx, tx, members); err != nil {
		return err
	}

	finalLabel := recs[finalId].label(finalId)
	old := recs[finalId]
	new := old
	for _, otherId := range otherIds {
		other := recs[otherId]
		if other.GivenName != new.GivenName || other.FamilyName != new.FamilyName {
			if err := ensureAuthorAlias(ctx, tx, cmd, finalId, other.GivenName, other.FamilyName); err != nil {
				return err
			}
		}
		if err := moveAuthorAliases(ctx, tx, cmd, finalId, otherId, new); err != nil {
			return err
		}
		if err := moveRawLinks(ctx, tx, cmd, finalId, otherId); err != nil {
			return err
		}
		if err := relinkBylines(ctx, tx, cmd, finalId, finalLabel, otherId); err != nil {
			return err
		}
		fill(&new.GivenName, other.GivenName)
		fill(&new.FamilyName, other.FamilyName)
		fill(&new.Orcid, other.Orcid)
		fill(&new.Researcherid, other.Researcherid)
		fill(&new.Email, other.Email)

		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "author", RowId: otherId,
			Payload: kpgintr.NewRowPayload("author", other.label(otherId), other.asMap(), nil),
		}); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from "author" where "id" = $1`, otherId); err != nil {
			return err
		}
	}

	return updateAuthor(ctx, tx, cmd, finalId, old, new)
}

// authorsMergeable rejects groups whose members appear together on one
// byline. Folding those would collapse two distinct creators.
func authorsMergeable(ctx context.Context, tx kpool.Tx, members []int) error {
	rows, err := tx.Query(
		ctx,
		`
		select "publication_id" from "publication_authors"
		where "author_id" = any($1::int[])
		group by "publication_id"
		having 1 < count(distinct "author_id")
		order by "publication_id"
		`,
		members,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	shared := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		shared = append(shared, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if 0 < len(shared) {
		return fmt.Errorf(
			"%w: publications %v credit more than one of the authors",
			kdb.ErrNotMergeable, shared,
		)
	}
	return nil
}

type authorAlias struct {
	Id         int
	GivenName  string
	FamilyName string
}

func (a authorAlias) name() string {
	return strings.TrimSpace(a.GivenName + " " + a.FamilyName)
}

func listAuthorAliases(ctx context.Context, tx kpool.Tx, authorId int) ([]authorAlias, error) {
	rows, err := tx.Query(
		ctx,
		`select "id", "given_name", "family_name" from "author_alias" where "author_id" = $1 order by "id"`,
		authorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := []authorAlias{}
	for rows.Next() {
		a := authorAlias{}
		if err := rows.Scan(&a.Id, &a.GivenName, &a.FamilyName); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func logAuthorAliasDelete(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, authorId int, a authorAlias) error {
	_, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogDelete, Table: "author_alias", RowId: a.Id,
		Payload: kpgintr.NewRowPayload(
			"author_alias", "",
			map[string]any{
				"author_id":   authorId,
				"given_name":  a.GivenName,
				"family_name": a.FamilyName,
			},
			map[string]any{"author_alias": a.name()},
		),
	})
	return err
}

func ensureAuthorAlias(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, authorId int, givenName, familyName string) error {
	if givenName == "" && familyName == "" {
		return nil
	}
	var aliasId int
	err := tx.QueryRow(
		ctx,
		`
		insert into "author_alias" ("author_id", "given_name", "family_name")
		values ($1, $2, $3)
		on conflict do nothing
		returning "id"
		`,
		authorId, givenName, familyName,
	).Scan(&aliasId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "author_alias", RowId: aliasId,
		Payload: kpgintr.NewRowPayload(
			"author_alias", "",
			map[string]any{
				"author_id":   authorId,
				"given_name":  givenName,
				"family_name": familyName,
			},
			map[string]any{"author_alias": strings.TrimSpace(givenName + " " + familyName)},
		),
	})
	return err
}

// moveAuthorAliases hands the aliases of a duplicate to the kept
// author. Spellings the kept author already goes by are dropped.
func moveAuthorAliases(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId, otherId int, final authorRecord) error {
	aliases, err := listAuthorAliases(ctx, tx, otherId)
	if err != nil {
		return err
	}
	for _, a := range aliases {
		known := a.GivenName == final.GivenName && a.FamilyName == final.FamilyName
		if !known {
			var one int
			err := tx.QueryRow(
				ctx,
				`select 1 from "author_alias" where "author_id" = $1 and "given_name" = $2 and "family_name" = $3`,
				finalId, a.GivenName, a.FamilyName,
			).Scan(&one)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			known = err == nil
		}

		if known {
			if err := logAuthorAliasDelete(ctx, tx, cmd, otherId, a); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `delete from "author_alias" where "id" = $1`, a.Id); err != nil {
				return err
			}
			continue
		}

		if _, err := tx.Exec(
			ctx, `update "author_alias" set "author_id" = $2 where "id" = $1`, a.Id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "author_alias", RowId: a.Id,
			Payload: kpgintr.NewVersionedPayload(
				"author_alias", "",
				map[string]any{"author_id": otherId},
				map[string]any{"author_id": finalId},
				map[string]any{"author_alias": a.name()},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

// moveRawLinks hands the provenance links of a duplicate to the kept
// author. Links on records already crediting the kept author cascade
// away with the duplicate.
func moveRawLinks(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId, otherId int) error {
	type linkRow struct{ id, rawId int }
	links := []linkRow{}
	rows, err := tx.Query(
		ctx,
		`
		select "id", "raw_id" from "raw_authors" "ra"
		where "author_id" = $1
			and not exists (
				select 1 from "raw_authors" "q"
				where "q"."raw_id" = "ra"."raw_id" and "q"."author_id" = $2
			)
		order by "id"
		`,
		otherId, finalId,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		l := linkRow{}
		if err := rows.Scan(&l.id, &l.rawId); err != nil {
			return err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.Exec(
			ctx, `update "raw_authors" set "author_id" = $2 where "id" = $1`, l.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "raw_authors", RowId: l.id,
			Payload: kpgintr.NewVersionedPayload(
				"raw_authors", "",
				map[string]any{"author_id": otherId},
				map[string]any{"author_id": finalId},
				map[string]any{"raw": fmt.Sprintf("raw (%d)", l.rawId)},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

// relinkBylines makes the publications crediting a duplicate credit
// the kept author. Validation ruled out bylines carrying both, so the
// updates cannot collide.
func relinkBylines(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, finalLabel string, otherId int) error {
	type linkRow struct{ id, publicationId int }
	links := []linkRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "publication_id" from "publication_authors" where "author_id" = $1 order by "id"`,
		otherId,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		l := linkRow{}
		if err := rows.Scan(&l.id, &l.publicationId); err != nil {
			return err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.Exec(
			ctx, `update "publication_authors" set "author_id" = $2 where "id" = $1`, l.id, finalId,
		); err != nil {
			return err
		}
		pubLabel, err := kpgintr.PublicationLabel(ctx, tx, l.publicationId)
		if err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "publication_authors", RowId: l.id, PublicationId: l.publicationId,
			Payload: kpgintr.NewVersionedPayload(
				"publication_authors", "",
				map[string]any{"author_id": otherId},
				map[string]any{"author_id": finalId},
				map[string]any{"publication": pubLabel, "author": finalLabel},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *pgMerge) MergeContainers(ctx context.Context, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.mergeContainers(ctx, tx, cmd, finalId, otherIds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *pgMerge) mergeContainers(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int) error {
	members, err := memberIds(finalId, otherIds)
	if err != nil {
		return err
	}
	recs, err := loadContainerRecords(ctx, tx, members)
	if err != nil {
		return err
	}
	if err := containersMergeable(recs); err != nil {
		return err
	}
	return mergeContainerRows(ctx, tx, cmd, finalId, otherIds, recs)
}

// containersMergeable rejects groups spanning more than one ISSN or
// EISSN. Those identify distinct venues, whatever the names say.
func containersMergeable(recs map[int]containerRecord) error {
	issns := map[string]bool{}
	eissns := map[string]bool{}
	for _, r := range recs {
		if r.Issn != "" {
			issns[r.Issn] = true
		}
		if r.Eissn != "" {
			eissns[r.Eissn] = true
		}
	}
	if 1 < len(issns) {
		return fmt.Errorf(
			"%w: containers carry distinct ISSNs %v",
			kdb.ErrNotMergeable, sortedKeys(issns),
		)
	}
	if 1 < len(eissns) {
		return fmt.Errorf(
			"%w: containers carry distinct EISSNs %v",
			kdb.ErrNotMergeable, sortedKeys(eissns),
		)
	}
	return nil
}

func sortedKeys(set map[string]bool) []string {
	return slices.Sorted(slices.KeysOf(set), func(a, b string) bool { return a < b })
}

// mergeContainerRows folds duplicate containers into finalId inside
// the caller's transaction. recs holds the loaded, validated rows of
// every member.
func mergeContainerRows(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId int, otherIds []int, recs map[int]containerRecord) error {
	// publications first: their rows block deleting the duplicates
	type pubRow struct {
		id          int
		title       string
		containerId int
	}
	pubs := []pubRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "title", "container_id" from "publication" where "container_id" = any($1::int[]) order by "id"`,
		otherIds,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		p := pubRow{}
		if err := rows.Scan(&p.id, &p.title, &p.containerId); err != nil {
			return err
		}
		pubs = append(pubs, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, p := range pubs {
		if _, err := tx.Exec(
			ctx, `update "publication" set "container_id" = $2 where "id" = $1`, p.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "publication", RowId: p.id, PublicationId: p.id,
			Payload: kpgintr.NewVersionedPayload(
				"publication", fmt.Sprintf("%s (%d)", p.title, p.id),
				map[string]any{"container_id": p.containerId},
				map[string]any{"container_id": finalId},
				nil,
			),
		}); err != nil {
			return err
		}
	}

	old := recs[finalId]
	new := old
	for _, otherId := range otherIds {
		other := recs[otherId]
		if other.Name != new.Name {
			if err := ensureContainerAlias(ctx, tx, cmd, finalId, other.Name); err != nil {
				return err
			}
		}
		if err := moveContainerAliases(ctx, tx, cmd, finalId, otherId, new); err != nil {
			return err
		}
		if err := moveContainerRaws(ctx, tx, cmd, finalId, otherId); err != nil {
			return err
		}
		fill(&new.Type, other.Type)
		fill(&new.Name, other.Name)
		fill(&new.Issn, other.Issn)
		fill(&new.Eissn, other.Eissn)

		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "container", RowId: otherId,
			Payload: kpgintr.NewRowPayload("container", other.label(otherId), other.asMap(), nil),
		}); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from "container" where "id" = $1`, otherId); err != nil {
			return err
		}
	}

	return updateContainer(ctx, tx, cmd, finalId, old, new)
}

func ensureContainerAlias(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, containerId int, name string) error {
	if name == "" {
		return nil
	}
	var aliasId int
	err := tx.QueryRow(
		ctx,
		`
		insert into "container_alias" ("container_id", "name")
		values ($1, $2)
		on conflict do nothing
		returning "id"
		`,
		containerId, name,
	).Scan(&aliasId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "container_alias", RowId: aliasId,
		Payload: kpgintr.NewRowPayload(
			"container_alias", "",
			map[string]any{"container_id": containerId, "name": name},
			map[string]any{"container_alias": name},
		),
	})
	return err
}

// moveContainerAliases hands the aliases of a duplicate to the kept
// container. Names the kept container already goes by are dropped.
func moveContainerAliases(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId, otherId int, final containerRecord) error {
	type aliasRow struct {
		id   int
		name string
	}
	aliases := []aliasRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "name" from "container_alias" where "container_id" = $1 order by "id"`,
		otherId,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		a := aliasRow{}
		if err := rows.Scan(&a.id, &a.name); err != nil {
			return err
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, a := range aliases {
		known := a.name == final.Name
		if !known {
			var one int
			err := tx.QueryRow(
				ctx,
				`select 1 from "container_alias" where "container_id" = $1 and "name" = $2`,
				finalId, a.name,
			).Scan(&one)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			known = err == nil
		}

		if known {
			if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
				Action: domain.LogDelete, Table: "container_alias", RowId: a.id,
				Payload: kpgintr.NewRowPayload(
					"container_alias", "",
					map[string]any{"container_id": otherId, "name": a.name},
					map[string]any{"container_alias": a.name},
				),
			}); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `delete from "container_alias" where "id" = $1`, a.id); err != nil {
				return err
			}
			continue
		}

		if _, err := tx.Exec(
			ctx, `update "container_alias" set "container_id" = $2 where "id" = $1`, a.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "container_alias", RowId: a.id,
			Payload: kpgintr.NewVersionedPayload(
				"container_alias", "",
				map[string]any{"container_id": otherId},
				map[string]any{"container_id": finalId},
				map[string]any{"container_alias": a.name},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

// moveContainerRaws hands the raw provenance stored under a duplicate
// container to the kept one.
func moveContainerRaws(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, finalId, otherId int) error {
	type rawRow struct{ id, publicationId int }
	raws := []rawRow{}
	rows, err := tx.Query(
		ctx,
		`select "id", "publication_id" from "raw" where "container_id" = $1 order by "id"`,
		otherId,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := rawRow{}
		if err := rows.Scan(&r.id, &r.publicationId); err != nil {
			return err
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, r := range raws {
		if _, err := tx.Exec(
			ctx, `update "raw" set "container_id" = $2 where "id" = $1`, r.id, finalId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "raw", RowId: r.id, PublicationId: r.publicationId,
			Payload: kpgintr.NewVersionedPayload(
				"raw", fmt.Sprintf("raw (%d)", r.id),
				map[string]any{"container_id": otherId},
				map[string]any{"container_id": finalId},
				nil,
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *pgMerge) Suggest(ctx context.Context, suggestion domain.SuggestedMerge) (domain.SuggestedMerge, error) {
	if _, err := domain.AsMergeKind(suggestion.Kind.String()); err != nil {
		return domain.SuggestedMerge{}, err
	}
	if len(suggestion.Duplicates) < 2 {
		return domain.SuggestedMerge{}, fmt.Errorf(
			"%w: a merge needs at least two records", kdb.ErrNotMergeable,
		)
	}

	content := suggestion.NewContent
	if content == nil {
		content = map[string]any{}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return domain.SuggestedMerge{}, err
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.SuggestedMerge{}, err
	}
	defer conn.Release()

	suggestion.DateApplied = nil
	if err := conn.QueryRow(
		ctx,
		`
		insert into "suggested_merge"
			("content_type", "duplicates", "new_content", "creator", "comment")
		values ($1, $2::int[], $3::jsonb, $4, $5)
		returning "id", "date_added"
		`,
		suggestion.Kind.String(), suggestion.Duplicates, string(b),
		suggestion.Creator, suggestion.Comment,
	).Scan(&suggestion.Id, &suggestion.DateAdded); err != nil {
		return domain.SuggestedMerge{}, err
	}
	return suggestion, nil
}

func (m *pgMerge) Find(ctx context.Context, filter kdb.SuggestionFilter) ([]int, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var kinds []string
	if 0 < len(filter.Kind) {
		kinds = slices.Map(filter.Kind, domain.MergeKind.String)
	}
	rows, err := conn.Query(
		ctx,
		`
		select "id" from "suggested_merge"
		where ($1::text[] is null or "content_type" = any($1::text[]))
			and ($2::boolean is null or ("date_applied" is not null) = $2)
		order by "id"
		`,
		kinds, filter.Applied,
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
	return ids, rows.Err()
}

func (m *pgMerge) Get(ctx context.Context, ids []int) (map[int]domain.SuggestedMerge, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id", "content_type", "duplicates", "new_content"::text,
			"creator", "comment", "date_added", "date_applied"
		from "suggested_merge" where "id" = any($1::int[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := map[int]domain.SuggestedMerge{}
	for rows.Next() {
		sm, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions[sm.Id] = sm
	}
	return suggestions, rows.Err()
}

func scanSuggestion(row pgx.Row) (domain.SuggestedMerge, error) {
	sm := domain.SuggestedMerge{}
	var kind, content string
	if err := row.Scan(
		&sm.Id, &kind, &sm.Duplicates, &content,
		&sm.Creator, &sm.Comment, &sm.DateAdded, &sm.DateApplied,
	); err != nil {
		return domain.SuggestedMerge{}, err
	}
	sm.Kind = domain.MergeKind(kind)
	if err := json.Unmarshal([]byte(content), &sm.NewContent); err != nil {
		return domain.SuggestedMerge{}, err
	}
	return sm, nil
}

func (m *pgMerge) Apply(ctx context.Context, cmd *domain.AuditCommand, id int) (domain.SuggestedMerge, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.SuggestedMerge{}, err
	}
	defer tx.Rollback(ctx)

	sm, err := m.apply(ctx, tx, cmd, id)
	if err != nil {
		return domain.SuggestedMerge{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.SuggestedMerge{}, err
	}
	return sm, nil
}

func (m *pgMerge) apply(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int) (domain.SuggestedMerge, error) {
	sm, err := scanSuggestion(tx.QueryRow(
		ctx,
		`
		select "id", "content_type", "duplicates", "new_content"::text,
			"creator", "comment", "date_added", "date_applied"
		from "suggested_merge" where "id" = $1 for update
		`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SuggestedMerge{}, kpgerr.Missing{
			Table: "suggested_merge", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	if err != nil {
		return domain.SuggestedMerge{}, err
	}
	if sm.Applied() {
		return domain.SuggestedMerge{}, fmt.Errorf("%w: id=%d", kdb.ErrApplied, id)
	}

	kept, ok := sm.KeptId()
	if !ok {
		return domain.SuggestedMerge{}, fmt.Errorf(
			"%w: suggestion %d lists no duplicates", kdb.ErrNotMergeable, id,
		)
	}
	others := slices.Filter(sm.Duplicates, func(d int) bool { return d != kept })

	switch sm.Kind {
	case domain.MergePublication:
		err = m.mergePublications(ctx, tx, cmd, kept, others)
	case domain.MergeAuthor:
		err = m.mergeAuthors(ctx, tx, cmd, kept, others)
	case domain.MergeContainer:
		err = m.mergeContainers(ctx, tx, cmd, kept, others)
	case domain.MergePlatform:
		err = mergeVocabRecords(ctx, tx, cmd, domain.VocabPlatform, kept, others)
	case domain.MergeSponsor:
		err = mergeVocabRecords(ctx, tx, cmd, domain.VocabSponsor, kept, others)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnknownMergeKind, sm.Kind)
	}
	if err != nil {
		return domain.SuggestedMerge{}, err
	}

	if err := applyNewContent(ctx, tx, cmd, sm.Kind, kept, sm.NewContent); err != nil {
		return domain.SuggestedMerge{}, err
	}

	var applied *time.Time
	if err := tx.QueryRow(
		ctx,
		`update "suggested_merge" set "date_applied" = now() where "id" = $1 returning "date_applied"`,
		id,
	).Scan(&applied); err != nil {
		return domain.SuggestedMerge{}, err
	}
	sm.DateApplied = applied
	return sm, nil
}

// mergeVocabRecords folds duplicate vocabulary records into keptId:
// their publications reattach to it, the duplicates are deleted.
func mergeVocabRecords(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, keptId int, otherIds []int) error {
	members, err := memberIds(keptId, otherIds)
	if err != nil {
		return err
	}
	table := kpgintr.VocabTable(kind)
	recs, err := kpgintr.GetNamedRecords(ctx, tx, kind, members)
	if err != nil {
		return err
	}
	for _, id := range members {
		if _, ok := recs[id]; !ok {
			return kpgerr.Missing{Table: table, Identity: fmt.Sprintf("id=%d", id)}
		}
	}

	join, column := kpgintr.VocabJoinTable(kind)
	publicationIds := []int{}
	rows, err := tx.Query(
		ctx,
		fmt.Sprintf(
			`select distinct "publication_id" from "%s" where "%s" = any($1::int[]) order by "publication_id"`,
			join, column,
		),
		otherIds,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		publicationIds = append(publicationIds, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	kept := recs[keptId]
	for _, publicationId := range publicationIds {
		var joinId int
		err := tx.QueryRow(
			ctx,
			fmt.Sprintf(
				`
				insert into "%s" ("publication_id", "%s")
				values ($1, $2)
				on conflict do nothing
				returning "id"
				`,
				join, column,
			),
			publicationId, keptId,
		).Scan(&joinId)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		publicationLabel, err := kpgintr.PublicationLabel(ctx, tx, publicationId)
		if err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogInsert, Table: join, RowId: joinId, PublicationId: publicationId,
			Payload: kpgintr.NewRowPayload(
				join, "",
				map[string]any{"publication_id": publicationId, column: keptId},
				map[string]any{
					"publication": publicationLabel,
					table:         namedLabel(kept),
				},
			),
		}); err != nil {
			return err
		}
	}

	for _, id := range otherIds {
		r := recs[id]
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: table, RowId: id,
			Payload: kpgintr.NewRowPayload(table, namedLabel(r), vocabMap(kind, r), nil),
		}); err != nil {
			return err
		}
	}
	_, err = tx.Exec(
		ctx,
		fmt.Sprintf(`delete from "%s" where "id" = any($1::int[])`, table),
		otherIds,
	)
	return err
}

func namedLabel(r domain.NamedRecord) string {
	return fmt.Sprintf("%s (%d)", r.Name, r.Id)
}

func vocabMap(kind domain.VocabKind, r domain.NamedRecord) map[string]any {
	data := map[string]any{"name": r.Name}
	if kpgintr.VocabHasMeta(kind) {
		data["url"] = r.Url
		data["description"] = r.Description
	}
	return data
}

// applyNewContent overwrites fields of the kept record with the values
// the suggestion proposed. Unknown keys and non-string values are
// ignored.
func applyNewContent(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.MergeKind, id int, content map[string]any) error {
	if len(content) == 0 {
		return nil
	}
	pick := func(dst *string, key string) {
		if v, ok := content[key].(string); ok {
			*dst = v
		}
	}

	switch kind {
	case domain.MergePublication:
		recs, err := loadPublicationRecords(ctx, tx, []int{id})
		if err != nil {
			return err
		}
		old := recs[id]
		new := old
		pick(&new.Title, "title")
		pick(&new.Abstract, "abstract")
		pick(&new.DatePublishedText, "date_published_text")
		pick(&new.Doi, "doi")
		pick(&new.Isi, "isi")
		return updatePublication(ctx, tx, cmd, id, old, new)

	case domain.MergeAuthor:
		recs, err := loadAuthorRecords(ctx, tx, []int{id})
		if err != nil {
			return err
		}
		old := recs[id]
		new := old
		pick(&new.GivenName, "given_name")
		pick(&new.FamilyName, "family_name")
		pick(&new.Orcid, "orcid")
		pick(&new.Researcherid, "researcherid")
		pick(&new.Email, "email")
		return updateAuthor(ctx, tx, cmd, id, old, new)

	case domain.MergeContainer:
		recs, err := loadContainerRecords(ctx, tx, []int{id})
		if err != nil {
			return err
		}
		old := recs[id]
		new := old
		pick(&new.Type, "type")
		pick(&new.Name, "name")
		pick(&new.Issn, "issn")
		pick(&new.Eissn, "eissn")
		return updateContainer(ctx, tx, cmd, id, old, new)

	case domain.MergePlatform, domain.MergeSponsor:
		kinds := map[domain.MergeKind]domain.VocabKind{
			domain.MergePlatform: domain.VocabPlatform,
			domain.MergeSponsor:  domain.VocabSponsor,
		}
		return overwriteVocabRecord(ctx, tx, cmd, kinds[kind], id, content)
	}
	return nil
}

func overwriteVocabRecord(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, kind domain.VocabKind, id int, content map[string]any) error {
	table := kpgintr.VocabTable(kind)
	recs, err := kpgintr.GetNamedRecords(ctx, tx, kind, []int{id})
	if err != nil {
		return err
	}
	old, ok := recs[id]
	if !ok {
		return kpgerr.Missing{Table: table, Identity: fmt.Sprintf("id=%d", id)}
	}

	new := old
	if v, ok := content["name"].(string); ok {
		new.Name = v
	}
	if v, ok := content["url"].(string); ok {
		new.Url = v
	}
	if v, ok := content["description"].(string); ok {
		new.Description = v
	}
	if new == old {
		return nil
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
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: table, RowId: id,
		Payload: kpgintr.NewVersionedPayload(
			table, namedLabel(new), vocabMap(kind, old), vocabMap(kind, new), nil,
		),
	})
	return err
}

func (m *pgMerge) DoiDuplicateGroups(ctx context.Context) ([][]int, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select array_agg("id" order by "date_added", "id")
		from "publication"
		where "doi" is not null and "doi" <> ''
		group by lower("doi")
		having 1 < count(*)
		order by min("id")
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGroups(rows)
}

func (m *pgMerge) ContainerDuplicateGroups(ctx context.Context) ([][]int, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select array_agg("id" order by "date_added", "id")
		from "container"
		where "name" <> ''
		group by lower("name")
		having 1 < count(*)
		order by min("id")
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGroups(rows)
}

func scanGroups(rows pgx.Rows) ([][]int, error) {
	groups := [][]int{}
	for rows.Next() {
		var group []int
		if err := rows.Scan(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (m *pgMerge) LowercaseDois(ctx context.Context, cmd *domain.AuditCommand) (int, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	count, err := m.lowercaseDois(ctx, tx, cmd)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

func (m *pgMerge) lowercaseDois(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand) (int, error) {
	type pubRow struct {
		id    int
		title string
		doi   string
	}
	pubs := []pubRow{}
	rows, err := tx.Query(
		ctx,
		`
		select "id", "title", "doi" from "publication"
		where "doi" is not null and "doi" <> lower("doi")
		order by "id"
		for update
		`,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	for rows.Next() {
		p := pubRow{}
		if err := rows.Scan(&p.id, &p.title, &p.doi); err != nil {
			return 0, err
		}
		pubs = append(pubs, p)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, p := range pubs {
		if _, err := tx.Exec(
			ctx,
			`update "publication" set "doi" = lower("doi"), "date_modified" = now() where "id" = $1`,
			p.id,
		); err != nil {
			return 0, err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogUpdate, Table: "publication", RowId: p.id, PublicationId: p.id,
			Payload: kpgintr.NewVersionedPayload(
				"publication", fmt.Sprintf("%s (%d)", p.title, p.id),
				map[string]any{"doi": p.doi},
				map[string]any{"doi": strings.ToLower(p.doi)},
				nil,
			),
		}); err != nil {
			return 0, err
		}
	}
	return len(pubs), nil
}
