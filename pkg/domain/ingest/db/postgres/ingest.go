package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/comses/citation/pkg/domain/ingest/db"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
)

type pgIngest struct { // implements kdb.IngestInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.IngestInterface {
	return &pgIngest{pool: pool}
}

// fill sets dst when it is empty and v is not.
// Loads never overwrite a value already in the catalog.
func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (i *pgIngest) Register(ctx context.Context, cmd *domain.AuditCommand, stub domain.PublicationStub) (kdb.Loaded, error) {
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return kdb.Loaded{}, err
	}
	defer tx.Rollback(ctx)

	loaded, err := i.register(ctx, tx, cmd, stub)
	if err != nil {
		return kdb.Loaded{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return kdb.Loaded{}, err
	}
	return loaded, nil
}

func (i *pgIngest) register(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, stub domain.PublicationStub) (kdb.Loaded, error) {
	pubId, err := findDuplicatePublication(ctx, tx, stub.Body)
	if err != nil {
		return kdb.Loaded{}, err
	}

	var loaded kdb.Loaded
	if pubId == 0 {
		loaded, err = i.create(ctx, tx, cmd, stub)
	} else {
		loaded, err = i.fold(ctx, tx, cmd, pubId, stub)
	}
	if err != nil {
		return kdb.Loaded{}, err
	}

	if err := attachTags(ctx, tx, loaded.PublicationId, stub.Tags); err != nil {
		return kdb.Loaded{}, err
	}
	return loaded, nil
}

// findDuplicatePublication matches body against the catalog: same DOI,
// same ISI, or same title and publishing date compared case-insensitively.
// The oldest match wins. 0 means no duplicate.
func findDuplicatePublication(ctx context.Context, conn kpool.Queryer, body domain.PublicationBody) (int, error) {
	var id int
	err := conn.QueryRow(
		ctx,
		`
		select "id" from "publication"
		where ($1 <> '' and "doi" = $1)
			or ($2 <> '' and "isi" = $2)
			or ($3 <> '' and $4 <> ''
				and lower("title") = lower($3)
				and lower("date_published_text") = lower($4))
		order by "date_added", "id"
		limit 1
		`,
		body.Doi, body.Isi, body.Title, body.DatePublishedText,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// create stores a record nothing in the catalog matched.
func (i *pgIngest) create(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, stub domain.PublicationStub) (kdb.Loaded, error) {
	containerId, err := ensureContainer(ctx, tx, cmd, stub.Container)
	if err != nil {
		return kdb.Loaded{}, err
	}

	pubId, err := insertPublication(ctx, tx, containerId, cmd.Creator, stub.Body)
	if err != nil {
		return kdb.Loaded{}, err
	}
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "publication", RowId: pubId, PublicationId: pubId,
		Payload: kpgintr.NewRowPayload(
			"publication", fmt.Sprintf("%s (%d)", stub.Body.Title, pubId),
			map[string]any{
				"title":               stub.Body.Title,
				"abstract":            stub.Body.Abstract,
				"date_published_text": stub.Body.DatePublishedText,
				"is_primary":          stub.Body.IsPrimary,
				"pages":               stub.Body.Pages,
				"issn":                stub.Body.Issn,
				"volume":              stub.Body.Volume,
				"issue":               stub.Body.Issue,
				"series":              stub.Body.Series,
				"series_title":        stub.Body.SeriesTitle,
				"series_text":         stub.Body.SeriesText,
				"doi":                 stub.Body.Doi,
				"isi":                 stub.Body.Isi,
				"added_by":            cmd.Creator,
				"container_id":        containerId,
			},
			nil,
		),
	}); err != nil {
		return kdb.Loaded{}, err
	}

	if _, err := ensureAuthors(ctx, tx, cmd, pubId, stub.Authors); err != nil {
		return kdb.Loaded{}, err
	}

	rawId := 0
	if stub.RawKey != "" {
		raw, err := insertRaw(ctx, tx, pubId, containerId, stub.RawKey, stub.RawValue)
		if err != nil {
			return kdb.Loaded{}, err
		}
		rawId = raw.Id
	}

	for _, cs := range stub.Citations {
		if err := i.cite(ctx, tx, cmd, pubId, cs); err != nil {
			return kdb.Loaded{}, err
		}
	}

	return kdb.Loaded{PublicationId: pubId, RawId: rawId, Created: true}, nil
}

// fold augments the existing duplicate of a record instead of creating
// another copy. The record is kept as provenance only when it changed
// the catalog; a re-load of known data leaves no trace.
func (i *pgIngest) fold(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, stub domain.PublicationStub) (kdb.Loaded, error) {
	unmatched, err := augmentCreators(ctx, tx, cmd, pubId, stub.Authors)
	if err != nil {
		return kdb.Loaded{}, err
	}

	containerId, err := augmentPublication(ctx, tx, cmd, pubId, stub.Body)
	if err != nil {
		return kdb.Loaded{}, err
	}
	if err := augmentContainer(ctx, tx, cmd, containerId, stub.Container); err != nil {
		return kdb.Loaded{}, err
	}

	rawId := 0
	if stub.RawKey != "" && cmd.Saved() {
		raw, err := insertRaw(ctx, tx, pubId, containerId, stub.RawKey, stub.RawValue)
		if err != nil {
			return kdb.Loaded{}, err
		}
		rawId = raw.Id
	}

	if err := i.augmentCitations(ctx, tx, cmd, pubId, stub.Citations); err != nil {
		return kdb.Loaded{}, err
	}

	return kdb.Loaded{PublicationId: pubId, RawId: rawId, UnmatchedAuthors: unmatched}, nil
}

// scalar fields a load may fill on a publication, read and written as
// one unit so fills can be diffed for the audit payload.
type publicationRecord struct {
	Title             string
	Abstract          string
	DatePublishedText string
	Doi               string
	Isi               string
	Volume            string
	Pages             string
	IsPrimary         bool
}

func (r publicationRecord) asMap() map[string]any {
	return map[string]any{
		"title":               r.Title,
		"abstract":            r.Abstract,
		"date_published_text": r.DatePublishedText,
		"doi":                 r.Doi,
		"isi":                 r.Isi,
		"volume":              r.Volume,
		"pages":               r.Pages,
		"is_primary":          r.IsPrimary,
	}
}

func (r publicationRecord) label(id int) string {
	return fmt.Sprintf("%s (%d)", r.Title, id)
}

// augmentPublication fills the empty fields of a publication from body.
// A secondary publication showing up as a record of its own becomes
// primary. Returns the publication's container id.
func augmentPublication(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, body domain.PublicationBody) (int, error) {
	old := publicationRecord{}
	var containerId int
	if err := tx.QueryRow(
		ctx,
		`
		select "title", "abstract", "date_published_text",
			coalesce("doi", ''), coalesce("isi", ''),
			"volume", "pages", "is_primary", "container_id"
		from "publication" where "id" = $1 for update
		`,
		id,
	).Scan(
		&old.Title, &old.Abstract, &old.DatePublishedText,
		&old.Doi, &old.Isi,
		&old.Volume, &old.Pages, &old.IsPrimary, &containerId,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", id)}
		}
		return 0, err
	}

	new := old
	fill(&new.Title, body.Title)
	fill(&new.Abstract, body.Abstract)
	fill(&new.DatePublishedText, body.DatePublishedText)
	fill(&new.Doi, body.Doi)
	fill(&new.Isi, body.Isi)
	fill(&new.Volume, body.Volume)
	fill(&new.Pages, body.Pages)
	if !old.IsPrimary && body.IsPrimary {
		new.IsPrimary = true
	}
	if new == old {
		// nothing to fill. leave no trace.
		return containerId, nil
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "publication" set
			"title" = $2, "abstract" = $3, "date_published_text" = $4,
			"doi" = nullif($5, ''), "isi" = nullif($6, ''),
			"volume" = $7, "pages" = $8, "is_primary" = $9,
			"date_modified" = now()
		where "id" = $1
		`,
		id, new.Title, new.Abstract, new.DatePublishedText,
		new.Doi, new.Isi, new.Volume, new.Pages, new.IsPrimary,
	); err != nil {
		return 0, err
	}

	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogUpdate, Table: "publication", RowId: id, PublicationId: id,
		Payload: kpgintr.NewVersionedPayload(
			"publication", new.label(id), old.asMap(), new.asMap(), nil,
		),
	}); err != nil {
		return 0, err
	}
	return containerId, nil
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

// ensureContainer finds the container of a record: one sharing an ISSN
// or a name, its empty fields filled from the record, or a new row.
func ensureContainer(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, cs domain.ContainerStub) (int, error) {
	var id int
	err := tx.QueryRow(
		ctx,
		`
		select "id" from "container"
		where ($1 <> '' and ("issn" = $1 or "eissn" = $1))
			or ($2 <> '' and ("issn" = $2 or "eissn" = $2))
			or ($3 <> '' and "name" = $3)
		order by "date_added", "id"
		limit 1
		`,
		cs.Issn, cs.Eissn, cs.Name,
	).Scan(&id)
	if err == nil {
		return id, augmentContainer(ctx, tx, cmd, id, cs)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = tx.QueryRow(
		ctx,
		`
		insert into "container" ("type", "name", "issn", "eissn")
		values ($1, $2, nullif($3, ''), nullif($4, ''))
		returning "id"
		`,
		cs.Type, cs.Name, cs.Issn, cs.Eissn,
	).Scan(&id)
	return id, err
}

// ensureNamedContainer is the container lookup for cited references,
// which bring a name at best. A nameless reference gets a fresh row of
// its own rather than a link to some shared nameless container.
func ensureNamedContainer(ctx context.Context, tx kpool.Tx, name string) (int, error) {
	var id int
	err := tx.QueryRow(
		ctx,
		`
		select "id" from "container"
		where "name" = $1 and "name" <> ''
		order by "date_added", "id"
		limit 1
		`,
		name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = tx.QueryRow(
		ctx, `insert into "container" ("name") values ($1) returning "id"`, name,
	).Scan(&id)
	return id, err
}

func augmentContainer(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, cs domain.ContainerStub) error {
	old := containerRecord{}
	if err := tx.QueryRow(
		ctx,
		`
		select "type", "name", coalesce("issn", ''), coalesce("eissn", '')
		from "container" where "id" = $1 for update
		`,
		id,
	).Scan(&old.Type, &old.Name, &old.Issn, &old.Eissn); err != nil {
		return err
	}

	new := old
	fill(&new.Type, cs.Type)
	fill(&new.Name, cs.Name)
	fill(&new.Issn, cs.Issn)
	fill(&new.Eissn, cs.Eissn)
	if new == old {
		// nothing to fill. leave no trace.
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

// findDuplicateAuthor matches a stub against the catalog: a shared
// ORCID, a shared ResearcherID, or the same name compared
// case-insensitively. The oldest match wins; 0 means none.
//
// publicationId restricts the search to the creators of one
// publication. 0 searches everything.
func findDuplicateAuthor(ctx context.Context, conn kpool.Queryer, publicationId int, as domain.AuthorStub) (int, error) {
	var id int
	err := conn.QueryRow(
		ctx,
		`
		select "id" from "author"
		where (($1 <> '' and "orcid" = $1)
				or ($2 <> '' and "researcherid" = $2)
				or (($3 <> '' or $4 <> '')
					and lower("given_name") = lower($3)
					and lower("family_name") = lower($4)))
			and ($5 = 0 or "id" in (
				select "author_id" from "publication_authors"
				where "publication_id" = $5
			))
		order by "date_added", "id"
		limit 1
		`,
		as.Orcid, as.Researcherid, as.GivenName, as.FamilyName, publicationId,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func insertAuthor(ctx context.Context, conn kpool.Queryer, as domain.AuthorStub) (int, error) {
	typ := as.Type
	if typ == "" {
		typ = domain.Individual
	}
	var id int
	err := conn.QueryRow(
		ctx,
		`
		insert into "author"
			("type", "given_name", "family_name", "orcid", "researcherid", "email")
		values ($1, $2, $3, nullif($4, ''), nullif($5, ''), $6)
		returning "id"
		`,
		typ.String(), as.GivenName, as.FamilyName, as.Orcid, as.Researcherid, as.Email,
	).Scan(&id)
	return id, err
}

func augmentAuthor(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, id int, as domain.AuthorStub) error {
	old := authorRecord{}
	if err := tx.QueryRow(
		ctx,
		`
		select "type", "given_name", "family_name",
			coalesce("orcid", ''), coalesce("researcherid", ''), "email"
		from "author" where "id" = $1 for update
		`,
		id,
	).Scan(
		&old.Type, &old.GivenName, &old.FamilyName,
		&old.Orcid, &old.Researcherid, &old.Email,
	); err != nil {
		return err
	}

	new := old
	fill(&new.GivenName, as.GivenName)
	fill(&new.FamilyName, as.FamilyName)
	fill(&new.Orcid, as.Orcid)
	fill(&new.Researcherid, as.Researcherid)
	fill(&new.Email, as.Email)
	if new == old {
		// nothing to fill. leave no trace.
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

// linkAuthor makes the author a creator of the publication, unless they
// are one already. Linking a reused author is audited; cmd == nil skips
// the log for links created together with the publication itself.
func linkAuthor(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId, authorId int) error {
	var linkId int
	err := tx.QueryRow(
		ctx,
		`
		insert into "publication_authors" ("publication_id", "author_id")
		values ($1, $2)
		on conflict do nothing
		returning "id"
		`,
		pubId, authorId,
	).Scan(&linkId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}

	pubLabel, err := kpgintr.PublicationLabel(ctx, tx, pubId)
	if err != nil {
		return err
	}
	a := authorRecord{}
	if err := tx.QueryRow(
		ctx, `select "given_name", "family_name" from "author" where "id" = $1`, authorId,
	).Scan(&a.GivenName, &a.FamilyName); err != nil {
		return err
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "publication_authors", RowId: linkId, PublicationId: pubId,
		Payload: kpgintr.NewRowPayload(
			"publication_authors", "",
			map[string]any{"publication_id": pubId, "author_id": authorId, "role": domain.RoleAuthor.String()},
			map[string]any{"publication": pubLabel, "author": a.label(authorId)},
		),
	})
	return err
}

// ensureAuthors attaches stubs to a publication, reusing catalog
// authors where possible; matches get their empty fields filled.
// It reports whether anything was written.
func ensureAuthors(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, stubs []domain.AuthorStub) (bool, error) {
	wrote := false
	for _, as := range stubs {
		authorId, err := findDuplicateAuthor(ctx, tx, 0, as)
		if err != nil {
			return wrote, err
		}
		if authorId == 0 {
			if authorId, err = insertAuthor(ctx, tx, as); err != nil {
				return wrote, err
			}
			if err := linkAuthor(ctx, tx, nil, pubId, authorId); err != nil {
				return wrote, err
			}
			wrote = true
			continue
		}
		if err := augmentAuthor(ctx, tx, cmd, authorId, as); err != nil {
			return wrote, err
		}
		if err := linkAuthor(ctx, tx, cmd, pubId, authorId); err != nil {
			return wrote, err
		}
		wrote = true
	}
	return wrote, nil
}

// augmentCreators matches stubs against the creators of an existing
// publication.
//
// On a primary publication, matched creators get their empty fields
// filled. The leftovers are created only when every stub found its
// creator; otherwise creating them would duplicate authors the catalog
// spells differently, so they are returned unstored. Creators of a
// secondary publication carry too little to match against and are
// replaced wholesale.
func augmentCreators(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, stubs []domain.AuthorStub) ([]domain.AuthorStub, error) {
	var isPrimary bool
	if err := tx.QueryRow(
		ctx, `select "is_primary" from "publication" where "id" = $1 for update`, pubId,
	).Scan(&isPrimary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kpgerr.Missing{Table: "publication", Identity: fmt.Sprintf("id=%d", pubId)}
		}
		return nil, err
	}

	if !isPrimary {
		if err := deleteCreators(ctx, tx, cmd, pubId); err != nil {
			return nil, err
		}
		_, err := ensureAuthors(ctx, tx, cmd, pubId, stubs)
		return nil, err
	}

	var creatorCount int
	if err := tx.QueryRow(
		ctx, `select count(*) from "publication_authors" where "publication_id" = $1`, pubId,
	).Scan(&creatorCount); err != nil {
		return nil, err
	}

	matched := 0
	unmatched := []domain.AuthorStub{}
	for _, as := range stubs {
		authorId, err := findDuplicateAuthor(ctx, tx, pubId, as)
		if err != nil {
			return nil, err
		}
		if authorId == 0 {
			unmatched = append(unmatched, as)
			continue
		}
		if err := augmentAuthor(ctx, tx, cmd, authorId, as); err != nil {
			return nil, err
		}
		matched++
	}

	if matched == creatorCount {
		_, err := ensureAuthors(ctx, tx, cmd, pubId, unmatched)
		return nil, err
	}
	return unmatched, nil
}

// deleteCreators clears the creator list of a secondary publication.
// Authors known from nowhere else go away entirely; one shared with
// another publication is only unlinked.
func deleteCreators(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int) error {
	rows, err := tx.Query(
		ctx,
		`
		select "pa"."id", "a"."id", "a"."type", "a"."given_name", "a"."family_name",
			coalesce("a"."orcid", ''), coalesce("a"."researcherid", ''), "a"."email",
			(select count(*) from "publication_authors" where "author_id" = "a"."id")
		from "author" as "a"
		inner join "publication_authors" as "pa" on "pa"."author_id" = "a"."id"
		where "pa"."publication_id" = $1
		order by "pa"."id"
		`,
		pubId,
	)
	if err != nil {
		return err
	}
	type creator struct {
		linkId int
		id     int
		links  int
		authorRecord
	}
	creators := []creator{}
	for rows.Next() {
		c := creator{}
		if err := rows.Scan(
			&c.linkId, &c.id, &c.Type, &c.GivenName, &c.FamilyName,
			&c.Orcid, &c.Researcherid, &c.Email, &c.links,
		); err != nil {
			rows.Close()
			return err
		}
		creators = append(creators, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range creators {
		if c.links == 1 {
			// deleting the author cascades the link
			if _, err := tx.Exec(ctx, `delete from "author" where "id" = $1`, c.id); err != nil {
				return err
			}
			if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
				Action: domain.LogDelete, Table: "author", RowId: c.id, PublicationId: pubId,
				Payload: kpgintr.NewRowPayload("author", c.label(c.id), c.asMap(), nil),
			}); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(
			ctx, `delete from "publication_authors" where "id" = $1`, c.linkId,
		); err != nil {
			return err
		}
		if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
			Action: domain.LogDelete, Table: "publication_authors", RowId: c.linkId, PublicationId: pubId,
			Payload: kpgintr.NewRowPayload(
				"publication_authors", "",
				map[string]any{"publication_id": pubId, "author_id": c.id},
				map[string]any{"author": c.label(c.id)},
			),
		}); err != nil {
			return err
		}
	}
	return nil
}

// augmentCitations stores the cited references of a record, but only
// onto a publication which has none yet. References say so little that
// re-matching them against an existing citation list is hopeless.
func (i *pgIngest) augmentCitations(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, stubs []domain.CitationStub) error {
	if len(stubs) == 0 {
		return nil
	}
	var cited int
	if err := tx.QueryRow(
		ctx, `select count(*) from "publication_citations" where "publication_id" = $1`, pubId,
	).Scan(&cited); err != nil {
		return err
	}
	if 0 < cited {
		return nil
	}
	for _, cs := range stubs {
		if err := i.cite(ctx, tx, cmd, pubId, cs); err != nil {
			return err
		}
	}
	return nil
}

// cite stores one cited reference of a publication.
//
// A reference carries a DOI at best; one matching a known publication
// is folded into it. Anything else becomes a fresh secondary
// publication with its single guessed author, so later loads of the
// cited work itself can take the row over.
func (i *pgIngest) cite(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, cs domain.CitationStub) error {
	citationId := 0
	if cs.Doi != "" {
		var err error
		citationId, err = findDuplicatePublication(ctx, tx, domain.PublicationBody{Doi: cs.Doi})
		if err != nil {
			return err
		}
	}
	if citationId != 0 {
		return i.foldCitation(ctx, tx, cmd, pubId, citationId, cs)
	}

	containerId, err := ensureNamedContainer(ctx, tx, cs.ContainerName)
	if err != nil {
		return err
	}
	citationId, err = insertPublication(ctx, tx, containerId, cmd.Creator, domain.PublicationBody{
		DatePublishedText: cs.Year,
		Doi:               cs.Doi,
	})
	if err != nil {
		return err
	}

	if cs.AuthorName != "" {
		family, given := domain.NormalizeAuthorName(cs.AuthorName)
		authorId, err := insertAuthor(ctx, tx, domain.AuthorStub{
			GivenName: given, FamilyName: family,
		})
		if err != nil {
			return err
		}
		if err := linkAuthor(ctx, tx, nil, citationId, authorId); err != nil {
			return err
		}
	}

	if err := linkCitation(ctx, tx, nil, pubId, citationId); err != nil {
		return err
	}
	_, err = insertRaw(ctx, tx, citationId, containerId, domain.RawBibtexRef, cs.RefText)
	return err
}

// foldCitation points a reference at the known publication its DOI
// names, filling what the reference knows and the catalog does not.
func (i *pgIngest) foldCitation(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId, citationId int, cs domain.CitationStub) error {
	containerId, err := augmentPublication(ctx, tx, cmd, citationId, domain.PublicationBody{
		DatePublishedText: cs.Year,
		Doi:               cs.Doi,
	})
	if err != nil {
		return err
	}
	if err := augmentContainer(ctx, tx, cmd, containerId, domain.ContainerStub{Name: cs.ContainerName}); err != nil {
		return err
	}

	if cs.AuthorName != "" {
		family, given := domain.NormalizeAuthorName(cs.AuthorName)
		as := domain.AuthorStub{GivenName: given, FamilyName: family}
		authorId, err := findDuplicateAuthor(ctx, tx, 0, as)
		if err != nil {
			return err
		}
		if authorId != 0 {
			if err := augmentAuthor(ctx, tx, cmd, authorId, as); err != nil {
				return err
			}
			if err := linkAuthor(ctx, tx, cmd, citationId, authorId); err != nil {
				return err
			}
		}
	}

	if err := linkCitation(ctx, tx, cmd, pubId, citationId); err != nil {
		return err
	}

	if cmd.Saved() {
		_, err := insertRaw(ctx, tx, citationId, containerId, domain.RawBibtexRef, cs.RefText)
		return err
	}
	return nil
}

// linkCitation records that one publication cites another, unless it
// does already. cmd == nil skips the audit log, as with linkAuthor.
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
	if cmd == nil {
		return nil
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

// insertPublication writes the row only. Status, flags and curator
// assignment start at their defaults; audit logging is the caller's
// business since cited references are not logged.
func insertPublication(ctx context.Context, conn kpool.Queryer, containerId int, addedBy string, body domain.PublicationBody) (int, error) {
	var id int
	err := conn.QueryRow(
		ctx,
		`
		insert into "publication"
			("title", "abstract", "date_published_text", "is_primary",
			 "pages", "issn", "volume", "issue", "series", "series_title", "series_text",
			 "doi", "isi", "added_by", "container_id")
		values
			($1, $2, $3, $4,
			 $5, $6, $7, $8, $9, $10, $11,
			 nullif($12, ''), nullif($13, ''), $14, $15)
		returning "id"
		`,
		body.Title, body.Abstract, body.DatePublishedText, body.IsPrimary,
		body.Pages, body.Issn, body.Volume, body.Issue, body.Series, body.SeriesTitle, body.SeriesText,
		body.Doi, body.Isi, addedBy, containerId,
	).Scan(&id)
	return id, err
}

// attachTags tags the publication, creating tag rows as needed. Names
// are matched case-insensitively so spelling variants stay one tag.
func attachTags(ctx context.Context, tx kpool.Tx, pubId int, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		var tagId int
		err := tx.QueryRow(
			ctx,
			`select "id" from "tag" where lower("name") = lower($1) order by "id" limit 1`,
			name,
		).Scan(&tagId)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(
				ctx, `insert into "tag" ("name") values ($1) returning "id"`, name,
			).Scan(&tagId)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "publication_tags" ("publication_id", "tag_id")
			values ($1, $2)
			on conflict do nothing
			`,
			pubId, tagId,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertRaw(ctx context.Context, conn kpool.Queryer, pubId, containerId int, key domain.RawKey, value any) (domain.Raw, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return domain.Raw{}, err
	}
	raw := domain.Raw{
		Key: key, Value: value, PublicationId: pubId, ContainerId: containerId,
	}
	err = conn.QueryRow(
		ctx,
		`
		insert into "raw" ("key", "value", "publication_id", "container_id")
		values ($1, $2::jsonb, $3, $4)
		returning "id", "date_added"
		`,
		key.String(), string(b), pubId, containerId,
	).Scan(&raw.Id, &raw.DateAdded)
	return raw, err
}

func (i *pgIngest) Enrich(ctx context.Context, cmd *domain.AuditCommand, publicationId int, stub domain.PublicationStub) (domain.Raw, error) {
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return domain.Raw{}, err
	}
	defer tx.Rollback(ctx)

	raw, err := i.enrich(ctx, tx, cmd, publicationId, stub)
	if err != nil {
		return domain.Raw{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Raw{}, err
	}
	return raw, nil
}

func (i *pgIngest) enrich(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, pubId int, stub domain.PublicationStub) (domain.Raw, error) {
	containerId, err := augmentPublication(ctx, tx, cmd, pubId, stub.Body)
	if err != nil {
		return domain.Raw{}, err
	}
	if err := augmentContainer(ctx, tx, cmd, containerId, stub.Container); err != nil {
		return domain.Raw{}, err
	}
	if err := ensureContainerAlias(ctx, tx, cmd, containerId, stub.Container.Name); err != nil {
		return domain.Raw{}, err
	}

	raw, err := insertRaw(ctx, tx, pubId, containerId, stub.RawKey, stub.RawValue)
	if err != nil {
		return domain.Raw{}, err
	}

	for _, as := range stub.Authors {
		authorId, err := ensureLookupAuthor(ctx, tx, cmd, as)
		if err != nil {
			return domain.Raw{}, err
		}
		if err := ensureAuthorAlias(ctx, tx, cmd, authorId, as); err != nil {
			return domain.Raw{}, err
		}
		if err := linkRawAuthor(ctx, tx, cmd, raw.Id, authorId); err != nil {
			return domain.Raw{}, err
		}
		raw.AuthorIds = append(raw.AuthorIds, authorId)
	}

	return raw, nil
}

// ensureLookupAuthor stores an author a lookup response named. Authors
// found this way hang off the response's raw row rather than the
// publication's creator list, so matching by name would be overreach;
// only a shared ORCID reuses a catalog author.
func ensureLookupAuthor(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, as domain.AuthorStub) (int, error) {
	if as.Orcid != "" {
		var id int
		err := tx.QueryRow(
			ctx, `select "id" from "author" where "orcid" = $1`, as.Orcid,
		).Scan(&id)
		if err == nil {
			return id, augmentAuthor(ctx, tx, cmd, id, as)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, err
		}
	}

	id, err := insertAuthor(ctx, tx, as)
	if err != nil {
		return 0, err
	}
	typ := as.Type
	if typ == "" {
		typ = domain.Individual
	}
	r := authorRecord{
		Type: typ.String(), GivenName: as.GivenName, FamilyName: as.FamilyName,
		Orcid: as.Orcid, Researcherid: as.Researcherid, Email: as.Email,
	}
	if _, err := kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "author", RowId: id,
		Payload: kpgintr.NewRowPayload("author", r.label(id), r.asMap(), nil),
	}); err != nil {
		return 0, err
	}
	return id, nil
}

// ensureAuthorAlias keeps the spelling a lookup response used for an
// author, unless that spelling is on file already.
func ensureAuthorAlias(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, authorId int, as domain.AuthorStub) error {
	if as.GivenName == "" && as.FamilyName == "" {
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
		authorId, as.GivenName, as.FamilyName,
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
				"given_name":  as.GivenName,
				"family_name": as.FamilyName,
			},
			map[string]any{"author_alias": as.Name()},
		),
	})
	return err
}

// ensureContainerAlias does the same for the container spelling.
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

func linkRawAuthor(ctx context.Context, tx kpool.Tx, cmd *domain.AuditCommand, rawId, authorId int) error {
	var linkId int
	err := tx.QueryRow(
		ctx,
		`
		insert into "raw_authors" ("raw_id", "author_id")
		values ($1, $2)
		on conflict do nothing
		returning "id"
		`,
		rawId, authorId,
	).Scan(&linkId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = kpgintr.InsertLog(ctx, tx, cmd, domain.AuditLog{
		Action: domain.LogInsert, Table: "raw_authors", RowId: linkId,
		Payload: kpgintr.NewRowPayload(
			"raw_authors", "",
			map[string]any{"raw_id": rawId, "author_id": authorId},
			map[string]any{"raw": fmt.Sprintf("raw (%d)", rawId)},
		),
	})
	return err
}

func (i *pgIngest) AddRaw(ctx context.Context, publicationId int, key domain.RawKey, value any) (domain.Raw, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.Raw{}, err
	}
	defer conn.Release()

	var containerId int
	if err := conn.QueryRow(
		ctx, `select "container_id" from "publication" where "id" = $1`, publicationId,
	).Scan(&containerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Raw{}, kpgerr.Missing{
				Table: "publication", Identity: fmt.Sprintf("id=%d", publicationId),
			}
		}
		return domain.Raw{}, err
	}

	return insertRaw(ctx, conn, publicationId, containerId, key, value)
}

func (i *pgIngest) Provenance(ctx context.Context, publicationIds []int) (map[int][]domain.Raw, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "r"."id", "r"."key", "r"."value"::text,
			"r"."publication_id", "r"."container_id", "r"."date_added",
			coalesce(
				(select array_agg("ra"."author_id" order by "ra"."id")
					from "raw_authors" as "ra" where "ra"."raw_id" = "r"."id"),
				'{}'
			)
		from "raw" as "r"
		where "r"."publication_id" = any($1::int[])
		order by "r"."date_added", "r"."id"
		`,
		publicationIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[int][]domain.Raw{}
	for rows.Next() {
		r := domain.Raw{}
		var key, value string
		if err := rows.Scan(
			&r.Id, &key, &value, &r.PublicationId, &r.ContainerId, &r.DateAdded, &r.AuthorIds,
		); err != nil {
			return nil, err
		}
		if r.Key, err = domain.AsRawKey(key); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(value), &r.Value); err != nil {
			return nil, err
		}
		found[r.PublicationId] = append(found[r.PublicationId], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return found, nil
}

func (i *pgIngest) DoiCandidates(ctx context.Context, limit int) ([]kdb.Candidate, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id", coalesce("doi", ''), "title", "date_published_text"
		from "publication"
		where "doi" is not null
			and ("title" = '' or "abstract" = '' or "date_published_text" = '')
		order by "id"
		limit nullif($1, 0)
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []kdb.Candidate{}
	for rows.Next() {
		c := kdb.Candidate{}
		if err := rows.Scan(&c.PublicationId, &c.Doi, &c.Title, &c.DatePublishedText); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (i *pgIngest) SearchCandidates(ctx context.Context, limit int) ([]kdb.Candidate, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		with "bibtex_only" as (
			select "p"."id"
			from "publication" as "p"
			inner join "raw" as "r" on "r"."publication_id" = "p"."id"
			group by "p"."id"
			having bool_and("r"."key" in ('BIBTEX_FILE', 'BIBTEX_ENTRY', 'BIBTEX_REF'))
		)
		select "p"."id", coalesce("p"."doi", ''), "p"."title", "p"."date_published_text",
			coalesce(
				array_agg(
					trim(both ' ' from "a"."given_name" || ' ' || "a"."family_name")
					order by "pa"."id"
				) filter (where "a"."id" is not null),
				'{}'
			)
		from "publication" as "p"
		left join "publication_authors" as "pa" on "pa"."publication_id" = "p"."id"
		left join "author" as "a" on "a"."id" = "pa"."author_id"
		where "p"."id" in (select "id" from "bibtex_only")
			and "p"."doi" is not null
			and ("p"."title" = '' or "p"."abstract" = '' or "p"."date_published_text" = '')
		group by "p"."id", "p"."doi", "p"."title", "p"."date_published_text"
		order by "p"."id"
		limit nullif($1, 0)
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []kdb.Candidate{}
	for rows.Next() {
		c := kdb.Candidate{}
		if err := rows.Scan(
			&c.PublicationId, &c.Doi, &c.Title, &c.DatePublishedText, &c.AuthorNames,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}
