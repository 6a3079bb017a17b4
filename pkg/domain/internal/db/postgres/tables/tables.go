// manupirate records to postgres.
package tables

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/jackc/pgconn"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
)

func withCause(v any, reason error) error {
	return fmt.Errorf("error caused inserting record %+v: %w", v, reason)
}

// table-level operations for PostgreSQL.
//
// Note: this package DOES NOT verify/guarantee consistencies of records.
type Tables struct {
	ctx  context.Context
	pool kpool.Pool
}

func New(ctx context.Context, pool kpool.Pool) *Tables {
	return &Tables{
		ctx: ctx, pool: pool,
	}
}

func (f *Tables) acquire() (kpool.Conn, error) {
	return f.pool.Acquire(f.ctx)
}

func shouldEffect(ctag pgconn.CommandTag, require int) error {
	aff := ctag.RowsAffected()
	if int64(require) <= aff {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if ok {
		return fmt.Errorf("added rows are not enough @ %s:%d", file, line)
	} else {
		return errors.New("added rows are not enough")
	}
}

// serialTables lists tables with a serial "id", in foreign key order.
var serialTables = []string{
	"curator",
	"container", "container_alias",
	"author", "author_alias",
	"publication", "publication_authors", "publication_citations",
	"platform", "sponsor", "tag", "model_documentation",
	"publication_platforms", "publication_sponsors",
	"publication_tags", "publication_model_documentations",
	"code_archive_url_category", "code_archive_url_pattern",
	"code_archive_url", "url_status_log",
	"note",
	"audit_command", "audit_log",
	"raw", "raw_authors",
	"suggested_merge",
}

// SyncSequences points each serial sequence past the largest inserted id.
//
// Records are inserted with explicit ids, leaving sequences behind.
// Without this, the tested code fails with duplicated ids on its first
// insert.
func (f *Tables) SyncSequences() error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, t := range serialTables {
		if _, err := conn.Exec(
			f.ctx,
			fmt.Sprintf(
				`select setval(pg_get_serial_sequence('"%s"', 'id'), coalesce(max("id"), 0) + 1, false) from "%s"`,
				t, t,
			),
		); err != nil {
			return fmt.Errorf("failed to sync sequence of %s: %w", t, err)
		}
	}
	return nil
}

func (f *Tables) InsertCurator(c *Curator) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "curator"
			("id", "username", "password", "email", "first_name", "last_name",
			 "is_active", "is_superuser", "date_joined")
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
		c.Id, c.Username, c.Password, c.Email, c.FirstName, c.LastName,
		c.IsActive, c.IsSuperuser, c.DateJoined,
	)
	if err != nil {
		return withCause(c, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertContainer(c *Container) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "container"
			("id", "type", "name", "issn", "eissn", "date_added", "date_modified")
		values ($1, $2, $3, nullif($4, ''), nullif($5, ''), $6, $7)
		`,
		c.Id, c.Type, c.Name, c.Issn, c.Eissn, c.DateAdded, c.DateModified,
	)
	if err != nil {
		return withCause(c, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertContainerAlias(a *ContainerAlias) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "container_alias" ("id", "container_id", "name") values ($1, $2, $3)`,
		a.Id, a.ContainerId, a.Name,
	)
	if err != nil {
		return withCause(a, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertAuthor(a *Author) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "author"
			("id", "type", "given_name", "family_name",
			 "orcid", "researcherid", "email", "date_added", "date_modified")
		values ($1, $2, $3, $4, nullif($5, ''), nullif($6, ''), $7, $8, $9)
		`,
		a.Id, a.Type, a.GivenName, a.FamilyName,
		a.Orcid, a.Researcherid, a.Email, a.DateAdded, a.DateModified,
	)
	if err != nil {
		return withCause(a, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertAuthorAlias(a *AuthorAlias) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "author_alias" ("id", "author_id", "given_name", "family_name")
		values ($1, $2, $3, $4)
		`,
		a.Id, a.AuthorId, a.GivenName, a.FamilyName,
	)
	if err != nil {
		return withCause(a, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertPublication(p *Publication) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "publication"
			("id", "title", "abstract", "short_title", "url",
			 "date_published_text", "contact_author_name", "contact_email",
			 "status", "flagged", "is_primary",
			 "pages", "issn", "volume", "issue",
			 "series", "series_title", "series_text",
			 "doi", "isi", "added_by", "assigned_curator", "container_id",
			 "date_added", "date_modified")
		values
			($1, $2, $3, $4, $5,
			 $6, $7, $8,
			 $9, $10, $11,
			 $12, $13, $14, $15,
			 $16, $17, $18,
			 nullif($19, ''), nullif($20, ''), $21, $22, $23,
			 $24, $25)
		`,
		p.Id, p.Title, p.Abstract, p.ShortTitle, p.Url,
		p.DatePublishedText, p.ContactAuthorName, p.ContactEmail,
		p.Status, p.Flagged, p.IsPrimary,
		p.Pages, p.Issn, p.Volume, p.Issue,
		p.Series, p.SeriesTitle, p.SeriesText,
		p.Doi, p.Isi, p.AddedBy, p.AssignedCurator, p.ContainerId,
		p.DateAdded, p.DateModified,
	)
	if err != nil {
		return withCause(p, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertPublicationAuthor(pa *PublicationAuthor) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "publication_authors" ("id", "publication_id", "author_id", "role")
		values ($1, $2, $3, $4)
		`,
		pa.Id, pa.PublicationId, pa.AuthorId, pa.Role,
	)
	if err != nil {
		return withCause(pa, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertPublicationCitation(pc *PublicationCitation) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "publication_citations" ("id", "publication_id", "citation_id")
		values ($1, $2, $3)
		`,
		pc.Id, pc.PublicationId, pc.CitationId,
	)
	if err != nil {
		return withCause(pc, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertVocab(kind domain.VocabKind, v *Vocab) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	table := kpgintr.VocabTable(kind)
	var ctag pgconn.CommandTag
	if kpgintr.VocabHasMeta(kind) {
		ctag, err = conn.Exec(
			f.ctx,
			fmt.Sprintf(
				`
				insert into "%s"
					("id", "name", "url", "description", "date_added", "date_modified")
				values ($1, $2, $3, $4, $5, $6)
				`,
				table,
			),
			v.Id, v.Name, v.Url, v.Description, v.DateAdded, v.DateModified,
		)
	} else {
		ctag, err = conn.Exec(
			f.ctx,
			fmt.Sprintf(
				`insert into "%s" ("id", "name", "date_added", "date_modified") values ($1, $2, $3, $4)`,
				table,
			),
			v.Id, v.Name, v.DateAdded, v.DateModified,
		)
	}
	if err != nil {
		return withCause(v, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertPublicationVocab(kind domain.VocabKind, j *PublicationVocab) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	join, column := kpgintr.VocabJoinTable(kind)
	ctag, err := conn.Exec(
		f.ctx,
		fmt.Sprintf(
			`insert into "%s" ("id", "publication_id", "%s") values ($1, $2, $3)`,
			join, column,
		),
		j.Id, j.PublicationId, j.RecordId,
	)
	if err != nil {
		return withCause(j, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertUrlCategory(c *CodeArchiveUrlCategory) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "code_archive_url_category" ("id", "category", "subcategory")
		values ($1, $2, $3)
		`,
		c.Id, c.Category, c.Subcategory,
	)
	if err != nil {
		return withCause(c, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertUrlPattern(p *CodeArchiveUrlPattern) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "code_archive_url_pattern"
			("id", "regex_host_matcher", "regex_path_matcher", "category_id")
		values ($1, $2, $3, $4)
		`,
		p.Id, p.RegexHostMatcher, p.RegexPathMatcher, p.CategoryId,
	)
	if err != nil {
		return withCause(p, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertCodeArchiveUrl(u *CodeArchiveUrl) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "code_archive_url"
			("id", "publication_id", "category_id", "url", "status",
			 "is_active", "system_overridable_category", "notes", "creator",
			 "date_created", "last_modified")
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
		u.Id, u.PublicationId, u.CategoryId, u.Url, u.Status,
		u.IsActive, u.SystemOverridableCategory, u.Notes, u.Creator,
		u.DateCreated, u.LastModified,
	)
	if err != nil {
		return withCause(u, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertUrlStatusLog(l *UrlStatusLog) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "url_status_log"
			("id", "publication_id", "url", "status_code", "status_reason",
			 "headers", "system_generated", "date_created", "last_modified")
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
		l.Id, l.PublicationId, l.Url, l.StatusCode, l.StatusReason,
		l.Headers, l.SystemGenerated, l.DateCreated, l.LastModified,
	)
	if err != nil {
		return withCause(l, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertNote(n *Note) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "note"
			("id", "text", "added_by", "publication_id",
			 "date_added", "date_modified", "deleted_on", "deleted_by")
		values ($1, $2, $3, nullif($4, 0), $5, $6, $7, $8)
		`,
		n.Id, n.Text, n.AddedBy, n.PublicationId,
		n.DateAdded, n.DateModified, n.DeletedOn, n.DeletedBy,
	)
	if err != nil {
		return withCause(n, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertAuditCommand(c *AuditCommand) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "audit_command" ("id", "action", "creator", "message", "date_added")
		values ($1, $2, $3, $4, $5)
		`,
		c.Id, c.Action, c.Creator, c.Message, c.DateAdded,
	)
	if err != nil {
		return withCause(c, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertAuditLog(l *AuditLog) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "audit_log"
			("id", "audit_command_id", "action", "table_name", "row_id",
			 "publication_id", "payload", "message", "date_added")
		values ($1, $2, $3, $4, $5, nullif($6, 0), nullif($7, '')::jsonb, $8, $9)
		`,
		l.Id, l.CommandId, l.Action, l.TableName, l.RowId,
		l.PublicationId, l.Payload, l.Message, l.DateAdded,
	)
	if err != nil {
		return withCause(l, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRaw(r *Raw) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "raw"
			("id", "key", "value", "publication_id", "container_id",
			 "date_added", "date_modified")
		values ($1, $2, $3::jsonb, $4, $5, $6, $7)
		`,
		r.Id, r.Key, r.Value, r.PublicationId, r.ContainerId,
		r.DateAdded, r.DateModified,
	)
	if err != nil {
		return withCause(r, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRawAuthor(ra *RawAuthor) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "raw_authors" ("id", "raw_id", "author_id") values ($1, $2, $3)`,
		ra.Id, ra.RawId, ra.AuthorId,
	)
	if err != nil {
		return withCause(ra, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertSuggestedMerge(sm *SuggestedMerge) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "suggested_merge"
			("id", "content_type", "duplicates", "new_content",
			 "creator", "comment", "date_added", "date_applied")
		values ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
		`,
		sm.Id, sm.ContentType, sm.Duplicates, sm.NewContent,
		sm.Creator, sm.Comment, sm.DateAdded, sm.DateApplied,
	)
	if err != nil {
		return withCause(sm, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertCache(c *Cache) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "cache" ("key", "value", "expires_at") values ($1, $2::jsonb, $3)`,
		c.Key, c.Value, c.ExpiresAt,
	)
	if err != nil {
		return withCause(c, err)
	}
	return shouldEffect(ctag, 1)
}
