package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/conn/db/postgres/pool/testenv"
	"github.com/comses/citation/pkg/conn/db/postgres/scanner"
	"github.com/comses/citation/pkg/domain"
	domerr "github.com/comses/citation/pkg/domain/errors"
	"github.com/comses/citation/pkg/domain/internal/db/postgres/tables"
	kdbvoc "github.com/comses/citation/pkg/domain/vocab/db"
	kpgvoc "github.com/comses/citation/pkg/domain/vocab/db/postgres"
	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/pointer"
	"github.com/comses/citation/pkg/utils/try"
)

func premise(t *testing.T) tables.Operation {
	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()

	return tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Artificial Life", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "First", Status: "UNREVIEWED", IsPrimary: true,
				ContainerId: 1, DateAdded: t1, DateModified: t1,
			},
			{
				Id: 2, Title: "Second", Status: "UNREVIEWED", IsPrimary: true,
				ContainerId: 1, DateAdded: t1, DateModified: t1,
			},
		},
		Tags: []tables.Vocab{
			{Id: 1, Name: "modeling", DateAdded: t1, DateModified: t1},
			{Id: 2, Name: "agent-based modeling", DateAdded: t1, DateModified: t1},
		},
		PublicationTags: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
			{Id: 2, PublicationId: 2, RecordId: 1},
			{Id: 3, PublicationId: 1, RecordId: 2},
		},
		Sponsors: []tables.Vocab{
			{
				Id: 1, Name: "National Science Foundation",
				Url: "https://www.nsf.gov/", Description: "US federal agency",
				DateAdded: t1, DateModified: t1,
			},
			{Id: 2, Name: "Alfred P. Sloan Foundation", DateAdded: t1, DateModified: t1},
		},
		PublicationSponsors: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
			{Id: 2, PublicationId: 2, RecordId: 2},
		},
	}
}

type logRow struct {
	Action    string
	TableName string
	RowId     int
}

func getLogs(ctx context.Context, t *testing.T, conn scanner.Queryer) []logRow {
	t.Helper()
	return try.To(scanner.New[logRow]().QueryAll(
		ctx, conn,
		`
		select "action" as "action", "table_name" as "table_name", "row_id" as "row_id"
		from "audit_log" order by "id"
		`,
	)).OrFatal(t)
}

func tagNames(ctx context.Context, t *testing.T, conn scanner.Queryer) []string {
	t.Helper()
	return try.To(scanner.New[string]().QueryAll(
		ctx, conn, `select "name" from "tag" order by "name"`,
	)).OrFatal(t)
}

func attachedTags(ctx context.Context, t *testing.T, conn scanner.Queryer, publicationId int) []string {
	t.Helper()
	return try.To(scanner.New[string]().QueryAll(
		ctx, conn,
		`
		select "t"."name" from "publication_tags" as "j"
		inner join "tag" as "t" on "t"."id" = "j"."tag_id"
		where "j"."publication_id" = $1
		order by "t"."name"
		`,
		publicationId,
	)).OrFatal(t)
}

func TestVocab_List(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it lists records of a kind with their metadata, by name", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		actual := try.To(testee.List(ctx, domain.VocabSponsor)).OrFatal(t)
		expected := []domain.NamedRecord{
			{Id: 2, Name: "Alfred P. Sloan Foundation"},
			{
				Id: 1, Name: "National Science Foundation",
				Url: "https://www.nsf.gov/", Description: "US federal agency",
			},
		}
		if !cmp.SliceEqWith(
			actual, expected,
			func(a, b domain.NamedRecord) bool { return a.Equal(&b) },
		) {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, expected)
		}
	})

	t.Run("kinds without metadata list bare names", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		actual := try.To(testee.List(ctx, domain.VocabTag)).OrFatal(t)
		expected := []domain.NamedRecord{
			{Id: 2, Name: "agent-based modeling"},
			{Id: 1, Name: "modeling"},
		}
		if !cmp.SliceEqWith(
			actual, expected,
			func(a, b domain.NamedRecord) bool { return a.Equal(&b) },
		) {
			t.Errorf("unmatch: (actual, expected) = (%+v, %+v)", actual, expected)
		}
	})
}

func TestVocab_Create(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it creates records and logs each insert", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		created := try.To(testee.Create(
			ctx, cmd, domain.VocabTag, []string{"hybrid modeling", "microsimulation"},
		)).OrFatal(t)

		if len(created) != 2 ||
			created[0].Name != "hybrid modeling" || created[0].Id == 0 ||
			created[1].Name != "microsimulation" || created[1].Id == 0 {
			t.Fatalf("unexpected records: %+v", created)
		}
		if !cmd.Saved() {
			t.Error("the command does not reach the database")
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		names := tagNames(ctx, t, conn)
		if !cmp.SliceContentEq(names, []string{
			"agent-based modeling", "hybrid modeling", "microsimulation", "modeling",
		}) {
			t.Errorf("unexpected tags: %v", names)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 2 ||
			logs[0].Action != "INSERT" || logs[0].TableName != "tag" || logs[0].RowId != created[0].Id ||
			logs[1].Action != "INSERT" || logs[1].TableName != "tag" || logs[1].RowId != created[1].Id {
			t.Errorf("unexpected logs: %+v", logs)
		}
	})

	t.Run("creating a known name fails, creating nothing", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if _, err := testee.Create(
			ctx, cmd, domain.VocabTag, []string{"modeling", "brand new"},
		); err == nil {
			t.Fatal("creating a duplicate does not fail")
		}
		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		if names := tagNames(ctx, t, conn); !cmp.SliceContentEq(names, []string{
			"agent-based modeling", "modeling",
		}) {
			t.Errorf("unexpected tags: %v", names)
		}
	})
}

func TestVocab_Update(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it renames a record and logs old and new values", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.Update(ctx, cmd, domain.VocabTag, 1, kdbvoc.VocabDelta{
			Name: pointer.Ref("computational modeling"),
		}); err != nil {
			t.Fatal(err)
		}

		records := try.To(testee.Get(ctx, domain.VocabTag, []int{1})).OrFatal(t)
		if r := records[1]; r.Name != "computational modeling" {
			t.Errorf("record is not renamed: %+v", r)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 || logs[0].Action != "UPDATE" ||
			logs[0].TableName != "tag" || logs[0].RowId != 1 {
			t.Errorf("unexpected logs: %+v", logs)
		}
	})

	t.Run("it patches metadata of kinds which carry it", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.Update(ctx, cmd, domain.VocabSponsor, 2, kdbvoc.VocabDelta{
			Url: pointer.Ref("https://sloan.org/"),
		}); err != nil {
			t.Fatal(err)
		}

		records := try.To(testee.Get(ctx, domain.VocabSponsor, []int{2})).OrFatal(t)
		expected := domain.NamedRecord{
			Id: 2, Name: "Alfred P. Sloan Foundation", Url: "https://sloan.org/",
		}
		if r := records[2]; !r.Equal(&expected) {
			t.Errorf("record is not patched: (actual, expected) = (%+v, %+v)", r, expected)
		}
	})

	t.Run("it leaves no trace when the delta changes nothing", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.Update(ctx, cmd, domain.VocabTag, 1, kdbvoc.VocabDelta{
			Name: pointer.Ref("modeling"),
			Url:  pointer.Ref("ignored for tags"),
		}); err != nil {
			t.Fatal(err)
		}
		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}
	})

	t.Run("it returns ErrMissing for an unknown record", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		err := testee.Update(ctx, cmd, domain.VocabTag, 99, kdbvoc.VocabDelta{
			Name: pointer.Ref("nothing"),
		})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
	})
}

func TestVocab_Delete(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it deletes named records with their attachments", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		deleted := try.To(testee.Delete(
			ctx, cmd, domain.VocabTag, []string{"modeling", "ghost"},
		)).OrFatal(t)

		if len(deleted) != 1 || deleted[0].Id != 1 || deleted[0].Name != "modeling" {
			t.Fatalf("unexpected records: %+v", deleted)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		if names := tagNames(ctx, t, conn); !cmp.SliceContentEq(names, []string{"agent-based modeling"}) {
			t.Errorf("unexpected tags: %v", names)
		}
		if attached := attachedTags(ctx, t, conn, 1); !cmp.SliceContentEq(attached, []string{"agent-based modeling"}) {
			t.Errorf("attachments of the deleted tag survive: %v", attached)
		}
		if attached := attachedTags(ctx, t, conn, 2); len(attached) != 0 {
			t.Errorf("attachments of the deleted tag survive: %v", attached)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 || logs[0].Action != "DELETE" ||
			logs[0].TableName != "tag" || logs[0].RowId != 1 {
			t.Errorf("unexpected logs: %+v", logs)
		}
	})

	t.Run("it keeps silence when nothing matches", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		deleted := try.To(testee.Delete(
			ctx, cmd, domain.VocabTag, []string{"ghost"},
		)).OrFatal(t)
		if len(deleted) != 0 {
			t.Errorf("unexpected records: %+v", deleted)
		}
		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}
	})
}

func TestVocab_Split(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it replaces the record, rewiring every publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionSplit, Creator: "alice"}
		records := try.To(testee.Split(
			ctx, cmd, domain.VocabTag, "modeling",
			[]string{"agent-based modeling", "equation-based modeling"},
		)).OrFatal(t)

		if len(records) != 2 ||
			records[0].Id != 2 || records[0].Name != "agent-based modeling" ||
			records[1].Id == 0 || records[1].Name != "equation-based modeling" {
			t.Fatalf("unexpected records: %+v", records)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		if names := tagNames(ctx, t, conn); !cmp.SliceContentEq(names, []string{
			"agent-based modeling", "equation-based modeling",
		}) {
			t.Errorf("unexpected tags: %v", names)
		}
		// both publications carried "modeling"; both get the full replacement.
		for _, publicationId := range []int{1, 2} {
			if attached := attachedTags(ctx, t, conn, publicationId); !cmp.SliceContentEq(
				attached, []string{"agent-based modeling", "equation-based modeling"},
			) {
				t.Errorf("publication %d is wired wrong: %v", publicationId, attached)
			}
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 5 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		if logs[0].Action != "DELETE" || logs[0].TableName != "tag" || logs[0].RowId != 1 {
			t.Errorf("unexpected log: %+v", logs[0])
		}
		if logs[1].Action != "INSERT" || logs[1].TableName != "tag" || logs[1].RowId != records[1].Id {
			t.Errorf("unexpected log: %+v", logs[1])
		}
		for _, l := range logs[2:] {
			if l.Action != "INSERT" || l.TableName != "publication_tags" {
				t.Errorf("unexpected log: %+v", l)
			}
		}
	})

	t.Run("it returns ErrMissing for an unknown name", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionSplit, Creator: "alice"}
		_, err := testee.Split(ctx, cmd, domain.VocabTag, "ghost", []string{"a", "b"})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
	})
}

func TestVocab_Merge(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it folds records into an existing canonical one", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionMerge, Creator: "alice"}
		canonical := try.To(testee.Merge(
			ctx, cmd, domain.VocabSponsor,
			[]string{"National Science Foundation", "Alfred P. Sloan Foundation"},
			"National Science Foundation",
		)).OrFatal(t)

		expected := domain.NamedRecord{
			Id: 1, Name: "National Science Foundation",
			Url: "https://www.nsf.gov/", Description: "US federal agency",
		}
		if !canonical.Equal(&expected) {
			t.Errorf("unexpected canonical: (actual, expected) = (%+v, %+v)", canonical, expected)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		names := try.To(scanner.New[string]().QueryAll(
			ctx, conn, `select "name" from "sponsor" order by "name"`,
		)).OrFatal(t)
		if !cmp.SliceContentEq(names, []string{"National Science Foundation"}) {
			t.Errorf("unexpected sponsors: %v", names)
		}

		attached := try.To(scanner.New[int]().QueryAll(
			ctx, conn,
			`select "publication_id" from "publication_sponsors" where "sponsor_id" = 1`,
		)).OrFatal(t)
		if !cmp.SliceContentEq(attached, []int{1, 2}) {
			t.Errorf("publications are wired wrong: %v", attached)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 2 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		if logs[0].Action != "INSERT" || logs[0].TableName != "publication_sponsors" {
			t.Errorf("unexpected log: %+v", logs[0])
		}
		if logs[1].Action != "DELETE" || logs[1].TableName != "sponsor" || logs[1].RowId != 2 {
			t.Errorf("unexpected log: %+v", logs[1])
		}
	})

	t.Run("it creates the canonical record when the name is new", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgvoc.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionMerge, Creator: "alice"}
		canonical := try.To(testee.Merge(
			ctx, cmd, domain.VocabTag,
			[]string{"modeling", "agent-based modeling"},
			"computational modeling",
		)).OrFatal(t)

		if canonical.Id == 0 || canonical.Name != "computational modeling" {
			t.Fatalf("unexpected canonical: %+v", canonical)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		if names := tagNames(ctx, t, conn); !cmp.SliceContentEq(names, []string{"computational modeling"}) {
			t.Errorf("unexpected tags: %v", names)
		}
		for _, publicationId := range []int{1, 2} {
			if attached := attachedTags(ctx, t, conn, publicationId); !cmp.SliceContentEq(
				attached, []string{"computational modeling"},
			) {
				t.Errorf("publication %d is wired wrong: %v", publicationId, attached)
			}
		}
	})
}
