package postgres_test

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/conn/db/postgres/pool/testenv"
	"github.com/comses/citation/pkg/conn/db/postgres/scanner"
	"github.com/comses/citation/pkg/domain"
	domerr "github.com/comses/citation/pkg/domain/errors"
	"github.com/comses/citation/pkg/domain/internal/db/postgres/tables"
	kdbpub "github.com/comses/citation/pkg/domain/publication/db"
	kpgpub "github.com/comses/citation/pkg/domain/publication/db/postgres"
	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/pointer"
	"github.com/comses/citation/pkg/utils/try"
)

type commandRow struct {
	Id      int
	Action  string
	Creator string
	Message string
}

type logRow struct {
	CommandId     int
	Action        string
	TableName     string
	RowId         int
	PublicationId int
	Payload       string
}

func getCommands(ctx context.Context, t *testing.T, conn scanner.Queryer) []commandRow {
	t.Helper()
	return try.To(scanner.New[commandRow]().QueryAll(
		ctx, conn,
		`select "id", "action", "creator", "message" from "audit_command" order by "id"`,
	)).OrFatal(t)
}

func getLogs(ctx context.Context, t *testing.T, conn scanner.Queryer) []logRow {
	t.Helper()
	return try.To(scanner.New[logRow]().QueryAll(
		ctx, conn,
		`
		select
			"audit_command_id" as "command_id",
			"action" as "action",
			"table_name" as "table_name",
			"row_id" as "row_id",
			coalesce("publication_id", 0) as "publication_id",
			coalesce("payload"::text, '') as "payload"
		from "audit_log" order by "id"
		`,
	)).OrFatal(t)
}

func assertPayload(t *testing.T, got string, want *domain.LogPayload) {
	t.Helper()
	p := &domain.LogPayload{}
	if err := json.Unmarshal([]byte(got), p); err != nil {
		t.Fatalf("payload is not a json object: %v (%s)", err, got)
	}
	if !p.Equal(want) {
		t.Errorf(
			"payload unmatch:\n===actual===\n%+v\n===expected===\n%+v",
			p, want,
		)
	}
}

func TestPublication_Get(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()
	t2 := try.To(rfctime.ParseRFC3339DateTime("2024-03-02T10:00:00.000+00:00")).OrFatal(t).Time()
	t3 := try.To(rfctime.ParseRFC3339DateTime("2024-03-03T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{
				Id: 1, Type: "journal", Name: "Ecological Modelling",
				Issn: "0304-3800", DateAdded: t1, DateModified: t1,
			},
			{Id: 2, Name: "Artificial Life", DateAdded: t1, DateModified: t1},
		},
		Authors: []tables.Author{
			{
				Id: 1, Type: "INDIVIDUAL", GivenName: "Uri", FamilyName: "Wilensky",
				Orcid: "0000-0002-0001-0001", Email: "uri@example.edu",
				DateAdded: t1, DateModified: t1,
			},
			{
				Id: 2, Type: "INDIVIDUAL", GivenName: "Nigel", FamilyName: "Gilbert",
				DateAdded: t1, DateModified: t1,
			},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies",
				Abstract:          "Sugarscape, bottom up.",
				DatePublishedText: "1996", Status: "UNREVIEWED", IsPrimary: true,
				Pages: "1-20", Volume: "11", Doi: "10.1000/alpha",
				AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
			{
				Id: 2, Title: "Simulation for the social scientist",
				Status: "REVIEWED", Flagged: true, IsPrimary: true,
				AddedBy: "bob", AssignedCurator: "bob", ContainerId: 2,
				DateAdded: t2, DateModified: t2,
			},
			{
				Id: 3, DatePublishedText: "2002", Status: "UNREVIEWED",
				IsPrimary: false, ContainerId: 2,
				DateAdded: t3, DateModified: t3,
			},
		},
		PublicationAuthors: []tables.PublicationAuthor{
			{Id: 1, PublicationId: 1, AuthorId: 1, Role: "AUTHOR"},
			{Id: 2, PublicationId: 1, AuthorId: 2, Role: "CONTRIBUTOR"},
			{Id: 3, PublicationId: 2, AuthorId: 2, Role: "AUTHOR"},
		},
		PublicationCitations: []tables.PublicationCitation{
			{Id: 1, PublicationId: 1, CitationId: 3},
			{Id: 2, PublicationId: 2, CitationId: 3},
		},
		Platforms: []tables.Vocab{
			{
				Id: 1, Name: "NetLogo", Url: "https://ccl.northwestern.edu/netlogo/",
				DateAdded: t1, DateModified: t1,
			},
		},
		Sponsors: []tables.Vocab{
			{
				Id: 1, Name: "National Science Foundation",
				DateAdded: t1, DateModified: t1,
			},
		},
		Tags: []tables.Vocab{
			{Id: 1, Name: "agent-based modeling", DateAdded: t1, DateModified: t1},
			{Id: 2, Name: "cellular automata", DateAdded: t1, DateModified: t1},
		},
		ModelDocumentations: []tables.Vocab{
			{Id: 1, Name: "ODD", DateAdded: t1, DateModified: t1},
		},
		PublicationPlatforms: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
		},
		PublicationSponsors: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
		},
		PublicationTags: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
			{Id: 2, PublicationId: 1, RecordId: 2},
		},
		PublicationModelDocumentations: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
		},
		UrlCategories: []tables.CodeArchiveUrlCategory{
			{Id: 1, Category: "Archive", Subcategory: "CoMSES"},
		},
		CodeArchiveUrls: []tables.CodeArchiveUrl{
			{
				Id: 1, PublicationId: 1, CategoryId: 1,
				Url: "https://www.comses.net/codebases/2225/", Status: "available",
				IsActive: true, Creator: "alice",
				DateCreated: t1, LastModified: t1,
			},
		},
	}

	t.Run("it returns publications with their relations", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		actual := try.To(testee.Get(ctx, []int{1, 3, 100})).OrFatal(t)

		if len(actual) != 2 {
			t.Fatalf("unexpected publications are returned: %v", actual)
		}

		expected1 := domain.Publication{
			PublicationBody: domain.PublicationBody{
				Id: 1, Title: "Growing artificial societies",
				Abstract:          "Sugarscape, bottom up.",
				DatePublishedText: "1996",
				Status:            domain.Unreviewed, IsPrimary: true,
				Pages: "1-20", Volume: "11", Doi: "10.1000/alpha",
				AddedBy:   "alice",
				DateAdded: t1, DateModified: t1,
			},
			Container: domain.Container{
				Id: 1, Type: "journal", Name: "Ecological Modelling", Issn: "0304-3800",
			},
			Creators: []domain.Creator{
				{
					Author: domain.Author{
						Id: 1, Type: domain.Individual,
						GivenName: "Uri", FamilyName: "Wilensky",
						Orcid: "0000-0002-0001-0001", Email: "uri@example.edu",
					},
					Role: domain.RoleAuthor,
				},
				{
					Author: domain.Author{
						Id: 2, Type: domain.Individual,
						GivenName: "Nigel", FamilyName: "Gilbert",
					},
					Role: domain.RoleContributor,
				},
			},
			Platforms: []domain.NamedRecord{
				{Id: 1, Name: "NetLogo", Url: "https://ccl.northwestern.edu/netlogo/"},
			},
			Sponsors: []domain.NamedRecord{
				{Id: 1, Name: "National Science Foundation"},
			},
			Tags: []domain.NamedRecord{
				{Id: 1, Name: "agent-based modeling"},
				{Id: 2, Name: "cellular automata"},
			},
			ModelDocumentation: []domain.NamedRecord{
				{Id: 1, Name: "ODD"},
			},
			CodeArchiveUrls: []domain.CodeArchiveUrl{
				{
					Id: 1, PublicationId: 1,
					Url: "https://www.comses.net/codebases/2225/",
					Category: domain.CodeArchiveUrlCategory{
						Id: 1, Category: "Archive", Subcategory: "CoMSES",
					},
					Status: domain.UrlAvailable, IsActive: true, Creator: "alice",
					DateCreated: t1, LastModified: t1,
				},
			},
			Citations: []int{3},
		}
		if got := actual[1]; !got.Equal(&expected1) {
			t.Errorf(
				"publication 1:\n===actual===\n%+v\n===expected===\n%+v",
				got, expected1,
			)
		}

		expected3 := domain.Publication{
			PublicationBody: domain.PublicationBody{
				Id: 3, DatePublishedText: "2002",
				Status: domain.Unreviewed, IsPrimary: false,
				DateAdded: t3, DateModified: t3,
			},
			Container:    domain.Container{Id: 2, Name: "Artificial Life"},
			ReferencedBy: []int{1, 2},
		}
		if got := actual[3]; !got.Equal(&expected3) {
			t.Errorf(
				"publication 3:\n===actual===\n%+v\n===expected===\n%+v",
				got, expected3,
			)
		}
	})

	t.Run("it returns nothing for unknown ids", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		actual := try.To(testee.Get(ctx, []int{100, 200})).OrFatal(t)
		if len(actual) != 0 {
			t.Errorf("unexpected publications are returned: %v", actual)
		}
	})
}

func TestPublication_Find(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()
	t2 := try.To(rfctime.ParseRFC3339DateTime("2024-03-02T10:00:00.000+00:00")).OrFatal(t).Time()
	t3 := try.To(rfctime.ParseRFC3339DateTime("2024-03-03T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Ecological Modelling", DateAdded: t1, DateModified: t1},
			{Id: 2, Name: "Artificial Life", DateAdded: t1, DateModified: t1},
		},
		Authors: []tables.Author{
			{Id: 1, Type: "INDIVIDUAL", GivenName: "Uri", FamilyName: "Wilensky", DateAdded: t1, DateModified: t1},
			{Id: 2, Type: "INDIVIDUAL", GivenName: "Nigel", FamilyName: "Gilbert", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "UNREVIEWED",
				IsPrimary: true, AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
			{
				Id: 2, Title: "Simulation for the social scientist", Status: "REVIEWED",
				Flagged: true, IsPrimary: true, Doi: "10.1000/beta",
				AddedBy: "bob", AssignedCurator: "bob", ContainerId: 2,
				DateAdded: t2, DateModified: t2,
			},
			{
				Id: 3, Status: "UNREVIEWED", IsPrimary: false, ContainerId: 2,
				DateAdded: t3, DateModified: t3,
			},
		},
		PublicationAuthors: []tables.PublicationAuthor{
			{Id: 1, PublicationId: 1, AuthorId: 1, Role: "AUTHOR"},
			{Id: 2, PublicationId: 1, AuthorId: 2, Role: "CONTRIBUTOR"},
			{Id: 3, PublicationId: 2, AuthorId: 2, Role: "AUTHOR"},
		},
		Platforms: []tables.Vocab{
			{Id: 1, Name: "NetLogo", DateAdded: t1, DateModified: t1},
		},
		Sponsors: []tables.Vocab{
			{Id: 1, Name: "National Science Foundation", DateAdded: t1, DateModified: t1},
		},
		Tags: []tables.Vocab{
			{Id: 1, Name: "agent-based modeling", DateAdded: t1, DateModified: t1},
			{Id: 2, Name: "cellular automata", DateAdded: t1, DateModified: t1},
		},
		PublicationPlatforms: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
		},
		PublicationSponsors: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
		},
		PublicationTags: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
			{Id: 2, PublicationId: 1, RecordId: 2},
			{Id: 3, PublicationId: 2, RecordId: 1},
		},
	}

	type When struct {
		Filter domain.PublicationFilter
	}
	type Then struct {
		Ids []int
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			pool := poolBroaker.GetPool(ctx, t)
			if err := given.Apply(ctx, pool); err != nil {
				t.Fatal(err)
			}
			testee := kpgpub.New(pool)

			actual := try.To(testee.Find(ctx, when.Filter)).OrFatal(t)
			if !cmp.SliceEq(actual, then.Ids) {
				t.Errorf(
					"unmatch: (actual, expected) = (%v, %v)",
					actual, then.Ids,
				)
			}
		}
	}

	t.Run("when no dimension is given, it finds every publication, newest first", theory(
		When{Filter: domain.PublicationFilter{}},
		Then{Ids: []int{3, 2, 1}},
	))
	t.Run("when status is given, it finds publications in that status", theory(
		When{Filter: domain.PublicationFilter{
			Status: []domain.PublicationStatus{domain.Reviewed},
		}},
		Then{Ids: []int{2}},
	))
	t.Run("when statuses are given, any of them matches", theory(
		When{Filter: domain.PublicationFilter{
			Status: []domain.PublicationStatus{domain.Unreviewed, domain.Reviewed},
		}},
		Then{Ids: []int{3, 2, 1}},
	))
	t.Run("when is_primary is given, it drops secondary publications", theory(
		When{Filter: domain.PublicationFilter{IsPrimary: pointer.Ref(true)}},
		Then{Ids: []int{2, 1}},
	))
	t.Run("when flagged is given, it finds flagged publications", theory(
		When{Filter: domain.PublicationFilter{Flagged: pointer.Ref(true)}},
		Then{Ids: []int{2}},
	))
	t.Run("when a curator is given, it finds their assignments", theory(
		When{Filter: domain.PublicationFilter{AssignedCurator: "bob"}},
		Then{Ids: []int{2}},
	))
	t.Run("when containers are given, it finds publications appeared there", theory(
		When{Filter: domain.PublicationFilter{ContainerId: []int{2}}},
		Then{Ids: []int{3, 2}},
	))
	t.Run("when authors are given, it finds their publications", theory(
		When{Filter: domain.PublicationFilter{AuthorId: []int{2}}},
		Then{Ids: []int{2, 1}},
	))
	t.Run("when tags are given, it finds publications tagged so", theory(
		When{Filter: domain.PublicationFilter{TagId: []int{2}}},
		Then{Ids: []int{1}},
	))
	t.Run("when platforms are given, it finds publications about them", theory(
		When{Filter: domain.PublicationFilter{PlatformId: []int{1}}},
		Then{Ids: []int{1}},
	))
	t.Run("when sponsors are given, it finds sponsored publications", theory(
		When{Filter: domain.PublicationFilter{SponsorId: []int{1}}},
		Then{Ids: []int{1}},
	))
	t.Run("when a title fragment is given, it matches case-insensitively", theory(
		When{Filter: domain.PublicationFilter{TitleLike: "SIMULATION"}},
		Then{Ids: []int{2}},
	))
	t.Run("when a doi is given, it matches in sanitized form", theory(
		When{Filter: domain.PublicationFilter{Doi: `10.1000/{BETA}`}},
		Then{Ids: []int{2}},
	))
	t.Run("when dimensions are combined, all of them must match", theory(
		When{Filter: domain.PublicationFilter{
			Status:      []domain.PublicationStatus{domain.Unreviewed},
			ContainerId: []int{2},
		}},
		Then{Ids: []int{3}},
	))
	t.Run("when nothing matches, it finds nothing", theory(
		When{Filter: domain.PublicationFilter{TitleLike: "quantum"}},
		Then{Ids: []int{}},
	))
}

func TestPublication_Update(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Ecological Modelling", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "UNREVIEWED",
				IsPrimary: true, Doi: "10.1000/alpha", AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
	}

	t.Run("it patches given fields and logs old and new values", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		delta := kdbpub.PublicationDelta{
			Title:  pointer.Ref("Growing Artificial Societies"),
			Status: pointer.Ref(domain.Reviewed),
			Doi:    pointer.Ref(`10.1000/ALPHA-2ND{}`),
		}
		if err := testee.Update(ctx, cmd, 1, delta); err != nil {
			t.Fatal(err)
		}

		if !cmd.Saved() {
			t.Error("the command does not reach the database")
		}

		actual := try.To(testee.Get(ctx, []int{1})).OrFatal(t)[1]
		if actual.Title != "Growing Artificial Societies" ||
			actual.Status != domain.Reviewed ||
			actual.Doi != "10.1000/alpha-2nd" {
			t.Errorf("publication is not patched: %+v", actual.PublicationBody)
		}

		// untouched fields survive.
		if actual.AddedBy != "alice" || !actual.IsPrimary {
			t.Errorf("patching changes unrelated fields: %+v", actual.PublicationBody)
		}
		if !actual.DateModified.After(t1) {
			t.Errorf("date_modified is not renewed: %v", actual.DateModified)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		commands := getCommands(ctx, t, conn)
		if len(commands) != 1 || commands[0].Id != cmd.Id ||
			commands[0].Action != "MANUAL" || commands[0].Creator != "alice" {
			t.Fatalf("unexpected commands: %+v", commands)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		l := logs[0]
		if l.CommandId != cmd.Id || l.Action != "UPDATE" ||
			l.TableName != "publication" || l.RowId != 1 || l.PublicationId != 1 {
			t.Errorf("unexpected log: %+v", l)
		}
		assertPayload(t, l.Payload, &domain.LogPayload{
			Data: map[string]any{
				"title": domain.FieldChange{
					Old: "Growing artificial societies",
					New: "Growing Artificial Societies",
				},
				"status": domain.FieldChange{Old: "UNREVIEWED", New: "REVIEWED"},
				"doi":    domain.FieldChange{Old: "10.1000/alpha", New: "10.1000/alpha-2nd"},
			},
			Labels: map[string]any{"publication": "Growing artificial societies (1)"},
		})
	})

	t.Run("it leaves no trace when the delta changes nothing", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		delta := kdbpub.PublicationDelta{
			Title: pointer.Ref("Growing artificial societies"),
			Doi:   pointer.Ref(`10.1000/{ALPHA}`), // sanitized, it is the stored doi
		}
		if err := testee.Update(ctx, cmd, 1, delta); err != nil {
			t.Fatal(err)
		}

		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		if commands := getCommands(ctx, t, conn); len(commands) != 0 {
			t.Errorf("unexpected commands: %+v", commands)
		}
	})

	t.Run("it returns ErrMissing for an unknown publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		err := testee.Update(ctx, cmd, 999, kdbpub.PublicationDelta{
			Title: pointer.Ref("nothing"),
		})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}
	})
}

func TestPublication_UpdateVocab(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Ecological Modelling", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "UNREVIEWED",
				IsPrimary: true, AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
		Tags: []tables.Vocab{
			{Id: 1, Name: "agent-based modeling", DateAdded: t1, DateModified: t1},
			{Id: 2, Name: "cellular automata", DateAdded: t1, DateModified: t1},
			{Id: 3, Name: "social simulation", DateAdded: t1, DateModified: t1},
		},
		PublicationTags: []tables.PublicationVocab{
			{Id: 1, PublicationId: 1, RecordId: 1},
			{Id: 2, PublicationId: 1, RecordId: 2},
		},
	}

	getTagIds := func(ctx context.Context, t *testing.T, conn scanner.Queryer) []int {
		t.Helper()
		return try.To(scanner.New[int]().QueryAll(
			ctx, conn,
			`select "tag_id" from "publication_tags" where "publication_id" = 1`,
		)).OrFatal(t)
	}

	t.Run("it attaches missing records and detaches dropped ones", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.UpdateVocab(ctx, cmd, 1, domain.VocabTag, []int{2, 3}); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		if tagIds := getTagIds(ctx, t, conn); !cmp.SliceContentEq(tagIds, []int{2, 3}) {
			t.Errorf("unexpected tags are attached: %v", tagIds)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 2 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		deleted, inserted := logs[0], logs[1]
		if deleted.Action != "DELETE" || deleted.TableName != "publication_tags" ||
			deleted.PublicationId != 1 {
			t.Errorf("unexpected log: %+v", deleted)
		}
		assertPayload(t, deleted.Payload, &domain.LogPayload{
			Data: map[string]any{"publication_id": 1, "tag_id": 1},
			Labels: map[string]any{
				"publication": "Growing artificial societies (1)",
				"tag":         "agent-based modeling (1)",
			},
		})
		if inserted.Action != "INSERT" || inserted.TableName != "publication_tags" ||
			inserted.PublicationId != 1 {
			t.Errorf("unexpected log: %+v", inserted)
		}
		assertPayload(t, inserted.Payload, &domain.LogPayload{
			Data: map[string]any{"publication_id": 1, "tag_id": 3},
			Labels: map[string]any{
				"publication": "Growing artificial societies (1)",
				"tag":         "social simulation (3)",
			},
		})
	})

	t.Run("it keeps silence when the attachment matches already", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.UpdateVocab(ctx, cmd, 1, domain.VocabTag, []int{1, 2}); err != nil {
			t.Fatal(err)
		}

		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		if tagIds := getTagIds(ctx, t, conn); !cmp.SliceContentEq(tagIds, []int{1, 2}) {
			t.Errorf("attachment changes: %v", tagIds)
		}
	})

	t.Run("it returns ErrMissing for an unknown record, attaching nothing", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		err := testee.UpdateVocab(ctx, cmd, 1, domain.VocabTag, []int{2, 999})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		if tagIds := getTagIds(ctx, t, conn); !cmp.SliceContentEq(tagIds, []int{1, 2}) {
			t.Errorf("attachment changes: %v", tagIds)
		}
		if commands := getCommands(ctx, t, conn); len(commands) != 0 {
			t.Errorf("unexpected commands: %+v", commands)
		}
	})
}

func TestPublication_Flag(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Ecological Modelling", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "UNREVIEWED",
				IsPrimary: true, AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
			{
				Id: 2, Title: "Simulation for the social scientist", Status: "REVIEWED",
				Flagged: true, IsPrimary: true, AddedBy: "bob", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
	}

	t.Run("it marks the publication and records the reason as a note", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		note := try.To(testee.Flag(ctx, cmd, 1, "duplicate of #2?")).OrFatal(t)

		if note.Id == 0 || note.Text != "duplicate of #2?" ||
			note.AddedBy != "alice" || note.PublicationId != 1 {
			t.Errorf("unexpected note: %+v", note)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		flagged := try.To(scanner.New[bool]().QueryAll(
			ctx, conn, `select "flagged" from "publication" where "id" = 1`,
		)).OrFatal(t)
		if !cmp.SliceEq(flagged, []bool{true}) {
			t.Errorf("publication is not flagged")
		}

		notes := try.To(testee.Notes(ctx, 1)).OrFatal(t)
		if len(notes) != 1 || notes[0].Id != note.Id || notes[0].Text != note.Text {
			t.Errorf("unexpected notes: %+v", notes)
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 2 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		if logs[0].Action != "UPDATE" || logs[0].TableName != "publication" || logs[0].RowId != 1 {
			t.Errorf("unexpected log: %+v", logs[0])
		}
		assertPayload(t, logs[0].Payload, &domain.LogPayload{
			Data: map[string]any{
				"flagged": domain.FieldChange{Old: false, New: true},
			},
			Labels: map[string]any{"publication": "Growing artificial societies (1)"},
		})
		if logs[1].Action != "INSERT" || logs[1].TableName != "note" || logs[1].RowId != note.Id {
			t.Errorf("unexpected log: %+v", logs[1])
		}
	})

	t.Run("it only adds the note when the publication is flagged already", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "bob"}
		note := try.To(testee.Flag(ctx, cmd, 2, "still a duplicate")).OrFatal(t)

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		if logs[0].Action != "INSERT" || logs[0].TableName != "note" || logs[0].RowId != note.Id {
			t.Errorf("unexpected log: %+v", logs[0])
		}
	})

	t.Run("Unflag clears the mark and logs it", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "bob"}
		if err := testee.Unflag(ctx, cmd, 2); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		flagged := try.To(scanner.New[bool]().QueryAll(
			ctx, conn, `select "flagged" from "publication" where "id" = 2`,
		)).OrFatal(t)
		if !cmp.SliceEq(flagged, []bool{false}) {
			t.Errorf("publication is left flagged")
		}

		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		assertPayload(t, logs[0].Payload, &domain.LogPayload{
			Data: map[string]any{
				"flagged": domain.FieldChange{Old: true, New: false},
			},
			Labels: map[string]any{"publication": "Simulation for the social scientist (2)"},
		})
	})

	t.Run("Unflag on a calm publication changes nothing", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "bob"}
		if err := testee.Unflag(ctx, cmd, 1); err != nil {
			t.Fatal(err)
		}
		if cmd.Saved() {
			t.Error("the command reaches the database for nothing")
		}
	})

	t.Run("it returns ErrMissing for an unknown publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if _, err := testee.Flag(ctx, cmd, 999, "ghost"); !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
	})
}

func TestPublication_Notes(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t1 := try.To(rfctime.ParseRFC3339DateTime("2024-03-01T10:00:00.000+00:00")).OrFatal(t).Time()

	given := tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Ecological Modelling", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "UNREVIEWED",
				IsPrimary: true, AddedBy: "alice", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
		Notes: []tables.Note{
			{
				Id: 1, Text: "wrong container?", AddedBy: "bob", PublicationId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
	}

	t.Run("AddNote appends a note and lists it newest first", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		note := try.To(testee.AddNote(ctx, cmd, 1, "checked the doi")).OrFatal(t)
		if note.Id == 0 || note.AddedBy != "alice" || note.PublicationId != 1 {
			t.Errorf("unexpected note: %+v", note)
		}

		notes := try.To(testee.Notes(ctx, 1)).OrFatal(t)
		if len(notes) != 2 || notes[0].Id != note.Id || notes[1].Id != 1 {
			t.Fatalf("unexpected notes: %+v", notes)
		}
		if notes[0].IsDeleted() || notes[1].IsDeleted() {
			t.Errorf("notes look deleted: %+v", notes)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 || logs[0].Action != "INSERT" || logs[0].TableName != "note" {
			t.Fatalf("unexpected logs: %+v", logs)
		}
		assertPayload(t, logs[0].Payload, &domain.LogPayload{
			Data: map[string]any{
				"text": "checked the doi", "added_by": "alice", "publication_id": 1,
			},
			Labels: map[string]any{"publication": "Growing artificial societies (1)"},
		})
	})

	t.Run("AddNote can leave a note bound to no publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		note := try.To(testee.AddNote(ctx, cmd, 0, "standalone remark")).OrFatal(t)
		if note.PublicationId != 0 {
			t.Errorf("unexpected note: %+v", note)
		}

		notes := try.To(testee.Notes(ctx, 1)).OrFatal(t)
		if len(notes) != 1 || notes[0].Id != 1 {
			t.Errorf("the detached note leaks into the publication: %+v", notes)
		}
	})

	t.Run("AddNote returns ErrMissing for an unknown publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if _, err := testee.AddNote(ctx, cmd, 999, "ghost"); !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
	})

	t.Run("DeleteNote keeps the note, marked deleted", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgpub.New(pool)

		cmd := &domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
		if err := testee.DeleteNote(ctx, cmd, 1); err != nil {
			t.Fatal(err)
		}

		notes := try.To(testee.Notes(ctx, 1)).OrFatal(t)
		if len(notes) != 1 || !notes[0].IsDeleted() || notes[0].DeletedBy != "alice" {
			t.Fatalf("the note is not marked deleted: %+v", notes)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		logs := getLogs(ctx, t, conn)
		if len(logs) != 1 || logs[0].Action != "DELETE" || logs[0].TableName != "note" ||
			logs[0].RowId != 1 {
			t.Fatalf("unexpected logs: %+v", logs)
		}

		// the mark is final: deleting again finds nothing.
		cmd2 := &domain.AuditCommand{Action: domain.ActionManual, Creator: "bob"}
		if err := testee.DeleteNote(ctx, cmd2, 1); !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("expected ErrMissing but got %v", err)
		}
	})
}
