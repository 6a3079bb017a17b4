package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/conn/db/postgres/pool/testenv"
	"github.com/comses/citation/pkg/domain"
	kpgaud "github.com/comses/citation/pkg/domain/audit/db/postgres"
	"github.com/comses/citation/pkg/domain/internal/db/postgres/tables"
	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/try"
)

func timestamps(t *testing.T) []time.Time {
	stamps := []time.Time{}
	for _, s := range []string{
		"2024-03-01T10:00:00.000+00:00",
		"2024-03-02T10:00:00.000+00:00",
		"2024-03-03T10:00:00.000+00:00",
		"2024-03-04T10:00:00.000+00:00",
		"2024-03-05T10:00:00.000+00:00",
	} {
		stamps = append(stamps, try.To(rfctime.ParseRFC3339DateTime(s)).OrFatal(t).Time())
	}
	return stamps
}

// The fixture tells a short curation story: a load, hand edits by two
// curators, and a merge which deleted publication 3. Note that the
// deleted publication only lives on in the logs.
func premise(t *testing.T) tables.Operation {
	ts := timestamps(t)
	t1, t2, t3, t4, t5 := ts[0], ts[1], ts[2], ts[3], ts[4]

	return tables.Operation{
		Containers: []tables.Container{
			{Id: 1, Name: "Artificial Life", DateAdded: t1, DateModified: t1},
		},
		Publications: []tables.Publication{
			{
				Id: 1, Title: "Growing artificial societies", Status: "REVIEWED",
				IsPrimary: true, AddedBy: "system", ContainerId: 1,
				DateAdded: t1, DateModified: t2,
			},
			{
				Id: 2, Title: "Sugarscape revisited", Status: "UNREVIEWED",
				IsPrimary: true, AddedBy: "system", ContainerId: 1,
				DateAdded: t1, DateModified: t1,
			},
		},
		AuditCommands: []tables.AuditCommand{
			{Id: 1, Action: "LOAD", Creator: "system", Message: "loaded primary.bib", DateAdded: t1},
			{Id: 2, Action: "MANUAL", Creator: "alice", DateAdded: t2},
			{Id: 3, Action: "MANUAL", Creator: "bob", DateAdded: t3},
			{Id: 4, Action: "MANUAL", Creator: "alice", DateAdded: t4},
			{Id: 5, Action: "MERGE", Creator: "bob", Message: "folding duplicates", DateAdded: t5},
		},
		AuditLogs: []tables.AuditLog{
			{
				Id: 1, CommandId: 1, Action: "INSERT", TableName: "publication",
				RowId: 1, PublicationId: 1, DateAdded: t1,
				Payload: `{"data":{"title":"Growing artificial societies"},"labels":{"publication":"Growing artificial societies (1)"}}`,
			},
			{
				Id: 2, CommandId: 1, Action: "INSERT", TableName: "publication",
				RowId: 2, PublicationId: 2, DateAdded: t1,
				Payload: `{"data":{"title":"Sugarscape revisited"},"labels":{"publication":"Sugarscape revisited (2)"}}`,
			},
			{
				Id: 3, CommandId: 2, Action: "UPDATE", TableName: "publication",
				RowId: 1, PublicationId: 1, DateAdded: t2,
				Payload: `{"data":{"status":{"old":"UNREVIEWED","new":"REVIEWED"}},"labels":{"publication":"Growing artificial societies (1)"}}`,
			},
			{
				Id: 4, CommandId: 2, Action: "INSERT", TableName: "note",
				RowId: 1, PublicationId: 1, DateAdded: t2,
			},
			{
				Id: 5, CommandId: 3, Action: "UPDATE", TableName: "author",
				RowId: 7, DateAdded: t3,
			},
			{
				Id: 6, CommandId: 3, Action: "UPDATE", TableName: "publication",
				RowId: 2, PublicationId: 2, DateAdded: t3,
			},
			{
				Id: 7, CommandId: 3, Action: "UPDATE", TableName: "publication",
				RowId: 1, PublicationId: 1, DateAdded: t3,
			},
			{
				Id: 8, CommandId: 4, Action: "UPDATE", TableName: "publication_tags",
				RowId: 11, PublicationId: 2, DateAdded: t4,
			},
			{
				Id: 9, CommandId: 5, Action: "DELETE", TableName: "publication",
				RowId: 3, PublicationId: 3, DateAdded: t5,
			},
			{
				Id: 10, CommandId: 5, Action: "UPDATE", TableName: "publication",
				RowId: 1, PublicationId: 1, DateAdded: t5,
			},
		},
	}
}

func trailsEq(a, e domain.AuditTrail) bool { return a.Equal(&e) }

func TestAudit_ForPublication(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it returns whole commands which touched the publication, newest first", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgaud.New(pool)
		ts := timestamps(t)
		t1, t2, t3, t5 := ts[0], ts[1], ts[2], ts[4]

		actual := try.To(testee.ForPublication(ctx, 1)).OrFatal(t)
		expected := []domain.AuditTrail{
			{
				Command: domain.AuditCommand{
					Id: 5, Action: domain.ActionMerge, Creator: "bob",
					Message: "folding duplicates", DateAdded: t5,
				},
				Logs: []domain.AuditLog{
					{
						Id: 9, CommandId: 5, Action: domain.LogDelete,
						Table: "publication", RowId: 3, PublicationId: 3, DateAdded: t5,
					},
					{
						Id: 10, CommandId: 5, Action: domain.LogUpdate,
						Table: "publication", RowId: 1, PublicationId: 1, DateAdded: t5,
					},
				},
			},
			{
				Command: domain.AuditCommand{
					Id: 3, Action: domain.ActionManual, Creator: "bob", DateAdded: t3,
				},
				Logs: []domain.AuditLog{
					{
						Id: 5, CommandId: 3, Action: domain.LogUpdate,
						Table: "author", RowId: 7, DateAdded: t3,
					},
					{
						Id: 6, CommandId: 3, Action: domain.LogUpdate,
						Table: "publication", RowId: 2, PublicationId: 2, DateAdded: t3,
					},
					{
						Id: 7, CommandId: 3, Action: domain.LogUpdate,
						Table: "publication", RowId: 1, PublicationId: 1, DateAdded: t3,
					},
				},
			},
			{
				Command: domain.AuditCommand{
					Id: 2, Action: domain.ActionManual, Creator: "alice", DateAdded: t2,
				},
				Logs: []domain.AuditLog{
					{
						Id: 3, CommandId: 2, Action: domain.LogUpdate,
						Table: "publication", RowId: 1, PublicationId: 1, DateAdded: t2,
						Payload: &domain.LogPayload{
							Data: map[string]any{
								"status": domain.FieldChange{Old: "UNREVIEWED", New: "REVIEWED"},
							},
							Labels: map[string]any{"publication": "Growing artificial societies (1)"},
						},
					},
					{
						Id: 4, CommandId: 2, Action: domain.LogInsert,
						Table: "note", RowId: 1, PublicationId: 1, DateAdded: t2,
					},
				},
			},
			{
				Command: domain.AuditCommand{
					Id: 1, Action: domain.ActionLoad, Creator: "system",
					Message: "loaded primary.bib", DateAdded: t1,
				},
				Logs: []domain.AuditLog{
					{
						Id: 1, CommandId: 1, Action: domain.LogInsert,
						Table: "publication", RowId: 1, PublicationId: 1, DateAdded: t1,
						Payload: &domain.LogPayload{
							Data:   map[string]any{"title": "Growing artificial societies"},
							Labels: map[string]any{"publication": "Growing artificial societies (1)"},
						},
					},
					{
						Id: 2, CommandId: 1, Action: domain.LogInsert,
						Table: "publication", RowId: 2, PublicationId: 2, DateAdded: t1,
						Payload: &domain.LogPayload{
							Data:   map[string]any{"title": "Sugarscape revisited"},
							Labels: map[string]any{"publication": "Sugarscape revisited (2)"},
						},
					},
				},
			},
		}
		if !cmp.SliceEqWith(actual, expected, trailsEq) {
			t.Errorf(
				"unmatch:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})

	t.Run("it returns nothing for a publication without history", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgaud.New(pool)

		actual := try.To(testee.ForPublication(ctx, 99)).OrFatal(t)
		if len(actual) != 0 {
			t.Errorf("unexpected trails: %+v", actual)
		}
	})
}

func TestAudit_ForRow(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it returns the history of a row which is not a publication", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgaud.New(pool)
		ts := timestamps(t)
		t3 := ts[2]

		actual := try.To(testee.ForRow(ctx, "author", 7)).OrFatal(t)
		expected := []domain.AuditTrail{
			{
				Command: domain.AuditCommand{
					Id: 3, Action: domain.ActionManual, Creator: "bob", DateAdded: t3,
				},
				Logs: []domain.AuditLog{
					{
						Id: 5, CommandId: 3, Action: domain.LogUpdate,
						Table: "author", RowId: 7, DateAdded: t3,
					},
					{
						Id: 6, CommandId: 3, Action: domain.LogUpdate,
						Table: "publication", RowId: 2, PublicationId: 2, DateAdded: t3,
					},
					{
						Id: 7, CommandId: 3, Action: domain.LogUpdate,
						Table: "publication", RowId: 1, PublicationId: 1, DateAdded: t3,
					},
				},
			},
		}
		if !cmp.SliceEqWith(actual, expected, trailsEq) {
			t.Errorf(
				"unmatch:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})

	t.Run("it finds rows which no longer exist", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgaud.New(pool)

		actual := try.To(testee.ForRow(ctx, "publication", 3)).OrFatal(t)
		if len(actual) != 1 || actual[0].Command.Id != 5 {
			t.Fatalf("unexpected trails: %+v", actual)
		}
		if len(actual[0].Logs) != 2 {
			t.Errorf("unexpected logs: %+v", actual[0].Logs)
		}
	})
}

func TestAudit_Contributions(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	type When struct {
		PublicationId int
	}
	type Then struct {
		Contributions []domain.Contribution
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			pool := poolBroaker.GetPool(ctx, t)
			if err := given.Apply(ctx, pool); err != nil {
				t.Fatal(err)
			}
			testee := kpgaud.New(pool)

			actual := try.To(testee.Contributions(ctx, when.PublicationId)).OrFatal(t)
			if !cmp.SliceEqWith(actual, then.Contributions, domain.Contribution.Equal) {
				t.Errorf(
					"unmatch: (actual, expected) = (%+v, %+v)",
					actual, then.Contributions,
				)
			}
		}
	}

	ts := timestamps(t)
	t2, t3, t4 := ts[1], ts[2], ts[3]

	t.Run("it shares out hand-entered changes, most recent contributor first", theory(
		// alice wrote 2 of the 3 manual logs on publication 1, bob 1.
		When{PublicationId: 1},
		Then{Contributions: []domain.Contribution{
			{Creator: "bob", Contribution: 33, DateAdded: t3},
			{Creator: "alice", Contribution: 66, DateAdded: t2},
		}},
	))
	t.Run("it counts logs on related rows toward the publication", theory(
		When{PublicationId: 2},
		Then{Contributions: []domain.Contribution{
			{Creator: "alice", Contribution: 50, DateAdded: t4},
			{Creator: "bob", Contribution: 50, DateAdded: t3},
		}},
	))
	t.Run("it returns nothing for a publication nobody edited", theory(
		When{PublicationId: 99},
		Then{Contributions: []domain.Contribution{}},
	))
}

func TestAudit_AllContributions(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)
	given := premise(t)

	t.Run("it shares out changes for every primary publication at once", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}
		testee := kpgaud.New(pool)
		ts := timestamps(t)
		t2, t3, t4 := ts[1], ts[2], ts[3]

		actual := try.To(testee.AllContributions(ctx)).OrFatal(t)
		if len(actual) != 2 {
			t.Fatalf("unexpected publications: %+v", actual)
		}

		expected1 := []domain.Contribution{
			{Creator: "bob", Contribution: 33, DateAdded: t3},
			{Creator: "alice", Contribution: 66, DateAdded: t2},
		}
		if !cmp.SliceEqWith(actual[1], expected1, domain.Contribution.Equal) {
			t.Errorf("publication 1: (actual, expected) = (%+v, %+v)", actual[1], expected1)
		}

		expected2 := []domain.Contribution{
			{Creator: "alice", Contribution: 50, DateAdded: t4},
			{Creator: "bob", Contribution: 50, DateAdded: t3},
		}
		if !cmp.SliceEqWith(actual[2], expected2, domain.Contribution.Equal) {
			t.Errorf("publication 2: (actual, expected) = (%+v, %+v)", actual[2], expected2)
		}
	})
}
