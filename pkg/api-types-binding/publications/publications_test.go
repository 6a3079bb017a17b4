package publications_test

import (
	"testing"
	"time"

	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
	bindpubs "github.com/comses/citation/pkg/api-types-binding/publications"
	"github.com/comses/citation/pkg/domain"
)

func ref[T any](v T) *T { return &v }

func TestComposeDetail(t *testing.T) {
	added := time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	noteDeleted := time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC)

	for name, testcase := range map[string]struct {
		when struct {
			publication domain.Publication
			notes       []domain.Note
			trails      []domain.AuditTrail
		}
		then apipubs.Detail
	}{
		"When a reviewed publication is passed, it should compose a Detail corresponding to it.": {
			when: struct {
				publication domain.Publication
				notes       []domain.Note
				trails      []domain.AuditTrail
			}{
				publication: domain.Publication{
					PublicationBody: domain.PublicationBody{
						Id:                42,
						Title:             "The Evolution of Cooperation",
						DatePublishedText: "1984",
						ContactAuthorName: "Robert Axelrod",
						ContactEmail:      "axe@example.edu",
						Status:            domain.Reviewed,
						Flagged:           true,
						IsPrimary:         true,
						Pages:             "241",
						Volume:            "1",
						Doi:               "10.1234/evolcoop",
						AddedBy:           "loader",
						AssignedCurator:   "alice",
						DateAdded:         added,
						DateModified:      modified,
					},
					Container: domain.Container{
						Id: 3, Type: "book", Name: "Basic Books",
					},
					Creators: []domain.Creator{
						{
							Author: domain.Author{
								Id: 7, Type: domain.Individual,
								GivenName: "ROBERT", FamilyName: "AXELROD",
							},
							Role: domain.RoleAuthor,
						},
					},
					Tags:      []domain.NamedRecord{{Id: 11, Name: "cooperation"}},
					Sponsors:  []domain.NamedRecord{{Id: 12, Name: "NSF"}},
					Platforms: []domain.NamedRecord{{Id: 13, Name: "NetLogo"}},
					ModelDocumentation: []domain.NamedRecord{
						{Id: 14, Name: "ODD"},
					},
					CodeArchiveUrls: []domain.CodeArchiveUrl{
						{
							Id: 5, PublicationId: 42,
							Url: "https://www.comses.net/codebases/111/",
							Category: domain.CodeArchiveUrlCategory{
								Id: 2, Category: "Archive", Subcategory: "CoMSES",
							},
							Status: domain.UrlAvailable, IsActive: true,
							SystemOverridableCategory: true,
							Creator:                   "bob",
						},
					},
				},
				notes: []domain.Note{
					{
						Id: 9, Text: "verified against the PDF", AddedBy: "alice",
						PublicationId: 42, DateAdded: added,
					},
					{
						Id: 10, Text: "wrong DOI", AddedBy: "alice",
						PublicationId: 42, DateAdded: added,
						DeletedOn: &noteDeleted, DeletedBy: "bob",
					},
				},
				trails: []domain.AuditTrail{
					{
						Command: domain.AuditCommand{
							Id: 100, Action: domain.ActionManual, Creator: "alice",
							Message: "title: a -> b", DateAdded: modified,
						},
						Logs: []domain.AuditLog{
							{
								Id: 1000, CommandId: 100, Action: domain.LogUpdate,
								Table: "publication", RowId: 42, PublicationId: 42,
								Payload: &domain.LogPayload{
									Data: map[string]any{
										"title": map[string]any{"old": "a", "new": "b"},
									},
								},
								DateAdded: modified,
							},
						},
					},
				},
			},
			then: apipubs.Detail{
				Id:                42,
				Title:             "The Evolution of Cooperation",
				Doi:               "10.1234/evolcoop",
				Status:            "REVIEWED",
				Flagged:           true,
				IsPrimary:         true,
				DatePublishedText: "1984",
				YearPublished:     ref(1984),
				Volume:            "1",
				Pages:             "241",
				ContactAuthorName: "Robert Axelrod",
				ContactEmail:      "axe@example.edu",
				AssignedCurator:   "alice",
				ApaCitationString: "AXELROD, R. (1984). The Evolution of Cooperation. Basic Books, 1(241)",
				DateAdded:         rfctime.New(added),
				DateModified:      rfctime.New(modified),
				Container: apipubs.Container{
					Id: 3, Type: "book", Name: "Basic Books",
				},
				Creators: []apipubs.Creator{
					{
						Id: 7, GivenName: "ROBERT", FamilyName: "AXELROD",
						Type: "INDIVIDUAL", Role: "AUTHOR",
					},
				},
				Tags:      []apipubs.Record{{Id: 11, Name: "cooperation"}},
				Sponsors:  []apipubs.Record{{Id: 12, Name: "NSF"}},
				Platforms: []apipubs.Record{{Id: 13, Name: "NetLogo"}},
				ModelDocumentation: []apipubs.Record{
					{Id: 14, Name: "ODD"},
				},
				CodeArchiveUrls: []apipubs.ArchiveUrl{
					{
						Id: 5, Category: 2, CategoryName: "Archive / CoMSES",
						SystemOverridableCategory: true,
						Url:                       "https://www.comses.net/codebases/111/",
						Status:                    "available",
						Creator:                   "bob",
					},
				},
				Notes: []apipubs.Note{
					{
						Id: 9, Text: "verified against the PDF", Publication: 42,
						AddedBy: "alice", DateAdded: rfctime.New(added),
					},
					{
						Id: 10, Text: "wrong DOI", Publication: 42,
						AddedBy: "alice", DateAdded: rfctime.New(added),
						DeletedOn: ref(rfctime.New(noteDeleted)),
						DeletedBy: "bob", IsDeleted: true,
					},
				},
				ActivityLogs: []apipubs.Activity{
					{
						Id: 100, Creator: "alice", Action: "MANUAL",
						Message: "title: a -> b", DateAdded: rfctime.New(modified),
						Logs: []apipubs.Log{
							{
								Id: 1000, AuditCommandId: 100, Action: "UPDATE",
								RowId: 42, Table: "publication",
								Payload: map[string]any{
									"data": map[string]any{
										"title": map[string]any{"old": "a", "new": "b"},
									},
									"labels": nil,
								},
							},
						},
					},
				},
			},
		},
		"When a publication cataloged only by citation is passed, it should compose a bare Detail.": {
			when: struct {
				publication domain.Publication
				notes       []domain.Note
				trails      []domain.AuditTrail
			}{
				publication: domain.Publication{
					PublicationBody: domain.PublicationBody{
						Id:                43,
						Title:             "An unknown reference",
						DatePublishedText: "n.d.",
						Status:            domain.Unreviewed,
						AddedBy:           "loader",
						DateAdded:         added,
						DateModified:      added,
					},
				},
			},
			then: apipubs.Detail{
				Id:                 43,
				Title:              "An unknown reference",
				Status:             "UNREVIEWED",
				DatePublishedText:  "n.d.",
				YearPublished:      nil,
				ApaCitationString:  " (n.d.). An unknown reference. None, ()",
				DateAdded:          rfctime.New(added),
				DateModified:       rfctime.New(added),
				Creators:           []apipubs.Creator{},
				Tags:               []apipubs.Record{},
				Sponsors:           []apipubs.Record{},
				Platforms:          []apipubs.Record{},
				ModelDocumentation: []apipubs.Record{},
				CodeArchiveUrls:    []apipubs.ArchiveUrl{},
				Notes:              []apipubs.Note{},
				ActivityLogs:       []apipubs.Activity{},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			actual := bindpubs.ComposeDetail(
				testcase.when.publication, testcase.when.notes, testcase.when.trails,
			)
			if !actual.Equal(testcase.then) {
				t.Fatalf("unexpected result: ComposeDetail --> %+v (expected: %+v)", actual, testcase.then)
			}
		})
	}
}

func TestComposeSummary(t *testing.T) {
	modified := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	publication := domain.Publication{
		PublicationBody: domain.PublicationBody{
			Id:                42,
			Title:             "The Evolution of Cooperation",
			DatePublishedText: "1984",
			Status:            domain.Reviewed,
			Flagged:           true,
			IsPrimary:         true,
			Pages:             "241",
			Volume:            "1",
			DateModified:      modified,
		},
		Container: domain.Container{Id: 3, Name: "Basic Books"},
		Creators: []domain.Creator{
			{
				Author: domain.Author{
					Id: 7, GivenName: "ROBERT", FamilyName: "AXELROD",
				},
				Role: domain.RoleAuthor,
			},
		},
	}
	contributions := []domain.Contribution{
		{Creator: "alice", Contribution: 75, DateAdded: modified},
		{Creator: "bob", Contribution: 25, DateAdded: modified},
	}

	expected := apipubs.Summary{
		Id:                42,
		Title:             "The Evolution of Cooperation",
		Status:            "REVIEWED",
		Flagged:           true,
		ApaCitationString: "AXELROD, R. (1984). The Evolution of Cooperation. Basic Books, 1(241)",
		DateModified:      rfctime.New(modified),
		ContributorData: []apipubs.Contribution{
			{Creator: "alice", Contribution: 75, DateAdded: rfctime.New(modified)},
			{Creator: "bob", Contribution: 25, DateAdded: rfctime.New(modified)},
		},
	}

	actual := bindpubs.ComposeSummary(publication, contributions)
	if !actual.Equal(expected) {
		t.Errorf("unexpected result: ComposeSummary --> %+v (expected: %+v)", actual, expected)
	}
}
