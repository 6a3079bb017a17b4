package publications

import (
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/api/types/publications"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/slices"
)

func ComposeRecord(r domain.NamedRecord) publications.Record {
	return publications.Record{Id: r.Id, Name: r.Name}
}

func ComposeCreator(c domain.Creator) publications.Creator {
	return publications.Creator{
		Id:         c.Id,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
		Type:       c.Type.String(),
		Email:      c.Email,
		Role:       c.Role.String(),
	}
}

func ComposeContainer(c domain.Container) publications.Container {
	return publications.Container{
		Id:    c.Id,
		Type:  c.Type,
		Name:  c.Name,
		Issn:  c.Issn,
		Eissn: c.Eissn,
	}
}

func ComposeArchiveUrl(u domain.CodeArchiveUrl) publications.ArchiveUrl {
	return publications.ArchiveUrl{
		Id:                        u.Id,
		Category:                  u.Category.Id,
		CategoryName:              u.Category.Name(),
		SystemOverridableCategory: u.SystemOverridableCategory,
		Url:                       u.Url,
		Status:                    u.Status.String(),
		Creator:                   u.Creator,
	}
}

func ComposeNote(n domain.Note) publications.Note {
	var deletedOn *rfctime.RFC3339
	if n.DeletedOn != nil {
		t := rfctime.New(*n.DeletedOn)
		deletedOn = &t
	}
	return publications.Note{
		Id:          n.Id,
		Text:        n.Text,
		Publication: n.PublicationId,
		AddedBy:     n.AddedBy,
		DateAdded:   rfctime.New(n.DateAdded),
		DeletedOn:   deletedOn,
		DeletedBy:   n.DeletedBy,
		IsDeleted:   n.IsDeleted(),
	}
}

func ComposeLog(l domain.AuditLog) publications.Log {
	var payload map[string]any
	if l.Payload != nil {
		payload = map[string]any{
			"data":   l.Payload.Data,
			"labels": l.Payload.Labels,
		}
	}
	return publications.Log{
		Id:             l.Id,
		AuditCommandId: l.CommandId,
		Action:         l.Action.String(),
		RowId:          l.RowId,
		Table:          l.Table,
		Payload:        payload,
	}
}

func ComposeActivity(t domain.AuditTrail) publications.Activity {
	return publications.Activity{
		Id:        t.Command.Id,
		Creator:   t.Command.Creator,
		Action:    t.Command.Action.String(),
		Message:   t.Command.Message,
		DateAdded: rfctime.New(t.Command.DateAdded),
		Logs:      slices.Map(t.Logs, ComposeLog),
	}
}

func ComposeContribution(c domain.Contribution) publications.Contribution {
	return publications.Contribution{
		Creator:      c.Creator,
		Contribution: c.Contribution,
		DateAdded:    rfctime.New(c.DateAdded),
	}
}

func ComposeSummary(p domain.Publication, contributions []domain.Contribution) publications.Summary {
	return publications.Summary{
		Id:                p.Id,
		Title:             p.Title,
		Status:            p.Status.String(),
		Flagged:           p.Flagged,
		ApaCitationString: p.ApaCitationString(),
		DateModified:      rfctime.New(p.DateModified),
		ContributorData:   slices.Map(contributions, ComposeContribution),
	}
}

func ComposeDetail(
	p domain.Publication,
	notes []domain.Note,
	trails []domain.AuditTrail,
) publications.Detail {
	var year *int
	if y, ok := p.YearPublished(); ok {
		year = &y
	}
	return publications.Detail{
		Id:                p.Id,
		Title:             p.Title,
		Doi:               p.Doi,
		Status:            p.Status.String(),
		Flagged:           p.Flagged,
		IsPrimary:         p.IsPrimary,
		DatePublishedText: p.DatePublishedText,
		YearPublished:     year,
		Volume:            p.Volume,
		Pages:             p.Pages,
		ContactAuthorName: p.ContactAuthorName,
		ContactEmail:      p.ContactEmail,
		AssignedCurator:   p.AssignedCurator,
		ApaCitationString: p.ApaCitationString(),
		DateAdded:         rfctime.New(p.DateAdded),
		DateModified:      rfctime.New(p.DateModified),

		Container: ComposeContainer(p.Container),
		Creators:  slices.Map(p.Creators, ComposeCreator),

		Tags:               slices.Map(p.Tags, ComposeRecord),
		Sponsors:           slices.Map(p.Sponsors, ComposeRecord),
		Platforms:          slices.Map(p.Platforms, ComposeRecord),
		ModelDocumentation: slices.Map(p.ModelDocumentation, ComposeRecord),

		CodeArchiveUrls: slices.Map(p.CodeArchiveUrls, ComposeArchiveUrl),
		Notes:           slices.Map(notes, ComposeNote),
		ActivityLogs:    slices.Map(trails, ComposeActivity),
	}
}
