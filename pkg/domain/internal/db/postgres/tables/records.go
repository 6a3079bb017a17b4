package tables

import (
	"time"

	"github.com/comses/citation/pkg/utils/cmp"
)

// golang representation of records of the postgres tables.
//
// Records carry explicit ids so that a test premise and its expectations
// can reference each other. After inserting, sync the serial sequences
// (Operation.Apply does) or inserts from the tested code will collide.

type Curator struct {
	Id          int
	Username    string
	Password    string
	Email       string
	FirstName   string
	LastName    string
	IsActive    bool
	IsSuperuser bool
	DateJoined  time.Time
}

type Container struct {
	Id           int
	Type         string
	Name         string
	Issn         string
	Eissn        string
	DateAdded    time.Time
	DateModified time.Time
}

func (a *Container) Equal(b *Container) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id &&
		a.Type == b.Type &&
		a.Name == b.Name &&
		a.Issn == b.Issn &&
		a.Eissn == b.Eissn &&
		a.DateAdded.Equal(b.DateAdded) &&
		a.DateModified.Equal(b.DateModified)
}

type ContainerAlias struct {
	Id          int
	ContainerId int
	Name        string
}

type Author struct {
	Id           int
	Type         string
	GivenName    string
	FamilyName   string
	Orcid        string
	Researcherid string
	Email        string
	DateAdded    time.Time
	DateModified time.Time
}

func (a *Author) Equal(b *Author) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id &&
		a.Type == b.Type &&
		a.GivenName == b.GivenName &&
		a.FamilyName == b.FamilyName &&
		a.Orcid == b.Orcid &&
		a.Researcherid == b.Researcherid &&
		a.Email == b.Email &&
		a.DateAdded.Equal(b.DateAdded) &&
		a.DateModified.Equal(b.DateModified)
}

type AuthorAlias struct {
	Id         int
	AuthorId   int
	GivenName  string
	FamilyName string
}

type Publication struct {
	Id                int
	Title             string
	Abstract          string
	ShortTitle        string
	Url               string
	DatePublishedText string
	ContactAuthorName string
	ContactEmail      string
	Status            string
	Flagged           bool
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
	AddedBy           string
	AssignedCurator   string
	ContainerId       int
	DateAdded         time.Time
	DateModified      time.Time
}

func (a *Publication) Equal(b *Publication) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id &&
		a.Title == b.Title &&
		a.Abstract == b.Abstract &&
		a.ShortTitle == b.ShortTitle &&
		a.Url == b.Url &&
		a.DatePublishedText == b.DatePublishedText &&
		a.ContactAuthorName == b.ContactAuthorName &&
		a.ContactEmail == b.ContactEmail &&
		a.Status == b.Status &&
		a.Flagged == b.Flagged &&
		a.IsPrimary == b.IsPrimary &&
		a.Pages == b.Pages &&
		a.Issn == b.Issn &&
		a.Volume == b.Volume &&
		a.Issue == b.Issue &&
		a.Series == b.Series &&
		a.SeriesTitle == b.SeriesTitle &&
		a.SeriesText == b.SeriesText &&
		a.Doi == b.Doi &&
		a.Isi == b.Isi &&
		a.AddedBy == b.AddedBy &&
		a.AssignedCurator == b.AssignedCurator &&
		a.ContainerId == b.ContainerId &&
		a.DateAdded.Equal(b.DateAdded) &&
		a.DateModified.Equal(b.DateModified)
}

type PublicationAuthor struct {
	Id            int
	PublicationId int
	AuthorId      int
	Role          string
}

type PublicationCitation struct {
	Id            int
	PublicationId int
	CitationId    int
}

// Vocab is a row of "platform", "sponsor", "tag" or "model_documentation".
//
// Url and Description are kept only by platforms and sponsors.
type Vocab struct {
	Id           int
	Name         string
	Url          string
	Description  string
	DateAdded    time.Time
	DateModified time.Time
}

// PublicationVocab is a row of a publication/vocabulary join table.
type PublicationVocab struct {
	Id            int
	PublicationId int
	RecordId      int
}

type CodeArchiveUrlCategory struct {
	Id          int
	Category    string
	Subcategory string
}

type CodeArchiveUrlPattern struct {
	Id               int
	RegexHostMatcher string
	RegexPathMatcher string
	CategoryId       int
}

type CodeArchiveUrl struct {
	Id                        int
	PublicationId             int
	CategoryId                int
	Url                       string
	Status                    string
	IsActive                  bool
	SystemOverridableCategory bool
	Notes                     string
	Creator                   string
	DateCreated               time.Time
	LastModified              time.Time
}

type UrlStatusLog struct {
	Id              int
	PublicationId   int
	Url             string
	StatusCode      int
	StatusReason    string
	Headers         string
	SystemGenerated bool
	DateCreated     time.Time
	LastModified    time.Time
}

type Note struct {
	Id            int
	Text          string
	AddedBy       string
	PublicationId int
	DateAdded     time.Time
	DateModified  time.Time
	DeletedOn     *time.Time
	DeletedBy     string
}

type AuditCommand struct {
	Id        int
	Action    string
	Creator   string
	Message   string
	DateAdded time.Time
}

func (a *AuditCommand) Equal(b *AuditCommand) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id &&
		a.Action == b.Action &&
		a.Creator == b.Creator &&
		a.Message == b.Message &&
		a.DateAdded.Equal(b.DateAdded)
}

// AuditLog is a row of "audit_log". Payload is JSON text, "" meaning null.
type AuditLog struct {
	Id            int
	CommandId     int
	Action        string
	TableName     string
	RowId         int
	PublicationId int
	Payload       string
	Message       string
	DateAdded     time.Time
}

// Raw is a row of "raw". Value is JSON text.
type Raw struct {
	Id            int
	Key           string
	Value         string
	PublicationId int
	ContainerId   int
	DateAdded     time.Time
	DateModified  time.Time
}

type RawAuthor struct {
	Id       int
	RawId    int
	AuthorId int
}

// SuggestedMerge is a row of "suggested_merge". NewContent is JSON text.
type SuggestedMerge struct {
	Id          int
	ContentType string
	Duplicates  []int
	NewContent  string
	Creator     string
	Comment     string
	DateAdded   time.Time
	DateApplied *time.Time
}

func (a *SuggestedMerge) Equal(b *SuggestedMerge) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id &&
		a.ContentType == b.ContentType &&
		cmp.SliceEq(a.Duplicates, b.Duplicates) &&
		a.NewContent == b.NewContent &&
		a.Creator == b.Creator &&
		a.Comment == b.Comment &&
		a.DateAdded.Equal(b.DateAdded) &&
		cmp.PEqualWith(a.DateApplied, b.DateApplied, func(x, y time.Time) bool { return x.Equal(y) })
}

// Cache is a row of "cache". Value is JSON text.
type Cache struct {
	Key       string
	Value     string
	ExpiresAt time.Time
}
