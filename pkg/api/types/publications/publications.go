package publications

import (
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
	"github.com/comses/citation/pkg/utils/cmp"
)

// Record is one vocabulary entry attached to a publication.
type Record struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

func (r Record) Equal(o Record) bool {
	return r == o
}

// Creator is one byline of a publication, in author order.
type Creator struct {
	Id         int    `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Type       string `json:"type"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

func (c Creator) Equal(o Creator) bool {
	return c == o
}

// Container is the venue a publication appeared in.
type Container struct {
	Id    int    `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Issn  string `json:"issn"`
	Eissn string `json:"eissn"`
}

func (c Container) Equal(o Container) bool {
	return c == o
}

// ArchiveUrl is one code archive URL of a publication.
//
// Category is the id of a code archive url category; CategoryName its
// display name. Status is one of "available", "restricted" and
// "unavailable".
type ArchiveUrl struct {
	Id                        int    `json:"id"`
	Category                  int    `json:"category"`
	CategoryName              string `json:"category_name"`
	SystemOverridableCategory bool   `json:"system_overridable_category"`
	Url                       string `json:"url"`
	Status                    string `json:"status"`
	Creator                   string `json:"creator"`
}

func (a ArchiveUrl) Equal(o ArchiveUrl) bool {
	return a == o
}

// Note is a curator remark on a publication. Deleted notes stay in the
// listing, flagged with who deleted them and when.
type Note struct {
	Id          int              `json:"id"`
	Text        string           `json:"text"`
	Publication int              `json:"publication"`
	AddedBy     string           `json:"added_by"`
	DateAdded   rfctime.RFC3339  `json:"date_added"`
	DeletedOn   *rfctime.RFC3339 `json:"deleted_on"`
	DeletedBy   string           `json:"deleted_by,omitempty"`
	IsDeleted   bool             `json:"is_deleted"`
}

func (n Note) Equal(o Note) bool {
	return n.Id == o.Id &&
		n.Text == o.Text &&
		n.Publication == o.Publication &&
		n.AddedBy == o.AddedBy &&
		n.DateAdded.Equal(o.DateAdded) &&
		cmp.PEqualWith(n.DeletedOn, o.DeletedOn, rfctime.RFC3339.Equal) &&
		n.DeletedBy == o.DeletedBy &&
		n.IsDeleted == o.IsDeleted
}

// Log is one audited row change.
type Log struct {
	Id             int            `json:"id"`
	AuditCommandId int            `json:"audit_command_id"`
	Action         string         `json:"action"`
	RowId          int            `json:"row_id"`
	Table          string         `json:"table"`
	Payload        map[string]any `json:"payload"`
}

func (l Log) Equal(o Log) bool {
	return l.Id == o.Id &&
		l.AuditCommandId == o.AuditCommandId &&
		l.Action == o.Action &&
		l.RowId == o.RowId &&
		l.Table == o.Table &&
		cmp.JsonEq(l.Payload, o.Payload)
}

// Activity is one audit command with the row changes recorded under it.
type Activity struct {
	Id        int             `json:"id"`
	Creator   string          `json:"creator"`
	Action    string          `json:"action"`
	Message   string          `json:"message,omitempty"`
	DateAdded rfctime.RFC3339 `json:"date_added"`
	Logs      []Log           `json:"auditlogs"`
}

func (a Activity) Equal(o Activity) bool {
	return a.Id == o.Id &&
		a.Creator == o.Creator &&
		a.Action == o.Action &&
		a.Message == o.Message &&
		a.DateAdded.Equal(o.DateAdded) &&
		cmp.SliceEqWith(a.Logs, o.Logs, Log.Equal)
}

// Contribution tells which curators shaped a publication by hand.
type Contribution struct {
	Creator      string          `json:"creator"`
	Contribution int             `json:"contribution"`
	DateAdded    rfctime.RFC3339 `json:"date_added"`
}

func (c Contribution) Equal(o Contribution) bool {
	return c.Creator == o.Creator &&
		c.Contribution == o.Contribution &&
		c.DateAdded.Equal(o.DateAdded)
}

// Summary is one row of the publication listing.
type Summary struct {
	Id                int             `json:"id"`
	Title             string          `json:"title"`
	Status            string          `json:"status"`
	Flagged           bool            `json:"flagged"`
	ApaCitationString string          `json:"apa_citation_string"`
	DateModified      rfctime.RFC3339 `json:"date_modified"`
	ContributorData   []Contribution  `json:"contributor_data"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Id == o.Id &&
		s.Title == o.Title &&
		s.Status == o.Status &&
		s.Flagged == o.Flagged &&
		s.ApaCitationString == o.ApaCitationString &&
		s.DateModified.Equal(o.DateModified) &&
		cmp.SliceEqWith(s.ContributorData, o.ContributorData, Contribution.Equal)
}

// Page is one page of the publication listing.
//
// StartIndex and EndIndex are 1-based positions of the page's first and
// last row within the whole result.
type Page struct {
	StartIndex  int       `json:"start_index"`
	EndIndex    int       `json:"end_index"`
	NumPages    int       `json:"num_pages"`
	CurrentPage int       `json:"current_page"`
	Count       int       `json:"count"`
	Results     []Summary `json:"results"`
}

func (p Page) Equal(o Page) bool {
	return p.StartIndex == o.StartIndex &&
		p.EndIndex == o.EndIndex &&
		p.NumPages == o.NumPages &&
		p.CurrentPage == o.CurrentPage &&
		p.Count == o.Count &&
		cmp.SliceEqWith(p.Results, o.Results, Summary.Equal)
}

// Detail is the full curation view of one publication.
//
// YearPublished is derived from DatePublishedText and null when no year
// can be read out of it.
type Detail struct {
	Id                int             `json:"id"`
	Title             string          `json:"title"`
	Doi               string          `json:"doi"`
	Status            string          `json:"status"`
	Flagged           bool            `json:"flagged"`
	IsPrimary         bool            `json:"is_primary"`
	DatePublishedText string          `json:"date_published_text"`
	YearPublished     *int            `json:"year_published"`
	Volume            string          `json:"volume"`
	Pages             string          `json:"pages"`
	ContactAuthorName string          `json:"contact_author_name"`
	ContactEmail      string          `json:"contact_email"`
	AssignedCurator   string          `json:"assigned_curator"`
	ApaCitationString string          `json:"apa_citation_string"`
	DateAdded         rfctime.RFC3339 `json:"date_added"`
	DateModified      rfctime.RFC3339 `json:"date_modified"`

	Container Container `json:"container"`
	Creators  []Creator `json:"creators"`

	Tags               []Record `json:"tags"`
	Sponsors           []Record `json:"sponsors"`
	Platforms          []Record `json:"platforms"`
	ModelDocumentation []Record `json:"model_documentation"`

	CodeArchiveUrls []ArchiveUrl `json:"code_archive_urls"`
	Notes           []Note       `json:"notes"`
	ActivityLogs    []Activity   `json:"activity_logs"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Title == o.Title &&
		d.Doi == o.Doi &&
		d.Status == o.Status &&
		d.Flagged == o.Flagged &&
		d.IsPrimary == o.IsPrimary &&
		d.DatePublishedText == o.DatePublishedText &&
		cmp.PEqEq(d.YearPublished, o.YearPublished) &&
		d.Volume == o.Volume &&
		d.Pages == o.Pages &&
		d.ContactAuthorName == o.ContactAuthorName &&
		d.ContactEmail == o.ContactEmail &&
		d.AssignedCurator == o.AssignedCurator &&
		d.ApaCitationString == o.ApaCitationString &&
		d.DateAdded.Equal(o.DateAdded) &&
		d.DateModified.Equal(o.DateModified) &&
		d.Container.Equal(o.Container) &&
		cmp.SliceEqWith(d.Creators, o.Creators, Creator.Equal) &&
		cmp.SliceEqWith(d.Tags, o.Tags, Record.Equal) &&
		cmp.SliceEqWith(d.Sponsors, o.Sponsors, Record.Equal) &&
		cmp.SliceEqWith(d.Platforms, o.Platforms, Record.Equal) &&
		cmp.SliceEqWith(d.ModelDocumentation, o.ModelDocumentation, Record.Equal) &&
		cmp.SliceEqWith(d.CodeArchiveUrls, o.CodeArchiveUrls, ArchiveUrl.Equal) &&
		cmp.SliceEqWith(d.Notes, o.Notes, Note.Equal) &&
		cmp.SliceEqWith(d.ActivityLogs, o.ActivityLogs, Activity.Equal)
}

// Draft is the request body creating a publication by hand.
//
// Vocabulary entries and authors are given by name and created on the
// fly when the catalog does not know them yet.
type Draft struct {
	Title             string `json:"title"`
	Doi               string `json:"doi,omitempty"`
	Abstract          string `json:"abstract,omitempty"`
	Url               string `json:"url,omitempty"`
	DatePublishedText string `json:"date_published_text,omitempty"`
	Volume            string `json:"volume,omitempty"`
	Pages             string `json:"pages,omitempty"`
	Issue             string `json:"issue,omitempty"`
	ContactAuthorName string `json:"contact_author_name,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`

	Container string   `json:"container,omitempty"`
	Authors   []Author `json:"authors,omitempty"`

	Tags               []string `json:"tags,omitempty"`
	Sponsors           []string `json:"sponsors,omitempty"`
	Platforms          []string `json:"platforms,omitempty"`
	ModelDocumentation []string `json:"model_documentation,omitempty"`
}

// Author names one creator of a drafted publication.
type Author struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Orcid      string `json:"orcid,omitempty"`
}

func (a Author) Equal(o Author) bool {
	return a == o
}

func (d Draft) Equal(o Draft) bool {
	return d.Title == o.Title &&
		d.Doi == o.Doi &&
		d.Abstract == o.Abstract &&
		d.Url == o.Url &&
		d.DatePublishedText == o.DatePublishedText &&
		d.Volume == o.Volume &&
		d.Pages == o.Pages &&
		d.Issue == o.Issue &&
		d.ContactAuthorName == o.ContactAuthorName &&
		d.ContactEmail == o.ContactEmail &&
		d.Container == o.Container &&
		cmp.SliceEqWith(d.Authors, o.Authors, Author.Equal) &&
		cmp.SliceEq(d.Tags, o.Tags) &&
		cmp.SliceEq(d.Sponsors, o.Sponsors) &&
		cmp.SliceEq(d.Platforms, o.Platforms) &&
		cmp.SliceEq(d.ModelDocumentation, o.ModelDocumentation)
}

// Change is the request body updating a publication.
//
// Absent fields keep their value. Doi set to "" withdraws the DOI.
// AssignedCurator set to "" unassigns the publication. Vocabulary
// lists, when present, replace the publication's whole list of that
// vocabulary, resolving names to records and creating missing ones.
type Change struct {
	Title             *string `json:"title,omitempty"`
	Doi               *string `json:"doi,omitempty"`
	Status            *string `json:"status,omitempty"`
	DatePublishedText *string `json:"date_published_text,omitempty"`
	Volume            *string `json:"volume,omitempty"`
	Pages             *string `json:"pages,omitempty"`
	ContactAuthorName *string `json:"contact_author_name,omitempty"`
	ContactEmail      *string `json:"contact_email,omitempty"`
	AssignedCurator   *string `json:"assigned_curator,omitempty"`

	Tags               *[]string `json:"tags,omitempty"`
	Sponsors           *[]string `json:"sponsors,omitempty"`
	Platforms          *[]string `json:"platforms,omitempty"`
	ModelDocumentation *[]string `json:"model_documentation,omitempty"`
}

func (c Change) Equal(o Change) bool {
	return cmp.PEqEq(c.Title, o.Title) &&
		cmp.PEqEq(c.Doi, o.Doi) &&
		cmp.PEqEq(c.Status, o.Status) &&
		cmp.PEqEq(c.DatePublishedText, o.DatePublishedText) &&
		cmp.PEqEq(c.Volume, o.Volume) &&
		cmp.PEqEq(c.Pages, o.Pages) &&
		cmp.PEqEq(c.ContactAuthorName, o.ContactAuthorName) &&
		cmp.PEqEq(c.ContactEmail, o.ContactEmail) &&
		cmp.PEqEq(c.AssignedCurator, o.AssignedCurator) &&
		cmp.PEqualWith(c.Tags, o.Tags, cmp.SliceEq) &&
		cmp.PEqualWith(c.Sponsors, o.Sponsors, cmp.SliceEq) &&
		cmp.PEqualWith(c.Platforms, o.Platforms, cmp.SliceEq) &&
		cmp.PEqualWith(c.ModelDocumentation, o.ModelDocumentation, cmp.SliceEq)
}

// UrlDraft is the request body adding a code archive URL to a
// publication. The category is assigned by the URL patterns of the
// catalog and stays system overridable until a curator pins it.
type UrlDraft struct {
	Url string `json:"url"`

	// Category pins the category by hand. 0 lets the catalog decide.
	Category int `json:"category,omitempty"`
}

func (u UrlDraft) Equal(o UrlDraft) bool {
	return u == o
}

// UrlChange is the request body updating a code archive URL. Setting a
// category pins it against the URL checker.
type UrlChange struct {
	Url      *string `json:"url,omitempty"`
	Category *int    `json:"category,omitempty"`
	Status   *string `json:"status,omitempty"`
}

func (u UrlChange) Equal(o UrlChange) bool {
	return cmp.PEqEq(u.Url, o.Url) &&
		cmp.PEqEq(u.Category, o.Category) &&
		cmp.PEqEq(u.Status, o.Status)
}

// NoteDraft is the request body attaching a note to a publication.
type NoteDraft struct {
	Text string `json:"text"`
}

func (n NoteDraft) Equal(o NoteDraft) bool {
	return n == o
}

// FlagDraft is the request body flagging a publication for attention.
type FlagDraft struct {
	Message string `json:"message"`
}

func (f FlagDraft) Equal(o FlagDraft) bool {
	return f == o
}
