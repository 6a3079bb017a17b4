package domain

// Stub types carry what a source record (BibTeX entry, Crossref response)
// says about an entity, before it is matched against the catalog.
// Stubs have no id; registering them finds or creates the real rows.

// AuthorStub is an author as spelled in a source record.
type AuthorStub struct {
	Type         AuthorType
	GivenName    string
	FamilyName   string
	Orcid        string
	Researcherid string
	Email        string
}

func (as AuthorStub) Name() string {
	a := Author{GivenName: as.GivenName, FamilyName: as.FamilyName}
	return a.Name()
}

func (as AuthorStub) Equal(o AuthorStub) bool {
	return as.Type == o.Type &&
		as.GivenName == o.GivenName &&
		as.FamilyName == o.FamilyName &&
		as.Orcid == o.Orcid &&
		as.Researcherid == o.Researcherid &&
		as.Email == o.Email
}

// ContainerStub is a venue as spelled in a source record.
type ContainerStub struct {
	Type  string
	Name  string
	Issn  string
	Eissn string
}

func (cs ContainerStub) Equal(o ContainerStub) bool {
	return cs == o
}

// CitationStub is a cited reference guessed from one line of a
// "cited-references" block.
type CitationStub struct {
	// Family/given of the single author the line names.
	AuthorName string

	// Publishing year as written, often just "2004".
	Year string

	// Venue name segment of the line, may be empty.
	ContainerName string

	// DOI extracted from the tail of the line, sanitized, or "".
	Doi string

	// The line itself, stored as BIBTEX_REF provenance.
	RefText string
}

// PublicationStub bundles everything one source record says about a
// publication: its scalar fields, venue, authors, keywords and cited
// references, plus the provenance payload to store alongside.
type PublicationStub struct {
	Body      PublicationBody
	Container ContainerStub
	Authors   []AuthorStub
	Tags      []string
	Citations []CitationStub

	RawKey   RawKey
	RawValue any
}
