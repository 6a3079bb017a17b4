package domain

// Container is a journal, proceedings or other venue publications appear in.
//
// Issn and Eissn are empty when not known; when known, each is unique over
// all Containers.
type Container struct {
	Id    int
	Type  string
	Name  string
	Issn  string
	Eissn string
}

func (c *Container) Equal(o *Container) bool {
	if (c == nil) || (o == nil) {
		return (c == nil) && (o == nil)
	}
	return c.Id == o.Id &&
		c.Type == o.Type &&
		c.Name == o.Name &&
		c.Issn == o.Issn &&
		c.Eissn == o.Eissn
}

// Parameter to query containers.
//
// When all dimensions match a container, this query matches the container.
type ContainerFilter struct {
	// match if the container's name, or one of its aliases,
	// contains this text, case-insensitively.
	NameLike string

	// match if either the print or electronic ISSN equals this.
	// Empty means "match any".
	Issn string
}

func (cf ContainerFilter) Equal(other ContainerFilter) bool {
	return cf == other
}

// ContainerAlias is an alternate spelling of a Container met during ingest.
//
// (container, name) pairs are unique.
type ContainerAlias struct {
	Id          int
	ContainerId int
	Name        string
}

func (ca *ContainerAlias) Equal(o *ContainerAlias) bool {
	if (ca == nil) || (o == nil) {
		return (ca == nil) && (o == nil)
	}
	return ca.Id == o.Id &&
		ca.ContainerId == o.ContainerId &&
		ca.Name == o.Name
}
