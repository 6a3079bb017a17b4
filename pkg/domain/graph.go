package domain

import (
	"errors"
	"fmt"

	"github.com/comses/citation/pkg/utils/cmp"
)

var ErrUnknownGraphGroupBy = errors.New("unknown graph grouping")

// GraphGroupBy selects the vocabulary the citation network is grouped by.
type GraphGroupBy string

const (
	GroupBySponsors GraphGroupBy = "sponsors"
	GroupByTags     GraphGroupBy = "tags"
)

func (g GraphGroupBy) String() string {
	return string(g)
}

func AsGraphGroupBy(s string) (GraphGroupBy, error) {
	switch GraphGroupBy(s) {
	case GroupBySponsors, GroupByTags:
		return GraphGroupBy(s), nil
	default:
		return GraphGroupBy(s), fmt.Errorf("%w: %s", ErrUnknownGraphGroupBy, s)
	}
}

// Vocab is the vocabulary kind the grouping draws names from.
func (g GraphGroupBy) Vocab() VocabKind {
	if g == GroupByTags {
		return VocabTag
	}
	return VocabSponsor
}

// DefaultFilter lists the group names used when a request names none.
// They are the historical defaults of the catalog frontend.
func (g GraphGroupBy) DefaultFilter() []string {
	if g == GroupByTags {
		return []string{"Dynamics", "Simulation"}
	}
	return []string{"United States National Science Foundation (NSF)"}
}

// NetworkNode is one publication in the citation network. The field tags
// follow the payload the original catalog frontend was built against,
// capital "Authors" included.
type NetworkNode struct {
	// Name is the publication id, which the frontend uses as the node key.
	Name int `json:"name"`

	// Group is the first filter name found among the node's own names
	// of the grouping vocabulary, or "others".
	Group string `json:"group"`

	Tags     []string `json:"tags"`
	Sponsors []string `json:"sponsors"`

	// Authors joins the bylines as "FAMILY, G." with ", ".
	Authors string `json:"Authors"`

	Title string `json:"title"`
}

func (n NetworkNode) Equal(o NetworkNode) bool {
	return n.Name == o.Name &&
		n.Group == o.Group &&
		cmp.SliceEq(n.Tags, o.Tags) &&
		cmp.SliceEq(n.Sponsors, o.Sponsors) &&
		n.Authors == o.Authors &&
		n.Title == o.Title
}

// NetworkLink is a citation edge. Source cites Target, both indexes
// into the node list of the NetworkData carrying the link.
type NetworkLink struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Value  int `json:"value"`
}

// NetworkData is the citation network among reviewed primary
// publications which match a group filter.
type NetworkData struct {
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`

	// Groups lists the filter names plus "others", in legend order.
	Groups []string `json:"groups"`
}

func (nd *NetworkData) Equal(o *NetworkData) bool {
	if (nd == nil) || (o == nil) {
		return (nd == nil) && (o == nil)
	}
	return cmp.SliceEqWith(nd.Nodes, o.Nodes, NetworkNode.Equal) &&
		cmp.SliceEq(nd.Links, o.Links) &&
		cmp.SliceEq(nd.Groups, o.Groups)
}

// GraphRelation labels which slice of the catalog a distribution row
// describes.
type GraphRelation string

const (
	RelationJournal  GraphRelation = "Journal"
	RelationSponsor  GraphRelation = "Sponsor"
	RelationPlatform GraphRelation = "Platform"
	RelationAuthor   GraphRelation = "Author"
	RelationGeneral  GraphRelation = "General"
)

// DistributionRow counts one year's reviewed primary publications by
// whether their code can be found somewhere. The spreadsheet-flavored
// keys are what the frontend charts expect.
type DistributionRow struct {
	Relation GraphRelation `json:"relation"`
	Name     string        `json:"name"`
	Date     int           `json:"date"`

	CodeAvailable    int `json:"Code Available"`
	CodeNotAvailable int `json:"Code Not Available"`

	CodeAvailablePer    float64 `json:"Code Available Per"`
	CodeNotAvailablePer float64 `json:"Code Not Available Per"`
}
