package pub

import (
	pub_find "github.com/comses/citation/cmd/citation/subcommands/pub/find"
	pub_show "github.com/comses/citation/cmd/citation/subcommands/pub/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	find, err := pub_find.New()
	if err != nil {
		return nil, err
	}

	show, err := pub_show.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Browse publications in the catalog.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
	)
}
