package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/youta-t/flarc"

	krst "github.com/comses/citation/cmd/citation/rest"
	"github.com/comses/citation/cmd/citation/subcommands/common"
	apipubs "github.com/comses/citation/pkg/api/types/publications"
)

type Option struct {
	show func(
		ctx context.Context,
		client krst.CitationClient,
		id int,
	) (apipubs.Detail, error)
}

func WithShow(
	show func(
		ctx context.Context,
		client krst.CitationClient,
		id int,
	) (apipubs.Detail, error),
) func(*Option) *Option {
	return func(cmd *Option) *Option {
		cmd.show = show
		return cmd
	}
}

const ARG_PUBLICATION_ID = "PUBLICATION_ID"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		show: RunShowPublication,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Return the full curation view of the specified publication.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PUBLICATION_ID, Required: true,
				Help: "Specify the id of the publication to show",
			},
		},
		common.NewTask(Task(option.show)),
	)
}

func Task(
	show func(
		ctx context.Context,
		client krst.CitationClient,
		id int,
	) (apipubs.Detail, error),
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client krst.CitationClient,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		arg := cl.Args()[ARG_PUBLICATION_ID][0]
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf(
				"%w: publication id should be an integer: %s", flarc.ErrUsage, arg,
			)
		}

		detail, err := show(ctx, client, id)
		if err != nil {
			return fmt.Errorf("%w: publication id:%v", err, id)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			logger.Panicf("fail to dump the publication")
		}

		return nil
	}
}

func RunShowPublication(
	ctx context.Context,
	client krst.CitationClient,
	id int,
) (apipubs.Detail, error) {
	return client.GetPublication(ctx, id)
}
