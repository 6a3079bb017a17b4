package find

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
	"github.com/comses/citation/pkg/domain"
)

type Flag struct {
	Status    []string `flag:"status" help:"find publications in this status: UNREVIEWED|AUTHOR_UPDATED|INVALID|REVIEWED. Repeatable."`
	Flagged   string   `flag:"flagged" help:"true|false. Find flagged (or unflagged) publications only."`
	Primary   string   `flag:"primary" help:"true|false. Find primary (or secondary) publications only."`
	Curator   string   `flag:"curator" help:"find publications assigned to this curator"`
	Title     string   `flag:"title" help:"find publications whose title contains this text"`
	Doi       string   `flag:"doi" help:"find the publication with this DOI"`
	Container string   `flag:"container" help:"find publications published in this journal"`
	Tag       []string `flag:"tag" help:"find publications carrying this tag. Repeatable."`
	Sponsor   []string `flag:"sponsor" help:"find publications funded by this sponsor. Repeatable."`
	Platform  []string `flag:"platform" help:"find publications built on this platform. Repeatable."`
	Page      string   `flag:"page" help:"page to fetch, starting at 1"`
	PerPage   string   `flag:"per-page" help:"publications per page"`
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindPublications,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Find publications matching a query.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Find publications and print one page of matches as JSON.

Every flag narrows the result; flags given together must all match.

    {{ .Command }} --status UNREVIEWED --platform NetLogo --page 2
`),
	)
}

type Option struct {
	find func(
		ctx context.Context,
		client krst.CitationClient,
		query krst.PublicationQuery,
	) (apipubs.Page, error)
}

func WithFind(
	find func(
		ctx context.Context,
		client krst.CitationClient,
		query krst.PublicationQuery,
	) (apipubs.Page, error),
) func(*Option) *Option {
	return func(cmd *Option) *Option {
		cmd.find = find
		return cmd
	}
}

func Task(
	find func(
		ctx context.Context,
		client krst.CitationClient,
		query krst.PublicationQuery,
	) (apipubs.Page, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client krst.CitationClient,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		query := krst.PublicationQuery{
			AssignedCurator: flags.Curator,
			Title:           flags.Title,
			Doi:             flags.Doi,
			Container:       flags.Container,
			Tags:            flags.Tag,
			Sponsors:        flags.Sponsor,
			Platforms:       flags.Platform,
		}
		for _, s := range flags.Status {
			status, err := domain.AsPublicationStatus(s)
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
			query.Status = append(query.Status, status.String())
		}
		var err error
		if query.Flagged, err = parseTernary("flagged", flags.Flagged); err != nil {
			return err
		}
		if query.IsPrimary, err = parseTernary("primary", flags.Primary); err != nil {
			return err
		}
		if flags.Page != "" {
			p, err := strconv.Atoi(flags.Page)
			if err != nil || p < 1 {
				return fmt.Errorf("%w: --page should be a positive integer", flarc.ErrUsage)
			}
			query.Page = p
		}
		if flags.PerPage != "" {
			s, err := strconv.Atoi(flags.PerPage)
			if err != nil || s < 1 {
				return fmt.Errorf("%w: --per-page should be a positive integer", flarc.ErrUsage)
			}
			query.PerPage = s
		}

		page, err := find(ctx, client, query)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(page); err != nil {
			logger.Panicf("fail to dump found publications")
		}
		return nil
	}
}

func parseTernary(name string, value string) (*bool, error) {
	switch value {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf(`%w: --%s should be "true" or "false"`, flarc.ErrUsage, name)
	}
}

func RunFindPublications(
	ctx context.Context,
	client krst.CitationClient,
	query krst.PublicationQuery,
) (apipubs.Page, error) {
	return client.FindPublications(ctx, query)
}
