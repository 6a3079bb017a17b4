package load

import (
	"context"
	"fmt"
	"log"
	"os"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/bibtex"
	"github.com/comses/citation/pkg/domain/citation"
)

type Flag struct {
	Creator string `flag:"creator" help:"username of the curator running the load"`
}

const ARG_BIBTEX_FILE = "BIBTEX_FILE..."

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Load BibTeX files into the catalog.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_BIBTEX_FILE, Required: true, Repeatable: true,
				Help: "BibTeX files to load.",
			},
		},
		common.NewDbTask(Task()),
		flarc.WithDescription(`
Load BibTeX files into the catalog, entry by entry.

Entries duplicating a publication already in the catalog (same DOI, or
same title and year) fill its missing fields instead of creating a new
one. New entries create the publication plus its journal, authors, tags
and cited references, all under one audit trail signed by "--creator".

    {{ .Command }} --creator alice library.bib more.bib

Entries the catalog could not take over completely (author names it
could not match, emails it could not attribute) are reported at the
end; the rest of the file loads regardless.
`),
	)
}

func Task() common.DbTask[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.Creator == "" {
			return fmt.Errorf("%w: --creator is required", flarc.ErrUsage)
		}

		dbIngest := hub.Ingest().Database()

		created, matched := 0, 0
		for _, filename := range cl.Args()[ARG_BIBTEX_FILE] {
			records, err := func() ([]bibtex.Record, error) {
				f, err := os.Open(filename)
				if err != nil {
					return nil, err
				}
				defer f.Close()
				return bibtex.Parse(f)
			}()
			if err != nil {
				return fmt.Errorf("%w: failed to parse %s", err, filename)
			}

			logger.Printf("loading %s (%d entries)...", filename, len(records))
			bar := pb.StartNew(len(records))
			bar.SetWriter(cl.Stderr())

			for _, rec := range records {
				stub, unassigned := rec.Publication()
				for _, email := range unassigned {
					logger.Printf(
						"%s: email %s could not be attributed to any author of %q",
						filename, email, stub.Body.Title,
					)
				}

				cmd := &domain.AuditCommand{
					Action:  domain.ActionLoad,
					Creator: flags.Creator,
					Message: fmt.Sprintf("load %s", filename),
				}
				loaded, err := dbIngest.Register(ctx, cmd, stub)
				if err != nil {
					return fmt.Errorf("%w: failed to load %q from %s", err, stub.Body.Title, filename)
				}
				if loaded.Created {
					created++
				} else {
					matched++
				}
				for _, author := range loaded.UnmatchedAuthors {
					logger.Printf(
						"publication %d: author %q of the entry does not match any recorded creator",
						loaded.PublicationId, author.Name(),
					)
				}
				bar.Increment()
			}
			bar.Finish()
		}

		logger.Printf("done: %d publications created, %d augmented", created, matched)
		return nil
	}
}
