// Package vocab curates the publication vocabularies: platforms,
// sponsors, tags and model documentation.
package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/citation"
	kdbvoc "github.com/comses/citation/pkg/domain/vocab/db"
	"github.com/comses/citation/pkg/utils/pointer"
)

func New() (flarc.Command, error) {
	list, err := List()
	if err != nil {
		return nil, err
	}
	rename, err := Rename()
	if err != nil {
		return nil, err
	}
	merge, err := Merge()
	if err != nil {
		return nil, err
	}
	split, err := Split()
	if err != nil {
		return nil, err
	}
	remove, err := Remove()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Curate the publication vocabularies.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("rename", rename),
		flarc.WithSubcommand("merge", merge),
		flarc.WithSubcommand("split", split),
		flarc.WithSubcommand("rm", remove),
	)
}

const ARG_KIND = "KIND"
const ARG_NAME = "NAME"

func List() (flarc.Command, error) {
	return flarc.NewCommand(
		"list the records of a vocabulary",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_KIND, Required: true,
				Help: "platform|sponsor|tag|model_documentation",
			},
		},
		common.NewDbTask(func(
			ctx context.Context,
			logger *log.Logger,
			hub citation.Citation,
			cl flarc.Commandline[struct{}],
			params []any,
		) error {
			kind, err := domain.AsVocabKind(cl.Args()[ARG_KIND][0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}

			records, err := hub.Vocab().Database().List(ctx, kind)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cl.Stdout())
			enc.SetIndent("", "    ")
			return enc.Encode(records)
		}),
	)
}

func Rename() (flarc.Command, error) {
	type Flag struct {
		Creator string `flag:"creator" help:"sign the audit trail as this curator"`
		To      string `flag:"to" help:"the new name"`
	}
	return flarc.NewCommand(
		"rename a vocabulary record, keeping its links",
		Flag{},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "platform|sponsor|tag|model_documentation"},
			{Name: ARG_NAME, Required: true, Help: "the record to rename"},
		},
		common.NewDbTask(func(
			ctx context.Context,
			logger *log.Logger,
			hub citation.Citation,
			cl flarc.Commandline[Flag],
			params []any,
		) error {
			flags := cl.Flags()
			kind, err := domain.AsVocabKind(cl.Args()[ARG_KIND][0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
			if flags.To == "" {
				return fmt.Errorf("%w: --to is required", flarc.ErrUsage)
			}

			dbVocab := hub.Vocab().Database()
			name := cl.Args()[ARG_NAME][0]
			record, err := findByName(ctx, dbVocab, kind, name)
			if err != nil {
				return err
			}

			cmd := &domain.AuditCommand{
				Action:  domain.ActionManual,
				Creator: flags.Creator,
				Message: fmt.Sprintf("rename %s %q to %q", kind, name, flags.To),
			}
			if err := dbVocab.Update(ctx, cmd, kind, record.Id, kdbvoc.VocabDelta{
				Name: pointer.Ref(flags.To),
			}); err != nil {
				return err
			}
			logger.Printf("renamed %s %q to %q", kind, name, flags.To)
			return nil
		}),
	)
}

func Merge() (flarc.Command, error) {
	type Flag struct {
		Creator string `flag:"creator" help:"sign the audit trail as this curator"`
		Into    string `flag:"into" help:"the canonical name the records fold into"`
	}
	return flarc.NewCommand(
		"fold vocabulary records into one, rewiring publications",
		Flag{},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "platform|sponsor|tag|model_documentation"},
			{Name: ARG_NAME, Required: true, Repeatable: true, Help: "the records to fold"},
		},
		common.NewDbTask(func(
			ctx context.Context,
			logger *log.Logger,
			hub citation.Citation,
			cl flarc.Commandline[Flag],
			params []any,
		) error {
			flags := cl.Flags()
			kind, err := domain.AsVocabKind(cl.Args()[ARG_KIND][0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
			if flags.Into == "" {
				return fmt.Errorf("%w: --into is required", flarc.ErrUsage)
			}
			names := cl.Args()[ARG_NAME]

			cmd := &domain.AuditCommand{
				Action:  domain.ActionMerge,
				Creator: flags.Creator,
				Message: fmt.Sprintf("merge %s %v into %q", kind, names, flags.Into),
			}
			merged, err := hub.Vocab().Database().Merge(ctx, cmd, kind, names, flags.Into)
			if err != nil {
				return err
			}
			logger.Printf("merged %d %s records into %q", len(names), kind, merged.Name)
			return nil
		}),
	)
}

func Split() (flarc.Command, error) {
	type Flag struct {
		Creator string   `flag:"creator" help:"sign the audit trail as this curator"`
		Into    []string `flag:"into" help:"a replacement name. Repeatable."`
	}
	return flarc.NewCommand(
		"replace a vocabulary record with several, rewiring publications",
		Flag{},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "platform|sponsor|tag|model_documentation"},
			{Name: ARG_NAME, Required: true, Help: "the record to split"},
		},
		common.NewDbTask(func(
			ctx context.Context,
			logger *log.Logger,
			hub citation.Citation,
			cl flarc.Commandline[Flag],
			params []any,
		) error {
			flags := cl.Flags()
			kind, err := domain.AsVocabKind(cl.Args()[ARG_KIND][0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
			if len(flags.Into) == 0 {
				return fmt.Errorf("%w: --into is required", flarc.ErrUsage)
			}
			name := cl.Args()[ARG_NAME][0]

			cmd := &domain.AuditCommand{
				Action:  domain.ActionSplit,
				Creator: flags.Creator,
				Message: fmt.Sprintf("split %s %q into %v", kind, name, flags.Into),
			}
			records, err := hub.Vocab().Database().Split(ctx, cmd, kind, name, flags.Into)
			if err != nil {
				return err
			}
			logger.Printf("split %s %q into %d records", kind, name, len(records))
			return nil
		}),
	)
}

func Remove() (flarc.Command, error) {
	type Flag struct {
		Creator string `flag:"creator" help:"sign the audit trail as this curator"`
	}
	return flarc.NewCommand(
		"delete vocabulary records and their publication links",
		Flag{},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "platform|sponsor|tag|model_documentation"},
			{Name: ARG_NAME, Required: true, Repeatable: true, Help: "the records to delete"},
		},
		common.NewDbTask(func(
			ctx context.Context,
			logger *log.Logger,
			hub citation.Citation,
			cl flarc.Commandline[Flag],
			params []any,
		) error {
			kind, err := domain.AsVocabKind(cl.Args()[ARG_KIND][0])
			if err != nil {
				return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
			}
			names := cl.Args()[ARG_NAME]

			cmd := &domain.AuditCommand{
				Action:  domain.ActionManual,
				Creator: cl.Flags().Creator,
				Message: fmt.Sprintf("delete %s %v", kind, names),
			}
			deleted, err := hub.Vocab().Database().Delete(ctx, cmd, kind, names)
			if err != nil {
				return err
			}
			logger.Printf("deleted %d %s records", len(deleted), kind)
			return nil
		}),
	)
}

func findByName(
	ctx context.Context,
	dbVocab kdbvoc.VocabInterface,
	kind domain.VocabKind,
	name string,
) (domain.NamedRecord, error) {
	records, err := dbVocab.List(ctx, kind)
	if err != nil {
		return domain.NamedRecord{}, err
	}
	for _, r := range records {
		if r.Name == name {
			return r, nil
		}
	}
	return domain.NamedRecord{}, fmt.Errorf("%s %q is not in the catalog", kind, name)
}
