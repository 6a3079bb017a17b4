// Package dedupe folds duplicate records of the catalog together.
package dedupe

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"

	"github.com/comses/citation/cmd/citation/subcommands/common"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/domain/citation"
)

type Flag struct {
	Creator string `flag:"creator" help:"username of the curator signing the merges"`
}

type FileFlag struct {
	Creator string `flag:"creator" help:"username of the curator signing the merges"`
	File    string `flag:"file" help:"YAML file listing the merges to apply"`
}

func New() (flarc.Command, error) {
	doi, err := Doi()
	if err != nil {
		return nil, err
	}
	containers, err := Containers()
	if err != nil {
		return nil, err
	}
	file, err := File()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Fold duplicate records of the catalog together.",
		struct{}{},
		flarc.WithSubcommand("doi", doi),
		flarc.WithSubcommand("containers", containers),
		flarc.WithSubcommand("file", file),
	)
}

func Doi() (flarc.Command, error) {
	return flarc.NewCommand(
		"merge publications sharing a DOI",
		Flag{},
		flarc.Args{},
		common.NewDbTask(DoiTask()),
		flarc.WithDescription(`
Merge publications sharing a DOI, compared case-insensitively.

In each group the publication with the smallest id is kept; the others
fill its missing fields, hand over their archive URLs, provenance and
citation links, and are deleted. Afterwards, DOIs still written in
mixed case are lowercased.

Every change is audited under "--creator".
`),
	)
}

func DoiTask() common.DbTask[Flag] {
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

		dbMerge := hub.Merge().Database()

		groups, err := dbMerge.DoiDuplicateGroups(ctx)
		if err != nil {
			return err
		}

		merged := 0
		for _, group := range groups {
			finalId, otherIds, ok := splitGroup(group)
			if !ok {
				continue
			}
			cmd := &domain.AuditCommand{
				Action:  domain.ActionMerge,
				Creator: flags.Creator,
				Message: "dedupe publications by doi",
			}
			if err := dbMerge.MergePublications(ctx, cmd, finalId, otherIds); err != nil {
				return fmt.Errorf("%w: failed to merge publications %v into %d", err, otherIds, finalId)
			}
			merged += len(otherIds)
		}

		lowercased, err := dbMerge.LowercaseDois(ctx, &domain.AuditCommand{
			Action:  domain.ActionMerge,
			Creator: flags.Creator,
			Message: "lowercase mixed-case dois",
		})
		if err != nil {
			return err
		}

		logger.Printf(
			"done: %d groups, %d publications merged away, %d dois lowercased",
			len(groups), merged, lowercased,
		)
		return nil
	}
}

func Containers() (flarc.Command, error) {
	return flarc.NewCommand(
		"merge journals sharing a name",
		Flag{},
		flarc.Args{},
		common.NewDbTask(ContainersTask()),
		flarc.WithDescription(`
Merge journals whose names normalize to the same thing.

The journal with the smallest id in each group is kept; the names of
the others live on as aliases. Every change is audited under
"--creator".
`),
	)
}

func ContainersTask() common.DbTask[Flag] {
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

		dbMerge := hub.Merge().Database()

		groups, err := dbMerge.ContainerDuplicateGroups(ctx)
		if err != nil {
			return err
		}

		merged := 0
		for _, group := range groups {
			finalId, otherIds, ok := splitGroup(group)
			if !ok {
				continue
			}
			cmd := &domain.AuditCommand{
				Action:  domain.ActionMerge,
				Creator: flags.Creator,
				Message: "dedupe containers by name",
			}
			if err := dbMerge.MergeContainers(ctx, cmd, finalId, otherIds); err != nil {
				return fmt.Errorf("%w: failed to merge containers %v into %d", err, otherIds, finalId)
			}
			merged += len(otherIds)
		}

		logger.Printf("done: %d groups, %d containers merged away", len(groups), merged)
		return nil
	}
}

// MergeFile is the YAML shape "dedupe file" takes.
type MergeFile struct {
	Merges []MergeEntry `yaml:"merges"`
}

type MergeEntry struct {
	// author|container|platform|publication|sponsor
	Kind string `yaml:"kind"`

	// Ids of the records considered the same thing. The smallest is kept.
	Duplicates []int `yaml:"duplicates"`

	// Field values overwriting the kept record, keyed by column name.
	NewContent map[string]any `yaml:"newContent,omitempty"`

	Comment string `yaml:"comment,omitempty"`
}

func File() (flarc.Command, error) {
	return flarc.NewCommand(
		"apply merges listed in a YAML file",
		FileFlag{},
		flarc.Args{},
		common.NewDbTask(FileTask()),
		flarc.WithDescription(`
Apply merges listed in a YAML file, which looks like:

    merges:
      - kind: publication
        duplicates: [10, 42]
        comment: same paper, listed twice
      - kind: author
        duplicates: [7, 8, 9]
        newContent:
          family_name: Axelrod

Each entry is recorded as a suggested merge signed by "--creator", then
applied: the record with the smallest id is kept, the others are folded
into it.
`),
	)
}

func FileTask() common.DbTask[FileFlag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		hub citation.Citation,
		cl flarc.Commandline[FileFlag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.Creator == "" {
			return fmt.Errorf("%w: --creator is required", flarc.ErrUsage)
		}
		if flags.File == "" {
			return fmt.Errorf("%w: --file is required", flarc.ErrUsage)
		}

		buf, err := os.ReadFile(flags.File)
		if err != nil {
			return err
		}
		mergeFile := MergeFile{}
		if err := yaml.Unmarshal(buf, &mergeFile); err != nil {
			return fmt.Errorf("%w: %s is not a merge file", err, flags.File)
		}

		dbMerge := hub.Merge().Database()

		applied := 0
		for i, entry := range mergeFile.Merges {
			kind, err := domain.AsMergeKind(entry.Kind)
			if err != nil {
				return fmt.Errorf("%w: merges[%d]: %s", flarc.ErrUsage, i, err)
			}
			if len(entry.Duplicates) < 2 {
				return fmt.Errorf(
					"%w: merges[%d]: at least 2 duplicates are needed", flarc.ErrUsage, i,
				)
			}

			suggestion, err := dbMerge.Suggest(ctx, domain.SuggestedMerge{
				Kind:       kind,
				Duplicates: entry.Duplicates,
				NewContent: entry.NewContent,
				Creator:    flags.Creator,
				Comment:    entry.Comment,
			})
			if err != nil {
				return fmt.Errorf("%w: merges[%d]: failed to record", err, i)
			}

			cmd := &domain.AuditCommand{
				Action:  domain.ActionMerge,
				Creator: flags.Creator,
				Message: fmt.Sprintf("apply merge file %s", flags.File),
			}
			if _, err := dbMerge.Apply(ctx, cmd, suggestion.Id); err != nil {
				return fmt.Errorf("%w: merges[%d]: failed to apply", err, i)
			}
			applied++
		}

		logger.Printf("done: %d merges applied", applied)
		return nil
	}
}

// splitGroup picks the kept id (the smallest) out of a duplicate group.
func splitGroup(group []int) (finalId int, otherIds []int, ok bool) {
	if len(group) < 2 {
		return 0, nil, false
	}
	sorted := append([]int{}, group...)
	sort.Ints(sorted)
	return sorted[0], sorted[1:], true
}
