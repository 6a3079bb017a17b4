package profile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/config/profiles"
	"github.com/comses/citation/cmd/citation/subcommands/common"
)

type InitFlag struct {
	ApiRoot string `flag:"api-root" help:"endpoint of the catalog API, like http://localhost:8000/api"`
	Token   string `flag:"token" help:"session token issued by the server. Optional."`
}

func New() (flarc.Command, error) {
	ini, err := Init()
	if err != nil {
		return nil, err
	}
	show, err := Show()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manage profiles of catalog servers.",
		struct{}{},
		flarc.WithSubcommand("init", ini),
		flarc.WithSubcommand("show", show),
	)
}

func Init() (flarc.Command, error) {
	return flarc.NewCommand(
		"register a catalog server in the profile store",
		InitFlag{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(InitTask()),
		flarc.WithDescription(`
Register a catalog server into your profile store.

The profile is stored under the name given by "--profile"
(default: "default"), at the file given by "--profile-store"
(default: ~/.citation/profiles). The store file is readable by you only.

    {{ .Command }} --api-root http://localhost:8000/api --token TOKEN
`),
	)
}

func InitTask() common.TaskWithCommonFlag[InitFlag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag common.CommonFlags,
		cl flarc.Commandline[InitFlag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.ApiRoot == "" {
			return fmt.Errorf("%w: --api-root is required", flarc.ErrUsage)
		}

		store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			store = profiles.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf(
				"%w: failed to load profile store (%s)", err, commonFlag.ProfileStore,
			)
		}

		newProf := &profiles.CitationProfile{
			ApiRoot: flags.ApiRoot,
			Token:   flags.Token,
		}
		if err := newProf.Verify(); err != nil {
			return err
		}

		store[commonFlag.Profile] = newProf
		if err := store.Save(commonFlag.ProfileStore); err != nil {
			return fmt.Errorf(
				"%w: failed to save profile store (%s)", err, commonFlag.ProfileStore,
			)
		}
		logger.Printf(
			"profile %s is saved to %s", commonFlag.Profile, commonFlag.ProfileStore,
		)
		return nil
	}
}

func Show() (flarc.Command, error) {
	return flarc.NewCommand(
		"print the selected profile",
		struct{}{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(func(
			ctx context.Context,
			logger *log.Logger,
			commonFlag common.CommonFlags,
			cl flarc.Commandline[struct{}],
			params []any,
		) error {
			store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
			if err != nil {
				return err
			}
			prof, ok := store[commonFlag.Profile]
			if !ok {
				return fmt.Errorf(
					"profile '%s' not found in the profile store (%s)",
					commonFlag.Profile, commonFlag.ProfileStore,
				)
			}
			fmt.Fprintf(cl.Stdout(), "apiRoot: %s\n", prof.ApiRoot)
			if prof.Token != "" {
				fmt.Fprintln(cl.Stdout(), "token: (set)")
			}
			return nil
		}),
	)
}
