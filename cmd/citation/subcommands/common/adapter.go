package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	"github.com/comses/citation/cmd/citation/config/profiles"
	krest "github.com/comses/citation/cmd/citation/rest"
	"github.com/comses/citation/pkg/configs/app"
	"github.com/comses/citation/pkg/domain/citation"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(
			ctx,
			logger,
			commonFlag,
			cl,
			newpos,
		)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	client krest.CitationClient,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask adapts a task talking to the catalog server over its API.
//
// The task gets a client built from the selected profile.
func NewTask[T any](task Task[T]) flarc.Task[T] {

	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		profile, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if err != nil {
			if errors.Is(err, profiles.ErrProfileStoreNotFound) {
				return fmt.Errorf(
					"%w: profile store (%s) is not found. Please try `citation profile init` first",
					err, commonFlag.ProfileStore,
				)
			}
			return fmt.Errorf(
				"%w: failed to load profile store (%s)",
				err, commonFlag.ProfileStore,
			)
		}
		prof, ok := profile[commonFlag.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s)",
				commonFlag.Profile, commonFlag.ProfileStore,
			)
		}

		client, err := krest.NewClient(prof)
		if err != nil {
			return fmt.Errorf(
				"%w: failed to create catalog client. Your profile (%s in %s) can be broken.\n\nRemove it and try `citation profile init` again",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}
		return task(ctx, logger, client, cl, params)
	})
}

type DbTask[T any] func(
	ctx context.Context,
	logger *log.Logger,
	hub citation.Citation,
	cl flarc.Commandline[T],
	params []any,
) error

// NewDbTask adapts a task working on the database directly, the way
// loads and sweeps do. The task gets a hub built from config.ini.
func NewDbTask[T any](task DbTask[T]) flarc.Task[T] {

	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		if commonFlag.Config == "" {
			return fmt.Errorf(
				"%w: --config (or CITATION_CONFIG) is required", flarc.ErrUsage,
			)
		}
		conf, err := app.Load(commonFlag.Config)
		if err != nil {
			return fmt.Errorf("%w: failed to load config (%s)", err, commonFlag.Config)
		}

		hub, err := citation.Default(ctx, conf)
		if err != nil {
			return fmt.Errorf("%w: failed to reach the database", err)
		}

		return task(ctx, logger, hub, cl, params)
	})
}
