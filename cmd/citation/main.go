//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/youta-t/flarc"

	subcache "github.com/comses/citation/cmd/citation/subcommands/cache"
	"github.com/comses/citation/cmd/citation/subcommands/common"
	subcrossref "github.com/comses/citation/cmd/citation/subcommands/crossref"
	subdedupe "github.com/comses/citation/cmd/citation/subcommands/dedupe"
	subexport "github.com/comses/citation/cmd/citation/subcommands/export"
	subload "github.com/comses/citation/cmd/citation/subcommands/load"
	sublic "github.com/comses/citation/cmd/citation/subcommands/license"
	"github.com/comses/citation/cmd/citation/subcommands/logger"
	subprofile "github.com/comses/citation/cmd/citation/subcommands/profile"
	subpub "github.com/comses/citation/cmd/citation/subcommands/pub"
	suburls "github.com/comses/citation/cmd/citation/subcommands/urls"
	subver "github.com/comses/citation/cmd/citation/subcommands/version"
	subvocab "github.com/comses/citation/cmd/citation/subcommands/vocab"
	"github.com/comses/citation/pkg/utils/try"
)

//go:embed CREDITS
var CREDITS string

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	profile := try.To(subprofile.New()).OrFatal(logger)
	pub := try.To(subpub.New()).OrFatal(logger)
	load := try.To(subload.New()).OrFatal(logger)
	dedupe := try.To(subdedupe.New()).OrFatal(logger)
	crossref := try.To(subcrossref.New()).OrFatal(logger)
	urls := try.To(suburls.New()).OrFatal(logger)
	vocab := try.To(subvocab.New()).OrFatal(logger)
	cache := try.To(subcache.New()).OrFatal(logger)
	export := try.To(subexport.New()).OrFatal(logger)
	license := try.To(sublic.New(CREDITS)).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	citation := try.To(
		flarc.NewCommandGroup(
			"Catalog of publications about computational models",
			cf,
			flarc.WithSubcommand("profile", profile),
			flarc.WithSubcommand("pub", pub),
			flarc.WithSubcommand("load", load),
			flarc.WithSubcommand("dedupe", dedupe),
			flarc.WithSubcommand("vocab", vocab),
			flarc.WithSubcommand("crossref", crossref),
			flarc.WithSubcommand("urls", urls),
			flarc.WithSubcommand("cache", cache),
			flarc.WithSubcommand("export", export),
			flarc.WithSubcommand("license", license),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, citation, flarc.WithHelp(true)))
}
