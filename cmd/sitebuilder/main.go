package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitebuilder"),
		kong.Description("Build MDX pages into a static site with pre-rendered HTML."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
