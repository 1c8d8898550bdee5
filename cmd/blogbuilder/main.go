package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/cmd/blogbuilder/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("blogbuilder"),
		kong.Description("Static blog generator with a live preview server."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}, cli))
}
