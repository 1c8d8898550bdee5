package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.toml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the output directory"`
	Serve ServeCmd `cmd:"" help:"Serve the site locally, rebuilding on changes"`
	New   NewCmd   `cmd:"" help:"Create a new content file with front-matter"`
	Check CheckCmd `cmd:"" help:"Build the site and verify its links"`
	Init  InitCmd  `cmd:"" help:"Initialize a new site configuration"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// ResolveOutputDir determines the output directory: CLI flag wins over the
// configured one.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}
