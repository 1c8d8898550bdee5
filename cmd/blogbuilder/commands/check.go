package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Output        string        `short:"o" help:"Build into this directory instead of a scratch directory"`
	External      bool          `short:"e" help:"Also verify external links over HTTP"`
	Timeout       time.Duration `help:"Timeout per external request" default:"10s"`
	MaxConcurrent int           `name:"max-concurrent" help:"Parallel external requests" default:"8"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	// Without an explicit output the check builds into a scratch directory
	// so the published site is left untouched.
	outputDir := c.Output
	if outputDir == "" {
		tmp, err := os.MkdirTemp("", "blogbuilder-check-*")
		if err != nil {
			return fmt.Errorf("create scratch directory: %w", err)
		}
		defer func() {
			_ = os.RemoveAll(tmp)
		}()
		outputDir = filepath.Join(tmp, "site")
	}
	ctx := context.Background()

	report, err := site.NewGenerator(cfg, outputDir).Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	for _, warning := range report.Warnings {
		slog.Warn("Build warning", "warning", warning)
	}

	return runLinkCheck(ctx, cfg, outputDir, linkcheck.Options{
		External:      c.External,
		Timeout:       c.Timeout,
		MaxConcurrent: c.MaxConcurrent,
	})
}
