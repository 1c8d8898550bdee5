package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/buildlog"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory (overrides config)"`
	Drafts     bool   `short:"D" help:"Include draft posts"`
	Future     bool   `short:"F" help:"Include future-dated posts"`
	Force      bool   `help:"Rebuild even when content and configuration are unchanged"`
	CheckLinks bool   `name:"check-links" help:"Verify internal links after building"`
	BuildLog   string `name:"build-log" help:"Build history database path" default:".blogbuilder/builds.db"`

	WriteManifest bool `name:"write-manifest" help:"Write a content manifest next to the build log"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Drafts {
		cfg.BuildDrafts = true
	}
	if b.Future {
		cfg.BuildFuture = true
	}
	outputDir := ResolveOutputDir(b.Output, cfg)

	ctx := context.Background()
	store, err := openBuildLog(b.BuildLog)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	if !b.Force {
		skip, err := canSkip(ctx, cfg, store)
		if err != nil {
			slog.Warn("Build history check failed, building anyway", "error", err)
		} else if skip {
			slog.Info("Content and configuration unchanged, skipping build (use --force to override)")
			fmt.Println("Site is up to date")
			return nil
		}
	}

	report, err := site.NewGenerator(cfg, outputDir).Build(ctx)
	appendRecord(ctx, store, report)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, warning := range report.Warnings {
		slog.Warn("Build warning", "warning", warning)
	}
	fmt.Printf("Site built: %d pages, %d posts, %d assets in %s\n",
		report.Pages, report.Posts, report.Assets, report.Duration.Round(time.Millisecond))

	if b.WriteManifest {
		manifestPath := filepath.Join(filepath.Dir(b.BuildLog), "manifest.json")
		if err := writeManifest(cfg, manifestPath); err != nil {
			return err
		}
		fmt.Printf("Manifest written to %s\n", manifestPath)
	}

	if b.CheckLinks {
		return runLinkCheck(ctx, cfg, outputDir, linkcheck.Options{})
	}
	return nil
}

// runLinkCheck verifies the generated site and fails on broken links.
func runLinkCheck(ctx context.Context, cfg *config.Config, outputDir string, opts linkcheck.Options) error {
	result, err := linkcheck.New(cfg, outputDir, opts).Run(ctx)
	if err != nil {
		return fmt.Errorf("link check failed: %w", err)
	}
	fmt.Printf("Checked %d links across %d pages\n", result.Checked, result.Pages)
	if result.OK() {
		fmt.Println("All links resolve")
		return nil
	}
	for _, broken := range result.Broken {
		if broken.Status != 0 {
			fmt.Printf("  %s: %s (HTTP %d)\n", broken.Page, broken.URL, broken.Status)
		} else {
			fmt.Printf("  %s: %s (%s)\n", broken.Page, broken.URL, broken.Reason)
		}
	}
	return fmt.Errorf("%d broken links", len(result.Broken))
}

// writeManifest records the per-file content hashes feeding the build, for
// deploy diffing outside this tool.
func writeManifest(cfg *config.Config, path string) error {
	set, err := content.NewDiscovery(cfg).Discover()
	if err != nil {
		return err
	}
	manifest, err := set.CreateManifest()
	if err != nil {
		return err
	}
	data, err := manifest.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// canSkip computes the current build signature and compares it against the
// last successful build.
func canSkip(ctx context.Context, cfg *config.Config, store buildlog.Store) (bool, error) {
	set, err := content.NewDiscovery(cfg).Discover()
	if err != nil {
		return false, err
	}
	hash, err := set.ComputeHash()
	if err != nil {
		return false, err
	}
	sig, err := content.ComputeSignature(hash, cfg)
	if err != nil {
		return false, err
	}
	return buildlog.ShouldSkip(ctx, store, sig)
}

func openBuildLog(path string) (buildlog.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create build log directory: %w", err)
	}
	store, err := buildlog.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open build log: %w", err)
	}
	return store, nil
}

func appendRecord(ctx context.Context, store buildlog.Store, report *site.BuildReport) {
	if report == nil {
		return
	}
	rec := &buildlog.Record{
		Signature:   report.Signature,
		ContentHash: report.ContentHash,
		Outcome:     string(report.Outcome),
		Pages:       report.Pages,
		Posts:       report.Posts,
		Assets:      report.Assets,
		Duration:    report.Duration,
	}
	if err := store.Append(ctx, rec); err != nil {
		slog.Warn("Failed to record build", "error", err)
	}
}
