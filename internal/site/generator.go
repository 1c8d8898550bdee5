package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/theme"
)

// Generator turns a content tree into a static site.
//
// Builds render into a staging directory next to the output and swap it in
// only on success, so a failed build never clobbers the previously published
// site.
type Generator struct {
	cfg       *config.Config
	outputDir string
	discovery *content.Discovery
	theme     *theme.Theme
	recorder  metrics.Recorder

	// Per-build scratch populated by stages.
	rendered   map[string][]byte // post source path -> rendered HTML body
	permalinks []string          // site-relative URLs of written pages
}

// NewGenerator creates a Generator writing to outputDir.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: outputDir,
		discovery: content.NewDiscovery(cfg),
		recorder:  metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r != nil {
		g.recorder = r
	}
	return g
}

// OutputDir returns the publish directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// Build runs the full stage pipeline and returns the build report. The
// returned error is nil when the site was published (possibly with
// warnings recorded in the report).
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport()
	bs := newBuildState(g, report)
	bs.StagingDir = g.outputDir + ".staging"

	g.rendered = map[string][]byte{}
	g.permalinks = nil

	stages := []namedStage{
		{"load_theme", stageLoadTheme},
		{"prepare_staging", stagePrepareStaging},
		{"discover_content", stageDiscoverContent},
		{"render_posts", stageRenderPosts},
		{"render_indexes", stageRenderIndexes},
		{"render_taxonomies", stageRenderTaxonomies},
		{"render_feed", stageRenderFeed},
		{"render_extras", stageRenderExtras},
		{"copy_assets", stageCopyAssets},
		{"publish", stagePublish},
	}

	err := runStages(ctx, bs, stages)
	if err != nil {
		// Never leave a half-written staging tree behind.
		if rmErr := os.RemoveAll(bs.StagingDir); rmErr != nil {
			slog.Warn("Failed to clean staging directory", "dir", bs.StagingDir, "error", rmErr)
		}
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			report.Outcome = OutcomeCanceled
		} else {
			report.Outcome = OutcomeFailed
		}
		g.recorder.IncBuildOutcome(string(report.Outcome))
		return report, err
	}

	report.Outcome = OutcomeSuccess
	g.recorder.IncBuildOutcome(string(report.Outcome))
	slog.Info("Site built",
		"output", g.outputDir,
		"pages", report.Pages,
		"posts", report.Posts,
		"assets", report.Assets,
		"duration", report.Duration)
	return report, nil
}

func stageLoadTheme(_ context.Context, bs *BuildState) error {
	th, err := theme.Load(bs.Generator.cfg)
	if err != nil {
		return err
	}
	bs.Generator.theme = th
	return nil
}

func stagePrepareStaging(_ context.Context, bs *BuildState) error {
	if err := os.RemoveAll(bs.StagingDir); err != nil {
		return fmt.Errorf("clean staging directory: %w", err)
	}
	if err := os.MkdirAll(bs.StagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	return nil
}

func stageDiscoverContent(_ context.Context, bs *BuildState) error {
	set, err := bs.Generator.discovery.Discover()
	if err != nil {
		return err
	}
	hash, err := set.ComputeHash()
	if err != nil {
		return err
	}
	sig, err := content.ComputeSignature(hash, bs.Generator.cfg)
	if err != nil {
		return err
	}

	bs.Content = set
	bs.Report.ContentHash = hash
	bs.Report.Signature = sig
	bs.Report.Posts = len(set.Posts)
	bs.Report.Skipped = set.Skipped
	slog.Debug("Content discovered", "posts", len(set.Posts), "assets", len(set.Assets), "skipped", set.Skipped)
	return nil
}

func stageRenderPosts(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	var warnings []error
	for _, post := range bs.Content.Posts {
		select {
		case <-ctx.Done():
			return newCanceledStageError("render_posts", ctx.Err())
		default:
		}

		warnings = append(warnings, sourceLinkWarnings(post)...)

		body, err := markdown.Render(post.Body)
		if err != nil {
			return fmt.Errorf("render %s: %w", post.SourcePath, err)
		}
		g.rendered[post.SourcePath] = body

		page := &theme.Page{
			Site:      g.siteView(),
			Title:     post.Meta.Title,
			Permalink: post.Permalink(),
			Post:      postView(post, body),
		}
		if err := g.writePage(bs, post.OutputPath(), theme.KindPost, page); err != nil {
			return err
		}

		for _, alias := range post.Meta.Aliases {
			if err := g.writeAlias(bs, alias, post.Permalink()); err != nil {
				return err
			}
		}
	}
	if len(warnings) > 0 {
		return newWarnStageError("render_posts", errors.Join(warnings...))
	}
	return nil
}

// sourceLinkWarnings flags Markdown links that target a .md source file.
// Those resolve nowhere in the generated site; the author meant the page URL.
func sourceLinkWarnings(p *content.Post) []error {
	links, err := markdown.ExtractLinks(p.Body)
	if err != nil {
		return []error{fmt.Errorf("%s: extract links: %w", p.SourcePath, err)}
	}
	var warns []error
	for _, l := range links {
		u, err := url.Parse(l.Destination)
		if err != nil || u.Scheme != "" || u.Host != "" {
			continue
		}
		if strings.HasSuffix(u.Path, ".md") {
			warns = append(warns, fmt.Errorf("%s: link %q targets a Markdown source file instead of a page URL", p.SourcePath, l.Destination))
		}
	}
	return warns
}

func stageRenderIndexes(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	home := &theme.Page{
		Site:  g.siteView(),
		Posts: postViews(bs.Content.Posts),
	}
	if err := g.writePage(bs, "index.html", theme.KindIndex, home); err != nil {
		return err
	}

	for _, section := range bs.Content.Sections() {
		page := &theme.Page{
			Site:    g.siteView(),
			Title:   section,
			Section: section,
			Posts:   postViews(bs.Content.InSection(section)),
		}
		if err := g.writePage(bs, section+"/index.html", theme.KindSection, page); err != nil {
			return err
		}
	}
	return nil
}

func stageRenderFeed(_ context.Context, bs *BuildState) error {
	data, err := bs.Generator.buildFeed(bs.Content)
	if err != nil {
		return err
	}
	return bs.Generator.writeFile(bs, "atom.xml", data)
}

func stageRenderExtras(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	notFound := &theme.Page{Site: g.siteView(), Title: "Not Found"}
	if err := g.writePage(bs, "404.html", theme.KindNotFound, notFound); err != nil {
		return err
	}

	data, err := g.buildSitemap()
	if err != nil {
		return err
	}
	return g.writeFile(bs, "sitemap.xml", data)
}

func stageCopyAssets(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	for _, asset := range bs.Content.Assets {
		data, err := os.ReadFile(asset.SourcePath)
		if err != nil {
			return fmt.Errorf("copy asset %s: %w", asset.RelPath, err)
		}
		if err := g.writeRaw(bs, asset.RelPath, data); err != nil {
			return err
		}
		bs.Report.Assets++
	}

	if info, err := os.Stat(g.cfg.StaticDir); err == nil && info.IsDir() {
		if err := g.copyStaticTree(bs, g.cfg.StaticDir); err != nil {
			return err
		}
	}

	for _, rel := range g.theme.AssetPaths() {
		if err := g.writeRaw(bs, rel, g.theme.Assets()[rel]); err != nil {
			return err
		}
		bs.Report.Assets++
	}
	return nil
}

func stagePublish(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := os.RemoveAll(g.outputDir); err != nil {
		return fmt.Errorf("remove previous output: %w", err)
	}
	if err := os.Rename(bs.StagingDir, g.outputDir); err != nil {
		return fmt.Errorf("publish staging directory: %w", err)
	}
	return nil
}

func (g *Generator) copyStaticTree(bs *BuildState, root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("copy static file %s: %w", rel, err)
		}
		if err := g.writeRaw(bs, filepath.ToSlash(rel), data); err != nil {
			return err
		}
		bs.Report.Assets++
		return nil
	})
}

// writePage renders a theme page and writes it under the staging directory.
func (g *Generator) writePage(bs *BuildState, relPath, kind string, page *theme.Page) error {
	var buf bytes.Buffer
	if err := g.theme.Render(&buf, kind, page); err != nil {
		return err
	}
	if err := g.writeRaw(bs, relPath, buf.Bytes()); err != nil {
		return err
	}
	bs.Report.Pages++
	g.permalinks = append(g.permalinks, relToPermalink(relPath))
	return nil
}

// writeFile writes a non-page artifact (feed, sitemap) to staging.
func (g *Generator) writeFile(bs *BuildState, relPath string, data []byte) error {
	return g.writeRaw(bs, relPath, data)
}

func (g *Generator) writeRaw(bs *BuildState, relPath string, data []byte) error {
	full := filepath.Join(bs.StagingDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// writeAlias writes a meta-refresh redirect page at an old URL.
func (g *Generator) writeAlias(bs *BuildState, alias, target string) error {
	rel := aliasOutputPath(alias)
	if rel == "" {
		return fmt.Errorf("invalid alias %q (must be a site-relative path)", alias)
	}
	page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url=%s"><link rel="canonical" href="%s"></head></html>
`, target, target)
	return g.writeRaw(bs, rel, []byte(page))
}

func aliasOutputPath(alias string) string {
	if alias == "" || alias[0] != '/' {
		return ""
	}
	rel := alias[1:]
	if rel == "" {
		return ""
	}
	if rel[len(rel)-1] == '/' {
		return rel + "index.html"
	}
	return rel + "/index.html"
}

func relToPermalink(relPath string) string {
	if relPath == "index.html" {
		return "/"
	}
	const suffix = "/index.html"
	if len(relPath) > len(suffix) && relPath[len(relPath)-len(suffix):] == suffix {
		return "/" + relPath[:len(relPath)-len(suffix)+1]
	}
	return "/" + relPath
}

func (g *Generator) siteView() theme.Site {
	return theme.Site{
		Title:       g.cfg.Title,
		Description: g.cfg.Description,
		BaseURL:     g.cfg.BaseURL,
		Language:    g.cfg.DefaultLanguage,
		Author:      g.cfg.Author,
		Menu:        sortedMenu(g.cfg.Menu),
		Social:      g.cfg.Social,
		Extra:       g.cfg.Extra,
	}
}

func sortedMenu(menu []config.MenuItem) []config.MenuItem {
	out := make([]config.MenuItem, len(menu))
	copy(out, menu)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	return out
}

func postView(p *content.Post, body []byte) *theme.PostView {
	return &theme.PostView{
		Title:       p.Meta.Title,
		Date:        p.Meta.Date,
		Description: p.Meta.Description,
		Section:     p.Section,
		Permalink:   p.Permalink(),
		Content:     template.HTML(body),
		Taxonomies:  p.Meta.Taxonomies,
		ReadingTime: p.ReadingTime(),
	}
}

// postViews converts posts to views without rendered bodies; listings only
// need metadata.
func postViews(posts []*content.Post) []*theme.PostView {
	out := make([]*theme.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, postView(p, nil))
	}
	return out
}
