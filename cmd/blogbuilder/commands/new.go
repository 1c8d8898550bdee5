package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Title   string   `arg:"" help:"Title of the new post"`
	Section string   `short:"s" help:"Content section" default:"posts"`
	Draft   bool     `short:"d" help:"Mark the post as a draft"`
	Tags    []string `short:"t" help:"Tags to assign"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	slug := content.Slugify(n.Title)
	if slug == "" {
		return fmt.Errorf("title %q yields an empty slug", n.Title)
	}

	meta := &frontmatter.Meta{
		Title: n.Title,
		Date:  time.Now().Truncate(time.Second),
		Draft: n.Draft,
	}
	if len(n.Tags) > 0 {
		meta.Taxonomies = map[string][]string{"tags": n.Tags}
	}

	doc, err := frontmatter.Document(meta, []byte("\n"))
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.ContentDir, n.Section, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create section directory: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write content file: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
