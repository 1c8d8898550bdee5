package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", root.Config)

	welcome, err := writeWelcomePost(filepath.Dir(root.Config))
	if err != nil {
		return err
	}
	if welcome != "" {
		fmt.Printf("Created %s\n", welcome)
	}
	return nil
}

// writeWelcomePost scaffolds content/posts/welcome.md next to the
// configuration file so a fresh site builds to something visible. An
// existing file is left alone.
func writeWelcomePost(siteDir string) (string, error) {
	path := filepath.Join(siteDir, "content", "posts", "welcome.md")
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	meta := &frontmatter.Meta{
		Title: "Welcome",
		Date:  time.Now().Truncate(time.Second),
	}
	body := []byte("\nThis is your first post. Edit or delete it, then run\n`blogbuilder build` to regenerate the site.\n")
	doc, err := frontmatter.Document(meta, body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create content directory: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write welcome post: %w", err)
	}
	return path, nil
}
