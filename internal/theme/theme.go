// Package theme owns the HTML view layer: an embedded default template set
// plus optional on-disk overrides, and the data contract the site generator
// fills in for each page kind.
package theme

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page kinds understood by every theme.
const (
	KindIndex    = "index"
	KindPost     = "post"
	KindSection  = "section"
	KindTerms    = "terms"
	KindTerm     = "term"
	KindNotFound = "404"
)

var pageKinds = []string{KindIndex, KindPost, KindSection, KindTerms, KindTerm, KindNotFound}

// Site is the site-wide data available to every template.
type Site struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Author      config.Author
	Menu        []config.MenuItem
	Social      []config.SocialLink
	Extra       map[string]any
}

// PostView is a rendered post as seen by templates.
type PostView struct {
	Title       string
	Date        time.Time
	Description string
	Section     string
	Permalink   string
	Content     template.HTML
	Taxonomies  map[string][]string
	ReadingTime int
}

// TermView is one taxonomy term with its page count.
type TermView struct {
	Term  string
	URL   string
	Count int
}

// Page is the root template data for a single output page.
type Page struct {
	Site      Site
	Kind      string
	Title     string
	Permalink string

	// Post is set for KindPost.
	Post *PostView
	// Posts is set for listing kinds (index, section, term).
	Posts []*PostView
	// Section is set for KindSection.
	Section string
	// Taxonomy/Term are set for taxonomy kinds.
	Taxonomy string
	Term     string
	// Terms is set for KindTerms.
	Terms []TermView
}

// Theme is a loaded template set, one compiled template per page kind.
type Theme struct {
	pages  map[string]*template.Template
	assets map[string][]byte
}

// Load compiles the theme for cfg. When cfg.Theme names a directory under
// cfg.ThemesDir, its templates/ and static/ entries override the embedded
// defaults file by file.
func Load(cfg *config.Config) (*Theme, error) {
	overrideDir := ""
	if cfg.Theme != "" {
		overrideDir = filepath.Join(cfg.ThemesDir, cfg.Theme)
		if _, err := os.Stat(overrideDir); err != nil {
			return nil, fmt.Errorf("theme %q: %w", cfg.Theme, err)
		}
	}

	funcs := templateFuncs(cfg)

	baseSrc, err := readTemplate(overrideDir, "base.html")
	if err != nil {
		return nil, err
	}

	th := &Theme{pages: map[string]*template.Template{}}
	for _, kind := range pageKinds {
		kindSrc, err := readTemplate(overrideDir, kind+".html")
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New("base").Funcs(funcs).Parse(string(baseSrc))
		if err != nil {
			return nil, fmt.Errorf("parse base.html: %w", err)
		}
		if _, err := tmpl.Parse(string(kindSrc)); err != nil {
			return nil, fmt.Errorf("parse %s.html: %w", kind, err)
		}
		th.pages[kind] = tmpl
	}

	if th.assets, err = loadAssets(overrideDir); err != nil {
		return nil, err
	}
	return th, nil
}

// Render writes the page of the given kind to w.
func (t *Theme) Render(w io.Writer, kind string, page *Page) error {
	tmpl, ok := t.pages[kind]
	if !ok {
		return fmt.Errorf("unknown page kind %q", kind)
	}
	page.Kind = kind
	if err := tmpl.ExecuteTemplate(w, "base", page); err != nil {
		return fmt.Errorf("render %s page: %w", kind, err)
	}
	return nil
}

// Assets returns theme static files keyed by output-relative path, in
// deterministic order via AssetPaths.
func (t *Theme) Assets() map[string][]byte { return t.assets }

// AssetPaths returns the sorted asset keys.
func (t *Theme) AssetPaths() []string {
	paths := make([]string, 0, len(t.assets))
	for p := range t.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// readTemplate returns the override file when present, the embedded default
// otherwise.
func readTemplate(overrideDir, name string) ([]byte, error) {
	if overrideDir != "" {
		p := filepath.Join(overrideDir, "templates", name)
		if data, err := os.ReadFile(p); err == nil {
			return data, nil
		}
	}
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return data, nil
}

func loadAssets(overrideDir string) (map[string][]byte, error) {
	assets := map[string][]byte{}

	err := fs.WalkDir(staticFS, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := staticFS.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel("static", p)
		assets[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedded static files: %w", err)
	}

	if overrideDir == "" {
		return assets, nil
	}

	staticDir := filepath.Join(overrideDir, "static")
	if _, err := os.Stat(staticDir); err != nil {
		return assets, nil
	}
	err = filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return err
		}
		assets[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read theme static files: %w", err)
	}
	return assets, nil
}

// TermURL returns the listing URL for a term under a taxonomy.
func TermURL(taxonomy, term string) string {
	return "/" + taxonomy + "/" + content.Slugify(term) + "/"
}

func templateFuncs(cfg *config.Config) template.FuncMap {
	titleCaser := cases.Title(language.Make(cfg.DefaultLanguage))
	return template.FuncMap{
		"dateFormat": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
		"absURL": func(path string) string {
			base := cfg.BaseURL
			for len(base) > 0 && base[len(base)-1] == '/' {
				base = base[:len(base)-1]
			}
			if len(path) == 0 || path[0] != '/' {
				path = "/" + path
			}
			return base + path
		},
		"termURL":  TermURL,
		"humanize": func(s string) string { return titleCaser.String(s) },
		"sitename": func() string { return cfg.Title },
	}
}
