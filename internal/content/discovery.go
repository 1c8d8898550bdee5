package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// Set is the discovered content of a site: parsed posts plus pass-through
// assets, in deterministic order.
type Set struct {
	// Posts holds every rendered content file, newest first.
	Posts []*Post
	// Assets are non-Markdown files copied through verbatim.
	Assets []Asset
	// Skipped counts drafts and future-dated posts excluded from the build.
	Skipped int
}

// Discovery walks a content directory and parses every Markdown file.
type Discovery struct {
	cfg *config.Config

	// Now is the clock used for the future-dated cutoff; injectable for tests.
	Now func() time.Time
}

// NewDiscovery creates a Discovery for the configured content directory.
func NewDiscovery(cfg *config.Config) *Discovery {
	return &Discovery{cfg: cfg, Now: time.Now}
}

// Discover walks the content tree and returns the parsed content set.
//
// Parse failures abort discovery and carry the offending file path. Drafts
// are skipped unless build_drafts; posts dated in the future are skipped
// unless build_future.
func (d *Discovery) Discover() (*Set, error) {
	root := d.cfg.ContentDir
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("content directory %s: %w", root, err)
	}

	set := &Set{}
	now := d.Now()

	err := filepath.WalkDir(root, func(fpath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && fpath != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(root, fpath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !strings.HasSuffix(entry.Name(), ".md") {
			set.Assets = append(set.Assets, Asset{SourcePath: fpath, RelPath: rel})
			return nil
		}

		post, err := d.parseFile(fpath, rel)
		if err != nil {
			return err
		}

		if post.Meta.Draft && !d.cfg.BuildDrafts {
			slog.Debug("Skipping draft", "path", rel)
			set.Skipped++
			return nil
		}
		if post.Meta.Date.After(now) && !d.cfg.BuildFuture {
			slog.Debug("Skipping future-dated post", "path", rel, "date", post.Meta.Date)
			set.Skipped++
			return nil
		}

		set.Posts = append(set.Posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkSlugCollisions(set.Posts); err != nil {
		return nil, err
	}

	sortPosts(set.Posts)
	sort.Slice(set.Assets, func(i, j int) bool {
		return set.Assets[i].RelPath < set.Assets[j].RelPath
	})

	return set, nil
}

func (d *Discovery) parseFile(fpath, rel string) (*Post, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	raw, body, format, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	if format == frontmatter.FormatNone {
		return nil, fmt.Errorf("parse %s: missing front-matter block", rel)
	}

	meta, err := frontmatter.Parse(raw, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}

	slug := meta.Slug
	if slug == "" {
		slug = Slugify(meta.Title)
	}
	if slug == "" {
		return nil, fmt.Errorf("parse %s: title %q yields an empty slug", rel, meta.Title)
	}

	section := ""
	if idx := strings.IndexByte(rel, '/'); idx >= 0 {
		section = rel[:idx]
	}

	return &Post{
		SourcePath: rel,
		Section:    section,
		Meta:       meta,
		Body:       body,
		Slug:       slug,
		WordCount:  countWords(body),
		SourceHash: HashBytes(data),
	}, nil
}

// checkSlugCollisions rejects two posts mapping to the same permalink.
func checkSlugCollisions(posts []*Post) error {
	seen := map[string]string{}
	for _, p := range posts {
		link := p.Permalink()
		if other, ok := seen[link]; ok {
			return fmt.Errorf("slug collision: %s and %s both map to %s", other, p.SourcePath, link)
		}
		seen[link] = p.SourcePath
	}
	return nil
}

// sortPosts orders newest first, ties broken by title then path so output
// ordering is fully deterministic.
func sortPosts(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.Meta.Date.Equal(b.Meta.Date) {
			return a.Meta.Date.After(b.Meta.Date)
		}
		if a.Meta.Title != b.Meta.Title {
			return a.Meta.Title < b.Meta.Title
		}
		return a.SourcePath < b.SourcePath
	})
}

// Sections returns the distinct non-empty sections in sorted order.
func (s *Set) Sections() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range s.Posts {
		if p.Section == "" || seen[p.Section] {
			continue
		}
		seen[p.Section] = true
		out = append(out, p.Section)
	}
	sort.Strings(out)
	return out
}

// InSection returns the posts of a section, preserving global order.
func (s *Set) InSection(section string) []*Post {
	var out []*Post
	for _, p := range s.Posts {
		if p.Section == section {
			out = append(out, p)
		}
	}
	return out
}
