package content

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// Post is a single content file: front-matter plus Markdown body.
// Identity is the source path relative to the content directory.
type Post struct {
	// SourcePath is the path relative to the content directory, using
	// forward slashes.
	SourcePath string
	// Section is the top-level content subdirectory ("posts", "pages", ...)
	// or empty for files at the content root.
	Section string
	Meta    *frontmatter.Meta
	Body    []byte
	// Slug is the URL slug, either Meta.Slug or derived from the title.
	Slug      string
	WordCount int
	// SourceHash is the hex SHA-256 of the whole source file, front-matter
	// included, so metadata edits invalidate the build signature too.
	SourceHash string
}

// Permalink returns the site-relative URL of the post, always with a
// trailing slash.
func (p *Post) Permalink() string {
	if p.Section == "" {
		return "/" + p.Slug + "/"
	}
	return "/" + p.Section + "/" + p.Slug + "/"
}

// OutputPath returns the output file path (slash separated) relative to the
// output root.
func (p *Post) OutputPath() string {
	return path.Join(strings.TrimPrefix(p.Permalink(), "/"), "index.html")
}

// ReadingTime estimates reading time in minutes at ~200 words per minute,
// never less than one.
func (p *Post) ReadingTime() int {
	minutes := p.WordCount / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

// HasTerm reports whether the post carries term under the named taxonomy.
func (p *Post) HasTerm(taxonomy, term string) bool {
	for _, t := range p.Meta.Terms(taxonomy) {
		if t == term {
			return true
		}
	}
	return false
}

// Asset is a non-Markdown file under the content directory, copied through
// to the output verbatim.
type Asset struct {
	// SourcePath is the absolute path on disk.
	SourcePath string
	// RelPath is the path relative to the content directory, slash separated.
	RelPath string
}

func countWords(body []byte) int {
	return len(strings.Fields(string(body)))
}
