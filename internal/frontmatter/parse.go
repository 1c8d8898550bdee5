package frontmatter

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Meta is the typed front-matter of a content file.
//
// Title and Date are mandatory; everything else is optional. Taxonomy
// assignments live under the `taxonomies` table keyed by taxonomy name,
// e.g. `tags = ["go", "testing"]`.
type Meta struct {
	Title       string
	Date        time.Time
	Updated     time.Time
	Description string
	Slug        string
	Draft       bool
	Aliases     []string
	Taxonomies  map[string][]string
	Extra       map[string]any
}

// Validation errors surfaced by Parse.
var (
	ErrMissingTitle = errors.New("front-matter is missing a title")
	ErrMissingDate  = errors.New("front-matter is missing a date")
)

type envelope struct {
	Title       string              `toml:"title" yaml:"title"`
	Date        time.Time           `toml:"date" yaml:"date"`
	Updated     time.Time           `toml:"updated" yaml:"updated"`
	Description string              `toml:"description" yaml:"description"`
	Slug        string              `toml:"slug" yaml:"slug"`
	Draft       bool                `toml:"draft" yaml:"draft"`
	Aliases     []string            `toml:"aliases" yaml:"aliases"`
	Taxonomies  map[string][]string `toml:"taxonomies" yaml:"taxonomies"`
	Extra       map[string]any      `toml:"extra" yaml:"extra"`
}

// Parse decodes a raw front-matter block (without delimiters) into Meta.
//
// The block must yield a non-empty title and a non-zero date; everything else
// defaults to its zero value.
func Parse(raw []byte, format Format) (*Meta, error) {
	var env envelope

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode toml front-matter: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode yaml front-matter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported front-matter format %q", format)
	}

	meta := &Meta{
		Title:       env.Title,
		Date:        env.Date,
		Updated:     env.Updated,
		Description: env.Description,
		Slug:        env.Slug,
		Draft:       env.Draft,
		Aliases:     env.Aliases,
		Taxonomies:  env.Taxonomies,
		Extra:       env.Extra,
	}
	if meta.Taxonomies == nil {
		meta.Taxonomies = map[string][]string{}
	}

	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// Validate checks the mandatory front-matter fields.
func (m *Meta) Validate() error {
	if m.Title == "" {
		return ErrMissingTitle
	}
	if m.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Terms returns the terms assigned under the named taxonomy.
func (m *Meta) Terms(taxonomy string) []string {
	if m.Taxonomies == nil {
		return nil
	}
	return m.Taxonomies[taxonomy]
}
