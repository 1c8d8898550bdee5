package frontmatter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type serializeEnvelope struct {
	Title       string              `toml:"title"`
	Date        time.Time           `toml:"date"`
	Description string              `toml:"description,omitempty"`
	Slug        string              `toml:"slug,omitempty"`
	Draft       bool                `toml:"draft,omitempty"`
	Aliases     []string            `toml:"aliases,omitempty"`
	Taxonomies  map[string][]string `toml:"taxonomies,omitempty"`
	Extra       map[string]any      `toml:"extra,omitempty"`
}

// Serialize emits a canonical TOML front-matter block (without delimiters)
// for meta. Map keys are emitted sorted, so output is deterministic.
func Serialize(meta *Meta) ([]byte, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	env := serializeEnvelope{
		Title:       meta.Title,
		Date:        meta.Date,
		Description: meta.Description,
		Slug:        meta.Slug,
		Draft:       meta.Draft,
		Aliases:     meta.Aliases,
		Extra:       meta.Extra,
	}
	if len(meta.Taxonomies) > 0 {
		env.Taxonomies = meta.Taxonomies
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	return buf.Bytes(), nil
}

// Document assembles a complete content file: TOML front-matter followed by
// the Markdown body.
func Document(meta *Meta, body []byte) ([]byte, error) {
	raw, err := Serialize(meta)
	if err != nil {
		return nil, err
	}
	return Join(raw, body, FormatTOML, Style{Newline: "\n"}), nil
}
