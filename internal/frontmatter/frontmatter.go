package frontmatter

import (
	"bytes"
	"errors"
)

// Format identifies the front-matter dialect of a content file.
type Format string

const (
	// FormatTOML is a `+++` delimited TOML block.
	FormatTOML Format = "toml"
	// FormatYAML is a `---` delimited YAML block.
	FormatYAML Format = "yaml"
	// FormatNone means the document carries no front-matter block.
	FormatNone Format = ""
)

// ErrMissingClosingDelimiter indicates the document started with a
// front-matter delimiter but did not contain a matching closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original TOML/YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

func delimiterFor(format Format) string {
	if format == FormatYAML {
		return "---"
	}
	return "+++"
}

// Split separates a front-matter block (`+++` TOML or `---` YAML delimited)
// from the Markdown body.
//
// If the document does not start with a known delimiter, format is FormatNone
// and body is the full input.
func Split(content []byte) (raw []byte, body []byte, format Format, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	for _, f := range []Format{FormatTOML, FormatYAML} {
		open := []byte(delimiterFor(f) + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}

		start := len(open)
		closeLine := []byte(delimiterFor(f) + nl)
		if bytes.HasPrefix(content[start:], closeLine) {
			bodyStart := start + len(closeLine)
			return []byte{}, content[bodyStart:], f, style, nil
		}

		closeSeq := []byte(nl + delimiterFor(f) + nl)
		idx := bytes.Index(content[start:], closeSeq)
		if idx < 0 {
			return nil, nil, FormatNone, style, ErrMissingClosingDelimiter
		}

		rawEnd := start + idx + len(nl)
		bodyStart := start + idx + len(closeSeq)
		return content[start:rawEnd], content[bodyStart:], f, style, nil
	}

	return nil, content, FormatNone, style, nil
}

// Join reassembles a document from raw front-matter and body.
//
// If format is FormatNone, Join returns body as-is. Otherwise Join emits the
// front-matter block using the format's delimiter and the newline style
// captured in Style.
func Join(raw []byte, body []byte, format Format, style Style) []byte {
	if format == FormatNone {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	delim := []byte(delimiterFor(format) + nl)

	out := make([]byte, 0, 2*len(delim)+len(raw)+len(body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	out = append(out, body...)
	return out
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
