package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks after NFD decomposition, so "café"
// slugifies to "cafe".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a title: accents stripped, lowercased,
// runs of non-alphanumerics collapsed to single dashes.
func Slugify(title string) string {
	if out, _, err := transform.String(deaccent, title); err == nil {
		title = out
	}
	title = strings.ToLower(title)

	var b strings.Builder
	pendingDash := false
	for _, r := range title {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
