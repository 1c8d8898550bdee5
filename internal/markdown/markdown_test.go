package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_BasicMarkdown_ProducesHTML(t *testing.T) {
	out, err := Render([]byte("# Hello\n\nSome *emphasis* here.\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1 id=\"hello\">Hello</h1>")
	require.Contains(t, string(out), "<em>emphasis</em>")
}

func TestRender_GFMTable_ProducesTableMarkup(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"

	out, err := Render([]byte(src))
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")
}

func TestRender_RawHTMLPassesThrough(t *testing.T) {
	out, err := Render([]byte("<aside>note</aside>\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<aside>note</aside>")
}

func TestExtractLinks_FindsInlineImageAndAutoLinks(t *testing.T) {
	src := []byte("[a](/posts/foo/) ![img](/images/x.png) <https://example.com>\n\n[ref]\n\n[ref]: /posts/bar/\n")

	links, err := ExtractLinks(src)
	require.NoError(t, err)

	byKind := map[LinkKind][]string{}
	for _, l := range links {
		byKind[l.Kind] = append(byKind[l.Kind], l.Destination)
	}
	require.Contains(t, byKind[LinkKindInline], "/posts/foo/")
	require.Contains(t, byKind[LinkKindInline], "/posts/bar/")
	require.Contains(t, byKind[LinkKindImage], "/images/x.png")
	require.Contains(t, byKind[LinkKindAuto], "https://example.com")
	require.Contains(t, byKind[LinkKindReferenceDefinition], "/posts/bar/")
}

func TestExtractLinks_NoLinks_ReturnsEmptySlice(t *testing.T) {
	links, err := ExtractLinks([]byte("plain text\n"))
	require.NoError(t, err)
	require.Empty(t, links)
}
