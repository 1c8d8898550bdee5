package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, format, _, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatNone, format)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_TOMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("+++\ntitle = \"Foo\"\n+++\n# Title\n")

	raw, body, format, _, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Equal(t, []byte("title = \"Foo\"\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Foo\n---\n# Title\n")

	raw, body, format, _, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Equal(t, []byte("title: Foo\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("+++\ntitle = \"Foo\"\n# Title\n")

	_, _, format, _, err := Split(input)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
	require.Equal(t, FormatNone, format)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsEmptyFrontmatter(t *testing.T) {
	input := []byte("+++\n+++\n# Title\n")

	raw, body, format, _, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Empty(t, raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("+++\r\ntitle = \"Foo\"\r\n+++\r\n# Title\r\n")

	raw, body, format, style, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("title = \"Foo\"\r\n"), raw)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("+++\ntitle = \"Foo\"\n+++\n# Title\n"),
		[]byte("---\ntitle: Foo\n---\n# Title\n"),
		[]byte("+++\n+++\n# Title\n"),
		[]byte("+++\r\ntitle = \"Foo\"\r\n+++\r\n# Title\r\n"),
	}

	for _, input := range cases {
		raw, body, format, style, err := Split(input)
		require.NoError(t, err)

		out := Join(raw, body, format, style)
		require.Equal(t, input, out)
	}
}
