package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and trailing!  ", "leading-and-trailing"},
		{"Ünïcödé Café", "unicode-cafe"},
		{"Rust, DDD & Tic-Tac-Toe", "rust-ddd-tic-tac-toe"},
		{"100% CPU!!", "100-cpu"},
		{"already-slugged", "already-slugged"},
		{"---", ""},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}
