package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{ContentDir: filepath.Join(dir, "content")}
	require.NoError(t, os.MkdirAll(cfg.ContentDir, 0o755))
	return cfg
}

func writeContent(t *testing.T, cfg *config.Config, rel, data string) {
	t.Helper()
	full := filepath.Join(cfg.ContentDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(data), 0o644))
}

func TestDiscover_ParsesPostsAndAssets(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/first.md", "+++\ntitle = \"First Post\"\ndate = 2021-01-01\n\n[taxonomies]\ntags = [\"A\", \"B\"]\n+++\nBody one.\n")
	writeContent(t, cfg, "posts/second.md", "+++\ntitle = \"Second Post\"\ndate = 2021-02-01\n+++\nBody two.\n")
	writeContent(t, cfg, "about.md", "+++\ntitle = \"About\"\ndate = 2020-01-01\n+++\nAbout me.\n")
	writeContent(t, cfg, "posts/diagram.png", "not-a-real-png")

	set, err := NewDiscovery(cfg).Discover()
	require.NoError(t, err)
	require.Len(t, set.Posts, 3)
	require.Len(t, set.Assets, 1)

	// Newest first.
	require.Equal(t, "Second Post", set.Posts[0].Meta.Title)
	require.Equal(t, "First Post", set.Posts[1].Meta.Title)
	require.Equal(t, "About", set.Posts[2].Meta.Title)

	first := set.Posts[1]
	require.Equal(t, "posts", first.Section)
	require.Equal(t, "first-post", first.Slug)
	require.Equal(t, "/posts/first-post/", first.Permalink())
	require.Equal(t, "posts/first-post/index.html", first.OutputPath())
	require.True(t, first.HasTerm("tags", "A"))
	require.False(t, first.HasTerm("tags", "C"))

	about := set.Posts[2]
	require.Equal(t, "", about.Section)
	require.Equal(t, "/about/", about.Permalink())

	require.Equal(t, []string{"posts"}, set.Sections())
	require.Len(t, set.InSection("posts"), 2)
}

func TestDiscover_MalformedFrontmatter_FailsWithPath(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/bad.md", "+++\ntitle = \n+++\nBody.\n")

	_, err := NewDiscovery(cfg).Discover()
	require.Error(t, err)
	require.Contains(t, err.Error(), "posts/bad.md")
}

func TestDiscover_MissingFrontmatter_FailsWithPath(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/naked.md", "# Just markdown\n")

	_, err := NewDiscovery(cfg).Discover()
	require.Error(t, err)
	require.Contains(t, err.Error(), "posts/naked.md")
	require.Contains(t, err.Error(), "front-matter")
}

func TestDiscover_DraftsSkippedUnlessEnabled(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/draft.md", "+++\ntitle = \"WIP\"\ndate = 2021-01-01\ndraft = true\n+++\nSoon.\n")

	set, err := NewDiscovery(cfg).Discover()
	require.NoError(t, err)
	require.Empty(t, set.Posts)
	require.Equal(t, 1, set.Skipped)

	cfg.BuildDrafts = true
	set, err = NewDiscovery(cfg).Discover()
	require.NoError(t, err)
	require.Len(t, set.Posts, 1)
}

func TestDiscover_FutureDatedSkippedUnlessEnabled(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/future.md", "+++\ntitle = \"Later\"\ndate = 2030-01-01\n+++\nNot yet.\n")

	d := NewDiscovery(cfg)
	d.Now = func() time.Time { return time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC) }

	set, err := d.Discover()
	require.NoError(t, err)
	require.Empty(t, set.Posts)
	require.Equal(t, 1, set.Skipped)

	cfg.BuildFuture = true
	set, err = d.Discover()
	require.NoError(t, err)
	require.Len(t, set.Posts, 1)
}

func TestDiscover_SlugCollision_ReturnsError(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/a.md", "+++\ntitle = \"Same Thing\"\ndate = 2021-01-01\n+++\nA.\n")
	writeContent(t, cfg, "posts/b.md", "+++\ntitle = \"Same Thing\"\ndate = 2021-02-01\n+++\nB.\n")

	_, err := NewDiscovery(cfg).Discover()
	require.Error(t, err)
	require.Contains(t, err.Error(), "slug collision")
}

func TestDiscover_ExplicitSlugOverridesTitle(t *testing.T) {
	cfg := testConfig(t)
	writeContent(t, cfg, "posts/x.md", "+++\ntitle = \"Some Long Title\"\ndate = 2021-01-01\nslug = \"short\"\n+++\nX.\n")

	set, err := NewDiscovery(cfg).Discover()
	require.NoError(t, err)
	require.Equal(t, "/posts/short/", set.Posts[0].Permalink())
}

func TestDiscover_MissingContentDir_ReturnsError(t *testing.T) {
	cfg := &config.Config{ContentDir: filepath.Join(t.TempDir(), "absent")}

	_, err := NewDiscovery(cfg).Discover()
	require.Error(t, err)
}
