package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

func testSite(t *testing.T) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfgBody := `base_url = "http://localhost:1313"
title = "Test Blog"
content_dir = "` + filepath.ToSlash(filepath.Join(dir, "content")) + `"
static_dir = "` + filepath.ToSlash(filepath.Join(dir, "static")) + `"
themes_dir = "` + filepath.ToSlash(filepath.Join(dir, "themes")) + `"

[output]
directory = "` + filepath.ToSlash(filepath.Join(dir, "public")) + `"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content", "posts"), 0o755))
	post := "+++\ntitle = \"First\"\ndate = 2024-05-01\n+++\nHello.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", "posts", "first.md"), []byte(post), 0o644))
	return &CLI{Config: cfgPath}, dir
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: filepath.Join(dir, "config.toml")}

	require.NoError(t, (&InitCmd{}).Run(nil, root))
	_, err := config.Load(root.Config)
	require.NoError(t, err)

	welcome, err := os.ReadFile(filepath.Join(dir, "content", "posts", "welcome.md"))
	require.NoError(t, err)
	require.Contains(t, string(welcome), `title = "Welcome"`)

	require.Error(t, (&InitCmd{}).Run(nil, root), "refuses to overwrite without --force")
	require.NoError(t, (&InitCmd{Force: true}).Run(nil, root))
}

func TestNewCmd_CreatesPost(t *testing.T) {
	root, dir := testSite(t)

	cmd := &NewCmd{Title: "Héllo Wörld", Section: "posts", Tags: []string{"go"}}
	require.NoError(t, cmd.Run(nil, root))

	path := filepath.Join(dir, "content", "posts", "hello-world.md")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	raw, _, format, _, err := frontmatter.Split(data)
	require.NoError(t, err)
	require.Equal(t, frontmatter.FormatTOML, format)

	meta, err := frontmatter.Parse(raw, format)
	require.NoError(t, err)
	require.Equal(t, "Héllo Wörld", meta.Title)
	require.Equal(t, []string{"go"}, meta.Taxonomies["tags"])

	require.Error(t, cmd.Run(nil, root), "refuses to overwrite an existing post")
}

func TestBuildCmd_BuildsAndRecords(t *testing.T) {
	root, dir := testSite(t)
	buildLog := filepath.Join(dir, "state", "builds.db")

	cmd := &BuildCmd{BuildLog: buildLog}
	require.NoError(t, cmd.Run(nil, root))

	_, err := os.Stat(filepath.Join(dir, "public", "posts", "first", "index.html"))
	require.NoError(t, err)

	// The recorded signature makes the next identical build skippable.
	cfg, err := config.Load(root.Config)
	require.NoError(t, err)
	store, err := openBuildLog(buildLog)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	skip, err := canSkip(context.Background(), cfg, store)
	require.NoError(t, err)
	require.True(t, skip)
}

func TestBuildCmd_WriteManifest(t *testing.T) {
	root, dir := testSite(t)
	buildLog := filepath.Join(dir, "state", "builds.db")

	cmd := &BuildCmd{BuildLog: buildLog, WriteManifest: true}
	require.NoError(t, cmd.Run(nil, root))

	data, err := os.ReadFile(filepath.Join(dir, "state", "manifest.json"))
	require.NoError(t, err)

	var manifest content.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.NotEmpty(t, manifest.Hash)
	require.Len(t, manifest.Files, 1)
	require.NotEmpty(t, manifest.Files[0].ContentHash)
}

func TestBuildCmd_ShippedSiteBuilds(t *testing.T) {
	t.Chdir("../../..")
	out := t.TempDir()

	cmd := &BuildCmd{Output: out, BuildLog: filepath.Join(out, "builds.db"), Force: true}
	require.NoError(t, cmd.Run(nil, &CLI{Config: "config.toml"}))

	for _, rel := range []string{
		"index.html",
		"posts/welcome/index.html",
		"about/index.html",
		"tags/meta/index.html",
	} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel)))
		require.NoError(t, err, "expected output file %s", rel)
	}
}

func TestCheckCmd_PassesOnHealthySite(t *testing.T) {
	root, _ := testSite(t)
	require.NoError(t, (&CheckCmd{}).Run(nil, root))
}
