package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MinimalConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "base_url = \"https://blog.example.com\"\ntitle = \"Example\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://blog.example.com", cfg.BaseURL)
	require.Equal(t, "Example", cfg.Title)
	require.Equal(t, "en", cfg.DefaultLanguage)
	require.Equal(t, []string{"tags"}, cfg.Taxonomies)
	require.Equal(t, "content", cfg.ContentDir)
	require.Equal(t, "public", cfg.Output.Directory)
	require.True(t, cfg.Output.Clean)
	require.Equal(t, 1313, cfg.Serve.Port)
	require.Equal(t, 1315, cfg.Serve.MetricsPort)
}

func TestLoad_FullConfig_DecodesAllSections(t *testing.T) {
	path := writeConfig(t, `base_url = "https://blog.example.com"
title = "Example"
taxonomies = ["tags", "categories"]
build_drafts = true

[author]
name = "Jo"
email = "jo@example.com"

[[menu]]
name = "Posts"
url = "/posts/"
weight = 1

[[social]]
name = "fediverse"
url = "https://hachyderm.io/@jo"

[extra]
footer = "CC-BY"

[serve]
port = 8080
rebuild_interval = "10m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"tags", "categories"}, cfg.Taxonomies)
	require.True(t, cfg.BuildDrafts)
	require.Equal(t, "Jo", cfg.Author.Name)
	require.Len(t, cfg.Menu, 1)
	require.Equal(t, "/posts/", cfg.Menu[0].URL)
	require.Len(t, cfg.Social, 1)
	require.Equal(t, "CC-BY", cfg.Extra["footer"])
	require.Equal(t, 8080, cfg.Serve.Port)
	require.Equal(t, 10*time.Minute, cfg.RebuildInterval())
	require.True(t, cfg.HasTaxonomy("categories"))
	require.False(t, cfg.HasTaxonomy("series"))
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoad_MalformedTOML_ReturnsError(t *testing.T) {
	path := writeConfig(t, "base_url = \n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("BLOG_BASE_URL", "https://env.example.com")
	path := writeConfig(t, "base_url = \"${BLOG_BASE_URL}\"\ntitle = \"Example\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.BaseURL)
}

func TestValidate_BadBaseURL_ReturnsError(t *testing.T) {
	path := writeConfig(t, "base_url = \"blog.example.com\"\ntitle = \"Example\"\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "base_url")
}

func TestValidate_DuplicateTaxonomy_ReturnsError(t *testing.T) {
	path := writeConfig(t, "base_url = \"https://x.example\"\ntaxonomies = [\"tags\", \"tags\"]\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestValidate_BadRebuildInterval_ReturnsError(t *testing.T) {
	path := writeConfig(t, "base_url = \"https://x.example\"\n\n[serve]\nrebuild_interval = \"often\"\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rebuild_interval")
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Blog", cfg.Title)

	// Existing file is not overwritten without force.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
