package theme

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

func themeConfig() *config.Config {
	return &config.Config{
		BaseURL:         "https://blog.example.com",
		Title:           "Example",
		DefaultLanguage: "en",
	}
}

func TestLoad_EmbeddedTheme_RendersAllKinds(t *testing.T) {
	th, err := Load(themeConfig())
	require.NoError(t, err)

	page := &Page{
		Site:  Site{Title: "Example", Language: "en"},
		Title: "Hello",
		Post: &PostView{
			Title:       "Hello",
			Date:        time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			Permalink:   "/posts/hello/",
			Content:     template.HTML("<p>body</p>"),
			Taxonomies:  map[string][]string{"tags": {"A"}},
			ReadingTime: 1,
		},
		Posts: []*PostView{{Title: "Hello", Permalink: "/posts/hello/", Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}},
		Terms: []TermView{{Term: "A", URL: "/tags/a/", Count: 1}},
	}
	page.Section = "posts"
	page.Taxonomy = "tags"
	page.Term = "A"

	for _, kind := range pageKinds {
		var buf bytes.Buffer
		require.NoError(t, th.Render(&buf, kind, page), "kind %s", kind)
		require.Contains(t, buf.String(), "<!DOCTYPE html>", "kind %s", kind)
	}
}

func TestRender_PostPage_ContainsContentAndTagLinks(t *testing.T) {
	th, err := Load(themeConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = th.Render(&buf, KindPost, &Page{
		Site:  Site{Title: "Example"},
		Title: "Hello",
		Post: &PostView{
			Title:       "Hello",
			Date:        time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			Content:     template.HTML("<p>rendered body</p>"),
			Taxonomies:  map[string][]string{"tags": {"Systems Design"}},
			ReadingTime: 3,
		},
	})
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, "<p>rendered body</p>")
	require.Contains(t, html, `href="/tags/systems-design/"`)
	require.Contains(t, html, "3 min read")
}

func TestRender_UnknownKind_ReturnsError(t *testing.T) {
	th, err := Load(themeConfig())
	require.NoError(t, err)

	require.Error(t, th.Render(&bytes.Buffer{}, "weird", &Page{}))
}

func TestLoad_MissingOverrideTheme_ReturnsError(t *testing.T) {
	cfg := themeConfig()
	cfg.Theme = "missing"
	cfg.ThemesDir = t.TempDir()

	_, err := Load(cfg)
	require.Error(t, err)
}

func TestLoad_OverrideTemplate_WinsOverEmbedded(t *testing.T) {
	cfg := themeConfig()
	cfg.ThemesDir = t.TempDir()
	cfg.Theme = "custom"

	tmplDir := filepath.Join(cfg.ThemesDir, "custom", "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	custom404 := `{{ define "content" }}<p>custom not found</p>{{ end }}`
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "404.html"), []byte(custom404), 0o644))

	th, err := Load(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, th.Render(&buf, KindNotFound, &Page{Site: Site{Title: "Example"}}))
	require.Contains(t, buf.String(), "custom not found")

	// Kinds without an override still use the embedded templates.
	var idx bytes.Buffer
	require.NoError(t, th.Render(&idx, KindIndex, &Page{Site: Site{Title: "Example"}}))
	require.Contains(t, idx.String(), "post-list")
}

func TestAssets_IncludeStylesheet(t *testing.T) {
	th, err := Load(themeConfig())
	require.NoError(t, err)

	paths := th.AssetPaths()
	require.Contains(t, paths, "style.css")
	require.NotEmpty(t, th.Assets()["style.css"])
}

func TestTermURL_SlugifiesTerm(t *testing.T) {
	require.Equal(t, "/tags/distributed-systems/", TermURL("tags", "Distributed Systems"))
}
