package site

import (
	"encoding/xml"
	"fmt"
	"sort"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// buildSitemap lists every written HTML page, sorted for determinism. The
// 404 page is excluded since it is not a canonical location.
func (g *Generator) buildSitemap() ([]byte, error) {
	links := make([]string, 0, len(g.permalinks))
	for _, l := range g.permalinks {
		if l == "/404.html" {
			continue
		}
		links = append(links, l)
	}
	sort.Strings(links)

	set := sitemapURLSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, l := range links {
		set.URLs = append(set.URLs, sitemapURL{Loc: g.absURL(l)})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
