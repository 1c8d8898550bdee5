package site

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// feedEntryLimit caps the Atom feed at the newest posts.
const feedEntryLimit = 20

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Links    []atomLink  `xml:"link"`
	Author   *atomAuthor `xml:"author,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Summary string      `xml:"summary,omitempty"`
	Content *atomInline `xml:"content,omitempty"`
}

type atomInline struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

// buildFeed produces the Atom feed. The feed's updated stamp derives from
// content dates rather than the wall clock so rebuilding unchanged content
// yields byte-identical output.
func (g *Generator) buildFeed(set *content.Set) ([]byte, error) {
	posts := set.Posts
	if len(posts) > feedEntryLimit {
		posts = posts[:feedEntryLimit]
	}

	updated := time.Time{}
	for _, p := range posts {
		if p.Meta.Date.After(updated) {
			updated = p.Meta.Date
		}
		if p.Meta.Updated.After(updated) {
			updated = p.Meta.Updated
		}
	}

	feed := atomFeed{
		Xmlns:    "http://www.w3.org/2005/Atom",
		Title:    g.cfg.Title,
		Subtitle: g.cfg.Description,
		ID:       g.absURL("/"),
		Updated:  updated.UTC().Format(time.RFC3339),
		Links: []atomLink{
			{Href: g.absURL("/atom.xml"), Rel: "self", Type: "application/atom+xml"},
			{Href: g.absURL("/")},
		},
	}
	if g.cfg.Author.Name != "" {
		feed.Author = &atomAuthor{Name: g.cfg.Author.Name, Email: g.cfg.Author.Email}
	}

	for _, p := range posts {
		entry := atomEntry{
			Title:   p.Meta.Title,
			ID:      g.absURL(p.Permalink()),
			Updated: entryUpdated(p).UTC().Format(time.RFC3339),
			Links:   []atomLink{{Href: g.absURL(p.Permalink())}},
			Summary: p.Meta.Description,
		}
		if body, ok := g.rendered[p.SourcePath]; ok {
			entry.Content = &atomInline{Type: "html", Body: string(body)}
		}
		feed.Entries = append(feed.Entries, entry)
	}

	data, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal atom feed: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func entryUpdated(p *content.Post) time.Time {
	if p.Meta.Updated.After(p.Meta.Date) {
		return p.Meta.Updated
	}
	return p.Meta.Date
}

func (g *Generator) absURL(path string) string {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
