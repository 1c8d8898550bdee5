package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is a reference extracted from a rendered HTML page.
type Link struct {
	URL        string // href/src value as written
	Text       string // link text or alt text
	Tag        string // element the link came from (a, img, link, script)
	Attribute  string // attribute carrying the link
	IsInternal bool   // true when the link targets this site
}

// ExtractLinks parses an HTML document and returns every outgoing link.
func ExtractLinks(r io.Reader, baseURL string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	var links []*Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			collectElementLinks(n, &links, base)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func collectElementLinks(n *html.Node, links *[]*Link, base *url.URL) {
	add := func(u, text, attr string) {
		if u == "" {
			return
		}
		*links = append(*links, &Link{
			URL:        u,
			Text:       text,
			Tag:        n.Data,
			Attribute:  attr,
			IsInternal: isInternalLink(u, base),
		})
	}

	switch n.Data {
	case "a":
		add(getAttr(n, "href"), nodeText(n), "href")
	case "img":
		add(getAttr(n, "src"), getAttr(n, "alt"), "src")
	case "link":
		add(getAttr(n, "href"), getAttr(n, "rel"), "href")
	case "script", "video", "audio", "source":
		add(getAttr(n, "src"), "", "src")
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return strings.TrimSpace(b.String())
}

func isInternalLink(link string, base *url.URL) bool {
	if strings.HasPrefix(link, "#") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// shouldCheck filters out references that are not verifiable targets.
func shouldCheck(link *Link) bool {
	if link.URL == "" || strings.HasPrefix(link.URL, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link.URL, scheme) {
			return false
		}
	}
	return true
}
