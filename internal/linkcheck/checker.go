package linkcheck

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Options controls checker behavior.
type Options struct {
	External      bool          // also probe external URLs over HTTP
	Timeout       time.Duration // per-request timeout for external checks
	MaxConcurrent int           // cap on parallel external requests
}

// BrokenLink describes one unresolvable reference.
type BrokenLink struct {
	Page   string // site-relative path of the page holding the link
	URL    string // the link as written
	Status int    // HTTP status for external links, 0 otherwise
	Reason string
}

// Report summarizes a check run.
type Report struct {
	Pages   int
	Checked int
	Broken  []BrokenLink
}

// OK reports whether every checked link resolved.
func (r *Report) OK() bool { return len(r.Broken) == 0 }

// Checker validates links in a generated site. Internal links resolve
// against the output tree on disk; external links are optionally probed
// over HTTP with bounded concurrency.
type Checker struct {
	cfg       *config.Config
	outputDir string
	opts      Options
	client    *http.Client
}

// New creates a Checker for the site published at outputDir.
func New(cfg *config.Config, outputDir string, opts Options) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	return &Checker{
		cfg:       cfg,
		outputDir: outputDir,
		opts:      opts,
		client:    &http.Client{Timeout: opts.Timeout},
	}
}

// Run walks every HTML page in the output tree and verifies its links.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	external := map[string][]string{} // url -> pages referencing it

	err := filepath.WalkDir(c.outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("link check canceled: %w", ctx.Err())
		default:
		}

		rel, err := filepath.Rel(c.outputDir, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)
		report.Pages++

		links, err := c.extractFromFile(p)
		if err != nil {
			return fmt.Errorf("extract links from %s: %w", page, err)
		}

		for _, link := range links {
			if !shouldCheck(link) {
				continue
			}
			report.Checked++
			if link.IsInternal {
				if reason := c.resolveInternal(page, link.URL); reason != "" {
					report.Broken = append(report.Broken, BrokenLink{Page: page, URL: link.URL, Reason: reason})
				}
			} else if c.opts.External {
				external[link.URL] = append(external[link.URL], page)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(external) > 0 {
		c.checkExternal(ctx, external, report)
	}

	sort.Slice(report.Broken, func(i, j int) bool {
		if report.Broken[i].Page != report.Broken[j].Page {
			return report.Broken[i].Page < report.Broken[j].Page
		}
		return report.Broken[i].URL < report.Broken[j].URL
	})
	return report, nil
}

func (c *Checker) extractFromFile(path string) ([]*Link, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return ExtractLinks(f, c.cfg.BaseURL)
}

// resolveInternal checks that a site-internal link has a target in the
// output tree. Returns an empty string when the link resolves.
func (c *Checker) resolveInternal(page, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Sprintf("unparseable link: %v", err)
	}
	path := u.Path
	if path == "" {
		// Pure fragment or query link onto the same page.
		return ""
	}

	if !strings.HasPrefix(path, "/") {
		base := &url.URL{Path: "/" + strings.TrimSuffix(page, "index.html")}
		path = base.ResolveReference(&url.URL{Path: path}).Path
	}

	target := filepath.Join(c.outputDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if strings.HasSuffix(path, "/") {
		target = filepath.Join(target, "index.html")
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "target not found in site output"
		}
		return err.Error()
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(target, "index.html")); err != nil {
			return "directory target has no index.html"
		}
	}
	return ""
}

// checkExternal probes distinct external URLs in parallel, bounded by
// MaxConcurrent. Each URL is requested once regardless of how many pages
// reference it.
func (c *Checker) checkExternal(ctx context.Context, external map[string][]string, report *Report) {
	urls := make([]string, 0, len(external))
	for u := range external {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	sem := make(chan struct{}, c.opts.MaxConcurrent)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, u := range urls {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-sem }()

			status, err := c.probe(ctx, u)
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			pages := external[u]
			sort.Strings(pages)
			for _, page := range pages {
				report.Broken = append(report.Broken, BrokenLink{
					Page:   page,
					URL:    u,
					Status: status,
					Reason: err.Error(),
				})
			}
		}(u)
	}
	wg.Wait()
}

func (c *Checker) probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "blogbuilder-linkcheck/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Auth-gated URLs exist even though we cannot fetch them.
	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		slog.Debug("External link failed", "url", rawURL, "status", resp.StatusCode)
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func isAuthStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}
