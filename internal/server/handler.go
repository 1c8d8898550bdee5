package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// siteHandler serves the generated site with clean URLs: /posts/foo/ maps to
// posts/foo/index.html on disk, and misses render the generated 404 page.
type siteHandler struct {
	outputDir func() string
	recorder  metrics.Recorder
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	h.serve(sw, r)
	h.recorder.IncHTTPRequest(sw.status)
}

func (h *siteHandler) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	root := h.outputDir()
	target, ok := resolvePath(root, r.URL.Path)
	if !ok {
		h.notFound(w, r, root)
		return
	}

	if isImmutableAsset(target) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeFile(w, r, target)
}

func (h *siteHandler) notFound(w http.ResponseWriter, r *http.Request, root string) {
	page := filepath.Join(root, "404.html")
	if data, err := os.ReadFile(page); err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			_, _ = w.Write(data)
		}
		return
	}
	http.NotFound(w, r)
}

// resolvePath maps a request path to a file under root, rejecting traversal
// and directories without an index.html.
func resolvePath(root, reqPath string) (string, bool) {
	clean := filepath.Clean("/" + reqPath)
	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	info, err := os.Stat(target)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		index := filepath.Join(target, "index.html")
		if _, err := os.Stat(index); err != nil {
			return "", false
		}
		return index, true
	}
	return target, true
}

func isImmutableAsset(path string) bool {
	switch filepath.Ext(path) {
	case ".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".woff", ".woff2", ".ico":
		return true
	}
	return false
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
