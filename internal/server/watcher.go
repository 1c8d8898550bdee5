package server

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Watcher monitors the content tree, static files, theme overrides and the
// site configuration, feeding change events into the debouncer.
type Watcher struct {
	cfg        *config.Config
	configPath string
	debouncer  *Debouncer
	watcher    *fsnotify.Watcher
	stop       chan struct{}
}

// NewWatcher creates a filesystem watcher over everything that should
// trigger a rebuild when it changes.
func NewWatcher(cfg *config.Config, configPath string, debouncer *Debouncer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		cfg:        cfg,
		configPath: configPath,
		debouncer:  debouncer,
		watcher:    fsw,
		stop:       make(chan struct{}),
	}, nil
}

// Start registers watch roots and begins the event loop.
func (w *Watcher) Start() error {
	roots := []string{w.cfg.ContentDir, w.cfg.StaticDir, w.cfg.ThemesDir}
	if w.configPath != "" {
		// Watching the directory survives editors that replace the file.
		roots = append(roots, filepath.Dir(w.configPath))
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	slog.Info("Watching for changes",
		"content", w.cfg.ContentDir,
		"static", w.cfg.StaticDir,
		"themes", w.cfg.ThemesDir)
	go w.loop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	close(w.stop)
	return w.watcher.Close()
}

// addTree registers a directory and all its subdirectories. Missing roots
// are skipped; they may be created later and picked up via parent events.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if isHidden(name) || strings.HasSuffix(name, "~") {
		return
	}

	// New directories need to be watched too.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
			}
		}
	}

	reason := w.classify(event.Name)
	if reason == "" {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	slog.Debug("Change detected", "path", event.Name, "op", event.Op.String(), "reason", reason)
	w.debouncer.Request(RebuildRequest{Reason: reason, Path: event.Name})
}

// classify maps a changed path to a rebuild reason, or "" to ignore it.
func (w *Watcher) classify(path string) string {
	if w.configPath != "" && filepath.Clean(path) == filepath.Clean(w.configPath) {
		return "config_change"
	}
	for reason, root := range map[string]string{
		"content_change": w.cfg.ContentDir,
		"static_change":  w.cfg.StaticDir,
		"theme_change":   w.cfg.ThemesDir,
	} {
		if root != "" && isUnder(path, root) {
			return reason
		}
	}
	return ""
}

func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
