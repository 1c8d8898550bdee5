package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the site-wide configuration, read once at build start and
// immutable during the build.
type Config struct {
	BaseURL         string   `toml:"base_url"`
	Title           string   `toml:"title"`
	Description     string   `toml:"description,omitempty"`
	DefaultLanguage string   `toml:"default_language,omitempty"`
	Theme           string   `toml:"theme,omitempty"`
	Taxonomies      []string `toml:"taxonomies,omitempty"`
	BuildDrafts     bool     `toml:"build_drafts,omitempty"`
	BuildFuture     bool     `toml:"build_future,omitempty"`

	ContentDir string `toml:"content_dir,omitempty"`
	StaticDir  string `toml:"static_dir,omitempty"`
	ThemesDir  string `toml:"themes_dir,omitempty"`

	Author Author         `toml:"author,omitempty"`
	Menu   []MenuItem     `toml:"menu,omitempty"`
	Social []SocialLink   `toml:"social,omitempty"`
	Extra  map[string]any `toml:"extra,omitempty"`

	Output OutputConfig `toml:"output,omitempty"`
	Serve  ServeConfig  `toml:"serve,omitempty"`
}

// Author identifies the site author for feed metadata.
type Author struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// MenuItem is a navigation entry rendered by the theme.
type MenuItem struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	Weight int    `toml:"weight,omitempty"`
}

// SocialLink is an external profile link rendered by the theme.
type SocialLink struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// OutputConfig controls where the generated site lands.
type OutputConfig struct {
	Directory string `toml:"directory,omitempty"`
	Clean     bool   `toml:"clean,omitempty"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Port            int    `toml:"port,omitempty"`
	MetricsPort     int    `toml:"metrics_port,omitempty"`
	RebuildInterval string `toml:"rebuild_interval,omitempty"`
	LiveReload      bool   `toml:"live_reload,omitempty"`
}

// Load reads the TOML configuration from configPath.
//
// A `.env` file next to the working directory is loaded first (if present)
// and `${VAR}` references in the config are expanded from the environment
// before decoding.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "A Blog"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:1313"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if len(c.Taxonomies) == 0 {
		c.Taxonomies = []string{"tags"}
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.ThemesDir == "" {
		c.ThemesDir = "themes"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "public"
		c.Output.Clean = true
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1313
	}
	if c.Serve.MetricsPort == 0 {
		c.Serve.MetricsPort = c.Serve.Port + 2
	}
}

// Validate checks configuration invariants and names the offending key.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://, got %q", c.BaseURL)
	}
	seen := map[string]bool{}
	for _, name := range c.Taxonomies {
		if name == "" {
			return fmt.Errorf("taxonomies must not contain empty names")
		}
		if seen[name] {
			return fmt.Errorf("taxonomies contains duplicate name %q", name)
		}
		seen[name] = true
	}
	for i, m := range c.Menu {
		if m.Name == "" || m.URL == "" {
			return fmt.Errorf("menu entry %d must set name and url", i)
		}
	}
	for i, s := range c.Social {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("social entry %d must set name and url", i)
		}
	}
	if c.Serve.RebuildInterval != "" {
		if _, err := time.ParseDuration(c.Serve.RebuildInterval); err != nil {
			return fmt.Errorf("serve.rebuild_interval: %w", err)
		}
	}
	return nil
}

// RebuildInterval returns the parsed serve.rebuild_interval, or zero when
// scheduled rebuilds are disabled.
func (c *Config) RebuildInterval() time.Duration {
	if c.Serve.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Serve.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

// HasTaxonomy reports whether name is a declared taxonomy.
func (c *Config) HasTaxonomy(name string) bool {
	for _, t := range c.Taxonomies {
		if t == name {
			return true
		}
	}
	return false
}
