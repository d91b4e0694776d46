// Package config loads the site's norgolith.toml. Configuration is
// immutable after load for a given server session; a reload produces a
// brand new *Config rather than mutating one in place, so a half-read
// config is never observable by a concurrent reader.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/norgolith/norgolith/internal/errs"
)

// FileName is the config file's fixed name at the project root.
const FileName = "norgolith.toml"

// Highlighter holds the syntax-highlighting section of the config.
type Highlighter struct {
	Enable bool   `toml:"enable"`
	Engine string `toml:"engine"`
}

// RSS holds the rss.* section of the config.
type RSS struct {
	Description string `toml:"description"`
	TTL         int    `toml:"ttl"`
	Image       string `toml:"image"`
}

// Config is the decoded, validated norgolith.toml.
type Config struct {
	RootURL     string         `toml:"rootUrl"`
	Language    string         `toml:"language"`
	Title       string         `toml:"title"`
	Author      string         `toml:"author"`
	Highlighter Highlighter    `toml:"highlighter"`
	RSS         RSS            `toml:"rss"`
	Extra       map[string]any `toml:"extra"`

	// Path is the absolute path to the file this config was loaded from.
	Path string `toml:"-"`
}

// Load decodes root/norgolith.toml. A missing or malformed file is a
// ConfigError; at startup that is fatal, on reload the caller retains the
// previous config (see reloadConfig in internal/pipeline).
func Load(root string) (*Config, error) {
	path := filepath.Join(root, FileName)

	if _, err := os.Stat(path); err != nil {
		return nil, &errs.ConfigError{Path: path, Err: err}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, &errs.ConfigError{Path: path, Err: err}
	}

	cfg.Path = path
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.RSS.TTL == 0 {
		cfg.RSS.TTL = 60
	}

	return &cfg, nil
}

// Get looks up an extra.<key> value, returning ok=false when absent.
func (c *Config) Get(key string) (any, bool) {
	if c == nil || c.Extra == nil {
		return nil, false
	}
	v, ok := c.Extra[key]
	return v, ok
}
