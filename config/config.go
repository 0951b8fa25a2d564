// Package config loads Bitpad's settings. Values missing from the file keep
// their defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SnapshotPath     string        `yaml:"snapshot_path"`
	BookmarksPath    string        `yaml:"bookmarks_path"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	AutosaveAlways   bool          `yaml:"autosave_always"`
	Listen           string        `yaml:"listen"`
	MCP              bool          `yaml:"mcp"`
	LogVerbosity     int           `yaml:"log_verbosity"`
	LogFile          string        `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SnapshotPath:     "~/.bitpad_autosave.json",
		BookmarksPath:    "~/.bitpad_bookmarks.json",
		AutosaveInterval: 5 * time.Second,
		Listen:           "127.0.0.1:7420",
		MCP:              true,
		LogVerbosity:     1,
	}
}

// LoadFromYAML reads YAML from r on top of the defaults.
func LoadFromYAML(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the configuration at path. A missing file yields the
// defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(expandHome(path))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := LoadFromYAML(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.SnapshotPath == "" {
		return errors.New("snapshot_path must not be empty")
	}
	if c.BookmarksPath == "" {
		return errors.New("bookmarks_path must not be empty")
	}
	if expandHome(c.SnapshotPath) == expandHome(c.BookmarksPath) {
		return errors.New("snapshot_path and bookmarks_path must differ")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive, got %s", c.AutosaveInterval)
	}
	return nil
}

// Resolved returns a copy with "~" expanded in every path.
func (c Config) Resolved() Config {
	c.SnapshotPath = expandHome(c.SnapshotPath)
	c.BookmarksPath = expandHome(c.BookmarksPath)
	c.LogFile = expandHome(c.LogFile)
	return c
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
