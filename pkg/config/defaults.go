package config

import (
	"path/filepath"

	"github.com/jlrickert/pubkit/pkg/internal"
)

// ApplyDefaults fills zero values with defaults. Explicit values are never
// overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Application.TimeZone == "" {
		cfg.Application.TimeZone = "UTC"
	}
	if cfg.Publication.Preset == "" {
		cfg.Publication.Preset = "jekyll"
	}
	if cfg.Publication.SlugSeparator == "" {
		cfg.Publication.SlugSeparator = "-"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "sqlite"
	}
	if cfg.Index.Type == "sqlite" {
		cfg.Index.SQLite = withDefault(cfg.Index.SQLite, "path", filepath.Join(DataDir(), "index.db"))
	}
	if cfg.Index.Type == "badger" {
		cfg.Index.Badger = withDefault(cfg.Index.Badger, "dir", filepath.Join(DataDir(), "badger"))
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "filesystem"
	}
	if cfg.Store.Type == "filesystem" {
		cfg.Store.Filesystem = withDefault(cfg.Store.Filesystem, "root", ".")
	}
}

// DataDir is where local index files live by default.
func DataDir() string {
	dir, err := internal.DataDir("pubkit")
	if err != nil {
		return filepath.Join(ConfigDir(), "data")
	}
	return dir
}

func withDefault(section map[string]any, key string, value any) map[string]any {
	if section == nil {
		section = map[string]any{}
	}
	if v, ok := section[key]; !ok || v == "" || v == nil {
		section[key] = value
	}
	return section
}
