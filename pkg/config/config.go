// Package config handles loading and saving colorgrid configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/colorgrid/config.yaml
//   - State:   ~/.local/state/colorgrid/ (view state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TableConfig holds grid display settings.
type TableConfig struct {
	PageSize  int  `yaml:"page_size,omitempty"`  // parent groups per page
	Paginate  bool `yaml:"paginate"`             // false renders everything on one page
	ShowStats bool `yaml:"show_stats,omitempty"` // load statistics footer
}

// EditConfig controls cell editing.
type EditConfig struct {
	Enabled     bool     `yaml:"enabled"`
	NonEditable []string `yaml:"non_editable,omitempty"` // column names rejected for editing
	LookupField string   `yaml:"lookup_field,omitempty"` // field whose commit triggers a lookup
}

// ExportConfig controls CSV export.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`    // output directory, cwd if empty
	Prefix string `yaml:"prefix,omitempty"` // file name prefix, "export" if empty
}

// ColumnConfig maps one display column to its backend field.
type ColumnConfig struct {
	Display string `yaml:"display"`
	Backend string `yaml:"backend"`
}

// Config is the top-level configuration for cg.
type Config struct {
	DataDir string         `yaml:"data_dir,omitempty"` // overrides discovery
	Table   TableConfig    `yaml:"table,omitempty"`
	Edit    EditConfig     `yaml:"edit,omitempty"`
	Export  ExportConfig   `yaml:"export,omitempty"`
	Columns []ColumnConfig `yaml:"columns,omitempty"` // overrides the built-in column map
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Table: TableConfig{
			PageSize:  10,
			Paginate:  true,
			ShowStats: true,
		},
		Edit: EditConfig{
			Enabled:     true,
			NonEditable: []string{"messageId"},
			LookupField: "cusip",
		},
		Export: ExportConfig{
			Prefix: "export",
		},
	}
}

// ConfigDir returns the XDG config directory for cg.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "colorgrid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "colorgrid")
}

// StateDir returns the XDG state directory for cg.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "colorgrid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "colorgrid")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Table.PageSize <= 0 {
		cfg.Table.PageSize = 10
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ColumnMap flattens the configured column overrides into a display->backend
// map, nil when no overrides are configured.
func (c Config) ColumnMap() map[string]string {
	if len(c.Columns) == 0 {
		return nil
	}
	m := make(map[string]string, len(c.Columns))
	for _, col := range c.Columns {
		if col.Display != "" && col.Backend != "" {
			m[col.Display] = col.Backend
		}
	}
	return m
}

// NonEditableSet returns the non-editable columns as a lookup set.
func (c Config) NonEditableSet() map[string]bool {
	set := make(map[string]bool, len(c.Edit.NonEditable))
	for _, name := range c.Edit.NonEditable {
		set[name] = true
	}
	return set
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
