// Package datasource provides multi-source data detection and selection for
// colorgrid. It discovers, validates, and selects the freshest valid source
// from SQLite databases (colors.db) and local JSONL files, and exposes the
// backend operations the grid depends on: row loading, cusip lookup,
// server-side search, rule sets, and session saves.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/colorgrid/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (colors.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONLLocal is a local JSONL file
	SourceTypeJSONLLocal SourceType = "jsonl_local"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite     = 100
	PriorityJSONLLocal = 50
)

// ErrNotFound reports a lookup that completed but matched nothing. Callers
// distinguish it from transport failures with errors.Is.
var ErrNotFound = errors.New("not found")

// DataSource represents a potential source of color data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// RowCount is the number of rows in the source (set during validation)
	RowCount int `json:"row_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, rows=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.RowCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// DataDir is the color data directory path (optional, auto-detected if empty)
	DataDir string
	// BasePath is the project root path (optional, uses cwd if empty)
	BasePath string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds all potential data sources in the data directory
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = loader.GetDataDir(opts.BasePath)
		if err != nil {
			return nil, err
		}
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", dataDir))
	}

	var sources []DataSource

	sqliteSources, err := discoverSQLiteSources(dataDir, opts)
	if err != nil && opts.Verbose {
		opts.Logger(fmt.Sprintf("SQLite discovery warning: %v", err))
	}
	sources = append(sources, sqliteSources...)

	localSources, err := discoverLocalJSONLSources(dataDir, opts)
	if err != nil && opts.Verbose {
		opts.Logger(fmt.Sprintf("Local JSONL discovery warning: %v", err))
	}
	sources = append(sources, localSources...)

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
	}

	if opts.ValidateAfterDiscovery && !opts.IncludeInvalid {
		var validSources []DataSource
		for _, s := range sources {
			if s.Valid {
				validSources = append(validSources, s)
			}
		}
		sources = validSources
	}

	// Sort by freshness, then priority
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}

	return sources, nil
}

// discoverSQLiteSources finds SQLite databases in the data directory
func discoverSQLiteSources(dataDir string, opts DiscoveryOptions) ([]DataSource, error) {
	var sources []DataSource

	dbPath := filepath.Join(dataDir, "colors.db")
	info, err := os.Stat(dbPath)
	if err == nil {
		sources = append(sources, DataSource{
			Type:     SourceTypeSQLite,
			Path:     dbPath,
			Priority: PrioritySQLite,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found SQLite: %s (mod=%s)", dbPath, info.ModTime().Format(time.RFC3339)))
		}
	}

	return sources, nil
}

// discoverLocalJSONLSources finds JSONL files in the data directory
func discoverLocalJSONLSources(dataDir string, opts DiscoveryOptions) ([]DataSource, error) {
	var sources []DataSource

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		// Skip backups and merge artifacts
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") {
			continue
		}

		path := filepath.Join(dataDir, name)
		info, err := e.Info()
		if err != nil {
			continue
		}

		sources = append(sources, DataSource{
			Type:     SourceTypeJSONLLocal,
			Path:     path,
			Priority: PriorityJSONLLocal,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})

		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found local JSONL: %s (mod=%s)", path, info.ModTime().Format(time.RFC3339)))
		}
	}

	return sources, nil
}

// ValidateSource checks that a source is readable and counts its rows.
// The result is recorded on the source; the returned error mirrors
// ValidationError for callers that want it directly.
func ValidateSource(s *DataSource) error {
	switch s.Type {
	case SourceTypeSQLite:
		store, err := OpenSQLiteStore(*s)
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		defer store.Close()

		count, err := store.CountRows()
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		s.Valid = true
		s.ValidationError = ""
		s.RowCount = count
		return nil

	case SourceTypeJSONLLocal:
		rows, err := loader.LoadColorsFromFileWithOptions(s.Path, loader.ParseOptions{
			WarningHandler: func(string) {},
		})
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return err
		}
		s.Valid = true
		s.ValidationError = ""
		s.RowCount = len(rows)
		return nil

	default:
		err := fmt.Errorf("unknown source type: %s", s.Type)
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
}

// freshnessWindow is how much older a SQLite source may be than the freshest
// JSONL while still being preferred. SQLite reflects saved edits, so near-tie
// freshness goes to it.
const freshnessWindow = 2 * time.Second

// SelectBestSource picks the source to load from. Sources must already be
// sorted freshest-first (DiscoverSources does this).
func SelectBestSource(sources []DataSource) (DataSource, error) {
	if len(sources) == 0 {
		return DataSource{}, fmt.Errorf("no sources to select from")
	}

	best := sources[0]
	if best.Type == SourceTypeSQLite {
		return best, nil
	}

	for _, s := range sources[1:] {
		if s.Type != SourceTypeSQLite {
			continue
		}
		if best.ModTime.Sub(s.ModTime) <= freshnessWindow {
			return s, nil
		}
		break
	}

	return best, nil
}
