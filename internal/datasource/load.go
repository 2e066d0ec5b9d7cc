package datasource

import (
	"fmt"

	"github.com/vanderheijden86/colorgrid/pkg/loader"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// LoadRows performs smart multi-source detection and loading. It discovers
// all available sources (SQLite, JSONL), validates them, selects the freshest
// valid source, and loads rows from it. SQLite is preferred over JSONL at
// comparable freshness since it reflects saved edits.
//
// Falls back to JSONL-only loading via the loader if smart detection finds no
// valid sources.
func LoadRows(basePath string) ([]model.Row, error) {
	dataDir, err := loader.GetDataDir(basePath)
	if err != nil {
		return nil, err
	}

	rows, smartErr := loadSmart(dataDir, basePath)
	if smartErr == nil {
		return rows, nil
	}

	jsonlPath, err := loader.FindJSONLPath(dataDir)
	if err != nil {
		return nil, fmt.Errorf("no usable source: %w", smartErr)
	}
	return loader.LoadColorsFromFile(jsonlPath)
}

// LoadRowsFromDir performs smart source detection within a known data
// directory.
func LoadRowsFromDir(dataDir string) ([]model.Row, error) {
	rows, smartErr := loadSmart(dataDir, "")
	if smartErr == nil {
		return rows, nil
	}

	jsonlPath, err := loader.FindJSONLPath(dataDir)
	if err != nil {
		return nil, fmt.Errorf("no usable source: %w", smartErr)
	}
	return loader.LoadColorsFromFile(jsonlPath)
}

// loadSmart discovers sources, validates, selects the best, and loads from it.
func loadSmart(dataDir, basePath string) ([]model.Row, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		DataDir:                dataDir,
		BasePath:               basePath,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         false,
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid sources discovered")
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}

	return LoadFromSource(best)
}

// LoadFromSource loads rows from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(source DataSource) ([]model.Row, error) {
	switch source.Type {
	case SourceTypeSQLite:
		store, err := OpenSQLiteStore(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer store.Close()
		return store.LoadRows()

	case SourceTypeJSONLLocal:
		return loader.LoadColorsFromFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
