// Package loader reads color records from JSONL files and normalizes the
// loosely-typed source records into model rows. Parsing is tolerant:
// malformed lines are reported through a warning handler and skipped, never
// fatal.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/colorgrid/pkg/metrics"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// DataDirEnvVar is the name of the environment variable for a custom color
// data directory.
const DataDirEnvVar = "CG_DATA_DIR"

// PreferredJSONLNames defines the priority order for looking up color data
// files inside a data directory.
var PreferredJSONLNames = []string{"colors.jsonl", "quotes.jsonl", "colors.base.jsonl"}

// DefaultMaxBufferSize is the maximum line size for the JSONL scanner (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// RowSource is one loosely-typed record from an external collaborator. It
// carries a business id, optionally hierarchy metadata (parent reference,
// parent flag, child count), and any number of domain fields.
type RowSource map[string]any

// Bookkeeping key spellings recognized during normalization, in canonical
// form (lower-case, underscores stripped, matching model field aliasing).
var (
	idKeys         = []string{"rowid", "id"}
	isParentKeys   = []string{"isparent"}
	parentRefKeys  = []string{"parentmessageid", "parentbusinessid", "parentid", "parentrow", "parentref"}
	childCountKeys = []string{"childrencount", "childcount"}
)

// ParseOptions configures ParseColors.
type ParseOptions struct {
	// WarningHandler receives messages about skipped lines. If nil,
	// warnings go to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size in bytes. 0 means
	// DefaultMaxBufferSize.
	BufferSize int
}

// GetDataDir returns the color data directory, respecting CG_DATA_DIR.
// Otherwise it falls back to .colorgrid in the given base path (or cwd if
// empty).
func GetDataDir(basePath string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	return filepath.Join(basePath, ".colorgrid"), nil
}

// FindJSONLPath locates the color JSONL file in the given directory,
// preferring the canonical names and skipping backups and merge artifacts.
func FindJSONLPath(dataDir string) (string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") {
			continue
		}
		candidates = append(candidates, name)
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("no color JSONL file found in %s", dataDir)
	}

	for _, preferred := range PreferredJSONLNames {
		for _, name := range candidates {
			if name == preferred {
				path := filepath.Join(dataDir, name)
				if info, err := os.Stat(path); err == nil && info.Size() > 0 {
					return path, nil
				}
			}
		}
	}

	// Fall back to the first non-empty candidate.
	for _, name := range candidates {
		path := filepath.Join(dataDir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}

	return "", fmt.Errorf("no non-empty color JSONL file found in %s", dataDir)
}

// Normalize converts a source record into a Row. Hierarchy bookkeeping keys
// are lifted onto the row struct; everything else becomes a field. The id is
// left for the row store to assign unless the source carries one.
func Normalize(src RowSource) model.Row {
	row := model.Row{Fields: make(map[string]model.Value, len(src))}

	for key, raw := range src {
		canon := canonicalKey(key)

		switch {
		case matches(canon, idKeys):
			row.ID = model.FromAny(raw).Text()
		case matches(canon, isParentKeys):
			row.IsParent = truthy(raw)
		case matches(canon, parentRefKeys):
			if ref := model.FromAny(raw).Text(); ref != "" {
				row.ParentRef = ref
			}
		case matches(canon, childCountKeys):
			if f, ok := model.FromAny(raw).Float(); ok {
				row.ChildCount = int(f)
			}
		default:
			row.Fields[key] = model.FromAny(raw)
		}
	}

	return row
}

// ParseColors reads JSONL records from r and normalizes them into rows.
// A UTF-8 BOM on the first line is stripped. Lines that fail to decode are
// skipped with a warning; the parse only fails on read errors.
func ParseColors(r io.Reader, opts ParseOptions) ([]model.Row, error) {
	defer metrics.Timer(metrics.JSONLParse)()

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
	}

	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultMaxBufferSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), bufSize)

	var rows []model.Row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if lineNo == 1 {
			line = bytes.TrimPrefix(line, []byte{0xEF, 0xBB, 0xBF})
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var src RowSource
		if err := json.Unmarshal(line, &src); err != nil {
			warn(fmt.Sprintf("skipping malformed record on line %d: %v", lineNo, err))
			continue
		}
		rows = append(rows, Normalize(src))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading colors: %w", err)
	}

	return rows, nil
}

// LoadColorsFromFile reads one JSONL color file.
func LoadColorsFromFile(path string) ([]model.Row, error) {
	return LoadColorsFromFileWithOptions(path, ParseOptions{})
}

// LoadColorsFromFileWithOptions reads one JSONL color file with options.
func LoadColorsFromFileWithOptions(path string, opts ParseOptions) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening colors file: %w", err)
	}
	defer f.Close()

	return ParseColors(f, opts)
}

// LoadColorFiles reads several JSONL files concurrently and concatenates
// their rows in argument order. Any failing file fails the whole load; the
// caller keeps its last-good snapshot in that case.
func LoadColorFiles(paths []string, opts ParseOptions) ([]model.Row, error) {
	results := make([][]model.Row, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			rows, err := LoadColorsFromFileWithOptions(path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Row
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}

func canonicalKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "")
}

func matches(canon string, candidates []string) bool {
	for _, c := range candidates {
		if canon == c {
			return true
		}
	}
	return false
}

// truthy interprets the assorted encodings of booleans seen in source
// records: true, 1, "1", "true", "Y".
func truthy(raw any) bool {
	switch x := raw.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s == "true" || s == "1" || s == "y" || s == "yes"
	default:
		return false
	}
}
