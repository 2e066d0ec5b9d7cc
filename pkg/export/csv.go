// Package export serializes grid rows to CSV. The format is a literal
// contract with downstream consumers: header row joined by commas, each
// field rendered as-is except that a string containing a comma is wrapped in
// double quotes. Embedded quotes are deliberately not escaped; this mirrors
// the established export format and is not RFC 4180.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// DefaultFilePrefix is the filename prefix for exported CSV files.
const DefaultFilePrefix = "export"

// CSV renders rows to the export CSV format. headers are the column headers
// in display order; fields are the matching row field names.
func CSV(headers, fields []string, rows []*model.Row) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	b.WriteString("\n")

	for _, row := range rows {
		for i, field := range fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(renderField(row.FieldOrEmpty(field)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderField renders one cell. Only string values containing a comma are
// quoted; numbers and booleans pass through bare.
func renderField(v model.Value) string {
	text := v.Text()
	if v.Kind() == model.KindString && strings.Contains(text, ",") {
		return `"` + text + `"`
	}
	return text
}

// FileName returns the dated export filename, e.g. export_2026-09-01.csv.
func FileName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

// WriteFile writes the CSV for the given rows into dir using the dated
// filename convention and returns the full path.
func WriteFile(dir, prefix string, headers, fields []string, rows []*model.Row) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to export")
	}
	path := filepath.Join(dir, FileName(prefix, time.Now()))
	if err := os.WriteFile(path, []byte(CSV(headers, fields, rows)), 0o644); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}
	return path, nil
}

// CopyToClipboard places the CSV for the given rows on the system clipboard.
func CopyToClipboard(headers, fields []string, rows []*model.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to copy")
	}
	if err := clipboard.WriteAll(CSV(headers, fields, rows)); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
