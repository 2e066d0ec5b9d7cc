package datasource

import (
	"fmt"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// SourceDiff represents differences between two data sources
type SourceDiff struct {
	// SourceA is the path of the first source
	SourceA string
	// SourceB is the path of the second source
	SourceB string
	// MissingInA contains business keys present in B but not in A
	MissingInA []string
	// MissingInB contains business keys present in A but not in B
	MissingInB []string
	// FieldMismatch contains rows whose compared fields differ between sources
	FieldMismatch []FieldDifference
	// CountA is the number of rows in source A
	CountA int
	// CountB is the number of rows in source B
	CountB int
}

// FieldDifference represents a field mismatch for a single row
type FieldDifference struct {
	MessageID string `json:"message_id"`
	Field     string `json:"field"`
	ValueA    string `json:"value_a"`
	ValueB    string `json:"value_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.FieldMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d rows each)", d.CountA)
	}

	summary := fmt.Sprintf("Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)

	if d.CountA != d.CountB {
		summary += fmt.Sprintf("  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}

	if len(d.MissingInA) > 0 {
		summary += fmt.Sprintf("  - %d rows in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
		if len(d.MissingInA) <= 5 {
			for _, id := range d.MissingInA {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.MissingInB) > 0 {
		summary += fmt.Sprintf("  - %d rows in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
		if len(d.MissingInB) <= 5 {
			for _, id := range d.MissingInB {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.FieldMismatch) > 0 {
		summary += fmt.Sprintf("  - %d rows with different field values\n", len(d.FieldMismatch))
		if len(d.FieldMismatch) <= 5 {
			for _, m := range d.FieldMismatch {
				summary += fmt.Sprintf("    - %s.%s: %s vs %s\n", m.MessageID, m.Field, m.ValueA, m.ValueB)
			}
		}
	}

	return summary
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// BusinessKey is the column used to line rows up across sources
	BusinessKey string
	// CompareFields specifies which fields to compare for mismatches
	CompareFields []string
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		BusinessKey:    "messageId",
		CompareFields:  []string{"bid", "mid", "ask"},
		MaxDifferences: 100,
	}
}

// DetectInconsistencies compares two sets of rows and returns differences.
// Rows without a business key value are ignored; they cannot be lined up.
func DetectInconsistencies(rowsA, rowsB []model.Row, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{
		SourceA: sourceA,
		SourceB: sourceB,
	}
	if opts.BusinessKey == "" {
		opts.BusinessKey = "messageId"
	}

	mapA := keyRows(rowsA, opts.BusinessKey)
	mapB := keyRows(rowsB, opts.BusinessKey)

	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	for id := range mapA {
		if _, exists := mapB[id]; !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInB) < opts.MaxDifferences {
				diff.MissingInB = append(diff.MissingInB, id)
			}
		}
	}

	for id, rowB := range mapB {
		rowA, exists := mapA[id]
		if !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInA) < opts.MaxDifferences {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}

		for _, field := range opts.CompareFields {
			va := rowA.FieldOrEmpty(field)
			vb := rowB.FieldOrEmpty(field)
			if va.Equal(vb) {
				continue
			}
			if opts.MaxDifferences == 0 || len(diff.FieldMismatch) < opts.MaxDifferences {
				diff.FieldMismatch = append(diff.FieldMismatch, FieldDifference{
					MessageID: id,
					Field:     field,
					ValueA:    va.Text(),
					ValueB:    vb.Text(),
				})
			}
		}
	}

	return diff
}

func keyRows(rows []model.Row, businessKey string) map[string]*model.Row {
	m := make(map[string]*model.Row, len(rows))
	for i := range rows {
		if key := rows[i].FieldOrEmpty(businessKey).Text(); key != "" {
			m[key] = &rows[i]
		}
	}
	return m
}

// CompareSources loads and compares two data sources
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	rowsA, err := LoadFromSource(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}

	rowsB, err := LoadFromSource(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}

	diff := DetectInconsistencies(rowsA, rowsB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares all valid sources pairwise and reports
// any inconsistencies.
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) ([]SourceDiff, error) {
	var diffs []SourceDiff

	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}

			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				continue
			}

			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}

	return diffs, nil
}
