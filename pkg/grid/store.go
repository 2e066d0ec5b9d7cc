// Package grid implements the hierarchical table state machine: the canonical
// row store, the parent/child hierarchy index, the paginated view projection,
// and the single-cell edit session. The package is UI-independent; pkg/ui
// drives it from the Bubble Tea event loop.
package grid

import (
	"fmt"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// SyntheticIDPrefix is prepended to a business key (or load position) when a
// source row arrives without an id. The hierarchy indexer relies on this
// convention as one of its parent-resolution strategies.
const SyntheticIDPrefix = "row_"

// SentinelError is written into every dependent field of a row after a
// failed external lookup, so the failure is visually obvious per-row.
const SentinelError = "ERROR"

// FieldChange reports an applied field update.
type FieldChange struct {
	RowID    string
	Field    string
	OldValue model.Value
	NewValue model.Value
}

// RowStore owns the canonical ordered list of rows plus selection state.
// All views hold references into the store, never copies, so any view
// reading the same row sees consistent selection and edit results.
type RowStore struct {
	rows  []*model.Row
	byID  map[string]*model.Row
	keyed string // business key column used for synthetic ids
}

// NewRowStore creates an empty store. businessKey names the column used to
// synthesize ids for rows that arrive without one (typically "messageId").
func NewRowStore(businessKey string) *RowStore {
	return &RowStore{
		byID:  make(map[string]*model.Row),
		keyed: businessKey,
	}
}

// Load replaces the store contents with the given rows, assigning ids.
// An existing id is kept if it has not already been taken earlier in this
// batch; otherwise (or when absent) one is synthesized from the business key
// or the load position, with collisions suffixed until unique. Selection is
// reset. Id stability across reloads is only guaranteed when the source
// supplies stable ids.
func (s *RowStore) Load(rows []model.Row) {
	s.rows = make([]*model.Row, 0, len(rows))
	s.byID = make(map[string]*model.Row, len(rows))

	for i := range rows {
		r := rows[i] // copy; the store owns its rows
		r.Selected = false

		id := r.ID
		if id == "" {
			if key := r.FieldOrEmpty(s.keyed); key.Text() != "" {
				id = SyntheticIDPrefix + key.Text()
			} else {
				id = fmt.Sprintf("%s%d", SyntheticIDPrefix, i)
			}
		}
		id = s.dedupeID(id)

		r.ID = id
		row := r
		s.rows = append(s.rows, &row)
		s.byID[id] = &row
	}
}

// dedupeID returns id, or id with a numeric suffix if it is already taken.
func (s *RowStore) dedupeID(id string) string {
	if _, taken := s.byID[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, taken := s.byID[candidate]; !taken {
			return candidate
		}
	}
}

// Rows returns the canonical row slice in store order. Callers must treat
// the slice as read-only; the row pointers are shared with every view.
func (s *RowStore) Rows() []*model.Row {
	return s.rows
}

// Len returns the number of rows.
func (s *RowStore) Len() int { return len(s.rows) }

// Get returns the row with the given id, or nil if absent.
func (s *RowStore) Get(id string) *model.Row {
	return s.byID[id]
}

// ToggleSelect flips the selection flag on the given row. Unknown ids are
// silently ignored (find-or-skip, matching the grid's soft NotFound policy).
func (s *RowStore) ToggleSelect(id string) {
	if row := s.byID[id]; row != nil {
		row.Selected = !row.Selected
	}
}

// SelectAll marks the given ids selected. Unknown ids are skipped.
func (s *RowStore) SelectAll(ids []string) {
	for _, id := range ids {
		if row := s.byID[id]; row != nil {
			row.Selected = true
		}
	}
}

// ClearSelection unselects every row.
func (s *RowStore) ClearSelection() {
	for _, row := range s.rows {
		row.Selected = false
	}
}

// Selected returns the selected rows in store order.
func (s *RowStore) Selected() []*model.Row {
	var out []*model.Row
	for _, row := range s.rows {
		if row.Selected {
			out = append(out, row)
		}
	}
	return out
}

// SelectedIDs returns the ids of the selected rows in store order.
func (s *RowStore) SelectedIDs() []string {
	var out []string
	for _, row := range s.rows {
		if row.Selected {
			out = append(out, row.ID)
		}
	}
	return out
}

// UpdateField writes value into the row's field. A write where the value is
// strictly equal to the current one is a no-op: no mutation, no change
// report. Unknown ids are silently ignored.
func (s *RowStore) UpdateField(id, field string, value model.Value) (FieldChange, bool) {
	row := s.byID[id]
	if row == nil {
		return FieldChange{}, false
	}
	old := row.FieldOrEmpty(field)
	if old.Equal(value) {
		return FieldChange{}, false
	}
	row.SetField(field, value)
	return FieldChange{RowID: id, Field: field, OldValue: old, NewValue: value}, true
}

// UpdateRowFields applies a patch of resolved field values to the row, if it
// still exists. This is the write-back path for external lookups: the row is
// targeted by stable id and the patch is silently dropped when the user has
// deleted the row in the meantime.
func (s *RowStore) UpdateRowFields(id string, patch map[string]model.Value) bool {
	row := s.byID[id]
	if row == nil {
		return false
	}
	for field, value := range patch {
		row.SetField(field, value)
	}
	return true
}

// FillSentinel writes the ERROR marker into every named field of the row,
// making a failed lookup visually obvious without touching other rows.
// Returns false if the row no longer exists.
func (s *RowStore) FillSentinel(id string, fields []string) bool {
	row := s.byID[id]
	if row == nil {
		return false
	}
	for _, field := range fields {
		row.SetField(field, model.String(SentinelError))
	}
	return true
}

// DeleteRows removes the given ids from the store. Ids that are already
// absent are ignored, so the operation is idempotent. Returns the number of
// rows actually removed.
func (s *RowStore) DeleteRows(ids []string) int {
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	kept := s.rows[:0]
	for _, row := range s.rows {
		if doomed[row.ID] {
			delete(s.byID, row.ID)
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return len(doomed)
}

// InsertRow adds a row at the head (new rows surface first) or tail. The
// row's id is deduplicated against the store, or synthesized when empty.
func (s *RowStore) InsertRow(row model.Row, atHead bool) *model.Row {
	id := row.ID
	if id == "" {
		id = fmt.Sprintf("%snew_%d", SyntheticIDPrefix, len(s.rows))
	}
	id = s.dedupeID(id)
	row.ID = id

	r := row
	if atHead {
		s.rows = append([]*model.Row{&r}, s.rows...)
	} else {
		s.rows = append(s.rows, &r)
	}
	s.byID[id] = &r
	return &r
}

// ReplaceAll swaps the store contents for the given (already-owned) rows,
// preserving row pointers so surviving selections stay intact. Used by rule
// application, which replaces the snapshot with the non-excluded rows.
func (s *RowStore) ReplaceAll(rows []*model.Row) {
	s.rows = rows
	s.byID = make(map[string]*model.Row, len(rows))
	for _, row := range rows {
		s.byID[row.ID] = row
	}
}
