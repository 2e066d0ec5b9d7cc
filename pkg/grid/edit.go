package grid

import (
	"errors"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// Edit policy rejections. These are ValidationReject conditions: the session
// state is unchanged and the caller surfaces them as a non-fatal notice.
var (
	ErrEditingDisabled  = errors.New("editing is disabled for this grid")
	ErrFieldNotEditable = errors.New("field is not editable")
)

// EditOptions is the per-grid edit policy.
type EditOptions struct {
	// Enabled globally allows or forbids editing.
	Enabled bool

	// NonEditable lists fields that reject edits even when the grid is
	// editable (e.g. the select and row-number columns).
	NonEditable map[string]bool

	// LookupField, when set, puts the grid in lookup mode: only this field
	// accepts edits, and committing a new value emits a lookup request to an
	// external resolver instead of writing sibling fields directly.
	LookupField string

	// LookupDependentFields are the fields the external resolver writes back
	// on success, and the fields filled with the ERROR sentinel on failure.
	LookupDependentFields []string
}

// LookupRequest asks the external resolver to fetch row fields for a new
// business key. The collaborator answers via RowStore.UpdateRowFields (or
// FillSentinel on failure), targeting the row by stable id.
type LookupRequest struct {
	RowID string
	Key   string
}

// CommitResult is the outcome of a committed edit: exactly one of Change or
// Lookup is set, or neither when the pending value equals the current one.
type CommitResult struct {
	Change *FieldChange
	Lookup *LookupRequest
}

// EditSession is the single-cell edit state machine. At most one cell is in
// edit at any time; starting the same cell again is an idempotent no-op (so
// focus-loss retriggering is harmless), and starting a different cell
// discards the in-flight edit first.
type EditSession struct {
	store *RowStore
	opts  EditOptions

	active  bool
	rowID   string
	field   string
	pending string
}

// NewEditSession creates an idle session over the store.
func NewEditSession(store *RowStore, opts EditOptions) *EditSession {
	return &EditSession{store: store, opts: opts}
}

// Active reports whether a cell edit is in flight.
func (e *EditSession) Active() bool { return e.active }

// Cell returns the row id and field under edit, or empty strings when idle.
func (e *EditSession) Cell() (rowID, field string) { return e.rowID, e.field }

// Pending returns the pending value text.
func (e *EditSession) Pending() string { return e.pending }

// SetPending updates the pending value text.
func (e *EditSession) SetPending(v string) { e.pending = v }

// StartEdit begins editing the given cell, seeding the pending value from
// the row's current field text. Policy rejections leave the session
// unchanged.
func (e *EditSession) StartEdit(row *model.Row, field string) error {
	if !e.opts.Enabled {
		return ErrEditingDisabled
	}
	if e.opts.NonEditable[field] {
		return ErrFieldNotEditable
	}
	if e.opts.LookupField != "" && field != e.opts.LookupField {
		return ErrFieldNotEditable
	}

	if e.active && e.rowID == row.ID && e.field == field {
		return nil // same cell: idempotent, keep pending value
	}

	e.active = true
	e.rowID = row.ID
	e.field = field
	e.pending = row.FieldOrEmpty(field).Text()
	return nil
}

// Commit applies the pending value and returns to idle. When the pending
// value equals the field's current value the commit is a no-op. In lookup
// mode a changed value on the lookup field produces a LookupRequest instead
// of a store write; the field itself is still updated so the typed key is
// visible while the lookup is in flight.
func (e *EditSession) Commit() CommitResult {
	if !e.active {
		return CommitResult{}
	}
	rowID, field, pending := e.rowID, e.field, e.pending
	e.reset()

	row := e.store.Get(rowID)
	if row == nil {
		return CommitResult{} // row deleted mid-edit: drop silently
	}

	newValue := coercePending(row.FieldOrEmpty(field), pending)

	if e.opts.LookupField != "" && field == e.opts.LookupField {
		if _, changed := e.store.UpdateField(rowID, field, newValue); !changed {
			return CommitResult{}
		}
		return CommitResult{Lookup: &LookupRequest{RowID: rowID, Key: pending}}
	}

	change, changed := e.store.UpdateField(rowID, field, newValue)
	if !changed {
		return CommitResult{}
	}
	return CommitResult{Change: &change}
}

// Cancel discards the pending value and returns to idle.
func (e *EditSession) Cancel() {
	e.reset()
}

func (e *EditSession) reset() {
	e.active = false
	e.rowID = ""
	e.field = ""
	e.pending = ""
}

// coercePending keeps the field's scalar kind stable where possible: editing
// a numeric cell with text that parses as a number stays numeric, everything
// else becomes a string.
func coercePending(current model.Value, pending string) model.Value {
	if current.Kind() == model.KindNumber {
		if f, ok := model.String(pending).Float(); ok {
			return model.Number(f)
		}
	}
	return model.String(pending)
}
