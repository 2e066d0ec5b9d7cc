// Package model defines the core data types for colorgrid: color rows with
// their parent/child hierarchy metadata, the scalar field value variant, and
// the rule/condition types consumed by the rule engine.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which member of the scalar variant a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// Value is the closed scalar variant for row fields: string, number, boolean,
// or null. Row fields never hold anything else; collaborators that deliver
// loosely-typed records are normalized into Values at the loader boundary.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// String wraps a string as a Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float64 as a Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a bool as a Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns which variant member this Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the Value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text renders the Value the way it appears in a cell: numbers without
// trailing zeros, booleans as true/false, null as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Float returns the numeric value and whether one could be derived. Numbers
// return directly; strings are parsed. Booleans and null do not parse.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal reports strict equality: same kind, same contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	default:
		return true // both null
	}
}

// Any returns the Value as its loosely-typed scalar, the inverse of FromAny.
// Used when handing rows back to collaborators that speak JSON.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// FromAny normalizes a loosely-typed scalar into a Value. Unsupported types
// fall back to their fmt rendering as a string so nothing is dropped.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case Value:
		return x
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// Row represents one quote record, parent or child. Rows are owned by a
// RowStore; views hold references into the store rather than copies so
// selection and edit state stay consistent everywhere.
type Row struct {
	// ID is the opaque stable identifier, unique within a store for its
	// lifetime and immutable after creation.
	ID string

	// Fields maps column name to scalar value. Read access should go through
	// Field so the aliasing policy lives in one place.
	Fields map[string]Value

	// IsParent marks a top-level group head.
	IsParent bool

	// ParentRef optionally references a parent row, either by row id or by a
	// backend business key (e.g. a message id). Empty means top-level or
	// unresolvable; resolution is the indexer's job.
	ParentRef string

	// Selected is the UI selection flag.
	Selected bool

	// ChildCount is an advisory cached count. Display logic must not trust
	// it alone: HasChildren also scans for resolvable children.
	ChildCount int
}

// canonicalField collapses a column name to its canonical lookup form:
// lower-case with underscores removed. This makes MESSAGE_ID, message_id and
// messageId all land on the same key, which is exactly the aliasing both the
// hierarchy indexer (business-key matching) and the rule engine (condition
// column lookup) need.
func canonicalField(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' {
			continue
		}
		b.WriteRune(unicodeLower(r))
	}
	return b.String()
}

func unicodeLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// Field looks up a field by column name, case-insensitively and tolerating
// snake_case vs camelCase spellings. The boolean reports whether any field
// matched; callers that want the "missing means empty string" policy of the
// rule engine should use FieldOrEmpty.
func (r *Row) Field(name string) (Value, bool) {
	if v, ok := r.Fields[name]; ok {
		return v, true
	}
	want := canonicalField(name)
	for k, v := range r.Fields {
		if canonicalField(k) == want {
			return v, true
		}
	}
	return Null(), false
}

// FieldOrEmpty is Field with the rule-engine fallback: a column that matches
// no field reads as the empty string.
func (r *Row) FieldOrEmpty(name string) Value {
	if v, ok := r.Field(name); ok {
		return v
	}
	return String("")
}

// SetField writes a field value under the given column name, creating the
// fields map if needed. If an aliased spelling of the column already exists,
// that key is reused so a row never carries two spellings of one column.
func (r *Row) SetField(name string, v Value) {
	if r.Fields == nil {
		r.Fields = make(map[string]Value)
	}
	if _, ok := r.Fields[name]; ok {
		r.Fields[name] = v
		return
	}
	want := canonicalField(name)
	for k := range r.Fields {
		if canonicalField(k) == want {
			r.Fields[k] = v
			return
		}
	}
	r.Fields[name] = v
}
