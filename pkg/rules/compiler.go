package rules

import (
	"strings"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// UICondition is a filter condition as entered in the filter dialog: a
// display column name and a human operator label.
type UICondition struct {
	Column   string // display name, e.g. "Message ID"
	Operator string // display label, e.g. "Equal to"
	Value    string
	Value2   string
}

// DefaultColumnMap maps display column names to backend column names for
// transmission to the search collaborator. Display names absent from the
// map fall back to the upper-cased display name verbatim.
var DefaultColumnMap = map[string]string{
	"Message ID": "MESSAGE_ID",
	"Ticker":     "TICKER",
	"CUSIP":      "CUSIP",
	"Bias":       "BIAS",
	"Date":       "DATE",
	"Source":     "SOURCE",
	"Sector":     "SECTOR",
	"Rank":       "RANK",
	"Price":      "PX",
	"Bwic Cover": "COV_PRICE",
}

// Compiler turns UI-level filter conditions into the backend-agnostic
// predicate form consumed by the rule engine and the search collaborator.
type Compiler struct {
	columns map[string]string
}

// NewCompiler creates a compiler over the given display→backend column
// table. A nil table uses DefaultColumnMap.
func NewCompiler(columns map[string]string) *Compiler {
	if columns == nil {
		columns = DefaultColumnMap
	}
	return &Compiler{columns: columns}
}

// Compile maps one UI condition to its compiled form. The operator label is
// resolved by reverse lookup against the canonical operator list; labels
// that resolve to nothing pass through unchanged so a backend that knows
// more operators than the UI still works.
func (c *Compiler) Compile(cond UICondition) model.CompiledCondition {
	return model.CompiledCondition{
		Field:    c.backendColumn(cond.Column),
		Operator: c.operatorKey(cond.Operator),
		Value:    cond.Value,
		Value2:   cond.Value2,
	}
}

// CompileAll maps a slice of UI conditions.
func (c *Compiler) CompileAll(conds []UICondition) []model.CompiledCondition {
	out := make([]model.CompiledCondition, len(conds))
	for i, cond := range conds {
		out[i] = c.Compile(cond)
	}
	return out
}

func (c *Compiler) backendColumn(display string) string {
	if col, ok := c.columns[display]; ok {
		return col
	}
	return strings.ToUpper(display)
}

func (c *Compiler) operatorKey(label string) string {
	for _, op := range OperatorLabels {
		if strings.EqualFold(op.Label, label) {
			return op.Key
		}
	}
	return label
}

// LabelForOperator returns the display label for a canonical operator key,
// or the key itself when it is not in the canonical list.
func LabelForOperator(key string) string {
	for _, op := range OperatorLabels {
		if op.Key == key {
			return op.Label
		}
	}
	return key
}
