// Package rules implements the rule-evaluation engine and the filter
// compiler. Evaluation is pure: it depends only on the model field accessor,
// never on store internals, so it is safe to run repeatedly over any
// in-memory snapshot.
package rules

import "strings"

// Canonical operator keys. Everything the UI or a rule catalog hands us is
// normalized onto these before evaluation.
const (
	OpEqual        = "equal_to"
	OpNotEqual     = "not_equal_to"
	OpContains     = "contains"
	OpNotContains  = "not_contains"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
	OpLessThan     = "less_than"
	OpGreaterThan  = "greater_than"
	OpLessEqual    = "less_than_equal_to"
	OpGreaterEqual = "greater_than_equal_to"
	OpBetween      = "between"
)

// operatorSynonyms maps lower-cased human-readable operator spellings onto
// canonical keys. Canonical keys map to themselves so already-normalized
// input passes through.
var operatorSynonyms = map[string]string{
	OpEqual:        OpEqual,
	OpNotEqual:     OpNotEqual,
	OpContains:     OpContains,
	OpNotContains:  OpNotContains,
	OpStartsWith:   OpStartsWith,
	OpEndsWith:     OpEndsWith,
	OpLessThan:     OpLessThan,
	OpGreaterThan:  OpGreaterThan,
	OpLessEqual:    OpLessEqual,
	OpGreaterEqual: OpGreaterEqual,
	OpBetween:      OpBetween,

	"equal to":    OpEqual,
	"is equal to": OpEqual,
	"equals":      OpEqual,
	"eq":          OpEqual,
	"=":           OpEqual,
	"==":          OpEqual,

	"not equal to":    OpNotEqual,
	"is not equal to": OpNotEqual,
	"does not equal":  OpNotEqual,
	"not equals":      OpNotEqual,
	"neq":             OpNotEqual,
	"!=":              OpNotEqual,
	"<>":              OpNotEqual,

	"does not contain": OpNotContains,
	"not contain":      OpNotContains,

	"starts with": OpStartsWith,
	"startswith":  OpStartsWith,
	"begins with": OpStartsWith,

	"ends with": OpEndsWith,
	"endswith":  OpEndsWith,

	"less than": OpLessThan,
	"lt":        OpLessThan,
	"<":         OpLessThan,

	"greater than": OpGreaterThan,
	"gt":           OpGreaterThan,
	">":            OpGreaterThan,

	"less than equal to":    OpLessEqual,
	"less than or equal to": OpLessEqual,
	"lte":                   OpLessEqual,
	"<=":                    OpLessEqual,

	"greater than equal to":    OpGreaterEqual,
	"greater than or equal to": OpGreaterEqual,
	"gte":                      OpGreaterEqual,
	">=":                       OpGreaterEqual,

	"in between": OpBetween,
}

// NormalizeOperator lower-cases the operator string and resolves it through
// the synonym table. Unknown operators return "" and evaluate to false.
func NormalizeOperator(op string) string {
	key := strings.ToLower(strings.TrimSpace(op))
	return operatorSynonyms[key]
}

// OperatorLabel pairs a canonical key with the label shown to users.
type OperatorLabel struct {
	Label string
	Key   string
}

// OperatorLabels is the canonical operator list in display order.
var OperatorLabels = []OperatorLabel{
	{Label: "Equal to", Key: OpEqual},
	{Label: "Not equal to", Key: OpNotEqual},
	{Label: "Contains", Key: OpContains},
	{Label: "Not contains", Key: OpNotContains},
	{Label: "Starts with", Key: OpStartsWith},
	{Label: "Ends with", Key: OpEndsWith},
	{Label: "Less than", Key: OpLessThan},
	{Label: "Greater than", Key: OpGreaterThan},
	{Label: "Less than or equal to", Key: OpLessEqual},
	{Label: "Greater than or equal to", Key: OpGreaterEqual},
	{Label: "Between", Key: OpBetween},
}
