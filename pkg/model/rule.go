package model

// ConditionType describes how a condition combines with the running result
// of a rule evaluation. The fold is strictly left to right: no precedence,
// no parentheses.
type ConditionType string

const (
	// CondWhere starts a new clause: the running result is replaced by the
	// condition's own result. The first condition of a rule behaves like
	// where regardless of its tag.
	CondWhere ConditionType = "where"
	// CondAnd ANDs the condition into the running result.
	CondAnd ConditionType = "and"
	// CondOr ORs the condition into the running result.
	CondOr ConditionType = "or"
)

// Condition is one atomic filter test. Value2 is only meaningful for the
// between operator.
type Condition struct {
	Type     ConditionType `json:"type"`
	Column   string        `json:"column"`
	Operator string        `json:"operator"`
	Value    string        `json:"value"`
	Value2   string        `json:"value2,omitempty"`
}

// Rule is a named, ordered sequence of conditions. The grid's convention is
// exclude-on-match: a row matching an active rule is removed from the
// working set.
type Rule struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Active     bool        `json:"is_active"`
	Conditions []Condition `json:"conditions"`
}

// CompiledCondition is the backend-agnostic predicate form produced by the
// filter compiler and consumed by the search collaborator.
type CompiledCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Value2   string `json:"value2,omitempty"`
}
