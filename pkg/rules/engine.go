package rules

import (
	"strconv"
	"strings"

	"github.com/vanderheijden86/colorgrid/pkg/metrics"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// EvaluateRule reports whether the row matches the rule. Matching is
// exclude-on-match by this grid's convention, but the caller decides what a
// match means. Conditions fold strictly left to right with no operator
// precedence:
//
//	first condition   result = eval(c)       (type tag ignored)
//	and               result = result && eval(c)
//	or                result = result || eval(c)
//	where             result = eval(c)       (starts a new clause)
//
// An empty condition list never matches.
func EvaluateRule(row *model.Row, rule model.Rule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}

	result := EvaluateCondition(row, rule.Conditions[0])
	for _, cond := range rule.Conditions[1:] {
		switch cond.Type {
		case model.CondAnd:
			result = result && EvaluateCondition(row, cond)
		case model.CondOr:
			result = result || EvaluateCondition(row, cond)
		case model.CondWhere:
			result = EvaluateCondition(row, cond)
		default:
			// Unknown combinator: treat like and, the most restrictive.
			result = result && EvaluateCondition(row, cond)
		}
	}
	return result
}

// EvaluateCondition evaluates one atomic test against the row. The column
// lookup is case-insensitive and alias-aware (MESSAGE_ID finds messageId); a
// column matching no field reads as the empty string.
//
// Comparison policy:
//   - equal_to / not_equal_to: numeric when both sides parse as numbers,
//     otherwise case-insensitive string comparison.
//   - ordering operators and between: numeric only; false when either side
//     (or the between bounds) fails to parse.
//   - contains / not_contains / starts_with / ends_with: case-insensitive
//     string comparison, always.
//   - unknown operator: false.
func EvaluateCondition(row *model.Row, cond model.Condition) bool {
	op := NormalizeOperator(cond.Operator)
	if op == "" {
		return false
	}

	rowValue := row.FieldOrEmpty(cond.Column)
	rowText := rowValue.Text()
	rowNum, rowIsNum := rowValue.Float()
	condNum, condIsNum := parseNumber(cond.Value)

	switch op {
	case OpEqual:
		if rowIsNum && condIsNum {
			return rowNum == condNum
		}
		return strings.EqualFold(rowText, cond.Value)

	case OpNotEqual:
		if rowIsNum && condIsNum {
			return rowNum != condNum
		}
		return !strings.EqualFold(rowText, cond.Value)

	case OpLessThan:
		return rowIsNum && condIsNum && rowNum < condNum
	case OpGreaterThan:
		return rowIsNum && condIsNum && rowNum > condNum
	case OpLessEqual:
		return rowIsNum && condIsNum && rowNum <= condNum
	case OpGreaterEqual:
		return rowIsNum && condIsNum && rowNum >= condNum

	case OpBetween:
		hi, hiIsNum := parseNumber(cond.Value2)
		if !rowIsNum || !condIsNum || !hiIsNum {
			return false
		}
		return condNum <= rowNum && rowNum <= hi // inclusive both ends

	case OpContains:
		return strings.Contains(lower(rowText), lower(cond.Value))
	case OpNotContains:
		return !strings.Contains(lower(rowText), lower(cond.Value))
	case OpStartsWith:
		return strings.HasPrefix(lower(rowText), lower(cond.Value))
	case OpEndsWith:
		return strings.HasSuffix(lower(rowText), lower(cond.Value))
	}

	return false
}

// Apply evaluates every active rule against every row and returns the rows
// that match no rule, plus the count of excluded rows. Inactive rules are
// skipped. The input slice is not modified.
func Apply(rows []*model.Row, ruleset []model.Rule) (kept []*model.Row, excluded int) {
	defer metrics.Timer(metrics.RuleApply)()

	kept = make([]*model.Row, 0, len(rows))
	for _, row := range rows {
		matched := false
		for _, rule := range ruleset {
			if !rule.Active {
				continue
			}
			if EvaluateRule(row, rule) {
				matched = true
				break
			}
		}
		if matched {
			excluded++
			continue
		}
		kept = append(kept, row)
	}
	return kept, excluded
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func lower(s string) string { return strings.ToLower(s) }
