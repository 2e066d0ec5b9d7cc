package rules

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

func quoteRow(fields map[string]model.Value) *model.Row {
	return &model.Row{ID: "r", Fields: fields}
}

func cond(typ model.ConditionType, column, op, value string) model.Condition {
	return model.Condition{Type: typ, Column: column, Operator: op, Value: value}
}

func TestEvaluateCondition_NumericFirstEquality(t *testing.T) {
	row := quoteRow(map[string]model.Value{
		"bid":    model.Number(99.5),
		"bidTxt": model.String("99.50"),
		"ticker": model.String("ACME"),
	})

	cases := []struct {
		name string
		c    model.Condition
		want bool
	}{
		{"number vs number text", cond(model.CondWhere, "bid", OpEqual, "99.50"), true},
		{"string number both parse", cond(model.CondWhere, "bidTxt", OpEqual, "99.5"), true},
		{"string fallback case-insensitive", cond(model.CondWhere, "ticker", OpEqual, "acme"), true},
		{"numeric not-equal", cond(model.CondWhere, "bid", OpNotEqual, "100"), true},
		{"string not-equal", cond(model.CondWhere, "ticker", OpNotEqual, "ACME"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateCondition(row, tc.c); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateCondition_OrderingRequiresNumbers(t *testing.T) {
	row := quoteRow(map[string]model.Value{
		"rank": model.Number(3),
		"name": model.String("alpha"),
	})

	if !EvaluateCondition(row, cond(model.CondWhere, "rank", OpLessThan, "5")) {
		t.Error("3 < 5 failed")
	}
	if EvaluateCondition(row, cond(model.CondWhere, "name", OpLessThan, "5")) {
		t.Error("non-numeric field must not order-compare")
	}
	if EvaluateCondition(row, cond(model.CondWhere, "rank", OpGreaterThan, "high")) {
		t.Error("non-numeric bound must not order-compare")
	}
	if !EvaluateCondition(row, cond(model.CondWhere, "rank", OpLessEqual, "3")) {
		t.Error("3 <= 3 failed")
	}
	if !EvaluateCondition(row, cond(model.CondWhere, "rank", OpGreaterEqual, "3")) {
		t.Error("3 >= 3 failed")
	}
}

func TestEvaluateCondition_StringOperators(t *testing.T) {
	row := quoteRow(map[string]model.Value{"sector": model.String("Consumer Staples")})

	if !EvaluateCondition(row, cond(model.CondWhere, "sector", OpContains, "staples")) {
		t.Error("contains is case-insensitive")
	}
	if !EvaluateCondition(row, cond(model.CondWhere, "sector", OpStartsWith, "consumer")) {
		t.Error("starts_with failed")
	}
	if !EvaluateCondition(row, cond(model.CondWhere, "sector", OpEndsWith, "STAPLES")) {
		t.Error("ends_with failed")
	}
	if EvaluateCondition(row, cond(model.CondWhere, "sector", OpNotContains, "Consumer")) {
		t.Error("not_contains matched present substring")
	}
}

func TestEvaluateCondition_MissingColumnReadsEmpty(t *testing.T) {
	row := quoteRow(nil)
	if !EvaluateCondition(row, cond(model.CondWhere, "ghost", OpEqual, "")) {
		t.Error("missing column should equal the empty string")
	}
	if EvaluateCondition(row, cond(model.CondWhere, "ghost", OpContains, "x")) {
		t.Error("missing column contains nothing")
	}
}

func TestEvaluateCondition_UnknownOperatorFalse(t *testing.T) {
	row := quoteRow(map[string]model.Value{"bid": model.Number(1)})
	if EvaluateCondition(row, cond(model.CondWhere, "bid", "regex_match", "1")) {
		t.Error("unknown operator must evaluate false")
	}
}

func TestEvaluateRule_LeftToRightFold(t *testing.T) {
	row := quoteRow(map[string]model.Value{
		"ticker": model.String("ACME"),
		"rank":   model.Number(9),
	})

	// (ticker == ZZZ and rank > 5) or ticker == ACME
	// Left-to-right: ((false && true) || true) = true.
	rule := model.Rule{Active: true, Conditions: []model.Condition{
		cond(model.CondWhere, "ticker", OpEqual, "ZZZ"),
		cond(model.CondAnd, "rank", OpGreaterThan, "5"),
		cond(model.CondOr, "ticker", OpEqual, "ACME"),
	}}
	if !EvaluateRule(row, rule) {
		t.Error("fold result wrong")
	}

	// ticker == ACME or rank > 5 and ticker == ZZZ
	// Left-to-right: ((true || true) && false) = false. With precedence it
	// would be true; the fold deliberately has none.
	rule2 := model.Rule{Active: true, Conditions: []model.Condition{
		cond(model.CondWhere, "ticker", OpEqual, "ACME"),
		cond(model.CondOr, "rank", OpGreaterThan, "5"),
		cond(model.CondAnd, "ticker", OpEqual, "ZZZ"),
	}}
	if EvaluateRule(row, rule2) {
		t.Error("fold applied operator precedence")
	}
}

func TestEvaluateRule_WhereRestartsClause(t *testing.T) {
	row := quoteRow(map[string]model.Value{"rank": model.Number(1)})

	rule := model.Rule{Active: true, Conditions: []model.Condition{
		cond(model.CondWhere, "rank", OpEqual, "999"),
		cond(model.CondWhere, "rank", OpEqual, "1"),
	}}
	if !EvaluateRule(row, rule) {
		t.Error("a later where must replace the accumulated result")
	}
}

func TestEvaluateRule_EmptyNeverMatches(t *testing.T) {
	if EvaluateRule(quoteRow(nil), model.Rule{Active: true}) {
		t.Error("empty condition list matched")
	}
}

func TestApply_ExcludeOnMatch(t *testing.T) {
	rows := []*model.Row{
		quoteRow(map[string]model.Value{"ticker": model.String("ACME")}),
		{ID: "keep", Fields: map[string]model.Value{"ticker": model.String("GLOBEX")}},
	}
	active := model.Rule{Active: true, Conditions: []model.Condition{
		cond(model.CondWhere, "ticker", OpEqual, "ACME"),
	}}
	inactive := model.Rule{Active: false, Conditions: []model.Condition{
		cond(model.CondWhere, "ticker", OpEqual, "GLOBEX"),
	}}

	kept, excluded := Apply(rows, []model.Rule{active, inactive})
	if excluded != 1 || len(kept) != 1 || kept[0].ID != "keep" {
		t.Errorf("kept=%v excluded=%d", kept, excluded)
	}
}

func TestApply_NoActiveRulesKeepsEverything(t *testing.T) {
	rows := []*model.Row{quoteRow(nil), quoteRow(nil)}
	kept, excluded := Apply(rows, nil)
	if len(kept) != 2 || excluded != 0 {
		t.Errorf("kept=%d excluded=%d", len(kept), excluded)
	}
}

// between is inclusive at both ends and agrees with the two ordering
// operators it abbreviates.
func TestEvaluateCondition_BetweenProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(-1000, 1000).Draw(t, "v")
		lo := rapid.Float64Range(-1000, 1000).Draw(t, "lo")
		hi := rapid.Float64Range(-1000, 1000).Draw(t, "hi")

		row := quoteRow(map[string]model.Value{"px": model.Number(v)})
		c := model.Condition{
			Type: model.CondWhere, Column: "px", Operator: OpBetween,
			Value:  fmt.Sprintf("%v", lo),
			Value2: fmt.Sprintf("%v", hi),
		}

		got := EvaluateCondition(row, c)
		want := lo <= v && v <= hi
		if got != want {
			t.Fatalf("between(%v, %v, %v) = %v, want %v", v, lo, hi, got, want)
		}
	})
}

func TestEvaluateCondition_BetweenBadBounds(t *testing.T) {
	row := quoteRow(map[string]model.Value{"px": model.Number(5)})
	c := model.Condition{Type: model.CondWhere, Column: "px", Operator: OpBetween, Value: "1", Value2: "ten"}
	if EvaluateCondition(row, c) {
		t.Error("unparsable upper bound must evaluate false")
	}
}
