package rules

import "testing"

func TestNormalizeOperator_Synonyms(t *testing.T) {
	cases := map[string]string{
		"equal_to":                 OpEqual,
		"Equal To":                 OpEqual,
		"=":                        OpEqual,
		"eq":                       OpEqual,
		"  != ":                    OpNotEqual,
		"does not equal":           OpNotEqual,
		"greater than or equal to": OpGreaterEqual,
		">=":                       OpGreaterEqual,
		"lte":                      OpLessEqual,
		"in between":               OpBetween,
		"BETWEEN":                  OpBetween,
		"starts with":              OpStartsWith,
		"does not contain":         OpNotContains,
	}
	for in, want := range cases {
		if got := NormalizeOperator(in); got != want {
			t.Errorf("NormalizeOperator(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeOperator_UnknownIsEmpty(t *testing.T) {
	for _, in := range []string{"regex", "like", "", "   "} {
		if got := NormalizeOperator(in); got != "" {
			t.Errorf("NormalizeOperator(%q) = %q, want empty", in, got)
		}
	}
}

func TestOperatorLabels_AllResolveToThemselves(t *testing.T) {
	for _, op := range OperatorLabels {
		if NormalizeOperator(op.Key) != op.Key {
			t.Errorf("canonical key %q does not normalize to itself", op.Key)
		}
		if LabelForOperator(op.Key) != op.Label {
			t.Errorf("label round trip failed for %q", op.Key)
		}
	}
}
