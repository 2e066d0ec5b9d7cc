package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/colorgrid/pkg/rules"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func dialogKeys(d *filterDialog, keys ...string) (done, submitted bool) {
	for _, k := range keys {
		done, submitted = d.Update(keyMsg(k))
		if done {
			return done, submitted
		}
	}
	return done, submitted
}

func TestFilterDialog_BuildCondition(t *testing.T) {
	d := newFilterDialog(TestTheme())

	// Columns are sorted; cycle right once, then pick the second operator.
	dialogKeys(d, "right", "tab", "right", "tab", "A", "C")
	done, submitted := d.Update(keyMsg("enter"))
	if !done || !submitted {
		t.Fatalf("enter gave done=%v submitted=%v", done, submitted)
	}

	conds := d.Conditions()
	if len(conds) != 1 {
		t.Fatalf("conditions = %+v", conds)
	}
	if conds[0].Column != d.columns[1] {
		t.Errorf("column = %q, want %q", conds[0].Column, d.columns[1])
	}
	if conds[0].Operator != rules.OperatorLabels[1].Label {
		t.Errorf("operator = %q", conds[0].Operator)
	}
	if conds[0].Value != "AC" {
		t.Errorf("value = %q", conds[0].Value)
	}
}

func TestFilterDialog_EmptyValueSkipped(t *testing.T) {
	d := newFilterDialog(TestTheme())
	done, submitted := d.Update(keyMsg("enter"))
	if !done || !submitted {
		t.Fatal("dialog did not close")
	}
	if conds := d.Conditions(); len(conds) != 0 {
		t.Errorf("empty condition kept: %+v", conds)
	}
}

func TestFilterDialog_EscCancels(t *testing.T) {
	d := newFilterDialog(TestTheme())
	done, submitted := d.Update(keyMsg("esc"))
	if !done || submitted {
		t.Errorf("esc gave done=%v submitted=%v", done, submitted)
	}
}

func TestFilterDialog_AddSecondCondition(t *testing.T) {
	d := newFilterDialog(TestTheme())
	dialogKeys(d, "tab", "tab", "1", "ctrl+n", "tab", "tab", "2")
	d.Update(keyMsg("enter"))

	conds := d.Conditions()
	if len(conds) != 2 {
		t.Fatalf("conditions = %+v", conds)
	}
	if conds[0].Value != "1" || conds[1].Value != "2" {
		t.Errorf("values = %q %q", conds[0].Value, conds[1].Value)
	}
}

func TestFilterDialog_Value2OnlyForBetween(t *testing.T) {
	d := newFilterDialog(TestTheme())

	// Non-between: tab from value wraps back to column, never value2.
	dialogKeys(d, "tab", "tab", "tab")
	if d.fieldIdx == fieldValue2 {
		t.Error("value2 focused while operator is not between")
	}

	// Select the between operator, then value2 is reachable.
	d2 := newFilterDialog(TestTheme())
	d2.conditions[0].operatorIdx = len(rules.OperatorLabels) - 1 // Between is last
	if rules.OperatorLabels[d2.conditions[0].operatorIdx].Key != rules.OpBetween {
		t.Fatal("operator list changed; between not last")
	}
	dialogKeys(d2, "tab", "tab", "tab")
	if d2.fieldIdx != fieldValue2 {
		t.Errorf("fieldIdx = %d, want value2 for between", d2.fieldIdx)
	}
}
