package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/colorgrid/pkg/rules"
)

// filterField indexes within one condition editor.
const (
	fieldColumn = iota
	fieldOperator
	fieldValue
	fieldValue2
	fieldCount
)

// conditionEditor edits a single search condition: column and operator are
// cycled selects, the values are text inputs.
type conditionEditor struct {
	columnIdx   int
	operatorIdx int
	value       textinput.Model
	value2      textinput.Model
}

// filterDialog collects one or more search conditions for the backend
// search. Conditions are conjunctive.
type filterDialog struct {
	theme      Theme
	columns    []string
	conditions []conditionEditor
	condIdx    int
	fieldIdx   int
	submitted  bool
}

func newFilterDialog(theme Theme) *filterDialog {
	columns := make([]string, 0, len(rules.DefaultColumnMap))
	for display := range rules.DefaultColumnMap {
		columns = append(columns, display)
	}
	sort.Strings(columns)

	d := &filterDialog{
		theme:   theme,
		columns: columns,
	}
	d.conditions = append(d.conditions, d.newCondition())
	return d
}

func (d *filterDialog) newCondition() conditionEditor {
	value := textinput.New()
	value.CharLimit = 80
	value.Width = 24
	value2 := textinput.New()
	value2.CharLimit = 80
	value2.Width = 24
	return conditionEditor{value: value, value2: value2}
}

func (d *filterDialog) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles one key. Returns done=true when the dialog closed, with
// submitted reporting whether the conditions should run.
func (d *filterDialog) Update(msg tea.KeyMsg) (done, submitted bool) {
	cond := &d.conditions[d.condIdx]

	switch msg.String() {
	case "esc":
		return true, false

	case "enter":
		d.submitted = true
		return true, true

	case "tab", "down":
		d.focusField(d.fieldIdx + 1)
		return false, false
	case "shift+tab", "up":
		d.focusField(d.fieldIdx - 1)
		return false, false

	case "ctrl+n":
		d.conditions = append(d.conditions, d.newCondition())
		d.condIdx = len(d.conditions) - 1
		d.focusField(fieldColumn)
		return false, false

	case "ctrl+p":
		if d.condIdx > 0 {
			d.condIdx--
			d.focusField(fieldColumn)
		}
		return false, false

	case "left":
		switch d.fieldIdx {
		case fieldColumn:
			cond.columnIdx = (cond.columnIdx + len(d.columns) - 1) % len(d.columns)
			return false, false
		case fieldOperator:
			cond.operatorIdx = (cond.operatorIdx + len(rules.OperatorLabels) - 1) % len(rules.OperatorLabels)
			return false, false
		}
	case "right":
		switch d.fieldIdx {
		case fieldColumn:
			cond.columnIdx = (cond.columnIdx + 1) % len(d.columns)
			return false, false
		case fieldOperator:
			cond.operatorIdx = (cond.operatorIdx + 1) % len(rules.OperatorLabels)
			return false, false
		}
	}

	switch d.fieldIdx {
	case fieldValue:
		cond.value, _ = cond.value.Update(msg)
	case fieldValue2:
		cond.value2, _ = cond.value2.Update(msg)
	}
	return false, false
}

func (d *filterDialog) focusField(idx int) {
	cond := &d.conditions[d.condIdx]
	cond.value.Blur()
	cond.value2.Blur()

	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	// Skip value2 unless the between operator is selected.
	if idx == fieldValue2 && !d.isBetween(*cond) {
		if d.fieldIdx == fieldValue {
			idx = 0
		} else {
			idx = fieldValue
		}
	}
	d.fieldIdx = idx

	switch idx {
	case fieldValue:
		cond.value.Focus()
	case fieldValue2:
		cond.value2.Focus()
	}
}

func (d *filterDialog) isBetween(cond conditionEditor) bool {
	return rules.OperatorLabels[cond.operatorIdx].Key == rules.OpBetween
}

// Conditions returns the entered conditions, skipping any with an empty
// value.
func (d *filterDialog) Conditions() []rules.UICondition {
	var out []rules.UICondition
	for _, cond := range d.conditions {
		value := strings.TrimSpace(cond.value.Value())
		if value == "" {
			continue
		}
		out = append(out, rules.UICondition{
			Column:   d.columns[cond.columnIdx],
			Operator: rules.OperatorLabels[cond.operatorIdx].Label,
			Value:    value,
			Value2:   strings.TrimSpace(cond.value2.Value()),
		})
	}
	return out
}

func (d *filterDialog) View() string {
	var b strings.Builder
	b.WriteString(d.theme.Header.Render("Search Filters"))
	b.WriteString("\n\n")

	for i, cond := range d.conditions {
		active := i == d.condIdx
		b.WriteString(d.renderCondition(cond, i, active))
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(d.theme.StatusBar.Render(
		"tab: next field · ←/→: change · ctrl+n: add condition · enter: search · esc: cancel"))
	return d.theme.ModalBox.Render(b.String())
}

func (d *filterDialog) renderCondition(cond conditionEditor, idx int, active bool) string {
	marker := "  "
	if active {
		marker = d.theme.Checked.Render("> ")
	}

	column := d.columns[cond.columnIdx]
	operator := rules.OperatorLabels[cond.operatorIdx].Label

	if active {
		switch d.fieldIdx {
		case fieldColumn:
			column = d.theme.Checked.Render("‹" + column + "›")
		case fieldOperator:
			operator = d.theme.Checked.Render("‹" + operator + "›")
		}
	}

	line := fmt.Sprintf("%s%s %s %s", marker, column, operator, cond.value.View())
	if d.isBetween(cond) {
		line += " and " + cond.value2.View()
	}
	return line
}
