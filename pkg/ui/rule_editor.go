package ui

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/colorgrid/pkg/model"
	"github.com/vanderheijden86/colorgrid/pkg/rules"
)

// ruleEditor builds a single-condition exclusion rule through a huh form.
// Multi-condition rules come from the backend; the form covers the common
// interactive case.
type ruleEditor struct {
	form *huh.Form

	name     string
	column   string
	operator string
	value    string
	value2   string
	active   bool
}

func newRuleEditor(theme Theme) *ruleEditor {
	ed := &ruleEditor{active: true}

	columns := make([]string, 0, len(rules.DefaultColumnMap))
	for display := range rules.DefaultColumnMap {
		columns = append(columns, display)
	}
	sort.Strings(columns)

	operatorOpts := make([]huh.Option[string], len(rules.OperatorLabels))
	for i, op := range rules.OperatorLabels {
		operatorOpts[i] = huh.NewOption(op.Label, op.Key)
	}

	ed.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rule name").
				Value(&ed.name),
			huh.NewSelect[string]().
				Title("Column").
				Options(huh.NewOptions(columns...)...).
				Value(&ed.column),
			huh.NewSelect[string]().
				Title("Operator").
				Options(operatorOpts...).
				Value(&ed.operator),
			huh.NewInput().
				Title("Value").
				Value(&ed.value),
			huh.NewInput().
				Title("Value 2 (between only)").
				Value(&ed.value2),
			huh.NewConfirm().
				Title("Active").
				Value(&ed.active),
		),
	)

	return ed
}

func (ed *ruleEditor) Init() tea.Cmd {
	return ed.form.Init()
}

func (ed *ruleEditor) Update(msg tea.Msg) tea.Cmd {
	form, cmd := ed.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		ed.form = f
	}
	return cmd
}

// Done reports whether the form finished, by submit or abort.
func (ed *ruleEditor) Done() bool {
	return ed.form.State == huh.StateCompleted || ed.form.State == huh.StateAborted
}

// Rule returns the built rule. ok is false when the form was aborted or the
// rule is unusable (no name or no value).
func (ed *ruleEditor) Rule() (model.Rule, bool) {
	if ed.form.State != huh.StateCompleted {
		return model.Rule{}, false
	}
	if ed.name == "" || ed.value == "" {
		return model.Rule{}, false
	}

	// Rules are stored with backend column names so the engine's field
	// aliasing lines up with rules saved by other clients.
	column := rules.DefaultColumnMap[ed.column]
	if column == "" {
		column = ed.column
	}

	return model.Rule{
		Name:   ed.name,
		Active: ed.active,
		Conditions: []model.Condition{{
			Type:     model.CondWhere,
			Column:   column,
			Operator: ed.operator,
			Value:    ed.value,
			Value2:   ed.value2,
		}},
	}, true
}

func (ed *ruleEditor) View() string {
	return ed.form.View()
}
