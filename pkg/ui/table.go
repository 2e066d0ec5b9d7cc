package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/vanderheijden86/colorgrid/pkg/grid"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// Fixed leading columns: selection checkbox, expand arrow, display number.
const (
	checkWidth  = 3
	arrowWidth  = 2
	numberWidth = 6
)

// View renders the full frame.
func (m Model) View() string {
	switch m.mode {
	case modeFilter:
		return m.overlay(m.filter.View())
	case modeRules:
		return m.overlay(m.ruleEd.View())
	case modeHelp:
		return m.help.View()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	for i, row := range m.visible {
		b.WriteString(m.renderRow(row, i))
		b.WriteByte('\n')
	}
	if len(m.visible) == 0 {
		b.WriteString(m.theme.StatusBar.Render("no rows"))
		b.WriteByte('\n')
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) overlay(modal string) string {
	return modal
}

func (m Model) renderHeader() string {
	var cells []string
	cells = append(cells, padRight("", checkWidth+arrowWidth))
	cells = append(cells, padRight("#", numberWidth))
	for i, col := range m.columns {
		title := fitCell(col.Title, col.Width)
		if i == m.col {
			title = m.theme.Checked.Render(title)
		}
		cells = append(cells, title)
	}
	return m.theme.Header.Render(strings.Join(cells, " "))
}

func (m Model) renderRow(row *model.Row, i int) string {
	check := "[ ]"
	if row.Selected {
		check = m.theme.Checked.Render("[x]")
	}

	arrow := " "
	if m.index.HasChildren(row) {
		if m.view.IsExpanded(row.ID) {
			arrow = "▼"
		} else {
			arrow = "▶"
		}
	}

	num := m.displayNumber(row)

	var cells []string
	cells = append(cells, check, padRight(arrow, arrowWidth-1))
	cells = append(cells, padRight(num, numberWidth))
	for _, col := range m.columns {
		cells = append(cells, m.renderCell(row, col))
	}
	line := strings.Join(cells, " ")

	style := m.theme.ParentRow
	if !row.IsParent && !m.index.Flat {
		style = m.theme.ChildRow
	}
	if i == m.cursor {
		return m.theme.Cursor.Render(line)
	}
	return style.Render(line)
}

// displayNumber renders hierarchy numbering: parents "1", children "1.1".
// Orphans have no numbering entry and render blank.
func (m Model) displayNumber(row *model.Row) string {
	num, ok := m.index.Numbering[row.ID]
	if !ok {
		return ""
	}
	if num.ChildNum == 0 {
		return fmt.Sprintf("%d", num.ParentNum)
	}
	return fmt.Sprintf("%d.%d", num.ParentNum, num.ChildNum)
}

func (m Model) renderCell(row *model.Row, col Column) string {
	// Cell under edit shows the live input instead of the stored value.
	if m.mode == modeEdit {
		if editID, editField := m.edit.Cell(); editID == row.ID && editField == col.Field {
			return fitCell(m.editInput.View(), col.Width)
		}
	}

	text := row.FieldOrEmpty(col.Field).Text()
	cell := fitCell(text, col.Width)

	if text == grid.SentinelError {
		return m.theme.Sentinel.Render(cell)
	}
	if col.Field == "bias" {
		return m.theme.Renderer.NewStyle().Foreground(m.theme.BiasColor(text)).Render(cell)
	}
	return cell
}

func (m Model) renderStatusBar() string {
	var parts []string

	total := m.view.TotalPages(m.index, m.store.Len())
	parts = append(parts, fmt.Sprintf("page %d/%d", m.view.Page(), total))
	parts = append(parts, fmt.Sprintf("%d rows", m.store.Len()))

	if n := len(m.store.SelectedIDs()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if m.searchTotal >= 0 {
		parts = append(parts, fmt.Sprintf("search: %d matches", m.searchTotal))
	}
	if m.showStats {
		parts = append(parts, m.renderStats())
	}

	bar := m.theme.StatusBar.Render(strings.Join(parts, " · "))

	if m.notice != "" {
		notice := m.theme.Notice.Render(m.notice)
		if m.noticeErr {
			notice = m.theme.Warning.Render(m.notice)
		}
		return bar + "  " + notice
	}
	return bar + m.theme.StatusBar.Render(" · ? for help")
}

func (m Model) renderStats() string {
	s := m.stats
	var b strings.Builder
	fmt.Fprintf(&b, "%dP/%dC", s.ParentRows, s.ChildRows)
	if s.UniqueCusips > 0 {
		fmt.Fprintf(&b, " · %d cusips", s.UniqueCusips)
	}
	if !math.IsNaN(s.MeanMid) {
		fmt.Fprintf(&b, " · mid %.2f", s.MeanMid)
	}
	return b.String()
}
