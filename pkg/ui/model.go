// Package ui implements the colorgrid terminal interface: the hierarchical
// quote grid with selection, expand/collapse, pagination, in-cell editing
// with cusip lookup, rule filtering, search, and CSV export.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/colorgrid/pkg/config"
	"github.com/vanderheijden86/colorgrid/pkg/debug"
	"github.com/vanderheijden86/colorgrid/pkg/grid"
	"github.com/vanderheijden86/colorgrid/pkg/loader"
	"github.com/vanderheijden86/colorgrid/pkg/model"
	"github.com/vanderheijden86/colorgrid/pkg/rules"
	"github.com/vanderheijden86/colorgrid/pkg/watcher"
)

// BusinessKey is the column that identifies a quote across collaborators.
const BusinessKey = "messageId"

type mode int

const (
	modeTable mode = iota
	modeEdit
	modeFilter
	modeRules
	modeHelp
)

// Column describes one grid column: the header title, the row field it
// reads, and its render width in cells.
type Column struct {
	Title string
	Field string
	Width int
}

// DefaultColumns is the standard grid layout.
func DefaultColumns() []Column {
	return []Column{
		{Title: "Message ID", Field: "messageId", Width: 14},
		{Title: "Ticker", Field: "ticker", Width: 10},
		{Title: "CUSIP", Field: "cusip", Width: 11},
		{Title: "Bias", Field: "bias", Width: 7},
		{Title: "Bid", Field: "bid", Width: 8},
		{Title: "Mid", Field: "mid", Width: 8},
		{Title: "Ask", Field: "ask", Width: 8},
		{Title: "Price", Field: "px", Width: 8},
		{Title: "Bwic Cover", Field: "covPrice", Width: 10},
		{Title: "Rank", Field: "rank", Width: 5},
		{Title: "Sector", Field: "sector", Width: 10},
		{Title: "Date", Field: "date", Width: 10},
		{Title: "Source", Field: "source", Width: 10},
	}
}

const noticeDuration = 4 * time.Second

// Model is the bubbletea model for the colorgrid TUI.
type Model struct {
	theme   Theme
	cfg     config.Config
	backend Backend
	dataDir string
	watch   *watcher.Watcher

	store    *grid.RowStore
	index    *grid.Index
	view     *grid.View
	edit     *grid.EditSession
	columns  []Column
	compiler *rules.Compiler

	// visible is the projection cache, rebuilt by refresh.
	visible []*model.Row
	cursor  int // row index into visible
	col     int // column index into columns

	mode      mode
	editInput textinput.Model
	filter    *filterDialog
	ruleEd    *ruleEditor
	help      helpOverlay

	stats     loader.Stats
	showStats bool

	// searchTotal is the backend's match count for the active search, -1
	// when the grid shows the full data set.
	searchTotal int
	baseline    []model.Row // full data set to restore when a search is cleared

	lookupGen int
	searchGen int

	notice    string
	noticeErr bool
	noticeID  int

	width  int
	height int
}

// New builds the model over an initial row set. backend may be nil, in which
// case lookup, search, rules and session save degrade to notices. w may be
// nil to disable file watching.
func New(cfg config.Config, rowsInitial []model.Row, backend Backend, dataDir string, w *watcher.Watcher) Model {
	theme := DefaultTheme(defaultRenderer())

	store := grid.NewRowStore(BusinessKey)
	store.Load(rowsInitial)

	editOpts := grid.EditOptions{
		Enabled:     cfg.Edit.Enabled,
		NonEditable: cfg.NonEditableSet(),
	}
	if cfg.Edit.LookupField != "" {
		editOpts.LookupField = cfg.Edit.LookupField
		editOpts.LookupDependentFields = []string{"ticker", "bid", "mid", "ask", "sector", "rank"}
	}

	ti := textinput.New()
	ti.CharLimit = 120

	m := Model{
		theme:       theme,
		cfg:         cfg,
		backend:     backend,
		dataDir:     dataDir,
		watch:       w,
		store:       store,
		view:        grid.NewView(cfg.Table.PageSize, cfg.Table.Paginate),
		edit:        grid.NewEditSession(store, editOpts),
		columns:     DefaultColumns(),
		compiler:    rules.NewCompiler(cfg.ColumnMap()),
		editInput:   ti,
		stats:       loader.Summarize(rowsInitial),
		showStats:   cfg.Table.ShowStats,
		searchTotal: -1,
		baseline:    rowsInitial,
	}
	m.refresh()
	return m
}

// Init starts the watcher subscription when a watcher is attached.
func (m Model) Init() tea.Cmd {
	if m.watch != nil {
		return watchFileCmd(m.watch)
	}
	return nil
}

// refresh rebuilds the hierarchy index and the visible projection, clamping
// page and cursor. Call after any mutation of the row set or view state.
func (m *Model) refresh() {
	m.index = grid.BuildIndex(m.store.Rows(), BusinessKey)
	total := m.view.TotalPages(m.index, m.store.Len())
	m.view.GoToPage(m.view.Page(), total)
	m.visible = m.view.Visible(m.store, m.index)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) cursorRow() *model.Row {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.notice = text
	m.noticeErr = isErr
	m.noticeID++
	return clearNoticeAfter(noticeDuration, m.noticeID)
}

// Update is the bubbletea state transition.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.setSize(msg.Width, msg.Height)
		return m, nil

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case fileChangedMsg:
		// An in-flight edit refers to a row set that no longer exists.
		if m.edit.Active() {
			m.edit.Cancel()
			if m.mode == modeEdit {
				m.mode = modeTable
			}
		}
		cmds := []tea.Cmd{reloadRowsCmd(m.dataDir)}
		if m.watch != nil {
			cmds = append(cmds, watchFileCmd(m.watch))
		}
		return m, tea.Batch(cmds...)

	case watchErrMsg:
		return m, m.setNotice(fmt.Sprintf("watch error: %v", msg.err), true)

	case rowsReloadedMsg:
		if msg.err != nil {
			return m, m.setNotice(fmt.Sprintf("reload failed: %v", msg.err), true)
		}
		m.store.Load(msg.rows)
		m.baseline = msg.rows
		m.stats = loader.Summarize(msg.rows)
		m.searchTotal = -1
		m.view.Reset()
		m.refresh()
		return m, m.setNotice(fmt.Sprintf("reloaded %d rows", len(msg.rows)), false)

	case lookupResultMsg:
		return m.handleLookupResult(msg)

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case rulesLoadedMsg:
		return m.handleRulesLoaded(msg)

	case ruleSavedMsg:
		if msg.err != nil {
			return m, m.setNotice(fmt.Sprintf("saving rule failed: %v", msg.err), true)
		}
		return m, m.setNotice(fmt.Sprintf("saved rule %q (#%d)", msg.name, msg.id), false)

	case sessionSavedMsg:
		if msg.err != nil {
			return m, m.setNotice(fmt.Sprintf("session save failed: %v", msg.err), true)
		}
		return m, m.setNotice(fmt.Sprintf("session saved (%d rows)", msg.saved), false)

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.setNotice(fmt.Sprintf("export failed: %v", msg.err), true)
		}
		if msg.clipboard {
			return m, m.setNotice("copied to clipboard", false)
		}
		return m, m.setNotice(fmt.Sprintf("exported to %s", msg.path), false)

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeRules:
			return m.updateRules(msg)
		case modeHelp:
			return m.updateHelp(msg)
		default:
			return m.updateTable(msg)
		}
	}

	// Modal components may carry non-key messages (form ticks, blink).
	switch m.mode {
	case modeEdit:
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	case modeRules:
		if m.ruleEd != nil {
			return m.updateRulesMsg(msg)
		}
	}
	return m, nil
}

// updateTable handles keys in the base grid mode.
func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.watch != nil {
			m.watch.Stop()
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < len(m.columns)-1 {
			m.col++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.visible) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}

	case " ":
		if row := m.cursorRow(); row != nil {
			m.store.ToggleSelect(row.ID)
		}

	case "a":
		return m.toggleSelectAll()

	case "tab":
		if row := m.cursorRow(); row != nil && m.index.HasChildren(row) {
			m.view.ToggleExpand(row.ID)
			m.refresh()
		}
	case "backspace":
		m.view.CollapseAll()
		m.refresh()

	case "]", "n":
		m.view.NextPage(m.view.TotalPages(m.index, m.store.Len()))
		m.cursor = 0
		m.refresh()
	case "[", "p":
		m.view.PrevPage(m.view.TotalPages(m.index, m.store.Len()))
		m.cursor = 0
		m.refresh()

	case "enter":
		return m.startEdit()

	case "d":
		return m.deleteSelected()

	case "+":
		return m.addRow()

	case "P":
		return m.assignParent()

	case "r":
		if m.backend == nil {
			return m, m.setNotice("no backend: rules unavailable", true)
		}
		return m, loadActiveRulesCmd(m.backend)

	case "R":
		if m.backend == nil {
			return m, m.setNotice("no backend: rules unavailable", true)
		}
		m.ruleEd = newRuleEditor(m.theme)
		m.mode = modeRules
		return m, m.ruleEd.Init()

	case "/":
		if m.backend == nil {
			return m, m.setNotice("no backend: search unavailable", true)
		}
		m.filter = newFilterDialog(m.theme)
		m.mode = modeFilter
		return m, m.filter.Init()

	case "c":
		return m.clearSearch()

	case "x":
		return m.exportCSV(false)
	case "y":
		return m.exportCSV(true)

	case "s":
		return m.saveSession()

	case "S":
		m.showStats = !m.showStats

	case "?":
		m.mode = modeHelp
		return m, m.help.open(m.width, m.height)
	}

	return m, nil
}

// toggleSelectAll selects every visible row, or clears the selection when
// everything visible is already selected.
func (m Model) toggleSelectAll() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	if grid.AllSelected(m.visible) {
		m.store.ClearSelection()
		return m, nil
	}
	ids := make([]string, 0, len(m.visible))
	for _, row := range m.visible {
		ids = append(ids, row.ID)
	}
	m.store.SelectAll(ids)
	return m, nil
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	row := m.cursorRow()
	if row == nil {
		return m, nil
	}
	field := m.columns[m.col].Field
	if err := m.edit.StartEdit(row, field); err != nil {
		return m, m.setNotice(err.Error(), true)
	}
	m.editInput.SetValue(m.edit.Pending())
	m.editInput.CursorEnd()
	m.editInput.Focus()
	m.mode = modeEdit
	return m, textinput.Blink
}

// updateEdit handles keys while a cell edit is in flight.
func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.edit.Cancel()
		m.editInput.Blur()
		m.mode = modeTable
		return m, nil

	case "enter":
		m.edit.SetPending(m.editInput.Value())
		result := m.edit.Commit()
		m.editInput.Blur()
		m.mode = modeTable
		m.refresh()

		if result.Lookup != nil {
			if m.backend == nil {
				return m, m.setNotice("no backend: lookup unavailable", true)
			}
			m.lookupGen++
			debug.Log("lookup gen=%d row=%s key=%s", m.lookupGen, result.Lookup.RowID, result.Lookup.Key)
			job := &LookupJob{RowID: result.Lookup.RowID, Key: result.Lookup.Key}
			return m, tea.Batch(
				m.setNotice(fmt.Sprintf("looking up %s…", result.Lookup.Key), false),
				lookupCmd(m.backend, m.lookupGen, job),
			)
		}
		if result.Change != nil {
			return m, m.setNotice(
				fmt.Sprintf("%s = %s", result.Change.Field, result.Change.NewValue.Text()), false)
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleLookupResult(msg lookupResultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.lookupGen {
		debug.Log("discarding stale lookup gen=%d (current %d)", msg.gen, m.lookupGen)
		return m, nil
	}

	if msg.err != nil {
		if msg.notFound {
			m.store.FillSentinel(msg.rowID, m.lookupDependentFields())
			m.refresh()
			return m, m.setNotice("cusip not found", true)
		}
		return m, m.setNotice(fmt.Sprintf("lookup failed: %v", msg.err), true)
	}

	patch := make(map[string]model.Value, len(m.lookupDependentFields()))
	for _, field := range m.lookupDependentFields() {
		if v, ok := lookupField(msg.fields, field); ok {
			patch[field] = v
		}
	}
	m.store.UpdateRowFields(msg.rowID, patch)
	m.refresh()
	return m, m.setNotice("lookup complete", false)
}

func (m *Model) lookupDependentFields() []string {
	return []string{"ticker", "bid", "mid", "ask", "sector", "rank"}
}

// lookupField reads a field from a loose field map with the same aliasing
// the row accessor applies.
func lookupField(fields map[string]model.Value, name string) (model.Value, bool) {
	row := model.Row{Fields: fields}
	return row.Field(name)
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	ids := m.store.SelectedIDs()
	if len(ids) == 0 {
		return m, m.setNotice("nothing selected", true)
	}
	cascade := m.index.CascadeSet(ids)
	deleted := m.store.DeleteRows(cascade)
	m.refresh()
	return m, m.setNotice(fmt.Sprintf("deleted %d rows", deleted), false)
}

func (m Model) addRow() (tea.Model, tea.Cmd) {
	row := model.Row{IsParent: true, Fields: map[string]model.Value{}}
	inserted := m.store.InsertRow(row, true)
	m.view.GoToPage(1, m.view.TotalPages(m.index, m.store.Len()))
	m.cursor = 0
	m.refresh()
	return m, m.setNotice(fmt.Sprintf("added row %s", inserted.ID), false)
}

// assignParent promotes exactly one selected row to a top-level parent.
func (m Model) assignParent() (tea.Model, tea.Cmd) {
	ids := m.store.SelectedIDs()
	if len(ids) != 1 {
		return m, m.setNotice("select exactly one row to make a parent", true)
	}
	row := m.store.Get(ids[0])
	if row == nil {
		return m, m.setNotice("select exactly one row to make a parent", true)
	}

	row.IsParent = true
	row.ParentRef = ""
	m.store.ClearSelection()
	m.refresh()
	return m, m.setNotice(fmt.Sprintf("%s is now a parent", row.ID), false)
}

func (m Model) handleRulesLoaded(msg rulesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.setNotice(fmt.Sprintf("loading rules failed: %v", msg.err), true)
	}
	kept, excluded := rules.Apply(m.store.Rows(), msg.rules)
	m.store.ReplaceAll(kept)
	m.refresh()
	return m, m.setNotice(
		fmt.Sprintf("rules removed %d rows (%d active)", excluded, len(msg.rules)), false)
}

func (m Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.searchGen {
		debug.Log("discarding stale search gen=%d (current %d)", msg.gen, m.searchGen)
		return m, nil
	}
	if msg.err != nil {
		return m, m.setNotice(fmt.Sprintf("search failed: %v", msg.err), true)
	}
	m.store.Load(msg.rows)
	m.searchTotal = msg.total
	m.view.Reset()
	m.cursor = 0
	m.refresh()
	return m, m.setNotice(fmt.Sprintf("%d matches", msg.total), false)
}

// clearSearch restores the full data set after a server-side search.
func (m Model) clearSearch() (tea.Model, tea.Cmd) {
	if m.searchTotal < 0 {
		return m, nil
	}
	m.store.Load(m.baseline)
	m.searchTotal = -1
	m.view.Reset()
	m.cursor = 0
	m.refresh()
	return m, m.setNotice("search cleared", false)
}

func (m Model) exportCSV(toClipboard bool) (tea.Model, tea.Cmd) {
	rows := m.store.Selected()
	if len(rows) == 0 {
		rows = m.visible
	}
	if len(rows) == 0 {
		return m, m.setNotice("nothing to export", true)
	}

	headers := make([]string, len(m.columns))
	fields := make([]string, len(m.columns))
	for i, col := range m.columns {
		headers[i] = col.Title
		fields[i] = col.Field
	}

	if toClipboard {
		return m, yankCSVCmd(headers, fields, rows)
	}
	return m, exportCSVCmd(m.cfg.Export.Dir, m.cfg.Export.Prefix, headers, fields, rows)
}

func (m Model) saveSession() (tea.Model, tea.Cmd) {
	if m.backend == nil {
		return m, m.setNotice("no backend: session save unavailable", true)
	}
	sessionID := time.Now().UTC().Format("20060102T150405Z")
	return m, saveSessionCmd(m.backend, sessionID, m.store.Rows())
}

// updateFilter routes keys to the filter dialog.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	done, submitted := m.filter.Update(msg)
	if !done {
		return m, nil
	}
	m.mode = modeTable
	if !submitted {
		return m, nil
	}

	conds := m.compiler.CompileAll(m.filter.Conditions())
	m.searchGen++
	return m, tea.Batch(
		m.setNotice("searching…", false),
		searchCmd(m.backend, m.searchGen, conds, 0, m.cfg.Table.PageSize*10),
	)
}

// updateRules routes keys to the rule editor form.
func (m Model) updateRules(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = modeTable
		m.ruleEd = nil
		return m, nil
	}
	return m.updateRulesMsg(msg)
}

func (m Model) updateRulesMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.ruleEd.Update(msg)
	if m.ruleEd.Done() {
		rule, ok := m.ruleEd.Rule()
		m.mode = modeTable
		m.ruleEd = nil
		if !ok {
			return m, nil
		}
		return m, saveRuleCmd(m.backend, rule)
	}
	return m, cmd
}

// updateHelp handles keys while the help overlay is open.
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "?":
		m.mode = modeTable
		return m, nil
	}
	m.help.scroll(msg)
	return m, nil
}
