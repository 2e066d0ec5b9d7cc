package ui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/colorgrid/internal/datasource"
	"github.com/vanderheijden86/colorgrid/pkg/debug"
	"github.com/vanderheijden86/colorgrid/pkg/export"
	"github.com/vanderheijden86/colorgrid/pkg/model"
	"github.com/vanderheijden86/colorgrid/pkg/watcher"
)

// Backend is the remote collaborator surface the grid needs. The SQLite
// store implements it; tests substitute fakes.
type Backend interface {
	LookupByMessageID(messageID string) (model.Row, error)
	Search(conds []model.CompiledCondition, skip, limit int) (datasource.SearchResult, error)
	ListActiveRules() ([]model.Rule, error)
	SaveRule(rule model.Rule) (int64, error)
	SaveSession(sessionID string, snapshot []*model.Row) (int, error)
}

// ruleSavedMsg reports a rule persisted from the rule editor.
type ruleSavedMsg struct {
	id   int64
	name string
	err  error
}

// saveRuleCmd persists a rule built in the rule editor.
func saveRuleCmd(backend Backend, rule model.Rule) tea.Cmd {
	return func() tea.Msg {
		id, err := backend.SaveRule(rule)
		return ruleSavedMsg{id: id, name: rule.Name, err: err}
	}
}

// rowsReloadedMsg delivers a fresh row set after a data file change.
type rowsReloadedMsg struct {
	rows []model.Row
	err  error
}

// lookupResultMsg delivers the outcome of a cusip lookup. gen is the request
// generation; results from superseded requests are discarded.
type lookupResultMsg struct {
	gen      int
	rowID    string
	fields   map[string]model.Value
	notFound bool
	err      error
}

// searchResultMsg delivers one page of server-side search results.
type searchResultMsg struct {
	gen   int
	total int
	rows  []model.Row
	err   error
}

// rulesLoadedMsg delivers the active rule set for a run-rules action.
type rulesLoadedMsg struct {
	rules []model.Rule
	err   error
}

// sessionSavedMsg reports a completed session save.
type sessionSavedMsg struct {
	saved int
	err   error
}

// exportDoneMsg reports a completed CSV export or clipboard copy.
type exportDoneMsg struct {
	path      string
	clipboard bool
	err       error
}

// fileChangedMsg signals that the watched data file changed on disk.
type fileChangedMsg struct{}

// watchErrMsg reports a watcher failure.
type watchErrMsg struct{ err error }

// clearNoticeMsg expires the transient status notice.
type clearNoticeMsg struct{ id int }

// reloadRowsCmd re-reads the data directory off the Update loop.
func reloadRowsCmd(dataDir string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		rows, err := datasource.LoadRowsFromDir(dataDir)
		debug.LogTiming("reload rows", time.Since(start))
		return rowsReloadedMsg{rows: rows, err: err}
	}
}

// lookupCmd resolves a business key against the backend.
func lookupCmd(backend Backend, gen int, req *LookupJob) tea.Cmd {
	return func() tea.Msg {
		row, err := backend.LookupByMessageID(req.Key)
		if err != nil {
			return lookupResultMsg{
				gen:      gen,
				rowID:    req.RowID,
				notFound: errors.Is(err, datasource.ErrNotFound),
				err:      err,
			}
		}
		return lookupResultMsg{gen: gen, rowID: req.RowID, fields: row.Fields}
	}
}

// LookupJob is an in-flight lookup keyed to a row.
type LookupJob struct {
	RowID string
	Key   string
}

// searchCmd runs a compiled search against the backend.
func searchCmd(backend Backend, gen int, conds []model.CompiledCondition, skip, limit int) tea.Cmd {
	return func() tea.Msg {
		result, err := backend.Search(conds, skip, limit)
		return searchResultMsg{gen: gen, total: result.TotalCount, rows: result.Rows, err: err}
	}
}

// loadActiveRulesCmd fetches the active rules for a run-rules action.
func loadActiveRulesCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		ruleSet, err := backend.ListActiveRules()
		return rulesLoadedMsg{rules: ruleSet, err: err}
	}
}

// saveSessionCmd persists the current working set.
func saveSessionCmd(backend Backend, sessionID string, snapshot []*model.Row) tea.Cmd {
	return func() tea.Msg {
		saved, err := backend.SaveSession(sessionID, snapshot)
		return sessionSavedMsg{saved: saved, err: err}
	}
}

// exportCSVCmd writes the CSV export file.
func exportCSVCmd(dir, prefix string, headers, fields []string, rows []*model.Row) tea.Cmd {
	return func() tea.Msg {
		path, err := export.WriteFile(dir, prefix, headers, fields, rows)
		return exportDoneMsg{path: path, err: err}
	}
}

// yankCSVCmd copies the CSV rendering of the rows to the clipboard.
func yankCSVCmd(headers, fields []string, rows []*model.Row) tea.Cmd {
	return func() tea.Msg {
		err := export.CopyToClipboard(headers, fields, rows)
		return exportDoneMsg{clipboard: true, err: err}
	}
}

// watchFileCmd blocks on the watcher's change channel and re-arms itself
// after each delivery.
func watchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return fileChangedMsg{}
	}
}

// clearNoticeAfter expires the notice with the given id unless a newer
// notice replaced it.
func clearNoticeAfter(d time.Duration, id int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}
