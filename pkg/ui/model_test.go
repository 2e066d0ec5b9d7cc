package ui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/colorgrid/internal/datasource"
	"github.com/vanderheijden86/colorgrid/pkg/config"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// fakeBackend records calls and serves canned responses.
type fakeBackend struct {
	lookupRow  model.Row
	lookupErr  error
	searchRes  datasource.SearchResult
	rules      []model.Rule
	savedRules []model.Rule
	sessions   map[string]int
}

func (f *fakeBackend) LookupByMessageID(messageID string) (model.Row, error) {
	return f.lookupRow, f.lookupErr
}

func (f *fakeBackend) Search(conds []model.CompiledCondition, skip, limit int) (datasource.SearchResult, error) {
	return f.searchRes, nil
}

func (f *fakeBackend) ListActiveRules() ([]model.Rule, error) {
	return f.rules, nil
}

func (f *fakeBackend) SaveRule(rule model.Rule) (int64, error) {
	f.savedRules = append(f.savedRules, rule)
	return int64(len(f.savedRules)), nil
}

func (f *fakeBackend) SaveSession(sessionID string, snapshot []*model.Row) (int, error) {
	if f.sessions == nil {
		f.sessions = make(map[string]int)
	}
	f.sessions[sessionID] = len(snapshot)
	return len(snapshot), nil
}

func testRows() []model.Row {
	return []model.Row{
		{ID: "p1", IsParent: true, Fields: map[string]model.Value{
			"messageId": model.String("MSG-1"),
			"ticker":    model.String("ACME"),
			"cusip":     model.String("912828XG8"),
			"bid":       model.Number(99.5),
		}},
		{ID: "c1", ParentRef: "p1", Fields: map[string]model.Value{
			"messageId": model.String("MSG-2"),
			"ticker":    model.String("ACME"),
		}},
		{ID: "p2", IsParent: true, Fields: map[string]model.Value{
			"messageId": model.String("MSG-3"),
			"ticker":    model.String("GLOBEX"),
		}},
	}
}

func newTestModel(t *testing.T, backend Backend) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	return New(cfg, testRows(), backend, t.TempDir(), nil)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNavigation_CursorAndColumn(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, "j")
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j", m.cursor)
	}
	m = press(t, m, "k", "k")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, must clamp at 0", m.cursor)
	}
	m = press(t, m, "l", "l")
	if m.col != 2 {
		t.Errorf("col = %d after l l", m.col)
	}
	m = press(t, m, "G")
	if m.cursor != len(m.visible)-1 {
		t.Errorf("G moved cursor to %d", m.cursor)
	}
}

func TestSelection_SpaceAndSelectAll(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, "space")
	if !m.store.Get("p1").Selected {
		t.Error("space did not select the cursor row")
	}

	m = press(t, m, "a")
	for _, row := range m.visible {
		if !row.Selected {
			t.Fatalf("a did not select visible row %s", row.ID)
		}
	}

	// Everything visible selected: a again clears.
	m = press(t, m, "a")
	if len(m.store.Selected()) != 0 {
		t.Error("second a did not clear the selection")
	}
}

func TestExpandCollapse(t *testing.T) {
	m := newTestModel(t, nil)

	if len(m.visible) != 2 {
		t.Fatalf("collapsed view shows %d rows, want 2 parents", len(m.visible))
	}

	m = press(t, m, "tab")
	if len(m.visible) != 3 {
		t.Fatalf("expanded view shows %d rows, want parent+child+parent", len(m.visible))
	}
	if m.visible[1].ID != "c1" {
		t.Errorf("child not under parent: %v", m.visible[1].ID)
	}

	m = press(t, m, "backspace")
	if len(m.visible) != 2 {
		t.Errorf("collapse all left %d rows visible", len(m.visible))
	}
}

func TestEditCommit_FieldChange(t *testing.T) {
	backend := &fakeBackend{}
	cfg := config.DefaultConfig()
	cfg.Edit.LookupField = "" // direct edits on any field
	m := New(cfg, testRows(), backend, t.TempDir(), nil)

	// Column 4 is Bid.
	m = press(t, m, "l", "l", "l", "l", "enter")
	if m.mode != modeEdit {
		t.Fatal("enter did not start an edit")
	}

	m.editInput.SetValue("101.25")
	m = press(t, m, "enter")

	if m.mode != modeTable {
		t.Error("commit did not return to table mode")
	}
	if f, _ := m.store.Get("p1").FieldOrEmpty("bid").Float(); f != 101.25 {
		t.Errorf("bid = %v after commit", f)
	}
	if !strings.Contains(m.notice, "bid") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestEdit_NonEditableFieldRejected(t *testing.T) {
	m := newTestModel(t, nil)

	// Column 0 is Message ID, non-editable by default.
	m = press(t, m, "enter")
	if m.mode != modeTable {
		t.Error("edit started on a non-editable field")
	}
	if m.notice == "" {
		t.Error("rejection must surface a notice")
	}
}

func TestEdit_EscCancels(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Edit.LookupField = ""
	m := New(cfg, testRows(), nil, t.TempDir(), nil)

	m = press(t, m, "l", "enter")
	if m.mode != modeEdit {
		t.Fatal("edit did not start")
	}
	m.editInput.SetValue("ZZZ")
	m = press(t, m, "esc")

	if m.mode != modeTable || m.edit.Active() {
		t.Error("esc did not cancel the edit")
	}
	if got := m.store.Get("p1").FieldOrEmpty("ticker").Text(); got != "ACME" {
		t.Errorf("cancelled edit wrote through: %q", got)
	}
}

func TestLookupFlow_CommitThenResult(t *testing.T) {
	backend := &fakeBackend{
		lookupRow: model.Row{Fields: map[string]model.Value{
			"ticker": model.String("NEWCO"),
			"bid":    model.Number(55),
		}},
	}
	m := newTestModel(t, backend)

	// Column 2 is CUSIP, the lookup field.
	m = press(t, m, "l", "l", "enter")
	if m.mode != modeEdit {
		t.Fatal("lookup field edit did not start")
	}
	m.editInput.SetValue("38141G104")
	m = press(t, m, "enter")

	if m.lookupGen != 1 {
		t.Fatalf("lookupGen = %d after commit", m.lookupGen)
	}

	m, _ = update(t, m, lookupResultMsg{
		gen:   1,
		rowID: "p1",
		fields: map[string]model.Value{
			"ticker": model.String("NEWCO"),
			"bid":    model.Number(55),
		},
	})

	row := m.store.Get("p1")
	if got := row.FieldOrEmpty("ticker").Text(); got != "NEWCO" {
		t.Errorf("ticker = %q after lookup", got)
	}
	if f, _ := row.FieldOrEmpty("bid").Float(); f != 55 {
		t.Errorf("bid = %v after lookup", f)
	}
}

func TestLookupFlow_StaleGenerationDiscarded(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.lookupGen = 2

	m, _ = update(t, m, lookupResultMsg{
		gen:    1,
		rowID:  "p1",
		fields: map[string]model.Value{"ticker": model.String("STALE")},
	})

	if got := m.store.Get("p1").FieldOrEmpty("ticker").Text(); got != "ACME" {
		t.Errorf("stale lookup applied: ticker = %q", got)
	}
}

func TestLookupFlow_NotFoundFillsSentinel(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.lookupGen = 1

	m, _ = update(t, m, lookupResultMsg{
		gen:      1,
		rowID:    "p1",
		notFound: true,
		err:      fmt.Errorf("cusip X: %w", datasource.ErrNotFound),
	})

	row := m.store.Get("p1")
	for _, field := range []string{"ticker", "bid", "mid", "ask"} {
		if got := row.FieldOrEmpty(field).Text(); got != "ERROR" {
			t.Errorf("%s = %q, want sentinel", field, got)
		}
	}
}

func TestRulesApplied(t *testing.T) {
	backend := &fakeBackend{
		rules: []model.Rule{{
			ID: 1, Name: "drop acme", Active: true,
			Conditions: []model.Condition{{
				Type: model.CondWhere, Column: "ticker", Operator: "equal_to", Value: "ACME",
			}},
		}},
	}
	m := newTestModel(t, backend)

	m, _ = update(t, m, rulesLoadedMsg{rules: backend.rules})

	if m.store.Len() != 1 || m.store.Get("p2") == nil {
		t.Errorf("rules left %d rows; want only p2", m.store.Len())
	}
	if !strings.Contains(m.notice, "removed 2") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestSearchAndClear_RestoresBaseline(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.searchGen = 1

	m, _ = update(t, m, searchResultMsg{
		gen:   1,
		total: 40,
		rows: []model.Row{{ID: "hit", Fields: map[string]model.Value{
			"messageId": model.String("MSG-9"),
		}}},
	})

	if m.searchTotal != 40 || m.store.Len() != 1 {
		t.Fatalf("search did not replace the working set: total=%d len=%d", m.searchTotal, m.store.Len())
	}

	m = press(t, m, "c")
	if m.searchTotal != -1 {
		t.Error("clear did not reset the search marker")
	}
	if m.store.Len() != 3 || m.store.Get("p1") == nil {
		t.Errorf("baseline not restored: len=%d", m.store.Len())
	}
}

func TestSearchResult_StaleGenerationDiscarded(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.searchGen = 5

	m, _ = update(t, m, searchResultMsg{gen: 4, total: 1, rows: []model.Row{{ID: "stale"}}})
	if m.store.Len() != 3 {
		t.Error("stale search replaced the working set")
	}
}

func TestDeleteSelected_CascadesToChildren(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, "space", "d") // select p1, delete

	if m.store.Get("p1") != nil || m.store.Get("c1") != nil {
		t.Error("cascade delete left parent or child behind")
	}
	if m.store.Get("p2") == nil {
		t.Error("unrelated row deleted")
	}
}

func TestDelete_NothingSelectedNotices(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(t, m, "d")
	if m.store.Len() != 3 {
		t.Error("delete with no selection removed rows")
	}
	if !m.noticeErr {
		t.Error("expected an error notice")
	}
}

func TestAddRow_SurfacesAtHead(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(t, m, "+")

	if m.store.Len() != 4 {
		t.Fatalf("store len = %d", m.store.Len())
	}
	if !m.store.Rows()[0].IsParent {
		t.Error("new row must be a parent")
	}
	if m.cursor != 0 || m.view.Page() != 1 {
		t.Errorf("cursor=%d page=%d after add", m.cursor, m.view.Page())
	}
}

func TestAssignParent_PromotesSingleSelection(t *testing.T) {
	m := newTestModel(t, nil)

	// Expand p1, select its child c1, promote it.
	m = press(t, m, "tab", "j", "space", "P")

	c1 := m.store.Get("c1")
	if !c1.IsParent {
		t.Errorf("c1 not promoted: %+v", c1)
	}
	if c1.ParentRef != "" {
		t.Errorf("promoted row kept stale parent reference %q", c1.ParentRef)
	}
	if len(m.store.Selected()) != 0 {
		t.Error("selection must clear after promotion")
	}
}

func TestAssignParent_RequiresExactlyOneSelected(t *testing.T) {
	m := newTestModel(t, nil)

	// No selection.
	m = press(t, m, "P")
	if !m.noticeErr {
		t.Error("promotion with no selection must surface an error notice")
	}

	// Two selected.
	m = press(t, m, "space", "j", "space", "P")
	if !m.noticeErr {
		t.Error("promotion with two selected must surface an error notice")
	}
	if len(m.store.Selected()) != 2 {
		t.Error("rejected promotion must leave the selection intact")
	}
}

func TestRowsReloaded_RebaselinesAndResets(t *testing.T) {
	m := newTestModel(t, nil)
	m.searchTotal = 10

	fresh := []model.Row{{ID: "n1", IsParent: true, Fields: map[string]model.Value{
		"messageId": model.String("NEW-1"),
	}}}
	m, _ = update(t, m, rowsReloadedMsg{rows: fresh})

	if m.store.Len() != 1 || m.store.Get("n1") == nil {
		t.Errorf("reload did not replace rows: len=%d", m.store.Len())
	}
	if m.searchTotal != -1 {
		t.Error("reload must clear any active search")
	}
	if len(m.baseline) != 1 {
		t.Error("baseline not replaced")
	}
}

func TestBackendGatedKeys_WithoutBackend(t *testing.T) {
	m := newTestModel(t, nil)

	for _, key := range []string{"r", "R", "/", "s"} {
		m2 := press(t, m, key)
		if m2.mode != modeTable {
			t.Errorf("key %q opened a modal without a backend", key)
		}
		if !m2.noticeErr {
			t.Errorf("key %q gave no error notice", key)
		}
	}
}

func TestSaveSession_CallsBackend(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if cmd == nil {
		t.Fatal("s produced no command")
	}
	msg := cmd()
	saved, ok := msg.(sessionSavedMsg)
	if !ok || saved.err != nil || saved.saved != 3 {
		t.Errorf("session save msg = %+v", msg)
	}
	if len(backend.sessions) != 1 {
		t.Errorf("backend sessions = %v", backend.sessions)
	}
}

func TestNotice_ExpiresOnlyCurrentID(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(t, m, "d") // raises "nothing selected"
	id := m.noticeID

	// An older notice expiry must not clear a newer notice.
	m, _ = update(t, m, clearNoticeMsg{id: id - 1})
	if m.notice == "" {
		t.Error("stale expiry cleared a live notice")
	}
	m, _ = update(t, m, clearNoticeMsg{id: id})
	if m.notice != "" {
		t.Error("notice not cleared by its own expiry")
	}
}

func TestView_RendersHeaderAndRows(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})

	out := m.View()
	for _, want := range []string{"Ticker", "ACME", "GLOBEX"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
