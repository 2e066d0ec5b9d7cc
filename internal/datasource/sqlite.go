package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/colorgrid/pkg/metrics"
	"github.com/vanderheijden86/colorgrid/pkg/model"
	"github.com/vanderheijden86/colorgrid/pkg/rules"
)

// SQLiteStore provides access to a colors SQLite database: the colors table,
// the saved rule sets, and session snapshots.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Columns lifted off the colors table onto Row struct fields rather than the
// field map.
const (
	colRowID      = "row_id"
	colIsParent   = "is_parent"
	colParentRef  = "parent_message_id"
	colChildCount = "children_count"
)

// OpenSQLiteStore opens a colors database.
func OpenSQLiteStore(source DataSource) (*SQLiteStore, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read performance pragmas; failures are non-fatal.
	pragmas := []string{
		"PRAGMA cache_size = -64000",
		"PRAGMA mmap_size = 268435456",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		db.Exec(pragma)
	}

	return &SQLiteStore{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// LoadRows reads all color rows from the database. The column set is read
// dynamically so schema drift between backend versions does not break the
// load; bookkeeping columns land on the row struct, everything else in the
// field map.
func (s *SQLiteStore) LoadRows() ([]model.Row, error) {
	defer metrics.Timer(metrics.SQLiteLoad)()

	rows, err := s.db.Query("SELECT * FROM colors ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying colors: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []model.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}
		out = append(out, rowFromColumns(cols, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating colors: %w", err)
	}

	return out, nil
}

func rowFromColumns(cols []string, values []any) model.Row {
	row := model.Row{Fields: make(map[string]model.Value, len(cols))}
	for i, col := range cols {
		v := sqlValue(values[i])
		switch col {
		case colRowID:
			row.ID = model.FromAny(v).Text()
		case colIsParent:
			if f, ok := model.FromAny(v).Float(); ok {
				row.IsParent = f != 0
			}
		case colParentRef:
			row.ParentRef = model.FromAny(v).Text()
		case colChildCount:
			if f, ok := model.FromAny(v).Float(); ok {
				row.ChildCount = int(f)
			}
		default:
			row.Fields[col] = model.FromAny(v)
		}
	}
	return row
}

// sqlValue collapses driver scan types to the loader's scalar set.
func sqlValue(raw any) any {
	switch x := raw.(type) {
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	default:
		return raw
	}
}

// CountRows returns the number of color rows.
func (s *SQLiteStore) CountRows() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM colors").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting colors: %w", err)
	}
	return count, nil
}

// LookupByMessageID fetches the row with the given business key. Returns
// ErrNotFound when no row matches; any other error is a transport failure.
func (s *SQLiteStore) LookupByMessageID(messageID string) (model.Row, error) {
	rows, err := s.db.Query("SELECT * FROM colors WHERE message_id = ? LIMIT 1", messageID)
	if err != nil {
		return model.Row{}, fmt.Errorf("looking up %s: %w", messageID, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return model.Row{}, fmt.Errorf("reading columns: %w", err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Row{}, fmt.Errorf("looking up %s: %w", messageID, err)
		}
		return model.Row{}, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return model.Row{}, fmt.Errorf("scanning %s: %w", messageID, err)
	}

	return rowFromColumns(cols, values), nil
}

// SearchResult is one page of server-side search results.
type SearchResult struct {
	TotalCount int
	Rows       []model.Row
}

// Search runs the compiled conditions server-side and returns one page.
// Compiled conditions combine with AND; TotalCount reflects all matches,
// Rows only the requested window.
func (s *SQLiteStore) Search(conds []model.CompiledCondition, skip, limit int) (SearchResult, error) {
	defer metrics.Timer(metrics.SearchQuery)()

	where, args := buildWhere(conds)

	var result SearchResult
	countQuery := "SELECT COUNT(*) FROM colors" + where
	if err := s.db.QueryRow(countQuery, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("counting search results: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	pageQuery := "SELECT * FROM colors" + where + " ORDER BY rowid LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), limit, skip)

	rows, err := s.db.Query(pageQuery, pageArgs...)
	if err != nil {
		return result, fmt.Errorf("running search: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return result, fmt.Errorf("reading columns: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}
		result.Rows = append(result.Rows, rowFromColumns(cols, values))
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterating search results: %w", err)
	}

	return result, nil
}

// buildWhere translates compiled conditions to a SQL predicate. Compiled
// conditions are conjunctive.
func buildWhere(conds []model.CompiledCondition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}

	var clauses []string
	var args []any
	for _, cond := range conds {
		clause, clauseArgs := condClause(cond)
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func condClause(cond model.CompiledCondition) (string, []any) {
	col := strings.ToLower(cond.Field)

	switch rules.NormalizeOperator(cond.Operator) {
	case rules.OpEqual:
		return fmt.Sprintf("lower(CAST(%s AS TEXT)) = lower(?)", col), []any{cond.Value}
	case rules.OpNotEqual:
		return fmt.Sprintf("lower(CAST(%s AS TEXT)) <> lower(?)", col), []any{cond.Value}
	case rules.OpContains:
		return fmt.Sprintf("instr(lower(CAST(%s AS TEXT)), lower(?)) > 0", col), []any{cond.Value}
	case rules.OpNotContains:
		return fmt.Sprintf("instr(lower(CAST(%s AS TEXT)), lower(?)) = 0", col), []any{cond.Value}
	case rules.OpStartsWith:
		return fmt.Sprintf("lower(CAST(%s AS TEXT)) LIKE lower(?) || '%%'", col), []any{cond.Value}
	case rules.OpEndsWith:
		return fmt.Sprintf("lower(CAST(%s AS TEXT)) LIKE '%%' || lower(?)", col), []any{cond.Value}
	case rules.OpLessThan:
		return fmt.Sprintf("CAST(%s AS REAL) < CAST(? AS REAL)", col), []any{cond.Value}
	case rules.OpGreaterThan:
		return fmt.Sprintf("CAST(%s AS REAL) > CAST(? AS REAL)", col), []any{cond.Value}
	case rules.OpLessEqual:
		return fmt.Sprintf("CAST(%s AS REAL) <= CAST(? AS REAL)", col), []any{cond.Value}
	case rules.OpGreaterEqual:
		return fmt.Sprintf("CAST(%s AS REAL) >= CAST(? AS REAL)", col), []any{cond.Value}
	case rules.OpBetween:
		return fmt.Sprintf("CAST(%s AS REAL) BETWEEN CAST(? AS REAL) AND CAST(? AS REAL)", col), []any{cond.Value, cond.Value2}
	default:
		// Unknown operator matches nothing.
		return "1 = 0", nil
	}
}

// ListRules reads all saved rules, active and inactive.
func (s *SQLiteStore) ListRules() ([]model.Rule, error) {
	return s.listRules("SELECT id, name, is_active, conditions FROM rules ORDER BY id")
}

// ListActiveRules reads only the rules flagged active.
func (s *SQLiteStore) ListActiveRules() ([]model.Rule, error) {
	return s.listRules("SELECT id, name, is_active, conditions FROM rules WHERE is_active = 1 ORDER BY id")
}

func (s *SQLiteStore) listRules(query string) ([]model.Rule, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var rule model.Rule
		var active int
		var condsJSON sql.NullString
		if err := rows.Scan(&rule.ID, &rule.Name, &active, &condsJSON); err != nil {
			continue
		}
		rule.Active = active != 0

		if condsJSON.Valid && condsJSON.String != "" && condsJSON.String != "null" {
			if err := json.Unmarshal([]byte(condsJSON.String), &rule.Conditions); err != nil {
				// A rule with unreadable conditions matches nothing; keep it
				// listed so the user can see and fix it.
				rule.Conditions = nil
			}
		}

		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return out, nil
}

// SaveRule inserts or updates a rule. A zero ID inserts.
func (s *SQLiteStore) SaveRule(rule model.Rule) (int64, error) {
	condsJSON, err := json.Marshal(rule.Conditions)
	if err != nil {
		return 0, fmt.Errorf("encoding conditions: %w", err)
	}

	active := 0
	if rule.Active {
		active = 1
	}

	if rule.ID == 0 {
		res, err := s.db.Exec(
			"INSERT INTO rules (name, is_active, conditions) VALUES (?, ?, ?)",
			rule.Name, active, string(condsJSON))
		if err != nil {
			return 0, fmt.Errorf("inserting rule: %w", err)
		}
		return res.LastInsertId()
	}

	if _, err := s.db.Exec(
		"UPDATE rules SET name = ?, is_active = ?, conditions = ? WHERE id = ?",
		rule.Name, active, string(condsJSON), rule.ID); err != nil {
		return 0, fmt.Errorf("updating rule %d: %w", rule.ID, err)
	}
	return rule.ID, nil
}

// SaveSession persists a snapshot of the given rows under a session id and
// returns the number of rows saved. Re-saving a session replaces its rows.
func (s *SQLiteStore) SaveSession(sessionID string, snapshot []*model.Row) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting session save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_rows WHERE session_id = ?", sessionID); err != nil {
		return 0, fmt.Errorf("clearing session %s: %w", sessionID, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO sessions (session_id, saved_at) VALUES (?, ?) "+
			"ON CONFLICT(session_id) DO UPDATE SET saved_at = excluded.saved_at",
		sessionID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("recording session %s: %w", sessionID, err)
	}

	saved := 0
	for _, row := range snapshot {
		payload := make(map[string]any, len(row.Fields)+4)
		for k, v := range row.Fields {
			payload[k] = v.Any()
		}
		payload[colRowID] = row.ID
		payload[colIsParent] = row.IsParent
		if row.ParentRef != "" {
			payload[colParentRef] = row.ParentRef
		}
		payload[colChildCount] = row.ChildCount

		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("encoding row %s: %w", row.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO session_rows (session_id, row_id, payload) VALUES (?, ?, ?)",
			sessionID, row.ID, string(data)); err != nil {
			return 0, fmt.Errorf("saving row %s: %w", row.ID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing session %s: %w", sessionID, err)
	}
	return saved, nil
}

// DeleteRows removes the rows with the given ids and returns how many
// existed. Unknown ids are skipped.
func (s *SQLiteStore) DeleteRows(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting delete: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		res, err := tx.Exec("DELETE FROM colors WHERE row_id = ?", id)
		if err != nil {
			return 0, fmt.Errorf("deleting row %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}
	return deleted, nil
}

// GetLastModified returns the most recent update time recorded on any
// session, zero time when no session was ever saved.
func (s *SQLiteStore) GetLastModified() (time.Time, error) {
	var savedAt sql.NullString
	err := s.db.QueryRow("SELECT MAX(saved_at) FROM sessions").Scan(&savedAt)
	if err != nil {
		return time.Time{}, err
	}
	if !savedAt.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, savedAt.String)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}
