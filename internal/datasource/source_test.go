package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSourceFile(t *testing.T, dir, name, content string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mod.IsZero() {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestDiscoverSources_SortsByFreshness(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeSourceFile(t, dir, "colors.jsonl", `{"messageId":"MSG-1"}`+"\n", now.Add(-time.Hour))
	writeSourceFile(t, dir, "session.jsonl", `{"messageId":"MSG-2"}`+"\n", now)
	writeSourceFile(t, dir, "colors.jsonl.backup.jsonl", "junk", now)

	sources, err := DiscoverSources(DiscoveryOptions{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("discovered %d sources: %v", len(sources), sources)
	}
	if filepath.Base(sources[0].Path) != "session.jsonl" {
		t.Errorf("freshest first: got %s", sources[0].Path)
	}
}

func TestDiscoverSources_ValidationFiltersInvalid(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "colors.jsonl", `{"messageId":"MSG-1"}`+"\n", time.Time{})
	// colors.db exists but is not a database, so validation rejects it.
	writeSourceFile(t, dir, "colors.db", "not a database", time.Time{})

	sources, err := DiscoverSources(DiscoveryOptions{
		DataDir:                dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0].Type != SourceTypeJSONLLocal {
		t.Errorf("sources = %v", sources)
	}
	if sources[0].RowCount != 1 {
		t.Errorf("RowCount = %d", sources[0].RowCount)
	}
}

func TestValidateSource_JSONL(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "colors.jsonl",
		`{"messageId":"MSG-1"}`+"\n"+`{"messageId":"MSG-2"}`+"\n", time.Time{})

	s := DataSource{Type: SourceTypeJSONLLocal, Path: path}
	if err := ValidateSource(&s); err != nil {
		t.Fatal(err)
	}
	if !s.Valid || s.RowCount != 2 {
		t.Errorf("source = %+v", s)
	}
}

func TestValidateSource_UnknownType(t *testing.T) {
	s := DataSource{Type: SourceType("ftp")}
	if err := ValidateSource(&s); err == nil || s.Valid {
		t.Errorf("unknown type accepted: %+v", s)
	}
}

func TestSelectBestSource(t *testing.T) {
	now := time.Now()
	sqlite := DataSource{Type: SourceTypeSQLite, Path: "colors.db", Priority: PrioritySQLite}
	jsonl := DataSource{Type: SourceTypeJSONLLocal, Path: "colors.jsonl", Priority: PriorityJSONLLocal}

	t.Run("sqlite freshest wins outright", func(t *testing.T) {
		a, b := sqlite, jsonl
		a.ModTime, b.ModTime = now, now.Add(-time.Minute)
		best, err := SelectBestSource([]DataSource{a, b})
		if err != nil || best.Type != SourceTypeSQLite {
			t.Errorf("best = %+v, err = %v", best, err)
		}
	})

	t.Run("near-tie goes to sqlite", func(t *testing.T) {
		a, b := jsonl, sqlite
		a.ModTime, b.ModTime = now, now.Add(-time.Second)
		best, err := SelectBestSource([]DataSource{a, b})
		if err != nil || best.Type != SourceTypeSQLite {
			t.Errorf("best = %+v, err = %v", best, err)
		}
	})

	t.Run("stale sqlite loses", func(t *testing.T) {
		a, b := jsonl, sqlite
		a.ModTime, b.ModTime = now, now.Add(-time.Minute)
		best, err := SelectBestSource([]DataSource{a, b})
		if err != nil || best.Type != SourceTypeJSONLLocal {
			t.Errorf("best = %+v, err = %v", best, err)
		}
	})

	t.Run("empty errors", func(t *testing.T) {
		if _, err := SelectBestSource(nil); err == nil {
			t.Error("expected error")
		}
	})
}
