package grid

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

func TestLoad_SynthesizesIDsFromBusinessKey(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{
		{Fields: map[string]model.Value{"messageId": model.String("MSG-1")}},
		{Fields: map[string]model.Value{"ticker": model.String("ACME")}},
		{ID: "explicit"},
	})

	want := []string{"row_MSG-1", "row_1", "explicit"}
	for i, row := range s.Rows() {
		if row.ID != want[i] {
			t.Errorf("row %d id = %q, want %q", i, row.ID, want[i])
		}
	}
}

func TestLoad_CollisionsGetNumericSuffix(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{
		{Fields: map[string]model.Value{"messageId": model.String("DUP")}},
		{Fields: map[string]model.Value{"messageId": model.String("DUP")}},
		{Fields: map[string]model.Value{"messageId": model.String("DUP")}},
	})

	want := []string{"row_DUP", "row_DUP_2", "row_DUP_3"}
	for i, row := range s.Rows() {
		if row.ID != want[i] {
			t.Errorf("row %d id = %q, want %q", i, row.ID, want[i])
		}
	}
	for _, id := range want {
		if s.Get(id) == nil {
			t.Errorf("id %q not retrievable", id)
		}
	}
}

func TestLoad_ResetsSelection(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a", Selected: true}})
	if s.Get("a").Selected {
		t.Error("selection must reset on load")
	}
}

func TestSelection_UnknownIDsSkipped(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a"}, {ID: "b"}})

	s.ToggleSelect("nope")
	s.SelectAll([]string{"a", "ghost", "b"})

	if got := len(s.Selected()); got != 2 {
		t.Fatalf("selected %d rows, want 2", got)
	}
	s.ToggleSelect("a")
	if ids := s.SelectedIDs(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("SelectedIDs = %v, want [b]", ids)
	}
	s.ClearSelection()
	if len(s.Selected()) != 0 {
		t.Error("ClearSelection left rows selected")
	}
}

func TestUpdateField_EqualValueIsNoOp(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a", Fields: map[string]model.Value{"bid": model.Number(99.5)}}})

	if _, changed := s.UpdateField("a", "bid", model.Number(99.5)); changed {
		t.Error("writing the current value must not report a change")
	}

	change, changed := s.UpdateField("a", "bid", model.Number(100))
	if !changed {
		t.Fatal("expected change")
	}
	if old, _ := change.OldValue.Float(); old != 99.5 {
		t.Errorf("OldValue = %v", change.OldValue)
	}
	if nv, _ := change.NewValue.Float(); nv != 100 {
		t.Errorf("NewValue = %v", change.NewValue)
	}

	if _, changed := s.UpdateField("ghost", "bid", model.Number(1)); changed {
		t.Error("unknown id must be silently ignored")
	}
}

func TestFillSentinel(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a", Fields: map[string]model.Value{"bid": model.Number(1)}}})

	if !s.FillSentinel("a", []string{"bid", "ask"}) {
		t.Fatal("expected true for live row")
	}
	for _, f := range []string{"bid", "ask"} {
		if got := s.Get("a").FieldOrEmpty(f).Text(); got != SentinelError {
			t.Errorf("%s = %q, want %q", f, got, SentinelError)
		}
	}
	if s.FillSentinel("gone", []string{"bid"}) {
		t.Error("expected false for deleted row")
	}
}

func TestDeleteRows_Idempotent(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	if n := s.DeleteRows([]string{"b", "ghost", "b"}); n != 1 {
		t.Errorf("first delete removed %d, want 1", n)
	}
	if n := s.DeleteRows([]string{"b"}); n != 0 {
		t.Errorf("repeat delete removed %d, want 0", n)
	}
	if s.Len() != 2 || s.Get("b") != nil {
		t.Errorf("store after delete: len=%d", s.Len())
	}
	if ids := []string{s.Rows()[0].ID, s.Rows()[1].ID}; ids[0] != "a" || ids[1] != "c" {
		t.Errorf("order disturbed: %v", ids)
	}
}

func TestInsertRow_HeadAndDedupe(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a"}})

	inserted := s.InsertRow(model.Row{ID: "a"}, true)
	if inserted.ID != "a_2" {
		t.Errorf("dedup id = %q, want a_2", inserted.ID)
	}
	if s.Rows()[0] != inserted {
		t.Error("head insert must surface first")
	}

	tail := s.InsertRow(model.Row{}, false)
	if tail.ID == "" || s.Get(tail.ID) != tail {
		t.Errorf("empty-id insert got %q", tail.ID)
	}
	if s.Rows()[s.Len()-1] != tail {
		t.Error("tail insert must append")
	}
}

func TestReplaceAll_PreservesPointers(t *testing.T) {
	s := NewRowStore("messageId")
	s.Load([]model.Row{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	s.ToggleSelect("a")

	keep := []*model.Row{s.Get("a"), s.Get("c")}
	s.ReplaceAll(keep)

	if s.Len() != 2 || s.Get("b") != nil {
		t.Fatalf("len=%d after replace", s.Len())
	}
	if !s.Get("a").Selected {
		t.Error("surviving selection lost across ReplaceAll")
	}
}

// Every id a load assigns is unique and retrievable, whatever the mix of
// explicit ids, shared business keys, and blank rows.
func TestLoad_IDUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		rows := make([]model.Row, n)
		for i := range rows {
			switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("shape%d", i)) {
			case 0:
				rows[i].ID = rapid.SampledFrom([]string{"x", "y", "row_k"}).Draw(t, fmt.Sprintf("id%d", i))
			case 1:
				key := rapid.SampledFrom([]string{"k", "x", ""}).Draw(t, fmt.Sprintf("key%d", i))
				rows[i].Fields = map[string]model.Value{"messageId": model.String(key)}
			}
		}

		s := NewRowStore("messageId")
		s.Load(rows)

		seen := make(map[string]bool, n)
		for _, row := range s.Rows() {
			if row.ID == "" {
				t.Fatal("blank id assigned")
			}
			if seen[row.ID] {
				t.Fatalf("duplicate id %q", row.ID)
			}
			seen[row.ID] = true
			if s.Get(row.ID) != row {
				t.Fatalf("id %q not retrievable", row.ID)
			}
		}
	})
}
