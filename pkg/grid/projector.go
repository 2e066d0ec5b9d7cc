package grid

import (
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// View holds the presentation state that, combined with a RowStore and an
// Index, determines which rows are currently visible: the expand set, the
// current page, and pagination settings. It carries no row data of its own.
type View struct {
	expanded map[string]bool
	page     int // 1-based
	pageSize int
	paginate bool
}

// NewView creates a view on page 1 with everything collapsed.
func NewView(pageSize int, paginate bool) *View {
	if pageSize < 1 {
		pageSize = 20
	}
	return &View{
		expanded: make(map[string]bool),
		page:     1,
		pageSize: pageSize,
		paginate: paginate,
	}
}

// ToggleExpand flips the expand state for a parent id.
func (v *View) ToggleExpand(id string) {
	if v.expanded[id] {
		delete(v.expanded, id)
	} else {
		v.expanded[id] = true
	}
}

// IsExpanded reports whether the parent id is expanded.
func (v *View) IsExpanded(id string) bool { return v.expanded[id] }

// CollapseAll clears the expand set.
func (v *View) CollapseAll() { v.expanded = make(map[string]bool) }

// Page returns the current 1-based page number.
func (v *View) Page() int { return v.page }

// PageSize returns the page size in parent groups.
func (v *View) PageSize() int { return v.pageSize }

// GoToPage moves to the given page, clamped to [1, totalPages].
func (v *View) GoToPage(page, totalPages int) {
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	v.page = page
}

// NextPage advances one page, clamped.
func (v *View) NextPage(totalPages int) { v.GoToPage(v.page+1, totalPages) }

// PrevPage goes back one page, clamped.
func (v *View) PrevPage(totalPages int) { v.GoToPage(v.page-1, totalPages) }

// Reset returns to page 1 and collapses everything. Called after a reload
// replaces the snapshot.
func (v *View) Reset() {
	v.page = 1
	v.expanded = make(map[string]bool)
}

// TotalPages returns the page count for the given index. Pagination counts
// parent groups, never raw rows; children ride along with their parent. In
// flat mode every row is its own group.
func (v *View) TotalPages(idx *Index, rowCount int) int {
	if !v.paginate {
		return 1
	}
	groups := len(idx.Parents())
	if idx.Flat {
		groups = rowCount
	}
	if groups == 0 {
		return 1
	}
	pages := (groups + v.pageSize - 1) / v.pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Visible projects the currently visible rows: the parent groups on the
// current page, each parent followed immediately by its children (in
// original order) when expanded. Children never count against the page size
// and are never split from their parent. Orphans are not shown in grouped
// mode; in flat mode all rows paginate directly.
func (v *View) Visible(store *RowStore, idx *Index) []*model.Row {
	rows := store.Rows()

	if idx.Flat {
		if !v.paginate {
			return rows
		}
		start := (v.page - 1) * v.pageSize
		if start >= len(rows) {
			return nil
		}
		end := start + v.pageSize
		if end > len(rows) {
			end = len(rows)
		}
		return rows[start:end]
	}

	parents := idx.Parents()
	start, end := 0, len(parents)
	if v.paginate {
		start = (v.page - 1) * v.pageSize
		if start >= len(parents) {
			return nil
		}
		end = start + v.pageSize
		if end > len(parents) {
			end = len(parents)
		}
	}

	var out []*model.Row
	for _, pid := range parents[start:end] {
		parent := store.Get(pid)
		if parent == nil {
			continue
		}
		out = append(out, parent)
		if !v.expanded[pid] {
			continue
		}
		for _, cid := range idx.ChildrenOf[pid] {
			if child := store.Get(cid); child != nil {
				out = append(out, child)
			}
		}
	}
	return out
}

// AllSelected reports whether every currently visible row is selected.
// Selection-derived computations run over the visible rows only, not the
// whole store. An empty view is never "all selected".
func AllSelected(visible []*model.Row) bool {
	if len(visible) == 0 {
		return false
	}
	for _, row := range visible {
		if !row.Selected {
			return false
		}
	}
	return true
}

// SomeSelected reports whether at least one visible row is selected.
func SomeSelected(visible []*model.Row) bool {
	for _, row := range visible {
		if row.Selected {
			return true
		}
	}
	return false
}
