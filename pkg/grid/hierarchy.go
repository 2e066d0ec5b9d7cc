package grid

import (
	"github.com/vanderheijden86/colorgrid/pkg/metrics"
	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// Numbering is the display number pair for one row. Parents carry their
// sequence number (1, 2, 3…) with ChildNum 0; children carry their parent's
// number plus their own 1-based position under that parent.
type Numbering struct {
	ParentNum int
	ChildNum  int
}

// Index is the derived hierarchy for a row list: per-row display numbering
// and the parent→children adjacency. It is a pure function of the rows and
// is rebuilt in full whenever the list changes.
type Index struct {
	Numbering  map[string]Numbering
	ChildrenOf map[string][]string
	ParentOf   map[string]string

	// Flat is true when no row in the input is a parent. The whole list then
	// renders ungrouped: every row is its own unit.
	Flat bool

	parentSeq []string            // parent ids in list order
	nestedOf  map[string][]string // parent id -> nested parent ids under it
}

// BuildIndex derives the hierarchy index from rows in a single pass over
// list order. Child-to-parent resolution is explicit reference resolution
// (robust to reordering), trying in order: literal id equality, the
// synthetic-id convention (SyntheticIDPrefix + reference), and equality
// against the businessKey field of candidate parents. A row whose reference
// resolves to nothing is an orphan: it is excluded from grouping and
// numbering but never an error.
func BuildIndex(rows []*model.Row, businessKey string) *Index {
	defer metrics.Timer(metrics.IndexBuild)()

	idx := &Index{
		Numbering:  make(map[string]Numbering, len(rows)),
		ChildrenOf: make(map[string][]string),
		ParentOf:   make(map[string]string),
		nestedOf:   make(map[string][]string),
	}

	// Collect parents and their resolution keys.
	parentNum := make(map[string]int)
	byKey := make(map[string]string) // business key text -> parent id
	n := 0
	for _, row := range rows {
		if !row.IsParent {
			continue
		}
		n++
		parentNum[row.ID] = n
		idx.parentSeq = append(idx.parentSeq, row.ID)
		idx.Numbering[row.ID] = Numbering{ParentNum: n}
		if key := row.FieldOrEmpty(businessKey).Text(); key != "" {
			if _, dup := byKey[key]; !dup {
				byKey[key] = row.ID
			}
		}
	}

	if n == 0 {
		// No hierarchy metadata anywhere: render flat, every row its own unit.
		idx.Flat = true
		for i, row := range rows {
			idx.Numbering[row.ID] = Numbering{ParentNum: i + 1}
		}
		return idx
	}

	// Resolve children in list order so child numbering follows position.
	childCounter := make(map[string]int)
	for _, row := range rows {
		if row.ParentRef == "" {
			continue
		}
		parentID, ok := resolveParent(row, parentNum, byKey)
		if !ok || parentID == row.ID {
			continue // orphan: excluded from any parent's child list
		}
		if row.IsParent {
			// A parent that itself carries a resolvable reference is a nested
			// parent. It keeps its own group and parent numbering, but the
			// link is recorded so a cascade delete of the outer parent takes
			// the nested parent and its children along.
			idx.nestedOf[parentID] = append(idx.nestedOf[parentID], row.ID)
			idx.ParentOf[row.ID] = parentID
			continue
		}
		childCounter[parentID]++
		idx.ChildrenOf[parentID] = append(idx.ChildrenOf[parentID], row.ID)
		idx.ParentOf[row.ID] = parentID
		idx.Numbering[row.ID] = Numbering{
			ParentNum: parentNum[parentID],
			ChildNum:  childCounter[parentID],
		}
	}

	return idx
}

// resolveParent applies the three matching strategies in order.
func resolveParent(row *model.Row, parentNum map[string]int, byKey map[string]string) (string, bool) {
	ref := row.ParentRef
	if _, ok := parentNum[ref]; ok {
		return ref, true
	}
	if synthetic := SyntheticIDPrefix + ref; synthetic != ref {
		if _, ok := parentNum[synthetic]; ok {
			return synthetic, true
		}
	}
	if id, ok := byKey[ref]; ok {
		return id, true
	}
	return "", false
}

// Parents returns the parent ids in list order. In flat mode it is empty.
func (idx *Index) Parents() []string {
	return idx.parentSeq
}

// HasChildren reports whether the row should render as expandable. The
// cached ChildCount is a hint only: a zero count still expands when the
// index actually resolved children for the row.
func (idx *Index) HasChildren(row *model.Row) bool {
	if row.ChildCount > 0 {
		return true
	}
	return len(idx.ChildrenOf[row.ID]) > 0
}

// Descendants returns every row id that resolves (transitively) to the given
// parent, in depth-first list order. Nested parents that are themselves
// children of another parent are followed, so a cascade delete of a parent
// takes its children, any nested parents among them, and their children too.
func (idx *Index) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(pid string) {
		for _, child := range idx.ChildrenOf[pid] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			walk(child)
		}
		for _, nested := range idx.nestedOf[pid] {
			if seen[nested] {
				continue
			}
			seen[nested] = true
			out = append(out, nested)
			walk(nested)
		}
	}
	walk(id)
	return out
}

// CascadeSet expands a set of ids for deletion: each id plus, for parents,
// all of their descendants. Order follows the input with descendants
// appended after their parent; duplicates are dropped.
func (idx *Index) CascadeSet(ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
		for _, d := range idx.Descendants(id) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
