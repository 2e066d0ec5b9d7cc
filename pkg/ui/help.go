package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# colorgrid

Hierarchical market color grid.

## Navigation

| Key | Action |
|-----|--------|
| j/k, ↓/↑ | move row cursor |
| h/l, ←/→ | move column cursor |
| g / G | first / last row |
| ] / [ | next / previous page |
| tab | expand or collapse the parent under the cursor |
| backspace | collapse all |

## Selection

| Key | Action |
|-----|--------|
| space | toggle selection |
| a | select all visible / clear |

## Editing

| Key | Action |
|-----|--------|
| enter | edit the cell under the cursor |
| enter (while editing) | commit |
| esc (while editing) | cancel |

Editing the cusip field triggers a lookup: dependent fields fill in on
success, or show ERROR when the cusip is unknown.

## Data

| Key | Action |
|-----|--------|
| d | delete selected rows (children cascade) |
| + | add a row |
| P | promote the selected row to a parent |
| r | run active exclusion rules |
| R | create a rule |
| / | search |
| c | clear search |
| s | save session |
| x | export CSV |
| y | copy CSV to clipboard |
| S | toggle statistics footer |

## Other

| Key | Action |
|-----|--------|
| ? | this help |
| q | quit |
`

// helpOverlay renders the key reference through glamour, lazily on first
// open so startup never pays the markdown render.
type helpOverlay struct {
	rendered string
	offset   int
	width    int
	height   int
}

func (h *helpOverlay) setSize(width, height int) {
	h.width = width
	h.height = height
}

func (h *helpOverlay) open(width, height int) tea.Cmd {
	h.setSize(width, height)
	h.offset = 0
	if h.rendered != "" {
		return nil
	}

	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		h.rendered = helpMarkdown
		return nil
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		h.rendered = helpMarkdown
		return nil
	}
	h.rendered = out
	return nil
}

func (h *helpOverlay) scroll(msg tea.KeyMsg) {
	lines := strings.Count(h.rendered, "\n")
	switch msg.String() {
	case "down", "j":
		if h.offset < lines-1 {
			h.offset++
		}
	case "up", "k":
		if h.offset > 0 {
			h.offset--
		}
	case "pgdown":
		h.offset += h.pageStep()
		if h.offset > lines-1 {
			h.offset = lines - 1
		}
	case "pgup":
		h.offset -= h.pageStep()
		if h.offset < 0 {
			h.offset = 0
		}
	}
}

func (h *helpOverlay) pageStep() int {
	if h.height > 2 {
		return h.height - 2
	}
	return 10
}

func (h *helpOverlay) View() string {
	lines := strings.Split(h.rendered, "\n")
	if h.offset >= len(lines) {
		h.offset = len(lines) - 1
	}
	if h.offset < 0 {
		h.offset = 0
	}

	visible := lines[h.offset:]
	if h.height > 1 && len(visible) > h.height-1 {
		visible = visible[:h.height-1]
	}
	return strings.Join(visible, "\n")
}
