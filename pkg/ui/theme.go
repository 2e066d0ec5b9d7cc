package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Bias
	Bid   lipgloss.AdaptiveColor
	Offer lipgloss.AdaptiveColor
	Trade lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Cursor    lipgloss.Style
	Header    lipgloss.Style
	ParentRow lipgloss.Style
	ChildRow  lipgloss.Style
	Checked   lipgloss.Style
	Sentinel  lipgloss.Style
	Notice    lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
	ModalBox  lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Bid:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Offer: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red
		Trade: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Cursor = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.ParentRow = r.NewStyle().Bold(true)
	t.ChildRow = r.NewStyle().Foreground(t.Subtext)
	t.Checked = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Sentinel = r.NewStyle().Foreground(t.Error).Bold(true)
	t.Notice = r.NewStyle().Foreground(t.Trade)
	t.Warning = r.NewStyle().Foreground(t.Offer).Bold(true)

	t.StatusBar = r.NewStyle().
		Foreground(t.Muted).
		Padding(0, 1)

	t.ModalBox = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	return t
}

// BiasColor maps a bias value (BID/OFFER/TRADE) to its display color.
func (t Theme) BiasColor(bias string) lipgloss.AdaptiveColor {
	switch bias {
	case "BID", "bid":
		return t.Bid
	case "OFFER", "offer":
		return t.Offer
	case "TRADE", "trade":
		return t.Trade
	default:
		return t.Subtext
	}
}

func defaultRenderer() *lipgloss.Renderer {
	return lipgloss.DefaultRenderer()
}

// TestTheme returns a theme suitable for use in tests (stdout renderer).
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
