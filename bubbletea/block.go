package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// MessageBlock is a renderable element in the conversation.
// View takes a width so the root model controls layout and blocks are
// testable in isolation.
type MessageBlock interface {
	View(width int) string
}

// header renders name on the left and timestamp flush right.
func header(nameStyle, tsStyle lipgloss.Style, name, ts string, width int) string {
	if ts == "" {
		return nameStyle.Render(name)
	}
	gap := width - runewidth.StringWidth(name) - runewidth.StringWidth(ts)
	if gap < 1 {
		gap = 1
	}
	return nameStyle.Render(name) + strings.Repeat(" ", gap) + tsStyle.Render(ts)
}
