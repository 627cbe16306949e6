package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*TextBlock)(nil)

// TextBlock renders local output such as command help.
type TextBlock struct {
	text  string
	style lipgloss.Style
}

// NewTextBlock creates a TextBlock.
func NewTextBlock(text string, style lipgloss.Style) *TextBlock {
	return &TextBlock{text: text, style: style}
}

func (b *TextBlock) View(width int) string {
	return b.style.Width(width).Render(b.text)
}
