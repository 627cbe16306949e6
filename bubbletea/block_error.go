package bubbletea

import (
	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders a failed request. It is shown in place of the
// assistant's reply but is not part of the history.
type ErrorBlock struct {
	turn   assistant.Turn
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(turn assistant.Turn, styles Styles) *ErrorBlock {
	return &ErrorBlock{turn: turn, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	body := lipgloss.NewStyle().Width(width).Render(b.styles.Error.Render(b.turn.Content))
	return header(b.styles.Error, b.styles.Muted, "Assistant", b.turn.Timestamp, width) + "\n" + body
}
