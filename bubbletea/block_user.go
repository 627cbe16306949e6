package bubbletea

import (
	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*UserBlock)(nil)

// UserBlock renders a user turn as typed.
type UserBlock struct {
	turn   assistant.Turn
	styles Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(turn assistant.Turn, styles Styles) *UserBlock {
	return &UserBlock{turn: turn, styles: styles}
}

func (b *UserBlock) View(width int) string {
	body := lipgloss.NewStyle().Width(width).Render(b.turn.Content)
	return header(b.styles.UserMsg, b.styles.Muted, "You", b.turn.Timestamp, width) + "\n" + body
}
