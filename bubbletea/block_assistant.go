package bubbletea

import (
	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders an assistant turn as markdown. Rendering is cached
// per width since turns never change once shown.
type AssistantBlock struct {
	turn     assistant.Turn
	renderer *goldmark.Renderer
	styles   Styles
	byWidth  map[int]string
}

// NewAssistantBlock creates an AssistantBlock.
func NewAssistantBlock(turn assistant.Turn, renderer *goldmark.Renderer, styles Styles) *AssistantBlock {
	return &AssistantBlock{
		turn:     turn,
		renderer: renderer,
		styles:   styles,
		byWidth:  make(map[int]string),
	}
}

func (b *AssistantBlock) View(width int) string {
	body, ok := b.byWidth[width]
	if !ok {
		body = b.renderer.Render(b.turn.Content, width)
		b.byWidth[width] = body
	}
	return header(b.styles.Assistant, b.styles.Muted, "Assistant", b.turn.Timestamp, width) + "\n" + body
}
