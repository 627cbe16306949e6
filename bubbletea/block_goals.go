package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/mattn/go-runewidth"
)

var _ MessageBlock = (*GoalsBlock)(nil)

// GoalsBlock renders the goal list as numbered rows. Row numbers are what
// the /goal commands take.
type GoalsBlock struct {
	goals  []assistant.Goal
	now    time.Time
	styles Styles
}

// NewGoalsBlock creates a GoalsBlock. now decides which goals are urgent.
func NewGoalsBlock(goals []assistant.Goal, now time.Time, styles Styles) *GoalsBlock {
	return &GoalsBlock{goals: goals, now: now, styles: styles}
}

func (b *GoalsBlock) View(width int) string {
	var sb strings.Builder
	sb.WriteString(b.styles.Accent.Render("Goals"))
	if len(b.goals) == 0 {
		sb.WriteString("\n" + b.styles.Muted.Render("No goals yet. Add one with /goal add YYYY-MM-DD <text>"))
		return sb.String()
	}

	// Leave room for number, checkbox, progress and deadline columns.
	textWidth := width - 36
	if textWidth < 10 {
		textWidth = 10
	}
	for i, g := range b.goals {
		check := "[ ]"
		if g.Completed {
			check = "[x]"
		}
		text := runewidth.FillRight(runewidth.Truncate(g.Text, textWidth, "…"), textWidth)
		row := fmt.Sprintf("%2d. %s %s %3d%%", i+1, check, text, g.Progress)
		if !g.Deadline.IsZero() {
			row += "  due " + g.Deadline.Format(assistant.DateLayout)
		}

		sb.WriteString("\n")
		switch {
		case g.Completed:
			sb.WriteString(b.styles.Success.Render(row))
		case g.Urgent(b.now) && !g.Deadline.IsZero():
			left := g.DaysLeft(b.now)
			note := fmt.Sprintf(" (%d days left!)", left)
			if left < 0 {
				note = " (overdue!)"
			}
			sb.WriteString(b.styles.Warning.Render(row + note))
		default:
			sb.WriteString(row)
		}
	}
	return sb.String()
}
