package bubbletea

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
	tea "github.com/charmbracelet/bubbletea"
)

const helpText = `Commands:
  /goals                         list goals
  /goal add YYYY-MM-DD <text>    add a goal with a deadline
  /goal done <n>                 mark goal n completed
  /goal progress <n> <0-100>     set the progress of goal n
  /help                          show this help`

// runCommand handles a slash command typed into the input.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	if fields[0] == "/help" {
		m.blocks = append(m.blocks, NewTextBlock(helpText, m.styles.Muted))
		m = m.refresh()
		return m, nil
	}
	if fields[0] != "/goals" && fields[0] != "/goal" {
		m.err = fmt.Errorf("unknown command %s: %w", fields[0], assistant.ErrValidation)
		return m, nil
	}
	if m.goals == nil {
		m.err = fmt.Errorf("goal tracking is not configured")
		return m, nil
	}
	if fields[0] == "/goals" {
		return m, listGoals(m.goals, "")
	}

	if len(fields) < 2 {
		m.err = usageError("/goal add|done|progress ...")
		return m, nil
	}
	switch fields[1] {
	case "add":
		if len(fields) < 4 {
			m.err = usageError("/goal add YYYY-MM-DD <text>")
			return m, nil
		}
		deadline, err := assistant.ParseDeadline(fields[2])
		if err != nil {
			m.err = err
			return m, nil
		}
		text := strings.Join(fields[3:], " ")
		return m, goalCommand(m.goals, "Goal added", func(ctx context.Context) error {
			_, err := m.goals.AddGoal(ctx, text, deadline)
			return err
		})
	case "done":
		if len(fields) != 3 {
			m.err = usageError("/goal done <n>")
			return m, nil
		}
		n := fields[2]
		return m, goalCommand(m.goals, "Goal completed", func(ctx context.Context) error {
			id, err := goalID(ctx, m.goals, n)
			if err != nil {
				return err
			}
			_, err = m.goals.CompleteGoal(ctx, id)
			return err
		})
	case "progress":
		if len(fields) != 4 {
			m.err = usageError("/goal progress <n> <0-100>")
			return m, nil
		}
		p, err := strconv.Atoi(fields[3])
		if err != nil {
			m.err = fmt.Errorf("%w: progress %q is not a number", assistant.ErrValidation, fields[3])
			return m, nil
		}
		if err := assistant.ValidateProgress(p); err != nil {
			m.err = err
			return m, nil
		}
		n := fields[2]
		return m, goalCommand(m.goals, "Progress updated", func(ctx context.Context) error {
			id, err := goalID(ctx, m.goals, n)
			if err != nil {
				return err
			}
			_, err = m.goals.SetGoalProgress(ctx, id, p)
			return err
		})
	}
	m.err = usageError("/goal add|done|progress ...")
	return m, nil
}

func usageError(usage string) error {
	return fmt.Errorf("%w: usage: %s", assistant.ErrValidation, usage)
}

func listGoals(store assistant.GoalStore, notice string) tea.Cmd {
	return func() tea.Msg {
		goals, err := store.Goals(context.Background())
		return GoalsMsg{Goals: goals, Notice: notice, Err: err}
	}
}

// goalCommand runs fn and then lists the goals so the user sees the result.
func goalCommand(store assistant.GoalStore, notice string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := fn(ctx); err != nil {
			return GoalsMsg{Err: err}
		}
		goals, err := store.Goals(ctx)
		return GoalsMsg{Goals: goals, Notice: notice, Err: err}
	}
}

// goalID maps a 1-based row number from the goal list to a goal ID.
func goalID(ctx context.Context, store assistant.GoalStore, n string) (string, error) {
	i, err := strconv.Atoi(n)
	if err != nil {
		return "", fmt.Errorf("%w: goal number %q is not a number", assistant.ErrValidation, n)
	}
	goals, err := store.Goals(ctx)
	if err != nil {
		return "", err
	}
	if i < 1 || i > len(goals) {
		return "", fmt.Errorf("goal %d: %w", i, assistant.ErrNotFound)
	}
	return goals[i-1].ID, nil
}
