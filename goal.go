package assistant

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the layout of goal deadlines.
const DateLayout = "2006-01-02"

// UrgentWithin is how many days before its deadline an open goal becomes
// urgent.
const UrgentWithin = 3

// Goal is a tracked personal goal. Progress is a percentage in [0, 100];
// a goal at 100 is completed.
type Goal struct {
	ID        string
	Text      string
	Completed bool
	Progress  int
	Deadline  time.Time
}

// DaysLeft returns the whole days from now until the deadline, rounded up.
// It is negative once the deadline has passed.
func (g Goal) DaysLeft(now time.Time) int {
	deadline := time.Date(g.Deadline.Year(), g.Deadline.Month(), g.Deadline.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// Urgent reports whether the goal is open and due within UrgentWithin days.
func (g Goal) Urgent(now time.Time) bool {
	return !g.Completed && g.DaysLeft(now) <= UrgentWithin
}

// ParseDeadline parses a YYYY-MM-DD deadline.
func ParseDeadline(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrValidation)
	}
	return t, nil
}

// ValidateProgress returns ErrValidation unless p is within [0, 100].
func ValidateProgress(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
	}
	return nil
}

// GoalStore manages the goal list.
type GoalStore interface {
	Goals(ctx context.Context) ([]Goal, error)
	AddGoal(ctx context.Context, text string, deadline time.Time) (Goal, error)
	CompleteGoal(ctx context.Context, id string) (Goal, error)
	SetGoalProgress(ctx context.Context, id string, progress int) (Goal, error)
}
