package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/google/uuid"
)

// DefaultGoalsKey is the storage key of the goal list.
const DefaultGoalsKey = "goals"

var _ assistant.GoalStore = (*Goals)(nil)

// goalDTO is the JSON representation of a Goal. Entries written by older
// clients have no id.
type goalDTO struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Progress  int    `json:"progress"`
	Deadline  string `json:"deadline"`
}

// Goals implements assistant.GoalStore as a JSON array stored under one key.
// Every change is a read-modify-write of the whole list.
type Goals struct {
	storage assistant.Storage
	key     string
	newID   func() string

	mu sync.Mutex
}

// NewGoals creates a Goals store over s using the "goals" key.
func NewGoals(s assistant.Storage) *Goals {
	return &Goals{
		storage: s,
		key:     DefaultGoalsKey,
		newID:   uuid.NewString,
	}
}

// Goals returns all goals in the order they were added.
func (g *Goals) Goals(ctx context.Context) ([]assistant.Goal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load(ctx)
}

// AddGoal appends a new open goal at zero progress.
func (g *Goals) AddGoal(ctx context.Context, text string, deadline time.Time) (assistant.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return assistant.Goal{}, fmt.Errorf("%w: goal text is required", assistant.ErrValidation)
	}
	if deadline.IsZero() {
		return assistant.Goal{}, fmt.Errorf("%w: deadline is required", assistant.ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	goals, err := g.load(ctx)
	if err != nil {
		return assistant.Goal{}, err
	}
	goal := assistant.Goal{ID: g.newID(), Text: text, Deadline: deadline}
	goals = append(goals, goal)
	if err := g.save(ctx, goals); err != nil {
		return assistant.Goal{}, err
	}
	return goal, nil
}

// CompleteGoal marks the goal done at full progress.
func (g *Goals) CompleteGoal(ctx context.Context, id string) (assistant.Goal, error) {
	return g.update(ctx, id, func(goal *assistant.Goal) {
		goal.Completed = true
		goal.Progress = 100
	})
}

// SetGoalProgress sets the goal's progress. Reaching 100 completes it.
func (g *Goals) SetGoalProgress(ctx context.Context, id string, progress int) (assistant.Goal, error) {
	if err := assistant.ValidateProgress(progress); err != nil {
		return assistant.Goal{}, err
	}
	return g.update(ctx, id, func(goal *assistant.Goal) {
		goal.Progress = progress
		if progress == 100 {
			goal.Completed = true
		}
	})
}

func (g *Goals) update(ctx context.Context, id string, fn func(*assistant.Goal)) (assistant.Goal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	goals, err := g.load(ctx)
	if err != nil {
		return assistant.Goal{}, err
	}
	for i := range goals {
		if goals[i].ID == id {
			fn(&goals[i])
			if err := g.save(ctx, goals); err != nil {
				return assistant.Goal{}, err
			}
			return goals[i], nil
		}
	}
	return assistant.Goal{}, fmt.Errorf("goal %s: %w", id, assistant.ErrNotFound)
}

func (g *Goals) load(ctx context.Context) ([]assistant.Goal, error) {
	data, err := g.storage.Get(ctx, g.key)
	if errors.Is(err, assistant.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var dtos []goalDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("read goals: %w: %v", assistant.ErrCorrupt, err)
	}
	goals := make([]assistant.Goal, len(dtos))
	for i, dto := range dtos {
		// Deadlines that don't parse are kept as zero so the goal stays
		// visible and editable.
		deadline, _ := time.Parse(assistant.DateLayout, dto.Deadline)
		id := dto.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		goals[i] = assistant.Goal{
			ID:        id,
			Text:      dto.Text,
			Completed: dto.Completed,
			Progress:  dto.Progress,
			Deadline:  deadline,
		}
	}
	return goals, nil
}

func (g *Goals) save(ctx context.Context, goals []assistant.Goal) error {
	dtos := make([]goalDTO, len(goals))
	for i, goal := range goals {
		var deadline string
		if !goal.Deadline.IsZero() {
			deadline = goal.Deadline.Format(assistant.DateLayout)
		}
		dtos[i] = goalDTO{
			ID:        goal.ID,
			Text:      goal.Text,
			Completed: goal.Completed,
			Progress:  goal.Progress,
			Deadline:  deadline,
		}
	}
	data, err := encode(dtos)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	if err := g.storage.Set(ctx, g.key, data); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}
