package json_test

import (
	"context"
	"testing"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	assistantjson "github.com/afilimonchyk/ai-goals-assistant/json"
	"github.com/afilimonchyk/ai-goals-assistant/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	deadline := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	t.Run("add and list", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		first, err := g.AddGoal(ctx, " Run a marathon ", deadline)
		require.NoError(t, err)
		_, err = g.AddGoal(ctx, "Read 12 books", deadline)
		require.NoError(t, err)

		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "Run a marathon", first.Text)
		assert.Zero(t, first.Progress)
		assert.False(t, first.Completed)

		goals, err := g.Goals(ctx)
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, first, goals[0])
		assert.Equal(t, "Read 12 books", goals[1].Text)
	})

	t.Run("text and deadline are required", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		_, err := g.AddGoal(ctx, "  ", deadline)
		assert.ErrorIs(t, err, assistant.ErrValidation)
		_, err = g.AddGoal(ctx, "x", time.Time{})
		assert.ErrorIs(t, err, assistant.ErrValidation)
	})

	t.Run("complete sets full progress", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		goal, err := g.AddGoal(ctx, "x", deadline)
		require.NoError(t, err)

		done, err := g.CompleteGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, 100, done.Progress)
	})

	t.Run("progress of 100 completes", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		goal, err := g.AddGoal(ctx, "x", deadline)
		require.NoError(t, err)

		half, err := g.SetGoalProgress(ctx, goal.ID, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, half.Progress)
		assert.False(t, half.Completed)

		full, err := g.SetGoalProgress(ctx, goal.ID, 100)
		require.NoError(t, err)
		assert.True(t, full.Completed)
	})

	t.Run("progress out of range", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		goal, err := g.AddGoal(ctx, "x", deadline)
		require.NoError(t, err)
		_, err = g.SetGoalProgress(ctx, goal.ID, 101)
		assert.ErrorIs(t, err, assistant.ErrValidation)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		g := assistantjson.NewGoals(&mock.Memory{})
		_, err := g.CompleteGoal(ctx, "nope")
		assert.ErrorIs(t, err, assistant.ErrNotFound)
	})

	t.Run("legacy entries get positional ids", func(t *testing.T) {
		t.Parallel()
		store := &mock.Memory{}
		raw := `[{"text":"a","completed":false,"progress":20,"deadline":"2026-11-01"},{"text":"b","completed":true,"progress":100,"deadline":"2026-12-01"}]`
		require.NoError(t, store.Set(ctx, "goals", []byte(raw)))
		g := assistantjson.NewGoals(store)

		goals, err := g.Goals(ctx)
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, "1", goals[0].ID)
		assert.Equal(t, "2", goals[1].ID)
		assert.Equal(t, deadline, goals[0].Deadline)

		updated, err := g.SetGoalProgress(ctx, "1", 40)
		require.NoError(t, err)
		assert.Equal(t, 40, updated.Progress)
	})

	t.Run("does not touch the history key", func(t *testing.T) {
		t.Parallel()
		store := &mock.Memory{}
		_, err := assistantjson.NewGoals(store).AddGoal(ctx, "x", deadline)
		require.NoError(t, err)
		_, err = store.Get(ctx, "chatHistory")
		assert.ErrorIs(t, err, assistant.ErrNotFound)
	})

	t.Run("corrupt list", func(t *testing.T) {
		t.Parallel()
		store := &mock.Memory{}
		require.NoError(t, store.Set(ctx, "goals", []byte("{")))
		_, err := assistantjson.NewGoals(store).Goals(ctx)
		assert.ErrorIs(t, err, assistant.ErrCorrupt)
	})
}
