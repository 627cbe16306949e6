// Package mock provides test doubles for assistant interfaces using function
// fields.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
)

// Interface compliance checks.
var (
	_ assistant.Transport    = (*Transport)(nil)
	_ assistant.Storage      = (*Storage)(nil)
	_ assistant.Storage      = (*Memory)(nil)
	_ assistant.HistoryStore = (*HistoryStore)(nil)
	_ assistant.GoalStore    = (*GoalStore)(nil)
)

// Transport is a test double for assistant.Transport.
// Set SendFn before calling Send.
type Transport struct {
	SendFn func(ctx context.Context, log assistant.Log) (assistant.Response, error)
}

// Send delegates to SendFn.
func (t *Transport) Send(ctx context.Context, log assistant.Log) (assistant.Response, error) {
	return t.SendFn(ctx, log)
}

// Storage is a test double for assistant.Storage.
// Set the function fields for the methods you need.
type Storage struct {
	GetFn    func(ctx context.Context, key string) ([]byte, error)
	SetFn    func(ctx context.Context, key string, value []byte) error
	DeleteFn func(ctx context.Context, key string) error
}

// Get delegates to GetFn.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.GetFn(ctx, key)
}

// Set delegates to SetFn.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return s.SetFn(ctx, key, value)
}

// Delete delegates to DeleteFn.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.DeleteFn(ctx, key)
}

// Memory is a map-backed assistant.Storage. The zero value is ready to use.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, assistant.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// HistoryStore is a test double for assistant.HistoryStore.
type HistoryStore struct {
	LoadFn  func(ctx context.Context) (assistant.Log, error)
	SaveFn  func(ctx context.Context, l assistant.Log) (assistant.Log, error)
	ClearFn func(ctx context.Context) error
}

// Load delegates to LoadFn.
func (h *HistoryStore) Load(ctx context.Context) (assistant.Log, error) {
	return h.LoadFn(ctx)
}

// Save delegates to SaveFn.
func (h *HistoryStore) Save(ctx context.Context, l assistant.Log) (assistant.Log, error) {
	return h.SaveFn(ctx, l)
}

// Clear delegates to ClearFn.
func (h *HistoryStore) Clear(ctx context.Context) error {
	return h.ClearFn(ctx)
}

// GoalStore is a test double for assistant.GoalStore.
type GoalStore struct {
	GoalsFn           func(ctx context.Context) ([]assistant.Goal, error)
	AddGoalFn         func(ctx context.Context, text string, deadline time.Time) (assistant.Goal, error)
	CompleteGoalFn    func(ctx context.Context, id string) (assistant.Goal, error)
	SetGoalProgressFn func(ctx context.Context, id string, progress int) (assistant.Goal, error)
}

// Goals delegates to GoalsFn.
func (g *GoalStore) Goals(ctx context.Context) ([]assistant.Goal, error) {
	return g.GoalsFn(ctx)
}

// AddGoal delegates to AddGoalFn.
func (g *GoalStore) AddGoal(ctx context.Context, text string, deadline time.Time) (assistant.Goal, error) {
	return g.AddGoalFn(ctx, text, deadline)
}

// CompleteGoal delegates to CompleteGoalFn.
func (g *GoalStore) CompleteGoal(ctx context.Context, id string) (assistant.Goal, error) {
	return g.CompleteGoalFn(ctx, id)
}

// SetGoalProgress delegates to SetGoalProgressFn.
func (g *GoalStore) SetGoalProgress(ctx context.Context, id string, progress int) (assistant.Goal, error) {
	return g.SetGoalProgressFn(ctx, id, progress)
}
