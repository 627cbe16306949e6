package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/go-chi/chi/v5"
)

type goalJSON struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Progress  int    `json:"progress"`
	Deadline  string `json:"deadline"`
	DaysLeft  int    `json:"days_left"`
	Urgent    bool   `json:"urgent"`
}

func (s *Server) newGoalJSON(g assistant.Goal) goalJSON {
	now := s.now()
	out := goalJSON{
		ID:        g.ID,
		Text:      g.Text,
		Completed: g.Completed,
		Progress:  g.Progress,
	}
	if !g.Deadline.IsZero() {
		out.Deadline = g.Deadline.Format(assistant.DateLayout)
		out.DaysLeft = g.DaysLeft(now)
		out.Urgent = g.Urgent(now)
	}
	return out
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.Goals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, s.newGoalJSON(g))
	}
	writeJSON(w, http.StatusOK, map[string][]goalJSON{"goals": out})
}

type addGoalRequest struct {
	Text     string `json:"text"`
	Deadline string `json:"deadline"`
}

func (s *Server) addGoal(w http.ResponseWriter, r *http.Request) {
	var req addGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", assistant.ErrValidation, err))
		return
	}
	deadline, err := assistant.ParseDeadline(req.Deadline)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.goals.AddGoal(r.Context(), req.Text, deadline)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.newGoalJSON(g))
}

func (s *Server) completeGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.CompleteGoal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.newGoalJSON(g))
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

func (s *Server) setProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", assistant.ErrValidation, err))
		return
	}
	if req.Progress == nil {
		s.writeError(w, r, fmt.Errorf("%w: progress is required", assistant.ErrValidation))
		return
	}
	g, err := s.goals.SetGoalProgress(r.Context(), chi.URLParam(r, "id"), *req.Progress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.newGoalJSON(g))
}
