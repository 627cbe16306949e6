package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/afilimonchyk/ai-goals-assistant"
)

type turnJSON struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Markup    string `json:"markup"`
	Text      string `json:"text"`
}

func newTurnJSON(t assistant.Turn) turnJSON {
	markup := assistant.Format(t.Content)
	return turnJSON{
		Role:      string(t.Role),
		Content:   t.Content,
		Timestamp: t.Timestamp,
		Markup:    markup.String(),
		Text:      PlainText(markup),
	}
}

type historyResponse struct {
	Turns []turnJSON `json:"turns"`
	// Error is the failed request shown after the turns. It is not part of
	// the stored history.
	Error *turnJSON `json:"error,omitempty"`
}

func (s *Server) historyResponse(err *assistant.TransportError) historyResponse {
	log := s.session.Log()
	resp := historyResponse{Turns: make([]turnJSON, 0, len(log))}
	for _, t := range log {
		resp.Turns = append(resp.Turns, newTurnJSON(t))
	}
	if err != nil {
		shown := newTurnJSON(assistant.Turn{
			Role:      assistant.RoleAssistant,
			Content:   "Error: " + err.Error(),
			Timestamp: s.now().Format(assistant.TimestampLayout),
		})
		resp.Error = &shown
	}
	return resp
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.historyResponse(nil))
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", assistant.ErrValidation, err))
		return
	}

	err := s.session.Submit(r.Context(), req.Message)
	var te *assistant.TransportError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.historyResponse(nil))
	case errors.Is(err, assistant.ErrValidation):
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &te):
		writeJSON(w, http.StatusOK, s.historyResponse(te))
	default:
		s.writeError(w, r, err)
	}
}
