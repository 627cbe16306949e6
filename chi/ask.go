package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/afilimonchyk/ai-goals-assistant"
)

type askMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type askRequest struct {
	Messages []askMessage `json:"messages"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type askError struct {
	Detail string `json:"detail"`
}

// ask answers a whole conversation in one response, the contract the ask
// transport expects of its endpoint.
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, askError{Detail: fmt.Sprintf("decode request: %v", err)})
		return
	}

	log := make(assistant.Log, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := assistant.Role(m.Role)
		if !role.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, askError{Detail: fmt.Sprintf("unknown role %q", m.Role)})
			return
		}
		log = append(log, assistant.Turn{Role: role, Content: m.Content})
	}

	resp, err := s.answer.Send(r.Context(), log)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ask failed")
		status := http.StatusInternalServerError
		var te *assistant.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, askError{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: resp.Answer})
}
