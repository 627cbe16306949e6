// Package json implements the persisted layout of the conversation log and
// the goal list on top of an assistant.Storage.
//
// Both are stored as JSON arrays in the shape the browser client writes:
// the log under "chatHistory" as {role, content, timestamp} objects and the
// goals under "goals" as {text, completed, progress, deadline} objects.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/afilimonchyk/ai-goals-assistant"
)

// turnDTO is the JSON representation of a Turn.
type turnDTO struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// MarshalLog serializes a Log. HTML characters are written as-is so the
// byte size matches what a browser's JSON.stringify would produce.
func MarshalLog(l assistant.Log) ([]byte, error) {
	dtos := make([]turnDTO, len(l))
	for i, t := range l {
		dtos[i] = turnDTO{Role: string(t.Role), Content: t.Content, Timestamp: t.Timestamp}
	}
	return encode(dtos)
}

// UnmarshalLog deserializes a Log. Malformed JSON or an unknown role yields
// an error wrapping assistant.ErrCorrupt.
func UnmarshalLog(data []byte) (assistant.Log, error) {
	var dtos []turnDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", assistant.ErrCorrupt, err)
	}
	if len(dtos) == 0 {
		return nil, nil
	}
	log := make(assistant.Log, len(dtos))
	for i, dto := range dtos {
		role := assistant.Role(dto.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: turn %d: unknown role %q", assistant.ErrCorrupt, i, dto.Role)
		}
		log[i] = assistant.Turn{Role: role, Content: dto.Content, Timestamp: dto.Timestamp}
	}
	return log, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
