package qdrant

import (
	"encoding/json"
	"strings"

	"github.com/ragstack/chat-api/internal/vectorstore"
)

type envelope[T any] struct {
	Status status `json:"status"`
	Result T      `json:"result"`
}

// status is either the string "ok" or an object carrying an error.
type status struct {
	State string `json:"status"`
	Error string `json:"error,omitempty"`
}

func (s *status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

type wirePoint struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector,omitempty"`
	Payload vectorstore.Payload `json:"payload"`
}

type scoredWirePoint struct {
	ID      string              `json:"id"`
	Score   float32             `json:"score"`
	Vector  []float32           `json:"vector,omitempty"`
	Payload vectorstore.Payload `json:"payload"`
}

type scrollResult struct {
	Points         []wirePoint `json:"points"`
	NextPageOffset any         `json:"next_page_offset"`
}
