package ws

import (
	"encoding/json"
	"time"

	"scamfeed/internal/domain"
)

// Envelope is the frame format in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// server → client
type PostCreatedPayload struct {
	Post      *domain.Post `json:"post"`
	CreatedAt time.Time    `json:"created_at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
