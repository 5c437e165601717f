package websocket

import (
	"encoding/json"

	"github.com/isdelr/datingapp-be/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions sent to clients.
const (
	ActionSecurityEvent = "security_event"
	ActionError         = "error"
	ActionPong          = "pong"
)

func encode(action string, payload interface{}) []byte {
	b, _ := json.Marshal(Message{Action: action, Payload: payload})
	return b
}

// NewEventMessage wraps a recorded event.
func NewEventMessage(event models.Event) []byte {
	return encode(ActionSecurityEvent, event)
}

// NewErrorMessage reports a problem with a client request.
func NewErrorMessage(msg string) []byte {
	return encode(ActionError, map[string]string{"error": msg})
}
