package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
)

type MessageType string

const (
	MessageTypeConnected   MessageType = "CONNECTED"
	MessageTypeTaskCreated MessageType = MessageType(domain.TaskEventCreated)
	MessageTypeTaskUpdated MessageType = MessageType(domain.TaskEventUpdated)
	MessageTypeTaskDeleted MessageType = MessageType(domain.TaskEventDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type ConnectedPayload struct {
	UserID string `json:"userId"`
}

type TaskPayload struct {
	Task *domain.Task `json:"task"`
}
