package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Message struct {
	Id        uuid.UUID
	SessionId string
	Role      string
	Content   string
	CreatedAt time.Time
	Metadata  map[string]interface{}
}

func NewMessage(sessionId, role, content string, now time.Time) *Message {
	return &Message{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}
