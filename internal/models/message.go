package models

import (
	"time"

	"github.com/google/uuid"
)

// Message - сообщение в чате истории. Неизменяемо после создания.
// Инвариант: у сообщения рассказчика (IsAINarrator=true) нет автора-человека,
// UserID в этом случае равен nil (закреплен CHECK-ограничением в схеме).
type Message struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	StoryID      uuid.UUID  `db:"story_id" json:"storyId"`
	UserID       *uuid.UUID `db:"user_id" json:"userId,omitempty"`
	Content      string     `db:"content" json:"content"`
	IsAINarrator bool       `db:"is_ai_narrator" json:"isAiNarrator"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`

	// Username автора, подтягивается join'ом при чтении истории.
	// Для сообщений рассказчика остается пустым.
	Username string `db:"username" json:"username,omitempty"`
}

// Роли сообщений в окне контекста рассказчика.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn - пара {роль, содержимое} для запроса к AI-шлюзу.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NarratorRole возвращает роль сообщения в окне контекста:
// assistant для сообщений рассказчика, user для всех остальных.
func (m *Message) NarratorRole() string {
	if m.IsAINarrator {
		return ChatRoleAssistant
	}
	return ChatRoleUser
}
