package realtime

import (
	"encoding/json"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// Типы событий, доставляемых подписчикам комнаты.
const (
	EventTypeMessage  = "message"
	EventTypePresence = "presence"
)

// PresenceEntry - один онлайн-участник комнаты.
type PresenceEntry struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

// Event - конверт события комнаты. Presence-события всегда несут полный
// набор онлайн-участников, а не дельту: клиент целиком заменяет свое
// состояние присутствия.
type Event struct {
	Type     string          `json:"type"`
	StoryID  uuid.UUID       `json:"storyId"`
	Message  *models.Message `json:"message,omitempty"`
	Presence []PresenceEntry `json:"presence,omitempty"`
}

func (e *Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
