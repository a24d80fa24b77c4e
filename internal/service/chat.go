package service

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// Broadcaster доставляет события комнаты подписчикам (см. internal/realtime).
type Broadcaster interface {
	BroadcastMessage(msg *models.Message)
}

// ChatService defines the interface for chat history, message sending
// and narrator invocations.
type ChatService interface {
	// History возвращает всю историю сообщений комнаты. Требует участия.
	History(ctx context.Context, storyID, userID uuid.UUID) ([]models.Message, error)

	// SendMessage сохраняет сообщение и рассылает его подписчикам комнаты.
	// При включенном авто-рассказчике планирует его вызов с фиксированной паузой.
	SendMessage(ctx context.Context, storyID, userID uuid.UUID, content string) (*models.Message, error)

	// InvokeNarrator вызывает рассказчика: берет окно последних сообщений,
	// получает продолжение от AI-шлюза, сохраняет и рассылает его.
	// Пустая комната отклоняется без обращения к шлюзу.
	InvokeNarrator(ctx context.Context, storyID, userID uuid.UUID) (*models.Message, error)

	// Shutdown останавливает отложенные вызовы авто-рассказчика.
	Shutdown()
}
