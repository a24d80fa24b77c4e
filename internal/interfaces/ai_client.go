package interfaces

import (
	"context"

	"chronicle-server/internal/models"
)

// AIClient - клиент внешнего шлюза генерации текста и изображений.
// Реализации мапят ошибки шлюза на models.ErrAIRateLimited,
// models.ErrAIQuotaExceeded, models.ErrAIUpstream и models.ErrAIEmptyResponse.
type AIClient interface {
	// Narrate продолжает повествование: системный промпт комнаты плюс
	// окно последних сообщений. Возвращает текст рассказчика.
	Narrate(ctx context.Context, systemPrompt string, turns []models.ChatTurn) (string, error)

	// GenerateCharacterSheet заполняет поля листа персонажа по свободному
	// описанию. Возвращает значения полей, прошедшие валидацию схемы.
	GenerateCharacterSheet(ctx context.Context, systemPrompt, description string, fields []models.CharacterSheetField) (models.FieldValues, error)

	// GenerateSceneImage генерирует иллюстрацию сцены, возвращает URL изображения.
	GenerateSceneImage(ctx context.Context, prompt string) (string, error)
}
