package service

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// CharacterService defines the interface for character sheets and the
// sheet-filling assistant.
type CharacterService interface {
	// Fields возвращает схему полей листа персонажа для истории
	// или models.ErrStoryHasNoSheet, если у истории нет шаблона.
	Fields(ctx context.Context, storyID, userID uuid.UUID) ([]models.CharacterSheetField, error)

	// GetSheet возвращает лист пользователя или models.ErrNotFound.
	GetSheet(ctx context.Context, storyID, userID uuid.UUID) (*models.CharacterSheet, error)

	// SaveSheet сохраняет лист целиком, проверяя обязательные поля.
	SaveSheet(ctx context.Context, storyID, userID uuid.UUID, values models.FieldValues) (*models.CharacterSheet, error)

	// Generate заполняет поля листа по свободному описанию через AI-шлюз.
	// Результат не сохраняется, а возвращается пользователю на просмотр.
	Generate(ctx context.Context, storyID, userID uuid.UUID, description string) (models.FieldValues, error)
}
