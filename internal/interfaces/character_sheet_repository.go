package interfaces

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// CharacterSheetRepository определяет доступ к листам персонажей.
type CharacterSheetRepository interface {
	// GetByStoryAndUser возвращает лист пользователя в истории
	// или models.ErrNotFound.
	GetByStoryAndUser(ctx context.Context, storyID, userID uuid.UUID) (*models.CharacterSheet, error)

	// Upsert создает лист при первом сохранении и целиком заменяет
	// field_values при последующих.
	Upsert(ctx context.Context, sheet *models.CharacterSheet) error
}
