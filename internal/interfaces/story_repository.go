package interfaces

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository определяет доступ к хранилищу историй и участников.
type StoryRepository interface {
	// CreateStoryWithCreator вставляет историю и запись об участии создателя
	// в одной транзакции, заполняет story.ID.
	CreateStoryWithCreator(ctx context.Context, story *models.Story) error

	// GetStoryByID возвращает историю по ID или models.ErrStoryNotFound.
	GetStoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// ListStories возвращает все истории, новые первыми.
	ListStories(ctx context.Context) ([]models.Story, error)

	// IsParticipant сообщает, есть ли у пользователя запись об участии.
	IsParticipant(ctx context.Context, storyID, userID uuid.UUID) (bool, error)

	// AddParticipant добавляет участника идемпотентно: повторное добавление
	// той же пары (story, user) не ошибка и не создает дубликат.
	AddParticipant(ctx context.Context, storyID, userID uuid.UUID) error
}

// StoryConfigRepository определяет доступ к шаблонам историй (только чтение).
type StoryConfigRepository interface {
	// GetByID возвращает шаблон по ID или models.ErrStoryConfigNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryConfig, error)

	// List возвращает все шаблоны, отсортированные по имени.
	List(ctx context.Context) ([]models.StoryConfig, error)

	// ListFields возвращает поля листа персонажа шаблона в порядке display_order.
	ListFields(ctx context.Context, configID uuid.UUID) ([]models.CharacterSheetField, error)
}
