package interfaces

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// MessageRepository определяет доступ к сообщениям чата.
type MessageRepository interface {
	// CreateMessage вставляет сообщение и заполняет msg.ID и msg.CreatedAt.
	CreateMessage(ctx context.Context, msg *models.Message) error

	// ListByStory возвращает всю историю сообщений комнаты по возрастанию
	// времени создания, с подтянутыми именами авторов.
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Message, error)

	// ListRecent возвращает последние limit сообщений комнаты,
	// старые первыми (окно контекста рассказчика).
	ListRecent(ctx context.Context, storyID uuid.UUID, limit int) ([]models.Message, error)
}
