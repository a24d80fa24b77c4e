package service

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// CreateStoryParams - параметры создания истории.
type CreateStoryParams struct {
	Title        string
	Description  *string
	ConfigID     *uuid.UUID
	IsPublic     bool
	Password     *string
	AutoNarrator bool
}

// StoryService defines the interface for the story directory and room access.
type StoryService interface {
	ListStories(ctx context.Context) ([]models.Story, error)
	ListConfigs(ctx context.Context) ([]models.StoryConfig, error)
	GetStory(ctx context.Context, storyID uuid.UUID) (*models.Story, error)
	CreateStory(ctx context.Context, creatorID uuid.UUID, params CreateStoryParams) (*models.Story, error)

	// ResolveAccess проверяет доступ пользователя к истории. Для открытой
	// истории без пароля попутно создает запись об участии (идемпотентно).
	ResolveAccess(ctx context.Context, storyID, userID uuid.UUID) (models.AccessDecision, error)

	// JoinWithPassword сверяет пароль защищенной комнаты; при успехе
	// записывает участие, при неуспехе не имеет побочных эффектов.
	JoinWithPassword(ctx context.Context, storyID, userID uuid.UUID, password string) error

	// InviteParticipant добавляет существующего пользователя в историю.
	// Доступно только создателю.
	InviteParticipant(ctx context.Context, storyID, inviterID uuid.UUID, username string) error

	// RequireParticipant возвращает историю, если пользователь ее участник
	// или создатель, иначе models.ErrNotAParticipant.
	RequireParticipant(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error)
}
