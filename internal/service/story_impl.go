package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure storyServiceImpl implements StoryService
var _ StoryService = (*storyServiceImpl)(nil)

// Ограничения на поля истории.
const (
	maxTitleLen        = 200
	maxDescriptionLen  = 2000
	maxRoomPasswordLen = 100
)

// storyServiceImpl implements the StoryService interface.
type storyServiceImpl struct {
	storyRepo  interfaces.StoryRepository
	configRepo interfaces.StoryConfigRepository
	userRepo   interfaces.UserRepository
	logger     *zap.Logger
}

// NewStoryService creates a new instance of storyServiceImpl.
func NewStoryService(storyRepo interfaces.StoryRepository, configRepo interfaces.StoryConfigRepository, userRepo interfaces.UserRepository, logger *zap.Logger) StoryService {
	return &storyServiceImpl{
		storyRepo:  storyRepo,
		configRepo: configRepo,
		userRepo:   userRepo,
		logger:     logger.Named("StoryService"),
	}
}

// ListStories возвращает все истории, новые первыми.
func (s *storyServiceImpl) ListStories(ctx context.Context) ([]models.Story, error) {
	stories, err := s.storyRepo.ListStories(ctx)
	if err != nil {
		s.logger.Error("Failed to list stories", zap.Error(err))
		return nil, err
	}
	return stories, nil
}

// ListConfigs возвращает доступные шаблоны историй.
func (s *storyServiceImpl) ListConfigs(ctx context.Context) ([]models.StoryConfig, error) {
	configs, err := s.configRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list story configs", zap.Error(err))
		return nil, err
	}
	return configs, nil
}

// GetStory возвращает историю по ID.
func (s *storyServiceImpl) GetStory(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	return s.storyRepo.GetStoryByID(ctx, storyID)
}

// CreateStory создает историю. Вставка истории и запись об участии создателя
// выполняются в одной транзакции, пароль комнаты сохраняется только хешем.
func (s *storyServiceImpl) CreateStory(ctx context.Context, creatorID uuid.UUID, params CreateStoryParams) (*models.Story, error) {
	title := strings.TrimSpace(params.Title)
	log := s.logger.With(zap.String("creatorID", creatorID.String()), zap.String("title", title))

	if title == "" || len(title) > maxTitleLen {
		log.Warn("Story creation with invalid title length")
		return nil, fmt.Errorf("title must be 1-%d characters: %w", maxTitleLen, models.ErrInvalidInput)
	}
	if params.Description != nil && len(*params.Description) > maxDescriptionLen {
		log.Warn("Story creation with too long description")
		return nil, fmt.Errorf("description must be at most %d characters: %w", maxDescriptionLen, models.ErrInvalidInput)
	}

	// Шаблон, если указан, должен существовать
	if params.ConfigID != nil {
		if _, err := s.configRepo.GetByID(ctx, *params.ConfigID); err != nil {
			if errors.Is(err, models.ErrStoryConfigNotFound) {
				log.Warn("Story creation with unknown config", zap.String("configID", params.ConfigID.String()))
			}
			return nil, err
		}
	}

	story := &models.Story{
		Title:        title,
		Description:  params.Description,
		CreatorID:    creatorID,
		ConfigID:     params.ConfigID,
		IsPublic:     params.IsPublic,
		AutoNarrator: params.AutoNarrator,
	}

	if params.Password != nil && *params.Password != "" {
		if len(*params.Password) > maxRoomPasswordLen {
			log.Warn("Story creation with too long room password")
			return nil, fmt.Errorf("room password must be at most %d characters: %w", maxRoomPasswordLen, models.ErrInvalidInput)
		}
		// Пароль имеет смысл только для публичной комнаты, в приватной он не сохраняется
		if params.IsPublic {
			hash, err := hashRoomPassword(*params.Password)
			if err != nil {
				log.Error("Failed to hash room password", zap.Error(err))
				return nil, fmt.Errorf("failed to hash room password: %w", err)
			}
			story.PasswordHash = &hash
		}
	}

	if err := s.storyRepo.CreateStoryWithCreator(ctx, story); err != nil {
		log.Error("Failed to create story", zap.Error(err))
		return nil, err
	}

	log.Info("Story created", zap.String("storyID", story.ID.String()), zap.Bool("isPublic", story.IsPublic))
	return story, nil
}

// ResolveAccess проверяет доступ в строгом порядке: создатель, участник,
// публичная с паролем, публичная без пароля, отказ.
func (s *storyServiceImpl) ResolveAccess(ctx context.Context, storyID, userID uuid.UUID) (models.AccessDecision, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return models.AccessDenied, err
	}

	if story.CreatorID == userID {
		return models.AccessGranted, nil
	}

	isParticipant, err := s.storyRepo.IsParticipant(ctx, storyID, userID)
	if err != nil {
		s.logger.Error("Failed to check participation", zap.Error(err), zap.String("storyID", storyID.String()))
		return models.AccessDenied, err
	}
	if isParticipant {
		return models.AccessGranted, nil
	}

	if story.IsPublic {
		if story.HasPassword() {
			return models.AccessPasswordRequired, nil
		}
		// Открытая комната: вход фиксируется сразу, повторный вход не дублирует запись
		if err := s.storyRepo.AddParticipant(ctx, storyID, userID); err != nil {
			s.logger.Error("Failed to add participant to public story", zap.Error(err), zap.String("storyID", storyID.String()))
			return models.AccessDenied, err
		}
		s.logger.Info("User joined public story",
			zap.String("storyID", storyID.String()),
			zap.String("userID", userID.String()),
		)
		return models.AccessGranted, nil
	}

	return models.AccessDenied, nil
}

// JoinWithPassword сверяет пароль комнаты и записывает участие.
func (s *storyServiceImpl) JoinWithPassword(ctx context.Context, storyID, userID uuid.UUID, password string) error {
	log := s.logger.With(zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))

	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return err
	}
	if !story.IsPublic || !story.HasPassword() {
		log.Warn("Password join attempt on a room without password")
		return models.ErrStoryAccessDenied
	}

	if !checkRoomPassword(password, *story.PasswordHash) {
		log.Warn("Password join attempt with wrong password")
		return models.ErrWrongStoryPassword
	}

	if err := s.storyRepo.AddParticipant(ctx, storyID, userID); err != nil {
		log.Error("Failed to add participant after password check", zap.Error(err))
		return err
	}

	log.Info("User joined password-protected story")
	return nil
}

// InviteParticipant добавляет пользователя в историю по имени. Только создатель.
func (s *storyServiceImpl) InviteParticipant(ctx context.Context, storyID, inviterID uuid.UUID, username string) error {
	log := s.logger.With(zap.String("storyID", storyID.String()), zap.String("inviterID", inviterID.String()), zap.String("username", username))

	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.CreatorID != inviterID {
		log.Warn("Invite attempt by non-creator")
		return models.ErrStoryAccessDenied
	}

	invitee, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}

	isParticipant, err := s.storyRepo.IsParticipant(ctx, storyID, invitee.ID)
	if err != nil {
		return err
	}
	if isParticipant {
		return models.ErrAlreadyParticipant
	}

	if err := s.storyRepo.AddParticipant(ctx, storyID, invitee.ID); err != nil {
		log.Error("Failed to add invited participant", zap.Error(err))
		return err
	}

	log.Info("Participant invited", zap.String("inviteeID", invitee.ID.String()))
	return nil
}

// RequireParticipant возвращает историю, если у пользователя есть к ней доступ
// как у участника или создателя.
func (s *storyServiceImpl) RequireParticipant(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.CreatorID == userID {
		return story, nil
	}
	isParticipant, err := s.storyRepo.IsParticipant(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, models.ErrNotAParticipant
	}
	return story, nil
}
