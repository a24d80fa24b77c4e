package service

import (
	"context"
	"fmt"
	"strings"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure characterServiceImpl implements CharacterService
var _ CharacterService = (*characterServiceImpl)(nil)

// characterServiceImpl implements the CharacterService interface.
type characterServiceImpl struct {
	sheetRepo  interfaces.CharacterSheetRepository
	configRepo interfaces.StoryConfigRepository
	storySvc   StoryService
	aiClient   interfaces.AIClient
	logger     *zap.Logger
}

// NewCharacterService creates a new instance of characterServiceImpl.
func NewCharacterService(
	sheetRepo interfaces.CharacterSheetRepository,
	configRepo interfaces.StoryConfigRepository,
	storySvc StoryService,
	aiClient interfaces.AIClient,
	logger *zap.Logger,
) CharacterService {
	return &characterServiceImpl{
		sheetRepo:  sheetRepo,
		configRepo: configRepo,
		storySvc:   storySvc,
		aiClient:   aiClient,
		logger:     logger.Named("CharacterService"),
	}
}

// Fields возвращает упорядоченную схему полей листа персонажа.
func (s *characterServiceImpl) Fields(ctx context.Context, storyID, userID uuid.UUID) ([]models.CharacterSheetField, error) {
	story, err := s.storySvc.RequireParticipant(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if story.ConfigID == nil {
		return nil, models.ErrStoryHasNoSheet
	}

	fields, err := s.configRepo.ListFields(ctx, *story.ConfigID)
	if err != nil {
		s.logger.Error("Failed to list character sheet fields", zap.Error(err), zap.String("configID", story.ConfigID.String()))
		return nil, err
	}
	return fields, nil
}

// GetSheet возвращает лист пользователя в истории.
func (s *characterServiceImpl) GetSheet(ctx context.Context, storyID, userID uuid.UUID) (*models.CharacterSheet, error) {
	if _, err := s.storySvc.RequireParticipant(ctx, storyID, userID); err != nil {
		return nil, err
	}
	return s.sheetRepo.GetByStoryAndUser(ctx, storyID, userID)
}

// SaveSheet сохраняет лист целиком. Значения полей заменяются, не сливаются.
func (s *characterServiceImpl) SaveSheet(ctx context.Context, storyID, userID uuid.UUID, values models.FieldValues) (*models.CharacterSheet, error) {
	fields, err := s.Fields(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	// Обязательные поля должны быть заполнены
	for _, f := range fields {
		if !f.IsRequired {
			continue
		}
		v, ok := values[f.FieldName]
		if !ok || v == nil {
			return nil, fmt.Errorf("required field %q is missing: %w", f.FieldName, models.ErrInvalidInput)
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			return nil, fmt.Errorf("required field %q is empty: %w", f.FieldName, models.ErrInvalidInput)
		}
	}

	sheet := &models.CharacterSheet{
		StoryID:     storyID,
		UserID:      userID,
		FieldValues: values,
	}
	if err := s.sheetRepo.Upsert(ctx, sheet); err != nil {
		s.logger.Error("Failed to upsert character sheet", zap.Error(err),
			zap.String("storyID", storyID.String()),
			zap.String("userID", userID.String()),
		)
		return nil, err
	}

	s.logger.Info("Character sheet saved",
		zap.String("storyID", storyID.String()),
		zap.String("userID", userID.String()),
	)
	return sheet, nil
}

// Generate заполняет лист по свободному описанию. Результат только для
// просмотра, сохранение отдельным вызовом SaveSheet.
func (s *characterServiceImpl) Generate(ctx context.Context, storyID, userID uuid.UUID, description string) (models.FieldValues, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("character description is required: %w", models.ErrInvalidInput)
	}

	story, err := s.storySvc.RequireParticipant(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if story.ConfigID == nil {
		return nil, models.ErrStoryHasNoSheet
	}

	cfg, err := s.configRepo.GetByID(ctx, *story.ConfigID)
	if err != nil {
		return nil, err
	}
	fields, err := s.configRepo.ListFields(ctx, *story.ConfigID)
	if err != nil {
		return nil, err
	}

	values, err := s.aiClient.GenerateCharacterSheet(ctx, cfg.SystemPrompt, description, fields)
	if err != nil {
		s.logger.Warn("Character sheet generation failed", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, err
	}

	s.logger.Info("Character sheet generated", zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
	return values, nil
}
