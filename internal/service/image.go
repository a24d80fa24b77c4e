package service

import (
	"context"
	"fmt"
	"strings"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"go.uber.org/zap"
)

// ImageService defines the interface for scene image generation.
type ImageService interface {
	// GenerateScene генерирует иллюстрацию сцены и возвращает URL изображения.
	GenerateScene(ctx context.Context, prompt string) (string, error)
}

var _ ImageService = (*imageServiceImpl)(nil)

type imageServiceImpl struct {
	aiClient interfaces.AIClient
	logger   *zap.Logger
}

// NewImageService creates a new instance of imageServiceImpl.
func NewImageService(aiClient interfaces.AIClient, logger *zap.Logger) ImageService {
	return &imageServiceImpl{
		aiClient: aiClient,
		logger:   logger.Named("ImageService"),
	}
}

// GenerateScene генерирует иллюстрацию по описанию сцены.
func (s *imageServiceImpl) GenerateScene(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("scene prompt is required: %w", models.ErrInvalidInput)
	}

	url, err := s.aiClient.GenerateSceneImage(ctx, prompt)
	if err != nil {
		s.logger.Warn("Scene image generation failed", zap.Error(err))
		return "", err
	}
	return url, nil
}
