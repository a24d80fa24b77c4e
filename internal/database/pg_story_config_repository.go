package database

import (
	"context"
	"errors"
	"fmt"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgStoryConfigRepository implements StoryConfigRepository
var _ interfaces.StoryConfigRepository = (*pgStoryConfigRepository)(nil)

// Шаблоны историй заводятся сидом миграций, приложение их только читает.
type pgStoryConfigRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryConfigRepository creates a new PostgreSQL-backed StoryConfigRepository.
func NewPgStoryConfigRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.StoryConfigRepository {
	return &pgStoryConfigRepository{
		pool:   pool,
		logger: logger.Named("PgStoryConfigRepo"),
	}
}

// GetByID retrieves a story config by its ID.
func (r *pgStoryConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryConfig, error) {
	query := `SELECT id, name, description, system_prompt, created_at FROM story_configs WHERE id = $1`
	cfg := &models.StoryConfig{}
	err := pgxscan.Get(ctx, r.pool, cfg, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryConfigNotFound
		}
		r.logger.Error("Failed to get story config from postgres", zap.Error(err), zap.String("configID", id.String()))
		return nil, fmt.Errorf("failed to get story config from postgres: %w", err)
	}
	return cfg, nil
}

// List returns all story configs ordered by name.
func (r *pgStoryConfigRepository) List(ctx context.Context) ([]models.StoryConfig, error) {
	query := `SELECT id, name, description, system_prompt, created_at FROM story_configs ORDER BY name`
	var configs []models.StoryConfig
	if err := pgxscan.Select(ctx, r.pool, &configs, query); err != nil {
		r.logger.Error("Failed to list story configs from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to list story configs from postgres: %w", err)
	}
	return configs, nil
}

// ListFields returns the character sheet schema of a config in display order.
func (r *pgStoryConfigRepository) ListFields(ctx context.Context, configID uuid.UUID) ([]models.CharacterSheetField, error) {
	query := `SELECT id, config_id, field_name, field_label, field_type, field_options, is_required, display_order
	          FROM character_sheet_fields WHERE config_id = $1 ORDER BY display_order`
	var fields []models.CharacterSheetField
	if err := pgxscan.Select(ctx, r.pool, &fields, query, configID); err != nil {
		r.logger.Error("Failed to list character sheet fields from postgres", zap.Error(err), zap.String("configID", configID.String()))
		return nil, fmt.Errorf("failed to list character sheet fields from postgres: %w", err)
	}
	return fields, nil
}
