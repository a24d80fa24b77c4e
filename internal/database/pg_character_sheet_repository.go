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

// Compile-time check to ensure pgCharacterSheetRepository implements CharacterSheetRepository
var _ interfaces.CharacterSheetRepository = (*pgCharacterSheetRepository)(nil)

type pgCharacterSheetRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgCharacterSheetRepository creates a new PostgreSQL-backed CharacterSheetRepository.
func NewPgCharacterSheetRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.CharacterSheetRepository {
	return &pgCharacterSheetRepository{
		pool:   pool,
		logger: logger.Named("PgCharacterSheetRepo"),
	}
}

// GetByStoryAndUser retrieves the user's sheet for the story.
func (r *pgCharacterSheetRepository) GetByStoryAndUser(ctx context.Context, storyID, userID uuid.UUID) (*models.CharacterSheet, error) {
	query := `SELECT id, story_id, user_id, field_values, created_at, updated_at
	          FROM character_sheets WHERE story_id = $1 AND user_id = $2`
	sheet := &models.CharacterSheet{}
	err := pgxscan.Get(ctx, r.pool, sheet, query, storyID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get character sheet from postgres", zap.Error(err),
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to get character sheet from postgres: %w", err)
	}
	return sheet, nil
}

// Upsert creates the sheet on first save and fully replaces field_values afterwards.
// Уникальность пары (story, user) закреплена constraint'ом в схеме.
func (r *pgCharacterSheetRepository) Upsert(ctx context.Context, sheet *models.CharacterSheet) error {
	query := `INSERT INTO character_sheets (story_id, user_id, field_values)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (story_id, user_id)
	          DO UPDATE SET field_values = EXCLUDED.field_values, updated_at = now()
	          RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, sheet.StoryID, sheet.UserID, sheet.FieldValues).
		Scan(&sheet.ID, &sheet.CreatedAt, &sheet.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert character sheet in postgres", zap.Error(err),
			zap.String("storyID", sheet.StoryID.String()), zap.String("userID", sheet.UserID.String()))
		return fmt.Errorf("failed to upsert character sheet in postgres: %w", err)
	}
	r.logger.Info("Character sheet saved",
		zap.String("sheetID", sheet.ID.String()),
		zap.String("storyID", sheet.StoryID.String()),
		zap.String("userID", sheet.UserID.String()),
	)
	return nil
}
