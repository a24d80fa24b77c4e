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

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
// Принимает пул (а не DBTX): создание истории выполняется в транзакции.
func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyColumns = `id, title, description, creator_id, config_id, is_public, password_hash, auto_narrator, created_at`

// CreateStoryWithCreator inserts the story and the creator's participant record
// in a single transaction, so a crash cannot leave an orphaned story.
func (r *pgStoryRepository) CreateStoryWithCreator(ctx context.Context, story *models.Story) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback после commit - no-op

	query := `INSERT INTO stories (title, description, creator_id, config_id, is_public, password_hash, auto_narrator)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err = tx.QueryRow(ctx, query,
		story.Title, story.Description, story.CreatorID, story.ConfigID,
		story.IsPublic, story.PasswordHash, story.AutoNarrator,
	).Scan(&story.ID, &story.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err), zap.String("title", story.Title))
		return fmt.Errorf("failed to insert story: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO story_participants (story_id, user_id) VALUES ($1, $2)`,
		story.ID, story.CreatorID,
	)
	if err != nil {
		r.logger.Error("Failed to insert creator participant", zap.Error(err), zap.String("storyID", story.ID.String()))
		return fmt.Errorf("failed to insert creator participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit story creation: %w", err)
	}
	r.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("creatorID", story.CreatorID.String()),
		zap.Bool("isPublic", story.IsPublic),
	)
	return nil
}

// GetStoryByID retrieves a story by its ID.
func (r *pgStoryRepository) GetStoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	story := &models.Story{}
	err := pgxscan.Get(ctx, r.pool, story, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story from postgres", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story from postgres: %w", err)
	}
	return story, nil
}

// ListStories returns all stories, newest first.
func (r *pgStoryRepository) ListStories(ctx context.Context) ([]models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories ORDER BY created_at DESC`
	var stories []models.Story
	if err := pgxscan.Select(ctx, r.pool, &stories, query); err != nil {
		r.logger.Error("Failed to list stories from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories from postgres: %w", err)
	}
	return stories, nil
}

// IsParticipant reports whether the user holds a participant record for the story.
func (r *pgStoryRepository) IsParticipant(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM story_participants WHERE story_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, storyID, userID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check participant in postgres", zap.Error(err),
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
		return false, fmt.Errorf("failed to check participant in postgres: %w", err)
	}
	return exists, nil
}

// AddParticipant adds a participant record idempotently:
// повторная вставка той же пары поглощается ON CONFLICT DO NOTHING.
func (r *pgStoryRepository) AddParticipant(ctx context.Context, storyID, userID uuid.UUID) error {
	query := `INSERT INTO story_participants (story_id, user_id) VALUES ($1, $2)
	          ON CONFLICT (story_id, user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, query, storyID, userID); err != nil {
		r.logger.Error("Failed to add participant in postgres", zap.Error(err),
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to add participant in postgres: %w", err)
	}
	r.logger.Debug("Participant ensured",
		zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
	return nil
}
