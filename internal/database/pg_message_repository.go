package database

import (
	"context"
	"fmt"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgMessageRepository implements MessageRepository
var _ interfaces.MessageRepository = (*pgMessageRepository)(nil)

type pgMessageRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgMessageRepository creates a new PostgreSQL-backed MessageRepository.
func NewPgMessageRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.MessageRepository {
	return &pgMessageRepository{
		pool:   pool,
		logger: logger.Named("PgMessageRepo"),
	}
}

// CreateMessage inserts a chat message.
func (r *pgMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `INSERT INTO messages (story_id, user_id, content, is_ai_narrator)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, msg.StoryID, msg.UserID, msg.Content, msg.IsAINarrator).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert message", zap.Error(err), zap.String("storyID", msg.StoryID.String()))
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// LEFT JOIN: у сообщений рассказчика user_id IS NULL, username остается пустым.
const messageSelect = `SELECT m.id, m.story_id, m.user_id, m.content, m.is_ai_narrator, m.created_at,
	       COALESCE(u.username, '') AS username
	FROM messages m
	LEFT JOIN users u ON u.id = m.user_id`

// ListByStory returns the full ordered history of a story's chat.
func (r *pgMessageRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Message, error) {
	query := messageSelect + ` WHERE m.story_id = $1 ORDER BY m.created_at ASC, m.id ASC`
	var messages []models.Message
	if err := pgxscan.Select(ctx, r.pool, &messages, query, storyID); err != nil {
		r.logger.Error("Failed to list messages from postgres", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list messages from postgres: %w", err)
	}
	return messages, nil
}

// ListRecent returns the last limit messages, oldest first.
func (r *pgMessageRepository) ListRecent(ctx context.Context, storyID uuid.UUID, limit int) ([]models.Message, error) {
	// Выбираем последние limit по убыванию, затем разворачиваем во внешнем запросе.
	query := `SELECT * FROM (` + messageSelect + `
	          WHERE m.story_id = $1 ORDER BY m.created_at DESC, m.id DESC LIMIT $2) sub
	          ORDER BY sub.created_at ASC, sub.id ASC`
	var messages []models.Message
	if err := pgxscan.Select(ctx, r.pool, &messages, query, storyID, limit); err != nil {
		r.logger.Error("Failed to list recent messages from postgres", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list recent messages from postgres: %w", err)
	}
	return messages, nil
}
