package interfaces

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// UserRepository определяет доступ к хранилищу пользователей.
type UserRepository interface {
	// CreateUser вставляет нового пользователя и заполняет user.ID.
	// Возвращает models.ErrUserAlreadyExists / models.ErrEmailAlreadyExists
	// при нарушении уникальности.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID возвращает пользователя по ID или models.ErrUserNotFound.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или models.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername возвращает пользователя по имени или models.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateUsername меняет отображаемое имя пользователя.
	// Возвращает models.ErrUserAlreadyExists, если имя занято.
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error
}
