package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenRepository - белый список refresh-токенов (Redis).
// Access-токены проверяются только подписью, без обращения к хранилищу.
type TokenRepository interface {
	// SetRefreshToken сохраняет jti refresh-токена с TTL.
	SetRefreshToken(ctx context.Context, userID uuid.UUID, refreshUUID string, ttl time.Duration) error

	// GetUserIDByRefreshUUID возвращает владельца токена
	// или models.ErrTokenNotFound, если токен не найден (отозван/истек).
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)

	// DeleteRefreshUUID отзывает один refresh-токен.
	DeleteRefreshUUID(ctx context.Context, refreshUUID string) error

	// DeleteTokensByUserID отзывает все refresh-токены пользователя.
	// Возвращает число удаленных ключей.
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
