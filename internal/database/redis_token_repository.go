package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisTokenRepository implements TokenRepository
var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

// Белый список refresh-токенов:
//  1. refresh_uuid:{jti} -> userID (с TTL refresh-токена)
//  2. user_tokens:{userID} -> множество jti, чтобы уметь отозвать все токены пользователя
type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func refreshKey(refreshUUID string) string {
	return fmt.Sprintf("refresh_uuid:%s", refreshUUID)
}

func userSetKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_tokens:%s", userID.String())
}

// SetRefreshToken stores the refresh token jti with its TTL.
func (r *redisTokenRepository) SetRefreshToken(ctx context.Context, userID uuid.UUID, refreshUUID string, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, refreshKey(refreshUUID), userID.String(), ttl)
	pipe.SAdd(ctx, userSetKey(userID), refreshUUID)
	pipe.Expire(ctx, userSetKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set refresh token in redis", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to set refresh token in redis: %w", err)
	}
	r.logger.Debug("Refresh token stored",
		zap.String("userID", userID.String()),
		zap.String("refreshUUID", refreshUUID),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// GetUserIDByRefreshUUID returns the owner of the refresh token.
func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, refreshKey(refreshUUID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Токен отозван или истек
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get refresh token from redis", zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to get refresh token from redis: %w", err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupted userID stored for refresh token", zap.Error(err), zap.String("value", val))
		return uuid.Nil, models.ErrTokenInvalid
	}
	return userID, nil
}

// DeleteRefreshUUID revokes a single refresh token.
func (r *redisTokenRepository) DeleteRefreshUUID(ctx context.Context, refreshUUID string) error {
	if err := r.client.Del(ctx, refreshKey(refreshUUID)).Err(); err != nil {
		r.logger.Error("Failed to delete refresh token from redis", zap.Error(err))
		return fmt.Errorf("failed to delete refresh token from redis: %w", err)
	}
	return nil
}

// DeleteTokensByUserID revokes all refresh tokens of a user.
func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	setKey := userSetKey(userID)
	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Error("Failed to read user token set from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to read user token set from redis: %w", err)
	}

	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, refreshKey(m))
	}
	keys = append(keys, setKey)

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Failed to delete user tokens from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete user tokens from redis: %w", err)
	}
	r.logger.Info("All refresh tokens revoked", zap.String("userID", userID.String()), zap.Int64("deleted", deleted))
	return deleted, nil
}
