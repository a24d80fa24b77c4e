package service

import (
	"context"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// AuthService defines the interface for authentication and profile logic.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccessToken(tokenString string) (*models.Claims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error)
}
