package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"chronicle-server/internal/config"
	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

// Ограничения на учетные данные.
const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	maxPasswordLen = 100
	maxEmailLen    = 255
)

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// authServiceImpl implements the AuthService interface.
type authServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(userRepo interfaces.UserRepository, tokenRepo interfaces.TokenRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates a new user.
func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	// Приводим email к нижнему регистру и убираем пробелы
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if err := validateUsername(username); err != nil {
		s.logger.Warn("Registration attempt with invalid username", append(logFields, zap.Error(err))...)
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email", append(logFields, zap.Error(err))...)
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		s.logger.Warn("Registration attempt with invalid password", logFields...)
		return nil, err
	}

	// Проверка существования пользователя по username
	existingUser, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing username during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing username: %w", err)
	}
	if existingUser != nil {
		s.logger.Warn("Registration attempt for existing username", logFields...)
		return nil, models.ErrUserAlreadyExists
	}

	// Проверка существования пользователя по email
	existingUser, err = s.userRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing email during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing email: %w", err)
	}
	if existingUser != nil {
		s.logger.Warn("Registration attempt for existing email", logFields...)
		return nil, models.ErrEmailAlreadyExists
	}

	// Используем перец перед хешированием
	hashedPassword, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Ошибки уникальности репозиторий уже замапил на сентинели
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user by email and returns the user with a token pair.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("Login attempt", zap.String("email", email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("email", email))
			return nil, nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("email", email))
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Используем перец при проверке
	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		s.logger.Warn("Login failed: invalid password", zap.String("email", email), zap.String("userID", user.ID.String()))
		return nil, nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(user.ID)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	if err := s.tokenRepo.SetRefreshToken(ctx, user.ID, td.RefreshUUID, s.cfg.RefreshTokenTTL); err != nil {
		s.logger.Error("Failed to save refresh token during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	s.logger.Info("User logged in successfully", zap.String("userID", user.ID.String()))
	return user, td, nil
}

// Refresh issues a new token pair based on a valid whitelisted refresh token.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt") // Не логируем сам токен

	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeRefresh {
		s.logger.Warn("Refresh attempt with a non-refresh token", zap.String("type", claims.TokenType))
		return nil, models.ErrTokenInvalid
	}

	refreshUUID := claims.ID
	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, refreshUUID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh attempt with revoked token", zap.String("refreshUUID", refreshUUID))
			return nil, models.ErrTokenNotFound
		}
		s.logger.Error("Error checking refresh token existence via repository", zap.Error(err), zap.String("refreshUUID", refreshUUID))
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}
	if userID != claims.UserID {
		s.logger.Error("Refresh token user ID mismatch",
			zap.String("tokenUserID", claims.UserID.String()),
			zap.String("repoUserID", userID.String()),
		)
		return nil, models.ErrTokenInvalid
	}

	newTd, err := s.createTokens(claims.UserID)
	if err != nil {
		s.logger.Error("Failed to create new tokens during refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to create new tokens: %w", err)
	}

	// Ротация: старый refresh отзывается до сохранения нового
	if err := s.tokenRepo.DeleteRefreshUUID(ctx, refreshUUID); err != nil {
		s.logger.Error("Non-critical: failed to delete old refresh token during refresh", zap.Error(err), zap.String("refreshUUID", refreshUUID))
	}

	if err := s.tokenRepo.SetRefreshToken(ctx, claims.UserID, newTd.RefreshUUID, s.cfg.RefreshTokenTTL); err != nil {
		s.logger.Error("Failed to save new refresh token during refresh", zap.Error(err), zap.String("userID", claims.UserID.String()))
		return nil, fmt.Errorf("failed to save new refresh token: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("userID", claims.UserID.String()))
	return newTd, nil
}

// Logout revokes the refresh token. Succeeds even if the token is already gone.
func (s *authServiceImpl) Logout(ctx context.Context, refreshTokenString string) error {
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		// Не раскрываем детали: выход с невалидным токеном не ошибка
		s.logger.Warn("Logout with invalid refresh token", zap.Error(err))
		return nil
	}
	if err := s.tokenRepo.DeleteRefreshUUID(ctx, claims.ID); err != nil {
		s.logger.Error("Failed to delete refresh token during logout", zap.Error(err))
	}
	s.logger.Info("User logged out", zap.String("userID", claims.UserID.String()))
	return nil
}

// VerifyAccessToken parses and validates an access token string.
// Проверка stateless: только подпись и срок действия.
func (s *authServiceImpl) VerifyAccessToken(tokenString string) (*models.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeAccess {
		s.logger.Warn("Access token verification failed: wrong token type", zap.String("type", claims.TokenType))
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// GetUser returns the user's profile.
func (s *authServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			s.logger.Error("Failed to get user by ID", zap.Error(err), zap.String("userID", userID.String()))
		}
		return nil, err
	}
	return user, nil
}

// UpdateUsername changes the user's display name.
func (s *authServiceImpl) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("username", username))

	if err := validateUsername(username); err != nil {
		log.Warn("Profile update with invalid username")
		return nil, err
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username); err != nil {
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrUserNotFound) {
			log.Error("Failed to update username via repository", zap.Error(err))
		}
		return nil, err
	}

	log.Info("Username updated")
	return s.userRepo.GetUserByID(ctx, userID)
}

// parseToken разбирает и валидирует JWT, возвращая доменные claims.
func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		}
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// createTokens generates new access and refresh tokens for a user.
func (s *authServiceImpl) createTokens(userID uuid.UUID) (*models.TokenDetails, error) {
	now := time.Now()
	td := &models.TokenDetails{
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
		RefreshUUID: uuid.New().String(),
	}

	acClaims := &models.Claims{
		UserID:    userID,
		TokenType: models.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.AtExpires, 0)),
			Subject:   userID.String(),
			Issuer:    "chronicle-server",
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	acToken := jwt.NewWithClaims(jwt.SigningMethodHS256, acClaims)
	var err error
	td.AccessToken, err = acToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rcClaims := &models.Claims{
		UserID:    userID,
		TokenType: models.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.RefreshUUID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.RtExpires, 0)),
			Subject:   userID.String(),
			Issuer:    "chronicle-server",
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	rtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, rcClaims)
	td.RefreshToken, err = rtToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return td, nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return fmt.Errorf("username must be %d-%d characters: %w", minUsernameLen, maxUsernameLen, models.ErrInvalidInput)
	}
	if !usernameRegexp.MatchString(username) {
		return fmt.Errorf("username may contain only letters, digits, '_' and '-': %w", models.ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return fmt.Errorf("invalid email length: %w", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("password must be %d-%d characters: %w", minPasswordLen, maxPasswordLen, models.ErrInvalidInput)
	}
	return nil
}
