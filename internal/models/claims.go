package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Типы токенов, различаются по claim'у "type".
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims представляет стандартные поля JWT и пользовательские данные токена.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenDetails - пара токенов, выдаваемая при логине и обновлении.
// RefreshUUID (jti refresh-токена) наружу не отдается, по нему токен
// ищется в Redis-белом списке.
type TokenDetails struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	RefreshUUID  string `json:"-"`
	AtExpires    int64  `json:"at_expires"`
	RtExpires    int64  `json:"rt_expires"`
}
