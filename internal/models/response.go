package models

// Коды ошибок, отдаваемые клиенту вместе с HTTP-статусом.
// Клиент ориентируется на код, а не на текст сообщения.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeWrongCredentials = "WRONG_CREDENTIALS"
	ErrCodeDuplicateUser    = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeNotAParticipant  = "NOT_A_PARTICIPANT"
	ErrCodeWrongPassword    = "WRONG_STORY_PASSWORD"
	ErrCodePasswordRequired = "STORY_PASSWORD_REQUIRED"
	ErrCodeRateLimited      = "AI_RATE_LIMITED"
	ErrCodeQuotaExceeded    = "AI_QUOTA_EXCEEDED"
	ErrCodeAIUpstream       = "AI_UPSTREAM_ERROR"
	ErrCodeAIBadResponse    = "AI_INVALID_RESPONSE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse - стандартная структура ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
