package models

import "errors"

// Сентинельные ошибки доменного слоя. Сервисы возвращают их (или оборачивают через %w),
// а HTTP-слой маппит на коды ответов в одном месте (handler.handleServiceError).
var (
	// Общие ошибки
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input data")

	// Ошибки пользователей
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Ошибки токенов
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Ошибки историй и доступа
	ErrStoryNotFound       = errors.New("story not found")
	ErrStoryConfigNotFound = errors.New("story config not found")
	ErrNotAParticipant     = errors.New("user is not a participant of this story")
	ErrAlreadyParticipant  = errors.New("user is already a participant of this story")
	ErrWrongStoryPassword  = errors.New("wrong story password")
	ErrStoryAccessDenied   = errors.New("access to this story is denied")
	ErrPasswordRequired    = errors.New("story requires a password to join")
	ErrStoryHasNoSheet     = errors.New("story has no character sheet template")

	// Ошибки чата
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrMessageTooLong = errors.New("message content is too long")
	ErrEmptyStory     = errors.New("story has no messages yet")

	// Ошибки внешнего AI-шлюза
	ErrAIRateLimited     = errors.New("ai gateway rate limit exceeded")
	ErrAIQuotaExceeded   = errors.New("ai gateway quota exceeded")
	ErrAIUpstream        = errors.New("ai gateway upstream error")
	ErrAIEmptyResponse   = errors.New("ai gateway returned an empty response")
	ErrAIInvalidResponse = errors.New("ai gateway returned a response in an invalid format")
)
