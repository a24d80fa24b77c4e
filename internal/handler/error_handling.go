package handler

import (
	"errors"
	"net/http"

	"chronicle-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeWrongCredentials, Message: "Invalid email or password"}
	case errors.Is(err, models.ErrUserAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateUser, Message: "Username already exists"}
	case errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateEmail, Message: "Email already exists"}
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeUserNotFound, Message: "User not found"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or malformed"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenNotFound):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Provided token is invalid (possibly revoked or expired)"}
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Story not found"}
	case errors.Is(err, models.ErrStoryConfigNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Story config not found"}
	case errors.Is(err, models.ErrNotAParticipant):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeNotAParticipant, Message: "You are not a participant of this story"}
	case errors.Is(err, models.ErrAlreadyParticipant):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "User is already a participant of this story"}
	case errors.Is(err, models.ErrStoryAccessDenied):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Access to this story is denied"}
	case errors.Is(err, models.ErrWrongStoryPassword):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeWrongPassword, Message: "Wrong story password"}
	case errors.Is(err, models.ErrPasswordRequired):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodePasswordRequired, Message: "This story requires a password to join"}
	case errors.Is(err, models.ErrStoryHasNoSheet):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "This story has no character sheet template"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrEmptyMessage):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Message content is empty"}
	case errors.Is(err, models.ErrMessageTooLong):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Message content is too long"}
	case errors.Is(err, models.ErrEmptyStory):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "The story has no messages for the narrator to continue"}
	case errors.Is(err, models.ErrAIRateLimited):
		statusCode = http.StatusTooManyRequests
		errResp = models.ErrorResponse{Code: models.ErrCodeRateLimited, Message: "AI gateway rate limit exceeded, try again later"}
	case errors.Is(err, models.ErrAIQuotaExceeded):
		statusCode = http.StatusPaymentRequired
		errResp = models.ErrorResponse{Code: models.ErrCodeQuotaExceeded, Message: "AI gateway quota exceeded"}
	case errors.Is(err, models.ErrAIInvalidResponse), errors.Is(err, models.ErrAIEmptyResponse):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeAIBadResponse, Message: "AI gateway returned an unusable response"}
	case errors.Is(err, models.ErrAIUpstream):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeAIUpstream, Message: "AI gateway request failed"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
