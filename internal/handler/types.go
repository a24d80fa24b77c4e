package handler

import (
	"chronicle-server/internal/models"

	"github.com/google/uuid"
)

// --- Request structs ---

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

type createStoryRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  *string    `json:"description"`
	ConfigID     *uuid.UUID `json:"configId"`
	IsPublic     bool       `json:"isPublic"`
	Password     *string    `json:"password"`
	AutoNarrator bool       `json:"autoNarrator"`
}

type joinStoryRequest struct {
	Password string `json:"password"`
}

type inviteRequest struct {
	Username string `json:"username" binding:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type rollDiceRequest struct {
	Count    int `json:"count" binding:"required"`
	Sides    int `json:"sides" binding:"required"`
	Modifier int `json:"modifier"`
}

type saveSheetRequest struct {
	FieldValues models.FieldValues `json:"fieldValues" binding:"required"`
}

type narrateRequest struct {
	StoryID uuid.UUID `json:"storyId" binding:"required"`
}

type generateSheetRequest struct {
	StoryID     uuid.UUID `json:"storyId" binding:"required"`
	Description string    `json:"description" binding:"required"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}
