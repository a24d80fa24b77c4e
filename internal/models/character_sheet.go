package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldValues - ответы пользователя: имя поля -> значение.
type FieldValues map[string]any

// CharacterSheet - лист персонажа одного пользователя в одной истории.
// Уникален по паре (story, user); создается при первом сохранении,
// дальше обновляется целиком.
type CharacterSheet struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	StoryID     uuid.UUID   `db:"story_id" json:"storyId"`
	UserID      uuid.UUID   `db:"user_id" json:"userId"`
	FieldValues FieldValues `db:"field_values" json:"fieldValues"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}
