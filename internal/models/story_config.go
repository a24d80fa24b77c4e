package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoryConfig - именованный шаблон истории: системный промпт рассказчика
// плюс схема полей листа персонажа. Создается сидом миграций, приложение
// его только читает.
type StoryConfig struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	SystemPrompt string    `db:"system_prompt" json:"systemPrompt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Допустимые типы полей листа персонажа.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeNumber   = "number"
	FieldTypeSelect   = "select"
)

// CharacterSheetField описывает одно поле листа персонажа для StoryConfig.
type CharacterSheetField struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ConfigID     uuid.UUID       `db:"config_id" json:"configId"`
	FieldName    string          `db:"field_name" json:"field_name"`
	FieldLabel   string          `db:"field_label" json:"field_label"`
	FieldType    string          `db:"field_type" json:"field_type"`
	FieldOptions json.RawMessage `db:"field_options" json:"field_options,omitempty"`
	IsRequired   bool            `db:"is_required" json:"is_required"`
	DisplayOrder int             `db:"display_order" json:"display_order"`
}

// SelectOptions возвращает список вариантов для поля типа select.
// Для остальных типов возвращает nil.
func (f *CharacterSheetField) SelectOptions() []string {
	if f.FieldType != FieldTypeSelect || len(f.FieldOptions) == 0 {
		return nil
	}
	var opts struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(f.FieldOptions, &opts); err != nil {
		return nil
	}
	return opts.Options
}
