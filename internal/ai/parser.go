package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"chronicle-server/internal/models"
)

// buildCharacterSheetPrompt собирает промпт помощника по листу персонажа:
// схема полей + описание пользователя + жесткие требования к формату ответа.
func buildCharacterSheetPrompt(systemPrompt, description string, fields []models.CharacterSheetField) string {
	var sb strings.Builder

	if systemPrompt != "" {
		sb.WriteString("Story universe:\n")
		sb.WriteString(systemPrompt)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Character sheet fields to fill:\n")
	for _, f := range fields {
		sb.WriteString("- ")
		sb.WriteString(f.FieldName)
		sb.WriteString(" (type: ")
		sb.WriteString(f.FieldType)
		if f.FieldType == models.FieldTypeSelect {
			if opts := f.SelectOptions(); len(opts) > 0 {
				sb.WriteString(", allowed values: ")
				sb.WriteString(strings.Join(opts, ", "))
			}
		}
		if f.IsRequired {
			sb.WriteString(", required")
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\nPlayer's character description:\n")
	sb.WriteString(description)

	sb.WriteString("\n\nReturn a single JSON object whose keys are exactly the field names listed above. ")
	sb.WriteString("For select fields use one of the allowed values verbatim. ")
	sb.WriteString("For number fields return a number, not a string. ")
	sb.WriteString("Do not add any keys that are not in the list. Do not wrap the JSON in markdown.")

	return sb.String()
}

// ParseFieldValues извлекает JSON из ответа модели и валидирует его против
// схемы полей. Модели регулярно оборачивают JSON в markdown-ограждения,
// поэтому сначала срезаем их.
func ParseFieldValues(raw string, fields []models.CharacterSheetField) (models.FieldValues, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, models.ErrAIEmptyResponse
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", models.ErrAIInvalidResponse, err)
	}

	values := make(models.FieldValues, len(fields))
	for _, f := range fields {
		v, ok := parsed[f.FieldName]
		if !ok || v == nil {
			continue
		}
		checked, err := coerceFieldValue(f, v)
		if err != nil {
			return nil, err
		}
		values[f.FieldName] = checked
	}
	return values, nil
}

// StripCodeFences срезает markdown-ограждения вида ```json ... ``` вокруг ответа.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// После открывающего ограждения может идти метка языка (json, JSON).
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			s = s[idx+1:]
		}
	} else {
		s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// coerceFieldValue проверяет значение против типа поля.
func coerceFieldValue(f models.CharacterSheetField, v any) (any, error) {
	switch f.FieldType {
	case models.FieldTypeNumber:
		num, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a number", models.ErrAIInvalidResponse, f.FieldName)
		}
		return num, nil

	case models.FieldTypeSelect:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", models.ErrAIInvalidResponse, f.FieldName)
		}
		for _, opt := range f.SelectOptions() {
			if opt == str {
				return str, nil
			}
		}
		return nil, fmt.Errorf("%w: field %q value %q is not among allowed options", models.ErrAIInvalidResponse, f.FieldName, str)

	default: // text, textarea
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", models.ErrAIInvalidResponse, f.FieldName)
		}
		return str, nil
	}
}
