package ai

import (
	"encoding/json"
	"errors"
	"testing"

	"chronicle-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() []models.CharacterSheetField {
	return []models.CharacterSheetField{
		{FieldName: "name", FieldType: models.FieldTypeText, IsRequired: true},
		{FieldName: "backstory", FieldType: models.FieldTypeTextarea},
		{FieldName: "strength", FieldType: models.FieldTypeNumber},
		{
			FieldName:    "class",
			FieldType:    models.FieldTypeSelect,
			FieldOptions: json.RawMessage(`{"options":["Warrior","Mage","Rogue"]}`),
		},
	}
}

func TestStripCodeFences(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"uppercase label", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line fence", "```json {\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripCodeFences(tc.input))
		})
	}
}

func TestParseFieldValues_Success(t *testing.T) {
	raw := "```json\n" + `{
		"name": "Kael",
		"backstory": "An orphan raised by monks.",
		"strength": 14,
		"class": "Rogue"
	}` + "\n```"

	values, err := ParseFieldValues(raw, testFields())
	require.NoError(t, err)

	assert.Equal(t, "Kael", values["name"])
	assert.Equal(t, "An orphan raised by monks.", values["backstory"])
	assert.Equal(t, float64(14), values["strength"])
	assert.Equal(t, "Rogue", values["class"])
}

func TestParseFieldValues_IgnoresUnknownKeys(t *testing.T) {
	raw := `{"name": "Kael", "alignment": "chaotic good"}`

	values, err := ParseFieldValues(raw, testFields())
	require.NoError(t, err)

	assert.Equal(t, "Kael", values["name"])
	_, ok := values["alignment"]
	assert.False(t, ok, "keys outside the schema must be dropped")
}

func TestParseFieldValues_SkipsMissingAndNullFields(t *testing.T) {
	raw := `{"name": "Kael", "strength": null}`

	values, err := ParseFieldValues(raw, testFields())
	require.NoError(t, err)

	assert.Len(t, values, 1)
	assert.Equal(t, "Kael", values["name"])
}

func TestParseFieldValues_InvalidJSON(t *testing.T) {
	_, err := ParseFieldValues("The character is a brave warrior named Kael.", testFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAIInvalidResponse))
}

func TestParseFieldValues_Empty(t *testing.T) {
	_, err := ParseFieldValues("```json\n```", testFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAIEmptyResponse))
}

func TestParseFieldValues_NumberAsString(t *testing.T) {
	_, err := ParseFieldValues(`{"strength": "14"}`, testFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAIInvalidResponse))
}

func TestParseFieldValues_SelectOutsideOptions(t *testing.T) {
	_, err := ParseFieldValues(`{"class": "Necromancer"}`, testFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAIInvalidResponse))
}

func TestParseFieldValues_SelectValueMustMatchExactly(t *testing.T) {
	// Регистр и пробелы значимы: значение должно совпадать с вариантом дословно.
	_, err := ParseFieldValues(`{"class": "rogue"}`, testFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAIInvalidResponse))
}

func TestBuildCharacterSheetPrompt(t *testing.T) {
	prompt := buildCharacterSheetPrompt("A grim dark-fantasy world.", "A sneaky halfling.", testFields())

	assert.Contains(t, prompt, "A grim dark-fantasy world.")
	assert.Contains(t, prompt, "A sneaky halfling.")
	assert.Contains(t, prompt, "name (type: text, required)")
	assert.Contains(t, prompt, "allowed values: Warrior, Mage, Rogue")
	assert.Contains(t, prompt, "Do not wrap the JSON in markdown.")
}
