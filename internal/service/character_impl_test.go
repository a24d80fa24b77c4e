package service

import (
	"context"
	"encoding/json"
	"testing"

	"chronicle-server/internal/interfaces/mocks"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type characterTestEnv struct {
	svc        CharacterService
	storyRepo  *mocks.StoryRepository
	configRepo *mocks.StoryConfigRepository
	sheetRepo  *mocks.CharacterSheetRepository
	ai         *mocks.AIClient
}

func newCharacterTestEnv() *characterTestEnv {
	storyRepo := new(mocks.StoryRepository)
	configRepo := new(mocks.StoryConfigRepository)
	sheetRepo := new(mocks.CharacterSheetRepository)
	ai := new(mocks.AIClient)

	storySvc := NewStoryService(storyRepo, configRepo, new(mocks.UserRepository), zap.NewNop())
	svc := NewCharacterService(sheetRepo, configRepo, storySvc, ai, zap.NewNop())

	return &characterTestEnv{svc: svc, storyRepo: storyRepo, configRepo: configRepo, sheetRepo: sheetRepo, ai: ai}
}

func sheetFields() []models.CharacterSheetField {
	return []models.CharacterSheetField{
		{FieldName: "name", FieldType: models.FieldTypeText, IsRequired: true},
		{FieldName: "backstory", FieldType: models.FieldTypeTextarea},
		{
			FieldName:    "class",
			FieldType:    models.FieldTypeSelect,
			IsRequired:   true,
			FieldOptions: json.RawMessage(`{"options":["Warrior","Mage"]}`),
		},
	}
}

func TestFields_StoryWithoutConfig(t *testing.T) {
	env := newCharacterTestEnv()
	userID := uuid.New()
	storyID := uuid.New()
	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: userID}, nil)

	_, err := env.svc.Fields(context.Background(), storyID, userID)
	assert.ErrorIs(t, err, models.ErrStoryHasNoSheet)
}

func TestSaveSheet_RequiredFieldValidation(t *testing.T) {
	env := newCharacterTestEnv()
	userID := uuid.New()
	storyID := uuid.New()
	configID := uuid.New()
	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: userID, ConfigID: &configID}, nil)
	env.configRepo.On("ListFields", mock.Anything, configID).Return(sheetFields(), nil)

	// Отсутствует обязательное поле class
	_, err := env.svc.SaveSheet(context.Background(), storyID, userID, models.FieldValues{"name": "Kael"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	// Обязательное поле заполнено пробелами
	_, err = env.svc.SaveSheet(context.Background(), storyID, userID, models.FieldValues{"name": "  ", "class": "Mage"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	env.sheetRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	// Полный набор сохраняется
	env.sheetRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *models.CharacterSheet) bool {
		return s.StoryID == storyID && s.UserID == userID
	})).Return(nil)

	sheet, err := env.svc.SaveSheet(context.Background(), storyID, userID, models.FieldValues{"name": "Kael", "class": "Mage"})
	require.NoError(t, err)
	assert.Equal(t, "Kael", sheet.FieldValues["name"])
}

func TestGenerate_ReturnsValuesWithoutSaving(t *testing.T) {
	env := newCharacterTestEnv()
	userID := uuid.New()
	storyID := uuid.New()
	configID := uuid.New()
	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: userID, ConfigID: &configID}, nil)
	env.configRepo.On("GetByID", mock.Anything, configID).Return(&models.StoryConfig{ID: configID, SystemPrompt: "Dark fantasy."}, nil)
	env.configRepo.On("ListFields", mock.Anything, configID).Return(sheetFields(), nil)

	generated := models.FieldValues{"name": "Kael", "class": "Mage"}
	env.ai.On("GenerateCharacterSheet", mock.Anything, "Dark fantasy.", "a wandering mage", mock.Anything).Return(generated, nil)

	values, err := env.svc.Generate(context.Background(), storyID, userID, "a wandering mage")
	require.NoError(t, err)
	assert.Equal(t, generated, values)

	// Сгенерированный лист не сохраняется автоматически
	env.sheetRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestGenerate_EmptyDescription(t *testing.T) {
	env := newCharacterTestEnv()

	_, err := env.svc.Generate(context.Background(), uuid.New(), uuid.New(), "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	env.ai.AssertNotCalled(t, "GenerateCharacterSheet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_UpstreamErrorPassedThrough(t *testing.T) {
	env := newCharacterTestEnv()
	userID := uuid.New()
	storyID := uuid.New()
	configID := uuid.New()
	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: userID, ConfigID: &configID}, nil)
	env.configRepo.On("GetByID", mock.Anything, configID).Return(&models.StoryConfig{ID: configID}, nil)
	env.configRepo.On("ListFields", mock.Anything, configID).Return(sheetFields(), nil)
	env.ai.On("GenerateCharacterSheet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, models.ErrAIRateLimited)

	_, err := env.svc.Generate(context.Background(), storyID, userID, "a wandering mage")
	assert.ErrorIs(t, err, models.ErrAIRateLimited)
}
