package mocks

import (
	"context"
	"time"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	args := m.Called(ctx, id, username)
	return args.Error(0)
}

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) SetRefreshToken(ctx context.Context, userID uuid.UUID, refreshUUID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, refreshUUID, ttl)
	return args.Error(0)
}
func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *TokenRepository) DeleteRefreshUUID(ctx context.Context, refreshUUID string) error {
	args := m.Called(ctx, refreshUUID)
	return args.Error(0)
}
func (m *TokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) CreateStoryWithCreator(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetStoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) ListStories(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) IsParticipant(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, storyID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *StoryRepository) AddParticipant(ctx context.Context, storyID, userID uuid.UUID) error {
	args := m.Called(ctx, storyID, userID)
	return args.Error(0)
}

// Mock StoryConfigRepository
type StoryConfigRepository struct {
	mock.Mock
}

func (m *StoryConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryConfig, error) {
	args := m.Called(ctx, id)
	cfg, _ := args.Get(0).(*models.StoryConfig)
	return cfg, args.Error(1)
}
func (m *StoryConfigRepository) List(ctx context.Context) ([]models.StoryConfig, error) {
	args := m.Called(ctx)
	configs, _ := args.Get(0).([]models.StoryConfig)
	return configs, args.Error(1)
}
func (m *StoryConfigRepository) ListFields(ctx context.Context, configID uuid.UUID) ([]models.CharacterSheetField, error) {
	args := m.Called(ctx, configID)
	fields, _ := args.Get(0).([]models.CharacterSheetField)
	return fields, args.Error(1)
}

// Mock MessageRepository
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MessageRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, storyID)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}
func (m *MessageRepository) ListRecent(ctx context.Context, storyID uuid.UUID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, storyID, limit)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}

// Mock CharacterSheetRepository
type CharacterSheetRepository struct {
	mock.Mock
}

func (m *CharacterSheetRepository) GetByStoryAndUser(ctx context.Context, storyID, userID uuid.UUID) (*models.CharacterSheet, error) {
	args := m.Called(ctx, storyID, userID)
	sheet, _ := args.Get(0).(*models.CharacterSheet)
	return sheet, args.Error(1)
}
func (m *CharacterSheetRepository) Upsert(ctx context.Context, sheet *models.CharacterSheet) error {
	args := m.Called(ctx, sheet)
	return args.Error(0)
}

// Mock AIClient
type AIClient struct {
	mock.Mock
}

func (m *AIClient) Narrate(ctx context.Context, systemPrompt string, turns []models.ChatTurn) (string, error) {
	args := m.Called(ctx, systemPrompt, turns)
	return args.String(0), args.Error(1)
}
func (m *AIClient) GenerateCharacterSheet(ctx context.Context, systemPrompt, description string, fields []models.CharacterSheetField) (models.FieldValues, error) {
	args := m.Called(ctx, systemPrompt, description, fields)
	values, _ := args.Get(0).(models.FieldValues)
	return values, args.Error(1)
}
func (m *AIClient) GenerateSceneImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
