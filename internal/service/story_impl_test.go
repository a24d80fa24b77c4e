package service

import (
	"context"
	"strings"
	"testing"

	"chronicle-server/internal/interfaces/mocks"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStoryService(storyRepo *mocks.StoryRepository, configRepo *mocks.StoryConfigRepository, userRepo *mocks.UserRepository) StoryService {
	return NewStoryService(storyRepo, configRepo, userRepo, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestCreateStory_HashesRoomPassword(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))
	creatorID := uuid.New()

	var captured *models.Story
	storyRepo.On("CreateStoryWithCreator", mock.Anything, mock.AnythingOfType("*models.Story")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*models.Story)
			captured.ID = uuid.New()
		}).Return(nil)

	story, err := svc.CreateStory(context.Background(), creatorID, CreateStoryParams{
		Title:    "The Sunken Keep",
		IsPublic: true,
		Password: strPtr("open-sesame"),
	})
	require.NoError(t, err)

	// Пароль комнаты хранится только bcrypt-хешем
	require.NotNil(t, captured.PasswordHash)
	assert.NotEqual(t, "open-sesame", *captured.PasswordHash)
	assert.True(t, checkRoomPassword("open-sesame", *captured.PasswordHash))
	assert.Equal(t, creatorID, story.CreatorID)
}

func TestCreateStory_Validation(t *testing.T) {
	svc := newStoryService(new(mocks.StoryRepository), new(mocks.StoryConfigRepository), new(mocks.UserRepository))
	ctx := context.Background()
	creatorID := uuid.New()

	_, err := svc.CreateStory(ctx, creatorID, CreateStoryParams{Title: "   "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.CreateStory(ctx, creatorID, CreateStoryParams{Title: strings.Repeat("x", 201)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	longDesc := strings.Repeat("d", 2001)
	_, err = svc.CreateStory(ctx, creatorID, CreateStoryParams{Title: "ok", Description: &longDesc})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	longPass := strings.Repeat("p", 101)
	_, err = svc.CreateStory(ctx, creatorID, CreateStoryParams{Title: "ok", IsPublic: true, Password: &longPass})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	// Лимит длины пароля действует и для приватной комнаты
	_, err = svc.CreateStory(ctx, creatorID, CreateStoryParams{Title: "ok", IsPublic: false, Password: &longPass})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreateStory_PrivateStoryIgnoresPassword(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	var captured *models.Story
	storyRepo.On("CreateStoryWithCreator", mock.Anything, mock.AnythingOfType("*models.Story")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*models.Story)
			captured.ID = uuid.New()
		}).Return(nil)

	_, err := svc.CreateStory(context.Background(), uuid.New(), CreateStoryParams{
		Title:    "Hidden Vault",
		IsPublic: false,
		Password: strPtr("open-sesame"),
	})
	require.NoError(t, err)

	// В приватную комнату вход только по приглашению, пароль не сохраняется
	assert.Nil(t, captured.PasswordHash)
}

func TestCreateStory_UnknownConfig(t *testing.T) {
	configRepo := new(mocks.StoryConfigRepository)
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, configRepo, new(mocks.UserRepository))

	configID := uuid.New()
	configRepo.On("GetByID", mock.Anything, configID).Return(nil, models.ErrStoryConfigNotFound)

	_, err := svc.CreateStory(context.Background(), uuid.New(), CreateStoryParams{Title: "ok", ConfigID: &configID})
	assert.ErrorIs(t, err, models.ErrStoryConfigNotFound)
	storyRepo.AssertNotCalled(t, "CreateStoryWithCreator", mock.Anything, mock.Anything)
}

func TestResolveAccess_PrivateStoryDeniedForStranger(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	stranger := uuid.New()
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: false}, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, stranger).Return(false, nil)

	decision, err := svc.ResolveAccess(context.Background(), storyID, stranger)
	require.NoError(t, err)
	assert.Equal(t, models.AccessDenied, decision)
	storyRepo.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAccess_CreatorAlwaysGranted(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	creatorID := uuid.New()
	hash, _ := hashRoomPassword("secret")
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: creatorID, IsPublic: false, PasswordHash: &hash}, nil)

	decision, err := svc.ResolveAccess(context.Background(), storyID, creatorID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessGranted, decision)
	// Создатель не проходит через проверку участия
	storyRepo.AssertNotCalled(t, "IsParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAccess_OpenPublicStoryJoinsIdempotently(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	userID := uuid.New()
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: true}, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, userID).Return(false, nil)
	storyRepo.On("AddParticipant", mock.Anything, storyID, userID).Return(nil)

	// Повторный вход не ошибка: AddParticipant идемпотентен на уровне репозитория
	for i := 0; i < 2; i++ {
		decision, err := svc.ResolveAccess(context.Background(), storyID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.AccessGranted, decision)
	}
	storyRepo.AssertNumberOfCalls(t, "AddParticipant", 2)
}

func TestResolveAccess_PublicStoryWithPasswordRequiresIt(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	userID := uuid.New()
	hash, _ := hashRoomPassword("secret")
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: true, PasswordHash: &hash}, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, userID).Return(false, nil)

	decision, err := svc.ResolveAccess(context.Background(), storyID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessPasswordRequired, decision)
	// Доступ не выдается и участие не записывается до ввода пароля
	storyRepo.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAccess_ParticipantSkipsPassword(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	userID := uuid.New()
	hash, _ := hashRoomPassword("secret")
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: true, PasswordHash: &hash}, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, userID).Return(true, nil)

	decision, err := svc.ResolveAccess(context.Background(), storyID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessGranted, decision)
}

func TestJoinWithPassword(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	userID := uuid.New()
	hash, err := hashRoomPassword("secret")
	require.NoError(t, err)
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: true, PasswordHash: &hash}, nil)

	// Неверный пароль: отказ без побочных эффектов
	err = svc.JoinWithPassword(context.Background(), storyID, userID, "wrong")
	assert.ErrorIs(t, err, models.ErrWrongStoryPassword)
	storyRepo.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)

	// Верный пароль: участие записывается
	storyRepo.On("AddParticipant", mock.Anything, storyID, userID).Return(nil)
	err = svc.JoinWithPassword(context.Background(), storyID, userID, "secret")
	require.NoError(t, err)
	storyRepo.AssertCalled(t, "AddParticipant", mock.Anything, storyID, userID)
}

func TestJoinWithPassword_RoomWithoutPassword(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New(), IsPublic: true}, nil)

	err := svc.JoinWithPassword(context.Background(), storyID, uuid.New(), "anything")
	assert.ErrorIs(t, err, models.ErrStoryAccessDenied)
}

func TestInviteParticipant(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	userRepo := new(mocks.UserRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), userRepo)

	storyID := uuid.New()
	creatorID := uuid.New()
	invitee := &models.User{ID: uuid.New(), Username: "bob"}

	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: creatorID}, nil)
	userRepo.On("GetUserByUsername", mock.Anything, "bob").Return(invitee, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, invitee.ID).Return(false, nil)
	storyRepo.On("AddParticipant", mock.Anything, storyID, invitee.ID).Return(nil)

	require.NoError(t, svc.InviteParticipant(context.Background(), storyID, creatorID, "bob"))

	// Повторное приглашение того же пользователя
	storyRepo.ExpectedCalls = nil
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: creatorID}, nil)
	storyRepo.On("IsParticipant", mock.Anything, storyID, invitee.ID).Return(true, nil)
	err := svc.InviteParticipant(context.Background(), storyID, creatorID, "bob")
	assert.ErrorIs(t, err, models.ErrAlreadyParticipant)
}

func TestInviteParticipant_NonCreatorRejected(t *testing.T) {
	storyRepo := new(mocks.StoryRepository)
	svc := newStoryService(storyRepo, new(mocks.StoryConfigRepository), new(mocks.UserRepository))

	storyID := uuid.New()
	storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New()}, nil)

	err := svc.InviteParticipant(context.Background(), storyID, uuid.New(), "bob")
	assert.ErrorIs(t, err, models.ErrStoryAccessDenied)
}
