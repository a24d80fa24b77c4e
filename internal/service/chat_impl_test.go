package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"chronicle-server/internal/interfaces/mocks"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureBroadcaster записывает разосланные сообщения.
type captureBroadcaster struct {
	mu       sync.Mutex
	messages []*models.Message
	notify   chan *models.Message
}

func newCaptureBroadcaster() *captureBroadcaster {
	return &captureBroadcaster{notify: make(chan *models.Message, 16)}
}

func (b *captureBroadcaster) BroadcastMessage(msg *models.Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
	b.notify <- msg
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

type chatTestEnv struct {
	svc         ChatService
	storyRepo   *mocks.StoryRepository
	messageRepo *mocks.MessageRepository
	configRepo  *mocks.StoryConfigRepository
	userRepo    *mocks.UserRepository
	ai          *mocks.AIClient
	broadcaster *captureBroadcaster
}

func newChatTestEnv(autoNarratorDelay time.Duration) *chatTestEnv {
	storyRepo := new(mocks.StoryRepository)
	messageRepo := new(mocks.MessageRepository)
	configRepo := new(mocks.StoryConfigRepository)
	userRepo := new(mocks.UserRepository)
	ai := new(mocks.AIClient)
	broadcaster := newCaptureBroadcaster()

	// Имя автора подтягивается при отправке сообщения
	userRepo.On("GetUserByID", mock.Anything, mock.Anything).Return(&models.User{Username: "player"}, nil).Maybe()

	storySvc := NewStoryService(storyRepo, configRepo, userRepo, zap.NewNop())
	svc := NewChatService(messageRepo, configRepo, userRepo, storySvc, ai, broadcaster, autoNarratorDelay, zap.NewNop())

	return &chatTestEnv{
		svc:         svc,
		storyRepo:   storyRepo,
		messageRepo: messageRepo,
		configRepo:  configRepo,
		userRepo:    userRepo,
		ai:          ai,
		broadcaster: broadcaster,
	}
}

// expectStory настраивает историю, участником которой является userID.
func (env *chatTestEnv) expectStory(story *models.Story, userID uuid.UUID) {
	env.storyRepo.On("GetStoryByID", mock.Anything, story.ID).Return(story, nil)
	if story.CreatorID != userID {
		env.storyRepo.On("IsParticipant", mock.Anything, story.ID, userID).Return(true, nil)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	env := newChatTestEnv(time.Second)
	ctx := context.Background()

	_, err := env.svc.SendMessage(ctx, uuid.New(), uuid.New(), "   ")
	assert.ErrorIs(t, err, models.ErrEmptyMessage)

	_, err = env.svc.SendMessage(ctx, uuid.New(), uuid.New(), strings.Repeat("x", 5001))
	assert.ErrorIs(t, err, models.ErrMessageTooLong)

	env.messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSendMessage_NotAParticipant(t *testing.T) {
	env := newChatTestEnv(time.Second)
	storyID := uuid.New()
	userID := uuid.New()

	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(&models.Story{ID: storyID, CreatorID: uuid.New()}, nil)
	env.storyRepo.On("IsParticipant", mock.Anything, storyID, userID).Return(false, nil)

	_, err := env.svc.SendMessage(context.Background(), storyID, userID, "hello")
	assert.ErrorIs(t, err, models.ErrNotAParticipant)
}

func TestSendMessage_SavesAndBroadcasts(t *testing.T) {
	env := newChatTestEnv(time.Second)
	userID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID}
	env.expectStory(story, userID)

	env.messageRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Message).ID = uuid.New()
		}).Return(nil)

	msg, err := env.svc.SendMessage(context.Background(), story.ID, userID, "  hello there  ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Content)
	assert.Equal(t, "player", msg.Username)
	assert.False(t, msg.IsAINarrator)
	require.Equal(t, 1, env.broadcaster.count())
}

func TestInvokeNarrator_EmptyStoryRefusedWithoutAICall(t *testing.T) {
	env := newChatTestEnv(time.Second)
	userID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID}
	env.expectStory(story, userID)

	env.messageRepo.On("ListRecent", mock.Anything, story.ID, narratorWindowSize).Return([]models.Message{}, nil)

	_, err := env.svc.InvokeNarrator(context.Background(), story.ID, userID)
	assert.ErrorIs(t, err, models.ErrEmptyStory)
	env.ai.AssertNotCalled(t, "Narrate", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvokeNarrator_WindowAndRoleMapping(t *testing.T) {
	env := newChatTestEnv(time.Second)
	userID := uuid.New()
	configID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID, ConfigID: &configID}
	env.expectStory(story, userID)

	authorID := uuid.New()
	window := []models.Message{
		{ID: uuid.New(), StoryID: story.ID, UserID: &authorID, Content: "I open the door"},
		{ID: uuid.New(), StoryID: story.ID, IsAINarrator: true, Content: "The door creaks"},
		{ID: uuid.New(), StoryID: story.ID, UserID: &authorID, Content: "I step inside"},
	}
	env.messageRepo.On("ListRecent", mock.Anything, story.ID, narratorWindowSize).Return(window, nil)
	env.configRepo.On("GetByID", mock.Anything, configID).Return(&models.StoryConfig{ID: configID, SystemPrompt: "You narrate a dark fantasy."}, nil)

	env.ai.On("Narrate", mock.Anything, "You narrate a dark fantasy.", mock.MatchedBy(func(turns []models.ChatTurn) bool {
		return len(turns) == 3 &&
			turns[0].Role == models.ChatRoleUser &&
			turns[1].Role == models.ChatRoleAssistant &&
			turns[2].Role == models.ChatRoleUser
	})).Return("Inside, darkness breathes.", nil)

	env.messageRepo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.IsAINarrator && m.UserID == nil && m.Content == "Inside, darkness breathes."
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Message).ID = uuid.New()
	}).Return(nil)

	msg, err := env.svc.InvokeNarrator(context.Background(), story.ID, userID)
	require.NoError(t, err)
	assert.True(t, msg.IsAINarrator)
	assert.Equal(t, 1, env.broadcaster.count())
	env.ai.AssertExpectations(t)
}

func TestInvokeNarrator_SerializedPerRoom(t *testing.T) {
	env := newChatTestEnv(time.Second)
	userID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID}
	env.expectStory(story, userID)

	authorID := uuid.New()
	window := []models.Message{{ID: uuid.New(), StoryID: story.ID, UserID: &authorID, Content: "hello"}}
	env.messageRepo.On("ListRecent", mock.Anything, story.ID, narratorWindowSize).Return(window, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	env.ai.On("Narrate", mock.Anything, "", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return("slow answer", nil)
	env.messageRepo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.InvokeNarrator(context.Background(), story.ID, userID)
		done <- err
	}()
	<-started

	// Пока первый вызов в полете, второй по той же комнате отклоняется
	_, err := env.svc.InvokeNarrator(context.Background(), story.ID, userID)
	assert.ErrorIs(t, err, models.ErrAIRateLimited)

	close(release)
	require.NoError(t, <-done)
}

func TestAutoNarrator_FiresAfterDelay(t *testing.T) {
	env := newChatTestEnv(20 * time.Millisecond)
	userID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID, AutoNarrator: true}
	env.expectStory(story, userID)

	authorID := uuid.New()
	env.messageRepo.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Message).ID = uuid.New()
		}).Return(nil)
	env.messageRepo.On("ListRecent", mock.Anything, story.ID, narratorWindowSize).
		Return([]models.Message{{ID: uuid.New(), StoryID: story.ID, UserID: &authorID, Content: "hello"}}, nil)
	env.ai.On("Narrate", mock.Anything, "", mock.Anything).Return("and so it begins", nil)

	_, err := env.svc.SendMessage(context.Background(), story.ID, userID, "hello")
	require.NoError(t, err)

	// Первое событие - само сообщение, второе - ответ авто-рассказчика
	<-env.broadcaster.notify
	select {
	case msg := <-env.broadcaster.notify:
		assert.True(t, msg.IsAINarrator)
	case <-time.After(2 * time.Second):
		t.Fatal("auto-narrator did not fire")
	}
}

func TestAutoNarrator_FiredTimerDoesNotEvictNewerOne(t *testing.T) {
	env := newChatTestEnv(10 * time.Millisecond)
	storyID := uuid.New()

	impl := env.svc.(*chatServiceImpl)
	env.storyRepo.On("GetStoryByID", mock.Anything, storyID).Return(nil, models.ErrStoryNotFound).Maybe()

	impl.scheduleAutoNarrator(storyID)

	// Держим мьютекс через срабатывание таймера: его колбэк встает в очередь
	// на входе, а мы тем временем подменяем запись в карте на новый таймер
	impl.mu.Lock()
	time.Sleep(50 * time.Millisecond)
	replacement := time.AfterFunc(time.Hour, func() {})
	defer replacement.Stop()
	impl.timers[storyID] = replacement
	impl.mu.Unlock()

	// Отработавший колбэк не должен снести чужую запись
	time.Sleep(50 * time.Millisecond)
	impl.mu.Lock()
	assert.Same(t, replacement, impl.timers[storyID])
	impl.mu.Unlock()
}

func TestAutoNarrator_ShutdownCancelsPendingTimers(t *testing.T) {
	env := newChatTestEnv(50 * time.Millisecond)
	userID := uuid.New()
	story := &models.Story{ID: uuid.New(), CreatorID: userID, AutoNarrator: true}
	env.expectStory(story, userID)

	env.messageRepo.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Message).ID = uuid.New()
		}).Return(nil)

	_, err := env.svc.SendMessage(context.Background(), story.ID, userID, "hello")
	require.NoError(t, err)

	env.svc.Shutdown()
	time.Sleep(100 * time.Millisecond)

	env.ai.AssertNotCalled(t, "Narrate", mock.Anything, mock.Anything, mock.Anything)
}
