package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chronicle-server/internal/config"
	"chronicle-server/internal/handler"
	"chronicle-server/internal/interfaces/mocks"
	"chronicle-server/internal/models"
	"chronicle-server/internal/realtime"
	"chronicle-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	server      *httptest.Server
	userRepo    *mocks.UserRepository
	tokenRepo   *mocks.TokenRepository
	storyRepo   *mocks.StoryRepository
	configRepo  *mocks.StoryConfigRepository
	messageRepo *mocks.MessageRepository
	sheetRepo   *mocks.CharacterSheetRepository
	ai          *mocks.AIClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:         "test-jwt-secret",
		PasswordPepper:    "test-pepper",
		AccessTokenTTL:    time.Minute,
		RefreshTokenTTL:   time.Hour,
		AutoNarratorDelay: time.Hour,
	}
	log := zap.NewNop()

	env := &testEnv{
		userRepo:    new(mocks.UserRepository),
		tokenRepo:   new(mocks.TokenRepository),
		storyRepo:   new(mocks.StoryRepository),
		configRepo:  new(mocks.StoryConfigRepository),
		messageRepo: new(mocks.MessageRepository),
		sheetRepo:   new(mocks.CharacterSheetRepository),
		ai:          new(mocks.AIClient),
	}

	hub := realtime.NewHub(log)
	hubCtx, hubCancel := context.WithCancel(context.Background())

	authSvc := service.NewAuthService(env.userRepo, env.tokenRepo, cfg, log)
	storySvc := service.NewStoryService(env.storyRepo, env.configRepo, env.userRepo, log)
	chatSvc := service.NewChatService(env.messageRepo, env.configRepo, env.userRepo, storySvc, env.ai, hub, cfg.AutoNarratorDelay, log)
	characterSvc := service.NewCharacterService(env.sheetRepo, env.configRepo, storySvc, env.ai, log)
	imageSvc := service.NewImageService(env.ai, log)

	h := handler.NewHandler(authSvc, storySvc, chatSvc, characterSvc, imageSvc, hub, cfg)
	router := gin.New()
	h.RegisterRoutes(router, nil)
	go hub.Run(hubCtx)

	env.server = httptest.NewServer(router)
	t.Cleanup(func() {
		env.server.Close()
		chatSvc.Shutdown()
		hubCancel()
	})
	return env
}

func (env *testEnv) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin проводит пользователя через /auth/register и /auth/login
// поверх мок-репозитория и возвращает его вместе с access-токеном.
func (env *testEnv) registerAndLogin(t *testing.T, username, email, password string) (*models.User, string) {
	t.Helper()

	env.userRepo.On("GetUserByUsername", mock.Anything, username).Return(nil, models.ErrUserNotFound).Once()
	env.userRepo.On("GetUserByEmail", mock.Anything, email).Return(nil, models.ErrUserNotFound).Once()

	var created models.User
	env.userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*models.User)
			u.ID = uuid.New()
			created = *u
		}).Return(nil).Once()

	resp := env.post(t, "/auth/register", "", gin.H{"username": username, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	env.userRepo.On("GetUserByEmail", mock.Anything, email).Return(&created, nil)
	env.userRepo.On("GetUserByID", mock.Anything, created.ID).Return(&created, nil)
	env.tokenRepo.On("SetRefreshToken", mock.Anything, created.ID, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	resp = env.post(t, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loginBody := decodeBody[struct {
		User   models.User         `json:"user"`
		Tokens models.TokenDetails `json:"tokens"`
	}](t, resp)
	require.NotEmpty(t, loginBody.Tokens.AccessToken)

	return &created, loginBody.Tokens.AccessToken
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/api/stories")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/stories", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = env.server.Client().Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[models.ErrorResponse](t, resp)
	assert.Equal(t, models.ErrCodeTokenInvalid, body.Code)
}

func TestRollDice_InvalidParamsRejected(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.registerAndLogin(t, "roller", "roller@example.com", "password1")

	story := &models.Story{ID: uuid.New(), Title: "Dice pit", CreatorID: user.ID, IsPublic: true}
	env.storyRepo.On("GetStoryByID", mock.Anything, story.ID).Return(story, nil)

	resp := env.post(t, fmt.Sprintf("/api/stories/%s/roll", story.ID), token, gin.H{"count": 25, "sides": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.post(t, fmt.Sprintf("/api/stories/%s/roll", story.ID), token, gin.H{"count": 2, "sides": 7})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	env.messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestRollDice_PostsResultToChat(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.registerAndLogin(t, "roller", "roller@example.com", "password1")

	story := &models.Story{ID: uuid.New(), Title: "Dice pit", CreatorID: user.ID, IsPublic: true}
	env.storyRepo.On("GetStoryByID", mock.Anything, story.ID).Return(story, nil)
	env.messageRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Message).ID = uuid.New()
		}).Return(nil).Once()

	resp := env.post(t, fmt.Sprintf("/api/stories/%s/roll", story.ID), token, gin.H{"count": 2, "sides": 6, "modifier": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[struct {
		Message models.Message `json:"message"`
	}](t, resp)
	assert.True(t, strings.HasPrefix(body.Message.Content, "🎲 Rolls 2d6 +1:"))
}

// Полный путь: A создает открытую историю, B входит, шлет сообщение,
// A получает его по WebSocket ровно один раз с именем автора.
func TestStoryChatEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.registerAndLogin(t, "alice", "alice@example.com", "password1")
	userB, tokenB := env.registerAndLogin(t, "bob", "bob@example.com", "password2")

	// A создает публичную историю без пароля
	var story models.Story
	env.storyRepo.On("CreateStoryWithCreator", mock.Anything, mock.AnythingOfType("*models.Story")).
		Run(func(args mock.Arguments) {
			s := args.Get(1).(*models.Story)
			s.ID = uuid.New()
			story = *s
		}).Return(nil).Once()

	resp := env.post(t, "/api/stories", tokenA, gin.H{"title": "Test", "isPublic": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	require.NotEqual(t, uuid.Nil, story.ID)

	env.storyRepo.On("GetStoryByID", mock.Anything, story.ID).Return(&story, nil)

	// B входит: открытая история, участие создается неявно
	env.storyRepo.On("IsParticipant", mock.Anything, story.ID, userB.ID).Return(false, nil).Once()
	env.storyRepo.On("AddParticipant", mock.Anything, story.ID, userB.ID).Return(nil).Once()
	env.storyRepo.On("IsParticipant", mock.Anything, story.ID, userB.ID).Return(true, nil)

	resp = env.post(t, fmt.Sprintf("/api/stories/%s/join", story.ID), tokenB, gin.H{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joinBody := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "granted", joinBody["access"])

	// A подключается к комнате по WebSocket
	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") +
		fmt.Sprintf("/ws?token=%s&story_id=%s", tokenA, story.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent := func() realtime.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev realtime.Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	}

	// Первое событие - полный набор присутствия
	ev := readEvent()
	require.Equal(t, realtime.EventTypePresence, ev.Type)
	require.Len(t, ev.Presence, 1)
	assert.Equal(t, "alice", ev.Presence[0].Username)

	// B отправляет сообщение
	env.messageRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Message).ID = uuid.New()
		}).Return(nil).Once()

	resp = env.post(t, fmt.Sprintf("/api/stories/%s/messages", story.ID), tokenB, gin.H{"content": "Hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	ev = readEvent()
	require.Equal(t, realtime.EventTypeMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "Hello", ev.Message.Content)
	assert.Equal(t, "bob", ev.Message.Username)
	require.NotNil(t, ev.Message.UserID)
	assert.Equal(t, userB.ID, *ev.Message.UserID)

	// Ровно одно сообщение: следующего кадра нет
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWSRejectsNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.registerAndLogin(t, "mallory", "mallory@example.com", "password1")

	story := &models.Story{ID: uuid.New(), Title: "Private", CreatorID: uuid.New(), IsPublic: false}
	env.storyRepo.On("GetStoryByID", mock.Anything, story.ID).Return(story, nil)
	env.storyRepo.On("IsParticipant", mock.Anything, story.ID, user.ID).Return(false, nil)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") +
		fmt.Sprintf("/ws?token=%s&story_id=%s", token, story.ID)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
