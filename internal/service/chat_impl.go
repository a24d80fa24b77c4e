package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure chatServiceImpl implements ChatService
var _ ChatService = (*chatServiceImpl)(nil)

const (
	maxMessageLen = 5000
	// Окно контекста рассказчика: последние N сообщений, старые первыми.
	narratorWindowSize = 10
	// Таймаут фонового вызова авто-рассказчика.
	autoNarratorTimeout = 90 * time.Second
)

// chatServiceImpl implements the ChatService interface.
type chatServiceImpl struct {
	messageRepo interfaces.MessageRepository
	configRepo  interfaces.StoryConfigRepository
	userRepo    interfaces.UserRepository
	storySvc    StoryService
	aiClient    interfaces.AIClient
	broadcaster Broadcaster
	logger      *zap.Logger

	autoNarratorDelay time.Duration

	// Состояние авто-рассказчика: по одному отложенному таймеру на комнату
	// и флаг "вызов уже идет" для сериализации обращений к шлюзу.
	mu       sync.Mutex
	timers   map[uuid.UUID]*time.Timer
	inFlight map[uuid.UUID]bool
	closed   bool
}

// NewChatService creates a new instance of chatServiceImpl.
func NewChatService(
	messageRepo interfaces.MessageRepository,
	configRepo interfaces.StoryConfigRepository,
	userRepo interfaces.UserRepository,
	storySvc StoryService,
	aiClient interfaces.AIClient,
	broadcaster Broadcaster,
	autoNarratorDelay time.Duration,
	logger *zap.Logger,
) ChatService {
	return &chatServiceImpl{
		messageRepo:       messageRepo,
		configRepo:        configRepo,
		userRepo:          userRepo,
		storySvc:          storySvc,
		aiClient:          aiClient,
		broadcaster:       broadcaster,
		autoNarratorDelay: autoNarratorDelay,
		timers:            make(map[uuid.UUID]*time.Timer),
		inFlight:          make(map[uuid.UUID]bool),
		logger:            logger.Named("ChatService"),
	}
}

// History возвращает всю историю сообщений комнаты.
func (s *chatServiceImpl) History(ctx context.Context, storyID, userID uuid.UUID) ([]models.Message, error) {
	if _, err := s.storySvc.RequireParticipant(ctx, storyID, userID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByStory(ctx, storyID)
	if err != nil {
		s.logger.Error("Failed to load chat history", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, err
	}
	return messages, nil
}

// SendMessage сохраняет сообщение пользователя и рассылает его комнате.
func (s *chatServiceImpl) SendMessage(ctx context.Context, storyID, userID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrEmptyMessage
	}
	if len(content) > maxMessageLen {
		return nil, models.ErrMessageTooLong
	}

	story, err := s.storySvc.RequireParticipant(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		StoryID: storyID,
		UserID:  &userID,
		Content: content,
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, err
	}

	// INSERT не возвращает имя автора, подтягиваем для рассылки и ответа
	if author, err := s.userRepo.GetUserByID(ctx, userID); err == nil {
		msg.Username = author.Username
	} else {
		s.logger.Warn("Failed to resolve message author name", zap.Error(err), zap.String("userID", userID.String()))
	}

	s.broadcaster.BroadcastMessage(msg)

	if story.AutoNarrator {
		s.scheduleAutoNarrator(story.ID)
	}

	return msg, nil
}

// InvokeNarrator вызывает рассказчика для комнаты от имени участника.
func (s *chatServiceImpl) InvokeNarrator(ctx context.Context, storyID, userID uuid.UUID) (*models.Message, error) {
	story, err := s.storySvc.RequireParticipant(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	return s.runNarrator(ctx, story)
}

// Shutdown отменяет отложенные таймеры авто-рассказчика. Новые не планируются.
func (s *chatServiceImpl) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for storyID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, storyID)
	}
	s.logger.Info("Auto-narrator timers cancelled")
}

// scheduleAutoNarrator взводит таймер рассказчика для комнаты.
// Повторное сообщение до срабатывания передергивает таймер.
func (s *chatServiceImpl) scheduleAutoNarrator(storyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if timer, ok := s.timers[storyID]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(s.autoNarratorDelay, func() {
		s.mu.Lock()
		// Между срабатыванием и входом сюда комнате могли взвести новый таймер,
		// удаляем запись только если она все еще наша
		if s.timers[storyID] == timer {
			delete(s.timers, storyID)
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), autoNarratorTimeout)
		defer cancel()

		story, err := s.storySvc.GetStory(ctx, storyID)
		if err != nil {
			s.logger.Error("Auto-narrator: failed to load story", zap.Error(err), zap.String("storyID", storyID.String()))
			return
		}
		if _, err := s.runNarrator(ctx, story); err != nil {
			// Пользовательских ретраев тут нет, просто фиксируем
			s.logger.Warn("Auto-narrator invocation failed", zap.Error(err), zap.String("storyID", storyID.String()))
		}
	})
	s.timers[storyID] = timer
}

// runNarrator выполняет один вызов рассказчика. Вызовы по одной комнате
// сериализуются: пока предыдущий не завершился, новый отклоняется.
func (s *chatServiceImpl) runNarrator(ctx context.Context, story *models.Story) (*models.Message, error) {
	if !s.acquireRoom(story.ID) {
		s.logger.Warn("Narrator invocation rejected: previous one still running", zap.String("storyID", story.ID.String()))
		return nil, models.ErrAIRateLimited
	}
	defer s.releaseRoom(story.ID)

	log := s.logger.With(zap.String("storyID", story.ID.String()))

	recent, err := s.messageRepo.ListRecent(ctx, story.ID, narratorWindowSize)
	if err != nil {
		log.Error("Failed to load narrator context window", zap.Error(err))
		return nil, err
	}
	if len(recent) == 0 {
		// Рассказчику нечего продолжать, к шлюзу не ходим
		log.Warn("Narrator invoked on an empty story")
		return nil, models.ErrEmptyStory
	}

	turns := make([]models.ChatTurn, len(recent))
	for i := range recent {
		turns[i] = models.ChatTurn{Role: recent[i].NarratorRole(), Content: recent[i].Content}
	}

	systemPrompt, err := s.resolveSystemPrompt(ctx, story)
	if err != nil {
		return nil, err
	}

	content, err := s.aiClient.Narrate(ctx, systemPrompt, turns)
	if err != nil {
		log.Warn("Narrator gateway call failed", zap.Error(err))
		return nil, err
	}

	msg := &models.Message{
		StoryID:      story.ID,
		Content:      content,
		IsAINarrator: true,
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		log.Error("Failed to save narrator message", zap.Error(err))
		return nil, err
	}

	s.broadcaster.BroadcastMessage(msg)
	log.Info("Narrator message posted", zap.String("messageID", msg.ID.String()))
	return msg, nil
}

// resolveSystemPrompt возвращает системный промпт шаблона истории,
// пустая строка означает персону рассказчика по умолчанию.
func (s *chatServiceImpl) resolveSystemPrompt(ctx context.Context, story *models.Story) (string, error) {
	if story.ConfigID == nil {
		return "", nil
	}
	cfg, err := s.configRepo.GetByID(ctx, *story.ConfigID)
	if err != nil {
		if errors.Is(err, models.ErrStoryConfigNotFound) {
			s.logger.Warn("Story references a missing config, using default narrator persona",
				zap.String("storyID", story.ID.String()),
				zap.String("configID", story.ConfigID.String()),
			)
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve story config: %w", err)
	}
	return cfg.SystemPrompt, nil
}

func (s *chatServiceImpl) acquireRoom(storyID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[storyID] {
		return false
	}
	s.inFlight[storyID] = true
	return true
}

func (s *chatServiceImpl) releaseRoom(storyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, storyID)
}
