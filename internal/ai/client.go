package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chronicle-server/internal/interfaces"
	"chronicle-server/internal/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Compile-time check to ensure Client implements AIClient
var _ interfaces.AIClient = (*Client)(nil)

// DefaultNarratorPrompt - персона рассказчика по умолчанию, когда у истории
// нет шаблона с собственным системным промптом.
const DefaultNarratorPrompt = `You are an experienced and creative tabletop RPG narrator.
You continue stories in an immersive and captivating way.
You adapt your style to the context of the story and the players' actions.
You create interesting twists and vivid descriptions.
You stay consistent with the previous story.

Answer concisely (2-4 sentences maximum) so the players can react.`

const characterAssistantSystemPrompt = `You are an assistant that generates character sheets for tabletop RPGs. You return ONLY valid JSON, without markdown or any extra text.`

// Ограничение окна контекста рассказчика в токенах. Сообщения сверх бюджета
// отбрасываются начиная с самых старых.
const defaultContextTokenBudget = 4000

// Config содержит конфигурацию клиента AI-шлюза.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	ImageModel         string
	Timeout            int // секунды
	MaxAttempts        int
	ContextTokenBudget int
}

// Client - клиент внешнего шлюза генерации (OpenAI-совместимый API).
type Client struct {
	client      *openai.Client
	model       string
	imageModel  string
	timeout     time.Duration
	maxAttempts int
	tokenBudget int
	encoder     *tiktoken.Tiktoken
	logger      *zap.Logger
}

// New создает новый экземпляр клиента AI-шлюза.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai gateway api key is not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ContextTokenBudget <= 0 {
		cfg.ContextTokenBudget = defaultContextTokenBudget
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	// Точность подсчета здесь некритична, бюджет консервативный, поэтому
	// для незнакомых шлюзовых моделей откатываемся на cl100k_base.
	encoder, err := tiktoken.EncodingForModel(cfg.Model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
		}
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		timeout:     time.Duration(cfg.Timeout) * time.Second,
		maxAttempts: cfg.MaxAttempts,
		tokenBudget: cfg.ContextTokenBudget,
		encoder:     encoder,
		logger:      logger.Named("AIClient"),
	}, nil
}

// Narrate продолжает повествование по системному промпту комнаты и окну сообщений.
func (c *Client) Narrate(ctx context.Context, systemPrompt string, turns []models.ChatTurn) (string, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultNarratorPrompt
	}

	turns = c.trimToTokenBudget(turns)

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == models.ChatRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   600,
	}

	content, err := c.createChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// GenerateCharacterSheet заполняет поля листа персонажа по свободному описанию.
// Ответ модели парсится и валидируется против схемы полей (см. parser.go).
func (c *Client) GenerateCharacterSheet(ctx context.Context, systemPrompt, description string, fields []models.CharacterSheetField) (models.FieldValues, error) {
	prompt := buildCharacterSheetPrompt(systemPrompt, description, fields)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: characterAssistantSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.8,
	}

	content, err := c.createChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	values, err := ParseFieldValues(content, fields)
	if err != nil {
		c.logger.Warn("Character assistant returned an invalid payload", zap.Error(err))
		return nil, err
	}
	return values, nil
}

// GenerateSceneImage генерирует иллюстрацию сцены и возвращает ее URL.
func (c *Client) GenerateSceneImage(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fullPrompt := fmt.Sprintf("Generate a high-quality fantasy RPG scene illustration: %s. Ultra high resolution, detailed, atmospheric.", prompt)

	req := openai.ImageRequest{
		Prompt:         fullPrompt,
		Model:          c.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}

	resp, err := c.client.CreateImage(ctx, req)
	if err != nil {
		return "", c.mapAPIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", models.ErrAIEmptyResponse
	}

	c.logger.Info("Scene image generated")
	return resp.Data[0].URL, nil
}

// createChatCompletion выполняет запрос с повторами на временных сбоях.
// Ошибки 429/402 не ретраются: их должен увидеть пользователь.
func (c *Client) createChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			mapped := c.mapAPIError(err)
			if errors.Is(mapped, models.ErrAIRateLimited) || errors.Is(mapped, models.ErrAIQuotaExceeded) {
				return "", mapped
			}
			lastErr = mapped
			c.logger.Warn("Chat completion attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Error(err),
			)
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = models.ErrAIEmptyResponse
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", lastErr
}

// mapAPIError мапит ошибки шлюза на доменные сентинели.
func (c *Client) mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrAIUpstream, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return models.ErrAIRateLimited
		case 402:
			return models.ErrAIQuotaExceeded
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case 429:
			return models.ErrAIRateLimited
		case 402:
			return models.ErrAIQuotaExceeded
		}
	}
	return fmt.Errorf("%w: %v", models.ErrAIUpstream, err)
}

// trimToTokenBudget отбрасывает самые старые сообщения, пока окно
// не уложится в бюджет токенов.
func (c *Client) trimToTokenBudget(turns []models.ChatTurn) []models.ChatTurn {
	total := 0
	counts := make([]int, len(turns))
	for i, t := range turns {
		counts[i] = len(c.encoder.Encode(t.Content, nil, nil))
		total += counts[i]
	}

	start := 0
	for start < len(turns)-1 && total > c.tokenBudget {
		total -= counts[start]
		start++
	}
	if start > 0 {
		c.logger.Debug("Narrator context trimmed to token budget",
			zap.Int("dropped", start),
			zap.Int("kept", len(turns)-start),
		)
	}
	return turns[start:]
}
