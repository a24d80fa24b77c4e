package handler

import (
	"net/http"

	"chronicle-server/internal/config"
	"chronicle-server/internal/dice"
	"chronicle-server/internal/realtime"
	"chronicle-server/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler обслуживает HTTP API и WebSocket-подключения.
type Handler struct {
	authService      service.AuthService
	storyService     service.StoryService
	chatService      service.ChatService
	characterService service.CharacterService
	imageService     service.ImageService
	hub              *realtime.Hub
	roller           *dice.Roller
	cfg              *config.Config
}

// NewHandler creates a new Handler.
func NewHandler(
	authService service.AuthService,
	storyService service.StoryService,
	chatService service.ChatService,
	characterService service.CharacterService,
	imageService service.ImageService,
	hub *realtime.Hub,
	cfg *config.Config,
) *Handler {
	hub.SetConnGauge(wsConnectionsActive)
	return &Handler{
		authService:      authService,
		storyService:     storyService,
		chatService:      chatService,
		characterService: characterService,
		imageService:     imageService,
		hub:              hub,
		roller:           dice.New(),
		cfg:              cfg,
	}
}

// RegisterRoutes вешает все маршруты приложения.
// aiLimiter ограничивает частоту обращений к AI-эндпоинтам.
func (h *Handler) RegisterRoutes(router *gin.Engine, aiLimiter gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/logout", h.logout)
	}

	api := router.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/me", h.getMe)
		api.PUT("/me", h.updateProfile)

		api.GET("/story-configs", h.listStoryConfigs)

		api.GET("/stories", h.listStories)
		api.POST("/stories", h.createStory)
		api.GET("/stories/:story_id", h.getStory)
		api.POST("/stories/:story_id/join", h.joinStory)
		api.POST("/stories/:story_id/invite", h.inviteParticipant)

		api.GET("/stories/:story_id/messages", h.listMessages)
		api.POST("/stories/:story_id/messages", h.sendMessage)
		api.POST("/stories/:story_id/roll", h.rollDice)

		api.GET("/stories/:story_id/sheet", h.getSheet)
		api.PUT("/stories/:story_id/sheet", h.saveSheet)
		api.GET("/stories/:story_id/sheet/fields", h.listSheetFields)

		aiGroup := api.Group("/ai")
		if aiLimiter != nil {
			aiGroup.Use(aiLimiter)
		}
		{
			aiGroup.POST("/narrate", h.narrate)
			aiGroup.POST("/character-sheet", h.generateCharacterSheet)
			aiGroup.POST("/image", h.generateSceneImage)
		}
	}

	// WebSocket авторизуется по query-токену, без общего middleware
	router.GET("/ws", h.serveWS)
}
