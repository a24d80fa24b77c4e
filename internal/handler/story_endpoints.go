package handler

import (
	"net/http"

	"chronicle-server/internal/models"
	"chronicle-server/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary Список историй
// @Description Возвращает все истории, новые первыми
// @Tags stories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Story
// @Router /api/stories [get]
func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.storyService.ListStories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

// @Summary Список шаблонов историй
// @Description Возвращает доступные шаблоны с системными промптами
// @Tags stories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.StoryConfig
// @Router /api/story-configs [get]
func (h *Handler) listStoryConfigs(c *gin.Context) {
	configs, err := h.storyService.ListConfigs(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

// @Summary Создание истории
// @Description Создает историю, создатель сразу становится участником
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createStoryRequest true "Параметры истории"
// @Success 201 {object} models.Story
// @Failure 400 {object} models.ErrorResponse
// @Router /api/stories [post]
func (h *Handler) createStory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	story, err := h.storyService.CreateStory(c.Request.Context(), userID, service.CreateStoryParams{
		Title:        req.Title,
		Description:  req.Description,
		ConfigID:     req.ConfigID,
		IsPublic:     req.IsPublic,
		Password:     req.Password,
		AutoNarrator: req.AutoNarrator,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storiesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, story)
}

// @Summary Информация об истории
// @Description Возвращает историю, доступно участникам и создателю
// @Tags stories
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Success 200 {object} models.Story
// @Failure 403 {object} models.ErrorResponse
// @Router /api/stories/{story_id} [get]
func (h *Handler) getStory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	story, err := h.storyService.RequireParticipant(c.Request.Context(), storyID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// @Summary Вход в историю
// @Description Проверяет доступ к истории. Для защищенной комнаты принимает пароль.
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Param request body joinStoryRequest false "Пароль комнаты (если требуется)"
// @Success 200 {object} map[string]string "Результат проверки доступа"
// @Failure 403 {object} models.ErrorResponse "Отказ или неверный пароль"
// @Router /api/stories/{story_id}/join [post]
func (h *Handler) joinStory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	var req joinStoryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
			return
		}
	}

	// С паролем: прямая попытка входа в защищенную комнату
	if req.Password != "" {
		if err := h.storyService.JoinWithPassword(c.Request.Context(), storyID, userID, req.Password); err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": models.AccessGranted.String()})
		return
	}

	decision, err := h.storyService.ResolveAccess(c.Request.Context(), storyID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	switch decision {
	case models.AccessGranted:
		c.JSON(http.StatusOK, gin.H{"access": decision.String()})
	case models.AccessPasswordRequired:
		c.JSON(http.StatusOK, gin.H{"access": decision.String()})
	default:
		handleServiceError(c, models.ErrStoryAccessDenied)
	}
}

// @Summary Приглашение участника
// @Description Создатель добавляет существующего пользователя в историю
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Param request body inviteRequest true "Имя приглашаемого"
// @Success 200 {object} map[string]string
// @Failure 403 {object} models.ErrorResponse "Приглашать может только создатель"
// @Failure 409 {object} models.ErrorResponse "Пользователь уже участник"
// @Router /api/stories/{story_id}/invite [post]
func (h *Handler) inviteParticipant(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	if err := h.storyService.InviteParticipant(c.Request.Context(), storyID, userID, req.Username); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invited"})
}
