package handler

import (
	"net/http"

	"chronicle-server/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary Вызов рассказчика
// @Description Продолжает повествование по последним сообщениям комнаты
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body narrateRequest true "ID истории"
// @Success 200 {object} models.Message "Сообщение рассказчика"
// @Failure 400 {object} models.ErrorResponse "В комнате нет сообщений"
// @Failure 403 {object} models.ErrorResponse "Не участник"
// @Failure 429 {object} models.ErrorResponse "Лимит запросов к AI"
// @Failure 402 {object} models.ErrorResponse "Квота AI исчерпана"
// @Router /api/ai/narrate [post]
func (h *Handler) narrate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req narrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	msg, err := h.chatService.InvokeNarrator(c.Request.Context(), req.StoryID, userID)
	if err != nil {
		narratorInvocationsTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}

	narratorInvocationsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, msg)
}

// @Summary Помощник по листу персонажа
// @Description Заполняет поля листа по свободному описанию. Результат не сохраняется.
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body generateSheetRequest true "ID истории и описание персонажа"
// @Success 200 {object} map[string]interface{} "Значения полей"
// @Failure 403 {object} models.ErrorResponse "Не участник"
// @Failure 500 {object} models.ErrorResponse "Шлюз вернул непригодный ответ"
// @Router /api/ai/character-sheet [post]
func (h *Handler) generateCharacterSheet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req generateSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	values, err := h.characterService.Generate(c.Request.Context(), req.StoryID, userID, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fieldValues": values})
}

// @Summary Генерация иллюстрации сцены
// @Description Генерирует изображение по описанию сцены
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body imageRequest true "Описание сцены"
// @Success 200 {object} map[string]string "URL изображения"
// @Failure 400 {object} models.ErrorResponse "Пустое описание"
// @Failure 429 {object} models.ErrorResponse "Лимит запросов к AI"
// @Router /api/ai/image [post]
func (h *Handler) generateSceneImage(c *gin.Context) {
	if _, ok := mustUserID(c); !ok {
		return
	}

	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	url, err := h.imageService.GenerateScene(c.Request.Context(), req.Prompt)
	if err != nil {
		sceneImagesTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}

	sceneImagesTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}
