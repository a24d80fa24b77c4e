package handler

import (
	"net/http"

	"chronicle-server/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary История сообщений
// @Description Возвращает все сообщения комнаты по возрастанию времени
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /api/stories/{story_id}/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), storyID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary Отправка сообщения
// @Description Сохраняет сообщение и рассылает его подписчикам комнаты
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Param request body sendMessageRequest true "Текст сообщения"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse "Пустое или слишком длинное сообщение"
// @Failure 403 {object} models.ErrorResponse
// @Router /api/stories/{story_id}/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), storyID, userID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	messagesSentTotal.Inc()
	c.JSON(http.StatusCreated, msg)
}

// @Summary Бросок кубиков
// @Description Бросает кубики и публикует результат как сообщение в чат
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Param request body rollDiceRequest true "Параметры броска"
// @Success 201 {object} map[string]interface{} "Результат броска и сообщение"
// @Failure 400 {object} models.ErrorResponse "Недопустимые параметры броска"
// @Router /api/stories/{story_id}/roll [post]
func (h *Handler) rollDice(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	var req rollDiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	result, err := h.roller.Roll(req.Count, req.Sides, req.Modifier)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	// Результат публикуется обычным сообщением чата
	msg, err := h.chatService.SendMessage(c.Request.Context(), storyID, userID, result.Format())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	messagesSentTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"roll":    result,
		"message": msg,
	})
}
