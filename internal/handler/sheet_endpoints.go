package handler

import (
	"net/http"

	"chronicle-server/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary Схема листа персонажа
// @Description Возвращает упорядоченные поля листа персонажа шаблона истории
// @Tags sheets
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Success 200 {array} models.CharacterSheetField
// @Failure 404 {object} models.ErrorResponse "У истории нет шаблона"
// @Router /api/stories/{story_id}/sheet/fields [get]
func (h *Handler) listSheetFields(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	fields, err := h.characterService.Fields(c.Request.Context(), storyID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

// @Summary Лист персонажа
// @Description Возвращает лист персонажа пользователя в истории
// @Tags sheets
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Success 200 {object} models.CharacterSheet
// @Failure 404 {object} models.ErrorResponse "Лист еще не создан"
// @Router /api/stories/{story_id}/sheet [get]
func (h *Handler) getSheet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	sheet, err := h.characterService.GetSheet(c.Request.Context(), storyID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// @Summary Сохранение листа персонажа
// @Description Создает или целиком заменяет лист персонажа пользователя
// @Tags sheets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param story_id path string true "ID истории"
// @Param request body saveSheetRequest true "Значения полей"
// @Success 200 {object} models.CharacterSheet
// @Failure 400 {object} models.ErrorResponse "Не заполнены обязательные поля"
// @Router /api/stories/{story_id}/sheet [put]
func (h *Handler) saveSheet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	storyID, ok := storyIDParam(c)
	if !ok {
		return
	}

	var req saveSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	sheet, err := h.characterService.SaveSheet(c.Request.Context(), storyID, userID, req.FieldValues)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}
