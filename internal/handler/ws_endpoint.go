package handler

import (
	"net/http"

	"chronicle-server/internal/models"
	"chronicle-server/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Происхождение проверяет CORS-middleware на REST, для WS доверяем
	// токену в query.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS обрабатывает подключение к комнате по WebSocket.
// Авторизация по access-токену в query (?token=...), комната - в ?story_id=...
// Подключение разрешено только участникам комнаты.
func (h *Handler) serveWS(c *gin.Context) {
	log := zap.L().Named("WSHandler")

	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token query parameter is required"})
		return
	}

	claims, err := h.authService.VerifyAccessToken(tokenString)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storyID, err := uuid.Parse(c.Query("story_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid story_id query parameter"})
		return
	}

	if _, err := h.storyService.RequireParticipant(c.Request.Context(), storyID, claims.UserID); err != nil {
		handleServiceError(c, err)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам пишет ответ клиенту при ошибке рукопожатия.
		log.Warn("WebSocket upgrade failed",
			zap.String("user_id", claims.UserID.String()),
			zap.Error(err),
		)
		return
	}

	client := realtime.NewClient(h.hub, conn, user.ID, user.Username, storyID, zap.L())
	client.Start()
}
