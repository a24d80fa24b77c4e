package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong от клиента.
	pongWait = 60 * time.Second
	// Период отправки пингов. Должен быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер входящего сообщения. Клиенты по WebSocket только
	// слушают, все записи идут через REST.
	maxMessageSize = 512

	sendQueueSize = 256
)

// Client - одно WebSocket подключение участника к комнате.
type Client struct {
	UserID   uuid.UUID
	Username string
	StoryID  uuid.UUID

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// NewClient создает клиента для уже установленного соединения.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string, storyID uuid.UUID, logger *zap.Logger) *Client {
	return &Client{
		UserID:   userID,
		Username: username,
		StoryID:  storyID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		logger: logger.Named("WSClient").With(
			zap.String("user_id", userID.String()),
			zap.String("story_id", storyID.String()),
		),
	}
}

// Start регистрирует клиента в хабе и запускает насосы чтения и записи.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// readPump откачивает входящие фреймы. Содержимое игнорируется, цикл нужен
// для обработки pong и обнаружения закрытия соединения.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump откачивает события из очереди send в соединение.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл очередь.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("Failed to write event", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
