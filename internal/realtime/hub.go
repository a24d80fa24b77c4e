package realtime

import (
	"context"
	"sync"

	"chronicle-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Сколько последних ID сообщений помнит комната для подавления дублей доставки.
const recentIDCapacity = 128

// ConnGauge - счетчик активных подключений. Сигнатура совместима
// с prometheus.Gauge.
type ConnGauge interface {
	Inc()
	Dec()
}

// Hub управляет активными WebSocket подключениями, сгруппированными по комнатам.
// Вся работа с картой комнат идет через единственную горутину Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.Message

	rooms map[uuid.UUID]map[*Client]struct{}
	// Недавно доставленные ID сообщений по комнатам: страховка от двойной
	// доставки, когда одно и то же сообщение приходит из нескольких источников.
	seen map[uuid.UUID]*recentIDs

	mu        sync.RWMutex
	logger    *zap.Logger
	connGauge ConnGauge
}

// NewHub создает новый хаб. Запуск цикла - отдельным вызовом Run.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.Message, 64),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		seen:       make(map[uuid.UUID]*recentIDs),
		logger:     logger.Named("RealtimeHub"),
	}
}

// SetConnGauge подключает счетчик активных подключений.
// Вызывать до запуска Run.
func (h *Hub) SetConnGauge(gauge ConnGauge) {
	h.connGauge = gauge
}

// Run запускает основной цикл хаба. Блокирует до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Realtime hub started")
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliverMessage(msg)
		case <-ctx.Done():
			h.logger.Info("Realtime hub stopping")
			h.closeAll()
			return
		}
	}
}

// Register подписывает клиента на события его комнаты.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отписывает клиента. Безопасно вызывать повторно.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastMessage рассылает сообщение всем подключениям комнаты.
// Повторная рассылка сообщения с уже виденным ID подавляется.
func (h *Hub) BroadcastMessage(msg *models.Message) {
	h.broadcast <- msg
}

// RoomOnline возвращает текущий набор онлайн-участников комнаты.
func (h *Hub) RoomOnline(storyID uuid.UUID) []PresenceEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presenceLocked(storyID)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.StoryID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[client.StoryID] = room
		h.seen[client.StoryID] = newRecentIDs(recentIDCapacity)
	}
	room[client] = struct{}{}
	h.mu.Unlock()

	if h.connGauge != nil {
		h.connGauge.Inc()
	}
	h.logger.Info("Client joined room",
		zap.String("user_id", client.UserID.String()),
		zap.String("story_id", client.StoryID.String()),
	)
	h.broadcastPresence(client.StoryID)
}

func (h *Hub) removeClient(client *Client) {
	var member bool
	h.mu.Lock()
	room, ok := h.rooms[client.StoryID]
	if ok {
		if _, member = room[client]; member {
			delete(room, client)
			close(client.send)
		}
		if len(room) == 0 {
			delete(h.rooms, client.StoryID)
			delete(h.seen, client.StoryID)
		}
	}
	h.mu.Unlock()

	if member && h.connGauge != nil {
		h.connGauge.Dec()
	}
	if ok {
		h.logger.Info("Client left room",
			zap.String("user_id", client.UserID.String()),
			zap.String("story_id", client.StoryID.String()),
		)
		h.broadcastPresence(client.StoryID)
	}
}

func (h *Hub) deliverMessage(msg *models.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[msg.StoryID]
	if !ok {
		return
	}
	if ids := h.seen[msg.StoryID]; ids != nil && !ids.add(msg.ID) {
		h.logger.Debug("Duplicate message delivery suppressed",
			zap.String("message_id", msg.ID.String()),
			zap.String("story_id", msg.StoryID.String()),
		)
		return
	}

	event := &Event{Type: EventTypeMessage, StoryID: msg.StoryID, Message: msg}
	payload, err := event.encode()
	if err != nil {
		h.logger.Error("Failed to encode message event", zap.Error(err))
		return
	}
	h.sendToRoom(room, payload)
}

// broadcastPresence рассылает комнате полный набор онлайн-участников.
func (h *Hub) broadcastPresence(storyID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[storyID]
	if !ok {
		return
	}
	event := &Event{
		Type:     EventTypePresence,
		StoryID:  storyID,
		Presence: h.presenceLocked(storyID),
	}
	payload, err := event.encode()
	if err != nil {
		h.logger.Error("Failed to encode presence event", zap.Error(err))
		return
	}
	h.sendToRoom(room, payload)
}

// presenceLocked собирает набор участников комнаты, схлопывая несколько
// подключений одного пользователя в одну запись. Требует удержания h.mu.
func (h *Hub) presenceLocked(storyID uuid.UUID) []PresenceEntry {
	room := h.rooms[storyID]
	entries := make([]PresenceEntry, 0, len(room))
	seen := make(map[uuid.UUID]struct{}, len(room))
	for client := range room {
		if _, dup := seen[client.UserID]; dup {
			continue
		}
		seen[client.UserID] = struct{}{}
		entries = append(entries, PresenceEntry{UserID: client.UserID, Username: client.Username})
	}
	return entries
}

func (h *Hub) sendToRoom(room map[*Client]struct{}, payload []byte) {
	for client := range room {
		select {
		case client.send <- payload:
		default:
			// Очередь клиента переполнена: соединение отстало, пусть
			// его добьет readPump после закрытия.
			h.logger.Warn("Client send queue is full, dropping event",
				zap.String("user_id", client.UserID.String()),
			)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for storyID, room := range h.rooms {
		for client := range room {
			close(client.send)
			if h.connGauge != nil {
				h.connGauge.Dec()
			}
		}
		delete(h.rooms, storyID)
		delete(h.seen, storyID)
	}
}

// recentIDs - кольцо последних ID с быстрой проверкой членства.
type recentIDs struct {
	order []uuid.UUID
	set   map[uuid.UUID]struct{}
	next  int
}

func newRecentIDs(capacity int) *recentIDs {
	return &recentIDs{
		order: make([]uuid.UUID, capacity),
		set:   make(map[uuid.UUID]struct{}, capacity),
	}
}

// add возвращает false, если ID уже встречался.
func (r *recentIDs) add(id uuid.UUID) bool {
	if _, ok := r.set[id]; ok {
		return false
	}
	if old := r.order[r.next]; old != uuid.Nil {
		delete(r.set, old)
	}
	r.order[r.next] = id
	r.set[id] = struct{}{}
	r.next = (r.next + 1) % len(r.order)
	return true
}
