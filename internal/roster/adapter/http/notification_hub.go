package http

import (
	"context"
	"sync"
	"time"

	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	notificationBuffer = 16
	pongWait           = 60 * time.Second
	pingPeriod         = pongWait * 9 / 10
	writeWait          = 10 * time.Second
)

// Notification is one message on the notification stream
type Notification struct {
	Type      string      `json:"type"`
	Source    string      `json:"source,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type subscriber struct {
	id   string
	send chan Notification
}

// NotificationHub fans bus events out to websocket subscribers
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	log         logger.Logger
}

// NotificationTypes are the bus events forwarded to subscribers
var NotificationTypes = []string{
	eventbus.EventTypeRateLimited,
	eventbus.EventTypeSessionLogin,
	eventbus.EventTypeSessionLogout,
	eventbus.EventTypeEnrollmentChanged,
}

// NewNotificationHub subscribes to NotificationTypes on bus
func NewNotificationHub(bus eventbus.Bus, log logger.Logger) *NotificationHub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	h := &NotificationHub{
		subscribers: make(map[string]*subscriber),
		log:         log.WithComponent("notification-hub"),
	}
	if bus != nil {
		for _, t := range NotificationTypes {
			bus.Subscribe(t, h.onEvent)
		}
	}
	return h
}

func (h *NotificationHub) onEvent(_ context.Context, e eventbus.Event) error {
	h.Broadcast(Notification{Type: e.Type(), Source: e.Source(), Timestamp: e.Timestamp(), Data: e.Data()})
	return nil
}

// RegisterRoutes mounts the stream at /ws/notifications behind guards
func (h *NotificationHub) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	router.Use("/ws/notifications", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	handlers := append(append([]fiber.Handler{}, guards...), websocket.New(h.serve))
	router.Get("/ws/notifications", handlers...)
}

// Broadcast queues n for every subscriber. Slow subscribers drop messages.
func (h *NotificationHub) Broadcast(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		select {
		case sub.send <- n:
		default:
			h.log.Warnf("subscriber %s is not keeping up, dropping %s", sub.id, n.Type)
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *NotificationHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *NotificationHub) add() *subscriber {
	sub := &subscriber{id: uuid.NewString(), send: make(chan Notification, notificationBuffer)}
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()
	return sub
}

func (h *NotificationHub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub.id)
	h.mu.Unlock()
}

func (h *NotificationHub) serve(conn *websocket.Conn) {
	sub := h.add()
	h.log.Infof("notification subscriber connected: %s", sub.id)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.remove(sub)
		h.log.Infof("notification subscriber disconnected: %s", sub.id)
	}()

	go h.forward(ctx, conn, sub)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnf("websocket read error for %s: %v", sub.id, err)
			}
			return
		}
	}
}

func (h *NotificationHub) forward(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case n := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				h.log.Warnf("failed to write notification to %s: %v", sub.id, err)
				return
			}
		}
	}
}
