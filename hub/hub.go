package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

const (
	writeWait = 5 * time.Second
	sendQueue = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Subscriber is what the hub knows about a connected client. ServiceIDs are
// the services a worker offers.
type Subscriber struct {
	UserID     uint
	Role       role.Role
	WorkerID   *uint
	ServiceIDs []uint
}

type client struct {
	sub  Subscriber
	send chan []byte
}

// Hub fans booking events out to connected websocket clients. Staff see
// every event, workers see bookings they may act on, customers see their own
// bookings. Each client has its own writer goroutine, so Notify never waits
// on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *Hub) Register(conn *websocket.Conn, sub Subscriber) {
	c := &client{sub: sub, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	go h.writePump(conn, c)
}

// Unregister drops the client; its writer closes the connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	defer conn.Close()
	for data := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"user_id": c.sub.UserID,
				"role":    c.sub.Role,
			}).WithError(err).Warn("dropping websocket client")
			h.Unregister(conn)
		}
	}
}

// Notify implements services.Notifier. A client whose queue is full is
// disconnected rather than waited for.
func (h *Hub) Notify(_ context.Context, ev services.BookingEvent) {
	data, err := json.Marshal(Message{Event: ev.Type, Data: ev})
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("marshal hub message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, c := range h.clients {
		if !Visible(c.sub, ev) {
			continue
		}
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.WithFields(logrus.Fields{
				"user_id": c.sub.UserID,
				"role":    c.sub.Role,
			}).Warn("websocket client too slow, disconnecting")
			h.removeLocked(conn)
		}
	}
}

// Visible decides whether sub may receive ev.
func Visible(sub Subscriber, ev services.BookingEvent) bool {
	b := ev.Booking
	switch sub.Role {
	case role.Admin, role.Moderator:
		return true
	case role.Worker:
		if sub.WorkerID == nil {
			return false
		}
		return services.WorkerCanAccess(*sub.WorkerID, sub.ServiceIDs, &b)
	case role.Customer:
		return b.CustomerID == sub.UserID
	}
	return false
}
