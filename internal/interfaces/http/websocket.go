package httpinterface

import (
	"net/http"
	"sync"
	"time"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientQueueLen = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsClient struct {
	conn  *websocket.Conn
	topic string
	send  chan []byte
}

func (c *wsClient) wants(topic string) bool {
	return c.topic == ports.AnyTopic || c.topic == topic
}

// Hub streams event messages to websocket clients. It is a sink of the
// event pubsub. Clients that cannot keep up are disconnected.
type Hub struct {
	lock    *sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		lock:    &sync.RWMutex{},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *Hub) Publish(topic string, message string) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.send <- []byte(message):
		default:
			log.Debug("dropping slow websocket client")
			h.remove(c)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()

	for c := range h.clients {
		h.remove(c)
	}
}

func (h *Hub) numOfClients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and subscribes it to the events of the
// topic given by the "event" query param, all events if missing.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("event")
	if topic == "" {
		topic = ports.AnyTopic
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &wsClient{conn, topic, make(chan []byte, clientQueueLen)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// remove must be called with the lock held.
func (h *Hub) remove(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) unregister(c *wsClient) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.remove(c)
}

// readPump discards incoming messages and detects closed connections.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	//nolint
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				log.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			//nolint
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
