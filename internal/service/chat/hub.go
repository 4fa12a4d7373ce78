package chat

import (
	"DormBiz/pkg/logger"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxInboundBytes = 8 << 10
	pongWait        = 60 * time.Second
)

// Hub tracks live websocket connections per user and fans chat events out
// to them.
type Hub struct {
	log          logger.Log
	queueSize    int
	writeTimeout time.Duration
	pingInterval time.Duration

	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}
}

func NewHub(l logger.Log, queueSize int, writeTimeout, pingInterval time.Duration) *Hub {
	if queueSize <= 0 {
		queueSize = 32
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pingInterval <= 0 || pingInterval >= pongWait {
		pingInterval = pongWait * 9 / 10
	}
	return &Hub{
		log:          l,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		conns:        make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Client is one websocket connection of a user.
type Client struct {
	hub    *Hub
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if set, ok := h.conns[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// Close says goodbye to every connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.remove(c)
	}
}

// Connections returns how many live connections the user has.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Publish queues the event for every connection of the given users. A
// connection whose queue is full is dropped.
func (h *Hub) Publish(userIDs []uuid.UUID, event Envelope) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorErr("hub: failed to encode event", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, id := range userIDs {
		for c := range h.conns[id] {
			select {
			case c.send <- data:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("hub: dropping slow connection", "user_id", c.userID)
		h.remove(c)
	}
}

// Attach registers conn for userID and starts its writer. The caller must run
// ReadLoop on the returned client.
func (h *Hub) Attach(userID uuid.UUID, conn *websocket.Conn) *Client {
	c := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.queueSize),
	}
	h.add(c)
	go c.writeLoop()
	return c
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}

// Reply queues an event for this connection only.
func (c *Client) Reply(event Envelope) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	// send is closed only after the client left the set
	if _, ok := c.hub.conns[c.userID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ReadLoop reads frames until the peer goes away, passing each text frame to
// handle. The client is detached when it returns.
func (c *Client) ReadLoop(handle func(data []byte)) {
	defer c.hub.remove(c)

	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("hub: connection closed", "user_id", c.userID, "error", err.Error())
			}
			return
		}
		if kind == websocket.TextMessage && handle != nil {
			handle(data)
		}
	}
}
