package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/montenegronyc/scoreboard/internal/api"
	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/store"
)

// EventScoreboard is the event name of every message.
const EventScoreboard = "scoreboard"

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10 // must stay below pongWait
	queueDepth   = 16                // boards buffered per client before it is dropped
	maxInbound   = 512
)

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string            `json:"event"`
	Data  api.BoardResponse `json:"data"`
}

// Option configures a Hub.
type Option func(*Hub)

// WithStaleAfter sets the stale threshold used when building messages.
func WithStaleAfter(d time.Duration) Option {
	return func(h *Hub) { h.staleAfter = d }
}

// WithAllowedOrigins restricts the Origin header on upgrade. Empty allows all.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) { h.origins = origins }
}

// WithCountHook is called with the client count after every connect and disconnect.
func WithCountHook(fn func(int)) Option {
	return func(h *Hub) { h.onCount = fn }
}

// Hub manages WebSocket client connections and pushes the current board.
type Hub struct {
	store      *store.Store
	keepalive  time.Duration
	staleAfter time.Duration
	origins    []string
	onCount    func(int)
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client is one connected browser.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and re-sends the board every keepalive.
func New(st *store.Store, keepalive time.Duration, opts ...Option) *Hub {
	if keepalive <= 0 {
		keepalive = config.DefaultKeepalive
	}
	h := &Hub{
		store:      st,
		keepalive:  keepalive,
		staleAfter: config.DefaultStaleAfter,
		clients:    make(map[*client]struct{}),
	}
	for _, o := range opts {
		o(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run pushes the board on every store change and keepalive tick until ctx
// ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.keepalive)
	defer t.Stop()

	changed := h.store.Changed()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-changed:
			changed = h.store.Changed()
			h.broadcast()
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
// The current board is queued before anything else so a new screen renders
// without waiting for the next change.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws: upgrade rejected", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, queueDepth),
	}
	if data, err := h.buildMessage(); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)
	slog.Debug("ws: client connected", "client", c.id, "remote", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop()
	slog.Debug("ws: client disconnected", "client", c.id)
}

// Count reports connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, o := range h.origins {
		if o == "*" || strings.EqualFold(o, origin) || strings.EqualFold(o, u.Host) {
			return true
		}
	}
	return false
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.reportCount(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.reportCount(n)
	}
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) broadcast() {
	data, err := h.buildMessage()
	if err != nil {
		slog.Error("ws: build message", "err", err)
		return
	}

	// Sends happen under the read lock so no queue is closed mid-send.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: dropping slow client", "client", c.id)
		h.unregister(c)
	}
}

func (h *Hub) buildMessage() ([]byte, error) {
	msg := Message{
		Event: EventScoreboard,
		Data:  api.BuildBoard(h.store, time.Now(), h.staleAfter),
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	h.reportCount(0)
}

// writeLoop owns all writes to the connection: queued boards and the
// periodic ping. It exits when send is closed or a write fails.
func (c *client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer c.conn.Close()

	write := func(kind int, payload []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(kind, payload)
	}

	for {
		select {
		case msg, open := <-c.send:
			if !open {
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if write(websocket.TextMessage, msg) != nil {
				return
			}
		case <-ping.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames; clients never send data. It exists to
// service pongs and notice the peer going away.
func (c *client) readLoop() {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxInbound)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}
