package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Shiva0457/MQTT-protocol/server/internal/api"
	"github.com/Shiva0457/MQTT-protocol/server/internal/series"
)

const (
	writeTimeout = 10 * time.Second

	// pongWait is how long a client may stay silent before it is considered gone.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBufSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope sent on every push.
type Message struct {
	Event string             `json:"event"`
	Data  api.SeriesResponse `json:"data"`
}

// Hub tracks connected clients and pushes the series to them on a ticker.
type Hub struct {
	window   api.Window
	reader   *series.Reader
	loc      *time.Location
	interval time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub reading from w. Labels are rendered in loc (time.Local
// when nil).
func New(w api.Window, interval time.Duration, loc *time.Location) *Hub {
	if loc == nil {
		loc = time.Local
	}
	return &Hub{
		window:   w,
		reader:   series.New(w),
		loc:      loc,
		interval: interval,
		now:      time.Now,
		clients:  make(map[*client]struct{}),
	}
}

// Run pushes the series every interval until ctx is cancelled, then closes
// all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the connection and serves the client until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufSize)}
	// Queue the current series before the client becomes visible to broadcast.
	if data, err := h.message(); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)
	slog.Debug("ws: client connected", "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump()
	slog.Debug("ws: client disconnected", "remote", r.RemoteAddr)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast() {
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	data, err := h.message()
	if err != nil {
		slog.Error("ws: encode series", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("ws: dropping slow client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) message() ([]byte, error) {
	resp := api.BuildSeries(h.reader.Read(), h.window.Stats().Capacity, h.loc)
	resp.GeneratedAt = h.now().UTC().Format(time.RFC3339)
	return json.Marshal(Message{Event: "series", Data: resp})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump forwards queued messages and pings until send is closed or a
// write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to handle pongs and notice disconnects.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
