// Package ws pushes snapshot notices to websocket subscribers.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"BrentPulse/internal/service/metrics"
	applogger "BrentPulse/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to connected clients. Each client has a bounded
// send queue drained by its own writer goroutine; when the queue is full the
// message is dropped for that client, so Broadcast never blocks.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	last     []byte
	bufSize  int
	upgrader websocket.Upgrader
	l        *applogger.Logger
	dropped  func()
}

type Option func(*Hub)

// WithBufferSize sets the per-client send queue length.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufSize = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option { return func(h *Hub) { h.l = l } }

func NewHub(opts ...Option) *Hub {
	metrics.Register()
	h := &Hub{
		clients: make(map[*client]struct{}),
		bufSize: 16,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		dropped: func() {},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the request and blocks until the client goes away. The
// latest notice, if any, is sent right after the handshake.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.l != nil {
			h.l.Warn("websocket upgrade failed", applogger.Error(err))
		}
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, h.bufSize)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if h.last != nil {
		cl.send <- h.last
	}
	h.mu.Unlock()
	metrics.WSClients.Inc()

	done := make(chan struct{})
	go h.writePump(cl, done)
	h.readPump(cl)

	h.remove(cl)
	<-done
	return nil
}

// Broadcast queues msg for every client and remembers it for new ones.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.dropped()
			if h.l != nil {
				h.l.Warn("websocket client too slow, message dropped")
			}
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		_ = cl.conn.Close()
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
		metrics.WSClients.Dec()
	}
	h.mu.Unlock()
}

// readPump discards client messages and tracks pongs until the connection
// fails.
func (h *Hub) readPump(cl *client) {
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
		close(done)
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
