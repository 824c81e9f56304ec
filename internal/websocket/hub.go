// Package websocket connects playground pages to the session: it pushes
// preview URLs and console lines to every page and routes editor events
// from a page back into the session.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/playground"
)

// EventHandler applies a page event and returns what to send back to it.
type EventHandler func(ctx context.Context, ev playground.Event) (*playground.Reply, error)

// Hub handles all WebSocket connection management and broadcasting.
//
// Invariants:
//   - clients map access always protected by clientsMutex
//   - ctx and cancel are never nil after construction
//   - isShutdown transitions from false to true exactly once
type Hub struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originValidator OriginValidator
	handler         EventHandler
	greeting        func() []UpdateMessage
	messageRate     rate.Limit
	messageBurst    int
	logger          logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	shutdownMu   sync.RWMutex
	isShutdown   bool
}

// HubConfig configures a Hub.
type HubConfig struct {
	// Handler receives page events. Nil ignores them.
	Handler EventHandler
	// Greeting returns the messages a newly connected page starts with.
	Greeting func() []UpdateMessage
	// MessagesPerSecond limits events per client. Zero means 20.
	MessagesPerSecond float64
	Burst             int
	Logger            logging.Logger
}

// NewHub creates a hub and starts its loop.
//
// Panics if originValidator is nil.
func NewHub(originValidator OriginValidator, cfg HubConfig) *Hub {
	if originValidator == nil {
		panic("websocket.Hub: originValidator cannot be nil (required for security)")
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		clients:         make(map[*websocket.Conn]*Client),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *Client, 32),
		unregister:      make(chan *websocket.Conn, 32),
		originValidator: originValidator,
		handler:         cfg.Handler,
		greeting:        cfg.Greeting,
		messageRate:     rate.Limit(cfg.MessagesPerSecond),
		messageBurst:    cfg.Burst,
		logger:          cfg.Logger.WithComponent("websocket"),
		ctx:             ctx,
		cancel:          cancel,
	}

	go hub.run()
	return hub
}

// ServeHTTP upgrades the request and serves the client until it leaves.
//
// Responses:
//   - 403 Forbidden: origin not allowed
//   - 503 Service Unavailable: hub shut down
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.IsShutdown() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !h.originValidator.IsAllowedOrigin(origin) {
		h.logger.Warn(r.Context(), nil, "WebSocket connection rejected: invalid origin",
			"origin", origin, "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin is validated above against the configured list.
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(1 << 20)

	client := &Client{
		conn:         conn,
		send:         make(chan []byte, 256),
		lastActivity: time.Now(),
		limiter:      rate.NewLimiter(h.messageRate, h.messageBurst),
		remoteAddr:   r.RemoteAddr,
	}

	if h.greeting != nil {
		for _, msg := range h.greeting() {
			if data, err := encode(msg); err == nil {
				client.send <- data
			}
		}
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	default:
		h.logger.Warn(r.Context(), nil, "WebSocket registration channel full, rejecting client")
		_ = conn.Close(websocket.StatusTryAgainLater, "Server busy")
		return
	}

	h.serveClient(client)
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client.conn] = client
			n := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Info(h.ctx, "WebSocket client connected", "clients", n, "remote", client.remoteAddr)

		case conn := <-h.unregister:
			h.removeClient(conn)

		case message := <-h.broadcast:
			h.broadcastToClients(message)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	client, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		close(client.send)
	}
	n := len(h.clients)
	h.clientsMutex.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Info(h.ctx, "WebSocket client disconnected", "clients", n)
	}
}

func (h *Hub) broadcastToClients(message []byte) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	for conn, client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow client; drop it rather than stall every page.
			go func(c *websocket.Conn) {
				select {
				case h.unregister <- c:
				case <-h.ctx.Done():
				}
			}(conn)
		}
	}
}

// serveClient runs the write pump in the background and the read pump on
// the calling goroutine.
func (h *Hub) serveClient(client *Client) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.ctx.Done():
		}
	}()

	go h.writeToClient(client)
	h.readFromClient(client)
}

func (h *Hub) readFromClient(client *Client) {
	for {
		ctx, cancel := context.WithTimeout(h.ctx, 10*time.Minute)
		_, data, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway && h.ctx.Err() == nil {
				h.logger.Debug(h.ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
		client.lastActivity = time.Now()

		if !client.limiter.Allow() {
			h.reply(client, playground.Reply{Type: TypeError, Error: "rate limit exceeded"})
			continue
		}

		h.processClientMessage(client, data)
	}
}

func (h *Hub) writeToClient(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				h.logger.Debug(h.ctx, "WebSocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) processClientMessage(client *Client, data []byte) {
	var ev playground.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		h.reply(client, playground.Reply{Type: TypeError, Error: "malformed message"})
		return
	}
	if h.handler == nil {
		return
	}

	reply, err := h.handler(h.ctx, ev)
	if err != nil {
		h.logger.Warn(h.ctx, err, "Event failed", "type", string(ev.Type))
		h.reply(client, playground.Reply{Type: TypeError, Error: err.Error()})
		return
	}
	if reply != nil {
		h.reply(client, *reply)
	}
}

func (h *Hub) reply(client *Client, r playground.Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}

	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	if _, ok := h.clients[client.conn]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Broadcast sends message to every connected page. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Broadcast(message UpdateMessage) {
	if h.IsShutdown() {
		return
	}
	data, err := encode(message)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to marshal broadcast message")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Broadcast channel full, dropping message", "type", message.Type)
	}
}

// Show implements sandbox.Surface by pointing every page's preview frame
// at url.
func (h *Hub) Show(url string) {
	h.Broadcast(UpdateMessage{Type: TypePreview, URL: url, Timestamp: time.Now()})
}

// ConnectedClients returns the number of connected pages.
func (h *Hub) ConnectedClients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.shutdownMu.Lock()
		h.isShutdown = true
		h.shutdownMu.Unlock()

		h.cancel()

		h.clientsMutex.Lock()
		for conn, client := range h.clients {
			close(client.send)
			_ = conn.Close(websocket.StatusGoingAway, "Server shutdown")
		}
		h.clients = make(map[*websocket.Conn]*Client)
		h.clientsMutex.Unlock()

		h.logger.Info(ctx, "WebSocket hub shut down")
	})
	return nil
}

// IsShutdown reports whether Shutdown was called.
func (h *Hub) IsShutdown() bool {
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()
	return h.isShutdown
}

func encode(msg UpdateMessage) ([]byte, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return json.Marshal(msg)
}
