package websocket

import (
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"
)

// Client represents a WebSocket client connection
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
	limiter      *rate.Limiter
	remoteAddr   string
}

// Message types pushed to the page.
const (
	TypePreview = "preview"
	TypeLog     = "log"
	TypeSnippet = "snippet"
	TypeBuffer  = "buffer"
	TypeError   = "error"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	URL       string    `json:"url,omitempty"`
	Level     string    `json:"level,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OriginValidator interface for WebSocket origin validation
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}
