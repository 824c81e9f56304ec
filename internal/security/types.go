package security

import (
	"net/url"
	"strings"
)

// OriginValidator validates cross-origin and WebSocket request origins.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// OriginList allows the configured origins plus, unless strict, any
// loopback origin on the server's own port.
type OriginList struct {
	allowed map[string]bool
	self    string
	strict  bool
}

// NewOriginList builds a validator. self is the server URL
// (http://localhost:8080); strict disables the loopback allowance.
func NewOriginList(allowed []string, self string, strict bool) *OriginList {
	l := &OriginList{allowed: make(map[string]bool, len(allowed)), strict: strict}
	for _, o := range allowed {
		l.allowed[strings.TrimRight(o, "/")] = true
	}
	if u, err := url.Parse(self); err == nil {
		l.self = u.Port()
		l.allowed[u.Scheme+"://"+u.Host] = true
	}
	return l
}

// IsAllowedOrigin reports whether origin may talk to the server.
func (l *OriginList) IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if l.allowed[strings.TrimRight(origin, "/")] {
		return true
	}
	if l.strict {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return u.Port() == l.self
	}
	return false
}
