package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/codeplay/internal/config"
)

func TestSecurityMiddlewareHeaders(t *testing.T) {
	var seen string
	h := SecurityMiddleware(DevelopmentSecurityConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetNonceFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "'nonce-"+seen+"'")
	assert.Contains(t, csp, "frame-src 'self'")
	assert.Contains(t, csp, "connect-src 'self' ws: wss:")
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestNoncesDifferPerRequest(t *testing.T) {
	var nonces []string
	h := SecurityMiddleware(DefaultSecurityConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonces = append(nonces, GetNonceFromContext(r.Context()))
	}))
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.NotEqual(t, nonces[0], nonces[1])
}

func TestProductionPolicy(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Environment: "production"}}
	sc := SecurityConfigFromAppConfig(cfg, nil)

	h := SecurityMiddleware(sc)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "upgrade-insecure-requests")
}

func TestCSPViolationHandler(t *testing.T) {
	h := CSPViolationHandler(nil)

	rec := httptest.NewRecorder()
	body := `{"csp-report":{"document-uri":"http://localhost:8080/","violated-directive":"script-src"}}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/csp-report", strings.NewReader(body)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/csp-report", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csp-report", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOriginList(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		origin string
		want   bool
	}{
		{"self", false, "http://localhost:8080", true},
		{"configured", false, "https://play.example.com", true},
		{"configured trailing slash", false, "https://play.example.com/", true},
		{"loopback same port", false, "http://127.0.0.1:8080", true},
		{"loopback other port", false, "http://127.0.0.1:3000", false},
		{"foreign", false, "https://evil.example", false},
		{"empty", false, "", false},
		{"file scheme", false, "file://localhost:8080", false},
		{"strict loopback", true, "http://127.0.0.1:8080", false},
		{"strict self", true, "http://localhost:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewOriginList([]string{"https://play.example.com"}, "http://localhost:8080", tt.strict)
			assert.Equal(t, tt.want, l.IsAllowedOrigin(tt.origin))
		})
	}
}

func TestClientIPIgnoresProxyHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Real-IP", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")

	assert.Equal(t, "10.0.0.1", ClientIP(req))

	var none *ProxyList
	assert.Equal(t, "10.0.0.1", none.ClientIP(req))
}

func TestProxyListClientIP(t *testing.T) {
	proxies, err := NewProxyList([]string{"127.0.0.1", "10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		want      string
	}{
		{"untrusted peer keeps its address", "203.0.113.9:1", "198.51.100.1", "", "203.0.113.9"},
		{"trusted peer forwards client", "127.0.0.1:1", "198.51.100.1", "", "198.51.100.1"},
		{"trusted hops are skipped", "127.0.0.1:1", "198.51.100.1, 203.0.113.5, 10.1.2.3", "", "203.0.113.5"},
		{"all hops trusted", "127.0.0.1:1", "10.0.0.7, 10.0.0.8", "", "10.0.0.7"},
		{"garbage hop falls back to peer", "127.0.0.1:1", "not-an-ip", "", "127.0.0.1"},
		{"real ip header", "10.2.2.2:1", "", "198.51.100.3", "198.51.100.3"},
		{"no headers", "127.0.0.1:1", "", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, proxies.ClientIP(req))
		})
	}
}

func TestNewProxyListRejectsInvalid(t *testing.T) {
	_, err := NewProxyList([]string{"proxy.local"})
	assert.Error(t, err)
	_, err = NewProxyList([]string{"10.0.0.0/99"})
	assert.Error(t, err)

	p, err := NewProxyList([]string{"::1", ""})
	require.NoError(t, err)
	assert.True(t, p.Trusts("::1"))
	assert.False(t, p.Trusts("127.0.0.1"))
}
