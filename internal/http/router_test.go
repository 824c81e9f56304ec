package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/codeplay/internal/config"
)

type namedHandlers struct{}

func name(n string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(n + ":" + r.PathValue("id")))
	}
}

func (namedHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) { name("ws")(w, r) }
func (namedHandlers) HandleHealth(w http.ResponseWriter, r *http.Request)    { name("health")(w, r) }
func (namedHandlers) HandleIndex(w http.ResponseWriter, r *http.Request)     { name("index")(w, r) }
func (namedHandlers) HandleSandbox(w http.ResponseWriter, r *http.Request)   { name("sandbox")(w, r) }
func (namedHandlers) HandleSnippet(w http.ResponseWriter, r *http.Request)   { name("snippet")(w, r) }
func (namedHandlers) HandleRender(w http.ResponseWriter, r *http.Request)    { name("render")(w, r) }
func (namedHandlers) HandleSave(w http.ResponseWriter, r *http.Request)      { name("save")(w, r) }
func (namedHandlers) HandleTemplates(w http.ResponseWriter, r *http.Request) { name("templates")(w, r) }
func (namedHandlers) HandleLoadTemplate(w http.ResponseWriter, r *http.Request) {
	name("template")(w, r)
}
func (namedHandlers) HandleDownload(w http.ResponseWriter, r *http.Request)  { name("download")(w, r) }
func (namedHandlers) HandleLogs(w http.ResponseWriter, r *http.Request)      { name("logs")(w, r) }
func (namedHandlers) HandleTheme(w http.ResponseWriter, r *http.Request)     { name("theme")(w, r) }
func (namedHandlers) HandleCSPReport(w http.ResponseWriter, r *http.Request) { name("csp")(w, r) }

type passthrough struct{}

func (passthrough) Apply(h http.Handler) http.Handler { return h }

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0}}
}

func TestNewRouterPanics(t *testing.T) {
	assert.Panics(t, func() { NewRouter(nil, namedHandlers{}, passthrough{}, nil) })
	assert.Panics(t, func() { NewRouter(testConfig(), nil, passthrough{}, nil) })
	assert.Panics(t, func() { NewRouter(testConfig(), namedHandlers{}, nil, nil) })
}

func TestRoutes(t *testing.T) {
	var limited int
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited++
			next.ServeHTTP(w, r)
		})
	}
	h := NewRouter(testConfig(), namedHandlers{}, passthrough{}, limit).Handler()

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/", http.StatusOK, "index:"},
		{http.MethodGet, "/health", http.StatusOK, "health:"},
		{http.MethodGet, "/ws", http.StatusOK, "ws:"},
		{http.MethodGet, "/sandbox/abc", http.StatusOK, "sandbox:abc"},
		{http.MethodGet, "/api/snippet", http.StatusOK, "snippet:"},
		{http.MethodPost, "/api/render", http.StatusOK, "render:"},
		{http.MethodPost, "/api/save", http.StatusOK, "save:"},
		{http.MethodGet, "/api/templates", http.StatusOK, "templates:"},
		{http.MethodPost, "/api/templates/galaxy-theme", http.StatusOK, "template:galaxy-theme"},
		{http.MethodGet, "/api/download", http.StatusOK, "download:"},
		{http.MethodGet, "/api/logs", http.StatusOK, "logs:"},
		{http.MethodGet, "/api/theme", http.StatusOK, "theme:"},
		{http.MethodPost, "/api/theme", http.StatusOK, "theme:"},
		{http.MethodPost, "/api/csp-report", http.StatusOK, "csp:"},
		{http.MethodGet, "/api/render", http.StatusMethodNotAllowed, ""},
		{http.MethodDelete, "/sandbox/abc", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
	assert.Equal(t, 1, limited)
}

func TestStartAndShutdown(t *testing.T) {
	router := NewRouter(testConfig(), namedHandlers{}, passthrough{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- router.Start(ctx, func(addr string) { addrs <- addr }) }()

	addr := <-addrs
	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, addr, router.GetAddr())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
	assert.True(t, router.IsShutdown())
	assert.NoError(t, router.Shutdown(context.Background()))
	assert.Error(t, router.Start(context.Background(), nil))
}
