package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/codeplay/internal/config"
)

// Router handles HTTP server lifecycle and route registration.
//
// Invariants:
//   - config, mux and handlers are never nil after construction
//   - isShutdown is write-protected by serverMutex
type Router struct {
	config     *config.Config
	httpServer *http.Server
	mux        *http.ServeMux

	serverMutex sync.RWMutex
	isShutdown  bool
	listenAddr  string

	handlers Handlers
}

// Handlers defines every HTTP endpoint of the playground.
type Handlers interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
	HandleHealth(w http.ResponseWriter, r *http.Request)

	HandleIndex(w http.ResponseWriter, r *http.Request)
	HandleSandbox(w http.ResponseWriter, r *http.Request)

	HandleSnippet(w http.ResponseWriter, r *http.Request)
	HandleRender(w http.ResponseWriter, r *http.Request)
	HandleSave(w http.ResponseWriter, r *http.Request)
	HandleTemplates(w http.ResponseWriter, r *http.Request)
	HandleLoadTemplate(w http.ResponseWriter, r *http.Request)
	HandleDownload(w http.ResponseWriter, r *http.Request)
	HandleLogs(w http.ResponseWriter, r *http.Request)
	HandleTheme(w http.ResponseWriter, r *http.Request)
	HandleCSPReport(w http.ResponseWriter, r *http.Request)
}

// MiddlewareProvider wraps the route multiplexer.
type MiddlewareProvider interface {
	Apply(handler http.Handler) http.Handler
}

// RouteLimiter wraps a single route, typically with a rate limit.
type RouteLimiter func(http.Handler) http.Handler

// NewRouter registers every route and prepares the server.
//
// renderLimit wraps POST /api/render and may be nil.
//
// Panics if config, handlers or middlewareProvider is nil.
func NewRouter(config *config.Config, handlers Handlers, middlewareProvider MiddlewareProvider, renderLimit RouteLimiter) *Router {
	if config == nil {
		panic("Router: config cannot be nil")
	}
	if handlers == nil {
		panic("Router: handlers cannot be nil")
	}
	if middlewareProvider == nil {
		panic("Router: middlewareProvider cannot be nil")
	}

	router := &Router{
		config:   config,
		mux:      http.NewServeMux(),
		handlers: handlers,
	}
	router.registerRoutes(renderLimit)

	router.httpServer = &http.Server{
		Addr:              config.Server.Address(),
		Handler:           middlewareProvider.Apply(router.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return router
}

func (r *Router) registerRoutes(renderLimit RouteLimiter) {
	h := r.handlers

	render := http.Handler(http.HandlerFunc(h.HandleRender))
	if renderLimit != nil {
		render = renderLimit(render)
	}

	r.mux.HandleFunc("GET /ws", h.HandleWebSocket)
	r.mux.HandleFunc("GET /health", h.HandleHealth)

	r.mux.HandleFunc("GET /sandbox/{id}", h.HandleSandbox)

	r.mux.HandleFunc("GET /api/snippet", h.HandleSnippet)
	r.mux.Handle("POST /api/render", render)
	r.mux.HandleFunc("POST /api/save", h.HandleSave)
	r.mux.HandleFunc("GET /api/templates", h.HandleTemplates)
	r.mux.HandleFunc("POST /api/templates/{id}", h.HandleLoadTemplate)
	r.mux.HandleFunc("GET /api/download", h.HandleDownload)
	r.mux.HandleFunc("GET /api/logs", h.HandleLogs)
	r.mux.HandleFunc("GET /api/theme", h.HandleTheme)
	r.mux.HandleFunc("POST /api/theme", h.HandleTheme)
	r.mux.HandleFunc("POST /api/csp-report", h.HandleCSPReport)

	r.mux.HandleFunc("GET /{$}", h.HandleIndex)
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (r *Router) Handler() http.Handler {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.httpServer.Handler
}

// Start listens on the configured address and serves until ctx is done or
// the server fails. ready, when non-nil, receives the bound address.
func (r *Router) Start(ctx context.Context, ready func(addr string)) error {
	if ctx == nil {
		return fmt.Errorf("Router.Start: context cannot be nil")
	}

	r.serverMutex.Lock()
	if r.isShutdown {
		r.serverMutex.Unlock()
		return fmt.Errorf("Router.Start: router has been shut down")
	}
	server := r.httpServer
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		r.serverMutex.Unlock()
		return fmt.Errorf("Router: listen on %s: %w", server.Addr, err)
	}
	r.listenAddr = ln.Addr().String()
	r.serverMutex.Unlock()

	if ready != nil {
		ready(r.listenAddr)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("Router: server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.Shutdown(shutdownCtx)
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown drains connections. It is idempotent.
func (r *Router) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Router.Shutdown: context cannot be nil")
	}

	r.serverMutex.Lock()
	defer r.serverMutex.Unlock()

	if r.isShutdown {
		return nil
	}
	r.isShutdown = true

	if err := r.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("Router.Shutdown: server shutdown failed: %w", err)
	}
	return nil
}

// GetAddr returns the bound address once started, else the configured one.
func (r *Router) GetAddr() string {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	if r.listenAddr != "" {
		return r.listenAddr
	}
	return r.httpServer.Addr
}

// IsShutdown returns whether the router has been shut down
func (r *Router) IsShutdown() bool {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.isShutdown
}
