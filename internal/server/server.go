// Package server assembles the playground: it builds the session and its
// collaborators from configuration and exposes them over HTTP and
// WebSocket.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/console"
	httprouter "github.com/conneroisu/codeplay/internal/http"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/middleware"
	"github.com/conneroisu/codeplay/internal/playground"
	"github.com/conneroisu/codeplay/internal/preview"
	"github.com/conneroisu/codeplay/internal/sandbox"
	"github.com/conneroisu/codeplay/internal/security"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/storage"
	"github.com/conneroisu/codeplay/internal/templates"
	"github.com/conneroisu/codeplay/internal/websocket"
)

// Options are the inputs of New. KV and Config are required.
type Options struct {
	Config *config.Config
	KV     storage.KV
	Clock  clock.Clock
	Logger logging.Logger
}

// Server owns one playground session and everything serving it.
type Server struct {
	config   *config.Config
	logger   logging.Logger
	session  *playground.Session
	host     *sandbox.Host
	sandbox  *sandbox.MemoryStore
	view     *console.LogView
	hub      *websocket.Hub
	prefs    *snippet.Preferences
	library  *templates.Library
	renderer *preview.Renderer
	executor *sandbox.Executor
	router   *httprouter.Router
	started  time.Time

	unsubscribe func()
}

// New wires a server from opts. Nothing is rendered until Start.
func New(opts Options) *Server {
	cfg := opts.Config
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	logger := opts.Logger.WithComponent("server")

	s := &Server{
		config:  cfg,
		logger:  logger,
		sandbox: sandbox.NewMemoryStore(opts.Clock),
		view:    console.NewLogView(cfg.Playground.LogLimit),
		prefs:   snippet.NewPreferences(opts.KV),
		library: templates.Builtin(),
		renderer: preview.NewRenderer(preview.Options{
			ReactURL:    cfg.Preview.ReactURL,
			ReactDOMURL: cfg.Preview.ReactDOMURL,
			BabelURL:    cfg.Preview.BabelURL,
		}),
		executor: sandbox.NewExecutor(cfg.Headless.Timeout, opts.Clock),
		started:  opts.Clock.Now(),
	}

	origins := security.NewOriginList(cfg.Server.AllowedOrigins, cfg.Server.URL(), cfg.Server.IsProduction())
	s.hub = websocket.NewHub(origins, websocket.HubConfig{
		Handler:  s.handleEvent,
		Greeting: s.greeting,
		Logger:   opts.Logger,
	})

	s.host = sandbox.NewHost(s.sandbox, s.hub, sandbox.HostConfig{
		ReleaseDelay: cfg.Playground.ReleaseDelay,
		Clock:        opts.Clock,
		Logger:       opts.Logger,
	})

	bridge := console.NewBridge(console.NewLoggerConsole(opts.Logger), s.view, opts.Clock)
	s.unsubscribe = s.view.Subscribe(s.broadcastLog)

	s.session = playground.New(playground.Deps{
		Store:    snippet.NewStore(opts.KV),
		Renderer: s.renderer,
		Host:     s.host,
		Console:  bridge,
		Library:  s.library,
	}, playground.Config{
		Debounce:         cfg.Playground.Debounce,
		AutosaveInterval: cfg.Playground.AutosaveInterval,
		Clock:            opts.Clock,
		Logger:           opts.Logger,
	})

	chain := middleware.NewMiddlewareChain(middleware.MiddlewareDependencies{
		Config:          cfg,
		OriginValidator: origins,
		Logger:          opts.Logger,
	})
	proxies, err := security.NewProxyList(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Warn(context.Background(), err, "Ignoring trusted proxies")
		proxies = nil
	}
	renderLimit := middleware.NewRateLimiter(cfg.RateLimit.RenderPerSecond, cfg.RateLimit.Burst).
		TrustProxies(proxies)
	s.router = httprouter.NewRouter(cfg, s, chain, renderLimit.Middleware)

	return s
}

// Session returns the playground session, for external event sources such
// as the file watcher.
func (s *Server) Session() *playground.Session { return s.session }

// Start renders the saved snippet and starts autosave.
func (s *Server) Start(ctx context.Context) error {
	if err := s.session.Start(ctx); err != nil {
		return err
	}
	s.session.StartAutosave(ctx)
	return nil
}

// ListenAndServe serves HTTP until ctx is done, then shuts everything down.
// ready receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	err := s.router.Start(ctx, ready)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := s.Shutdown(shutdownCtx); err == nil {
		err = shutdownErr
	}
	return err
}

// Handler is the complete HTTP handler, middleware included.
func (s *Server) Handler() http.Handler { return s.router.Handler() }

// Shutdown closes WebSocket clients and the session. The HTTP listener is
// stopped too if it was started.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	_ = s.hub.Shutdown(ctx)
	s.session.Close()
	return s.router.Shutdown(ctx)
}

func (s *Server) handleEvent(ctx context.Context, ev playground.Event) (*playground.Reply, error) {
	return s.session.HandleEvent(ctx, ev)
}

// greeting is what a page receives on connect: the current preview, then
// the recent console lines.
func (s *Server) greeting() []websocket.UpdateMessage {
	var msgs []websocket.UpdateMessage
	if h, ok := s.host.Current(); ok {
		msgs = append(msgs, websocket.UpdateMessage{Type: websocket.TypePreview, URL: h.URL})
	}
	for _, e := range s.view.Entries() {
		msgs = append(msgs, logMessage(e))
	}
	return msgs
}

func (s *Server) broadcastLog(e console.LogEntry) {
	s.hub.Broadcast(logMessage(e))
}

func logMessage(e console.LogEntry) websocket.UpdateMessage {
	return websocket.UpdateMessage{
		Type:      websocket.TypeLog,
		Level:     string(e.Level),
		Content:   console.Sanitize(e.Line()),
		Timestamp: e.Timestamp,
	}
}
