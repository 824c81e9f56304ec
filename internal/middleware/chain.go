// Package middleware composes the HTTP middleware stack of the playground
// server.
package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/security"
)

// MiddlewareChain manages the HTTP middleware stack.
//
// Middlewares wrap in order of addition: the first added is the outermost,
// so a request flows through them first to last.
//
// Standard stack (outer to inner):
//  1. Recovery
//  2. Request logging
//  3. CORS
//  4. Rate limiting (when configured)
//  5. Security headers
type MiddlewareChain struct {
	config          *config.Config
	rateLimiter     *RateLimiter
	originValidator security.OriginValidator
	logger          logging.Logger
	middlewares     []Middleware
}

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// MiddlewareDependencies contains all dependencies needed for middleware construction
type MiddlewareDependencies struct {
	Config          *config.Config
	RateLimiter     *RateLimiter
	OriginValidator security.OriginValidator
	Logger          logging.Logger
}

// NewMiddlewareChain creates the standard chain.
//
// Panics if Config or OriginValidator is nil.
func NewMiddlewareChain(deps MiddlewareDependencies) *MiddlewareChain {
	if deps.Config == nil {
		panic("MiddlewareChain: config cannot be nil")
	}
	if deps.OriginValidator == nil {
		panic("MiddlewareChain: originValidator cannot be nil (required for CORS security)")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	chain := &MiddlewareChain{
		config:          deps.Config,
		rateLimiter:     deps.RateLimiter,
		originValidator: deps.OriginValidator,
		logger:          deps.Logger.WithComponent("http"),
		middlewares:     make([]Middleware, 0, 5),
	}
	chain.buildDefaultStack()

	return chain
}

func (mc *MiddlewareChain) buildDefaultStack() {
	mc.AddMiddleware(Recovery(mc.logger))
	mc.AddMiddleware(Logging(mc.logger))
	mc.AddMiddleware(CORS(mc.originValidator, mc.config.Server.IsProduction()))
	if mc.rateLimiter != nil {
		mc.AddMiddleware(mc.rateLimiter.Middleware)
	}
	mc.AddMiddleware(security.SecurityMiddleware(security.SecurityConfigFromAppConfig(mc.config, mc.logger)))
}

// AddMiddleware appends an inner middleware to the chain.
func (mc *MiddlewareChain) AddMiddleware(middleware Middleware) {
	mc.middlewares = append(mc.middlewares, middleware)
}

// Apply wraps handler with every middleware of the chain.
//
// Panics if handler is nil.
func (mc *MiddlewareChain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("MiddlewareChain.Apply: handler cannot be nil")
	}

	wrapped := handler
	for i := len(mc.middlewares) - 1; i >= 0; i-- {
		wrapped = mc.middlewares[i](wrapped)
		if wrapped == nil {
			panic(fmt.Sprintf("MiddlewareChain.Apply: middleware at index %d returned nil handler", i))
		}
	}
	return wrapped
}

// Len returns the number of middlewares in the chain.
func (mc *MiddlewareChain) Len() int {
	return len(mc.middlewares)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes WebSocket upgrades through to the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Logging logs one line per request at debug level, or warn for 5xx.
func Logging(logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			kv := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"ip", security.ClientIP(r),
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn(r.Context(), nil, "Request failed", kv...)
				return
			}
			logger.Debug(r.Context(), "Request served", kv...)
		})
	}
}

// CORS echoes allowed origins. Outside production, unknown origins get a
// wildcard so tools on other ports can read the API.
func CORS(validator security.OriginValidator, production bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if validator.IsAllowedOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			} else if !production {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recovery turns a handler panic into a 500 and logs it.
func Recovery(logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error(r.Context(), fmt.Errorf("panic: %v", v), "Handler panicked",
						"method", r.Method, "path", r.URL.Path)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
