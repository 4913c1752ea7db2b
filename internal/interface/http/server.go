// Package http exposes the campus over HTTP: the student action endpoint,
// the agent status snapshot, health checks and Prometheus metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/interface/http/handlers"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr - address to listen on (default: ":3000").
	Addr string

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of an action payload.
	MaxBodyBytes int64

	// RateLimit - student actions per second per client (0 = disabled).
	RateLimit float64

	// RateBurst - burst allowance per client.
	RateBurst int

	// EnableCORS - enable CORS headers for browser dashboards.
	EnableCORS bool

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":3000",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   64 << 10,
		RateLimit:      20,
		RateBurst:      40,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Campus is the part of the coordinator the HTTP layer drives.
type Campus interface {
	Dispatch(ctx context.Context, action command.Action) error
	Statuses() agent.StatusMap
}

// Metrics records served requests.
type Metrics interface {
	ObserveHTTP(method, path string, status int, d time.Duration)
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Campus receives actions and reports agent statuses. Required.
	Campus Campus

	// HealthChecker backs /healthz. Nil reports healthy.
	HealthChecker handlers.HealthChecker

	// Metrics observes every request. Optional.
	Metrics Metrics

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	logger     *logger.Logger
	limiter    *clientLimiter

	// routes known to the router, used as metric labels
	routes map[string]bool

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) (*Server, error) {
	if deps.Campus == nil {
		return nil, errors.New("http: campus is required")
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
		routes: make(map[string]bool),
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if config.RateLimit > 0 {
		s.limiter = newClientLimiter(config.RateLimit, config.RateBurst)
	}

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:           config.Addr,
		Handler:        s.handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	s.handle("GET /", http.HandlerFunc(s.handleRoot))
	s.handle("GET /healthz", http.HandlerFunc(s.handleHealth))

	action := http.Handler(http.HandlerFunc(s.handleStudentAction))
	if s.limiter != nil {
		action = s.rateLimitMiddleware(action)
	}
	s.handle("POST /api/student-action", action)
	s.handle("GET /api/agent-status", http.HandlerFunc(s.handleAgentStatus))

	if s.deps.MetricsHandler != nil {
		s.handle("GET /metrics", s.deps.MetricsHandler)
	}
}

func (s *Server) handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
	if _, path, ok := strings.Cut(pattern, " "); ok {
		s.routes[path] = true
	}
}

// routeLabel keeps metric cardinality bounded.
func (s *Server) routeLabel(path string) string {
	if s.routes[path] {
		return path
	}
	return "other"
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	h := handler

	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	h = s.requestIDMiddleware(h)

	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}

	return h
}

// requestIDMiddleware adds a unique request ID to each request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs and measures every request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveHTTP(r.Method, s.routeLabel(r.URL.Path), rw.statusCode, duration)
		}

		s.logger.Debug("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(duration),
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", getRequestID(r.Context())),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", getRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, o := range s.config.AllowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects clients that exceed their token bucket.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many actions, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Run serves until ctx is cancelled, then shuts down gracefully within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("http: listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("http: server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: serve: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.markStopped()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	err := s.httpServer.Shutdown(shutdownCtx)
	s.markStopped()
	if serveErr := <-errCh; serveErr != nil {
		return serveErr
	}
	return err
}

func (s *Server) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
