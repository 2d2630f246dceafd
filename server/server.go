package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/server/endpoint"
	"github.com/kbukum/kubeping/server/middleware"
)

// probePaths answer without authentication so the kubelet can reach them.
var probePaths = []string{"/health", "/alive", "/ready"}

// Server is the admin HTTP server backed by Gin. It serves HTTP/1.1 and
// h2c on the same port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger
	startedAt  time.Time

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	handler := h2c.NewHandler(mux, h2s)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		handler:    handler,
		config:     cfg,
		log:        log.WithComponent("admin"),
		startedAt:  time.Now(),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler including the middleware stack.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("admin server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	s.log.Info("admin server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}

	s.log.Info("admin server shut down")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// ApplyMiddleware wraps the root handler with recovery, request-ID,
// request logging and, when a token is configured, bearer authentication.
func (s *Server) ApplyMiddleware() {
	stack := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
	}
	if s.config.AuthToken != "" {
		stack = append(stack, middleware.Auth(middleware.AuthConfig{
			TokenValidator: middleware.StaticToken(s.config.AuthToken),
			SkipPaths:      probePaths,
		}))
	}
	s.httpServer.Handler = middleware.Chain(stack...)(s.handler)
}

// Routes wires the admin endpoints to their data sources. Nil sources
// leave their routes unregistered.
type Routes struct {
	ServiceName string
	Version     string
	Health      endpoint.HealthChecker
	Pods        endpoint.PodSource
	Rounds      endpoint.RoundSource
}

// RegisterRoutes registers the probe, version and discovery endpoints.
func (s *Server) RegisterRoutes(r Routes) {
	s.engine.GET("/health", endpoint.Health(r.ServiceName, r.Version, r.Health))
	s.engine.GET("/alive", endpoint.Liveness(r.ServiceName, s.startedAt))
	s.engine.GET("/ready", endpoint.Readiness(r.ServiceName, r.Health))
	s.engine.GET("/version", endpoint.Version())

	if r.Pods != nil {
		limit := middleware.GinWrap(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: s.config.PodsRateLimit,
		}))
		s.engine.GET("/pods", limit, endpoint.Pods(r.Pods))
	}
	if r.Rounds != nil {
		s.engine.GET("/rounds/last", endpoint.LastRound(r.Rounds))
	}
}
