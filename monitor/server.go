package monitor

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

	"github.com/kbukum/tpcgraph/component"
	"github.com/kbukum/tpcgraph/graph"
	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/node"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/telemetry"
)

// HealthChecker reports the health of infrastructure outside the graph.
type HealthChecker func(ctx context.Context) []observability.Health

// Server serves the monitor endpoints.
type Server struct {
	cfg        Config
	service    string
	engine     *gin.Engine
	httpServer *http.Server
	log        node.Logger
	graph      *graph.Graph
	store      *telemetry.Store
	checker    HealthChecker
	started    time.Time

	mu       sync.Mutex
	listener net.Listener
	serveErr error
}

// Option configures a Server.
type Option func(*Server)

// WithGraph exposes node health from the graph's handles.
func WithGraph(g *graph.Graph) Option {
	return func(s *Server) { s.graph = g }
}

// WithStore exposes the latest telemetry reports.
func WithStore(st *telemetry.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithHealthChecker adds infrastructure health to /health.
func WithHealthChecker(hc HealthChecker) Option {
	return func(s *Server) { s.checker = hc }
}

// WithLogger sets the logger. The default is the global logger's
// "monitor" component.
func WithLogger(l node.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a monitor server for the named service. Routes and
// middleware are registered immediately; nothing listens until Start.
func New(service string, cfg Config, opts ...Option) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		service: service,
		engine:  gin.New(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetGlobalLogger().WithComponent("monitor")
	}

	s.engine.Use(Recovery(s.log), RequestID(), RequestLogger(s.log))
	s.registerRoutes()

	mux := http.NewServeMux()
	mux.Handle("/", s.engine)
	h2s := &http2.Server{
		MaxConcurrentStreams: 64,
		IdleTimeout:          seconds(cfg.IdleTimeout),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h2c.NewHandler(mux, h2s),
		ReadTimeout:  seconds(cfg.ReadTimeout),
		WriteTimeout: seconds(cfg.WriteTimeout),
		IdleTimeout:  seconds(cfg.IdleTimeout),
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/info", s.handleInfo)
	s.engine.GET("/stats", s.handleStats)
	s.engine.GET("/stats/:node", s.handleNodeStats)
}

// Handler returns the root handler, h2c wrapping included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Name implements component.Component.
func (s *Server) Name() string { return "monitor" }

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("monitor failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("monitor server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
			s.mu.Lock()
			s.serveErr = err
			s.mu.Unlock()
		}
	}()

	s.log.Info("monitor started", map[string]interface{}{
		"addr": ln.Addr().String(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.listener != nil
	s.mu.Unlock()
	if !running {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("monitor shutdown error: %w", err)
	}

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	s.log.Info("monitor stopped")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Health implements component.Component.
func (s *Server) Health(context.Context) observability.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := observability.Health{Name: s.Name(), Status: observability.HealthStatusUp}
	switch {
	case s.serveErr != nil:
		h.Status = observability.HealthStatusDown
		h.Message = s.serveErr.Error()
	case s.listener == nil:
		h.Status = observability.HealthStatusDown
		h.Message = "not listening"
	}
	return h
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	return component.Description{Type: "server", Details: s.Addr()}
}

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)
