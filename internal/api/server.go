package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Controller is the command surface the API drives. *control.Controller
// satisfies it.
type Controller interface {
	Execute(ctx context.Context, cmd control.Command) (control.Result, error)
	ListDevices(ctx context.Context) (control.DeviceList, error)
	DeviceByUUID(ctx context.Context, uuid string) (device.Device, error)
	Groups() []device.Group
	Rediscover(ctx context.Context) (device.Topology, error)
}

// HealthChecker is implemented by every dependency reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Controller Controller

	// CommandLog serves GET /audit. Optional.
	CommandLog audit.Repository

	// Checks are reported by GET /health, keyed by name. Optional.
	Checks map[string]HealthChecker

	// DBStats feeds the database section of GET /metrics. Optional.
	DBStats func() DatabaseMetrics

	// Dashboard, if set, is served for every path outside /api.
	Dashboard http.Handler

	// Hub, if set, is used instead of a server-owned hub. main registers
	// it as a controller observer before the server starts.
	Hub *Hub

	Version string
}

// Server is the HTTP API server for Gray Logic Audio.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	ctrl        Controller
	commandLog  audit.Repository
	checks      map[string]HealthChecker
	dbStats     func() DatabaseMetrics
	dashboard   http.Handler
	version     string
	startTime   time.Time
	hub         *Hub
	externalHub bool // true if hub was injected externally

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
	cancel context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, controller)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		ctrl:       deps.Controller,
		commandLog: deps.CommandLog,
		checks:     deps.Checks,
		dbStats:    deps.DBStats,
		dashboard:  deps.Dashboard,
		version:    deps.Version,
		startTime:  time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// The listener is bound before Start returns so a port conflict is
// reported to the caller; requests are served on a background goroutine.
//
// Parameters:
//   - ctx: Parent of the hub's lifetime
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, cancel := context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		cancel()
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.server, s.cancel = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
