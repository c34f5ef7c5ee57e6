package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkrunner-core/internal/runlog"
	"github.com/nerrad567/parkrunner-core/internal/steering"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource reports the live run state. Satisfied by *controller.Controller.
type StatusSource interface {
	Status() controller.Status
}

// GainTuner reads and replaces steering gains and the glue override.
// Satisfied by *steering.Follower.
type GainTuner interface {
	Gains() steering.Gains
	SetGains(g steering.Gains)
	Glue() steering.Glue
	SetGlue(g steering.Glue)
}

// Turn is the turn taken at one intersection of the planned route.
type Turn struct {
	Node  string `json:"node"`
	Angle int    `json:"angle"`
}

// Route is the planned tour served by GET /route.
type Route struct {
	Map   string   `json:"map"`
	Base  string   `json:"base"`
	Lots  []int    `json:"lots"`
	Nodes []string `json:"nodes"`
	Cost  float64  `json:"cost"`
	Turns []Turn   `json:"turns"`
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Status    StatusSource
	Route     *Route
	Gains     GainTuner
	GainStore steering.GainStore
	Runs      runlog.Repository
	RunID     string
	// ExternalHub, if set, is used instead of a hub created by Start. The
	// caller registers it as a controller observer before the run starts.
	ExternalHub *Hub
	Version     string
}

// Server is the HTTP API server for parkrunner.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	status    StatusSource
	route     *Route
	gains     GainTuner
	gainStore steering.GainStore
	runs      runlog.Repository
	runID     string
	version   string
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Logger is required, every other collaborator is optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		status:    deps.Status,
		route:     deps.Route,
		gains:     deps.Gains,
		gainStore: deps.GainStore,
		runs:      deps.Runs,
		runID:     deps.RunID,
		version:   deps.Version,
		hub:       deps.ExternalHub,
	}, nil
}

// Hub returns the WebSocket hub, or nil before Start when none was injected.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the hub (not used for listener lifetime)
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger, s.runID)
	}
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

