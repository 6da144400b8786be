package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/SectionPortal/backend/internal/api/http"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/api/middleware"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/api/ws"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/console"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/dispatch"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/events"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/instance"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/module"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/navigation"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/domain/window"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

const (
	streamPath      = "/stream"
	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	handler   http.Handler
	http      *http.Server
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	bus       *events.Bus
	scripts   *module.ScriptRegistry
	instances *instance.Manager
	consoles  *console.Manager

	mu          sync.Mutex
	closed      bool               // Protected by mu
	watchCancel context.CancelFunc // Protected by mu
	watchDone   chan struct{}      // Protected by mu
	closeOnce   sync.Once
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Section Portal server",
		zap.String("port", cfg.Server.Port),
		zap.String("navigation", cfg.Navigation.Path),
		zap.String("modules", cfg.Modules.Root),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	bus := events.NewBus(events.DefaultBuffer)

	// Module registries: compiled-in modules shadow scripts
	scripts := module.NewScriptRegistry(cfg.Modules.Root,
		module.WithLaunchTimeout(cfg.Modules.LaunchTimeout),
		module.WithLogger(logger.Component("scripts")),
	)
	if err := scripts.Reindex(context.Background()); err != nil {
		return nil, fmt.Errorf("index script modules: %w", err)
	}
	logger.Info("Script modules indexed", zap.Int("modules", scripts.Len()))
	registry := module.Layered{module.Builtins(), scripts}

	resolver := module.NewResolver(registry, logger.Component("resolver")).WithMetrics(metrics)
	engagement := window.New(bus, logger.Component("window"))
	instances := instance.NewManager(engagement, logger.Component("instance")).WithMetrics(metrics)
	consoles := console.NewManager(instances, resolver, bus, logger.Component("console")).WithMetrics(metrics)
	fetcher := newFetcher(cfg, logger, metrics)

	nav, err := navigation.Load(context.Background(), cfg.Navigation.Path, logger.Component("navigation"))
	if err != nil {
		return nil, fmt.Errorf("load navigation: %w", err)
	}

	dispatcher := dispatch.New(dispatch.Dependencies{
		Items:     nav,
		Fetcher:   fetcher,
		Consoles:  consoles,
		Instances: instances,
		Resolver:  resolver,
		Logger:    logger.Component("dispatch"),
		Metrics:   metrics,
	})

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Dependencies{
		Navigation: nav,
		Dispatcher: dispatcher,
		Consoles:   consoles,
		Instances:  instances,
		Window:     engagement,
		Catalogs:   fetcher,
		Modules:    registry,
		Logger:     logger.Component("api"),
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(bus, consoles, logger.Component("ws")).WithMetrics(metrics)
	router.GET(streamPath, wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully", zap.Int("navigation_items", nav.Len()))

	handler := compress(router, cfg.Server.Compress)
	return &Server{
		router:  router,
		handler: handler,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		bus:       bus,
		scripts:   scripts,
		instances: instances,
		consoles:  consoles,
	}, nil
}

// newFetcher reads catalogs over HTTP when a base URL is configured, else from disk
func newFetcher(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) catalog.Fetcher {
	if cfg.Catalog.BaseURL == "" {
		logger.Info("Catalogs served from disk", zap.String("dir", cfg.Catalog.Dir))
		return catalog.NewFileFetcher(cfg.Catalog.Dir, logger.Component("catalog")).WithMetrics(metrics)
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.Catalog.Timeout
	clientCfg.RateLimit = cfg.Catalog.RateLimit
	clientCfg.MaxBodyBytes = utils.MaxCatalogSize
	clientCfg.BreakerName = "catalog"
	clientCfg.OnBreakerChange = func(name string, from, to resilience.State) {
		metrics.SetBreakerState(name, int(to))
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	logger.Info("Catalogs served over HTTP", zap.String("base_url", cfg.Catalog.BaseURL))
	return catalog.NewHTTPFetcher(httpclient.New(clientCfg), cfg.Catalog.BaseURL, cfg.Catalog.URLTemplate, logger.Component("catalog")).
		WithMetrics(metrics)
}

// compress gzips responses except the WebSocket stream, which must stay hijackable
func compress(router *gin.Engine, enabled bool) http.Handler {
	if !enabled {
		return router
	}
	gz := gzhttp.GzipHandler(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == streamPath {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler (router plus compression)
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.config.Modules.Watch {
		s.startWatchLocked()
	}
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startWatchLocked must be called with mu held
func (s *Server) startWatchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	s.watchDone = make(chan struct{})

	go func() {
		defer close(s.watchDone)
		if err := s.scripts.Watch(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Script module watcher stopped", zap.Error(err))
		}
	}()
	s.logger.Info("Watching script modules", zap.String("root", s.scripts.Root()))
}

// Shutdown stops accepting requests and tears the engine down
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")

		s.mu.Lock()
		s.closed = true
		watchCancel, watchDone := s.watchCancel, s.watchDone
		s.mu.Unlock()

		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("HTTP server shutdown failed", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}

		if watchCancel != nil {
			watchCancel()
			<-watchDone
		}

		s.consoles.Close()
		s.instances.Unmount()
		s.bus.Close()

		// Sync logger before exit
		_ = s.logger.Sync()
	})
	return err
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
