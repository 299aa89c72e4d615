package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/GameWarden/internal/api/http"
	"github.com/GriffinCanCode/GameWarden/internal/api/middleware"
	"github.com/GriffinCanCode/GameWarden/internal/api/ws"
	"github.com/GriffinCanCode/GameWarden/internal/domain/backup"
	"github.com/GriffinCanCode/GameWarden/internal/domain/command"
	"github.com/GriffinCanCode/GameWarden/internal/domain/scheduler"
	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/game/sim"
	"github.com/GriffinCanCode/GameWarden/internal/game/webdriver"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/tracing"
)

// closeTimeout bounds the final snapshot and driver release on shutdown.
const closeTimeout = 30 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	coord     *session.Coordinator
	schedStop context.CancelFunc
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance. The snapshot scheduler starts
// immediately; Close stops it.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing GameWarden",
		zap.String("port", cfg.Server.Port),
		zap.String("driver", cfg.Driver.Kind),
		zap.Duration("snapshot_interval", cfg.Snapshot.Interval),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	logger.Info("Performance monitoring initialized")

	tracer := tracing.New("wardend", logger.Logger)

	profile, err := game.Resolve(cfg.Game.ProfilePath, cfg.Game.ProfileGlob, cfg.Game.ProfileName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game profile: %w", err)
	}
	logger.Info("Game profile loaded",
		zap.String("name", profile.Name),
		zap.String("url", profile.URL),
	)

	store, err := backup.Load(cfg.Store.Path(), cfg.Store.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup store: %w", err)
	}
	metrics.SetStoreSize(store.Len())
	logger.Info("Backup store loaded",
		zap.String("path", store.Path()),
		zap.Int("snapshots", store.Len()),
		zap.Int("capacity", store.Capacity()),
	)

	var connector session.Connector
	switch cfg.Driver.Kind {
	case config.DriverSim:
		connector = sim.NewConnector(profile, logger).WithRate(cfg.Driver.SimRate)
		logger.Info("Using simulated game driver", zap.Float64("rate", cfg.Driver.SimRate))
	default:
		client := webdriver.NewClient(webdriver.Config{
			URL:            cfg.Driver.URL,
			Timeout:        cfg.Driver.Timeout,
			RetryMax:       cfg.Driver.RetryMax,
			CallsPerSecond: cfg.Driver.CallsPerSecond,
		})
		connector = webdriver.NewConnector(client, profile, logger).WithMetrics(metrics)
		logger.Info("Using WebDriver game driver", zap.String("url", cfg.Driver.URL))
	}

	coord := session.NewCoordinator(session.New(connector), store).WithMetrics(metrics)
	dispatcher := command.NewDispatcher(coord, logger).WithMetrics(metrics).WithTracer(tracer)

	sched := scheduler.New(coord, cfg.Snapshot.Interval, logger).WithMetrics(metrics)
	schedCtx, schedStop := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(tracing.HTTPMiddleware(tracer))
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

	// Create handlers
	handlers := apihttp.NewHandlers(coord, dispatcher, profile, cfg.Store.Dir, logger)
	wsHandler := ws.NewHandler(dispatcher, logger).WithMetrics(metrics)

	// Open routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"timestamp": time.Now(),
			"summary":   metrics.Summarize(),
		})
	})

	// Session and store routes, token-guarded when a hash is configured
	if cfg.Gateway.TokenHash != "" {
		logger.Info("Gateway authentication enabled")
	}
	protected := router.Group("")
	protected.Use(middleware.Auth(cfg.Gateway.TokenHash))
	{
		protected.GET("/status", handlers.Status)
		protected.GET("/backups", handlers.ListBackups)
		protected.POST("/command", handlers.RunCommand)
		protected.GET("/export", handlers.Export)
		protected.GET("/stream", wsHandler.HandleConnection)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		coord:     coord,
		schedStop: schedStop,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Addr()
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server: the snapshot loop stops and the
// running game gets a final snapshot before the driver is released. Best
// effort; shutdown proceeds through failures.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	// Stop the scheduler first so it cannot race the final snapshot.
	s.schedStop()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := s.coord.BackupNow(ctx); err != nil {
		if errors.Is(err, session.ErrNotActive) {
			s.logger.Info("No active session to snapshot")
		} else {
			s.logger.Warn("Final snapshot failed", zap.Error(err))
		}
	} else {
		s.logger.Info("Final snapshot taken")
	}

	err := s.coord.WithSession(func(sess *session.Session) error {
		if !sess.Active() {
			return nil
		}
		// The code was just snapshotted; here the driver only needs to
		// let go of the browser.
		_, err := sess.Stop(ctx)
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to release game session", zap.Error(err))
	}

	s.logger.Info("Server shut down")
	_ = s.logger.Sync()
	return nil
}
