package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apihttp "github.com/draftworks/batchd/internal/api/http"
	"github.com/draftworks/batchd/internal/api/middleware"
	"github.com/draftworks/batchd/internal/config"
	"github.com/draftworks/batchd/internal/drafting"
	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/logstream"
	"github.com/draftworks/batchd/internal/logstream/bus"
	"github.com/draftworks/batchd/internal/monitoring"
	"github.com/draftworks/batchd/internal/pipeline"
	"github.com/draftworks/batchd/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	controller *pipeline.Controller
	transport  *logstream.Transport
	aggregator *logstream.Aggregator
	hub        *ws.Hub
	busClient  *bus.Client
	stopAgg    chan struct{}
	logger     *logging.Logger
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	baseLogger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	metrics := monitoring.NewMetrics()

	// Log pipeline: every worker logs into the transport, a single
	// channel sink carries events to the aggregator, and the aggregator
	// fans out to the console, connected WebSocket clients, and (when
	// enabled) the NATS subject the standalone listener watches.
	channel := logstream.NewChannelSink(cfg.Logging.QueueSize)
	transport := logstream.NewTransport(level, cfg.Logging.QueueSize, channel)

	hub := ws.NewHub(baseLogger, func(delta int) {
		metrics.WSConnections.Add(float64(delta))
	})

	aggregator := logstream.NewAggregator(
		logstream.NewConsoleSink(os.Stdout),
		hub,
	)

	var busClient *bus.Client
	if cfg.Bus.Enabled {
		busClient, err = bus.Connect(cfg.Bus.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to log bus: %w", err)
		}
		aggregator.AddSink(bus.NewSink(busClient, cfg.Bus.Subject))
		baseLogger.Info("Log bus connected",
			zap.String("url", cfg.Bus.URL),
			zap.String("subject", cfg.Bus.Subject))
	}

	stopAgg := make(chan struct{})
	go aggregator.Listen(channel.Events(), stopAgg)

	// Pipeline workers get a logger built on the transport so their
	// events reach the aggregator instead of stdout directly.
	pipeLogger := logging.NewWithCore(transport)

	tool, err := drafting.NewConsoleTool(cfg.Drafting.ToolPath, cfg.Drafting.ScriptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to locate console tool: %w", err)
	}
	check := drafting.NewXrefCheck(tool, cfg.Drafting.CheckScript, pipeLogger)
	action := drafting.NewScriptBuild(tool, cfg.Drafting.BuildScript, cfg.Drafting.PublishScript, pipeLogger)

	controller := pipeline.NewController(check, action, pipeLogger.Logger,
		pipeline.WithWorkerCount(cfg.Pipeline.BuildWorkers),
		pipeline.WithValidateWorkers(cfg.Pipeline.ValidateWorkers),
		pipeline.WithQueueCapacity(cfg.Pipeline.QueueCapacity),
		pipeline.WithObserver(metrics),
	)

	router := buildRouter(cfg, controller, metrics, hub, baseLogger)

	return &Server{
		cfg:        cfg,
		router:     router,
		controller: controller,
		transport:  transport,
		aggregator: aggregator,
		hub:        hub,
		busClient:  busClient,
		stopAgg:    stopAgg,
		logger:     baseLogger,
	}, nil
}

func buildRouter(cfg *config.Config, controller *pipeline.Controller, metrics *monitoring.Metrics, hub *ws.Hub, logger *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		MaxAge:       cfg.CORS.MaxAge,
	}))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(controller, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Runs
	router.POST("/runs", handlers.StartRun)
	router.POST("/abort", handlers.Abort)
	router.GET("/report", handlers.Report)
	router.PUT("/workers", handlers.SetWorkers)
	router.GET("/status", handlers.Status)

	// Observability
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", hub.HandleConnection)

	return router
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the server
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.logger.Info("Starting batch build service", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close cleans up resources
func (s *Server) Close() error {
	// Abort fails while a run is in flight; the run keeps its workers
	// and the process exits with them. Nothing is left half-drained
	// because a refused abort touches no state.
	if err := s.controller.Abort(); err != nil {
		s.logger.Warn("Shutting down with a run in flight", zap.Error(err))
	}

	if err := s.transport.Close(s.cfg.Logging.DrainTimeout); err != nil {
		s.logger.Warn("Log transport close", zap.Error(err))
	}
	close(s.stopAgg)
	if err := s.aggregator.Close(); err != nil {
		s.logger.Warn("Log aggregator close", zap.Error(err))
	}
	if s.busClient != nil {
		s.busClient.Close()
	}
	return s.logger.Sync()
}
