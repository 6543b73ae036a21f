package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/adapter"
	"github.com/yourorg/backtest-service/internal/config"
	"github.com/yourorg/backtest-service/internal/eventbus"
	"github.com/yourorg/backtest-service/internal/handler"
	"github.com/yourorg/backtest-service/internal/middleware"
	"github.com/yourorg/backtest-service/internal/repository"
	"github.com/yourorg/backtest-service/internal/service"
	"github.com/yourorg/backtest-service/internal/strategy"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	// Initialize repositories
	candleRepo := repository.NewCandleRepository(db, logger)
	taskRepo := repository.NewImportTaskRepository(db, logger)

	// Initialize market adapters
	adapters := adapter.NewRegistry(
		adapter.NewBinanceAdapter("", logger),
	)

	// Event bus, optionally bridged to Kafka
	bus := eventbus.New()
	var kafkaBridge *eventbus.KafkaBridge
	if cfg.Kafka.Enabled {
		kafkaBridge = eventbus.NewKafkaBridge(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		bus.Subscribe(kafkaBridge.Handle)
		defer kafkaBridge.Close()
	}

	// Initialize services
	strategies := strategy.NewRegistry()
	importService := service.NewImportService(adapters, candleRepo, taskRepo, bus, cfg.Import, logger)
	backtestService := service.NewBacktestService(candleRepo, strategies, bus, cfg.Backtest, logger)

	// Initialize handlers
	importHandler := handler.NewImportHandler(importService, logger)
	backtestHandler := handler.NewBacktestHandler(backtestService, logger)
	marketDataHandler := handler.NewMarketDataHandler(candleRepo, adapters, logger)

	// Set up HTTP server with Gin
	gin.SetMode(cfg.Server.Mode)
	router := setupRouter(importHandler, backtestHandler, marketDataHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dbConfig.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)

	return db, nil
}

func setupRouter(
	importHandler *handler.ImportHandler,
	backtestHandler *handler.BacktestHandler,
	marketDataHandler *handler.MarketDataHandler,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Import routes
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.StartImport)
			imports.GET("", importHandler.ListImportTasks)
			imports.GET("/:id", importHandler.GetImportTask)
			imports.DELETE("/:id", importHandler.CancelImport)
		}

		// Backtest routes
		backtests := v1.Group("/backtests")
		{
			backtests.POST("", backtestHandler.RunBacktest)
			backtests.GET("/strategies", backtestHandler.ListStrategies)
		}

		// Market data routes
		marketData := v1.Group("/market-data")
		{
			marketData.GET("/candles", marketDataHandler.GetCandles)
			marketData.GET("/sources/:assetType/:source/products", marketDataHandler.GetProducts)
			marketData.GET("/sources/:assetType/:source/ticker/:symbol", marketDataHandler.GetTicker)
			marketData.GET("/sources/:assetType/:source/status", marketDataHandler.CheckConnection)
		}
	}
	return router
}
