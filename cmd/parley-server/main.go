package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parley/parley/internal/config"
	"github.com/parley/parley/internal/insights"
	"github.com/parley/parley/internal/interview"
	"github.com/parley/parley/internal/llm"
	"github.com/parley/parley/internal/summary"
)

// AppState holds all application services
type AppState struct {
	DB               *bun.DB
	InterviewService interview.Manager
	SummaryGenerator *summary.Generator
	InsightsService  *insights.Service
	Logger           *zap.Logger
	Config           *config.Config
}

func main() {
	// Load configuration
	config.Load()

	// Initialize logger with config
	logger := initLogger()
	logger.Info("Configuration loaded", zap.String("source", "config.Load()"))

	ctx := context.Background()

	// Initialize application state
	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	// Create HTTP server
	router := setupRouter(as)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Setup graceful shutdown
	done := setupSignalHandler(as, server, logger)

	// Start server
	logger.Info("Starting Parley server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState creates and initializes the application state
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	pgConfig := config.Postgres()

	logger.Info("Database configuration",
		zap.String("host", pgConfig.Host),
		zap.Int("port", pgConfig.Port),
		zap.String("database", pgConfig.Database),
		zap.String("user", pgConfig.User))

	db, err := interview.OpenDatabase(pgConfig.DSN(), pgConfig.MaxOpenConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := interview.CreateTables(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := interview.CreateIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	llmConfig := config.LLM()
	llmClient, err := llm.NewGeminiClient(ctx, llm.Config{
		APIKey:         llmConfig.APIKey,
		ChatModel:      llmConfig.ChatModel,
		AnalysisModel:  llmConfig.AnalysisModel,
		RequestTimeout: time.Duration(llmConfig.RequestTimeout) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	store := interview.NewPostgresStore(db)
	interviewConfig := config.Interview()

	return &AppState{
		DB:               db,
		InterviewService: interview.NewService(store, llmClient, interviewConfig.MinUserTurns, logger),
		SummaryGenerator: summary.NewGenerator(store, llmClient, logger),
		InsightsService:  insights.NewService(store, llmClient, interviewConfig.TopThemes, logger),
		Logger:           logger,
		Config:           config.Get(),
	}, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add CORS middleware
	router.Use(cors.Default())

	// Add logging middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Cap request bodies
	maxRequestSize := config.Http().MaxRequestSize
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)
		c.Next()
	})

	// Health endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := as.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now().Format(time.RFC3339),
				"error":     err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"services": gin.H{
				"database": "healthy",
			},
		})
	})

	v1 := router.Group("/v1")
	{
		interview.NewHandlers(as.InterviewService, as.Logger).RegisterRoutes(v1)
		summary.NewHandlers(as.SummaryGenerator, as.Logger).RegisterRoutes(v1)
		insights.NewHandlers(as.InsightsService, as.Logger).RegisterRoutes(v1)
	}

	return router
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		// Create context with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Shutdown server
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		// Close database
		if err := as.DB.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}
