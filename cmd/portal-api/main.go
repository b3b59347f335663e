package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"project-verification/portal-backend/internal/config"
	"project-verification/portal-backend/internal/monitoring"
	"project-verification/portal-backend/internal/notifications"
	"project-verification/portal-backend/internal/notifications/websocket"
	"project-verification/portal-backend/internal/remote"
	"project-verification/portal-backend/internal/verification"
	"project-verification/portal-backend/internal/wizard"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	client, err := remote.NewClient(remote.Config{
		Endpoint: cfg.Remote.Endpoint,
		Token:    cfg.Remote.Token,
		Timeout:  cfg.Remote.Timeout.Std(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create verification client", zap.Error(err))
	}

	drafts := newDraftRepository(cfg.Database, logger)

	wsManager := websocket.NewManager(cfg.Server.AllowedOrigins, logger)
	notifier := notifications.NewService(wsManager, logger)
	reporter := monitoring.NewReporter(logger, cfg.Wizard.ReportQueue)

	registry := wizard.NewRegistry(func(slug string) (*verification.Store, error) {
		channel := notifier.ForSession(slug)
		return verification.NewStore(verification.Options{
			Remote:      client,
			Reporter:    reporter,
			Notifier:    channel,
			Opener:      channel,
			Logger:      logger.With(zap.String("slug", slug)),
			CallTimeout: cfg.Wizard.AdvanceTimeout.Std(),
		})
	}, cfg.Wizard.SessionTTL.Std(), logger)
	if err := registry.Start(cfg.Wizard.SweepSchedule); err != nil {
		logger.Fatal("Failed to start session sweeper", zap.Error(err))
	}

	wizardHandler := wizard.NewHandler(registry, drafts, wsManager, logger)

	// Setup Router
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	// Register Routes
	api := router.Group("/api/v1")
	{
		wizardHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"sessions":  registry.Len(),
			"reports":   reporter.Stats(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("remote", cfg.Remote.Endpoint))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	registry.Stop()
	wsManager.Close()
	reporter.Close()

	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		zcfg := zap.NewProductionConfig()
		if lvl, perr := zap.ParseAtomicLevel(level); perr == nil {
			zcfg.Level = lvl
		}
		logger, err = zcfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newDraftRepository(cfg config.DatabaseConfig, logger *zap.Logger) wizard.DraftRepository {
	if !cfg.DraftsEnabled() {
		logger.Info("No database configured, keeping drafts in memory")
		return wizard.NewMemoryDraftRepository()
	}

	logger.Info("Connecting to database", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime.Std())

	repo, err := wizard.NewGormDraftRepository(db)
	if err != nil {
		logger.Fatal("Failed to prepare drafts table", zap.Error(err))
	}
	return repo
}

// corsMiddleware allows the wizard frontend to call the API
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := "*"
		if len(allowed) > 0 {
			origin = ""
			reqOrigin := c.GetHeader("Origin")
			for _, o := range allowed {
				if o == reqOrigin {
					origin = o
					break
				}
			}
		}
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
