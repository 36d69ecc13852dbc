package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/leakwatch/leakwatch-api/docs" // Swagger docs
	"github.com/leakwatch/leakwatch-api/internal/config"
	"github.com/leakwatch/leakwatch-api/internal/database"
	"github.com/leakwatch/leakwatch-api/internal/handlers"
	"github.com/leakwatch/leakwatch-api/internal/jobs"
	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/middleware"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/internal/services"
	"github.com/leakwatch/leakwatch-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title LeakWatch API
// @version 1.0
// @description REST API for the LeakWatch revenue leakage detection platform

// @contact.name API Support
// @contact.email support@leakwatch.app

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, time.Duration(cfg.SlowQueryMS)*time.Millisecond)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize ledger client
	ledgerClient := ledger.NewClient(ledger.Config{
		APIBaseURL:   cfg.LedgerAPIBaseURL,
		TokenURL:     cfg.LedgerTokenURL,
		AuthorizeURL: cfg.LedgerAuthorizeURL,
		ClientID:     cfg.LedgerClientID,
		ClientSecret: cfg.LedgerClientSecret,
		RedirectURI:  cfg.LedgerRedirectURI,
	})

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs, err := services.NewServices(repos, worker, ledgerClient, cfg, db)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Ledger OAuth callback (public; the ledger redirects the browser here)
		v1.GET("/ledger/callback", h.Company.LedgerCallback)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/companies", h.Company.Create)
				admin.PUT("/companies/:company_id", h.Company.Update)
				admin.GET("/companies/:company_id/ledger/connect", h.Company.ConnectLedger)

				admin.GET("/jobs/status", h.Job.Status)
				admin.GET("/audit_logs", h.Audit.Index)
			}

			// Analyst + admin routes
			protected.GET("/companies", h.Company.Index)
			protected.GET("/companies/:company_id", h.Company.Show)

			protected.POST("/companies/:company_id/sync", h.Sync.Sync)
			protected.POST("/companies/:company_id/detect", h.Sync.Detect)

			protected.GET("/companies/:company_id/leaks", h.Leak.Index)
			protected.GET("/companies/:company_id/leaks/summary", h.Leak.Summary)
			protected.GET("/companies/:company_id/leaks/export", h.Leak.Export)
			protected.GET("/leaks/:leak_id", h.Leak.Show)
			protected.POST("/leaks/:leak_id/transition", h.Leak.Transition)

			// Notifications (users manage their own)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkAsRead)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	interval := time.Duration(cfg.SyncIntervalHours) * time.Hour

	// Sync-then-detect cycle for every connected company
	worker.ScheduleEvery(interval, func(ctx context.Context) error {
		logger.Info("[Job] Running scheduled ledger sync cycle...")
		return svcs.Scheduler.RunSyncCycle(ctx)
	})

	logger.Info("Scheduled recurring jobs", "sync_interval", interval)
}
