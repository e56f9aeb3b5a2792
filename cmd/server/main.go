package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	creditapp "github.com/creditledger/backend/internal/application/credit"
	"github.com/creditledger/backend/internal/infrastructure/cache"
	"github.com/creditledger/backend/internal/infrastructure/config"
	"github.com/creditledger/backend/internal/infrastructure/lock"
	"github.com/creditledger/backend/internal/infrastructure/logger"
	"github.com/creditledger/backend/internal/infrastructure/persistence"
	"github.com/creditledger/backend/internal/interfaces/http/handler"
	"github.com/creditledger/backend/internal/interfaces/http/middleware"
	"github.com/creditledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Credit Ledger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	grantRepo := persistence.NewGormCreditGrantRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	memoRepo := persistence.NewGormCreditMemoRepository(db.DB)
	damageRepo := persistence.NewGormDamageReportRepository(db.DB)

	// Per-customer mutual exclusion. Redis-backed when configured, so
	// concurrent writers on different instances still serialize per customer.
	lockFactory := lock.NewManagerFactory(cfg.Redis, cfg.Lock, lock.WithLogger(log))
	lockManager, err := lockFactory.CreateManager()
	if err != nil {
		log.Fatal("Failed to create customer lock manager", zap.Error(err))
	}
	defer func() {
		if err := lockManager.Close(); err != nil {
			log.Error("Error closing lock manager", zap.Error(err))
		}
	}()

	// Idempotency store for replay-safe credit application
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize application services
	resolver := creditapp.NewRefResolver(customerRepo, invoiceRepo)
	ledgerService := creditapp.NewLedgerService(grantRepo, invoiceRepo, resolver, log)
	allocationService := creditapp.NewAllocationService(
		grantRepo, invoiceRepo, resolver, lockManager, idempotencyStore, log)
	reconciliationService := creditapp.NewReconciliationService(grantRepo, invoiceRepo, resolver, log)
	discrepancyService := creditapp.NewDiscrepancyService(memoRepo, damageRepo, invoiceRepo, resolver, log)
	approvalService := creditapp.NewApprovalService(memoRepo, grantRepo, allocationService, lockManager, log)
	dispatcher := creditapp.NewDispatcher(
		ledgerService, allocationService, reconciliationService, discrepancyService, approvalService)

	// Initialize HTTP handlers
	creditHandler := handler.NewCreditHandler(
		ledgerService, allocationService, reconciliationService, discrepancyService, approvalService, dispatcher)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Credit ledger domain
	creditRoutes := router.NewDomainGroup("credit", "/credit")
	creditRoutes.POST("/apply", creditHandler.ApplyCredit)
	creditRoutes.POST("/grants", creditHandler.AccrueReward)
	creditRoutes.GET("/customers/:ref/balance", creditHandler.GetBalance)
	creditRoutes.GET("/customers/:ref/purchase-history", creditHandler.GetPurchaseHistory)
	creditRoutes.POST("/discrepancies/shortage", creditHandler.ReportQuantityShortage)
	creditRoutes.POST("/discrepancies/damage", creditHandler.ReportDamage)
	creditRoutes.POST("/memos/:ref/approve", creditHandler.ApproveCreditMemo)
	creditRoutes.POST("/reconcile", creditHandler.ReconcilePartialPayment)
	r.Register(creditRoutes)

	// Single entry point for action-name driven clients
	operationRoutes := router.NewDomainGroup("operations", "/operations")
	operationRoutes.POST("", creditHandler.Dispatch)
	r.Register(operationRoutes)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
