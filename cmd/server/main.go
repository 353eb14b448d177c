package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/retailops/backend/internal/application/billing"
	appledger "github.com/retailops/backend/internal/application/ledger"
	apptransfer "github.com/retailops/backend/internal/application/transfer"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/event"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting RetailOps backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	stockLevelRepo := persistence.NewGormStockLevelRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	transferRepo := persistence.NewGormStockTransferRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)

	// Transaction scopes
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	transferScope := persistence.NewGormTransferTransactionScope(db.DB)
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)

	// Application services
	ledgerService := appledger.NewLedgerService(ledgerScope, stockLevelRepo, movementRepo, reservationRepo, locationRepo)
	ledgerService.SetReservationTTL(cfg.Reservation.DefaultTTL)
	transferService := apptransfer.NewTransferService(transferScope, transferRepo, stockLevelRepo, locationRepo)
	billingService := appbilling.NewBillingService(billingScope, transactionRepo, refundRepo, productRepo, locationRepo)

	// Event bus with optional Redis fan-out
	eventBus := event.NewInMemoryEventBus(cfg.Event, log)
	if cfg.Redis.Enabled {
		redisPublisher, err := event.NewRedisEventPublisher(cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisPublisher.Close(); err != nil {
				log.Error("Error closing redis publisher", zap.Error(err))
			}
		}()
		eventBus.Subscribe(redisPublisher)
		log.Info("Redis event publisher registered", zap.String("addr", cfg.Redis.Addr()))
	}

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	ledgerService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	billingService.SetEventPublisher(eventBus)

	// Background sweep returning expired reservation holds
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Reservation.AutoReleaseEnabled {
		expirationService := appledger.NewReservationExpirationService(ledgerScope, reservationRepo, stockLevelRepo, log)
		go expirationService.Run(sweepCtx, cfg.Reservation.SweepInterval)
		log.Info("Reservation expiry sweep started",
			zap.Duration("interval", cfg.Reservation.SweepInterval),
			zap.Duration("default_ttl", cfg.Reservation.DefaultTTL),
		)
	}

	// HTTP layer
	jwtService := auth.NewJWTService(cfg.JWT)
	engine := router.New(router.Dependencies{
		Config:      cfg,
		Logger:      log,
		JWTService:  jwtService,
		Stock:       handler.NewStockHandler(ledgerService),
		Transfer:    handler.NewTransferHandler(transferService),
		Billing:     handler.NewBillingHandler(billingService),
		System:      handler.NewSystemHandler(cfg.App.Name, version, cfg.App.Env),
		HealthCheck: healthHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports database connectivity
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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
