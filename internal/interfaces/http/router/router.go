package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Dependencies holds everything the router needs to wire the API
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWTService *auth.JWTService

	Stock    *handler.StockHandler
	Transfer *handler.TransferHandler
	Billing  *handler.BillingHandler
	System   *handler.SystemHandler

	// HealthCheck reports backend readiness (database connectivity)
	HealthCheck gin.HandlerFunc
}

// New builds the gin engine with the full middleware stack and all routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(deps.Config.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
			deps.Logger.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = deps.Config.HTTP.CORSAllowOrigins
	if len(deps.Config.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = deps.Config.HTTP.CORSAllowMethods
	}
	if len(deps.Config.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = deps.Config.HTTP.CORSAllowHeaders
	}
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Probes stay outside authentication
	if deps.HealthCheck != nil {
		engine.GET("/health", deps.HealthCheck)
	}
	engine.GET("/system/ping", deps.System.Ping)

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: deps.JWTService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: deps.Logger,
	}))

	system := api.Group("/system")
	system.GET("/ping", deps.System.Ping)
	system.GET("/info", deps.System.Info)

	stock := api.Group("/stock")
	stock.GET("/levels", deps.Stock.List)
	stock.GET("/levels/lookup", deps.Stock.Lookup)
	stock.GET("/movements", deps.Stock.ListMovements)
	stock.GET("/alerts", deps.Stock.ListAlerts)
	stock.POST("/adjust", deps.Stock.Adjust)
	stock.POST("/set-quantity", deps.Stock.SetQuantity)
	stock.POST("/bulk", deps.Stock.BulkAdjust)
	stock.POST("/reserve", deps.Stock.Reserve)
	stock.POST("/release", deps.Stock.Release)
	stock.PUT("/thresholds", deps.Stock.SetThresholds)

	transfers := api.Group("/transfers")
	transfers.POST("", deps.Transfer.Create)
	transfers.GET("", deps.Transfer.List)
	transfers.GET("/:id", deps.Transfer.GetByID)
	transfers.POST("/:id/process", deps.Transfer.Process)
	transfers.POST("/:id/cancel", deps.Transfer.Cancel)

	billing := api.Group("/billing")
	billing.POST("/transactions", deps.Billing.CreateTransaction)
	billing.GET("/transactions", deps.Billing.ListTransactions)
	billing.GET("/transactions/:id", deps.Billing.GetTransaction)
	billing.POST("/payments", deps.Billing.ProcessPayment)
	billing.POST("/refunds", deps.Billing.ProcessRefund)
	billing.POST("/quick-sale", deps.Billing.QuickSale)

	return engine
}
