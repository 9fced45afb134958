// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/report"
	"lotledger/internal/domain/tracking"
	"lotledger/internal/infrastructure/http/v1/handlers"
	"lotledger/internal/infrastructure/http/v1/middleware"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool     *postgres.Pool
	Logger   *logger.Logger
	Tracking *tracking.Service
	Batches  batch.Repository
	Ledger   ledger.Repository
	Reports  report.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.UserContext())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	trackingHandler := handlers.NewTrackingHandler(base, cfg.Tracking)
	batchHandler := handlers.NewBatchHandler(base, cfg.Tracking, cfg.Batches, cfg.Ledger, cfg.Reports)

	api := router.Group("/api/v1")
	{
		trk := api.Group("/tracking")
		{
			trk.POST("/receipts", trackingHandler.Receive)
			trk.POST("/job-works/:id/issue", trackingHandler.Issue)
			trk.POST("/job-works/:id/return", trackingHandler.Return)
			trk.POST("/dispatches", trackingHandler.Dispatch)
			trk.POST("/validate/selection", trackingHandler.ValidateSelection)
			trk.POST("/validate/fifo", trackingHandler.ValidateFIFO)
		}

		batches := api.Group("/batches")
		{
			batches.GET("/:id", batchHandler.Get)
			batches.GET("/:id/traceability", batchHandler.Traceability)
			batches.GET("/:id/movements", batchHandler.Movements)
			batches.GET("/:id/report", batchHandler.Report)
		}

		items := api.Group("/items")
		{
			items.GET("/:id/batches", batchHandler.ItemBatches)
			items.GET("/:id/stock-summary", batchHandler.StockSummary)
			items.GET("/:id/movements", batchHandler.ItemMovements)
		}

		vendors := api.Group("/vendors")
		{
			vendors.GET("/:id/movements", batchHandler.VendorMovements)
		}
	}

	return router
}
