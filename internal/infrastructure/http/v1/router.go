// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"bookstore/internal/domain/auth"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/catalogs/supplier"
	"bookstore/internal/domain/customer"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/domain/ledger"
	"bookstore/internal/domain/orders"
	"bookstore/internal/domain/procurement"
	"bookstore/internal/domain/settlement"
	"bookstore/internal/infrastructure/http/v1/handlers"
	"bookstore/internal/infrastructure/http/v1/middleware"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/pkg/logger"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager provides transaction boundaries for handler-level operations
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Audit records admin mutations and serves entity history. Optional;
	// nil disables recording and the history endpoint.
	Audit *postgres.AuditService

	AuthService       *auth.Service
	BookService       *book.Service
	SupplierService   *supplier.Service
	CustomerService   *customer.Service
	OrderService      *orders.Service
	BackorderService  *backorder.Service
	SettlementEngine  *settlement.Engine
	ProcurementEngine *procurement.Engine
	InventoryManager  *inventory.Manager
	LedgerRecorder    *ledger.Recorder
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// Typed-nil guard: a nil *AuditService must stay a nil Auditor.
	var auditor handlers.Auditor
	if cfg.Audit != nil {
		auditor = cfg.Audit
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	bookHandler := handlers.NewBookHandler(base, cfg.BookService)
	supplierHandler := handlers.NewSupplierHandler(base, cfg.SupplierService)
	customerHandler := handlers.NewCustomerHandler(base, cfg.CustomerService)
	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.SettlementEngine)
	orderHandler := handlers.NewOrderHandler(base, cfg.OrderService)
	backorderHandler := handlers.NewBackorderHandler(base, cfg.BackorderService)
	procurementHandler := handlers.NewProcurementHandler(base, cfg.ProcurementEngine, auditor)
	stockHandler := handlers.NewStockHandler(base, cfg.InventoryManager, cfg.LedgerRecorder, cfg.TxManager, auditor)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Public: registration, login and catalog browsing.
		authHandler.RegisterRoutes(v1.Group("/auth"))
		bookHandler.RegisterRoutes(v1.Group("/catalog/books"))

		// Authenticated customer surface.
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		{
			authHandler.RegisterProtectedRoutes(protected.Group("/auth"))
			customerHandler.RegisterRoutes(protected.Group("/customers"))
			purchaseHandler.RegisterRoutes(protected.Group("/purchase"))
			orderHandler.RegisterRoutes(protected.Group("/orders"))
			protected.POST("/orders/:id/pay", purchaseHandler.PayOrder)
			backorderHandler.RegisterRoutes(protected.Group("/backorders"))
		}

		// Admin surface: catalogs, fulfillment, procurement, stock, credit.
		admin := v1.Group("/admin")
		admin.Use(middleware.Auth(cfg.JWTValidator))
		admin.Use(middleware.RequireAdmin())
		{
			bookHandler.RegisterAdminRoutes(admin.Group("/catalog/books"))
			supplierHandler.RegisterAdminRoutes(admin.Group("/catalog/suppliers"))
			customerHandler.RegisterAdminRoutes(admin.Group("/customers"))
			orderHandler.RegisterAdminRoutes(admin.Group("/orders"))
			backorderHandler.RegisterAdminRoutes(admin.Group("/backorders"))
			procurementHandler.RegisterAdminRoutes(admin.Group("/purchase-orders"))
			admin.POST("/stock-in", procurementHandler.ManualStockIn)
			stockHandler.RegisterAdminRoutes(admin.Group("/stock"))
			if cfg.Audit != nil {
				auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
				auditHandler.RegisterAdminRoutes(admin.Group("/audit"))
			}
		}
	}

	return router
}
