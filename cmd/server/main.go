// Package main is the entry point for the bookstore API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	v1 "bookstore/internal/infrastructure/http/v1"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/internal/infrastructure/storage/postgres/auth_repo"
	"bookstore/internal/infrastructure/storage/postgres/backorder_repo"
	"bookstore/internal/infrastructure/storage/postgres/catalog_repo"
	"bookstore/internal/infrastructure/storage/postgres/customer_repo"
	"bookstore/internal/infrastructure/storage/postgres/ledger_repo"
	"bookstore/internal/infrastructure/storage/postgres/order_repo"
	"bookstore/internal/infrastructure/storage/postgres/procurement_repo"
	"bookstore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting bookstore server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	bookRepo := catalog_repo.NewBookRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	profileRepo := customer_repo.NewProfileRepo(txManager)
	orderRepo := order_repo.NewOrderRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	backorderRepo := backorder_repo.NewRequestRepo(txManager)
	purchaseOrderRepo := procurement_repo.NewPurchaseOrderRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	bookService := book.NewService(bookRepo)
	supplierService := supplier.NewService(supplierRepo)
	customerService := customer.NewService(profileRepo, txManager, auditService)
	orderService := orders.NewService(orderRepo, txManager)
	backorderService := backorder.NewService(backorderRepo, txManager)

	ledgerRecorder := ledger.NewRecorder(ledgerRepo)
	inventoryManager := inventory.NewManager(bookRepo, ledgerRecorder)

	settlementEngine := settlement.NewEngine(
		bookRepo, profileRepo, orderRepo, backorderRepo, inventoryManager, txManager)
	procurementEngine := procurement.NewEngine(
		purchaseOrderRepo, bookRepo, supplierRepo, backorderRepo, inventoryManager, txManager)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(
		userRepo, customerService, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		TxManager:         txManager,
		Logger:            log,
		JWTValidator:      jwtService,
		Audit:             auditService,
		AuthService:       authService,
		BookService:       bookService,
		SupplierService:   supplierService,
		CustomerService:   customerService,
		OrderService:      orderService,
		BackorderService:  backorderService,
		SettlementEngine:  settlementEngine,
		ProcurementEngine: procurementEngine,
		InventoryManager:  inventoryManager,
		LedgerRecorder:    ledgerRecorder,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
