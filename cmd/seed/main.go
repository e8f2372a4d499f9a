// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/auth"
	"bookstore/internal/domain/catalogs/supplier"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/internal/infrastructure/storage/postgres/auth_repo"
	"bookstore/internal/infrastructure/storage/postgres/catalog_repo"
	"bookstore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoCatalog(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo catalog", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@bookstore.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo(txManager)

	exists, err := userRepo.Exists(ctx, adminEmail)
	if err != nil {
		return err
	}
	if exists {
		log.Infow("admin user already exists", "email", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := auth.NewUser(adminEmail, string(hash))
	admin.FullName = "Store Administrator"
	admin.IsAdmin = true

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return userRepo.Create(ctx, admin)
	})
	if err != nil {
		return err
	}

	log.Infow("admin user created", "email", adminEmail, "id", admin.ID)
	return nil
}

// seedDemoCatalog loads a demo supplier and a small book catalog.
// Books go in through the COPY protocol in one transaction.
func seedDemoCatalog(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	inserter := postgres.NewBatchInserter(txManager)

	sup := supplier.New("Evergreen Book Distributors")
	sup.ContactName = "Dana Willis"
	sup.Phone = "+1-555-0134"
	sup.Email = "orders@evergreen-books.example"
	sup.Address = "14 Harbor Rd, Portland"

	type seedBook struct {
		bookNo   string
		volumeNo string
		title    string
		price    string
		stockQty int64
	}
	books := []seedBook{
		{"BK-1001", "", "The Sea Cloak", "18.50", 25},
		{"BK-1002", "1", "A History of Tides, Vol. 1", "42.00", 10},
		{"BK-1002", "2", "A History of Tides, Vol. 2", "42.00", 8},
		{"BK-1003", "", "Paper Lanterns", "12.99", 40},
		{"BK-1004", "", "The Cartographer's Daughter", "24.00", 0},
	}

	columns := []string{
		"id", "book_no", "volume_no", "title", "price", "stock_qty",
		"publisher_name", "category_name", "supplier_id",
		"supplier_catalog_enabled", "version", "created_at", "updated_at",
	}

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := supplierRepo.Create(ctx, sup); err != nil {
			return err
		}

		now := time.Now().UTC()
		rows := make([][]any, len(books))
		for i, b := range books {
			rows[i] = []any{
				id.New(), b.bookNo, b.volumeNo, b.title,
				types.MustMoney(b.price), b.stockQty,
				"Evergreen Press", "fiction", sup.ID,
				true, 1, now, now,
			}
		}

		inserted, err := inserter.CopyFromSlice(ctx, "cat_books", columns, rows)
		if err != nil {
			return fmt.Errorf("copy books: %w", err)
		}

		log.Infow("demo catalog seeded", "supplier", sup.Name, "books", inserted)
		return nil
	})
}
