package book

import (
	"context"

	"bookstore/internal/core/id"
)

// Repository defines the interface for book persistence.
type Repository interface {
	Create(ctx context.Context, b *Book) error

	// Update modifies catalog fields with optimistic locking.
	// It does not touch stock_qty; that column belongs to SetStockQty.
	Update(ctx context.Context, b *Book) error

	GetByID(ctx context.Context, bookID id.ID) (*Book, error)

	// GetForUpdate retrieves a book with a row lock. Settlement and
	// procurement lock the book before validating stock.
	GetForUpdate(ctx context.Context, bookID id.ID) (*Book, error)

	// FindByNumber retrieves a book by (bookNo, volumeNo).
	FindByNumber(ctx context.Context, bookNo, volumeNo string) (*Book, error)

	// SetStockQty writes the stock quantity. Called only by the inventory
	// manager, inside the transaction that records the ledger entry.
	SetStockQty(ctx context.Context, bookID id.ID, qty int64) error

	// ListBySupplier returns supplier-catalog titles for procurement.
	ListBySupplier(ctx context.Context, supplierID id.ID) ([]*Book, error)

	List(ctx context.Context, limit, offset int) ([]*Book, error)
}
