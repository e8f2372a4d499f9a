// Package inventory owns stock quantity mutation. No other component writes
// a book's stock directly; every successful mutation pairs with exactly one
// ledger entry whose qty_after matches the new stock value, inside the
// caller's transaction.
package inventory

import (
	"context"
	"fmt"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/ledger"
)

// Manager is the source of truth for whether a sale or receipt can proceed.
// All methods must run inside a transaction started by the caller; they take
// a row lock on the book before validating.
type Manager struct {
	books  book.Repository
	ledger *ledger.Recorder
}

// NewManager creates a new inventory manager.
func NewManager(books book.Repository, recorder *ledger.Recorder) *Manager {
	return &Manager{books: books, ledger: recorder}
}

// SaleOut decrements stock for a sale and records a sale_out entry.
// Fails with INSUFFICIENT_STOCK when qty exceeds the current quantity.
func (m *Manager) SaleOut(ctx context.Context, bookID id.ID, qty int64, note string) (*book.Book, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("sale quantity must be positive")
	}

	b, err := m.books.GetForUpdate(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if qty > b.StockQty {
		return nil, apperror.NewInsufficientStock(b.ID.String(), qty, b.StockQty)
	}

	return m.apply(ctx, b, ledger.ChangeSaleOut, -qty, note)
}

// PurchaseIn increases stock from a purchase-order receipt and records a
// purchase_in entry. Fails with QTY_OVERFLOW above the representable maximum.
func (m *Manager) PurchaseIn(ctx context.Context, bookID id.ID, qty int64, note string) (*book.Book, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("receipt quantity must be positive")
	}

	b, err := m.books.GetForUpdate(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return m.apply(ctx, b, ledger.ChangePurchaseIn, qty, note)
}

// ManualAdjust applies a signed admin correction and records a manual_adjust
// entry. Both the zero floor and the representable maximum are enforced.
func (m *Manager) ManualAdjust(ctx context.Context, bookID id.ID, delta int64, note string) (*book.Book, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("adjustment delta cannot be zero")
	}

	b, err := m.books.GetForUpdate(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return m.apply(ctx, b, ledger.ChangeManualAdjust, delta, note)
}

// apply writes the new quantity and the paired ledger entry.
func (m *Manager) apply(ctx context.Context, b *book.Book, change ledger.ChangeType, delta int64, note string) (*book.Book, error) {
	next, ok := types.AddStockQty(b.StockQty, delta)
	if !ok {
		if delta < 0 {
			return nil, apperror.NewInsufficientStock(b.ID.String(), -delta, b.StockQty)
		}
		return nil, apperror.NewQtyOverflow(b.ID.String(), b.StockQty, delta)
	}

	if err := m.books.SetStockQty(ctx, b.ID, next); err != nil {
		return nil, fmt.Errorf("set stock qty: %w", err)
	}

	entry := ledger.NewEntry(b.ID, change, delta, next, note)
	if err := m.ledger.Record(ctx, entry); err != nil {
		return nil, err
	}

	b.StockQty = next
	return b, nil
}
