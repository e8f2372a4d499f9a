package procurement

import (
	"context"

	"bookstore/internal/core/id"
)

// Repository persists purchase orders with their lines.
type Repository interface {
	// Create inserts the purchase order and all of its lines.
	Create(ctx context.Context, po *PurchaseOrder) error

	// GetByID loads the purchase order with its lines.
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetForUpdate loads the purchase order with its lines under a
	// row lock on the header.
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// SetStatus updates the header status and received timestamp.
	SetStatus(ctx context.Context, po *PurchaseOrder) error

	// ListBySupplier returns purchase orders for one supplier,
	// newest first.
	ListBySupplier(ctx context.Context, supplierID id.ID, limit, offset int) ([]*PurchaseOrder, error)

	// List returns purchase orders newest first.
	List(ctx context.Context, limit, offset int) ([]*PurchaseOrder, error)
}
