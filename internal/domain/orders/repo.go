package orders

import (
	"context"
	"time"

	"bookstore/internal/core/id"
)

// Repository defines the interface for order persistence.
// The settlement engine is the sole writer of orders and items.
type Repository interface {
	// Create inserts the order and all its items.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order with items (and shipment if present).
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate retrieves an order with a row lock for status transitions.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// SetStatus writes a status transition; paidAt is set when non-nil.
	SetStatus(ctx context.Context, orderID id.ID, status Status, paidAt *time.Time) error

	// SaveShipment upserts the shipment row for an order.
	SaveShipment(ctx context.Context, sh *Shipment) error

	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*Order, error)
}
