package backorder

import (
	"context"

	"bookstore/internal/core/id"
)

// Repository defines the interface for request persistence.
type Repository interface {
	Create(ctx context.Context, r *Request) error

	GetByID(ctx context.Context, requestID id.ID) (*Request, error)

	// GetByIDs fetches a procurement batch. Missing ids are an error: the
	// batch must be complete or rejected whole.
	GetByIDs(ctx context.Context, requestIDs []id.ID) ([]*Request, error)

	Update(ctx context.Context, r *Request) error

	// SetStatus updates status (and reply when non-empty) for many requests.
	SetStatus(ctx context.Context, requestIDs []id.ID, status Status, adminReply string) error

	// ListOpenByBooks returns requests for the given books still in the
	// given statuses; used when a receipt closes backorders.
	ListOpenByBooks(ctx context.Context, bookIDs []id.ID, statuses []Status) ([]*Request, error)

	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*Request, error)

	ListByStatus(ctx context.Context, statuses []Status, limit, offset int) ([]*Request, error)
}
