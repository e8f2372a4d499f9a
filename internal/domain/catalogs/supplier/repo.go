package supplier

import (
	"context"

	"bookstore/internal/core/id"
)

// Repository defines the interface for supplier persistence.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	ListActive(ctx context.Context) ([]*Supplier, error)
}
