package ledger

import (
	"context"
	"time"

	"bookstore/internal/core/id"
)

// Repository defines operations for ledger persistence.
// Entries are insert-only; there is no update or delete.
type Repository interface {
	Append(ctx context.Context, e Entry) error

	// ListByBook returns entries for a book in creation order.
	ListByBook(ctx context.Context, bookID id.ID, filter ListFilter) ([]Entry, error)

	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// ListFilter narrows ledger history queries.
type ListFilter struct {
	ChangeType *ChangeType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
