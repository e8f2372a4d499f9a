package ledger

import (
	"context"
	"fmt"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
)

// Recorder appends stock-change records. It is called by the inventory
// manager inside the transaction that mutates the stock quantity, so an
// entry and its stock write commit or roll back together.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a new ledger recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record validates and appends one entry.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if id.IsNil(e.BookID) {
		return apperror.NewValidation("ledger entry requires a book reference")
	}
	if !e.ChangeType.Valid() {
		return apperror.NewValidation("unknown ledger change type").
			WithDetail("value", string(e.ChangeType))
	}
	if e.QtyChange == 0 {
		return apperror.NewValidation("ledger entry requires a non-zero quantity change")
	}
	if e.QtyAfter < 0 {
		return apperror.NewValidation("ledger qty_after cannot be negative")
	}

	if err := r.repo.Append(ctx, e); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// History returns a book's entries in creation order.
func (r *Recorder) History(ctx context.Context, bookID id.ID, filter ListFilter) ([]Entry, error) {
	return r.repo.ListByBook(ctx, bookID, filter)
}
